package order

import (
	"errors"
	"testing"

	"github.com/vendra/vendra/types"
)

func TestCanTransitionAllowList(t *testing.T) {
	m := NewMachine()

	tests := []struct {
		name    string
		from    Status
		to      Status
		role    types.Role
		allowed bool
	}{
		{"pending to payment_confirmed", StatusPending, StatusPaymentConfirmed, types.RoleCustomer, true},
		{"pending to cancelled", StatusPending, StatusCancelled, types.RoleCustomer, true},
		{"payment_confirmed to processing", StatusPaymentConfirmed, StatusProcessing, types.RoleReseller, true},
		{"processing to delivered", StatusProcessing, StatusDelivered, types.RoleCustomer, true},
		{"processing to failed", StatusProcessing, StatusFailed, types.RoleCustomer, true},
		{"failed retry", StatusFailed, StatusProcessing, types.RoleReseller, true},
		{"pending cannot skip to delivered", StatusPending, StatusDelivered, types.RoleAdmin, false},
		{"delivered cannot reprocess", StatusDelivered, StatusProcessing, types.RoleAdmin, false},
		{"processing cannot jump back", StatusProcessing, StatusPending, types.RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := m.CanTransition(tt.from, tt.to, tt.role)
			if d.Allowed != tt.allowed {
				t.Errorf("allowed = %v, want %v (reason: %s)", d.Allowed, tt.allowed, d.Reason)
			}
			if !tt.allowed && d.Reason == "" {
				t.Error("rejection must carry a reason")
			}
		})
	}
}

func TestCanTransitionRoleGates(t *testing.T) {
	m := NewMachine()

	tests := []struct {
		name    string
		from    Status
		to      Status
		role    types.Role
		allowed bool
	}{
		{"admin approves", StatusPaymentConfirmed, StatusApproved, types.RoleAdmin, true},
		{"reseller cannot approve", StatusPaymentConfirmed, StatusApproved, types.RoleReseller, false},
		{"admin refunds failed order", StatusFailed, StatusRefunded, types.RoleAdmin, true},
		{"customer cannot refund", StatusFailed, StatusRefunded, types.RoleCustomer, false},
		{"admin refunds delivered order", StatusDelivered, StatusRefunded, types.RoleAdmin, true},
		{"reseller cannot refund delivered", StatusDelivered, StatusRefunded, types.RoleReseller, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := m.CanTransition(tt.from, tt.to, tt.role)
			if d.Allowed != tt.allowed {
				t.Errorf("allowed = %v, want %v (reason: %s)", d.Allowed, tt.allowed, d.Reason)
			}
		})
	}
}

func TestSameStateIsNoOp(t *testing.T) {
	m := NewMachine()

	for _, s := range []Status{StatusPending, StatusProcessing, StatusDelivered, StatusCancelled} {
		if d := m.CanTransition(s, s, types.RoleCustomer); !d.Allowed {
			t.Errorf("%s → %s should be an idempotent no-op", s, s)
		}
	}

	o := &Order{Status: StatusProcessing}
	if err := m.Transition(o, StatusProcessing, types.RoleCustomer); err != nil {
		t.Errorf("same-state transition: %v", err)
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	m := NewMachine()
	all := []Status{
		StatusPending, StatusPaymentConfirmed, StatusApproved, StatusProcessing,
		StatusDelivered, StatusFailed, StatusRefunded, StatusCancelled,
	}

	for _, from := range []Status{StatusRefunded, StatusCancelled} {
		for _, to := range all {
			if to == from {
				continue
			}
			d := m.CanTransition(from, to, types.RoleAdmin)
			if d.Allowed {
				t.Errorf("%s → %s must be rejected even for admin", from, to)
			}
			if d.Reason == "" {
				t.Errorf("%s → %s rejection needs a reason", from, to)
			}
		}
	}
}

func TestTransitionErrors(t *testing.T) {
	m := NewMachine()

	o := &Order{Status: StatusPaymentConfirmed}
	err := m.Transition(o, StatusApproved, types.RoleReseller)
	if !errors.Is(err, ErrRoleRequired) {
		t.Errorf("role-gated rejection: got %v, want ErrRoleRequired", err)
	}
	if o.Status != StatusPaymentConfirmed {
		t.Error("order mutated by rejected transition")
	}

	o = &Order{Status: StatusCancelled}
	err = m.Transition(o, StatusDelivered, types.RoleAdmin)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("missing-edge rejection: got %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionAppliesStatus(t *testing.T) {
	m := NewMachine()

	o := &Order{Status: StatusProcessing, Entity: types.NewEntity()}
	if err := m.Transition(o, StatusDelivered, types.RoleCustomer); err != nil {
		t.Fatal(err)
	}
	if o.Status != StatusDelivered {
		t.Errorf("status: got %s, want delivered", o.Status)
	}
}

func TestItemMachine(t *testing.T) {
	m := NewItemMachine()

	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusDelivered, true},
		{StatusProcessing, StatusFailed, true},
		{StatusFailed, StatusProcessing, true},
		{StatusPending, StatusDelivered, false},
		{StatusDelivered, StatusProcessing, false},
		{StatusPending, StatusPaymentConfirmed, false},
	}

	for _, tt := range tests {
		d := m.CanTransition(tt.from, tt.to, "")
		if d.Allowed != tt.allowed {
			t.Errorf("%s → %s: allowed = %v, want %v", tt.from, tt.to, d.Allowed, tt.allowed)
		}
	}

	it := &Item{Status: StatusPending}
	if err := m.TransitionItem(it, StatusProcessing); err != nil {
		t.Fatal(err)
	}
	if it.Status != StatusProcessing {
		t.Errorf("item status: got %s", it.Status)
	}
	if err := m.TransitionItem(it, StatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("backwards item transition: got %v", err)
	}
}

func TestStatusHelpers(t *testing.T) {
	for _, s := range []Status{StatusDelivered, StatusRefunded, StatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusProcessing, StatusFailed} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	if Status("bogus").Valid() {
		t.Error("unknown status should not be valid")
	}
}
