package order

import (
	"errors"
	"fmt"

	"github.com/vendra/vendra/types"
)

// Sentinel errors for transition failures.
var (
	ErrInvalidTransition = errors.New("order: invalid transition")
	ErrRoleRequired      = errors.New("order: transition requires elevated role")
)

// edge is one allowed transition. An empty Roles set means any role may
// take the edge.
type edge struct {
	To    Status
	Roles []types.Role
}

// Decision is the outcome of a transition check. Reason is non-empty
// whenever Allowed is false.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Machine validates order status transitions against a fixed allow-list
// with optional role guards. A transition to the same state is always a
// no-op success so retried updates stay idempotent.
type Machine struct {
	table map[Status][]edge
}

// NewMachine builds the order state machine.
//
// Terminal states have no outbound edges, with one exception: an admin may
// refund a delivered order. Refunded and cancelled reject everything.
func NewMachine() *Machine {
	adminOnly := []types.Role{types.RoleAdmin}

	return &Machine{
		table: map[Status][]edge{
			StatusPending: {
				{To: StatusPaymentConfirmed},
				{To: StatusCancelled},
			},
			StatusPaymentConfirmed: {
				{To: StatusApproved, Roles: adminOnly},
				{To: StatusProcessing},
				{To: StatusCancelled},
			},
			StatusApproved: {
				{To: StatusProcessing},
				{To: StatusCancelled},
			},
			StatusProcessing: {
				{To: StatusDelivered},
				{To: StatusFailed},
			},
			StatusFailed: {
				{To: StatusProcessing}, // retry
				{To: StatusRefunded, Roles: adminOnly},
				{To: StatusCancelled},
			},
			StatusDelivered: {
				{To: StatusRefunded, Roles: adminOnly},
			},
			StatusRefunded:  {},
			StatusCancelled: {},
		},
	}
}

// NewItemMachine builds the simpler machine for bulk order line items.
func NewItemMachine() *Machine {
	return &Machine{
		table: map[Status][]edge{
			StatusPending: {
				{To: StatusProcessing},
			},
			StatusProcessing: {
				{To: StatusDelivered},
				{To: StatusFailed},
			},
			StatusFailed: {
				{To: StatusProcessing}, // retry
			},
			StatusDelivered: {},
		},
	}
}

// CanTransition checks whether the edge from → to exists and whether the
// caller's role may take it. Every rejection carries an explicit reason.
func (m *Machine) CanTransition(from, to Status, role types.Role) Decision {
	if from == to {
		return Decision{Allowed: true}
	}

	edges, known := m.table[from]
	if !known {
		return Decision{Reason: fmt.Sprintf("unknown status %q", from)}
	}

	for _, e := range edges {
		if e.To != to {
			continue
		}
		if len(e.Roles) == 0 || role.In(e.Roles) {
			return Decision{Allowed: true}
		}
		return Decision{Reason: fmt.Sprintf("transition %s → %s requires role %s", from, to, rolesString(e.Roles))}
	}

	if len(edges) == 0 {
		return Decision{Reason: fmt.Sprintf("%s is a terminal state", from)}
	}
	return Decision{Reason: fmt.Sprintf("transition %s → %s is not allowed", from, to)}
}

// Transition applies a status change to the order after validating it.
// A same-state transition succeeds without touching the order.
func (m *Machine) Transition(o *Order, to Status, role types.Role) error {
	if o.Status == to {
		return nil
	}

	d := m.CanTransition(o.Status, to, role)
	if !d.Allowed {
		if isRoleRejection(m.table[o.Status], to) {
			return fmt.Errorf("%w: %s", ErrRoleRequired, d.Reason)
		}
		return fmt.Errorf("%w: %s", ErrInvalidTransition, d.Reason)
	}

	o.Status = to
	o.Touch()
	return nil
}

// TransitionItem applies a status change to a bulk line item.
func (m *Machine) TransitionItem(it *Item, to Status) error {
	if it.Status == to {
		return nil
	}

	d := m.CanTransition(it.Status, to, "")
	if !d.Allowed {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, d.Reason)
	}

	it.Status = to
	it.Touch()
	return nil
}

// AllowedFrom returns the set of statuses reachable from the given one,
// ignoring role guards.
func (m *Machine) AllowedFrom(from Status) []Status {
	edges := m.table[from]
	result := make([]Status, 0, len(edges))
	for _, e := range edges {
		result = append(result, e.To)
	}
	return result
}

// isRoleRejection reports whether the edge exists but is role-gated, so
// the caller can distinguish access denial from a missing edge.
func isRoleRejection(edges []edge, to Status) bool {
	for _, e := range edges {
		if e.To == to && len(e.Roles) > 0 {
			return true
		}
	}
	return false
}

func rolesString(roles []types.Role) string {
	s := ""
	for i, r := range roles {
		if i > 0 {
			s += " or "
		}
		s += string(r)
	}
	return s
}
