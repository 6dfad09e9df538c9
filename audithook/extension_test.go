package audithook

import (
	"context"
	"testing"

	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/types"
)

func captureRecorder(events *[]*AuditEvent) RecorderFunc {
	return func(_ context.Context, evt *AuditEvent) error {
		*events = append(*events, evt)
		return nil
	}
}

func TestOrderPlacedEvent(t *testing.T) {
	var events []*AuditEvent
	ext := New(captureRecorder(&events))

	o := &order.Order{
		ID:          id.New(id.PrefixOrder),
		OrderNumber: "ORD-TEST",
		ServiceID:   id.New(id.PrefixService),
		TotalAmount: types.USD(1200),
	}
	if err := ext.OnOrderPlaced(context.Background(), o); err != nil {
		t.Fatal(err)
	}

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	evt := events[0]
	if evt.Action != ActionOrderPlaced || evt.Resource != ResourceOrder {
		t.Errorf("unexpected event %+v", evt)
	}
	if evt.ResourceID != o.ID.String() {
		t.Errorf("resource_id = %s, want %s", evt.ResourceID, o.ID)
	}
	if evt.Metadata["order_number"] != "ORD-TEST" {
		t.Errorf("metadata = %+v", evt.Metadata)
	}
}

func TestDisabledActionsAreSkipped(t *testing.T) {
	var events []*AuditEvent
	ext := New(captureRecorder(&events), WithDisabledActions(ActionPaymentLocked))

	if err := ext.OnPaymentLocked(context.Background(), "ord_x", 100); err != nil {
		t.Fatal(err)
	}
	if err := ext.OnPaymentCompleted(context.Background(), "ord_x", 100); err != nil {
		t.Fatal(err)
	}

	if len(events) != 1 || events[0].Action != ActionPaymentCompleted {
		t.Fatalf("events = %+v", events)
	}
}

func TestSuccessfulSyncIsNotAudited(t *testing.T) {
	var events []*AuditEvent
	ext := New(captureRecorder(&events))

	if err := ext.OnProviderSync(context.Background(), "upstream", true, nil); err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("success sync should not be audited, got %+v", events)
	}
}

func TestUnexpectedPayloadIsIgnored(t *testing.T) {
	var events []*AuditEvent
	ext := New(captureRecorder(&events))

	if err := ext.OnOrderPlaced(context.Background(), "not an order"); err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("events = %+v", events)
	}
}
