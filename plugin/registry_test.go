package plugin

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type recorderPlugin struct {
	name       string
	placed     atomic.Int64
	statusFrom string
	statusTo   string
}

func (p *recorderPlugin) Name() string { return p.name }

func (p *recorderPlugin) OnOrderPlaced(ctx context.Context, ord interface{}) error {
	p.placed.Add(1)
	return nil
}

func (p *recorderPlugin) OnOrderStatusChanged(ctx context.Context, ord interface{}, from, to string) error {
	p.statusFrom = from
	p.statusTo = to
	return nil
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&recorderPlugin{name: "audit"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register(&recorderPlugin{name: "audit"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}
}

func TestRegistryDispatchesCachedHooks(t *testing.T) {
	r := NewRegistry()
	p := &recorderPlugin{name: "recorder"}
	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ctx := context.Background()
	r.EmitOrderPlaced(ctx, struct{}{})
	r.EmitOrderPlaced(ctx, struct{}{})
	r.EmitOrderStatusChanged(ctx, struct{}{}, "pending", "payment_confirmed")

	if got := p.placed.Load(); got != 2 {
		t.Fatalf("OnOrderPlaced calls = %d, want 2", got)
	}
	if p.statusFrom != "pending" || p.statusTo != "payment_confirmed" {
		t.Fatalf("status change = %s -> %s", p.statusFrom, p.statusTo)
	}
}

func TestRegistryGetAndList(t *testing.T) {
	r := NewRegistry()
	p := &recorderPlugin{name: "recorder"}
	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if got := r.Get("recorder"); got != p {
		t.Fatal("Get returned wrong plugin")
	}
	if got := r.Get("missing"); got != nil {
		t.Fatal("Get for unknown name should return nil")
	}
	if got := len(r.List()); got != 1 {
		t.Fatalf("List length = %d, want 1", got)
	}
}

func TestCallWithTimeoutCancellation(t *testing.T) {
	r := NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.callWithTimeout(ctx, "blocking", func() error {
		time.Sleep(10 * time.Second)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
