package vendra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/provider"
)

// SyncStats summarizes one sync pass over in-flight orders.
type SyncStats struct {
	Checked   int           `json:"checked"`
	Updated   int           `json:"updated"`
	Delivered int           `json:"delivered"`
	Failed    int           `json:"failed"`
	Errors    int           `json:"errors"`
	Elapsed   time.Duration `json:"elapsed"`
}

// SyncOrder polls the provider for one order's status and folds the
// answer into the order state machine. Terminal orders have no legal
// outbound transitions, so syncing one is rejected with ErrOrderTerminal
// before the provider is consulted.
func (e *Engine) SyncOrder(ctx context.Context, orderID id.ID) (*order.Order, error) {
	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return o, fmt.Errorf("%w: %s is %s", ErrOrderTerminal, o.OrderNumber, o.Status)
	}
	if o.ProviderOrderID == "" {
		return nil, provider.ErrMissingProviderRef
	}

	p, cfg, err := e.providerFor(ctx, o.ProviderID)
	if err != nil {
		return nil, err
	}

	result, err := p.CheckStatus(ctx, o.ProviderOrderID)
	if err != nil {
		e.logger.Warn("provider status check failed",
			"order_number", o.OrderNumber,
			"provider", cfg.Name,
			"error", err,
		)
		e.plugins.EmitProviderSync(ctx, cfg.Name, false, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrProviderSync, cfg.Name, err)
	}

	o.ProviderStatus = result.Status
	if len(result.Data) > 0 {
		if o.OutputData == nil {
			o.OutputData = make(map[string]any, len(result.Data))
		}
		for k, v := range result.Data {
			o.OutputData[k] = v
		}
	}

	if err := e.applyProviderStatus(ctx, o, p.NormalizeStatus(result.Status)); err != nil {
		return nil, err
	}
	if err := e.settleOrderItems(ctx, o); err != nil {
		return nil, err
	}

	if err := e.store.MarkProviderSynced(ctx, o.ProviderID, e.now()); err != nil {
		return nil, err
	}

	e.plugins.EmitProviderSync(ctx, cfg.Name, true, nil)
	return o, nil
}

// SyncPending syncs every in-flight order exactly once, rate limited
// across providers. The processing set is snapshotted up front; orders
// still processing after their check come back on the next pass.
func (e *Engine) SyncPending(ctx context.Context) (SyncStats, error) {
	start := e.now()
	stats := SyncStats{}
	limiter := rate.NewLimiter(e.syncRate, 1)

	ids, err := e.pendingSyncIDs(ctx)
	if err != nil {
		return stats, err
	}

	for _, orderID := range ids {
		if err := limiter.Wait(ctx); err != nil {
			return stats, err
		}

		stats.Checked++
		synced, err := e.SyncOrder(ctx, orderID)
		if err != nil {
			// Reached terminal between the snapshot and the check.
			if errors.Is(err, ErrOrderTerminal) {
				continue
			}
			stats.Errors++
			continue
		}
		switch synced.Status {
		case order.StatusDelivered:
			stats.Updated++
			stats.Delivered++
		case order.StatusFailed:
			stats.Updated++
			stats.Failed++
		}
	}

	stats.Elapsed = e.now().Sub(start)
	e.logger.Info("sync pass completed",
		"checked", stats.Checked,
		"updated", stats.Updated,
		"errors", stats.Errors,
		"elapsed", stats.Elapsed,
	)
	e.plugins.EmitSyncBatchCompleted(ctx, stats.Checked, stats.Elapsed)
	return stats, nil
}

// pendingSyncIDs snapshots the IDs of every processing order, paged by
// the configured batch size. Syncing moves orders out of processing, so
// paging a live query would skip past their successors; the snapshot
// guarantees each order is visited once per pass.
func (e *Engine) pendingSyncIDs(ctx context.Context) ([]id.ID, error) {
	size := e.syncBatchSize
	if size <= 0 {
		size = defaultSyncBatchSize
	}

	var ids []id.ID
	for offset := 0; ; offset += size {
		batch, err := e.store.ListOrdersByStatus(ctx, order.StatusProcessing, size, offset)
		if err != nil {
			return nil, err
		}
		for _, o := range batch {
			ids = append(ids, o.ID)
		}
		if len(batch) < size {
			return ids, nil
		}
	}
}

// syncWorker periodically runs SyncPending until Stop.
func (e *Engine) syncWorker(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := e.SyncPending(ctx); err != nil {
				e.logger.Error("background sync failed", "error", err)
			}
		case <-e.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// settleOrderItems brings a bulk order's line items into lockstep with a
// parent that just reached delivered or failed.
func (e *Engine) settleOrderItems(ctx context.Context, o *order.Order) error {
	if o.Status != order.StatusDelivered && o.Status != order.StatusFailed {
		return nil
	}

	items, err := e.store.ListOrderItems(ctx, o.ID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Status.Terminal() {
			continue
		}
		if item.Status == order.StatusPending {
			if err := e.itemMachine.TransitionItem(item, order.StatusProcessing); err != nil {
				return err
			}
		}
		if err := e.itemMachine.TransitionItem(item, o.Status); err != nil {
			return err
		}
		if err := e.store.UpdateOrderItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}
