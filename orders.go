package vendra

import (
	"context"
	"fmt"

	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/pricing"
	"github.com/vendra/vendra/provider"
	"github.com/vendra/vendra/service"
	"github.com/vendra/vendra/types"
	"github.com/vendra/vendra/wallet"
)

// PlaceOrderRequest carries everything needed to create an order.
type PlaceOrderRequest struct {
	TenantID   string         `json:"tenant_id"`
	UserID     id.ID          `json:"user_id"`
	ServiceID  id.ID          `json:"service_id"`
	ProviderID id.ID          `json:"provider_id"`
	Quantity   int64          `json:"quantity"`
	Input      map[string]any `json:"input"`
}

// BulkOrderRequest carries a bulk order: one priced parent order with an
// input payload per line item.
type BulkOrderRequest struct {
	TenantID   string           `json:"tenant_id"`
	UserID     id.ID            `json:"user_id"`
	ServiceID  id.ID            `json:"service_id"`
	ProviderID id.ID            `json:"provider_id"`
	Items      []map[string]any `json:"items"`
}

// ──────────────────────────────────────────────────
// Order Placement
// ──────────────────────────────────────────────────

// PlaceOrder validates, prices, and creates an order in pending status.
// Nothing is charged and nothing reaches the provider yet.
func (e *Engine) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*order.Order, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	acct, svc, err := e.orderPreconditions(ctx, req.UserID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	normalized, err := e.validateInput(svc, req.Input)
	if err != nil {
		return nil, err
	}

	rules, err := e.rulesFor(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	quote, err := pricing.Calculate(svc.BaseCost, rules, acct.Role, req.Quantity)
	if err != nil {
		return nil, err
	}

	o := e.newOrder(req.TenantID, req.UserID, svc, req.ProviderID, quote, normalized)
	if err := e.store.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	e.logger.Info("order placed",
		"order_number", o.OrderNumber,
		"service_id", svc.ID,
		"total", o.TotalAmount,
	)
	e.plugins.EmitOrderPlaced(ctx, o)
	return o, nil
}

// PlaceBulkOrder validates every line item before creating anything.
// One bad item rejects the whole batch, with errors keyed by item index.
func (e *Engine) PlaceBulkOrder(ctx context.Context, req BulkOrderRequest) (*order.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyBulkOrder
	}

	acct, svc, err := e.orderPreconditions(ctx, req.UserID, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.SupportsBulk {
		return nil, ErrBulkNotSupported
	}

	normalized := make([]map[string]any, len(req.Items))
	itemErrs := make(map[int]error)
	for i, input := range req.Items {
		n, err := e.validateInput(svc, input)
		if err != nil {
			itemErrs[i] = err
			continue
		}
		normalized[i] = n
	}
	if len(itemErrs) > 0 {
		return nil, &BulkError{Items: itemErrs}
	}

	rules, err := e.rulesFor(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	quote, err := pricing.Calculate(svc.BaseCost, rules, acct.Role, int64(len(req.Items)))
	if err != nil {
		return nil, err
	}

	o := e.newOrder(req.TenantID, req.UserID, svc, req.ProviderID, quote, nil)
	if err := e.store.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	items := make([]*order.Item, len(req.Items))
	for i, input := range normalized {
		item := &order.Item{
			ID:        id.New(id.PrefixOrderItem),
			OrderID:   o.ID,
			Index:     i,
			Status:    order.StatusPending,
			InputData: input,
		}
		item.Entity = types.NewEntity()
		items[i] = item
	}
	if err := e.store.CreateOrderItems(ctx, items); err != nil {
		return nil, err
	}

	e.logger.Info("bulk order placed",
		"order_number", o.OrderNumber,
		"items", len(items),
		"total", o.TotalAmount,
	)
	e.plugins.EmitOrderPlaced(ctx, o)
	return o, nil
}

// GetOrder retrieves an order by ID.
func (e *Engine) GetOrder(ctx context.Context, orderID id.ID) (*order.Order, error) {
	return e.store.GetOrder(ctx, orderID)
}

// GetOrderByNumber retrieves an order by its human-facing number.
func (e *Engine) GetOrderByNumber(ctx context.Context, tenantID, orderNumber string) (*order.Order, error) {
	return e.store.GetOrderByNumber(ctx, tenantID, orderNumber)
}

// ListOrders lists a tenant's orders.
func (e *Engine) ListOrders(ctx context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error) {
	return e.store.ListOrders(ctx, tenantID, opts)
}

// ListOrderItems lists a bulk order's line items.
func (e *Engine) ListOrderItems(ctx context.Context, orderID id.ID) ([]*order.Item, error) {
	return e.store.ListOrderItems(ctx, orderID)
}

// ──────────────────────────────────────────────────
// Order Lifecycle
// ──────────────────────────────────────────────────

// ApproveOrder records an admin's approval of a paid order.
func (e *Engine) ApproveOrder(ctx context.Context, orderID, approverID id.ID) (*order.Order, error) {
	approver, err := e.store.GetAccount(ctx, approverID)
	if err != nil {
		return nil, err
	}

	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	o.ApprovedBy = approverID
	o.ApprovedAt = &now
	if err := e.transitionOrder(ctx, o, order.StatusApproved, approver.Role); err != nil {
		return nil, err
	}
	return o, nil
}

// FulfillOrder sends a paid (and, where required, approved) order to its
// provider. On provider acceptance the order moves to processing and
// waits for sync; an immediate terminal report from the provider is
// applied right away.
func (e *Engine) FulfillOrder(ctx context.Context, orderID id.ID) (*order.Order, error) {
	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.ProviderOrderID != "" {
		return nil, ErrAlreadyFulfilled
	}

	svc, err := e.store.GetService(ctx, o.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.RequiresApproval && o.Status != order.StatusApproved {
		return nil, ErrApprovalRequired
	}

	p, cfg, err := e.providerFor(ctx, o.ProviderID)
	if err != nil {
		return nil, err
	}

	input, err := e.fulfillmentInput(ctx, p, o)
	if err != nil {
		return nil, err
	}

	if err := e.transitionOrder(ctx, o, order.StatusProcessing, ""); err != nil {
		return nil, err
	}

	result, err := p.PlaceOrder(ctx, o.ServiceID.String(), input, map[string]string{
		"order_number": o.OrderNumber,
		"tenant_id":    o.TenantID,
	})
	if err != nil {
		e.logger.Error("provider placement failed",
			"order_number", o.OrderNumber,
			"provider", cfg.Name,
			"error", err,
		)
		if terr := e.transitionOrder(ctx, o, order.StatusFailed, ""); terr != nil {
			return nil, terr
		}
		e.plugins.EmitOrderFailed(ctx, o, err)
		return o, err
	}

	o.ProviderOrderID = result.ProviderOrderID
	o.ProviderStatus = result.Status
	if err := e.applyProviderStatus(ctx, o, p.NormalizeStatus(result.Status)); err != nil {
		return nil, err
	}

	if err := e.startOrderItems(ctx, o); err != nil {
		return nil, err
	}

	e.plugins.EmitOrderFulfilled(ctx, o)
	return o, nil
}

// CancelOrder cancels a non-terminal order and releases any funds still
// locked for it.
func (e *Engine) CancelOrder(ctx context.Context, orderID id.ID, role types.Role) (*order.Order, error) {
	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusCancelled {
		return o, nil
	}

	if err := e.transitionOrder(ctx, o, order.StatusCancelled, role); err != nil {
		return nil, err
	}

	if o.PaidAmount.Amount > 0 {
		if err := e.cancelOrderPayment(ctx, o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// RefundOrder refunds a delivered or failed order. Admin only. A
// delivered order's settled debit is reversed; a failed order's funds
// are still locked and are simply released.
func (e *Engine) RefundOrder(ctx context.Context, orderID, adminID id.ID) (*order.Order, error) {
	admin, err := e.store.GetAccount(ctx, adminID)
	if err != nil {
		return nil, err
	}

	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusRefunded {
		return o, nil
	}
	if o.PaidAmount.Amount == 0 {
		return nil, ErrOrderNotRefundable
	}

	settled := o.Status == order.StatusDelivered
	if err := e.transitionOrder(ctx, o, order.StatusRefunded, admin.Role); err != nil {
		return nil, err
	}

	if settled {
		err = e.refundOrderPayment(ctx, o)
	} else {
		err = e.cancelOrderPayment(ctx, o)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ──────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────

// orderPreconditions loads the ordering account and the service and
// checks the service is orderable by that account.
func (e *Engine) orderPreconditions(ctx context.Context, userID, serviceID id.ID) (*wallet.Account, *service.Service, error) {
	acct, err := e.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	svc, err := e.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, nil, err
	}
	if !svc.Active {
		return nil, nil, ErrServiceInactive
	}
	if !svc.AllowsRole(acct.Role) {
		return nil, nil, fmt.Errorf("%w: %s", ErrRoleNotAllowed, acct.Role)
	}

	return acct, svc, nil
}

// validateInput runs the service schema over one input payload and
// returns the normalized values.
func (e *Engine) validateInput(svc *service.Service, input map[string]any) (map[string]any, error) {
	result := svc.InputSchema.Validate(input)
	if !result.Valid {
		return nil, &InputError{Fields: result.Errors}
	}
	return result.Normalized, nil
}

// fulfillmentInput builds the payload sent to the provider and validates
// it at the provider layer. Bulk orders carry their inputs on the line
// items, not the parent, so those are gathered under an "items" key with
// every item validated individually.
func (e *Engine) fulfillmentInput(ctx context.Context, p provider.Provider, o *order.Order) (map[string]any, error) {
	if o.InputData != nil {
		if v := p.ValidateInput(o.InputData); !v.Valid {
			return nil, &InputError{Fields: v.Errors}
		}
		return o.InputData, nil
	}

	items, err := e.store.ListOrderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	inputs := make([]map[string]any, len(items))
	for i, item := range items {
		if v := p.ValidateInput(item.InputData); !v.Valid {
			return nil, &InputError{Fields: v.Errors}
		}
		inputs[i] = item.InputData
	}
	return map[string]any{"items": inputs}, nil
}

// newOrder builds a pending order from a quote.
func (e *Engine) newOrder(tenantID string, userID id.ID, svc *service.Service, providerID id.ID, quote pricing.Quote, input map[string]any) *order.Order {
	orderID := id.New(id.PrefixOrder)
	o := &order.Order{
		ID:          orderID,
		TenantID:    tenantID,
		UserID:      userID,
		ServiceID:   svc.ID,
		ProviderID:  providerID,
		OrderNumber: order.NumberFromID(orderID),
		Status:      order.StatusPending,
		Quantity:    quote.Quantity,
		InputData:   input,
		BaseCost:    quote.BaseCost,
		Markup:      quote.Markup,
		TotalAmount: quote.TotalAmount,
		Currency:    svc.BaseCost.Currency,
	}
	o.Entity = types.NewEntity()
	return o
}

// transitionOrder applies a machine-validated status change, persists
// it, and notifies plugins.
func (e *Engine) transitionOrder(ctx context.Context, o *order.Order, to order.Status, role types.Role) error {
	from := o.Status
	if from == to {
		return nil
	}

	if err := e.machine.Transition(o, to, role); err != nil {
		return err
	}
	if to == order.StatusDelivered {
		now := e.now()
		o.CompletedAt = &now
	}
	if err := e.store.UpdateOrder(ctx, o); err != nil {
		return err
	}

	e.logger.Info("order status changed",
		"order_number", o.OrderNumber,
		"from", from,
		"to", to,
	)
	e.plugins.EmitOrderStatusChanged(ctx, o, string(from), string(to))
	return nil
}

// applyProviderStatus folds a canonical provider status into the order
// state machine. Delivery settles the payment; failure leaves the funds
// locked for a later cancel or refund decision.
func (e *Engine) applyProviderStatus(ctx context.Context, o *order.Order, canonical string) error {
	var to order.Status
	switch canonical {
	case "delivered", "completed":
		to = order.StatusDelivered
	case "failed", "error":
		to = order.StatusFailed
	default:
		to = order.StatusProcessing
	}

	if to == o.Status {
		return e.store.UpdateOrder(ctx, o)
	}
	if err := e.transitionOrder(ctx, o, to, ""); err != nil {
		return err
	}

	switch to {
	case order.StatusDelivered:
		return e.completeOrderPayment(ctx, o)
	case order.StatusFailed:
		e.plugins.EmitOrderFailed(ctx, o, ErrProviderSync)
	}
	return nil
}

// startOrderItems moves a bulk order's line items into processing
// alongside their parent.
func (e *Engine) startOrderItems(ctx context.Context, o *order.Order) error {
	if o.Status != order.StatusProcessing {
		return nil
	}

	items, err := e.store.ListOrderItems(ctx, o.ID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := e.itemMachine.TransitionItem(item, order.StatusProcessing); err != nil {
			return err
		}
		if err := e.store.UpdateOrderItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}
