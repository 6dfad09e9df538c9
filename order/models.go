// Package order defines the order domain model and the finite-state
// machine that governs order status changes.
package order

import (
	"strings"
	"time"

	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/types"
)

// Status is the canonical order status vocabulary. Provider-specific
// status strings are mapped into this set before any transition.
type Status string

const (
	StatusPending          Status = "pending"
	StatusPaymentConfirmed Status = "payment_confirmed"
	StatusApproved         Status = "approved"
	StatusProcessing       Status = "processing"
	StatusDelivered        Status = "delivered"
	StatusFailed           Status = "failed"
	StatusRefunded         Status = "refunded"
	StatusCancelled        Status = "cancelled"
)

// Terminal reports whether the status is an end state. Terminal orders
// are immutable except for the explicit admin refund of a delivered order.
func (s Status) Terminal() bool {
	switch s {
	case StatusDelivered, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaymentConfirmed, StatusApproved, StatusProcessing,
		StatusDelivered, StatusFailed, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

// Order is a single priced purchase of a service, fulfilled by a provider.
// Orders mutate only through state-machine-legal transitions and become
// immutable once they reach a terminal state.
type Order struct {
	types.Entity
	ID              id.ID          `json:"id"`
	TenantID        string         `json:"tenant_id"`
	UserID          id.ID          `json:"user_id"`
	ServiceID       id.ID          `json:"service_id"`
	ProviderID      id.ID          `json:"provider_id"`
	OrderNumber     string         `json:"order_number"`
	Status          Status         `json:"status"`
	Quantity        int64          `json:"quantity"`
	InputData       map[string]any `json:"input_data"`
	OutputData      map[string]any `json:"output_data,omitempty"`
	BaseCost        types.Money    `json:"base_cost"`
	Markup          types.Money    `json:"markup"`
	TotalAmount     types.Money    `json:"total_amount"`
	PaidAmount      types.Money    `json:"paid_amount"`
	Currency        string         `json:"currency"`
	ProviderOrderID string         `json:"provider_order_id,omitempty"`
	ProviderStatus  string         `json:"provider_status,omitempty"`
	ApprovedBy      id.ID          `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// NumberFromID derives the human-facing order number from an order ID.
func NumberFromID(orderID id.ID) string {
	return "ORD-" + strings.ToUpper(orderID.Suffix())
}

// ListOpts filters and pages order listings.
type ListOpts struct {
	Status    Status `json:"status,omitempty"`
	ServiceID id.ID  `json:"service_id,omitempty"`
	UserID    id.ID  `json:"user_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// Item is one line of a bulk order. Items run through a simpler machine
// than their parent order: pending → processing → delivered|failed, with a
// failed → processing retry.
type Item struct {
	types.Entity
	ID              id.ID          `json:"id"`
	OrderID         id.ID          `json:"order_id"`
	Index           int            `json:"index"`
	Status          Status         `json:"status"`
	InputData       map[string]any `json:"input_data"`
	OutputData      map[string]any `json:"output_data,omitempty"`
	ProviderOrderID string         `json:"provider_order_id,omitempty"`
}
