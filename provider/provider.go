// Package provider abstracts external fulfillment systems behind a small
// capability interface. Providers are untrusted collaborators: their only
// writes into the platform are an order status and an output payload,
// always mediated by the engine.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/types"
)

// Built-in provider type names.
const (
	TypeManual = "manual"
	TypeAPI    = "api"
)

// StatusDefault is the canonical status assumed when a provider reports
// a status missing from its configured mapping.
const StatusDefault = "processing"

// Sentinel errors.
var (
	ErrNotRegistered      = errors.New("provider: type not registered")
	ErrMissingProviderRef = errors.New("provider: missing provider order id")
	ErrEndpointNotSet     = errors.New("provider: endpoint not configured")
)

// Error is the structured failure shape for provider interactions. Both
// transport failures and application-level rejections are expressed as an
// *Error so callers can always rely on a {code, message} pair.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider: %s: %s", e.Code, e.Message)
}

// Retryable reports whether the failure is transport-level rather than
// a domain rejection. network_error and 5xx responses may clear up on
// retry; provider_rejected and 4xx responses will not.
func (e *Error) Retryable() bool {
	switch e.Code {
	case "network_error", "request_failed":
		return true
	}
	if strings.HasPrefix(e.Code, "http_5") {
		return true
	}
	return false
}

// Config is a provider's stored configuration. Credentials are excluded
// from JSON serialization and must never be logged.
type Config struct {
	types.Entity
	ID            id.ID             `json:"id"`
	TenantID      string            `json:"tenant_id"`
	Name          string            `json:"name"`
	Type          string            `json:"type"`
	Endpoint      string            `json:"endpoint,omitempty"`
	APIKey        string            `json:"-"`
	Settings      map[string]string `json:"settings,omitempty"`
	StatusMapping map[string]string `json:"status_mapping,omitempty"`
	LastSyncAt    *time.Time        `json:"last_sync_at,omitempty"`
	Active        bool              `json:"active"`
}

// Normalize maps a provider-vocabulary status to the canonical status
// string through the configured mapping table, defaulting to "processing"
// for anything unmapped.
func (c Config) Normalize(providerStatus string) string {
	if mapped, ok := c.StatusMapping[providerStatus]; ok {
		return mapped
	}
	return StatusDefault
}

// ValidationResult is the outcome of a provider-side input check.
type ValidationResult struct {
	Valid  bool                `json:"valid"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// PlacementResult is the outcome of placing an order with a provider.
type PlacementResult struct {
	Success         bool           `json:"success"`
	ProviderOrderID string         `json:"provider_order_id,omitempty"`
	Status          string         `json:"status"`
	Data            map[string]any `json:"data,omitempty"`
}

// StatusResult is a provider's report on a previously placed order.
type StatusResult struct {
	ProviderOrderID string         `json:"provider_order_id"`
	Status          string         `json:"status"`
	Data            map[string]any `json:"data,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// Provider is the capability set every fulfillment backend implements.
// Implementations must translate every failure, network or application,
// into an *Error rather than letting a raw fault escape.
type Provider interface {
	// Type returns the registry key of this provider variant.
	Type() string

	// ValidateInput applies the provider's own input rules, which may be
	// stricter than the service schema.
	ValidateInput(input map[string]any) ValidationResult

	// PlaceOrder submits an order for fulfillment.
	PlaceOrder(ctx context.Context, serviceID string, input map[string]any, metadata map[string]string) (PlacementResult, error)

	// CheckStatus fetches the current status of a placed order.
	CheckStatus(ctx context.Context, providerOrderID string) (StatusResult, error)

	// NormalizeStatus maps the provider's status vocabulary to the
	// canonical vocabulary.
	NormalizeStatus(providerStatus string) string
}
