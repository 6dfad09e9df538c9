package provider

import (
	"context"
	"fmt"
	"time"
)

// Manual is the provider variant for services fulfilled by a human
// operator. It never calls out: placing an order records a synthetic
// pending reference and status checks keep reporting pending until an
// operator completes the order through other means.
type Manual struct {
	cfg Config
}

// NewManual creates a manual provider from its configuration.
func NewManual(cfg Config) *Manual {
	return &Manual{cfg: cfg}
}

// Type implements Provider.
func (m *Manual) Type() string { return TypeManual }

// ValidateInput implements Provider. Manual fulfillment accepts whatever
// passed the service schema.
func (m *Manual) ValidateInput(_ map[string]any) ValidationResult {
	return ValidationResult{Valid: true}
}

// PlaceOrder implements Provider. The provider order reference is taken
// from the order metadata when present so operators can correlate it with
// the platform order number.
func (m *Manual) PlaceOrder(_ context.Context, _ string, _ map[string]any, metadata map[string]string) (PlacementResult, error) {
	ref := metadata["order_number"]
	if ref == "" {
		ref = fmt.Sprintf("manual-%d", time.Now().UnixNano())
	}

	return PlacementResult{
		Success:         true,
		ProviderOrderID: ref,
		Status:          "pending",
	}, nil
}

// CheckStatus implements Provider. Manual orders stay pending until a
// human resolves them outside this code path.
func (m *Manual) CheckStatus(_ context.Context, providerOrderID string) (StatusResult, error) {
	if providerOrderID == "" {
		return StatusResult{}, ErrMissingProviderRef
	}
	return StatusResult{
		ProviderOrderID: providerOrderID,
		Status:          "pending",
	}, nil
}

// NormalizeStatus implements Provider.
func (m *Manual) NormalizeStatus(providerStatus string) string {
	return m.cfg.Normalize(providerStatus)
}
