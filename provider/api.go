package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultRequestTimeout bounds every outbound provider call.
const DefaultRequestTimeout = 15 * time.Second

// API is the provider variant for synchronous HTTP fulfillment backends.
// Every failure mode — connection errors, timeouts, non-2xx responses,
// malformed bodies — resolves to an *Error; the caller never sees a raw
// transport fault.
type API struct {
	cfg    Config
	client *http.Client
}

// APIOption configures an API provider.
type APIOption func(*API)

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(client *http.Client) APIOption {
	return func(a *API) { a.client = client }
}

// NewAPI creates an API provider from its configuration.
func NewAPI(cfg Config, opts ...APIOption) (*API, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrEndpointNotSet
	}

	a := &API{
		cfg:    cfg,
		client: &http.Client{Timeout: DefaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Type implements Provider.
func (a *API) Type() string { return TypeAPI }

// ValidateInput implements Provider. The API variant enforces the
// provider's own required fields (configured as a comma-separated list in
// Settings["required_fields"]) on top of the service schema.
func (a *API) ValidateInput(input map[string]any) ValidationResult {
	required := a.cfg.Settings["required_fields"]
	if required == "" {
		return ValidationResult{Valid: true}
	}

	errs := make(map[string][]string)
	for _, key := range strings.Split(required, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if v, ok := input[key]; !ok || v == nil || v == "" {
			errs[key] = append(errs[key], "field is required by provider")
		}
	}

	if len(errs) > 0 {
		return ValidationResult{Valid: false, Errors: errs}
	}
	return ValidationResult{Valid: true}
}

// placeOrderRequest is the wire shape sent to the provider endpoint.
type placeOrderRequest struct {
	ServiceID string            `json:"service_id"`
	Input     map[string]any    `json:"input"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// orderResponse is the wire shape providers answer with.
type orderResponse struct {
	OrderID     string         `json:"order_id"`
	Status      string         `json:"status"`
	Data        map[string]any `json:"data,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// PlaceOrder implements Provider.
func (a *API) PlaceOrder(ctx context.Context, serviceID string, input map[string]any, metadata map[string]string) (PlacementResult, error) {
	payload, err := json.Marshal(placeOrderRequest{
		ServiceID: serviceID,
		Input:     input,
		Metadata:  metadata,
	})
	if err != nil {
		return PlacementResult{}, &Error{Code: "encode_failed", Message: err.Error()}
	}

	var resp orderResponse
	if perr := a.do(ctx, http.MethodPost, a.url("orders"), payload, &resp); perr != nil {
		return PlacementResult{}, perr
	}

	if resp.Error != "" {
		return PlacementResult{}, &Error{Code: "provider_rejected", Message: resp.Error}
	}

	return PlacementResult{
		Success:         true,
		ProviderOrderID: resp.OrderID,
		Status:          resp.Status,
		Data:            resp.Data,
	}, nil
}

// CheckStatus implements Provider.
func (a *API) CheckStatus(ctx context.Context, providerOrderID string) (StatusResult, error) {
	if providerOrderID == "" {
		return StatusResult{}, ErrMissingProviderRef
	}

	var resp orderResponse
	if perr := a.do(ctx, http.MethodGet, a.url("orders/"+providerOrderID), nil, &resp); perr != nil {
		return StatusResult{}, perr
	}

	if resp.Error != "" {
		return StatusResult{}, &Error{Code: "provider_rejected", Message: resp.Error}
	}

	return StatusResult{
		ProviderOrderID: providerOrderID,
		Status:          resp.Status,
		Data:            resp.Data,
		CompletedAt:     resp.CompletedAt,
	}, nil
}

// NormalizeStatus implements Provider.
func (a *API) NormalizeStatus(providerStatus string) string {
	return a.cfg.Normalize(providerStatus)
}

// do issues one authenticated request and decodes the JSON response.
// All failures come back as *Error.
func (a *API) do(ctx context.Context, method, url string, body []byte, out *orderResponse) *Error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &Error{Code: "request_failed", Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return &Error{Code: "network_error", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a bounded slice of the body for the message; the raw
		// payload is never logged.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{
			Code:    fmt.Sprintf("http_%d", resp.StatusCode),
			Message: strings.TrimSpace(string(msg)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Code: "decode_failed", Message: err.Error()}
	}
	return nil
}

func (a *API) url(path string) string {
	return strings.TrimRight(a.cfg.Endpoint, "/") + "/" + path
}
