package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()

	types := r.Types()
	if len(types) != 2 || types[0] != TypeAPI || types[1] != TypeManual {
		t.Errorf("builtin types: got %v", types)
	}

	p, err := r.New(Config{Type: TypeManual})
	if err != nil {
		t.Fatal(err)
	}
	if p.Type() != TypeManual {
		t.Errorf("type: got %s", p.Type())
	}
}

func TestRegistryUnregisteredType(t *testing.T) {
	r := NewRegistry()

	_, err := r.New(Config{Type: "smscarrier"})
	if !errors.Is(err, ErrNotRegistered) {
		t.Errorf("got %v, want ErrNotRegistered", err)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(TypeManual, func(cfg Config) (Provider, error) { return NewManual(cfg), nil }); err == nil {
		t.Error("duplicate registration should fail")
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{StatusMapping: map[string]string{
		"success":  "delivered",
		"in_queue": "processing",
		"rejected": "failed",
	}}

	tests := []struct {
		provider string
		want     string
	}{
		{"success", "delivered"},
		{"in_queue", "processing"},
		{"rejected", "failed"},
		{"some_new_status", StatusDefault}, // unmapped defaults to processing
	}

	for _, tt := range tests {
		if got := cfg.Normalize(tt.provider); got != tt.want {
			t.Errorf("Normalize(%q): got %s, want %s", tt.provider, got, tt.want)
		}
	}
}

func TestManualProvider(t *testing.T) {
	m := NewManual(Config{Type: TypeManual})
	ctx := context.Background()

	if v := m.ValidateInput(map[string]any{"anything": "goes"}); !v.Valid {
		t.Error("manual provider should accept schema-valid input")
	}

	result, err := m.PlaceOrder(ctx, "svc_1", nil, map[string]string{"order_number": "ORD-XYZ"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.Status != "pending" {
		t.Errorf("unexpected placement: %+v", result)
	}
	if result.ProviderOrderID != "ORD-XYZ" {
		t.Errorf("provider order id: got %s", result.ProviderOrderID)
	}

	status, err := m.CheckStatus(ctx, result.ProviderOrderID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != "pending" {
		t.Errorf("manual status: got %s", status.Status)
	}

	if _, err := m.CheckStatus(ctx, ""); !errors.Is(err, ErrMissingProviderRef) {
		t.Errorf("empty ref: got %v", err)
	}
}

func TestAPIProviderPlaceOrder(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"order_id":"ext-42","status":"in_queue"}`))
	}))
	defer srv.Close()

	a, err := NewAPI(Config{
		Type:     TypeAPI,
		Endpoint: srv.URL,
		APIKey:   "secret-key",
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := a.PlaceOrder(context.Background(), "svc_1", map[string]any{"imei": "123"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.ProviderOrderID != "ext-42" || result.Status != "in_queue" {
		t.Errorf("unexpected result: %+v", result)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("authorization header: got %q", gotAuth)
	}
}

func TestAPIProviderFailures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode string
	}{
		{
			"non-2xx response",
			func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream exploded", http.StatusBadGateway)
			},
			"http_502",
		},
		{
			"application-level rejection",
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":"imei not supported"}`))
			},
			"provider_rejected",
		},
		{
			"malformed body",
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			"decode_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			a, err := NewAPI(Config{Type: TypeAPI, Endpoint: srv.URL})
			if err != nil {
				t.Fatal(err)
			}

			_, err = a.PlaceOrder(context.Background(), "svc_1", nil, nil)
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if perr.Code != tt.wantCode {
				t.Errorf("code: got %s, want %s", perr.Code, tt.wantCode)
			}
		})
	}
}

func TestAPIProviderNetworkError(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	a, err := NewAPI(Config{Type: TypeAPI, Endpoint: url})
	if err != nil {
		t.Fatal(err)
	}

	_, err = a.CheckStatus(context.Background(), "ext-1")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if perr.Code != "network_error" {
		t.Errorf("code: got %s", perr.Code)
	}
}

func TestAPIProviderValidateInput(t *testing.T) {
	a, err := NewAPI(Config{
		Type:     TypeAPI,
		Endpoint: "http://unused.example",
		Settings: map[string]string{"required_fields": "imei, carrier"},
	})
	if err != nil {
		t.Fatal(err)
	}

	v := a.ValidateInput(map[string]any{"imei": "123456789012345"})
	if v.Valid {
		t.Fatal("missing carrier should fail provider validation")
	}
	if len(v.Errors["carrier"]) == 0 {
		t.Errorf("expected carrier error, got %v", v.Errors)
	}

	v = a.ValidateInput(map[string]any{"imei": "123456789012345", "carrier": "tmo"})
	if !v.Valid {
		t.Errorf("unexpected errors: %v", v.Errors)
	}
}

func TestAPIProviderRequiresEndpoint(t *testing.T) {
	if _, err := NewAPI(Config{Type: TypeAPI}); !errors.Is(err, ErrEndpointNotSet) {
		t.Errorf("got %v, want ErrEndpointNotSet", err)
	}
}

func TestAPIProviderCredentialsNotSerialized(t *testing.T) {
	cfg := Config{Type: TypeAPI, Endpoint: "http://x", APIKey: "super-secret"}

	// The json tag on APIKey is "-"; a serialized config must not leak it.
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "super-secret") {
		t.Error("API key leaked through JSON serialization")
	}
}
