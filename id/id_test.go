package id_test

import (
	"strings"
	"testing"

	"github.com/vendra/vendra/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"WalletID", id.NewWalletID, "wal_"},
		{"TransactionID", id.NewTransactionID, "txn_"},
		{"OrderID", id.NewOrderID, "ord_"},
		{"OrderItemID", id.NewOrderItemID, "itm_"},
		{"ServiceID", id.NewServiceID, "svc_"},
		{"ProviderID", id.NewProviderID, "prv_"},
		{"PricingRuleID", id.NewPricingRuleID, "rule_"},
		{"AccountID", id.NewAccountID, "acct_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixOrder)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixOrder {
		t.Errorf("expected prefix %q, got %q", id.PrefixOrder, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"WalletID", id.NewWalletID, id.ParseWalletID},
		{"TransactionID", id.NewTransactionID, id.ParseTransactionID},
		{"OrderID", id.NewOrderID, id.ParseOrderID},
		{"ServiceID", id.NewServiceID, id.ParseServiceID},
		{"ProviderID", id.NewProviderID, id.ParseProviderID},
		{"AccountID", id.NewAccountID, id.ParseAccountID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round trip mismatch: %q != %q", parsed, original)
			}
		})
	}
}

func TestParseWithPrefixMismatch(t *testing.T) {
	// An order ID must not parse as a wallet ID.
	orderID := id.NewOrderID()
	if _, err := id.ParseWalletID(orderID.String()); err == nil {
		t.Error("expected prefix mismatch error")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []string{
		"",
		"not a typeid",
		"ord_!!!!",
	}

	for _, s := range tests {
		if _, err := id.Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error", s)
		}
	}
}

func TestNilID(t *testing.T) {
	var nilID id.ID

	if !nilID.IsNil() {
		t.Error("zero value should be nil")
	}
	if nilID.String() != "" {
		t.Errorf("nil ID string: got %q, want empty", nilID.String())
	}
	if nilID.Prefix() != "" {
		t.Errorf("nil ID prefix: got %q, want empty", nilID.Prefix())
	}
}

func TestTextMarshalRoundTrip(t *testing.T) {
	original := id.NewTransactionID()

	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded id.ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.String() != original.String() {
		t.Errorf("round trip mismatch: %q != %q", decoded, original)
	}
}

func TestScanValue(t *testing.T) {
	original := id.NewWalletID()

	v, err := original.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var scanned id.ID
	if err := scanned.Scan(v); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if scanned.String() != original.String() {
		t.Errorf("round trip mismatch: %q != %q", scanned, original)
	}

	// NULL scans to Nil.
	var fromNull id.ID
	if err := fromNull.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if !fromNull.IsNil() {
		t.Error("scanning NULL should produce the Nil ID")
	}
}
