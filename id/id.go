// Package id defines TypeID-based identity types for all Vendra entities.
//
// Every entity uses a single ID struct whose prefix identifies the entity
// type. IDs are K-sortable (UUIDv7-based), globally unique, and URL-safe in
// the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all Vendra entity types.
const (
	PrefixWallet      Prefix = "wal"  // Wallet
	PrefixTransaction Prefix = "txn"  // Ledger transaction
	PrefixOrder       Prefix = "ord"  // Order
	PrefixOrderItem   Prefix = "itm"  // Bulk order line item
	PrefixService     Prefix = "svc"  // Service definition
	PrefixProvider    Prefix = "prv"  // Fulfillment provider
	PrefixPricingRule Prefix = "rule" // Pricing rule
	PrefixAccount     Prefix = "acct" // Account (user)
)

// ID is the primary identifier type for all Vendra entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "ord_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewWalletID generates a new unique wallet ID.
func NewWalletID() ID { return New(PrefixWallet) }

// NewTransactionID generates a new unique ledger transaction ID.
func NewTransactionID() ID { return New(PrefixTransaction) }

// NewOrderID generates a new unique order ID.
func NewOrderID() ID { return New(PrefixOrder) }

// NewOrderItemID generates a new unique bulk order line item ID.
func NewOrderItemID() ID { return New(PrefixOrderItem) }

// NewServiceID generates a new unique service ID.
func NewServiceID() ID { return New(PrefixService) }

// NewProviderID generates a new unique provider ID.
func NewProviderID() ID { return New(PrefixProvider) }

// NewPricingRuleID generates a new unique pricing rule ID.
func NewPricingRuleID() ID { return New(PrefixPricingRule) }

// NewAccountID generates a new unique account ID.
func NewAccountID() ID { return New(PrefixAccount) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseWalletID parses a string and validates the "wal" prefix.
func ParseWalletID(s string) (ID, error) { return ParseWithPrefix(s, PrefixWallet) }

// ParseTransactionID parses a string and validates the "txn" prefix.
func ParseTransactionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixTransaction) }

// ParseOrderID parses a string and validates the "ord" prefix.
func ParseOrderID(s string) (ID, error) { return ParseWithPrefix(s, PrefixOrder) }

// ParseOrderItemID parses a string and validates the "itm" prefix.
func ParseOrderItemID(s string) (ID, error) { return ParseWithPrefix(s, PrefixOrderItem) }

// ParseServiceID parses a string and validates the "svc" prefix.
func ParseServiceID(s string) (ID, error) { return ParseWithPrefix(s, PrefixService) }

// ParseProviderID parses a string and validates the "prv" prefix.
func ParseProviderID(s string) (ID, error) { return ParseWithPrefix(s, PrefixProvider) }

// ParsePricingRuleID parses a string and validates the "rule" prefix.
func ParsePricingRuleID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPricingRule) }

// ParseAccountID parses a string and validates the "acct" prefix.
func ParseAccountID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAccount) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// Suffix returns the suffix component of this ID, without the prefix.
func (i ID) Suffix() string {
	if !i.valid {
		return ""
	}

	return i.inner.Suffix()
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
