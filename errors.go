package vendra

import (
	"errors"
	"fmt"

	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/pricing"
	"github.com/vendra/vendra/provider"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("vendra: not found")
	ErrAlreadyExists = errors.New("vendra: already exists")
	ErrInvalidInput  = errors.New("vendra: invalid input")
	ErrForbidden     = errors.New("vendra: forbidden")

	// Account errors
	ErrAccountNotFound = errors.New("vendra: account not found")
	ErrOwnershipCycle  = errors.New("vendra: account hierarchy contains a cycle")

	// Wallet errors
	ErrWalletNotFound            = errors.New("vendra: wallet not found")
	ErrWalletInactive            = errors.New("vendra: wallet is inactive")
	ErrWalletExists              = errors.New("vendra: account already has a wallet")
	ErrCurrencyMismatch          = errors.New("vendra: currency mismatch")
	ErrInsufficientBalance       = errors.New("vendra: insufficient available balance")
	ErrInsufficientLockedBalance = errors.New("vendra: insufficient locked balance")
	ErrNegativeAmount            = errors.New("vendra: amount must be positive")
	ErrTransactionNotFound       = errors.New("vendra: transaction not found")
	ErrRefundWithoutParent       = errors.New("vendra: refund requires a parent transaction")
	ErrUnlockWithoutParent       = errors.New("vendra: unlock requires a parent lock transaction")

	// Order errors
	ErrOrderNotFound      = errors.New("vendra: order not found")
	ErrOrderItemNotFound  = errors.New("vendra: order item not found")
	ErrEmptyBulkOrder     = errors.New("vendra: bulk order has no items")
	ErrBulkNotSupported   = errors.New("vendra: service does not support bulk orders")
	ErrApprovalRequired   = errors.New("vendra: order requires admin approval")
	ErrAlreadyFulfilled   = errors.New("vendra: order already sent to provider")
	ErrAlreadyPaid        = errors.New("vendra: order payment already locked")
	ErrOrderNotRefundable = errors.New("vendra: order is not refundable")
	ErrOrderTerminal      = errors.New("vendra: order is in a terminal status")

	// Service errors
	ErrServiceNotFound = errors.New("vendra: service not found")
	ErrServiceInactive = errors.New("vendra: service is inactive")
	ErrRoleNotAllowed  = errors.New("vendra: role not allowed for service")

	// Provider errors
	ErrProviderNotFound = errors.New("vendra: provider not found")
	ErrProviderInactive = errors.New("vendra: provider is inactive")
	ErrProviderSync     = errors.New("vendra: provider sync failed")

	// Store errors
	ErrStoreNotReady     = errors.New("vendra: store not ready")
	ErrStoreClosed       = errors.New("vendra: store is closed")
	ErrTransactionFailed = errors.New("vendra: transaction failed")
	ErrMigrationFailed   = errors.New("vendra: migration failed")
)

// Re-exported domain sentinels so callers can match them without
// importing the sub-packages.
var (
	ErrInvalidTransition  = order.ErrInvalidTransition
	ErrRoleRequired       = order.ErrRoleRequired
	ErrNoTiers            = pricing.ErrNoTiers
	ErrOverlappingTiers   = pricing.ErrOverlappingTiers
	ErrNegativeMarkup     = pricing.ErrNegativeMarkup
	ErrProviderRegistered = provider.ErrNotRegistered
)

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrOrderItemNotFound) ||
		errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrProviderNotFound)
}

// IsBalanceError reports whether err is a balance shortfall. Callers
// usually surface these to the end user rather than retrying.
func IsBalanceError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientLockedBalance)
}

// IsRetryable reports whether the operation may succeed on retry.
// Provider transport failures are retryable; domain rejections are not.
func IsRetryable(err error) bool {
	var pe *provider.Error
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return errors.Is(err, ErrProviderSync) || errors.Is(err, ErrTransactionFailed)
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("vendra: validation failed for %s: %s", e.Field, e.Message)
}

// InputError carries the per-field failures produced by schema
// validation of order input.
type InputError struct {
	Fields map[string][]string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("vendra: input validation failed for %d field(s)", len(e.Fields))
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// BulkError maps bulk item indexes to the errors that rejected them.
// A bulk order is accepted only if this map stays empty.
type BulkError struct {
	Items map[int]error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("vendra: %d bulk item(s) rejected", len(e.Items))
}

func (e *BulkError) Unwrap() error { return ErrInvalidInput }
