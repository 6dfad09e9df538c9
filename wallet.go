package vendra

import (
	"context"
	"fmt"

	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/types"
	"github.com/vendra/vendra/wallet"
)

// maxOwnerDepth bounds the parent walk in WalletFor. A legitimate
// reseller hierarchy is at most a handful of levels deep.
const maxOwnerDepth = 16

// ──────────────────────────────────────────────────
// Wallet Management
// ──────────────────────────────────────────────────

// CreateWallet provisions a wallet for a root account. Sub-accounts
// never own wallets; they spend from their root ancestor's.
func (e *Engine) CreateWallet(ctx context.Context, tenantID string, ownerID id.ID, currency string) (*wallet.Wallet, error) {
	acct, err := e.store.GetAccount(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !acct.IsRoot() {
		return nil, fmt.Errorf("%w: sub-accounts spend from their root account's wallet", ErrForbidden)
	}

	w := &wallet.Wallet{
		ID:       id.New(id.PrefixWallet),
		TenantID: tenantID,
		OwnerID:  ownerID,
		Currency: currency,
		Active:   true,
	}
	w.Entity = types.NewEntity()

	if err := e.store.CreateWallet(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// GetWallet retrieves a wallet by ID.
func (e *Engine) GetWallet(ctx context.Context, walletID id.ID) (*wallet.Wallet, error) {
	return e.store.GetWallet(ctx, walletID)
}

// WalletFor resolves the wallet an account spends from by walking the
// account hierarchy to its root. The walk is depth-bounded so a
// corrupted parent chain fails instead of spinning.
func (e *Engine) WalletFor(ctx context.Context, accountID id.ID) (*wallet.Wallet, error) {
	current, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{current.ID.String(): true}
	for depth := 0; !current.IsRoot(); depth++ {
		if depth >= maxOwnerDepth {
			return nil, ErrOwnershipCycle
		}
		parent, err := e.store.GetAccount(ctx, current.ParentID)
		if err != nil {
			return nil, err
		}
		if seen[parent.ID.String()] {
			return nil, ErrOwnershipCycle
		}
		seen[parent.ID.String()] = true
		current = parent
	}

	return e.store.GetWalletByOwner(ctx, current.ID)
}

// Balance derives a wallet's balance by folding its completed ledger
// entries. Nothing is cached; the ledger is the only source of truth.
func (e *Engine) Balance(ctx context.Context, walletID id.ID) (wallet.Balance, error) {
	w, err := e.store.GetWallet(ctx, walletID)
	if err != nil {
		return wallet.Balance{}, err
	}

	txs, err := e.store.ListTransactions(ctx, walletID, wallet.TxFilter{})
	if err != nil {
		return wallet.Balance{}, err
	}

	return wallet.ComputeBalance(w.Currency, txs), nil
}

// ListTransactions returns a wallet's ledger, filtered and paged.
func (e *Engine) ListTransactions(ctx context.Context, walletID id.ID, filter wallet.TxFilter) ([]wallet.Transaction, error) {
	return e.store.ListTransactions(ctx, walletID, filter)
}

// ──────────────────────────────────────────────────
// Ledger Operations
// ──────────────────────────────────────────────────

// Credit adds funds to a wallet.
func (e *Engine) Credit(ctx context.Context, walletID id.ID, amount int64, description string, ref wallet.Reference) (*wallet.Transaction, error) {
	var tx *wallet.Transaction
	err := e.store.WithWallet(ctx, walletID, func(ctx context.Context) error {
		w, err := e.writableWallet(ctx, walletID)
		if err != nil {
			return err
		}
		tx, err = e.appendEntry(ctx, w, wallet.TxCredit, amount, ref, id.Nil, description)
		return err
	})
	return tx, err
}

// Debit removes available funds from a wallet. Fails with
// ErrInsufficientBalance when the available balance cannot cover it.
func (e *Engine) Debit(ctx context.Context, walletID id.ID, amount int64, description string, ref wallet.Reference) (*wallet.Transaction, error) {
	var tx *wallet.Transaction
	err := e.store.WithWallet(ctx, walletID, func(ctx context.Context) error {
		w, err := e.writableWallet(ctx, walletID)
		if err != nil {
			return err
		}
		if err := e.requireAvailable(ctx, w, amount); err != nil {
			return err
		}
		tx, err = e.appendEntry(ctx, w, wallet.TxDebit, amount, ref, id.Nil, description)
		return err
	})
	return tx, err
}

// Lock moves available funds into the locked pool, typically pending an
// order outcome.
func (e *Engine) Lock(ctx context.Context, walletID id.ID, amount int64, description string, ref wallet.Reference) (*wallet.Transaction, error) {
	var tx *wallet.Transaction
	err := e.store.WithWallet(ctx, walletID, func(ctx context.Context) error {
		w, err := e.writableWallet(ctx, walletID)
		if err != nil {
			return err
		}
		if err := e.requireAvailable(ctx, w, amount); err != nil {
			return err
		}
		tx, err = e.appendEntry(ctx, w, wallet.TxLock, amount, ref, id.Nil, description)
		return err
	})
	return tx, err
}

// Unlock releases locked funds back into the available pool. The unlock
// must reference the lock it releases and cannot exceed its amount.
// Fails with ErrInsufficientLockedBalance when the locked pool cannot
// cover it.
func (e *Engine) Unlock(ctx context.Context, walletID id.ID, amount int64, parentTxID id.ID, description string, ref wallet.Reference) (*wallet.Transaction, error) {
	if parentTxID.IsNil() {
		return nil, ErrUnlockWithoutParent
	}

	var tx *wallet.Transaction
	err := e.store.WithWallet(ctx, walletID, func(ctx context.Context) error {
		w, err := e.writableWallet(ctx, walletID)
		if err != nil {
			return err
		}

		parent, err := e.store.GetTransaction(ctx, parentTxID)
		if err != nil {
			return err
		}
		if parent.WalletID != walletID || parent.Type != wallet.TxLock {
			return fmt.Errorf("%w: parent must be a lock on the same wallet", ErrUnlockWithoutParent)
		}
		if amount > parent.Amount {
			return fmt.Errorf("%w: unlock exceeds original lock", ErrInvalidInput)
		}

		if err := e.requireLocked(ctx, w, amount); err != nil {
			return err
		}
		tx, err = e.appendEntry(ctx, w, wallet.TxUnlock, amount, ref, parentTxID, description)
		return err
	})
	return tx, err
}

// Refund returns previously debited funds. The refund must reference
// the debit it reverses and cannot exceed its amount.
func (e *Engine) Refund(ctx context.Context, walletID id.ID, amount int64, parentTxID id.ID, description string, ref wallet.Reference) (*wallet.Transaction, error) {
	if parentTxID.IsNil() {
		return nil, ErrRefundWithoutParent
	}

	var tx *wallet.Transaction
	err := e.store.WithWallet(ctx, walletID, func(ctx context.Context) error {
		w, err := e.writableWallet(ctx, walletID)
		if err != nil {
			return err
		}

		parent, err := e.store.GetTransaction(ctx, parentTxID)
		if err != nil {
			return err
		}
		if parent.WalletID != walletID || parent.Type != wallet.TxDebit {
			return fmt.Errorf("%w: parent must be a debit on the same wallet", ErrRefundWithoutParent)
		}
		if amount > parent.Amount {
			return fmt.Errorf("%w: refund exceeds original debit", ErrInvalidInput)
		}

		tx, err = e.appendEntry(ctx, w, wallet.TxRefund, amount, ref, parentTxID, description)
		return err
	})
	return tx, err
}

// ──────────────────────────────────────────────────
// Order Payments
// ──────────────────────────────────────────────────

// ProcessOrderPayment locks the order total in the payer's wallet and
// moves the order to payment_confirmed. Only a pending order can be
// paid; a repeated call fails with ErrAlreadyPaid instead of appending
// a second lock.
func (e *Engine) ProcessOrderPayment(ctx context.Context, orderID id.ID) (*order.Order, error) {
	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch o.Status {
	case order.StatusPending:
		// payable
	case order.StatusCancelled, order.StatusRefunded:
		return nil, fmt.Errorf("%w: cannot pay an order in %s", ErrInvalidTransition, o.Status)
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyPaid, o.OrderNumber, o.Status)
	}

	w, err := e.WalletFor(ctx, o.UserID)
	if err != nil {
		return nil, err
	}
	if w.Currency != o.Currency {
		return nil, ErrCurrencyMismatch
	}

	ref := wallet.Reference{Type: "order", ID: o.ID.String()}
	err = e.store.WithWallet(ctx, w.ID, func(ctx context.Context) error {
		ww, err := e.writableWallet(ctx, w.ID)
		if err != nil {
			return err
		}
		if err := e.requireAvailable(ctx, ww, o.TotalAmount.Amount); err != nil {
			return err
		}
		if _, err := e.appendEntry(ctx, ww, wallet.TxLock, o.TotalAmount.Amount, ref, id.Nil, "order payment lock"); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.PaidAmount = o.TotalAmount
	if err := e.transitionOrder(ctx, o, order.StatusPaymentConfirmed, ""); err != nil {
		return nil, err
	}

	e.plugins.EmitPaymentLocked(ctx, o.ID.String(), o.TotalAmount.Amount)
	return o, nil
}

// completeOrderPayment settles a locked order payment as an unlock of
// the payment lock followed by a debit. The net effect on the ledger is
// one debit of the paid amount.
func (e *Engine) completeOrderPayment(ctx context.Context, o *order.Order) error {
	w, err := e.WalletFor(ctx, o.UserID)
	if err != nil {
		return err
	}

	ref := wallet.Reference{Type: "order", ID: o.ID.String()}
	err = e.store.WithWallet(ctx, w.ID, func(ctx context.Context) error {
		ww, err := e.writableWallet(ctx, w.ID)
		if err != nil {
			return err
		}
		lock, err := e.orderLock(ctx, w.ID, o)
		if err != nil {
			return err
		}
		if err := e.requireLocked(ctx, ww, o.PaidAmount.Amount); err != nil {
			return err
		}
		if _, err := e.appendEntry(ctx, ww, wallet.TxUnlock, o.PaidAmount.Amount, ref, lock.ID, "order payment settle"); err != nil {
			return err
		}
		_, err = e.appendEntry(ctx, ww, wallet.TxDebit, o.PaidAmount.Amount, ref, id.Nil, "order payment settle")
		return err
	})
	if err != nil {
		return err
	}

	e.plugins.EmitPaymentCompleted(ctx, o.ID.String(), o.PaidAmount.Amount)
	return nil
}

// cancelOrderPayment releases an order's locked funds without debiting.
// The unlock references the payment lock it reverses.
func (e *Engine) cancelOrderPayment(ctx context.Context, o *order.Order) error {
	w, err := e.WalletFor(ctx, o.UserID)
	if err != nil {
		return err
	}

	ref := wallet.Reference{Type: "order", ID: o.ID.String()}
	err = e.store.WithWallet(ctx, w.ID, func(ctx context.Context) error {
		ww, err := e.writableWallet(ctx, w.ID)
		if err != nil {
			return err
		}
		lock, err := e.orderLock(ctx, w.ID, o)
		if err != nil {
			return err
		}
		if err := e.requireLocked(ctx, ww, o.PaidAmount.Amount); err != nil {
			return err
		}
		_, err = e.appendEntry(ctx, ww, wallet.TxUnlock, o.PaidAmount.Amount, ref, lock.ID, "order payment release")
		return err
	})
	if err != nil {
		return err
	}

	e.plugins.EmitPaymentCanceled(ctx, o.ID.String(), o.PaidAmount.Amount)
	return nil
}

// refundOrderPayment reverses a settled order payment. It finds the
// settlement debit for the order and appends a refund referencing it.
func (e *Engine) refundOrderPayment(ctx context.Context, o *order.Order) error {
	w, err := e.WalletFor(ctx, o.UserID)
	if err != nil {
		return err
	}

	ref := wallet.Reference{Type: "order", ID: o.ID.String()}
	err = e.store.WithWallet(ctx, w.ID, func(ctx context.Context) error {
		ww, err := e.writableWallet(ctx, w.ID)
		if err != nil {
			return err
		}

		txs, err := e.store.ListTransactions(ctx, w.ID, wallet.TxFilter{
			Type:      wallet.TxDebit,
			Status:    wallet.TxCompleted,
			Reference: o.ID.String(),
		})
		if err != nil {
			return err
		}
		if len(txs) == 0 {
			return fmt.Errorf("%w: no settlement debit for order %s", ErrRefundWithoutParent, o.OrderNumber)
		}
		parent := txs[len(txs)-1]

		_, err = e.appendEntry(ctx, ww, wallet.TxRefund, parent.Amount, ref, parent.ID, "order refund")
		return err
	})
	return err
}

// ──────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────

// orderLock finds the lock entry written for an order's payment.
// Must run inside the wallet's WithWallet guard.
func (e *Engine) orderLock(ctx context.Context, walletID id.ID, o *order.Order) (wallet.Transaction, error) {
	txs, err := e.store.ListTransactions(ctx, walletID, wallet.TxFilter{
		Type:      wallet.TxLock,
		Status:    wallet.TxCompleted,
		Reference: o.ID.String(),
	})
	if err != nil {
		return wallet.Transaction{}, err
	}
	if len(txs) == 0 {
		return wallet.Transaction{}, fmt.Errorf("%w: no payment lock for order %s", ErrUnlockWithoutParent, o.OrderNumber)
	}
	return txs[len(txs)-1], nil
}

// writableWallet loads a wallet and rejects inactive ones.
func (e *Engine) writableWallet(ctx context.Context, walletID id.ID) (*wallet.Wallet, error) {
	w, err := e.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if !w.Active {
		return nil, ErrWalletInactive
	}
	return w, nil
}

// requireAvailable checks the derived available balance covers amount.
// Must run inside the wallet's WithWallet guard.
func (e *Engine) requireAvailable(ctx context.Context, w *wallet.Wallet, amount int64) error {
	b, err := e.derivedBalance(ctx, w)
	if err != nil {
		return err
	}
	if b.Available.Amount < amount {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance,
			b.Available, types.NewMoney(amount, w.Currency))
	}
	return nil
}

// requireLocked checks the derived locked balance covers amount.
// Must run inside the wallet's WithWallet guard.
func (e *Engine) requireLocked(ctx context.Context, w *wallet.Wallet, amount int64) error {
	b, err := e.derivedBalance(ctx, w)
	if err != nil {
		return err
	}
	if b.Locked.Amount < amount {
		return fmt.Errorf("%w: have %s locked, need %s", ErrInsufficientLockedBalance,
			b.Locked, types.NewMoney(amount, w.Currency))
	}
	return nil
}

func (e *Engine) derivedBalance(ctx context.Context, w *wallet.Wallet) (wallet.Balance, error) {
	txs, err := e.store.ListTransactions(ctx, w.ID, wallet.TxFilter{})
	if err != nil {
		return wallet.Balance{}, err
	}
	return wallet.ComputeBalance(w.Currency, txs), nil
}

// appendEntry writes one completed ledger entry and notifies plugins.
// Must run inside the wallet's WithWallet guard.
func (e *Engine) appendEntry(ctx context.Context, w *wallet.Wallet, txType wallet.TxType, amount int64, ref wallet.Reference, parentTxID id.ID, description string) (*wallet.Transaction, error) {
	if amount <= 0 {
		return nil, ErrNegativeAmount
	}

	now := e.now()
	tx := &wallet.Transaction{
		ID:          id.New(id.PrefixTransaction),
		WalletID:    w.ID,
		Type:        txType,
		Amount:      amount,
		Currency:    w.Currency,
		Status:      wallet.TxCompleted,
		Reference:   ref,
		ParentTxID:  parentTxID,
		Description: description,
		CreatedAt:   now,
		CompletedAt: &now,
	}

	if err := e.store.AppendTransaction(ctx, tx); err != nil {
		return nil, err
	}

	e.logger.Debug("ledger entry appended",
		"wallet_id", w.ID,
		"type", txType,
		"amount", amount,
		"reference", ref.ID,
	)
	e.plugins.EmitTransactionAppended(ctx, tx)
	return tx, nil
}
