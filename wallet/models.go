// Package wallet defines the wallet and ledger-entry domain model.
//
// A wallet has no stored balance. Balance is always derived by folding
// over the wallet's completed transactions (ComputeBalance); no code path
// may set it directly.
package wallet

import (
	"time"

	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/types"
)

// TxType classifies a ledger entry.
type TxType string

const (
	TxCredit TxType = "credit"
	TxDebit  TxType = "debit"
	TxLock   TxType = "lock"
	TxUnlock TxType = "unlock"
	TxRefund TxType = "refund"
)

// TxStatus is the lifecycle status of a ledger entry. Only completed
// entries contribute to balances.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
	TxFailed    TxStatus = "failed"
	TxReversed  TxStatus = "reversed"
)

// Reference ties a ledger entry to the domain object that caused it,
// typically ("order", orderID), so the ledger stays auditable.
type Reference struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Wallet belongs to exactly one root account. Sub-users spend from their
// root ancestor's wallet; they never own one.
type Wallet struct {
	types.Entity
	ID       id.ID  `json:"id"`
	TenantID string `json:"tenant_id"`
	OwnerID  id.ID  `json:"owner_id"`
	Currency string `json:"currency"`
	Active   bool   `json:"active"`
}

// Transaction is one immutable, append-only ledger entry. Amount is a
// non-negative integer in minor currency units; the entry's type decides
// its sign in the balance fold.
type Transaction struct {
	ID          id.ID      `json:"id"`
	WalletID    id.ID      `json:"wallet_id"`
	Type        TxType     `json:"type"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	Status      TxStatus   `json:"status"`
	Reference   Reference  `json:"reference"`
	ParentTxID  id.ID      `json:"parent_transaction_id,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Balance is the derived state of a wallet. Available and Locked are both
// non-negative for any ledger produced through the manager operations.
type Balance struct {
	Available types.Money `json:"available"`
	Locked    types.Money `json:"locked"`
}

// Total returns available plus locked.
func (b Balance) Total() types.Money {
	return b.Available.Add(b.Locked)
}

// ComputeBalance folds the transaction log into a Balance. Only entries
// with status completed count:
//
//	available = credits − debits − locks + unlocks + refunds
//	locked    = locks − unlocks
func ComputeBalance(currency string, txs []Transaction) Balance {
	available := int64(0)
	locked := int64(0)

	for _, tx := range txs {
		if tx.Status != TxCompleted {
			continue
		}
		switch tx.Type {
		case TxCredit, TxRefund:
			available += tx.Amount
		case TxDebit:
			available -= tx.Amount
		case TxLock:
			available -= tx.Amount
			locked += tx.Amount
		case TxUnlock:
			available += tx.Amount
			locked -= tx.Amount
		}
	}

	return Balance{
		Available: types.NewMoney(available, currency),
		Locked:    types.NewMoney(locked, currency),
	}
}

// TxFilter filters and pages ledger listings. A zero filter matches
// every entry.
type TxFilter struct {
	Type      TxType   `json:"type,omitempty"`
	Status    TxStatus `json:"status,omitempty"`
	Reference string   `json:"reference,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	Offset    int      `json:"offset,omitempty"`
}

// Matches reports whether tx satisfies the filter's field constraints.
// Limit and Offset are applied by the store, not here.
func (f TxFilter) Matches(tx *Transaction) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	if f.Reference != "" && tx.Reference.ID != f.Reference {
		return false
	}
	return true
}

// Account is a platform user in the reseller hierarchy. Sub-accounts
// reference their parent; only root accounts (no parent) own wallets.
type Account struct {
	types.Entity
	ID       id.ID      `json:"id"`
	TenantID string     `json:"tenant_id"`
	ParentID id.ID      `json:"parent_id,omitempty"`
	Role     types.Role `json:"role"`
	Name     string     `json:"name"`
}

// IsRoot reports whether the account has no parent.
func (a *Account) IsRoot() bool {
	return a.ParentID.IsNil()
}
