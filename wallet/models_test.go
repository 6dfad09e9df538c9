package wallet

import (
	"testing"

	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/types"
)

func tx(t TxType, amount int64, status TxStatus) Transaction {
	return Transaction{
		ID:       id.NewTransactionID(),
		Type:     t,
		Amount:   amount,
		Currency: "usd",
		Status:   status,
	}
}

func TestComputeBalanceFold(t *testing.T) {
	tests := []struct {
		name      string
		txs       []Transaction
		available int64
		locked    int64
	}{
		{"empty log", nil, 0, 0},
		{
			"credits only",
			[]Transaction{tx(TxCredit, 1000, TxCompleted), tx(TxCredit, 500, TxCompleted)},
			1500, 0,
		},
		{
			"credit then debit",
			[]Transaction{tx(TxCredit, 1000, TxCompleted), tx(TxDebit, 400, TxCompleted)},
			600, 0,
		},
		{
			"lock moves to locked",
			[]Transaction{tx(TxCredit, 1000, TxCompleted), tx(TxLock, 300, TxCompleted)},
			700, 300,
		},
		{
			"unlock releases",
			[]Transaction{
				tx(TxCredit, 1000, TxCompleted),
				tx(TxLock, 300, TxCompleted),
				tx(TxUnlock, 300, TxCompleted),
			},
			1000, 0,
		},
		{
			"refund restores",
			[]Transaction{
				tx(TxCredit, 1000, TxCompleted),
				tx(TxDebit, 400, TxCompleted),
				tx(TxRefund, 400, TxCompleted),
			},
			1000, 0,
		},
		{
			"complete payment nets one debit",
			[]Transaction{
				tx(TxCredit, 1000, TxCompleted),
				tx(TxLock, 300, TxCompleted),
				tx(TxUnlock, 300, TxCompleted),
				tx(TxDebit, 300, TxCompleted),
			},
			700, 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ComputeBalance("usd", tt.txs)
			if b.Available.Amount != tt.available {
				t.Errorf("available: got %d, want %d", b.Available.Amount, tt.available)
			}
			if b.Locked.Amount != tt.locked {
				t.Errorf("locked: got %d, want %d", b.Locked.Amount, tt.locked)
			}
		})
	}
}

func TestComputeBalanceIgnoresNonCompleted(t *testing.T) {
	txs := []Transaction{
		tx(TxCredit, 1000, TxCompleted),
		tx(TxCredit, 9999, TxPending),
		tx(TxDebit, 9999, TxFailed),
		tx(TxLock, 9999, TxReversed),
	}

	b := ComputeBalance("usd", txs)
	if b.Available.Amount != 1000 {
		t.Errorf("available: got %d, want 1000", b.Available.Amount)
	}
	if b.Locked.Amount != 0 {
		t.Errorf("locked: got %d, want 0", b.Locked.Amount)
	}
}

func TestBalanceTotal(t *testing.T) {
	b := Balance{Available: types.USD(700), Locked: types.USD(300)}
	if !b.Total().Equal(types.USD(1000)) {
		t.Errorf("total: got %v", b.Total())
	}
}

func TestAccountIsRoot(t *testing.T) {
	root := Account{ID: id.NewAccountID()}
	if !root.IsRoot() {
		t.Error("account without parent should be root")
	}

	child := Account{ID: id.NewAccountID(), ParentID: root.ID}
	if child.IsRoot() {
		t.Error("account with parent should not be root")
	}
}
