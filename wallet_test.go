package vendra_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vendra/vendra"
	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/types"
	"github.com/vendra/vendra/wallet"
)

func TestCreateWalletRejectsSubAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := &wallet.Account{TenantID: testTenant, ParentID: f.reseller.ID, Role: types.RoleCustomer, Name: "customer"}
	require.NoError(t, f.engine.CreateAccount(ctx, sub))

	_, err := f.engine.CreateWallet(ctx, testTenant, sub.ID, "usd")
	require.ErrorIs(t, err, vendra.ErrForbidden)
}

func TestWalletForResolvesToRootAncestor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := &wallet.Account{TenantID: testTenant, ParentID: f.reseller.ID, Role: types.RoleSubReseller, Name: "sub"}
	require.NoError(t, f.engine.CreateAccount(ctx, sub))

	customer := &wallet.Account{TenantID: testTenant, ParentID: sub.ID, Role: types.RoleCustomer, Name: "cust"}
	require.NoError(t, f.engine.CreateAccount(ctx, customer))

	w, err := f.engine.WalletFor(ctx, customer.ID)
	require.NoError(t, err)
	require.Equal(t, f.wallet.ID, w.ID)
}

func TestWalletForDetectsCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := &wallet.Account{TenantID: testTenant, ParentID: f.reseller.ID, Role: types.RoleSubReseller, Name: "a"}
	require.NoError(t, f.engine.CreateAccount(ctx, a))
	b := &wallet.Account{TenantID: testTenant, ParentID: a.ID, Role: types.RoleCustomer, Name: "b"}
	require.NoError(t, f.engine.CreateAccount(ctx, b))

	// Corrupt the chain so a and b point at each other.
	a.ParentID = b.ID
	require.NoError(t, f.engine.UpdateAccount(ctx, a))
	_, err := f.engine.WalletFor(ctx, b.ID)
	require.ErrorIs(t, err, vendra.ErrOwnershipCycle)
}

func TestBalanceIsDerivedFromLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fund(t, 5000)
	_, err := f.engine.Debit(ctx, f.wallet.ID, 1200, "spend", wallet.Reference{Type: "order", ID: "x"})
	require.NoError(t, err)
	_, err = f.engine.Lock(ctx, f.wallet.ID, 800, "hold", wallet.Reference{Type: "order", ID: "y"})
	require.NoError(t, err)

	b, err := f.engine.Balance(ctx, f.wallet.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3000), b.Available.Amount)
	require.Equal(t, int64(800), b.Locked.Amount)
	require.Equal(t, int64(3800), b.Total().Amount)
}

func TestDebitRejectsOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fund(t, 100)
	_, err := f.engine.Debit(ctx, f.wallet.ID, 101, "too much", wallet.Reference{})
	require.ErrorIs(t, err, vendra.ErrInsufficientBalance)
	require.True(t, vendra.IsBalanceError(err))

	// The failed debit must leave no ledger trace.
	b, err := f.engine.Balance(ctx, f.wallet.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), b.Available.Amount)
}

func TestUnlockRequiresParentLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fund(t, 1000)
	lock, err := f.engine.Lock(ctx, f.wallet.ID, 500, "hold", wallet.Reference{Type: "order", ID: "x"})
	require.NoError(t, err)

	// No parent at all.
	_, err = f.engine.Unlock(ctx, f.wallet.ID, 500, id.Nil, "release", wallet.Reference{})
	require.ErrorIs(t, err, vendra.ErrUnlockWithoutParent)

	// More than the original lock.
	_, err = f.engine.Unlock(ctx, f.wallet.ID, 600, lock.ID, "release", wallet.Reference{})
	require.ErrorIs(t, err, vendra.ErrInvalidInput)

	// A proper release carries the lock as its parent.
	unlock, err := f.engine.Unlock(ctx, f.wallet.ID, 500, lock.ID, "release", wallet.Reference{})
	require.NoError(t, err)
	require.Equal(t, lock.ID, unlock.ParentTxID)

	// Nothing held anymore.
	_, err = f.engine.Unlock(ctx, f.wallet.ID, 500, lock.ID, "again", wallet.Reference{})
	require.ErrorIs(t, err, vendra.ErrInsufficientLockedBalance)
}

func TestRefundRequiresParentDebit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fund(t, 1000)
	debit, err := f.engine.Debit(ctx, f.wallet.ID, 400, "spend", wallet.Reference{Type: "order", ID: "x"})
	require.NoError(t, err)

	// No parent at all.
	_, err = f.engine.Refund(ctx, f.wallet.ID, 400, id.Nil, "refund", wallet.Reference{})
	require.ErrorIs(t, err, vendra.ErrRefundWithoutParent)

	// More than the original debit.
	_, err = f.engine.Refund(ctx, f.wallet.ID, 500, debit.ID, "refund", wallet.Reference{})
	require.ErrorIs(t, err, vendra.ErrInvalidInput)

	// Proper refund restores the balance.
	_, err = f.engine.Refund(ctx, f.wallet.ID, 400, debit.ID, "refund", wallet.Reference{})
	require.NoError(t, err)

	b, err := f.engine.Balance(ctx, f.wallet.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), b.Available.Amount)
}

func TestRejectsNonPositiveAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Credit(ctx, f.wallet.ID, 0, "zero", wallet.Reference{})
	require.ErrorIs(t, err, vendra.ErrNegativeAmount)
	_, err = f.engine.Credit(ctx, f.wallet.ID, -5, "negative", wallet.Reference{})
	require.ErrorIs(t, err, vendra.ErrNegativeAmount)
}

// TestConcurrentDebitsNeverOverdraw hammers one wallet from many
// goroutines. The per-wallet guard must serialize the check-then-append
// sequences so the ledger can never fold to a negative balance.
func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fund(t, 1000)

	const workers = 50
	var wg sync.WaitGroup
	succeeded := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.Debit(ctx, f.wallet.ID, 100, "race", wallet.Reference{}); err == nil {
				succeeded <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	wins := 0
	for range succeeded {
		wins++
	}
	require.Equal(t, 10, wins)

	b, err := f.engine.Balance(ctx, f.wallet.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), b.Available.Amount)
}
