package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/vendra/vendra"
	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/wallet"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewWithDB(db), mock
}

func TestMigrateRunsEveryStep(t *testing.T) {
	s, mock := newMockStore(t)

	for range migrations {
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS`).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	accountID := id.New(id.PrefixAccount)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM vendra_accounts WHERE id = $1`)).
		WithArgs(accountID.String()).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetAccount(context.Background(), accountID)
	require.ErrorIs(t, err, vendra.ErrAccountNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWalletDuplicateOwner(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO vendra_wallets`).
		WillReturnError(&pq.Error{Code: "23505"})

	w := &wallet.Wallet{
		ID:       id.New(id.PrefixWallet),
		TenantID: "acme",
		OwnerID:  id.New(id.PrefixAccount),
		Currency: "usd",
		Active:   true,
	}
	err := s.CreateWallet(context.Background(), w)
	require.ErrorIs(t, err, vendra.ErrWalletExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransactionsBuildsFilterQuery(t *testing.T) {
	s, mock := newMockStore(t)

	walletID := id.New(id.PrefixWallet)
	txID := id.New(id.PrefixTransaction)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "wallet_id", "seq", "type", "amount", "currency", "status",
		"ref_type", "ref_id", "description", "created_at",
	}).AddRow(
		txID.String(), walletID.String(), int64(1), "debit", int64(500), "usd",
		"completed", "order", "ord-1", "order payment settle", now,
	)

	mock.ExpectQuery(regexp.QuoteMeta(`AND type = $2 AND status = $3 AND ref_id = $4 ORDER BY seq`)).
		WithArgs(walletID.String(), "debit", "completed", "ord-1").
		WillReturnRows(rows)

	txs, err := s.ListTransactions(context.Background(), walletID, wallet.TxFilter{
		Type:      wallet.TxDebit,
		Status:    wallet.TxCompleted,
		Reference: "ord-1",
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, int64(500), txs[0].Amount)
	require.Equal(t, wallet.Reference{Type: "order", ID: "ord-1"}, txs[0].Reference)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersByStatusPagesWithStableOrder(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`)).
		WithArgs("processing", 2, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))

	_, err := s.ListOrdersByStatus(context.Background(), order.StatusProcessing, 2, 4)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithWalletHoldsAdvisoryLock(t *testing.T) {
	s, mock := newMockStore(t)

	walletID := id.New(id.PrefixWallet)
	key := lockKey(walletID)

	mock.ExpectExec(`pg_advisory_lock`).
		WithArgs(key).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`pg_advisory_unlock`).
		WithArgs(key).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ran := false
	err := s.WithWallet(context.Background(), walletID, func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkProviderSyncedMissingProvider(t *testing.T) {
	s, mock := newMockStore(t)

	providerID := id.New(id.PrefixProvider)
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE vendra_providers SET last_sync_at`).
		WithArgs(at, providerID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.MarkProviderSynced(context.Background(), providerID, at)
	require.ErrorIs(t, err, vendra.ErrProviderNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
