package vendra_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vendra/vendra"
	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/types"
	"github.com/vendra/vendra/wallet"
)

func placeRequest(f *fixture, input map[string]any) vendra.PlaceOrderRequest {
	return vendra.PlaceOrderRequest{
		TenantID:   testTenant,
		UserID:     f.reseller.ID,
		ServiceID:  f.service.ID,
		ProviderID: f.provider.ID,
		Quantity:   1,
		Input:      input,
	}
}

func validInput() map[string]any {
	return map[string]any{"imei": "490154203237518"}
}

func TestPlaceOrderPricesWithoutCharging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.CreatePricingRule(ctx, newPercentageRule(f.service.ID, types.RoleReseller, 2000)))
	f.fund(t, 10000)

	o, err := f.engine.PlaceOrder(ctx, placeRequest(f, validInput()))
	require.NoError(t, err)

	require.Equal(t, order.StatusPending, o.Status)
	require.Equal(t, int64(1000), o.BaseCost.Amount)
	require.Equal(t, int64(200), o.Markup.Amount)
	require.Equal(t, int64(1200), o.TotalAmount.Amount)
	require.True(t, strings.HasPrefix(o.OrderNumber, "ORD-"))

	// Placement touches no funds.
	b, err := f.engine.Balance(ctx, f.wallet.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10000), b.Available.Amount)
}

func TestPlaceOrderRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.PlaceOrder(context.Background(), placeRequest(f, map[string]any{"imei": "not-an-imei"}))

	var inputErr *vendra.InputError
	require.ErrorAs(t, err, &inputErr)
	require.Contains(t, inputErr.Fields, "imei")
	require.ErrorIs(t, err, vendra.ErrInvalidInput)
}

func TestPlaceOrderEnforcesRoleAllowList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.service.AllowedRoles = []types.Role{types.RoleAdmin}
	require.NoError(t, f.engine.UpdateService(ctx, f.service))

	_, err := f.engine.PlaceOrder(ctx, placeRequest(f, validInput()))
	require.ErrorIs(t, err, vendra.ErrRoleNotAllowed)
}

func TestPaymentLocksFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fund(t, 5000)
	o, err := f.engine.PlaceOrder(ctx, placeRequest(f, validInput()))
	require.NoError(t, err)

	o, err = f.engine.ProcessOrderPayment(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusPaymentConfirmed, o.Status)
	require.Equal(t, o.TotalAmount, o.PaidAmount)

	b, err := f.engine.Balance(ctx, f.wallet.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4000), b.Available.Amount)
	require.Equal(t, int64(1000), b.Locked.Amount)
}

func TestPaymentRejectsRepeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fund(t, 5000)
	o, err := f.engine.PlaceOrder(ctx, placeRequest(f, validInput()))
	require.NoError(t, err)
	_, err = f.engine.ProcessOrderPayment(ctx, o.ID)
	require.NoError(t, err)

	// A second call must not stack another lock.
	_, err = f.engine.ProcessOrderPayment(ctx, o.ID)
	require.ErrorIs(t, err, vendra.ErrAlreadyPaid)

	b, err := f.engine.Balance(ctx, f.wallet.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), b.Locked.Amount)
	require.Equal(t, int64(4000), b.Available.Amount)
}

func TestPaymentRejectsInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fund(t, 500)
	o, err := f.engine.PlaceOrder(ctx, placeRequest(f, validInput()))
	require.NoError(t, err)

	_, err = f.engine.ProcessOrderPayment(ctx, o.ID)
	require.ErrorIs(t, err, vendra.ErrInsufficientBalance)

	// Order stays pending with nothing locked.
	o, err = f.engine.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusPending, o.Status)
}

func TestFulfillRequiresPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.engine.PlaceOrder(ctx, placeRequest(f, validInput()))
	require.NoError(t, err)

	_, err = f.engine.FulfillOrder(ctx, o.ID)
	require.ErrorIs(t, err, vendra.ErrInvalidTransition)
}

func TestFulfillSendsToProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fund(t, 5000)
	o, err := f.engine.PlaceOrder(ctx, placeRequest(f, validInput()))
	require.NoError(t, err)
	_, err = f.engine.ProcessOrderPayment(ctx, o.ID)
	require.NoError(t, err)

	o, err = f.engine.FulfillOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusProcessing, o.Status)
	require.NotEmpty(t, o.ProviderOrderID)

	// Second fulfillment attempt is rejected.
	_, err = f.engine.FulfillOrder(ctx, o.ID)
	require.ErrorIs(t, err, vendra.ErrAlreadyFulfilled)
}

func TestApprovalGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.service.RequiresApproval = true
	require.NoError(t, f.engine.UpdateService(ctx, f.service))
	f.fund(t, 5000)

	o, err := f.engine.PlaceOrder(ctx, placeRequest(f, validInput()))
	require.NoError(t, err)
	_, err = f.engine.ProcessOrderPayment(ctx, o.ID)
	require.NoError(t, err)

	// Unapproved orders can't be fulfilled.
	_, err = f.engine.FulfillOrder(ctx, o.ID)
	require.ErrorIs(t, err, vendra.ErrApprovalRequired)

	// Non-admins can't approve.
	_, err = f.engine.ApproveOrder(ctx, o.ID, f.reseller.ID)
	require.ErrorIs(t, err, vendra.ErrRoleRequired)

	o, err = f.engine.ApproveOrder(ctx, o.ID, f.admin.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusApproved, o.Status)
	require.Equal(t, f.admin.ID, o.ApprovedBy)
	require.NotNil(t, o.ApprovedAt)

	o, err = f.engine.FulfillOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusProcessing, o.Status)
}

func TestCancelReleasesLockedFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fund(t, 5000)
	o, err := f.engine.PlaceOrder(ctx, placeRequest(f, validInput()))
	require.NoError(t, err)
	_, err = f.engine.ProcessOrderPayment(ctx, o.ID)
	require.NoError(t, err)

	o, err = f.engine.CancelOrder(ctx, o.ID, types.RoleReseller)
	require.NoError(t, err)
	require.Equal(t, order.StatusCancelled, o.Status)

	b, err := f.engine.Balance(ctx, f.wallet.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5000), b.Available.Amount)
	require.Equal(t, int64(0), b.Locked.Amount)

	// The release references the payment lock it reversed.
	txs, err := f.engine.ListTransactions(ctx, f.wallet.ID, wallet.TxFilter{Reference: o.ID.String()})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Equal(t, wallet.TxLock, txs[0].Type)
	require.Equal(t, wallet.TxUnlock, txs[1].Type)
	require.Equal(t, txs[0].ID, txs[1].ParentTxID)

	// Terminal orders reject further transitions.
	_, err = f.engine.CancelOrder(ctx, o.ID, types.RoleAdmin)
	require.NoError(t, err) // same-state no-op
	_, err = f.engine.ProcessOrderPayment(ctx, o.ID)
	require.ErrorIs(t, err, vendra.ErrInvalidTransition)
}

func TestBulkOrderRejectsBadItemsByIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.PlaceBulkOrder(ctx, vendra.BulkOrderRequest{
		TenantID:   testTenant,
		UserID:     f.reseller.ID,
		ServiceID:  f.service.ID,
		ProviderID: f.provider.ID,
		Items: []map[string]any{
			{"imei": "490154203237518"},
			{"imei": "bad"},
			{},
		},
	})

	var bulkErr *vendra.BulkError
	require.ErrorAs(t, err, &bulkErr)
	require.Len(t, bulkErr.Items, 2)
	require.Contains(t, bulkErr.Items, 1)
	require.Contains(t, bulkErr.Items, 2)
}

func TestBulkOrderCreatesItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, 10000)

	o, err := f.engine.PlaceBulkOrder(ctx, vendra.BulkOrderRequest{
		TenantID:   testTenant,
		UserID:     f.reseller.ID,
		ServiceID:  f.service.ID,
		ProviderID: f.provider.ID,
		Items: []map[string]any{
			{"imei": "490154203237518"},
			{"imei": "356938035643809"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), o.Quantity)
	require.Equal(t, int64(2000), o.TotalAmount.Amount)

	items, err := f.engine.ListOrderItems(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		require.Equal(t, order.StatusPending, item.Status)
	}

	// Fulfillment moves the items to processing with their parent.
	_, err = f.engine.ProcessOrderPayment(ctx, o.ID)
	require.NoError(t, err)
	_, err = f.engine.FulfillOrder(ctx, o.ID)
	require.NoError(t, err)

	items, err = f.engine.ListOrderItems(ctx, o.ID)
	require.NoError(t, err)
	for _, item := range items {
		require.Equal(t, order.StatusProcessing, item.Status)
	}
}

func TestBulkOrderRequiresSupport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.service.SupportsBulk = false
	require.NoError(t, f.engine.UpdateService(ctx, f.service))

	_, err := f.engine.PlaceBulkOrder(ctx, vendra.BulkOrderRequest{
		TenantID:   testTenant,
		UserID:     f.reseller.ID,
		ServiceID:  f.service.ID,
		ProviderID: f.provider.ID,
		Items:      []map[string]any{{"imei": "490154203237518"}},
	})
	require.ErrorIs(t, err, vendra.ErrBulkNotSupported)

	_, err = f.engine.PlaceBulkOrder(ctx, vendra.BulkOrderRequest{TenantID: testTenant})
	require.ErrorIs(t, err, vendra.ErrEmptyBulkOrder)
}
