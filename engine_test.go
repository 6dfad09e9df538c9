package vendra_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vendra/vendra"
	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/pricing"
	"github.com/vendra/vendra/provider"
	"github.com/vendra/vendra/schema"
	"github.com/vendra/vendra/service"
	"github.com/vendra/vendra/store/memory"
	"github.com/vendra/vendra/types"
	"github.com/vendra/vendra/wallet"
)

const testTenant = "tenant_1"

// fixture is a started engine with one admin, one reseller with a funded
// wallet, one service, and one manual provider.
type fixture struct {
	engine   *vendra.Engine
	admin    *wallet.Account
	reseller *wallet.Account
	wallet   *wallet.Wallet
	service  *service.Service
	provider *provider.Config
}

func newFixture(t *testing.T, opts ...vendra.Option) *fixture {
	t.Helper()
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]vendra.Option{
		vendra.WithLogger(logger),
		vendra.WithSyncConfig(0, 50, 1000), // no background worker in tests
	}, opts...)

	eng := vendra.New(memory.New(), opts...)
	require.NoError(t, eng.Start(ctx))
	t.Cleanup(func() { _ = eng.Stop() })

	admin := &wallet.Account{TenantID: testTenant, Role: types.RoleAdmin, Name: "admin"}
	require.NoError(t, eng.CreateAccount(ctx, admin))

	reseller := &wallet.Account{TenantID: testTenant, Role: types.RoleReseller, Name: "reseller"}
	require.NoError(t, eng.CreateAccount(ctx, reseller))

	w, err := eng.CreateWallet(ctx, testTenant, reseller.ID, "usd")
	require.NoError(t, err)

	svc := &service.Service{
		TenantID: testTenant,
		Name:     "IMEI Unlock",
		InputSchema: schema.Schema{Fields: []schema.Field{
			{Key: "imei", Label: "IMEI", Type: schema.FieldText, Required: true, Pattern: `^[0-9]{15}$`},
		}},
		BaseCost:     types.USD(1000),
		SupportsBulk: true,
		Active:       true,
	}
	require.NoError(t, eng.CreateService(ctx, svc))

	cfg := &provider.Config{
		TenantID: testTenant,
		Name:     "manual desk",
		Type:     provider.TypeManual,
		Active:   true,
	}
	require.NoError(t, eng.CreateProviderConfig(ctx, cfg))

	return &fixture{
		engine:   eng,
		admin:    admin,
		reseller: reseller,
		wallet:   w,
		service:  svc,
		provider: cfg,
	}
}

// fund credits the fixture wallet.
func (f *fixture) fund(t *testing.T, amount int64) {
	t.Helper()
	_, err := f.engine.Credit(context.Background(), f.wallet.ID, amount, "top up",
		wallet.Reference{Type: "payment", ID: "test"})
	require.NoError(t, err)
}

// newPercentageRule builds a percentage markup rule in basis points.
func newPercentageRule(serviceID id.ID, role types.Role, bps int64) *pricing.Rule {
	return &pricing.Rule{
		ServiceID:   serviceID,
		Role:        role,
		MarkupType:  pricing.MarkupPercentage,
		MarkupValue: bps,
	}
}

func TestEngineStartRegistersProviderPlugins(t *testing.T) {
	f := newFixture(t, vendra.WithProvider("stub", func(cfg provider.Config) (provider.Provider, error) {
		return provider.NewManual(cfg), nil
	}))

	require.Contains(t, f.engine.Providers().Types(), "stub")
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bad := &wallet.Account{TenantID: testTenant, Role: "superuser"}
	require.ErrorIs(t, f.engine.CreateAccount(ctx, bad), vendra.ErrInvalidInput)

	orphan := &wallet.Account{TenantID: testTenant, Role: types.RoleCustomer, ParentID: id.New(id.PrefixAccount)}
	require.ErrorIs(t, f.engine.CreateAccount(ctx, orphan), vendra.ErrAccountNotFound)
}

func TestCreatePricingRuleValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bad := newPercentageRule(f.service.ID, types.RoleReseller, -100)
	require.Error(t, f.engine.CreatePricingRule(ctx, bad))

	good := newPercentageRule(f.service.ID, types.RoleReseller, 1000)
	require.NoError(t, f.engine.CreatePricingRule(ctx, good))

	quote, err := f.engine.QuoteOrder(ctx, f.service.ID, types.RoleReseller, 2)
	require.NoError(t, err)
	require.Equal(t, int64(2200), quote.TotalAmount.Amount) // (1000 + 10%) * 2
}

func TestCreateProviderConfigRejectsUnknownType(t *testing.T) {
	f := newFixture(t)

	cfg := &provider.Config{TenantID: testTenant, Name: "ghost", Type: "ghost"}
	err := f.engine.CreateProviderConfig(context.Background(), cfg)
	require.ErrorIs(t, err, provider.ErrNotRegistered)
}
