// Package mongo implements the store.Store interface on MongoDB.
// Ledger insertion order comes from a per-wallet counter document, and
// per-wallet serialization uses a guard collection with a TTL reaper for
// locks abandoned by a crashed process.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vendra/vendra"
	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/pricing"
	"github.com/vendra/vendra/provider"
	"github.com/vendra/vendra/service"
	"github.com/vendra/vendra/store"
	"github.com/vendra/vendra/wallet"
)

// Collection name constants.
const (
	colAccounts     = "vendra_accounts"
	colWallets      = "vendra_wallets"
	colTransactions = "vendra_transactions"
	colOrders       = "vendra_orders"
	colOrderItems   = "vendra_order_items"
	colServices     = "vendra_services"
	colProviders    = "vendra_providers"
	colPricingRules = "vendra_pricing_rules"
	colWalletGuards = "vendra_wallet_guards"
	colCounters     = "vendra_counters"
)

// Abandoned wallet guards expire after this many seconds.
const guardTTLSeconds = 60

// How long to wait between attempts to take a contended wallet guard.
const guardRetryInterval = 10 * time.Millisecond

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	db *mongo.Database
}

// New connects to MongoDB at uri and returns a Store over dbName.
// Call Migrate before first use.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("vendra/mongo: ping: %w", err)
	}
	return &Store{db: client.Database(dbName)}, nil
}

// NewWithDatabase wraps an existing database handle. The caller keeps
// ownership of the client lifecycle when using this constructor.
func NewWithDatabase(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Migrate creates indexes for all collections. Index creation is
// idempotent, so Migrate is safe to run at every startup.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("vendra/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close() error {
	return s.db.Client().Disconnect(context.Background())
}

// ==================== Account methods ====================

func (s *Store) CreateAccount(ctx context.Context, a *wallet.Account) error {
	_, err := s.db.Collection(colAccounts).InsertOne(ctx, toAccountModel(a))
	if mongo.IsDuplicateKeyError(err) {
		return vendra.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("vendra/mongo: create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.ID) (*wallet.Account, error) {
	var m accountModel
	err := s.db.Collection(colAccounts).
		FindOne(ctx, bson.M{"_id": accountID.String()}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vendra.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) UpdateAccount(ctx context.Context, a *wallet.Account) error {
	m := toAccountModel(a)
	res, err := s.db.Collection(colAccounts).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("vendra/mongo: update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return vendra.ErrAccountNotFound
	}
	return nil
}

// ==================== Wallet methods ====================

func (s *Store) CreateWallet(ctx context.Context, w *wallet.Wallet) error {
	_, err := s.db.Collection(colWallets).InsertOne(ctx, toWalletModel(w))
	if mongo.IsDuplicateKeyError(err) {
		return vendra.ErrWalletExists
	}
	if err != nil {
		return fmt.Errorf("vendra/mongo: create wallet: %w", err)
	}
	return nil
}

func (s *Store) GetWallet(ctx context.Context, walletID id.ID) (*wallet.Wallet, error) {
	var m walletModel
	err := s.db.Collection(colWallets).
		FindOne(ctx, bson.M{"_id": walletID.String()}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vendra.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: get wallet: %w", err)
	}
	return fromWalletModel(&m)
}

func (s *Store) GetWalletByOwner(ctx context.Context, ownerID id.ID) (*wallet.Wallet, error) {
	var m walletModel
	err := s.db.Collection(colWallets).
		FindOne(ctx, bson.M{"owner_id": ownerID.String()}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vendra.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: get wallet by owner: %w", err)
	}
	return fromWalletModel(&m)
}

func (s *Store) UpdateWallet(ctx context.Context, w *wallet.Wallet) error {
	m := toWalletModel(w)
	res, err := s.db.Collection(colWallets).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("vendra/mongo: update wallet: %w", err)
	}
	if res.MatchedCount == 0 {
		return vendra.ErrWalletNotFound
	}
	return nil
}

// ==================== Transaction methods ====================

// AppendTransaction inserts a new ledger entry with the next sequence
// number for its wallet. Entries are never updated or deleted afterwards.
func (s *Store) AppendTransaction(ctx context.Context, tx *wallet.Transaction) error {
	seq, err := s.nextSeq(ctx, tx.WalletID)
	if err != nil {
		return err
	}

	m := toTransactionModel(tx)
	m.Seq = seq

	_, err = s.db.Collection(colTransactions).InsertOne(ctx, m)
	if mongo.IsDuplicateKeyError(err) {
		return vendra.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("vendra/mongo: append transaction: %w", err)
	}
	return nil
}

// nextSeq increments and returns the per-wallet ledger sequence counter.
func (s *Store) nextSeq(ctx context.Context, walletID id.ID) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(colCounters).
		FindOneAndUpdate(ctx,
			bson.M{"_id": "txseq:" + walletID.String()},
			bson.M{"$inc": bson.M{"seq": int64(1)}},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).
		Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("vendra/mongo: next seq: %w", err)
	}
	return counter.Seq, nil
}

func (s *Store) GetTransaction(ctx context.Context, txID id.ID) (*wallet.Transaction, error) {
	var m transactionModel
	err := s.db.Collection(colTransactions).
		FindOne(ctx, bson.M{"_id": txID.String()}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vendra.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: get transaction: %w", err)
	}

	tx, err := fromTransactionModel(&m)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, walletID id.ID, filter wallet.TxFilter) ([]wallet.Transaction, error) {
	query := bson.M{"wallet_id": walletID.String()}
	if filter.Type != "" {
		query["type"] = string(filter.Type)
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.Reference != "" {
		query["ref_id"] = filter.Reference
	}

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	if filter.Limit > 0 {
		opts = opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts = opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := s.db.Collection(colTransactions).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: list transactions: %w", err)
	}

	var models []transactionModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("vendra/mongo: list transactions decode: %w", err)
	}

	txs := make([]wallet.Transaction, 0, len(models))
	for i := range models {
		tx, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// WithWallet serializes fn against concurrent wallet operations using a
// guard document keyed by the wallet ID. A TTL index reaps guards left
// behind by a crashed process after guardTTLSeconds.
func (s *Store) WithWallet(ctx context.Context, walletID id.ID, fn func(ctx context.Context) error) error {
	guards := s.db.Collection(colWalletGuards)
	key := walletID.String()

	for {
		_, err := guards.InsertOne(ctx, bson.M{
			"_id":       key,
			"locked_at": time.Now().UTC(),
		})
		if err == nil {
			break
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("vendra/mongo: acquire wallet guard: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(guardRetryInterval):
		}
	}
	// Release must run even when ctx was canceled mid-fn, otherwise the
	// wallet stays locked until the TTL reaper fires.
	defer guards.DeleteOne(context.WithoutCancel(ctx), bson.M{"_id": key}) //nolint:errcheck

	return fn(ctx)
}

// ==================== Order methods ====================

func (s *Store) CreateOrder(ctx context.Context, o *order.Order) error {
	_, err := s.db.Collection(colOrders).InsertOne(ctx, toOrderModel(o))
	if mongo.IsDuplicateKeyError(err) {
		return vendra.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("vendra/mongo: create order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID id.ID) (*order.Order, error) {
	var m orderModel
	err := s.db.Collection(colOrders).
		FindOne(ctx, bson.M{"_id": orderID.String()}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vendra.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: get order: %w", err)
	}
	return fromOrderModel(&m)
}

func (s *Store) GetOrderByNumber(ctx context.Context, tenantID, orderNumber string) (*order.Order, error) {
	var m orderModel
	err := s.db.Collection(colOrders).
		FindOne(ctx, bson.M{"tenant_id": tenantID, "order_number": orderNumber}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vendra.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: get order by number: %w", err)
	}
	return fromOrderModel(&m)
}

func (s *Store) ListOrders(ctx context.Context, tenantID string, listOpts order.ListOpts) ([]*order.Order, error) {
	query := bson.M{"tenant_id": tenantID}
	if listOpts.Status != "" {
		query["status"] = string(listOpts.Status)
	}
	if !listOpts.ServiceID.IsNil() {
		query["service_id"] = listOpts.ServiceID.String()
	}
	if !listOpts.UserID.IsNil() {
		query["user_id"] = listOpts.UserID.String()
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if listOpts.Limit > 0 {
		opts = opts.SetLimit(int64(listOpts.Limit))
	}
	if listOpts.Offset > 0 {
		opts = opts.SetSkip(int64(listOpts.Offset))
	}

	return s.findOrders(ctx, query, opts)
}

func (s *Store) ListOrdersByStatus(ctx context.Context, status order.Status, limit, offset int) ([]*order.Order, error) {
	// The _id tie-break keeps offset paging stable across equal timestamps.
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts = opts.SetSkip(int64(offset))
	}
	return s.findOrders(ctx, bson.M{"status": string(status)}, opts)
}

func (s *Store) findOrders(ctx context.Context, query bson.M, opts *options.FindOptionsBuilder) ([]*order.Order, error) {
	cursor, err := s.db.Collection(colOrders).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: list orders: %w", err)
	}

	var models []orderModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("vendra/mongo: list orders decode: %w", err)
	}

	orders := make([]*order.Order, 0, len(models))
	for i := range models {
		o, err := fromOrderModel(&models[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o *order.Order) error {
	m := toOrderModel(o)
	res, err := s.db.Collection(colOrders).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("vendra/mongo: update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return vendra.ErrOrderNotFound
	}
	return nil
}

// ==================== Order item methods ====================

func (s *Store) CreateOrderItems(ctx context.Context, items []*order.Item) error {
	if len(items) == 0 {
		return nil
	}

	docs := make([]any, 0, len(items))
	for _, it := range items {
		docs = append(docs, toOrderItemModel(it))
	}

	if _, err := s.db.Collection(colOrderItems).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("vendra/mongo: create order items: %w", err)
	}
	return nil
}

func (s *Store) ListOrderItems(ctx context.Context, orderID id.ID) ([]*order.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "idx", Value: 1}})
	cursor, err := s.db.Collection(colOrderItems).
		Find(ctx, bson.M{"order_id": orderID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: list order items: %w", err)
	}

	var models []orderItemModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("vendra/mongo: list order items decode: %w", err)
	}

	items := make([]*order.Item, 0, len(models))
	for i := range models {
		it, err := fromOrderItemModel(&models[i])
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *Store) UpdateOrderItem(ctx context.Context, item *order.Item) error {
	m := toOrderItemModel(item)
	res, err := s.db.Collection(colOrderItems).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("vendra/mongo: update order item: %w", err)
	}
	if res.MatchedCount == 0 {
		return vendra.ErrOrderItemNotFound
	}
	return nil
}

// ==================== Service methods ====================

func (s *Store) CreateService(ctx context.Context, svc *service.Service) error {
	_, err := s.db.Collection(colServices).InsertOne(ctx, toServiceModel(svc))
	if mongo.IsDuplicateKeyError(err) {
		return vendra.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("vendra/mongo: create service: %w", err)
	}
	return nil
}

func (s *Store) GetService(ctx context.Context, serviceID id.ID) (*service.Service, error) {
	var m serviceModel
	err := s.db.Collection(colServices).
		FindOne(ctx, bson.M{"_id": serviceID.String()}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vendra.ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: get service: %w", err)
	}
	return fromServiceModel(&m)
}

func (s *Store) ListServices(ctx context.Context, tenantID string) ([]*service.Service, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(colServices).
		Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: list services: %w", err)
	}

	var models []serviceModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("vendra/mongo: list services decode: %w", err)
	}

	services := make([]*service.Service, 0, len(models))
	for i := range models {
		svc, err := fromServiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, nil
}

func (s *Store) UpdateService(ctx context.Context, svc *service.Service) error {
	m := toServiceModel(svc)
	res, err := s.db.Collection(colServices).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("vendra/mongo: update service: %w", err)
	}
	if res.MatchedCount == 0 {
		return vendra.ErrServiceNotFound
	}
	return nil
}

// ==================== Provider config methods ====================

func (s *Store) CreateProviderConfig(ctx context.Context, cfg *provider.Config) error {
	_, err := s.db.Collection(colProviders).InsertOne(ctx, toProviderModel(cfg))
	if mongo.IsDuplicateKeyError(err) {
		return vendra.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("vendra/mongo: create provider config: %w", err)
	}
	return nil
}

func (s *Store) GetProviderConfig(ctx context.Context, providerID id.ID) (*provider.Config, error) {
	var m providerModel
	err := s.db.Collection(colProviders).
		FindOne(ctx, bson.M{"_id": providerID.String()}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vendra.ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: get provider config: %w", err)
	}
	return fromProviderModel(&m)
}

func (s *Store) ListProviderConfigs(ctx context.Context, tenantID string) ([]*provider.Config, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(colProviders).
		Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: list provider configs: %w", err)
	}

	var models []providerModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("vendra/mongo: list provider configs decode: %w", err)
	}

	configs := make([]*provider.Config, 0, len(models))
	for i := range models {
		cfg, err := fromProviderModel(&models[i])
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (s *Store) UpdateProviderConfig(ctx context.Context, cfg *provider.Config) error {
	m := toProviderModel(cfg)
	res, err := s.db.Collection(colProviders).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("vendra/mongo: update provider config: %w", err)
	}
	if res.MatchedCount == 0 {
		return vendra.ErrProviderNotFound
	}
	return nil
}

func (s *Store) MarkProviderSynced(ctx context.Context, providerID id.ID, at time.Time) error {
	res, err := s.db.Collection(colProviders).
		UpdateOne(ctx,
			bson.M{"_id": providerID.String()},
			bson.M{"$set": bson.M{"last_sync_at": at, "updated_at": at}})
	if err != nil {
		return fmt.Errorf("vendra/mongo: mark provider synced: %w", err)
	}
	if res.MatchedCount == 0 {
		return vendra.ErrProviderNotFound
	}
	return nil
}

// ==================== Pricing rule methods ====================

func (s *Store) CreatePricingRule(ctx context.Context, r *pricing.Rule) error {
	_, err := s.db.Collection(colPricingRules).InsertOne(ctx, toPricingRuleModel(r))
	if mongo.IsDuplicateKeyError(err) {
		return vendra.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("vendra/mongo: create pricing rule: %w", err)
	}
	return nil
}

func (s *Store) GetPricingRule(ctx context.Context, ruleID id.ID) (*pricing.Rule, error) {
	var m pricingRuleModel
	err := s.db.Collection(colPricingRules).
		FindOne(ctx, bson.M{"_id": ruleID.String()}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vendra.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: get pricing rule: %w", err)
	}
	return fromPricingRuleModel(&m)
}

func (s *Store) ListPricingRules(ctx context.Context, serviceID id.ID) ([]*pricing.Rule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(colPricingRules).
		Find(ctx, bson.M{"service_id": serviceID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("vendra/mongo: list pricing rules: %w", err)
	}

	var models []pricingRuleModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("vendra/mongo: list pricing rules decode: %w", err)
	}

	rules := make([]*pricing.Rule, 0, len(models))
	for i := range models {
		r, err := fromPricingRuleModel(&models[i])
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (s *Store) UpdatePricingRule(ctx context.Context, r *pricing.Rule) error {
	m := toPricingRuleModel(r)
	res, err := s.db.Collection(colPricingRules).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("vendra/mongo: update pricing rule: %w", err)
	}
	if res.MatchedCount == 0 {
		return vendra.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePricingRule(ctx context.Context, ruleID id.ID) error {
	res, err := s.db.Collection(colPricingRules).
		DeleteOne(ctx, bson.M{"_id": ruleID.String()})
	if err != nil {
		return fmt.Errorf("vendra/mongo: delete pricing rule: %w", err)
	}
	if res.DeletedCount == 0 {
		return vendra.ErrNotFound
	}
	return nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		},
		colWallets: {
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "wallet_id", Value: 1}, {Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "ref_id", Value: 1}}},
		},
		colOrders: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "order_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		colOrderItems: {
			{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "idx", Value: 1}}},
		},
		colServices: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
		},
		colProviders: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
		},
		colPricingRules: {
			{Keys: bson.D{{Key: "service_id", Value: 1}, {Key: "role", Value: 1}}},
		},
		colWalletGuards: {
			{
				Keys:    bson.D{{Key: "locked_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(guardTTLSeconds),
			},
		},
	}
}
