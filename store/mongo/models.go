package mongo

import (
	"time"

	"github.com/vendra/vendra/id"
	"github.com/vendra/vendra/order"
	"github.com/vendra/vendra/pricing"
	"github.com/vendra/vendra/provider"
	"github.com/vendra/vendra/schema"
	"github.com/vendra/vendra/service"
	"github.com/vendra/vendra/types"
	"github.com/vendra/vendra/wallet"
)

// parseID parses a stored ID string, mapping the empty string to Nil for
// optional references.
func parseID(s string) (id.ID, error) {
	if s == "" {
		return id.Nil, nil
	}
	return id.Parse(s)
}

// idString renders an ID for storage, mapping Nil to the empty string.
func idString(v id.ID) string {
	if v.IsNil() {
		return ""
	}
	return v.String()
}

// ==================== Account models ====================

type accountModel struct {
	ID        string    `bson:"_id"`
	TenantID  string    `bson:"tenant_id"`
	ParentID  string    `bson:"parent_id,omitempty"`
	Role      string    `bson:"role"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toAccountModel(a *wallet.Account) *accountModel {
	return &accountModel{
		ID:        a.ID.String(),
		TenantID:  a.TenantID,
		ParentID:  idString(a.ParentID),
		Role:      string(a.Role),
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*wallet.Account, error) {
	accountID, err := parseID(m.ID)
	if err != nil {
		return nil, err
	}
	parentID, err := parseID(m.ParentID)
	if err != nil {
		return nil, err
	}

	a := &wallet.Account{
		ID:       accountID,
		TenantID: m.TenantID,
		ParentID: parentID,
		Role:     types.Role(m.Role),
		Name:     m.Name,
	}
	a.CreatedAt = m.CreatedAt
	a.UpdatedAt = m.UpdatedAt
	return a, nil
}

// ==================== Wallet models ====================

type walletModel struct {
	ID        string    `bson:"_id"`
	TenantID  string    `bson:"tenant_id"`
	OwnerID   string    `bson:"owner_id"`
	Currency  string    `bson:"currency"`
	Active    bool      `bson:"active"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toWalletModel(w *wallet.Wallet) *walletModel {
	return &walletModel{
		ID:        w.ID.String(),
		TenantID:  w.TenantID,
		OwnerID:   w.OwnerID.String(),
		Currency:  w.Currency,
		Active:    w.Active,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func fromWalletModel(m *walletModel) (*wallet.Wallet, error) {
	walletID, err := parseID(m.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := parseID(m.OwnerID)
	if err != nil {
		return nil, err
	}

	w := &wallet.Wallet{
		ID:       walletID,
		TenantID: m.TenantID,
		OwnerID:  ownerID,
		Currency: m.Currency,
		Active:   m.Active,
	}
	w.CreatedAt = m.CreatedAt
	w.UpdatedAt = m.UpdatedAt
	return w, nil
}

// ==================== Transaction models ====================

type transactionModel struct {
	ID          string     `bson:"_id"`
	WalletID    string     `bson:"wallet_id"`
	Seq         int64      `bson:"seq"`
	Type        string     `bson:"type"`
	Amount      int64      `bson:"amount"`
	Currency    string     `bson:"currency"`
	Status      string     `bson:"status"`
	RefType     string     `bson:"ref_type,omitempty"`
	RefID       string     `bson:"ref_id,omitempty"`
	ParentTxID  string     `bson:"parent_tx_id,omitempty"`
	Description string     `bson:"description,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty"`
}

func toTransactionModel(tx *wallet.Transaction) *transactionModel {
	return &transactionModel{
		ID:          tx.ID.String(),
		WalletID:    tx.WalletID.String(),
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Status:      string(tx.Status),
		RefType:     tx.Reference.Type,
		RefID:       tx.Reference.ID,
		ParentTxID:  idString(tx.ParentTxID),
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
		CompletedAt: tx.CompletedAt,
	}
}

func fromTransactionModel(m *transactionModel) (wallet.Transaction, error) {
	txID, err := parseID(m.ID)
	if err != nil {
		return wallet.Transaction{}, err
	}
	walletID, err := parseID(m.WalletID)
	if err != nil {
		return wallet.Transaction{}, err
	}
	parentTxID, err := parseID(m.ParentTxID)
	if err != nil {
		return wallet.Transaction{}, err
	}

	return wallet.Transaction{
		ID:          txID,
		WalletID:    walletID,
		Type:        wallet.TxType(m.Type),
		Amount:      m.Amount,
		Currency:    m.Currency,
		Status:      wallet.TxStatus(m.Status),
		Reference:   wallet.Reference{Type: m.RefType, ID: m.RefID},
		ParentTxID:  parentTxID,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		CompletedAt: m.CompletedAt,
	}, nil
}

// ==================== Order models ====================

type orderModel struct {
	ID              string         `bson:"_id"`
	TenantID        string         `bson:"tenant_id"`
	UserID          string         `bson:"user_id"`
	ServiceID       string         `bson:"service_id"`
	ProviderID      string         `bson:"provider_id"`
	OrderNumber     string         `bson:"order_number"`
	Status          string         `bson:"status"`
	Quantity        int64          `bson:"quantity"`
	InputData       map[string]any `bson:"input_data,omitempty"`
	OutputData      map[string]any `bson:"output_data,omitempty"`
	BaseCost        int64          `bson:"base_cost"`
	Markup          int64          `bson:"markup"`
	TotalAmount     int64          `bson:"total_amount"`
	PaidAmount      int64          `bson:"paid_amount"`
	Currency        string         `bson:"currency"`
	ProviderOrderID string         `bson:"provider_order_id,omitempty"`
	ProviderStatus  string         `bson:"provider_status,omitempty"`
	ApprovedBy      string         `bson:"approved_by,omitempty"`
	ApprovedAt      *time.Time     `bson:"approved_at,omitempty"`
	CompletedAt     *time.Time     `bson:"completed_at,omitempty"`
	CreatedAt       time.Time      `bson:"created_at"`
	UpdatedAt       time.Time      `bson:"updated_at"`
}

func toOrderModel(o *order.Order) *orderModel {
	return &orderModel{
		ID:              o.ID.String(),
		TenantID:        o.TenantID,
		UserID:          o.UserID.String(),
		ServiceID:       o.ServiceID.String(),
		ProviderID:      o.ProviderID.String(),
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		Quantity:        o.Quantity,
		InputData:       o.InputData,
		OutputData:      o.OutputData,
		BaseCost:        o.BaseCost.Amount,
		Markup:          o.Markup.Amount,
		TotalAmount:     o.TotalAmount.Amount,
		PaidAmount:      o.PaidAmount.Amount,
		Currency:        o.Currency,
		ProviderOrderID: o.ProviderOrderID,
		ProviderStatus:  o.ProviderStatus,
		ApprovedBy:      idString(o.ApprovedBy),
		ApprovedAt:      o.ApprovedAt,
		CompletedAt:     o.CompletedAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func fromOrderModel(m *orderModel) (*order.Order, error) {
	orderID, err := parseID(m.ID)
	if err != nil {
		return nil, err
	}
	userID, err := parseID(m.UserID)
	if err != nil {
		return nil, err
	}
	serviceID, err := parseID(m.ServiceID)
	if err != nil {
		return nil, err
	}
	providerID, err := parseID(m.ProviderID)
	if err != nil {
		return nil, err
	}
	approvedBy, err := parseID(m.ApprovedBy)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		ID:              orderID,
		TenantID:        m.TenantID,
		UserID:          userID,
		ServiceID:       serviceID,
		ProviderID:      providerID,
		OrderNumber:     m.OrderNumber,
		Status:          order.Status(m.Status),
		Quantity:        m.Quantity,
		InputData:       m.InputData,
		OutputData:      m.OutputData,
		BaseCost:        types.NewMoney(m.BaseCost, m.Currency),
		Markup:          types.NewMoney(m.Markup, m.Currency),
		TotalAmount:     types.NewMoney(m.TotalAmount, m.Currency),
		PaidAmount:      types.NewMoney(m.PaidAmount, m.Currency),
		Currency:        m.Currency,
		ProviderOrderID: m.ProviderOrderID,
		ProviderStatus:  m.ProviderStatus,
		ApprovedBy:      approvedBy,
		ApprovedAt:      m.ApprovedAt,
		CompletedAt:     m.CompletedAt,
	}
	o.CreatedAt = m.CreatedAt
	o.UpdatedAt = m.UpdatedAt
	return o, nil
}

// ==================== Order item models ====================

type orderItemModel struct {
	ID              string         `bson:"_id"`
	OrderID         string         `bson:"order_id"`
	Idx             int            `bson:"idx"`
	Status          string         `bson:"status"`
	InputData       map[string]any `bson:"input_data,omitempty"`
	OutputData      map[string]any `bson:"output_data,omitempty"`
	ProviderOrderID string         `bson:"provider_order_id,omitempty"`
	CreatedAt       time.Time      `bson:"created_at"`
	UpdatedAt       time.Time      `bson:"updated_at"`
}

func toOrderItemModel(it *order.Item) *orderItemModel {
	return &orderItemModel{
		ID:              it.ID.String(),
		OrderID:         it.OrderID.String(),
		Idx:             it.Index,
		Status:          string(it.Status),
		InputData:       it.InputData,
		OutputData:      it.OutputData,
		ProviderOrderID: it.ProviderOrderID,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
	}
}

func fromOrderItemModel(m *orderItemModel) (*order.Item, error) {
	itemID, err := parseID(m.ID)
	if err != nil {
		return nil, err
	}
	orderID, err := parseID(m.OrderID)
	if err != nil {
		return nil, err
	}

	it := &order.Item{
		ID:              itemID,
		OrderID:         orderID,
		Index:           m.Idx,
		Status:          order.Status(m.Status),
		InputData:       m.InputData,
		OutputData:      m.OutputData,
		ProviderOrderID: m.ProviderOrderID,
	}
	it.CreatedAt = m.CreatedAt
	it.UpdatedAt = m.UpdatedAt
	return it, nil
}

// ==================== Service models ====================

type serviceModel struct {
	ID               string        `bson:"_id"`
	TenantID         string        `bson:"tenant_id"`
	Name             string        `bson:"name"`
	InputSchema      schema.Schema `bson:"input_schema"`
	BaseCost         int64         `bson:"base_cost"`
	Currency         string        `bson:"currency"`
	AllowedRoles     []string      `bson:"allowed_roles,omitempty"`
	SupportsBulk     bool          `bson:"supports_bulk"`
	RequiresApproval bool          `bson:"requires_approval"`
	Active           bool          `bson:"active"`
	CreatedAt        time.Time     `bson:"created_at"`
	UpdatedAt        time.Time     `bson:"updated_at"`
}

func toServiceModel(s *service.Service) *serviceModel {
	roles := make([]string, 0, len(s.AllowedRoles))
	for _, r := range s.AllowedRoles {
		roles = append(roles, string(r))
	}

	return &serviceModel{
		ID:               s.ID.String(),
		TenantID:         s.TenantID,
		Name:             s.Name,
		InputSchema:      s.InputSchema,
		BaseCost:         s.BaseCost.Amount,
		Currency:         s.BaseCost.Currency,
		AllowedRoles:     roles,
		SupportsBulk:     s.SupportsBulk,
		RequiresApproval: s.RequiresApproval,
		Active:           s.Active,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func fromServiceModel(m *serviceModel) (*service.Service, error) {
	serviceID, err := parseID(m.ID)
	if err != nil {
		return nil, err
	}

	roles := make([]types.Role, 0, len(m.AllowedRoles))
	for _, r := range m.AllowedRoles {
		roles = append(roles, types.Role(r))
	}

	s := &service.Service{
		ID:               serviceID,
		TenantID:         m.TenantID,
		Name:             m.Name,
		InputSchema:      m.InputSchema,
		BaseCost:         types.NewMoney(m.BaseCost, m.Currency),
		AllowedRoles:     roles,
		SupportsBulk:     m.SupportsBulk,
		RequiresApproval: m.RequiresApproval,
		Active:           m.Active,
	}
	s.CreatedAt = m.CreatedAt
	s.UpdatedAt = m.UpdatedAt
	return s, nil
}

// ==================== Provider models ====================

type providerModel struct {
	ID            string            `bson:"_id"`
	TenantID      string            `bson:"tenant_id"`
	Name          string            `bson:"name"`
	Type          string            `bson:"type"`
	Endpoint      string            `bson:"endpoint,omitempty"`
	APIKey        string            `bson:"api_key,omitempty"`
	Settings      map[string]string `bson:"settings,omitempty"`
	StatusMapping map[string]string `bson:"status_mapping,omitempty"`
	LastSyncAt    *time.Time        `bson:"last_sync_at,omitempty"`
	Active        bool              `bson:"active"`
	CreatedAt     time.Time         `bson:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at"`
}

func toProviderModel(cfg *provider.Config) *providerModel {
	return &providerModel{
		ID:            cfg.ID.String(),
		TenantID:      cfg.TenantID,
		Name:          cfg.Name,
		Type:          cfg.Type,
		Endpoint:      cfg.Endpoint,
		APIKey:        cfg.APIKey,
		Settings:      cfg.Settings,
		StatusMapping: cfg.StatusMapping,
		LastSyncAt:    cfg.LastSyncAt,
		Active:        cfg.Active,
		CreatedAt:     cfg.CreatedAt,
		UpdatedAt:     cfg.UpdatedAt,
	}
}

func fromProviderModel(m *providerModel) (*provider.Config, error) {
	providerID, err := parseID(m.ID)
	if err != nil {
		return nil, err
	}

	cfg := &provider.Config{
		ID:            providerID,
		TenantID:      m.TenantID,
		Name:          m.Name,
		Type:          m.Type,
		Endpoint:      m.Endpoint,
		APIKey:        m.APIKey,
		Settings:      m.Settings,
		StatusMapping: m.StatusMapping,
		LastSyncAt:    m.LastSyncAt,
		Active:        m.Active,
	}
	cfg.CreatedAt = m.CreatedAt
	cfg.UpdatedAt = m.UpdatedAt
	return cfg, nil
}

// ==================== Pricing rule models ====================

type pricingRuleModel struct {
	ID          string         `bson:"_id"`
	ServiceID   string         `bson:"service_id"`
	Role        string         `bson:"role"`
	MarkupType  string         `bson:"markup_type"`
	MarkupValue int64          `bson:"markup_value"`
	MinProfit   *int64         `bson:"min_profit,omitempty"`
	MaxProfit   *int64         `bson:"max_profit,omitempty"`
	Tiers       []pricing.Tier `bson:"tiers,omitempty"`
	CreatedAt   time.Time      `bson:"created_at"`
	UpdatedAt   time.Time      `bson:"updated_at"`
}

func toPricingRuleModel(r *pricing.Rule) *pricingRuleModel {
	return &pricingRuleModel{
		ID:          r.ID.String(),
		ServiceID:   r.ServiceID.String(),
		Role:        string(r.Role),
		MarkupType:  string(r.MarkupType),
		MarkupValue: r.MarkupValue,
		MinProfit:   r.MinProfit,
		MaxProfit:   r.MaxProfit,
		Tiers:       r.Tiers,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromPricingRuleModel(m *pricingRuleModel) (*pricing.Rule, error) {
	ruleID, err := parseID(m.ID)
	if err != nil {
		return nil, err
	}
	serviceID, err := parseID(m.ServiceID)
	if err != nil {
		return nil, err
	}

	r := &pricing.Rule{
		ID:          ruleID,
		ServiceID:   serviceID,
		Role:        types.Role(m.Role),
		MarkupType:  pricing.MarkupType(m.MarkupType),
		MarkupValue: m.MarkupValue,
		MinProfit:   m.MinProfit,
		MaxProfit:   m.MaxProfit,
		Tiers:       m.Tiers,
	}
	r.CreatedAt = m.CreatedAt
	r.UpdatedAt = m.UpdatedAt
	return r, nil
}
