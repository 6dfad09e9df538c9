package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
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

// jsonText holds marshaled JSON for a JSONB column. It sends a string
// parameter instead of []byte, which lib/pq would encode as bytea.
type jsonText []byte

func (j jsonText) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil //nolint:nilnil // NULL column
	}
	return string(j), nil
}

func (j *jsonText) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = []byte(v)
	default:
		return fmt.Errorf("postgres: cannot scan %T into jsonText", src)
	}
	return nil
}

// ==================== Account models ====================

type accountModel struct {
	ID        id.ID     `db:"id"`
	TenantID  string    `db:"tenant_id"`
	ParentID  id.ID     `db:"parent_id"`
	Role      string    `db:"role"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toAccountModel(a *wallet.Account) *accountModel {
	return &accountModel{
		ID:        a.ID,
		TenantID:  a.TenantID,
		ParentID:  a.ParentID,
		Role:      string(a.Role),
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) *wallet.Account {
	a := &wallet.Account{
		ID:       m.ID,
		TenantID: m.TenantID,
		ParentID: m.ParentID,
		Role:     types.Role(m.Role),
		Name:     m.Name,
	}
	a.CreatedAt = m.CreatedAt
	a.UpdatedAt = m.UpdatedAt
	return a
}

// ==================== Wallet models ====================

type walletModel struct {
	ID        id.ID     `db:"id"`
	TenantID  string    `db:"tenant_id"`
	OwnerID   id.ID     `db:"owner_id"`
	Currency  string    `db:"currency"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toWalletModel(w *wallet.Wallet) *walletModel {
	return &walletModel{
		ID:        w.ID,
		TenantID:  w.TenantID,
		OwnerID:   w.OwnerID,
		Currency:  w.Currency,
		Active:    w.Active,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func fromWalletModel(m *walletModel) *wallet.Wallet {
	w := &wallet.Wallet{
		ID:       m.ID,
		TenantID: m.TenantID,
		OwnerID:  m.OwnerID,
		Currency: m.Currency,
		Active:   m.Active,
	}
	w.CreatedAt = m.CreatedAt
	w.UpdatedAt = m.UpdatedAt
	return w
}

// ==================== Transaction models ====================

type transactionModel struct {
	ID          id.ID      `db:"id"`
	WalletID    id.ID      `db:"wallet_id"`
	Seq         int64      `db:"seq"`
	Type        string     `db:"type"`
	Amount      int64      `db:"amount"`
	Currency    string     `db:"currency"`
	Status      string     `db:"status"`
	RefType     string     `db:"ref_type"`
	RefID       string     `db:"ref_id"`
	ParentTxID  id.ID      `db:"parent_tx_id"`
	Description string     `db:"description"`
	CreatedAt   time.Time  `db:"created_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

func toTransactionModel(tx *wallet.Transaction) *transactionModel {
	return &transactionModel{
		ID:          tx.ID,
		WalletID:    tx.WalletID,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Status:      string(tx.Status),
		RefType:     tx.Reference.Type,
		RefID:       tx.Reference.ID,
		ParentTxID:  tx.ParentTxID,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
		CompletedAt: tx.CompletedAt,
	}
}

func fromTransactionModel(m *transactionModel) wallet.Transaction {
	return wallet.Transaction{
		ID:          m.ID,
		WalletID:    m.WalletID,
		Type:        wallet.TxType(m.Type),
		Amount:      m.Amount,
		Currency:    m.Currency,
		Status:      wallet.TxStatus(m.Status),
		Reference:   wallet.Reference{Type: m.RefType, ID: m.RefID},
		ParentTxID:  m.ParentTxID,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		CompletedAt: m.CompletedAt,
	}
}

// ==================== Order models ====================

type orderModel struct {
	ID              id.ID      `db:"id"`
	TenantID        string     `db:"tenant_id"`
	UserID          id.ID      `db:"user_id"`
	ServiceID       id.ID      `db:"service_id"`
	ProviderID      id.ID      `db:"provider_id"`
	OrderNumber     string     `db:"order_number"`
	Status          string     `db:"status"`
	Quantity        int64      `db:"quantity"`
	InputData       jsonText   `db:"input_data"`
	OutputData      jsonText   `db:"output_data"`
	BaseCost        int64      `db:"base_cost"`
	Markup          int64      `db:"markup"`
	TotalAmount     int64      `db:"total_amount"`
	PaidAmount      int64      `db:"paid_amount"`
	Currency        string     `db:"currency"`
	ProviderOrderID string     `db:"provider_order_id"`
	ProviderStatus  string     `db:"provider_status"`
	ApprovedBy      id.ID      `db:"approved_by"`
	ApprovedAt      *time.Time `db:"approved_at"`
	CompletedAt     *time.Time `db:"completed_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func toOrderModel(o *order.Order) *orderModel {
	input, _ := json.Marshal(o.InputData)   //nolint:errcheck // map[string]any always marshals
	output, _ := json.Marshal(o.OutputData) //nolint:errcheck // map[string]any always marshals

	return &orderModel{
		ID:              o.ID,
		TenantID:        o.TenantID,
		UserID:          o.UserID,
		ServiceID:       o.ServiceID,
		ProviderID:      o.ProviderID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		Quantity:        o.Quantity,
		InputData:       input,
		OutputData:      output,
		BaseCost:        o.BaseCost.Amount,
		Markup:          o.Markup.Amount,
		TotalAmount:     o.TotalAmount.Amount,
		PaidAmount:      o.PaidAmount.Amount,
		Currency:        o.Currency,
		ProviderOrderID: o.ProviderOrderID,
		ProviderStatus:  o.ProviderStatus,
		ApprovedBy:      o.ApprovedBy,
		ApprovedAt:      o.ApprovedAt,
		CompletedAt:     o.CompletedAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func fromOrderModel(m *orderModel) (*order.Order, error) {
	o := &order.Order{
		ID:              m.ID,
		TenantID:        m.TenantID,
		UserID:          m.UserID,
		ServiceID:       m.ServiceID,
		ProviderID:      m.ProviderID,
		OrderNumber:     m.OrderNumber,
		Status:          order.Status(m.Status),
		Quantity:        m.Quantity,
		BaseCost:        types.NewMoney(m.BaseCost, m.Currency),
		Markup:          types.NewMoney(m.Markup, m.Currency),
		TotalAmount:     types.NewMoney(m.TotalAmount, m.Currency),
		PaidAmount:      types.NewMoney(m.PaidAmount, m.Currency),
		Currency:        m.Currency,
		ProviderOrderID: m.ProviderOrderID,
		ProviderStatus:  m.ProviderStatus,
		ApprovedBy:      m.ApprovedBy,
		ApprovedAt:      m.ApprovedAt,
		CompletedAt:     m.CompletedAt,
	}
	o.CreatedAt = m.CreatedAt
	o.UpdatedAt = m.UpdatedAt

	if len(m.InputData) > 0 {
		if err := json.Unmarshal(m.InputData, &o.InputData); err != nil {
			return nil, err
		}
	}
	if len(m.OutputData) > 0 {
		if err := json.Unmarshal(m.OutputData, &o.OutputData); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// ==================== Order item models ====================

type orderItemModel struct {
	ID              id.ID     `db:"id"`
	OrderID         id.ID     `db:"order_id"`
	Idx             int       `db:"idx"`
	Status          string    `db:"status"`
	InputData       jsonText  `db:"input_data"`
	OutputData      jsonText  `db:"output_data"`
	ProviderOrderID string    `db:"provider_order_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func toOrderItemModel(it *order.Item) *orderItemModel {
	input, _ := json.Marshal(it.InputData)   //nolint:errcheck // map[string]any always marshals
	output, _ := json.Marshal(it.OutputData) //nolint:errcheck // map[string]any always marshals

	return &orderItemModel{
		ID:              it.ID,
		OrderID:         it.OrderID,
		Idx:             it.Index,
		Status:          string(it.Status),
		InputData:       input,
		OutputData:      output,
		ProviderOrderID: it.ProviderOrderID,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
	}
}

func fromOrderItemModel(m *orderItemModel) (*order.Item, error) {
	it := &order.Item{
		ID:              m.ID,
		OrderID:         m.OrderID,
		Index:           m.Idx,
		Status:          order.Status(m.Status),
		ProviderOrderID: m.ProviderOrderID,
	}
	it.CreatedAt = m.CreatedAt
	it.UpdatedAt = m.UpdatedAt

	if len(m.InputData) > 0 {
		if err := json.Unmarshal(m.InputData, &it.InputData); err != nil {
			return nil, err
		}
	}
	if len(m.OutputData) > 0 {
		if err := json.Unmarshal(m.OutputData, &it.OutputData); err != nil {
			return nil, err
		}
	}
	return it, nil
}

// ==================== Service models ====================

type serviceModel struct {
	ID               id.ID     `db:"id"`
	TenantID         string    `db:"tenant_id"`
	Name             string    `db:"name"`
	InputSchema      jsonText  `db:"input_schema"`
	BaseCost         int64     `db:"base_cost"`
	Currency         string    `db:"currency"`
	AllowedRoles     jsonText  `db:"allowed_roles"`
	SupportsBulk     bool      `db:"supports_bulk"`
	RequiresApproval bool      `db:"requires_approval"`
	Active           bool      `db:"active"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func toServiceModel(s *service.Service) *serviceModel {
	inputSchema, _ := json.Marshal(s.InputSchema) //nolint:errcheck // schema always marshals
	roles, _ := json.Marshal(s.AllowedRoles)      //nolint:errcheck // slice always marshals

	return &serviceModel{
		ID:               s.ID,
		TenantID:         s.TenantID,
		Name:             s.Name,
		InputSchema:      inputSchema,
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
	s := &service.Service{
		ID:               m.ID,
		TenantID:         m.TenantID,
		Name:             m.Name,
		BaseCost:         types.NewMoney(m.BaseCost, m.Currency),
		SupportsBulk:     m.SupportsBulk,
		RequiresApproval: m.RequiresApproval,
		Active:           m.Active,
	}
	s.CreatedAt = m.CreatedAt
	s.UpdatedAt = m.UpdatedAt

	if len(m.InputSchema) > 0 {
		var sc schema.Schema
		if err := json.Unmarshal(m.InputSchema, &sc); err != nil {
			return nil, err
		}
		s.InputSchema = sc
	}
	if len(m.AllowedRoles) > 0 {
		if err := json.Unmarshal(m.AllowedRoles, &s.AllowedRoles); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ==================== Provider models ====================

type providerModel struct {
	ID            id.ID      `db:"id"`
	TenantID      string     `db:"tenant_id"`
	Name          string     `db:"name"`
	Type          string     `db:"type"`
	Endpoint      string     `db:"endpoint"`
	APIKey        string     `db:"api_key"`
	Settings      jsonText   `db:"settings"`
	StatusMapping jsonText   `db:"status_mapping"`
	LastSyncAt    *time.Time `db:"last_sync_at"`
	Active        bool       `db:"active"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func toProviderModel(cfg *provider.Config) *providerModel {
	settings, _ := json.Marshal(cfg.Settings)     //nolint:errcheck // map always marshals
	mapping, _ := json.Marshal(cfg.StatusMapping) //nolint:errcheck // map always marshals

	return &providerModel{
		ID:            cfg.ID,
		TenantID:      cfg.TenantID,
		Name:          cfg.Name,
		Type:          cfg.Type,
		Endpoint:      cfg.Endpoint,
		APIKey:        cfg.APIKey,
		Settings:      settings,
		StatusMapping: mapping,
		LastSyncAt:    cfg.LastSyncAt,
		Active:        cfg.Active,
		CreatedAt:     cfg.CreatedAt,
		UpdatedAt:     cfg.UpdatedAt,
	}
}

func fromProviderModel(m *providerModel) (*provider.Config, error) {
	cfg := &provider.Config{
		ID:         m.ID,
		TenantID:   m.TenantID,
		Name:       m.Name,
		Type:       m.Type,
		Endpoint:   m.Endpoint,
		APIKey:     m.APIKey,
		LastSyncAt: m.LastSyncAt,
		Active:     m.Active,
	}
	cfg.CreatedAt = m.CreatedAt
	cfg.UpdatedAt = m.UpdatedAt

	if len(m.Settings) > 0 {
		if err := json.Unmarshal(m.Settings, &cfg.Settings); err != nil {
			return nil, err
		}
	}
	if len(m.StatusMapping) > 0 {
		if err := json.Unmarshal(m.StatusMapping, &cfg.StatusMapping); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ==================== Pricing rule models ====================

type pricingRuleModel struct {
	ID          id.ID     `db:"id"`
	ServiceID   id.ID     `db:"service_id"`
	Role        string    `db:"role"`
	MarkupType  string    `db:"markup_type"`
	MarkupValue int64     `db:"markup_value"`
	MinProfit   *int64    `db:"min_profit"`
	MaxProfit   *int64    `db:"max_profit"`
	Tiers       jsonText  `db:"tiers"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func toPricingRuleModel(r *pricing.Rule) *pricingRuleModel {
	tiers, _ := json.Marshal(r.Tiers) //nolint:errcheck // slice always marshals

	return &pricingRuleModel{
		ID:          r.ID,
		ServiceID:   r.ServiceID,
		Role:        string(r.Role),
		MarkupType:  string(r.MarkupType),
		MarkupValue: r.MarkupValue,
		MinProfit:   r.MinProfit,
		MaxProfit:   r.MaxProfit,
		Tiers:       tiers,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromPricingRuleModel(m *pricingRuleModel) (*pricing.Rule, error) {
	r := &pricing.Rule{
		ID:          m.ID,
		ServiceID:   m.ServiceID,
		Role:        types.Role(m.Role),
		MarkupType:  pricing.MarkupType(m.MarkupType),
		MarkupValue: m.MarkupValue,
		MinProfit:   m.MinProfit,
		MaxProfit:   m.MaxProfit,
	}
	r.CreatedAt = m.CreatedAt
	r.UpdatedAt = m.UpdatedAt

	if len(m.Tiers) > 0 {
		if err := json.Unmarshal(m.Tiers, &r.Tiers); err != nil {
			return nil, err
		}
	}
	return r, nil
}
