package postgres

// migration is one named, idempotent schema step. Steps run in order and
// every statement must be safe to re-run.
type migration struct {
	name string
	stmt string
}

var migrations = []migration{
	{
		name: "001_accounts",
		stmt: `
CREATE TABLE IF NOT EXISTS vendra_accounts (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	parent_id  TEXT,
	role       TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_vendra_accounts_tenant ON vendra_accounts (tenant_id);
CREATE INDEX IF NOT EXISTS idx_vendra_accounts_parent ON vendra_accounts (parent_id);
`,
	},
	{
		name: "002_wallets",
		stmt: `
CREATE TABLE IF NOT EXISTS vendra_wallets (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	owner_id   TEXT NOT NULL UNIQUE,
	currency   TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_vendra_wallets_tenant ON vendra_wallets (tenant_id);
`,
	},
	{
		name: "003_transactions",
		stmt: `
CREATE TABLE IF NOT EXISTS vendra_transactions (
	id           TEXT PRIMARY KEY,
	wallet_id    TEXT NOT NULL REFERENCES vendra_wallets (id),
	seq          BIGSERIAL,
	type         TEXT NOT NULL,
	amount       BIGINT NOT NULL CHECK (amount > 0),
	currency     TEXT NOT NULL,
	status       TEXT NOT NULL,
	ref_type     TEXT NOT NULL DEFAULT '',
	ref_id       TEXT NOT NULL DEFAULT '',
	parent_tx_id TEXT,
	description  TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_vendra_transactions_wallet_seq ON vendra_transactions (wallet_id, seq);
CREATE INDEX IF NOT EXISTS idx_vendra_transactions_ref ON vendra_transactions (ref_id);
`,
	},
	{
		name: "004_orders",
		stmt: `
CREATE TABLE IF NOT EXISTS vendra_orders (
	id                TEXT PRIMARY KEY,
	tenant_id         TEXT NOT NULL,
	user_id           TEXT NOT NULL,
	service_id        TEXT NOT NULL,
	provider_id       TEXT NOT NULL,
	order_number      TEXT NOT NULL,
	status            TEXT NOT NULL,
	quantity          BIGINT NOT NULL,
	input_data        JSONB,
	output_data       JSONB,
	base_cost         BIGINT NOT NULL DEFAULT 0,
	markup            BIGINT NOT NULL DEFAULT 0,
	total_amount      BIGINT NOT NULL DEFAULT 0,
	paid_amount       BIGINT NOT NULL DEFAULT 0,
	currency          TEXT NOT NULL,
	provider_order_id TEXT NOT NULL DEFAULT '',
	provider_status   TEXT NOT NULL DEFAULT '',
	approved_by       TEXT,
	approved_at       TIMESTAMPTZ,
	completed_at      TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (tenant_id, order_number)
);
CREATE INDEX IF NOT EXISTS idx_vendra_orders_tenant ON vendra_orders (tenant_id);
CREATE INDEX IF NOT EXISTS idx_vendra_orders_status ON vendra_orders (status);
CREATE INDEX IF NOT EXISTS idx_vendra_orders_user ON vendra_orders (user_id);
`,
	},
	{
		name: "005_order_items",
		stmt: `
CREATE TABLE IF NOT EXISTS vendra_order_items (
	id                TEXT PRIMARY KEY,
	order_id          TEXT NOT NULL REFERENCES vendra_orders (id),
	idx               INTEGER NOT NULL,
	status            TEXT NOT NULL,
	input_data        JSONB,
	output_data       JSONB,
	provider_order_id TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_vendra_order_items_order ON vendra_order_items (order_id, idx);
`,
	},
	{
		name: "006_services",
		stmt: `
CREATE TABLE IF NOT EXISTS vendra_services (
	id                TEXT PRIMARY KEY,
	tenant_id         TEXT NOT NULL,
	name              TEXT NOT NULL,
	input_schema      JSONB,
	base_cost         BIGINT NOT NULL DEFAULT 0,
	currency          TEXT NOT NULL,
	allowed_roles     JSONB,
	supports_bulk     BOOLEAN NOT NULL DEFAULT FALSE,
	requires_approval BOOLEAN NOT NULL DEFAULT FALSE,
	active            BOOLEAN NOT NULL DEFAULT TRUE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_vendra_services_tenant ON vendra_services (tenant_id);
`,
	},
	{
		name: "007_providers",
		stmt: `
CREATE TABLE IF NOT EXISTS vendra_providers (
	id             TEXT PRIMARY KEY,
	tenant_id      TEXT NOT NULL,
	name           TEXT NOT NULL,
	type           TEXT NOT NULL,
	endpoint       TEXT NOT NULL DEFAULT '',
	api_key        TEXT NOT NULL DEFAULT '',
	settings       JSONB,
	status_mapping JSONB,
	last_sync_at   TIMESTAMPTZ,
	active         BOOLEAN NOT NULL DEFAULT TRUE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_vendra_providers_tenant ON vendra_providers (tenant_id);
`,
	},
	{
		name: "008_pricing_rules",
		stmt: `
CREATE TABLE IF NOT EXISTS vendra_pricing_rules (
	id           TEXT PRIMARY KEY,
	service_id   TEXT NOT NULL REFERENCES vendra_services (id),
	role         TEXT NOT NULL,
	markup_type  TEXT NOT NULL,
	markup_value BIGINT NOT NULL DEFAULT 0,
	min_profit   BIGINT,
	max_profit   BIGINT,
	tiers        JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_vendra_pricing_rules_service ON vendra_pricing_rules (service_id, role);
`,
	},
}
