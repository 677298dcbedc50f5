package postgres

import (
	"context"
	"fmt"
)

// schema holds the repository DDL. The seq column preserves insertion order
// for the secondary sort key; the check constraint enforces exactly one
// account reference per row at the storage boundary as well.
const schema = `
CREATE TABLE IF NOT EXISTS client_profiles (
	id               TEXT PRIMARY KEY,
	level            TEXT NOT NULL,
	organization_id  TEXT,
	parent_client_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_profiles_parent ON client_profiles (parent_client_id);
CREATE INDEX IF NOT EXISTS idx_profiles_org ON client_profiles (organization_id);

CREATE TABLE IF NOT EXISTS transactions (
	id                TEXT PRIMARY KEY,
	seq               BIGINT GENERATED ALWAYS AS IDENTITY,
	transaction_date  TIMESTAMPTZ NOT NULL,
	trade_date        TIMESTAMPTZ,
	settlement_date   TIMESTAMPTZ,
	transaction_type  TEXT NOT NULL,
	security_id       TEXT,
	quantity          NUMERIC,
	price             NUMERIC,
	amount            NUMERIC NOT NULL,
	fee               NUMERIC,
	tax               NUMERIC,
	description       TEXT NOT NULL DEFAULT '',
	reference         TEXT NOT NULL DEFAULT '',
	entry_status      TEXT NOT NULL DEFAULT 'DRAFT',
	master_account_id TEXT,
	client_account_id TEXT,
	client_profile_id TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT transactions_one_account_ref
		CHECK ((master_account_id IS NULL) <> (client_account_id IS NULL)),
	CONSTRAINT transactions_entry_status
		CHECK (entry_status IN ('DRAFT', 'POSTED'))
);

CREATE INDEX IF NOT EXISTS idx_transactions_sort ON transactions (transaction_date DESC, seq DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_profile ON transactions (client_profile_id);
CREATE INDEX IF NOT EXISTS idx_transactions_natural_key
	ON transactions (transaction_date, transaction_type, amount, master_account_id, client_account_id, security_id);
`

// ensureSchema creates tables and indexes if they do not exist.
func (m *Manager) ensureSchema(ctx context.Context) error {
	if _, err := m.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
