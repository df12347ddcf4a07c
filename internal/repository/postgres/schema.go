package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"estatehub-backend/internal/logger"
)

// Schema is the DDL for the directory tables. Every mutable table carries a
// row_version column used by conditional updates.
const Schema = `
CREATE TABLE IF NOT EXISTS persons (
	id                  TEXT PRIMARY KEY,
	role                TEXT NOT NULL CHECK (role IN ('MANAGER', 'TENANT')),
	name                TEXT NOT NULL DEFAULT '',
	email               TEXT NOT NULL DEFAULT '',
	estate_id           TEXT,
	verification_status TEXT NOT NULL DEFAULT 'UNSET',
	assigned_unit_id    TEXT UNIQUE,
	requested_at        TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	row_version         BIGINT NOT NULL DEFAULT 1,
	CHECK ((verification_status = 'VERIFIED') = (assigned_unit_id IS NOT NULL) OR role = 'MANAGER')
);

CREATE TABLE IF NOT EXISTS estates (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	manager_id TEXT NOT NULL UNIQUE REFERENCES persons(id),
	join_code  TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS units (
	id            TEXT PRIMARY KEY,
	estate_id     TEXT NOT NULL REFERENCES estates(id),
	label         TEXT NOT NULL,
	bedroom_count INTEGER NOT NULL DEFAULT 0,
	kind          TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'VACANT',
	occupant_id   TEXT UNIQUE REFERENCES persons(id),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	row_version   BIGINT NOT NULL DEFAULT 1,
	CHECK ((status = 'OCCUPIED') = (occupant_id IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_units_estate_status ON units (estate_id, status);
CREATE INDEX IF NOT EXISTS idx_persons_pending ON persons (estate_id) WHERE verification_status = 'PENDING';

CREATE TABLE IF NOT EXISTS payments (
	id           TEXT PRIMARY KEY,
	estate_id    TEXT NOT NULL REFERENCES estates(id),
	tenant_id    TEXT NOT NULL REFERENCES persons(id),
	amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
	proof_ref    TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'PENDING',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	decided_at   TIMESTAMPTZ,
	decided_by   TEXT,
	row_version  BIGINT NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_payments_estate ON payments (estate_id, status);

CREATE TABLE IF NOT EXISTS tickets (
	id              TEXT PRIMARY KEY,
	estate_id       TEXT NOT NULL REFERENCES estates(id),
	tenant_id       TEXT NOT NULL REFERENCES persons(id),
	unit_id         TEXT NOT NULL REFERENCES units(id),
	category        TEXT NOT NULL,
	priority        TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'PENDING',
	description     TEXT NOT NULL,
	attachment_refs TEXT[] NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	resolved_at     TIMESTAMPTZ,
	row_version     BIGINT NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_tickets_estate ON tickets (estate_id, status);

CREATE TABLE IF NOT EXISTS invoices (
	id           TEXT PRIMARY KEY,
	estate_id    TEXT NOT NULL REFERENCES estates(id),
	tenant_id    TEXT NOT NULL REFERENCES persons(id),
	amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
	paid_cents   BIGINT NOT NULL DEFAULT 0,
	description  TEXT NOT NULL DEFAULT '',
	due_date     DATE NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	row_version  BIGINT NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_invoices_tenant_open ON invoices (tenant_id, due_date) WHERE paid_cents < amount_cents;
`

// Migrate applies Schema. All statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("migrate", "schema")
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("Database schema applied")
	return nil
}
