//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema mirrors the table layouts documented on each Postgres store.
const schema = `
CREATE TABLE IF NOT EXISTS access_policies (
    provider_id     UUID PRIMARY KEY,
    sectors         TEXT[] NOT NULL,
    entitled_fields JSONB NOT NULL,
    regions         TEXT[] NOT NULL,
    valid_from      TIMESTAMPTZ NOT NULL,
    valid_until     TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS demand_records (
    anonymous_id            TEXT PRIMARY KEY,
    sector                  TEXT NOT NULL,
    region                  TEXT NOT NULL,
    current_provider_id     TEXT NOT NULL,
    desired_savings_percent DOUBLE PRECISION NOT NULL,
    max_contract_months     DOUBLE PRECISION NOT NULL,
    last_bill_amount        DOUBLE PRECISION NOT NULL,
    field_values            JSONB NOT NULL,
    generated_at            TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS condition_profiles (
    customer_id UUID NOT NULL,
    sector      TEXT NOT NULL,
    conditions  JSONB NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (customer_id, sector)
);

CREATE TABLE IF NOT EXISTS customer_profiles (
    customer_id             UUID NOT NULL,
    sector                  TEXT NOT NULL,
    region                  TEXT NOT NULL,
    current_provider_id     TEXT NOT NULL,
    desired_savings_percent DOUBLE PRECISION NOT NULL,
    max_contract_months     DOUBLE PRECISION NOT NULL,
    last_bill_amount        DOUBLE PRECISION NOT NULL,
    field_values            JSONB NOT NULL,
    updated_at              TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (customer_id, sector)
);

CREATE TABLE IF NOT EXISTS offers (
    offer_id       UUID PRIMARY KEY,
    provider_id    UUID NOT NULL,
    anonymous_id   TEXT NOT NULL,
    sector         TEXT NOT NULL,
    proposed       JSONB NOT NULL,
    monthly_amount DOUBLE PRECISION NOT NULL,
    status         TEXT NOT NULL,
    failed_fields  TEXT[] NOT NULL DEFAULT '{}',
    submitted_at   TIMESTAMPTZ NOT NULL,
    evaluated_at   TIMESTAMPTZ NOT NULL,
    expires_at     TIMESTAMPTZ NOT NULL,
    decided_at     TIMESTAMPTZ,
    version        BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS offers_provider_idx ON offers (provider_id);
CREATE INDEX IF NOT EXISTS offers_anonymous_idx ON offers (anonymous_id);
CREATE INDEX IF NOT EXISTS offers_expiry_idx ON offers (expires_at) WHERE status = 'qualified';

CREATE TABLE IF NOT EXISTS anonymous_identities (
    anonymous_id TEXT PRIMARY KEY,
    customer_id  UUID NOT NULL,
    sector       TEXT NOT NULL,
    UNIQUE (customer_id, sector)
);

CREATE TABLE IF NOT EXISTS customer_contacts (
    customer_id UUID PRIMARY KEY,
    full_name   TEXT NOT NULL,
    email       TEXT NOT NULL,
    phone       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
    id          BIGSERIAL PRIMARY KEY,
    occurred_at TIMESTAMPTZ NOT NULL,
    action      TEXT NOT NULL,
    actor_role  TEXT NOT NULL,
    actor_id    TEXT NOT NULL,
    sector      TEXT NOT NULL,
    subject     TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_subject_idx ON audit_events (subject);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// marketplace schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
// The container and connection are torn down with the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("subprice"),
		tcpostgres.WithUsername("subprice"),
		tcpostgres.WithPassword("subprice"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, URL: url, DB: db}
}

// TruncateTables empties the named tables. Use between tests to ensure
// isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if _, err := p.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
