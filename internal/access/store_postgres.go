package access

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

// PostgresStore persists access policies in PostgreSQL.
//
// Expected table:
//
//	CREATE TABLE access_policies (
//	    provider_id     UUID PRIMARY KEY,
//	    sectors         TEXT[] NOT NULL,
//	    entitled_fields JSONB NOT NULL,
//	    regions         TEXT[] NOT NULL,
//	    valid_from      TIMESTAMPTZ NOT NULL,
//	    valid_until     TIMESTAMPTZ NOT NULL,
//	    updated_at      TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, policy Policy) error {
	entitled, err := json.Marshal(policy.EntitledFields)
	if err != nil {
		return fmt.Errorf("encode entitled fields: %w", err)
	}
	sectors := make([]string, len(policy.Sectors))
	for i, sector := range policy.Sectors {
		sectors[i] = sector.String()
	}
	query := `
		INSERT INTO access_policies (
			provider_id, sectors, entitled_fields, regions,
			valid_from, valid_until, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider_id) DO UPDATE SET
			sectors = EXCLUDED.sectors,
			entitled_fields = EXCLUDED.entitled_fields,
			regions = EXCLUDED.regions,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(policy.ProviderID), pq.Array(sectors), entitled, pq.Array(policy.Regions),
		policy.ValidFrom, policy.ValidUntil, policy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save access policy: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByProvider(ctx context.Context, providerID id.ProviderID) (Policy, error) {
	query := `
		SELECT provider_id, sectors, entitled_fields, regions,
		       valid_from, valid_until, updated_at
		FROM access_policies
		WHERE provider_id = $1
	`
	var (
		policy   Policy
		provider uuid.UUID
		sectors  []string
		entitled []byte
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(providerID)).Scan(
		&provider, pq.Array(&sectors), &entitled, pq.Array(&policy.Regions),
		&policy.ValidFrom, &policy.ValidUntil, &policy.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Policy{}, sentinel.ErrNotFound
		}
		return Policy{}, fmt.Errorf("find access policy: %w", err)
	}
	policy.ProviderID = id.ProviderID(provider)
	policy.Sectors = make([]id.Sector, len(sectors))
	for i, sector := range sectors {
		policy.Sectors[i] = id.Sector(sector)
	}
	if err := json.Unmarshal(entitled, &policy.EntitledFields); err != nil {
		return Policy{}, fmt.Errorf("decode entitled fields: %w", err)
	}
	return policy, nil
}
