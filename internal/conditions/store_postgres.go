package conditions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomassolanoprieto/subprice/internal/schema"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

// PostgresStore persists condition profiles in PostgreSQL.
//
// Expected table:
//
//	CREATE TABLE condition_profiles (
//	    customer_id UUID NOT NULL,
//	    sector      TEXT NOT NULL,
//	    conditions  JSONB NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (customer_id, sector)
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type conditionRow struct {
	Field      string  `json:"field"`
	Comparator string  `json:"comparator"`
	Threshold  float64 `json:"threshold"`
}

func (s *PostgresStore) Save(ctx context.Context, profile Profile) error {
	rows := make([]conditionRow, len(profile.Conditions))
	for i, c := range profile.Conditions {
		rows[i] = conditionRow{Field: c.Field, Comparator: string(c.Comparator), Threshold: c.Threshold}
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode conditions: %w", err)
	}
	query := `
		INSERT INTO condition_profiles (customer_id, sector, conditions, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id, sector) DO UPDATE SET
			conditions = EXCLUDED.conditions,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(profile.CustomerID), profile.Sector.String(), encoded, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save condition profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCustomerAndSector(ctx context.Context, customerID id.CustomerID, sector id.Sector) (Profile, error) {
	query := `
		SELECT conditions, updated_at
		FROM condition_profiles
		WHERE customer_id = $1 AND sector = $2
	`
	var (
		encoded []byte
		profile = Profile{CustomerID: customerID, Sector: sector}
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(customerID), sector.String()).
		Scan(&encoded, &profile.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return Profile{}, sentinel.ErrNotFound
		}
		return Profile{}, fmt.Errorf("find condition profile: %w", err)
	}
	var rows []conditionRow
	if err := json.Unmarshal(encoded, &rows); err != nil {
		return Profile{}, fmt.Errorf("decode conditions: %w", err)
	}
	profile.Conditions = make([]Condition, len(rows))
	for i, r := range rows {
		profile.Conditions[i] = Condition{
			Field:      r.Field,
			Comparator: schema.Comparator(r.Comparator),
			Threshold:  r.Threshold,
		}
	}
	return profile, nil
}
