package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

// PostgresStore persists declared profiles in PostgreSQL.
//
// Expected table:
//
//	CREATE TABLE customer_profiles (
//	    customer_id             UUID NOT NULL,
//	    sector                  TEXT NOT NULL,
//	    region                  TEXT NOT NULL,
//	    current_provider_id     TEXT NOT NULL,
//	    desired_savings_percent DOUBLE PRECISION NOT NULL,
//	    max_contract_months     DOUBLE PRECISION NOT NULL,
//	    last_bill_amount        DOUBLE PRECISION NOT NULL,
//	    field_values            JSONB NOT NULL,
//	    updated_at              TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (customer_id, sector)
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, profile Profile) error {
	values, err := json.Marshal(profile.Attributes.Values)
	if err != nil {
		return fmt.Errorf("encode field values: %w", err)
	}
	query := `
		INSERT INTO customer_profiles (
			customer_id, sector, region, current_provider_id,
			desired_savings_percent, max_contract_months, last_bill_amount,
			field_values, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (customer_id, sector) DO UPDATE SET
			region = EXCLUDED.region,
			current_provider_id = EXCLUDED.current_provider_id,
			desired_savings_percent = EXCLUDED.desired_savings_percent,
			max_contract_months = EXCLUDED.max_contract_months,
			last_bill_amount = EXCLUDED.last_bill_amount,
			field_values = EXCLUDED.field_values,
			updated_at = EXCLUDED.updated_at
	`
	attrs := profile.Attributes
	_, err = s.db.ExecContext(ctx, query,
		profile.CustomerID.String(), profile.Sector.String(), attrs.Region, attrs.CurrentProviderID,
		attrs.DesiredSavingsPercent, attrs.MaxContractMonths, attrs.LastBillAmount,
		values, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert customer profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCustomerAndSector(ctx context.Context, customerID id.CustomerID, sector id.Sector) (Profile, error) {
	query := `
		SELECT region, current_provider_id, desired_savings_percent,
		       max_contract_months, last_bill_amount, field_values, updated_at
		FROM customer_profiles
		WHERE customer_id = $1 AND sector = $2
	`
	profile := Profile{CustomerID: customerID, Sector: sector}
	var values []byte
	err := s.db.QueryRowContext(ctx, query, customerID.String(), sector.String()).Scan(
		&profile.Attributes.Region, &profile.Attributes.CurrentProviderID,
		&profile.Attributes.DesiredSavingsPercent, &profile.Attributes.MaxContractMonths,
		&profile.Attributes.LastBillAmount, &values, &profile.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Profile{}, sentinel.ErrNotFound
		}
		return Profile{}, fmt.Errorf("find customer profile: %w", err)
	}
	if err := json.Unmarshal(values, &profile.Attributes.Values); err != nil {
		return Profile{}, fmt.Errorf("decode field values: %w", err)
	}
	return profile, nil
}

func (s *PostgresStore) Delete(ctx context.Context, customerID id.CustomerID, sector id.Sector) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM customer_profiles WHERE customer_id = $1 AND sector = $2`,
		customerID.String(), sector.String(),
	)
	if err != nil {
		return fmt.Errorf("delete customer profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete customer profile: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
