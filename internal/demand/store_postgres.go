package demand

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

// PostgresStore persists demand records in PostgreSQL.
//
// Expected table:
//
//	CREATE TABLE demand_records (
//	    anonymous_id            TEXT PRIMARY KEY,
//	    sector                  TEXT NOT NULL,
//	    region                  TEXT NOT NULL,
//	    current_provider_id     TEXT NOT NULL,
//	    desired_savings_percent DOUBLE PRECISION NOT NULL,
//	    max_contract_months     DOUBLE PRECISION NOT NULL,
//	    last_bill_amount        DOUBLE PRECISION NOT NULL,
//	    field_values            JSONB NOT NULL,
//	    generated_at            TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed demand record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, record Record) error {
	values, err := json.Marshal(record.Values)
	if err != nil {
		return fmt.Errorf("encode field values: %w", err)
	}
	query := `
		INSERT INTO demand_records (
			anonymous_id, sector, region, current_provider_id,
			desired_savings_percent, max_contract_months, last_bill_amount,
			field_values, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (anonymous_id) DO UPDATE SET
			sector = EXCLUDED.sector,
			region = EXCLUDED.region,
			current_provider_id = EXCLUDED.current_provider_id,
			desired_savings_percent = EXCLUDED.desired_savings_percent,
			max_contract_months = EXCLUDED.max_contract_months,
			last_bill_amount = EXCLUDED.last_bill_amount,
			field_values = EXCLUDED.field_values,
			generated_at = EXCLUDED.generated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		string(record.AnonymousID), record.Sector.String(), record.Region, record.CurrentProviderID,
		record.DesiredSavingsPercent, record.MaxContractMonths, record.LastBillAmount,
		values, record.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert demand record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByAnonymousID(ctx context.Context, anonymousID id.AnonymousID) (Record, error) {
	query := `
		SELECT anonymous_id, sector, region, current_provider_id,
		       desired_savings_percent, max_contract_months, last_bill_amount,
		       field_values, generated_at
		FROM demand_records
		WHERE anonymous_id = $1
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, string(anonymousID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("find demand record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListBySector(ctx context.Context, sector id.Sector) ([]Record, error) {
	query := `
		SELECT anonymous_id, sector, region, current_provider_id,
		       desired_savings_percent, max_contract_months, last_bill_amount,
		       field_values, generated_at
		FROM demand_records
		WHERE sector = $1
		ORDER BY anonymous_id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, sector.String())
	if err != nil {
		return nil, fmt.Errorf("list demand records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan demand record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate demand records: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, anonymousID id.AnonymousID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM demand_records WHERE anonymous_id = $1`, string(anonymousID))
	if err != nil {
		return fmt.Errorf("delete demand record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete demand record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record    Record
		anonymous string
		sector    string
		values    []byte
	)
	err := row.Scan(
		&anonymous, &sector, &record.Region, &record.CurrentProviderID,
		&record.DesiredSavingsPercent, &record.MaxContractMonths, &record.LastBillAmount,
		&values, &record.GeneratedAt,
	)
	if err != nil {
		return Record{}, err
	}
	record.AnonymousID = id.AnonymousID(anonymous)
	record.Sector = id.Sector(sector)
	if err := json.Unmarshal(values, &record.Values); err != nil {
		return Record{}, fmt.Errorf("decode field values: %w", err)
	}
	return record, nil
}
