package offer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

// PostgresStore persists offers in PostgreSQL.
//
// Expected table:
//
//	CREATE TABLE offers (
//	    offer_id       UUID PRIMARY KEY,
//	    provider_id    UUID NOT NULL,
//	    anonymous_id   TEXT NOT NULL,
//	    sector         TEXT NOT NULL,
//	    proposed       JSONB NOT NULL,
//	    monthly_amount DOUBLE PRECISION NOT NULL,
//	    status         TEXT NOT NULL,
//	    failed_fields  TEXT[] NOT NULL DEFAULT '{}',
//	    submitted_at   TIMESTAMPTZ NOT NULL,
//	    evaluated_at   TIMESTAMPTZ NOT NULL,
//	    expires_at     TIMESTAMPTZ NOT NULL,
//	    decided_at     TIMESTAMPTZ,
//	    version        BIGINT NOT NULL DEFAULT 0
//	);
//	CREATE INDEX offers_provider_idx ON offers (provider_id);
//	CREATE INDEX offers_anonymous_idx ON offers (anonymous_id);
//	CREATE INDEX offers_expiry_idx ON offers (expires_at) WHERE status = 'qualified';
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed offer store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const offerColumns = `offer_id, provider_id, anonymous_id, sector, proposed, monthly_amount,
	       status, failed_fields, submitted_at, evaluated_at, expires_at, decided_at, version`

func (s *PostgresStore) Create(ctx context.Context, o Offer) error {
	proposed, err := json.Marshal(o.Proposed)
	if err != nil {
		return fmt.Errorf("encode proposed terms: %w", err)
	}
	query := `
		INSERT INTO offers (
			offer_id, provider_id, anonymous_id, sector, proposed, monthly_amount,
			status, failed_fields, submitted_at, evaluated_at, expires_at, decided_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (offer_id) DO NOTHING
	`
	failed := o.FailedFields
	if failed == nil {
		failed = []string{}
	}
	result, err := s.db.ExecContext(ctx, query,
		o.ID.String(), o.ProviderID.String(), string(o.AnonymousID), o.Sector.String(),
		proposed, o.MonthlyAmount, string(o.Status), pq.Array(failed),
		o.SubmittedAt, o.EvaluatedAt, o.ExpiresAt, o.DecidedAt, o.Version,
	)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, offerID id.OfferID) (Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE offer_id = $1`
	o, err := scanOffer(s.db.QueryRowContext(ctx, query, offerID.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return Offer{}, sentinel.ErrNotFound
		}
		return Offer{}, fmt.Errorf("find offer: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) ListByProvider(ctx context.Context, providerID id.ProviderID) ([]Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE provider_id = $1 ORDER BY submitted_at ASC`
	return s.list(ctx, query, providerID.String())
}

func (s *PostgresStore) ListByAnonymousID(ctx context.Context, anonymousID id.AnonymousID) ([]Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE anonymous_id = $1 ORDER BY submitted_at ASC`
	return s.list(ctx, query, string(anonymousID))
}

// TransitionStatus applies the status change only when both the expected
// status and version still hold, so a lost race surfaces as ErrConflict
// instead of silently overwriting a concurrent decision.
func (s *PostgresStore) TransitionStatus(ctx context.Context, offerID id.OfferID, from, to Status, version int64, at time.Time) (Offer, error) {
	query := `
		UPDATE offers
		SET status = $1, version = version + 1, decided_at = $2
		WHERE offer_id = $3 AND status = $4 AND version = $5
		RETURNING ` + offerColumns
	o, err := scanOffer(s.db.QueryRowContext(ctx, query,
		string(to), at, offerID.String(), string(from), version,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return s.classifyTransitionMiss(ctx, offerID)
		}
		return Offer{}, fmt.Errorf("transition offer: %w", err)
	}
	return o, nil
}

// classifyTransitionMiss distinguishes a missing offer from a lost race.
func (s *PostgresStore) classifyTransitionMiss(ctx context.Context, offerID id.OfferID) (Offer, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM offers WHERE offer_id = $1)`, offerID.String()).Scan(&exists)
	if err != nil {
		return Offer{}, fmt.Errorf("transition offer: %w", err)
	}
	if !exists {
		return Offer{}, sentinel.ErrNotFound
	}
	return Offer{}, sentinel.ErrConflict
}

func (s *PostgresStore) ListQualifiedBefore(ctx context.Context, cutoff time.Time) ([]Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers
		WHERE status = 'qualified' AND expires_at <= $1
		ORDER BY submitted_at ASC`
	return s.list(ctx, query, cutoff)
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]Offer, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var out []Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offers: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(row rowScanner) (Offer, error) {
	var (
		o           Offer
		offerID     string
		providerID  string
		anonymousID string
		sector      string
		proposed    []byte
		status      string
		failed      pq.StringArray
		decidedAt   sql.NullTime
	)
	err := row.Scan(
		&offerID, &providerID, &anonymousID, &sector, &proposed, &o.MonthlyAmount, &status,
		&failed, &o.SubmittedAt, &o.EvaluatedAt, &o.ExpiresAt, &decidedAt, &o.Version,
	)
	if err != nil {
		return Offer{}, err
	}
	parsedOffer, err := id.ParseOfferID(offerID)
	if err != nil {
		return Offer{}, fmt.Errorf("decode offer id: %w", err)
	}
	parsedProvider, err := id.ParseProviderID(providerID)
	if err != nil {
		return Offer{}, fmt.Errorf("decode provider id: %w", err)
	}
	o.ID = parsedOffer
	o.ProviderID = parsedProvider
	o.AnonymousID = id.AnonymousID(anonymousID)
	o.Sector = id.Sector(sector)
	o.Status = Status(status)
	o.FailedFields = []string(failed)
	if decidedAt.Valid {
		t := decidedAt.Time
		o.DecidedAt = &t
	}
	if err := json.Unmarshal(proposed, &o.Proposed); err != nil {
		return Offer{}, fmt.Errorf("decode proposed terms: %w", err)
	}
	return o, nil
}
