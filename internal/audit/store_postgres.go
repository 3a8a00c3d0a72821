package audit

import (
	"context"
	"database/sql"
	"fmt"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL.
//
// Expected table:
//
//	CREATE TABLE audit_events (
//	    id         BIGSERIAL PRIMARY KEY,
//	    occurred_at TIMESTAMPTZ NOT NULL,
//	    action     TEXT NOT NULL,
//	    actor_role TEXT NOT NULL,
//	    actor_id   TEXT NOT NULL,
//	    sector     TEXT NOT NULL,
//	    subject    TEXT NOT NULL,
//	    detail     TEXT NOT NULL DEFAULT ''
//	);
//	CREATE INDEX audit_events_subject_idx ON audit_events (subject);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (occurred_at, action, actor_role, actor_id, sector, subject, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp, string(event.Action), event.ActorRole, event.ActorID,
		event.Sector.String(), event.Subject, event.Detail,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	query := `
		SELECT occurred_at, action, actor_role, actor_id, sector, subject, detail
		FROM audit_events
		WHERE subject = $1
		ORDER BY occurred_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var event Event
		var action, sector string
		if err := rows.Scan(&event.Timestamp, &action, &event.ActorRole,
			&event.ActorID, &sector, &event.Subject, &event.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		event.Sector = id.Sector(sector)
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
