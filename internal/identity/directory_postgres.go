package identity

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

// PostgresDirectory persists the anonymous mapping in PostgreSQL.
//
// Expected tables:
//
//	CREATE TABLE anonymous_identities (
//	    anonymous_id TEXT PRIMARY KEY,
//	    customer_id  UUID NOT NULL,
//	    sector       TEXT NOT NULL,
//	    UNIQUE (customer_id, sector)
//	);
//
//	CREATE TABLE customer_contacts (
//	    customer_id UUID PRIMARY KEY,
//	    full_name   TEXT NOT NULL,
//	    email       TEXT NOT NULL,
//	    phone       TEXT NOT NULL
//	);
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// RegisterContact upserts the contact record revealed on acceptance.
func (d *PostgresDirectory) RegisterContact(ctx context.Context, contact CustomerContact) error {
	query := `
		INSERT INTO customer_contacts (customer_id, full_name, email, phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone
	`
	_, err := d.db.ExecContext(ctx, query,
		uuid.UUID(contact.CustomerID), contact.FullName, contact.Email, contact.Phone,
	)
	if err != nil {
		return fmt.Errorf("register contact: %w", err)
	}
	return nil
}

func (d *PostgresDirectory) Assign(ctx context.Context, customerID id.CustomerID, sector id.Sector) (id.AnonymousID, error) {
	// Insert-or-fetch in one round trip; the DO UPDATE is a no-op that lets
	// RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO anonymous_identities (anonymous_id, customer_id, sector)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, sector) DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING anonymous_id
	`
	var anonymous string
	err := d.db.QueryRowContext(ctx, query,
		string(NewAnonymousID()), uuid.UUID(customerID), sector.String(),
	).Scan(&anonymous)
	if err != nil {
		return "", fmt.Errorf("assign anonymous id: %w", err)
	}
	return id.AnonymousID(anonymous), nil
}

func (d *PostgresDirectory) CustomerFor(ctx context.Context, anonymousID id.AnonymousID) (id.CustomerID, error) {
	var customerID uuid.UUID
	err := d.db.QueryRowContext(ctx,
		`SELECT customer_id FROM anonymous_identities WHERE anonymous_id = $1`,
		string(anonymousID),
	).Scan(&customerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return id.CustomerID{}, sentinel.ErrNotFound
		}
		return id.CustomerID{}, fmt.Errorf("resolve anonymous id: %w", err)
	}
	return id.CustomerID(customerID), nil
}

func (d *PostgresDirectory) Resolve(ctx context.Context, anonymousID id.AnonymousID) (CustomerContact, error) {
	query := `
		SELECT c.customer_id, c.full_name, c.email, c.phone
		FROM anonymous_identities ai
		JOIN customer_contacts c ON c.customer_id = ai.customer_id
		WHERE ai.anonymous_id = $1
	`
	var (
		customerID uuid.UUID
		contact    CustomerContact
	)
	err := d.db.QueryRowContext(ctx, query, string(anonymousID)).
		Scan(&customerID, &contact.FullName, &contact.Email, &contact.Phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return CustomerContact{}, sentinel.ErrNotFound
		}
		return CustomerContact{}, fmt.Errorf("resolve contact: %w", err)
	}
	contact.CustomerID = id.CustomerID(customerID)
	return contact, nil
}
