// Package sqlite implements ports.BookingRepository on database/sql with the
// sqlite3 driver. The caller owns the *sql.DB lifecycle.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/farehop/farehop/pkg/domain"
)

// Repository persists finalized bookings and their payments.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an opened database handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InitSchema creates the tables if they do not exist, for migration-free
// setups.
func (r *Repository) InitSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS bookings (
			ref           TEXT PRIMARY KEY,
			subject_id    TEXT NOT NULL,
			flight_id     TEXT NOT NULL,
			carrier       TEXT NOT NULL,
			flight_number TEXT NOT NULL,
			origin        TEXT NOT NULL,
			destination   TEXT NOT NULL,
			depart_at     TIMESTAMP NOT NULL,
			contact_name  TEXT NOT NULL,
			contact_email TEXT NOT NULL,
			amount        INTEGER NOT NULL,
			currency      TEXT NOT NULL,
			status        TEXT NOT NULL,
			created_at    TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS payments (
			id          TEXT PRIMARY KEY,
			booking_ref TEXT NOT NULL REFERENCES bookings(ref),
			session_id  TEXT NOT NULL,
			status      TEXT NOT NULL,
			amount      INTEGER NOT NULL,
			currency    TEXT NOT NULL,
			method      TEXT,
			created_at  TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_payments_booking ON payments(booking_ref);
	`
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Commit writes the booking and its payment in one transaction. Either both
// rows land or neither does.
func (r *Repository) Commit(ctx context.Context, b *domain.Booking, p *domain.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (ref, subject_id, flight_id, carrier, flight_number,
			origin, destination, depart_at, contact_name, contact_email,
			amount, currency, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Ref, b.SubjectID, b.FlightID, b.Carrier, b.FlightNumber,
		b.Origin, b.Destination, b.DepartAt.UTC(), b.ContactName, b.ContactEmail,
		b.Amount.Amount, b.Amount.Currency, string(b.Status), b.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, booking_ref, session_id, status, amount, currency, method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.BookingRef, p.SessionID, string(p.Status),
		p.Amount.Amount, p.Amount.Currency, p.Method, p.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking transaction: %w", err)
	}
	return nil
}

// FindBooking returns the booking with the given reference, or
// domain.ErrNotFound.
func (r *Repository) FindBooking(ctx context.Context, ref string) (*domain.Booking, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT ref, subject_id, flight_id, carrier, flight_number,
			origin, destination, depart_at, contact_name, contact_email,
			amount, currency, status, created_at
		FROM bookings WHERE ref = ?`, ref)

	var b domain.Booking
	var status string
	var departAt, createdAt time.Time
	err := row.Scan(&b.Ref, &b.SubjectID, &b.FlightID, &b.Carrier, &b.FlightNumber,
		&b.Origin, &b.Destination, &departAt, &b.ContactName, &b.ContactEmail,
		&b.Amount.Amount, &b.Amount.Currency, &status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: booking %q", domain.ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	b.Status = domain.BookingStatus(status)
	b.DepartAt = departAt
	b.CreatedAt = createdAt
	return &b, nil
}

// FindPayments returns the payments of a booking, oldest first.
func (r *Repository) FindPayments(ctx context.Context, bookingRef string) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, booking_ref, session_id, status, amount, currency, method, created_at
		FROM payments WHERE booking_ref = ? ORDER BY created_at`, bookingRef)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		var p domain.Payment
		var status string
		var method sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&p.ID, &p.BookingRef, &p.SessionID, &status,
			&p.Amount.Amount, &p.Amount.Currency, &method, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Status = domain.PaymentStatus(status)
		p.Method = method.String
		p.CreatedAt = createdAt
		out = append(out, p)
	}
	return out, rows.Err()
}

// Ping checks the connection, for health endpoints.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
