// README: Reservation store backed by PostgreSQL; the price snapshot lives in a JSONB column.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autorent/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *Reservation) error {
	snapshot, err := json.Marshal(r.PriceSnapshot)
	if err != nil {
		return fmt.Errorf("reservation: encode snapshot: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO reservations (
			id, vehicle_id, customer_email, start_date, num_days, extra_miles, tax_zip,
			status, status_version, total_with_tax, deposit, price_snapshot, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10::text::numeric, $11::text::numeric, $12, $13
		)`,
		string(r.ID),
		r.VehicleID,
		r.CustomerEmail,
		r.StartDate,
		r.NumDays,
		r.ExtraMiles,
		r.TaxZip,
		string(r.Status),
		r.StatusVersion,
		r.TotalWithTax.String(),
		r.Deposit.String(),
		snapshot,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("reservation: create: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Reservation, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, vehicle_id, customer_email, start_date, num_days, extra_miles, tax_zip,
		       status, status_version, total_with_tax::text, deposit::text, price_snapshot,
		       created_at, confirmed_at, completed_at, cancelled_at, cancel_reason
		FROM reservations
		WHERE id = $1`, string(id),
	)

	var r Reservation
	var rid, status, total, deposit string
	var snapshot []byte
	err := row.Scan(
		&rid, &r.VehicleID, &r.CustomerEmail, &r.StartDate, &r.NumDays, &r.ExtraMiles, &r.TaxZip,
		&status, &r.StatusVersion, &total, &deposit, &snapshot,
		&r.CreatedAt, &r.ConfirmedAt, &r.CompletedAt, &r.CancelledAt, &r.CancelReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reservation: get: %w", err)
	}
	r.ID = types.ID(rid)
	r.Status = Status(status)
	if r.TotalWithTax, err = types.MoneyFromString(total); err != nil {
		return nil, err
	}
	if r.Deposit, err = types.MoneyFromString(deposit); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &r.PriceSnapshot); err != nil {
		return nil, fmt.Errorf("reservation: decode snapshot: %w", err)
	}
	return &r, nil
}

// UpdateStatus moves the reservation from one status to another only if
// nobody changed it since version was read.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, at time.Time, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE reservations
		SET status = $1,
		    status_version = status_version + 1,
		    confirmed_at = CASE WHEN $1 = 'confirmed' THEN $2 ELSE confirmed_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN $2 ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN $2 ELSE cancelled_at END,
		    cancel_reason = COALESCE($3, cancel_reason)
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		at,
		reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, fmt.Errorf("reservation: update status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO reservation_state_events (
			reservation_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.ReservationID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		e.ActorID,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("reservation: append event: %w", err)
	}
	return nil
}

func (s *Store) Events(ctx context.Context, id types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, reservation_id, from_status, to_status, actor_type, actor_id, created_at
		FROM reservation_state_events
		WHERE reservation_id = $1
		ORDER BY id`, string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("reservation: events: %w", err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		var rid, from, to string
		if err := rows.Scan(&e.ID, &rid, &from, &to, &e.ActorType, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("reservation: events scan: %w", err)
		}
		e.ReservationID, e.FromStatus, e.ToStatus = types.ID(rid), Status(from), Status(to)
		out = append(out, e)
	}
	return out, rows.Err()
}
