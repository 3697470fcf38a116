// README: Tax-rate store backed by PostgreSQL, one row per postal code.
package taxrate

import (
	"context"
	"errors"
	"fmt"
	"time"

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

func (s *Store) Get(ctx context.Context, postalCode string) (*TaxRate, error) {
	row := s.db.QueryRow(ctx, `
		SELECT postal_code, total_rate::text, details, source, date_updated
		FROM tax_rates
		WHERE postal_code = $1`, postalCode,
	)
	var r TaxRate
	var rate *string
	var details []byte
	var source string
	err := row.Scan(&r.PostalCode, &rate, &details, &source, &r.DateUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("taxrate: get: %w", err)
	}
	if r.TotalRate, err = types.ParseDecimalPtr(rate); err != nil {
		return nil, err
	}
	r.Details = details
	r.Source = Source(source)
	return &r, nil
}

// Upsert creates the row for the postal code or overwrites it; concurrent
// writers race and the last one wins.
func (s *Store) Upsert(ctx context.Context, r *TaxRate) error {
	details := []byte(r.Details)
	if len(details) == 0 {
		details = []byte("{}")
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO tax_rates (postal_code, total_rate, details, source, date_updated)
		VALUES ($1, $2::text::numeric, $3, $4, $5)
		ON CONFLICT (postal_code) DO UPDATE SET
			total_rate = EXCLUDED.total_rate,
			details = EXCLUDED.details,
			source = EXCLUDED.source,
			date_updated = EXCLUDED.date_updated`,
		r.PostalCode,
		types.DecimalArg(r.TotalRate),
		details,
		string(r.Source),
		r.DateUpdated,
	)
	if err != nil {
		return fmt.Errorf("taxrate: upsert: %w", err)
	}
	return nil
}

// ListStale returns postal codes last updated before cutoff, never set, or
// filled from the fallback rate.
func (s *Store) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT postal_code
		FROM tax_rates
		WHERE total_rate IS NULL OR date_updated < $1 OR source = $2
		ORDER BY date_updated
		LIMIT $3`, cutoff, string(SourceFallback), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("taxrate: list stale: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("taxrate: list stale scan: %w", err)
		}
		out = append(out, code)
	}
	return out, rows.Err()
}
