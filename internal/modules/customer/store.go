// README: Customer store backed by PostgreSQL.
package customer

import (
	"context"
	"errors"
	"fmt"

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

func (s *Store) ByEmail(ctx context.Context, email string) (*Customer, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, discount_pct::text, created_at
		FROM customers
		WHERE LOWER(email) = $1`, NormalizeEmail(email),
	)
	var c Customer
	var pct *string
	err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &pct, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("customer: by email: %w", err)
	}
	if c.DiscountPct, err = types.ParseDecimalPtr(pct); err != nil {
		return nil, err
	}
	return &c, nil
}

// Upsert inserts the customer or updates the row with the same email.
func (s *Store) Upsert(ctx context.Context, c *Customer) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO customers (email, first_name, last_name, discount_pct)
		VALUES ($1, $2, $3, $4::text::numeric)
		ON CONFLICT (LOWER(email)) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			discount_pct = EXCLUDED.discount_pct
		RETURNING id, created_at`,
		NormalizeEmail(c.Email),
		c.FirstName,
		c.LastName,
		types.DecimalArg(c.DiscountPct),
	)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("customer: upsert: %w", err)
	}
	return nil
}
