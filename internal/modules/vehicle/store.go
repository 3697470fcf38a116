// README: Vehicle store backed by PostgreSQL.
package vehicle

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"autorent/internal/types"
)

const vehicleColumns = `id, slug, name, price_per_day::text, discount_2_day::text, discount_3_day::text,
	discount_7_day::text, security_deposit::text, miles_included`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, id int64) (*Vehicle, error) {
	return s.one(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
}

func (s *Store) BySlug(ctx context.Context, slug string) (*Vehicle, error) {
	return s.one(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE slug = $1`, slug)
}

func (s *Store) List(ctx context.Context) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY price_per_day, id`)
	if err != nil {
		return nil, fmt.Errorf("vehicle: list: %w", err)
	}
	defer rows.Close()
	var out []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("vehicle: list scan: %w", err)
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, v *Vehicle) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO vehicles (slug, name, price_per_day, discount_2_day, discount_3_day, discount_7_day,
			security_deposit, miles_included)
		VALUES ($1, $2, $3::text::numeric, $4::text::numeric, $5::text::numeric, $6::text::numeric,
			$7::text::numeric, $8)
		RETURNING id`,
		v.Slug, v.Name, v.PricePerDay.String(),
		types.DecimalArg(v.Discount2Day), types.DecimalArg(v.Discount3Day), types.DecimalArg(v.Discount7Day),
		v.SecurityDeposit.String(), v.MilesIncluded,
	)
	if err := row.Scan(&v.ID); err != nil {
		return fmt.Errorf("vehicle: create: %w", err)
	}
	return nil
}

func (s *Store) one(ctx context.Context, query string, arg any) (*Vehicle, error) {
	v, err := scanVehicle(s.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vehicle: get: %w", err)
	}
	return v, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*Vehicle, error) {
	var v Vehicle
	var price, deposit string
	var d2, d3, d7 *string
	if err := row.Scan(&v.ID, &v.Slug, &v.Name, &price, &d2, &d3, &d7, &deposit, &v.MilesIncluded); err != nil {
		return nil, err
	}
	var err error
	if v.PricePerDay, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	if v.SecurityDeposit, err = decimal.NewFromString(deposit); err != nil {
		return nil, err
	}
	if v.Discount2Day, err = types.ParseDecimalPtr(d2); err != nil {
		return nil, err
	}
	if v.Discount3Day, err = types.ParseDecimalPtr(d3); err != nil {
		return nil, err
	}
	if v.Discount7Day, err = types.ParseDecimalPtr(d7); err != nil {
		return nil, err
	}
	return &v, nil
}
