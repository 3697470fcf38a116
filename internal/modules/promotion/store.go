// README: Promotion and coupon store backed by PostgreSQL.
package promotion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"autorent/internal/types"
)

const promotionColumns = `id, name, amount::text, percent::text, start_date, end_date, service_type, created_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// ActivePromotion returns the oldest promotion active on day that is either
// unscoped or scoped to st.
func (s *Store) ActivePromotion(ctx context.Context, day time.Time, st ServiceType) (*Promotion, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+promotionColumns+`
		FROM promotions
		WHERE (start_date IS NULL OR start_date <= $1)
		  AND end_date >= $1
		  AND (service_type IS NULL OR service_type = $2)
		ORDER BY id
		LIMIT 1`, types.Date(day), string(st),
	)
	p, err := scanPromotion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("promotion: active promotion: %w", err)
	}
	return p, nil
}

// ListPromotions returns all promotions, or only those active on *activeOn.
func (s *Store) ListPromotions(ctx context.Context, activeOn *time.Time) ([]Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions`
	var args []any
	if activeOn != nil {
		query += ` WHERE (start_date IS NULL OR start_date <= $1) AND end_date >= $1`
		args = append(args, types.Date(*activeOn))
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("promotion: list: %w", err)
	}
	defer rows.Close()

	var out []Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("promotion: list scan: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) CreatePromotion(ctx context.Context, p *Promotion) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO promotions (name, amount, percent, start_date, end_date, service_type)
		VALUES ($1, $2::text::numeric, $3::text::numeric, $4, $5, $6)
		RETURNING id, created_at`,
		p.Name,
		types.DecimalArg(p.Amount),
		types.DecimalArg(p.Percent),
		p.StartDate,
		p.EndDate,
		serviceTypeArg(p.ServiceType),
	)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("promotion: create: %w", err)
	}
	return nil
}

func (s *Store) DeletePromotion(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("promotion: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CouponByCode matches the code case-insensitively. No date filter is applied;
// callers check expiry against their own effective date.
func (s *Store) CouponByCode(ctx context.Context, code string) (*Coupon, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+promotionColumns+`, code
		FROM coupons
		WHERE UPPER(code) = $1`, NormalizeCode(code),
	)
	var c Coupon
	var amount, percent, serviceType *string
	err := row.Scan(
		&c.ID, &c.Name, &amount, &percent, &c.StartDate, &c.EndDate, &serviceType, &c.CreatedAt,
		&c.Code,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("promotion: coupon by code: %w", err)
	}
	if err := fillNumbers(&c.Promotion, amount, percent, serviceType); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCoupon(ctx context.Context, c *Coupon) error {
	c.Code = NormalizeCode(c.Code)
	row := s.db.QueryRow(ctx, `
		INSERT INTO coupons (code, name, amount, percent, start_date, end_date, service_type)
		VALUES ($1, $2, $3::text::numeric, $4::text::numeric, $5, $6, $7)
		RETURNING id, created_at`,
		c.Code,
		c.Name,
		types.DecimalArg(c.Amount),
		types.DecimalArg(c.Percent),
		c.StartDate,
		c.EndDate,
		serviceTypeArg(c.ServiceType),
	)
	err := row.Scan(&c.ID, &c.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("promotion: create coupon: %w", err)
	}
	return nil
}

func (s *Store) DeleteCoupon(ctx context.Context, code string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM coupons WHERE UPPER(code) = $1`, NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("promotion: delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPromotion(row rowScanner) (*Promotion, error) {
	var p Promotion
	var amount, percent, serviceType *string
	if err := row.Scan(&p.ID, &p.Name, &amount, &percent, &p.StartDate, &p.EndDate, &serviceType, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := fillNumbers(&p, amount, percent, serviceType); err != nil {
		return nil, err
	}
	return &p, nil
}

func fillNumbers(p *Promotion, amount, percent, serviceType *string) error {
	var err error
	if p.Amount, err = types.ParseDecimalPtr(amount); err != nil {
		return err
	}
	if p.Percent, err = types.ParseDecimalPtr(percent); err != nil {
		return err
	}
	if serviceType != nil {
		st := ServiceType(*serviceType)
		p.ServiceType = &st
	}
	return nil
}

func serviceTypeArg(st *ServiceType) *string {
	if st == nil {
		return nil
	}
	s := string(*st)
	return &s
}
