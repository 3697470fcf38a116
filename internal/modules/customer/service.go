package customer

import (
	"context"
	"errors"
	"net/mail"

	"github.com/shopspring/decimal"
)

type Repository interface {
	ByEmail(ctx context.Context, email string) (*Customer, error)
	Upsert(ctx context.Context, c *Customer) error
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

// Lookup is best-effort: an empty email or an unknown customer yields nil.
func (s *Service) Lookup(ctx context.Context, email string) (*Customer, error) {
	if NormalizeEmail(email) == "" {
		return nil, nil
	}
	c, err := s.store.ByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return c, err
}

func (s *Service) Save(ctx context.Context, c Customer) (*Customer, error) {
	c.Email = NormalizeEmail(c.Email)
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return nil, ErrBadRequest
	}
	if c.DiscountPct != nil && (c.DiscountPct.IsNegative() || c.DiscountPct.GreaterThan(decimal.NewFromInt(100))) {
		return nil, ErrBadRequest
	}
	if err := s.store.Upsert(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
