// README: Promotion service validates staff edits and resolves discounts for pricing.
package promotion

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository is the persistence surface the service needs; *Store implements it.
type Repository interface {
	ActivePromotion(ctx context.Context, day time.Time, st ServiceType) (*Promotion, error)
	ListPromotions(ctx context.Context, activeOn *time.Time) ([]Promotion, error)
	CreatePromotion(ctx context.Context, p *Promotion) error
	DeletePromotion(ctx context.Context, id int64) error
	CouponByCode(ctx context.Context, code string) (*Coupon, error)
	CreateCoupon(ctx context.Context, c *Coupon) error
	DeleteCoupon(ctx context.Context, code string) error
}

type Service struct {
	store  Repository
	logger zerolog.Logger
}

func NewService(store Repository, logger zerolog.Logger) *Service {
	return &Service{store: store, logger: logger.With().Str("module", "promotion").Logger()}
}

type CreatePromotionCommand struct {
	Name        string
	Amount      *decimal.Decimal
	Percent     *decimal.Decimal
	StartDate   *time.Time
	EndDate     *time.Time
	ServiceType *ServiceType
}

type CreateCouponCommand struct {
	CreatePromotionCommand
	Code string
}

// ActivePromotion returns the promotion that applies on day, or nil when
// none does.
func (s *Service) ActivePromotion(ctx context.Context, day time.Time, st ServiceType) (*Promotion, error) {
	p, err := s.store.ActivePromotion(ctx, day, st)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// Coupon returns the coupon for code, or nil when code is empty or unknown.
func (s *Service) Coupon(ctx context.Context, code string) (*Coupon, error) {
	if NormalizeCode(code) == "" {
		return nil, nil
	}
	c, err := s.store.CouponByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// CouponByCode is the staff lookup; unknown codes are ErrNotFound.
func (s *Service) CouponByCode(ctx context.Context, code string) (*Coupon, error) {
	if NormalizeCode(code) == "" {
		return nil, ErrBadRequest
	}
	return s.store.CouponByCode(ctx, code)
}

func (s *Service) ListPromotions(ctx context.Context, activeOn *time.Time) ([]Promotion, error) {
	return s.store.ListPromotions(ctx, activeOn)
}

func (s *Service) CreatePromotion(ctx context.Context, cmd CreatePromotionCommand) (*Promotion, error) {
	p, err := cmd.build()
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePromotion(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("promotion_id", p.ID).Str("name", p.Name).Msg("promotion created")
	return p, nil
}

func (s *Service) DeletePromotion(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrBadRequest
	}
	return s.store.DeletePromotion(ctx, id)
}

func (s *Service) CreateCoupon(ctx context.Context, cmd CreateCouponCommand) (*Coupon, error) {
	code := NormalizeCode(cmd.Code)
	if code == "" || strings.ContainsAny(code, " \t") {
		return nil, ErrBadRequest
	}
	p, err := cmd.CreatePromotionCommand.build()
	if err != nil {
		return nil, err
	}
	c := &Coupon{Promotion: *p, Code: code}
	if err := s.store.CreateCoupon(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("code", c.Code).Msg("coupon created")
	return c, nil
}

func (s *Service) DeleteCoupon(ctx context.Context, code string) error {
	if NormalizeCode(code) == "" {
		return ErrBadRequest
	}
	return s.store.DeleteCoupon(ctx, code)
}

// build checks the staff input: a name, exactly one of amount and percent,
// a percent within (0, 100] and an ordered date window.
func (cmd CreatePromotionCommand) build() (*Promotion, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, ErrBadRequest
	}
	if (cmd.Amount == nil) == (cmd.Percent == nil) {
		return nil, ErrBadRequest
	}
	if cmd.Amount != nil && !cmd.Amount.IsPositive() {
		return nil, ErrBadRequest
	}
	if cmd.Percent != nil && (!cmd.Percent.IsPositive() || cmd.Percent.GreaterThan(decimal.NewFromInt(100))) {
		return nil, ErrBadRequest
	}
	if cmd.StartDate != nil && cmd.EndDate != nil && cmd.EndDate.Before(*cmd.StartDate) {
		return nil, ErrBadRequest
	}
	if cmd.ServiceType != nil && !cmd.ServiceType.Valid() {
		return nil, ErrBadRequest
	}
	return &Promotion{
		Name:        name,
		Amount:      cmd.Amount,
		Percent:     cmd.Percent,
		StartDate:   cmd.StartDate,
		EndDate:     cmd.EndDate,
		ServiceType: cmd.ServiceType,
	}, nil
}
