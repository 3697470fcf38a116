// README: Pricing service resolves discounts and tax for a quote, then runs the calculators.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"autorent/internal/config"
	"autorent/internal/modules/customer"
	"autorent/internal/modules/promotion"
	"autorent/internal/modules/taxrate"
	"autorent/internal/modules/vehicle"
	"autorent/internal/types"
)

type PromotionSource interface {
	ActivePromotion(ctx context.Context, day time.Time, st promotion.ServiceType) (*promotion.Promotion, error)
	Coupon(ctx context.Context, code string) (*promotion.Coupon, error)
}

type CustomerSource interface {
	Lookup(ctx context.Context, email string) (*customer.Customer, error)
}

type VehicleSource interface {
	Get(ctx context.Context, id int64) (*vehicle.Vehicle, error)
}

type TaxRateSource interface {
	Resolve(ctx context.Context, postalCode string, policy taxrate.Policy) (*taxrate.TaxRate, error)
}

// PostalCodeResolver turns a street address into a postal code.
type PostalCodeResolver interface {
	PostalCode(ctx context.Context, address string) (string, error)
}

type Options struct {
	Promotions PromotionSource
	Customers  CustomerSource
	Vehicles   VehicleSource
	TaxRates   TaxRateSource
	// Postal is optional; without it a tax address cannot stand in for a zip.
	Postal    PostalCodeResolver
	RateSheet config.RateSheet
	TaxPolicy taxrate.Policy
	Now       func() time.Time
}

type Service struct {
	opts   Options
	logger zerolog.Logger
}

func NewService(opts Options, logger zerolog.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{opts: opts, logger: logger.With().Str("module", "pricing").Logger()}
}

// QuoteOptions are the inputs every quote shares.
type QuoteOptions struct {
	CouponCode         string
	Email              string
	TaxZip             string
	TaxAddress         string
	EffectiveDate      *time.Time
	IsMilitary         bool
	OneTimeDiscountPct *decimal.Decimal
	OverrideSubtotal   *decimal.Decimal
}

type RentalQuoteRequest struct {
	QuoteOptions
	VehicleID  int64
	NumDays    int
	ExtraMiles int
}

type GuidedQuoteRequest struct {
	QuoteOptions
	NumDrivers    int
	NumPassengers int
}

func (s *Service) QuoteRental(ctx context.Context, req RentalQuoteRequest) (*RentalBreakdown, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	v, err := s.opts.Vehicles.Get(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	in := RentalInput{Vehicle: *v, NumDays: req.NumDays, ExtraMiles: req.ExtraMiles}
	adj, err := s.adjustments(ctx, req.QuoteOptions, promotion.ServiceRental)
	if err != nil {
		return nil, err
	}
	b, err := CalculateRental(in, adj, s.opts.RateSheet)
	if err != nil {
		return nil, err
	}
	s.observe(b.ServiceType, b.SpecificDiscountLabel, b.TotalWithTax)
	return &b, nil
}

func (s *Service) QuoteJoyRide(ctx context.Context, req GuidedQuoteRequest) (*GuidedBreakdown, error) {
	in := req.input()
	if err := in.validateJoyRide(); err != nil {
		return nil, err
	}
	return s.quoteGuided(ctx, req.QuoteOptions, newJoyRidePlan(in, s.opts.RateSheet), in)
}

func (s *Service) QuotePerformanceExperience(ctx context.Context, req GuidedQuoteRequest) (*GuidedBreakdown, error) {
	in := req.input()
	if err := in.validatePerformance(); err != nil {
		return nil, err
	}
	return s.quoteGuided(ctx, req.QuoteOptions, newPerformancePlan(in, s.opts.RateSheet), in)
}

func (s *Service) quoteGuided(ctx context.Context, o QuoteOptions, p *guidedPlan, in GuidedInput) (*GuidedBreakdown, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	adj, err := s.adjustments(ctx, o, p.serviceType())
	if err != nil {
		return nil, err
	}
	b := calculateGuided(p, in, adj)
	s.observe(b.ServiceType, b.SpecificDiscountLabel, b.TotalWithTax)
	return &b, nil
}

// adjustments resolves the promotion, coupon, customer and tax rate for one
// quote. Missing discounts are not errors; a missing zip is.
func (s *Service) adjustments(ctx context.Context, o QuoteOptions, st promotion.ServiceType) (Adjustments, error) {
	zip, err := s.taxZip(ctx, o)
	if err != nil {
		return Adjustments{}, err
	}
	day := types.Date(s.opts.Now())
	if o.EffectiveDate != nil {
		day = types.Date(*o.EffectiveDate)
	}

	adj := Adjustments{
		TaxZip:           zip,
		EffectiveDate:    day,
		IsMilitary:       o.IsMilitary,
		MilitaryPct:      s.opts.RateSheet.MilitaryDiscountPct,
		OneTimePct:       o.OneTimeDiscountPct,
		OverrideSubtotal: o.OverrideSubtotal,
	}
	if adj.Promotion, err = s.opts.Promotions.ActivePromotion(ctx, day, st); err != nil {
		return Adjustments{}, fmt.Errorf("pricing: resolve promotion: %w", err)
	}
	if adj.Coupon, err = s.opts.Promotions.Coupon(ctx, o.CouponCode); err != nil {
		return Adjustments{}, fmt.Errorf("pricing: resolve coupon: %w", err)
	}
	if adj.Customer, err = s.opts.Customers.Lookup(ctx, o.Email); err != nil {
		return Adjustments{}, fmt.Errorf("pricing: resolve customer: %w", err)
	}

	rate, err := s.opts.TaxRates.Resolve(ctx, zip, s.opts.TaxPolicy)
	if errors.Is(err, taxrate.ErrInvalidPostalCode) {
		return Adjustments{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err != nil {
		return Adjustments{}, fmt.Errorf("pricing: resolve tax rate: %w", err)
	}
	adj.TaxZip = rate.PostalCode
	adj.TaxRate = rate.Rate()

	s.logger.Debug().
		Str("service_type", string(st)).
		Str("zip", zip).
		Str("tax_source", string(rate.Source)).
		Bool("promotion", adj.Promotion != nil).
		Bool("coupon", adj.Coupon != nil).
		Bool("customer", adj.Customer != nil).
		Msg("quote adjustments resolved")
	return adj, nil
}

// taxZip returns the zip to tax at. A tax address is geocoded only when no
// zip was given and a resolver is configured.
func (s *Service) taxZip(ctx context.Context, o QuoteOptions) (string, error) {
	if zip := strings.TrimSpace(o.TaxZip); zip != "" {
		return zip, nil
	}
	addr := strings.TrimSpace(o.TaxAddress)
	if addr == "" || s.opts.Postal == nil {
		return "", ErrMissingTaxZip
	}
	zip, err := s.opts.Postal.PostalCode(ctx, addr)
	if err != nil {
		s.logger.Warn().Err(err).Str("address", addr).Msg("tax address has no postal code")
		return "", fmt.Errorf("%w: %v", ErrMissingTaxZip, err)
	}
	return zip, nil
}

func (s *Service) observe(st promotion.ServiceType, label string, total types.Money) {
	quotesTotal.WithLabelValues(string(st)).Inc()
	if label == "" {
		label = "none"
	}
	discountWinsTotal.WithLabelValues(label).Inc()
	s.logger.Info().Str("service_type", string(st)).Str("discount", label).Str("total", total.String()).Msg("quote priced")
}

// validate runs before any lookup so a missing zip fails fast.
func (o QuoteOptions) validate() error {
	if strings.TrimSpace(o.TaxZip) == "" && strings.TrimSpace(o.TaxAddress) == "" {
		return ErrMissingTaxZip
	}
	if o.OneTimeDiscountPct != nil && (o.OneTimeDiscountPct.IsNegative() || o.OneTimeDiscountPct.GreaterThan(hundred)) {
		return ErrBadRequest
	}
	if o.OverrideSubtotal != nil && o.OverrideSubtotal.IsNegative() {
		return ErrBadRequest
	}
	return nil
}

func (r GuidedQuoteRequest) input() GuidedInput {
	return GuidedInput{NumDrivers: r.NumDrivers, NumPassengers: r.NumPassengers}
}
