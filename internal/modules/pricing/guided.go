package pricing

import (
	"github.com/shopspring/decimal"

	"autorent/internal/config"
	"autorent/internal/modules/promotion"
	"autorent/internal/types"
)

// tierPrice looks headcounts one through four up in the table and prices
// larger groups at the per-unit rate for every head.
func tierPrice(rate config.TieredRate, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	if n <= len(rate.Tiers) {
		return rate.Tiers[n-1]
	}
	return rate.PerUnitOverTable.Mul(decimal.NewFromInt(int64(n)))
}

type guidedPlan struct {
	st        promotion.ServiceType
	headcount decimal.Decimal
	extra     decimal.Decimal
}

func (p *guidedPlan) serviceType() promotion.ServiceType { return p.st }

func (p *guidedPlan) basePrice() decimal.Decimal { return p.headcount.Add(p.extra) }

func (p *guidedPlan) steps() []step { return []step{specificDiscount} }

func newJoyRidePlan(in GuidedInput, rates config.RateSheet) *guidedPlan {
	return &guidedPlan{
		st:        promotion.ServiceJoyRide,
		headcount: tierPrice(rates.JoyRide, in.NumPassengers),
		extra:     decimal.Zero,
	}
}

func newPerformancePlan(in GuidedInput, rates config.RateSheet) *guidedPlan {
	perPassenger := rates.PerformanceExperience.PerPassenger
	return &guidedPlan{
		st:        promotion.ServicePerformanceExperience,
		headcount: tierPrice(rates.PerformanceExperience.TieredRate, in.NumDrivers),
		extra:     perPassenger.Mul(decimal.NewFromInt(int64(in.NumPassengers))),
	}
}

// CalculateJoyRide prices a joy ride by passenger count.
func CalculateJoyRide(in GuidedInput, adj Adjustments, rates config.RateSheet) (GuidedBreakdown, error) {
	if err := in.validateJoyRide(); err != nil {
		return GuidedBreakdown{}, err
	}
	return calculateGuided(newJoyRidePlan(in, rates), in, adj), nil
}

// CalculatePerformanceExperience prices a performance experience by driver
// count, plus a flat rate for each passenger.
func CalculatePerformanceExperience(in GuidedInput, adj Adjustments, rates config.RateSheet) (GuidedBreakdown, error) {
	if err := in.validatePerformance(); err != nil {
		return GuidedBreakdown{}, err
	}
	return calculateGuided(newPerformancePlan(in, rates), in, adj), nil
}

func calculateGuided(p *guidedPlan, in GuidedInput, adj Adjustments) GuidedBreakdown {
	res := run(p, adj)
	return GuidedBreakdown{
		ServiceType:    p.st,
		EffectiveDate:  adj.EffectiveDate.Format(types.DateLayout),
		NumDrivers:     in.NumDrivers,
		NumPassengers:  in.NumPassengers,
		HeadcountPrice: money(p.headcount),
		PassengerPrice: money(p.extra),
		BasePrice:      money(p.basePrice()),
		Discounts:      res.discounts,
		Totals:         res.totals,
		Checkpoints:    res.checkpoints,
	}
}

func (in GuidedInput) validateJoyRide() error {
	if in.NumPassengers < 1 || in.NumDrivers != 0 {
		return ErrBadRequest
	}
	return nil
}

func (in GuidedInput) validatePerformance() error {
	if in.NumDrivers < 1 || in.NumPassengers < 0 {
		return ErrBadRequest
	}
	return nil
}
