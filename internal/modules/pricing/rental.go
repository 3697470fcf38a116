package pricing

import (
	"github.com/shopspring/decimal"

	"autorent/internal/config"
	"autorent/internal/modules/promotion"
	"autorent/internal/types"
)

type rentalPlan struct {
	in    RentalInput
	rates config.RateSheet
	out   *RentalBreakdown
}

func (p *rentalPlan) serviceType() promotion.ServiceType { return promotion.ServiceRental }

func (p *rentalPlan) basePrice() decimal.Decimal {
	return p.in.Vehicle.PricePerDay.Mul(decimal.NewFromInt(int64(p.in.NumDays)))
}

func (p *rentalPlan) steps() []step {
	return []step{p.multiDayDiscount, specificDiscount, p.extraMiles}
}

func (p *rentalPlan) multiDayDiscount(l *ledger, _ Adjustments) {
	pct := p.in.Vehicle.MultiDayDiscountPct(p.in.NumDays)
	taken := l.current().Mul(pct).Div(hundred)
	l.applyDiscount("multi_day_discount", taken)
	p.out.MultiDayDiscountPct = types.NewPercent(pct)
	p.out.MultiDayDiscount = money(taken)
	p.out.PostMultiDayDiscountSubtotal = money(l.current())
}

func (p *rentalPlan) extraMiles(l *ledger, _ Adjustments) {
	p.out.PostSpecificDiscountSubtotal = money(l.current())
	cost := p.rates.ExtraMilesPrice(p.in.ExtraMiles)
	l.applySurcharge("extra_miles", cost)
	p.out.ExtraMilesCost = money(cost)
}

// CalculateRental prices a vehicle rental: daily rate times days, less the
// multi-day discount, less the best specific discount, plus the extra-miles
// package, plus tax. Half of the total is due as the reservation deposit.
func CalculateRental(in RentalInput, adj Adjustments, rates config.RateSheet) (RentalBreakdown, error) {
	if in.NumDays < 1 || in.ExtraMiles < 0 || in.Vehicle.PricePerDay.IsNegative() {
		return RentalBreakdown{}, ErrBadRequest
	}
	out := RentalBreakdown{
		ServiceType:     promotion.ServiceRental,
		EffectiveDate:   adj.EffectiveDate.Format(types.DateLayout),
		VehicleID:       in.Vehicle.ID,
		VehicleName:     in.Vehicle.Name,
		NumDays:         in.NumDays,
		PricePerDay:     money(in.Vehicle.PricePerDay),
		ExtraMiles:      in.ExtraMiles,
		MilesIncluded:   in.Vehicle.MilesIncluded * in.NumDays,
		SecurityDeposit: money(in.Vehicle.SecurityDeposit),
	}
	p := &rentalPlan{in: in, rates: rates, out: &out}
	out.BasePrice = money(p.basePrice())

	res := run(p, adj)
	out.Discounts = res.discounts
	out.Totals = res.totals
	out.Checkpoints = res.checkpoints
	out.ReservationDeposit = money(res.totals.TotalWithTax.Decimal().Div(decimal.NewFromInt(2)))
	return out, nil
}
