// README: Shared pricing pipeline: running subtotal, best-of-five discount and tax.
package pricing

import (
	"github.com/shopspring/decimal"

	"autorent/internal/modules/promotion"
)

var hundred = decimal.NewFromInt(100)

// ledger is the running subtotal of one calculation.
type ledger struct {
	subtotal    decimal.Decimal
	based       bool
	checkpoints []Checkpoint
	discounts   Discounts
}

func (l *ledger) setBase(v decimal.Decimal) {
	l.subtotal = v
	l.based = true
	l.record("base_price")
}

// current panics when no base price has been set; every step runs after it.
func (l *ledger) current() decimal.Decimal {
	if !l.based {
		panic("pricing: subtotal read before the base price was set")
	}
	return l.subtotal
}

func (l *ledger) applyDiscount(step string, v decimal.Decimal) {
	l.subtotal = l.current().Sub(v)
	l.record(step)
}

func (l *ledger) applySurcharge(step string, v decimal.Decimal) {
	l.subtotal = l.current().Add(v)
	l.record(step)
}

func (l *ledger) record(step string) {
	l.checkpoints = append(l.checkpoints, Checkpoint{Step: step, Subtotal: money(l.subtotal)})
}

type candidate struct {
	label  string
	amount decimal.Decimal
}

// bestDiscount returns the largest candidate. Ties go to the earlier entry;
// when nothing is positive the result is the zero candidate with no label.
func bestDiscount(cands []candidate) candidate {
	best := candidate{amount: decimal.Zero}
	for _, c := range cands {
		if c.amount.GreaterThan(best.amount) {
			best = c
		}
	}
	return best
}

// specificDiscount prices the five mutually exclusive discounts against the
// current subtotal and applies only the largest.
func specificDiscount(l *ledger, adj Adjustments) {
	sub := l.current()
	var d Discounts
	promo, coupon, cust, mil, once := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero

	if adj.Promotion != nil {
		d.PromotionName = adj.Promotion.Name
		promo = adj.Promotion.DiscountFor(sub)
	}
	if adj.Coupon != nil {
		d.CouponCode = adj.Coupon.Code
		if !adj.Coupon.ExpiredOn(adj.EffectiveDate) && adj.Coupon.AppliesTo(adj.ServiceType) {
			coupon = adj.Coupon.DiscountFor(sub)
		}
	}
	if adj.Customer != nil {
		if adj.Customer.DiscountPct != nil {
			d.CustomerDiscountPct = percentPtr(*adj.Customer.DiscountPct)
		}
		cust = adj.Customer.DiscountFor(sub)
	}
	if adj.IsMilitary {
		d.MilitaryDiscountPct = percentPtr(adj.MilitaryPct)
		mil = sub.Mul(adj.MilitaryPct).Div(hundred)
	}
	if adj.OneTimePct != nil {
		d.OneTimeDiscountPct = percentPtr(*adj.OneTimePct)
		once = sub.Mul(*adj.OneTimePct).Div(hundred)
	}

	d.PromotionDiscount = money(promo)
	d.CouponDiscount = money(coupon)
	d.CustomerDiscount = money(cust)
	d.MilitaryDiscount = money(mil)
	d.OneTimeDiscount = money(once)

	best := bestDiscount([]candidate{
		{LabelPromotion, promo},
		{LabelCoupon, coupon},
		{LabelCustomer, cust},
		{LabelMilitary, mil},
		{LabelOneTime, once},
	})
	d.SpecificDiscountLabel = best.label
	d.SpecificDiscount = money(best.amount)
	l.applyDiscount("specific_discount", best.amount)
	l.discounts = d
}

// totals taxes the pre-tax subtotal: the override when present, otherwise
// the computed one. The computed subtotal is reported either way.
func totals(computed decimal.Decimal, adj Adjustments) Totals {
	t := Totals{ComputedSubtotal: money(computed), TaxZip: adj.TaxZip, TaxRate: adj.TaxRate}
	preTax := computed
	if adj.OverrideSubtotal != nil {
		preTax = *adj.OverrideSubtotal
		o := money(preTax)
		t.OverrideSubtotal = &o
	}
	tax := adj.TaxRate.Mul(preTax)
	t.Subtotal = money(preTax)
	t.TaxAmount = money(tax)
	t.TotalWithTax = money(preTax.Add(tax))
	return t
}

type step func(l *ledger, adj Adjustments)

// plan is one service type's pipeline: a base price followed by ordered
// steps. Tax is applied by run after the last step.
type plan interface {
	serviceType() promotion.ServiceType
	basePrice() decimal.Decimal
	steps() []step
}

type result struct {
	discounts   Discounts
	totals      Totals
	checkpoints []Checkpoint
}

func run(p plan, adj Adjustments) result {
	adj.ServiceType = p.serviceType()
	var l ledger
	l.setBase(p.basePrice())
	for _, s := range p.steps() {
		s(&l, adj)
	}
	return result{
		discounts:   l.discounts,
		totals:      totals(l.current(), adj),
		checkpoints: l.checkpoints,
	}
}
