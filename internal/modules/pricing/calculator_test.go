package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autorent/internal/config"
	"autorent/internal/modules/customer"
	"autorent/internal/modules/promotion"
	"autorent/internal/modules/vehicle"
	"autorent/internal/types"
)

var effective = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

func rateSheet(t *testing.T) config.RateSheet {
	t.Helper()
	rs, err := config.LoadRateSheet("")
	require.NoError(t, err)
	return rs
}

func testVehicle() vehicle.Vehicle {
	return vehicle.Vehicle{
		ID:              7,
		Name:            "Test GT",
		PricePerDay:     decimal.NewFromInt(500),
		Discount2Day:    types.DecimalPtr("10"),
		Discount3Day:    types.DecimalPtr("15"),
		Discount7Day:    types.DecimalPtr("25"),
		SecurityDeposit: decimal.NewFromInt(2500),
		MilesIncluded:   100,
	}
}

func baseAdjustments() Adjustments {
	return Adjustments{
		TaxRate:       decimal.RequireFromString("0.06625"),
		EffectiveDate: effective,
		MilitaryPct:   decimal.NewFromInt(10),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got types.Money, field string) {
	t.Helper()
	assert.Equal(t, want, got.String(), field)
}

func TestRentalMultiDayTiers(t *testing.T) {
	rs := rateSheet(t)
	tests := []struct {
		days     int
		wantPct  string
		wantDisc string
	}{
		{1, "0.00", "0.00"},
		{2, "10.00", "100.00"},
		{3, "15.00", "225.00"},
		{6, "15.00", "450.00"},
		{7, "25.00", "875.00"},
		{8, "25.00", "1000.00"},
	}
	for _, tt := range tests {
		b, err := CalculateRental(RentalInput{Vehicle: testVehicle(), NumDays: tt.days}, baseAdjustments(), rs)
		require.NoError(t, err)
		assert.Equal(t, tt.wantPct, b.MultiDayDiscountPct.String(), "days=%d", tt.days)
		assertMoney(t, tt.wantDisc, b.MultiDayDiscount, "multi_day_discount")
	}
}

func TestRentalEndToEnd(t *testing.T) {
	rs := rateSheet(t)
	in := RentalInput{Vehicle: testVehicle(), NumDays: 2, ExtraMiles: 200}

	t.Run("no discounts", func(t *testing.T) {
		b, err := CalculateRental(in, baseAdjustments(), rs)
		require.NoError(t, err)
		assertMoney(t, "1000.00", b.BasePrice, "base_price")
		assertMoney(t, "100.00", b.MultiDayDiscount, "multi_day_discount")
		assertMoney(t, "900.00", b.PostMultiDayDiscountSubtotal, "post_multi_day_discount_subtotal")
		assertMoney(t, "0.00", b.SpecificDiscount, "specific_discount")
		assert.Empty(t, b.SpecificDiscountLabel)
		assertMoney(t, "330.00", b.ExtraMilesCost, "extra_miles_cost")
		assertMoney(t, "1230.00", b.Subtotal, "subtotal")
		assertMoney(t, "81.49", b.TaxAmount, "tax_amount")
		assertMoney(t, "1311.49", b.TotalWithTax, "total_with_tax")
		assertMoney(t, "655.74", b.ReservationDeposit, "reservation_deposit")
		assert.Equal(t, 200, b.MilesIncluded)
		assert.Equal(t, "2024-07-01", b.EffectiveDate)
	})

	t.Run("flat coupon", func(t *testing.T) {
		adj := baseAdjustments()
		adj.Coupon = &promotion.Coupon{
			Code:      "SAVE15",
			Promotion: promotion.Promotion{Name: "Summer", Amount: types.DecimalPtr("15"), EndDate: &effective},
		}
		b, err := CalculateRental(in, adj, rs)
		require.NoError(t, err)
		assertMoney(t, "15.00", b.CouponDiscount, "coupon_discount")
		assert.Equal(t, LabelCoupon, b.SpecificDiscountLabel)
		assert.Equal(t, "SAVE15", b.CouponCode)
		assertMoney(t, "1295.49", b.TotalWithTax, "total_with_tax")
	})

	t.Run("customer discount", func(t *testing.T) {
		adj := baseAdjustments()
		adj.Customer = &customer.Customer{Email: "a@b.test", DiscountPct: types.DecimalPtr("10")}
		b, err := CalculateRental(in, adj, rs)
		require.NoError(t, err)
		assertMoney(t, "90.00", b.CustomerDiscount, "customer_discount")
		assert.Equal(t, LabelCustomer, b.SpecificDiscountLabel)
		assertMoney(t, "810.00", b.PostSpecificDiscountSubtotal, "post_specific_discount_subtotal")
		assertMoney(t, "1215.53", b.TotalWithTax, "total_with_tax")
	})
}

func TestSpecificDiscountTakesLargest(t *testing.T) {
	promo := &promotion.Promotion{Name: "Spring", Percent: types.DecimalPtr("5"), EndDate: &effective}
	coupon := &promotion.Coupon{Code: "C", Promotion: promotion.Promotion{Amount: types.DecimalPtr("15")}}
	cust := &customer.Customer{DiscountPct: types.DecimalPtr("10")}

	tests := []struct {
		name      string
		mutate    func(*Adjustments)
		wantLabel string
		wantAmt   string
	}{
		{"nothing eligible", func(*Adjustments) {}, "", "0.00"},
		{"promotion alone", func(a *Adjustments) { a.Promotion = promo }, LabelPromotion, "45.00"},
		{"promotion beats coupon", func(a *Adjustments) { a.Promotion = promo; a.Coupon = coupon }, LabelPromotion, "45.00"},
		{"customer beats promotion", func(a *Adjustments) { a.Promotion = promo; a.Customer = cust }, LabelCustomer, "90.00"},
		{"customer wins tie with military", func(a *Adjustments) { a.Customer = cust; a.IsMilitary = true }, LabelCustomer, "90.00"},
		{"military alone", func(a *Adjustments) { a.IsMilitary = true }, LabelMilitary, "90.00"},
		{"one-time beats all", func(a *Adjustments) {
			a.Promotion, a.Coupon, a.Customer, a.IsMilitary = promo, coupon, cust, true
			a.OneTimePct = types.DecimalPtr("12")
		}, LabelOneTime, "108.00"},
		{"zero percent one-time is no discount", func(a *Adjustments) { a.OneTimePct = types.DecimalPtr("0") }, "", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := baseAdjustments()
			tt.mutate(&adj)
			var l ledger
			l.setBase(dec("900"))
			specificDiscount(&l, adj)

			assert.Equal(t, tt.wantLabel, l.discounts.SpecificDiscountLabel)
			assert.Equal(t, tt.wantAmt, l.discounts.SpecificDiscount.String())
			assert.True(t, dec("900").Sub(l.discounts.SpecificDiscount.Decimal()).Equal(l.current()))

			candidates := []types.Money{
				l.discounts.PromotionDiscount, l.discounts.CouponDiscount, l.discounts.CustomerDiscount,
				l.discounts.MilitaryDiscount, l.discounts.OneTimeDiscount,
			}
			for _, c := range candidates {
				assert.True(t, c.Decimal().LessThanOrEqual(l.discounts.SpecificDiscount.Decimal()))
			}
		})
	}
}

func TestExpiredCouponContributesNothing(t *testing.T) {
	yesterday := effective.AddDate(0, 0, -1)
	adj := baseAdjustments()
	adj.Coupon = &promotion.Coupon{Code: "OLD", Promotion: promotion.Promotion{Amount: types.DecimalPtr("500"), EndDate: &yesterday}}

	var l ledger
	l.setBase(dec("900"))
	specificDiscount(&l, adj)
	assertMoney(t, "0.00", l.discounts.CouponDiscount, "coupon_discount")
	assert.Empty(t, l.discounts.SpecificDiscountLabel)
	assert.Equal(t, "OLD", l.discounts.CouponCode)

	// the end date itself is still valid, and the start date is ignored
	future := effective.AddDate(0, 1, 0)
	adj.Coupon.EndDate = &effective
	adj.Coupon.StartDate = &future
	l = ledger{}
	l.setBase(dec("900"))
	specificDiscount(&l, adj)
	assertMoney(t, "500.00", l.discounts.CouponDiscount, "coupon_discount")
}

func TestCouponScopedToOtherServiceIsIgnored(t *testing.T) {
	rs := rateSheet(t)
	joy := promotion.ServiceJoyRide
	adj := baseAdjustments()
	adj.Coupon = &promotion.Coupon{Code: "JOY", Promotion: promotion.Promotion{Amount: types.DecimalPtr("50"), ServiceType: &joy}}

	rental, err := CalculateRental(RentalInput{Vehicle: testVehicle(), NumDays: 2}, adj, rs)
	require.NoError(t, err)
	assertMoney(t, "0.00", rental.CouponDiscount, "coupon_discount")
	assert.Empty(t, rental.SpecificDiscountLabel)

	ride, err := CalculateJoyRide(GuidedInput{NumPassengers: 2}, adj, rs)
	require.NoError(t, err)
	assertMoney(t, "50.00", ride.CouponDiscount, "coupon_discount")
	assert.Equal(t, LabelCoupon, ride.SpecificDiscountLabel)
}

func TestAppliedDiscountIsLargestCandidate(t *testing.T) {
	adj := baseAdjustments()
	adj.Coupon = &promotion.Coupon{Code: "BIG", Promotion: promotion.Promotion{Amount: types.DecimalPtr("1000")}}
	var l ledger
	l.setBase(dec("40"))
	specificDiscount(&l, adj)
	assertMoney(t, "1000.00", l.discounts.CouponDiscount, "coupon_discount")
	assertMoney(t, "1000.00", l.discounts.SpecificDiscount, "specific_discount")
	assert.Equal(t, LabelCoupon, l.discounts.SpecificDiscountLabel)
	assert.True(t, l.current().Equal(dec("-960")), "subtotal %s", l.current())
}

func TestTotalEqualsSubtotalPlusTax(t *testing.T) {
	rates := []string{"0", "0.06625", "0.08875", "0.1"}
	subtotals := []string{"0", "0.01", "1", "19.995", "1230", "1234567.891"}
	for _, r := range rates {
		for _, st := range subtotals {
			adj := Adjustments{TaxRate: dec(r)}
			tot := totals(dec(st), adj)
			want := dec(st).Add(dec(r).Mul(dec(st)))
			assert.True(t, want.Equal(tot.TotalWithTax.Decimal()), "rate=%s subtotal=%s", r, st)
			assert.True(t, tot.TotalWithTax.Decimal().Equal(tot.Subtotal.Decimal().Add(tot.TaxAmount.Decimal())))
		}
	}
}

func TestOverrideSubtotalOnlyAffectsTax(t *testing.T) {
	rs := rateSheet(t)
	in := RentalInput{Vehicle: testVehicle(), NumDays: 2, ExtraMiles: 200}
	plain, err := CalculateRental(in, baseAdjustments(), rs)
	require.NoError(t, err)

	adj := baseAdjustments()
	adj.OverrideSubtotal = types.DecimalPtr("1000")
	over, err := CalculateRental(in, adj, rs)
	require.NoError(t, err)

	assert.Equal(t, plain.BasePrice, over.BasePrice)
	assert.Equal(t, plain.PostMultiDayDiscountSubtotal, over.PostMultiDayDiscountSubtotal)
	assert.Equal(t, plain.Checkpoints, over.Checkpoints)
	assertMoney(t, "1230.00", over.ComputedSubtotal, "computed_subtotal")
	require.NotNil(t, over.OverrideSubtotal)
	assertMoney(t, "1000.00", over.Subtotal, "subtotal")
	assertMoney(t, "66.25", over.TaxAmount, "tax_amount")
	assertMoney(t, "1066.25", over.TotalWithTax, "total_with_tax")
	assert.Nil(t, plain.OverrideSubtotal)
}

func TestUnknownExtraMilesTierIsFree(t *testing.T) {
	b, err := CalculateRental(RentalInput{Vehicle: testVehicle(), NumDays: 1, ExtraMiles: 123}, baseAdjustments(), rateSheet(t))
	require.NoError(t, err)
	assertMoney(t, "0.00", b.ExtraMilesCost, "extra_miles_cost")
	assertMoney(t, "500.00", b.Subtotal, "subtotal")
}

func TestRentalCheckpoints(t *testing.T) {
	adj := baseAdjustments()
	adj.IsMilitary = true
	b, err := CalculateRental(RentalInput{Vehicle: testVehicle(), NumDays: 2, ExtraMiles: 100}, adj, rateSheet(t))
	require.NoError(t, err)

	var steps, subtotals []string
	for _, c := range b.Checkpoints {
		steps = append(steps, c.Step)
		subtotals = append(subtotals, c.Subtotal.String())
	}
	assert.Equal(t, []string{"base_price", "multi_day_discount", "specific_discount", "extra_miles"}, steps)
	assert.Equal(t, []string{"1000.00", "900.00", "810.00", "985.00"}, subtotals)
}

func TestRentalRejectsBadInput(t *testing.T) {
	rs := rateSheet(t)
	for _, in := range []RentalInput{
		{Vehicle: testVehicle(), NumDays: 0},
		{Vehicle: testVehicle(), NumDays: 2, ExtraMiles: -100},
	} {
		_, err := CalculateRental(in, baseAdjustments(), rs)
		assert.ErrorIs(t, err, ErrBadRequest)
	}
}

func TestDiscountBeforeBasePricePanics(t *testing.T) {
	assert.Panics(t, func() {
		var l ledger
		specificDiscount(&l, baseAdjustments())
	})
	assert.Panics(t, func() {
		var l ledger
		l.applySurcharge("extra_miles", dec("10"))
	})
}
