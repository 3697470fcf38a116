package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autorent/internal/modules/customer"
	"autorent/internal/modules/promotion"
	"autorent/internal/modules/taxrate"
	"autorent/internal/modules/vehicle"
	"autorent/internal/types"
)

type fakePromotions struct {
	promo     *promotion.Promotion
	coupons   map[string]*promotion.Coupon
	err       error
	askedDay  time.Time
	askedType promotion.ServiceType
	calls     int
}

func (f *fakePromotions) ActivePromotion(_ context.Context, day time.Time, st promotion.ServiceType) (*promotion.Promotion, error) {
	f.calls++
	f.askedDay, f.askedType = day, st
	if f.err != nil {
		return nil, f.err
	}
	if f.promo != nil && f.promo.ActiveOn(day) && f.promo.AppliesTo(st) {
		return f.promo, nil
	}
	return nil, nil
}

func (f *fakePromotions) Coupon(_ context.Context, code string) (*promotion.Coupon, error) {
	return f.coupons[promotion.NormalizeCode(code)], nil
}

type fakeCustomers map[string]*customer.Customer

func (f fakeCustomers) Lookup(_ context.Context, email string) (*customer.Customer, error) {
	return f[customer.NormalizeEmail(email)], nil
}

type fakeVehicles struct {
	v     *vehicle.Vehicle
	calls int
}

func (f *fakeVehicles) Get(_ context.Context, id int64) (*vehicle.Vehicle, error) {
	f.calls++
	if f.v == nil || f.v.ID != id {
		return nil, vehicle.ErrNotFound
	}
	return f.v, nil
}

type fakeTaxRates struct {
	rate        string
	err         error
	askedZip    string
	askedPolicy taxrate.Policy
}

func (f *fakeTaxRates) Resolve(_ context.Context, zip string, policy taxrate.Policy) (*taxrate.TaxRate, error) {
	f.askedZip, f.askedPolicy = zip, policy
	if f.err != nil {
		return nil, f.err
	}
	return &taxrate.TaxRate{PostalCode: zip, TotalRate: types.DecimalPtr(f.rate), Source: taxrate.SourceAPI}, nil
}

type fakePostal map[string]string

func (f fakePostal) PostalCode(_ context.Context, address string) (string, error) {
	if zip, ok := f[address]; ok {
		return zip, nil
	}
	return "", errors.New("no postal code")
}

type fixture struct {
	promos   *fakePromotions
	vehicles *fakeVehicles
	taxes    *fakeTaxRates
	svc      *Service
}

var serviceNow = time.Date(2024, 7, 1, 15, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	v := testVehicle()
	f := &fixture{
		promos:   &fakePromotions{coupons: map[string]*promotion.Coupon{}},
		vehicles: &fakeVehicles{v: &v},
		taxes:    &fakeTaxRates{rate: "0.06625"},
	}
	f.svc = NewService(Options{
		Promotions: f.promos,
		Customers: fakeCustomers{
			"vip@example.com": {Email: "vip@example.com", DiscountPct: types.DecimalPtr("10")},
		},
		Vehicles:  f.vehicles,
		TaxRates:  f.taxes,
		Postal:    fakePostal{"1 Hudson St, Hoboken NJ": "07030"},
		RateSheet: rateSheet(t),
		TaxPolicy: taxrate.PolicyCacheOnly,
		Now:       func() time.Time { return serviceNow },
	}, zerolog.Nop())
	return f
}

func rentalRequest() RentalQuoteRequest {
	return RentalQuoteRequest{
		QuoteOptions: QuoteOptions{TaxZip: "07030"},
		VehicleID:    7,
		NumDays:      2,
		ExtraMiles:   200,
	}
}

func TestQuoteRental(t *testing.T) {
	f := newFixture(t)
	b, err := f.svc.QuoteRental(context.Background(), rentalRequest())
	require.NoError(t, err)
	assertMoney(t, "1311.49", b.TotalWithTax, "total_with_tax")
	assert.Equal(t, "07030", f.taxes.askedZip)
	assert.Equal(t, taxrate.PolicyCacheOnly, f.taxes.askedPolicy)
	assert.Equal(t, promotion.ServiceRental, f.promos.askedType)
	assert.Equal(t, types.Date(serviceNow), f.promos.askedDay, "effective date defaults to today")
}

func TestQuoteRentalMissingZipFailsBeforeLookups(t *testing.T) {
	f := newFixture(t)
	req := rentalRequest()
	req.TaxZip = "  "
	_, err := f.svc.QuoteRental(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingTaxZip)
	assert.Zero(t, f.vehicles.calls)
	assert.Zero(t, f.promos.calls)
}

func TestQuoteRentalTaxAddress(t *testing.T) {
	f := newFixture(t)
	req := rentalRequest()
	req.TaxZip = ""
	req.TaxAddress = "1 Hudson St, Hoboken NJ"
	_, err := f.svc.QuoteRental(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "07030", f.taxes.askedZip)

	req.TaxAddress = "nowhere"
	_, err = f.svc.QuoteRental(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingTaxZip)
}

func TestQuoteRentalTaxAddressWithoutResolver(t *testing.T) {
	f := newFixture(t)
	f.svc.opts.Postal = nil
	req := rentalRequest()
	req.TaxZip = ""
	req.TaxAddress = "1 Hudson St, Hoboken NJ"
	_, err := f.svc.QuoteRental(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingTaxZip)
}

func TestQuoteRentalResolvesDiscounts(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC)
	f.promos.coupons["SAVE15"] = &promotion.Coupon{Code: "SAVE15", Promotion: promotion.Promotion{Amount: types.DecimalPtr("15")}}
	f.promos.promo = &promotion.Promotion{Name: "August", Percent: types.DecimalPtr("20"), StartDate: &start, EndDate: &end}

	req := rentalRequest()
	req.CouponCode = "save15"
	req.Email = " VIP@example.com "
	b, err := f.svc.QuoteRental(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, LabelCustomer, b.SpecificDiscountLabel, "promotion is not active today")
	assertMoney(t, "15.00", b.CouponDiscount, "coupon_discount")

	req.EffectiveDate = &start
	b, err = f.svc.QuoteRental(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, LabelPromotion, b.SpecificDiscountLabel)
	assertMoney(t, "180.00", b.SpecificDiscount, "specific_discount")
	assert.Equal(t, "2024-08-10", b.EffectiveDate)
}

func TestQuoteRentalMilitaryUsesRateSheet(t *testing.T) {
	f := newFixture(t)
	req := rentalRequest()
	req.IsMilitary = true
	b, err := f.svc.QuoteRental(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, LabelMilitary, b.SpecificDiscountLabel)
	assertMoney(t, "90.00", b.MilitaryDiscount, "military_discount")
}

func TestQuoteRentalErrors(t *testing.T) {
	f := newFixture(t)
	req := rentalRequest()
	req.VehicleID = 99
	_, err := f.svc.QuoteRental(context.Background(), req)
	assert.ErrorIs(t, err, vehicle.ErrNotFound)

	req = rentalRequest()
	req.NumDays = 0
	_, err = f.svc.QuoteRental(context.Background(), req)
	assert.ErrorIs(t, err, ErrBadRequest)

	req = rentalRequest()
	req.ExtraMiles = -100
	_, err = f.svc.QuoteRental(context.Background(), req)
	assert.ErrorIs(t, err, ErrBadRequest)

	req = rentalRequest()
	req.OneTimeDiscountPct = types.DecimalPtr("101")
	_, err = f.svc.QuoteRental(context.Background(), req)
	assert.ErrorIs(t, err, ErrBadRequest)

	req = rentalRequest()
	neg := decimal.NewFromInt(-1)
	req.OverrideSubtotal = &neg
	_, err = f.svc.QuoteRental(context.Background(), req)
	assert.ErrorIs(t, err, ErrBadRequest)

	f.taxes.err = taxrate.ErrInvalidPostalCode
	_, err = f.svc.QuoteRental(context.Background(), rentalRequest())
	assert.ErrorIs(t, err, ErrBadRequest)

	dbErr := errors.New("connection reset")
	f.taxes.err = nil
	f.promos.err = dbErr
	_, err = f.svc.QuoteRental(context.Background(), rentalRequest())
	assert.ErrorIs(t, err, dbErr)
}

func TestQuoteGuided(t *testing.T) {
	f := newFixture(t)
	opts := QuoteOptions{TaxZip: "07030"}

	b, err := f.svc.QuoteJoyRide(context.Background(), GuidedQuoteRequest{QuoteOptions: opts, NumPassengers: 3})
	require.NoError(t, err)
	assertMoney(t, "249.00", b.BasePrice, "base_price")
	assert.Equal(t, promotion.ServiceJoyRide, f.promos.askedType)

	b, err = f.svc.QuotePerformanceExperience(context.Background(), GuidedQuoteRequest{QuoteOptions: opts, NumDrivers: 1, NumPassengers: 1})
	require.NoError(t, err)
	assertMoney(t, "298.00", b.BasePrice, "base_price")
	assert.Equal(t, promotion.ServicePerformanceExperience, f.promos.askedType)

	_, err = f.svc.QuoteJoyRide(context.Background(), GuidedQuoteRequest{NumPassengers: 3})
	assert.ErrorIs(t, err, ErrMissingTaxZip)

	_, err = f.svc.QuotePerformanceExperience(context.Background(), GuidedQuoteRequest{QuoteOptions: opts})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestServiceScopedPromotion(t *testing.T) {
	f := newFixture(t)
	end := serviceNow.AddDate(0, 0, 10)
	joy := promotion.ServiceJoyRide
	f.promos.promo = &promotion.Promotion{Name: "Joy week", Amount: types.DecimalPtr("50"), EndDate: &end, ServiceType: &joy}

	rental, err := f.svc.QuoteRental(context.Background(), rentalRequest())
	require.NoError(t, err)
	assert.Empty(t, rental.SpecificDiscountLabel)

	ride, err := f.svc.QuoteJoyRide(context.Background(), GuidedQuoteRequest{QuoteOptions: QuoteOptions{TaxZip: "07030"}, NumPassengers: 1})
	require.NoError(t, err)
	assert.Equal(t, LabelPromotion, ride.SpecificDiscountLabel)
	assert.Equal(t, "Joy week", ride.PromotionName)
	assertMoney(t, "49.00", ride.Subtotal, "subtotal")
}
