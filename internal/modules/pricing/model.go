// README: Price breakdown records and the inputs the calculators read.
package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"autorent/internal/modules/customer"
	"autorent/internal/modules/promotion"
	"autorent/internal/modules/vehicle"
	"autorent/internal/types"
)

var (
	ErrMissingTaxZip = errors.New("tax zip is required")
	ErrBadRequest    = errors.New("bad request")
)

// Discount labels reported for the winning specific discount.
const (
	LabelPromotion = "Promotion discount"
	LabelCoupon    = "Coupon discount"
	LabelCustomer  = "Customer discount"
	LabelMilitary  = "Military discount"
	LabelOneTime   = "One-time discount"
)

// Adjustments are the resolved collaborators and flags shared by every
// calculator. Nil collaborators contribute nothing.
type Adjustments struct {
	Promotion        *promotion.Promotion
	Coupon           *promotion.Coupon
	Customer         *customer.Customer
	TaxZip           string
	TaxRate          decimal.Decimal
	EffectiveDate    time.Time
	// ServiceType is set by the calculator; a coupon scoped to another
	// service contributes nothing.
	ServiceType      promotion.ServiceType
	IsMilitary       bool
	MilitaryPct      decimal.Decimal
	OneTimePct       *decimal.Decimal
	OverrideSubtotal *decimal.Decimal
}

type RentalInput struct {
	Vehicle    vehicle.Vehicle
	NumDays    int
	ExtraMiles int
}

type GuidedInput struct {
	NumDrivers    int
	NumPassengers int
}

// Checkpoint is the running subtotal after one pipeline step.
type Checkpoint struct {
	Step     string      `json:"step"`
	Subtotal types.Money `json:"subtotal"`
}

// Discounts reports every specific-discount candidate and the one applied.
type Discounts struct {
	PromotionName         string         `json:"promotion_name,omitempty"`
	PromotionDiscount     types.Money    `json:"promotion_discount"`
	CouponCode            string         `json:"coupon_code,omitempty"`
	CouponDiscount        types.Money    `json:"coupon_discount"`
	CustomerDiscountPct   *types.Percent `json:"customer_discount_pct,omitempty"`
	CustomerDiscount      types.Money    `json:"customer_discount"`
	MilitaryDiscountPct   *types.Percent `json:"military_discount_pct,omitempty"`
	MilitaryDiscount      types.Money    `json:"military_discount"`
	OneTimeDiscountPct    *types.Percent `json:"one_time_discount_pct,omitempty"`
	OneTimeDiscount       types.Money    `json:"one_time_discount"`
	SpecificDiscount      types.Money    `json:"specific_discount"`
	SpecificDiscountLabel string         `json:"specific_discount_label"`
}

// Totals is the tail of every breakdown. Subtotal is the pre-tax subtotal:
// the override when one was given, otherwise ComputedSubtotal.
type Totals struct {
	ComputedSubtotal types.Money     `json:"computed_subtotal"`
	OverrideSubtotal *types.Money    `json:"override_subtotal,omitempty"`
	Subtotal         types.Money     `json:"subtotal"`
	TaxZip           string          `json:"tax_zip"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	TaxAmount        types.Money     `json:"tax_amount"`
	TotalWithTax     types.Money     `json:"total_with_tax"`
}

// RentalBreakdown is the flat record of a rental quote. It is shown to the
// customer and stored verbatim on the reservation.
type RentalBreakdown struct {
	ServiceType                  promotion.ServiceType `json:"service_type"`
	EffectiveDate                string                `json:"effective_date"`
	VehicleID                    int64                 `json:"vehicle_id"`
	VehicleName                  string                `json:"vehicle_name"`
	NumDays                      int                   `json:"num_days"`
	PricePerDay                  types.Money           `json:"price_per_day"`
	BasePrice                    types.Money           `json:"base_price"`
	MultiDayDiscountPct          types.Percent         `json:"multi_day_discount_pct"`
	MultiDayDiscount             types.Money           `json:"multi_day_discount"`
	PostMultiDayDiscountSubtotal types.Money           `json:"post_multi_day_discount_subtotal"`
	Discounts
	PostSpecificDiscountSubtotal types.Money `json:"post_specific_discount_subtotal"`
	ExtraMiles                   int         `json:"extra_miles"`
	ExtraMilesCost               types.Money `json:"extra_miles_cost"`
	MilesIncluded                int         `json:"miles_included"`
	Totals
	ReservationDeposit types.Money  `json:"reservation_deposit"`
	SecurityDeposit    types.Money  `json:"security_deposit"`
	Checkpoints        []Checkpoint `json:"checkpoints"`
}

// GuidedBreakdown is the flat record of a joy ride or performance
// experience quote.
type GuidedBreakdown struct {
	ServiceType    promotion.ServiceType `json:"service_type"`
	EffectiveDate  string                `json:"effective_date"`
	NumDrivers     int                   `json:"num_drivers"`
	NumPassengers  int                   `json:"num_passengers"`
	HeadcountPrice types.Money           `json:"headcount_price"`
	PassengerPrice types.Money           `json:"passenger_price"`
	BasePrice      types.Money           `json:"base_price"`
	Discounts
	Totals
	Checkpoints []Checkpoint `json:"checkpoints"`
}

func money(d decimal.Decimal) types.Money { return types.NewMoney(d) }

func percentPtr(d decimal.Decimal) *types.Percent {
	p := types.NewPercent(d)
	return &p
}
