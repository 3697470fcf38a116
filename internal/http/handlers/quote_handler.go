// README: Quote handlers for rentals and guided drives.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"autorent/internal/modules/pricing"
)

type QuoteService interface {
	QuoteRental(ctx context.Context, req pricing.RentalQuoteRequest) (*pricing.RentalBreakdown, error)
	QuoteJoyRide(ctx context.Context, req pricing.GuidedQuoteRequest) (*pricing.GuidedBreakdown, error)
	QuotePerformanceExperience(ctx context.Context, req pricing.GuidedQuoteRequest) (*pricing.GuidedBreakdown, error)
}

type QuoteHandler struct {
	pricing QuoteService
	// staff unlocks the one-time discount and subtotal override.
	staff bool
}

func NewQuoteHandler(svc QuoteService) *QuoteHandler {
	return &QuoteHandler{pricing: svc}
}

// NewStaffQuoteHandler accepts the staff-only adjustments.
func NewStaffQuoteHandler(svc QuoteService) *QuoteHandler {
	return &QuoteHandler{pricing: svc, staff: true}
}

type quoteOptionsReq struct {
	CouponCode         string           `json:"coupon_code"`
	Email              string           `json:"email"`
	TaxZip             string           `json:"tax_zip"`
	TaxAddress         string           `json:"tax_address"`
	EffectiveDate      string           `json:"effective_date"`
	IsMilitary         bool             `json:"is_military"`
	OneTimeDiscountPct *decimal.Decimal `json:"one_time_discount_pct"`
	OverrideSubtotal   *decimal.Decimal `json:"override_subtotal"`
}

type rentalQuoteReq struct {
	quoteOptionsReq
	VehicleID  int64 `json:"vehicle_id"`
	NumDays    int   `json:"num_days"`
	ExtraMiles int   `json:"extra_miles"`
}

type guidedQuoteReq struct {
	quoteOptionsReq
	NumDrivers    int `json:"num_drivers"`
	NumPassengers int `json:"num_passengers"`
}

func (h *QuoteHandler) Rental(c *gin.Context) {
	var req rentalQuoteReq
	if !bindJSON(c, &req) {
		return
	}
	opts, ok := h.options(c, req.quoteOptionsReq)
	if !ok {
		return
	}
	b, err := h.pricing.QuoteRental(c.Request.Context(), pricing.RentalQuoteRequest{
		QuoteOptions: opts,
		VehicleID:    req.VehicleID,
		NumDays:      req.NumDays,
		ExtraMiles:   req.ExtraMiles,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *QuoteHandler) JoyRide(c *gin.Context) {
	h.guided(c, h.pricing.QuoteJoyRide)
}

func (h *QuoteHandler) PerformanceExperience(c *gin.Context) {
	h.guided(c, h.pricing.QuotePerformanceExperience)
}

func (h *QuoteHandler) guided(c *gin.Context, quote func(context.Context, pricing.GuidedQuoteRequest) (*pricing.GuidedBreakdown, error)) {
	var req guidedQuoteReq
	if !bindJSON(c, &req) {
		return
	}
	opts, ok := h.options(c, req.quoteOptionsReq)
	if !ok {
		return
	}
	b, err := quote(c.Request.Context(), pricing.GuidedQuoteRequest{
		QuoteOptions:  opts,
		NumDrivers:    req.NumDrivers,
		NumPassengers: req.NumPassengers,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *QuoteHandler) options(c *gin.Context, req quoteOptionsReq) (pricing.QuoteOptions, bool) {
	if !h.staff && (req.OneTimeDiscountPct != nil || req.OverrideSubtotal != nil) {
		writeError(c, http.StatusForbidden, "staff only field")
		return pricing.QuoteOptions{}, false
	}
	day, err := parseDate(req.EffectiveDate)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid effective_date")
		return pricing.QuoteOptions{}, false
	}
	return pricing.QuoteOptions{
		CouponCode:         req.CouponCode,
		Email:              req.Email,
		TaxZip:             req.TaxZip,
		TaxAddress:         req.TaxAddress,
		EffectiveDate:      day,
		IsMilitary:         req.IsMilitary,
		OneTimeDiscountPct: req.OneTimeDiscountPct,
		OverrideSubtotal:   req.OverrideSubtotal,
	}, true
}
