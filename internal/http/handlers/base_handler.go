// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"autorent/internal/modules/customer"
	"autorent/internal/modules/pricing"
	"autorent/internal/modules/promotion"
	"autorent/internal/modules/reservation"
	"autorent/internal/modules/taxrate"
	"autorent/internal/modules/vehicle"
	"autorent/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

var errInvalidJSON = errors.New("invalid json")

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps module sentinels to status codes. Anything
// unrecognised is a 500 with a generic message; the cause is attached to
// the context for the request log.
func writeServiceError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, pricing.ErrMissingTaxZip):
		writeError(c, http.StatusBadRequest, pricing.ErrMissingTaxZip.Error())
	case errors.Is(err, pricing.ErrBadRequest),
		errors.Is(err, promotion.ErrBadRequest),
		errors.Is(err, customer.ErrBadRequest),
		errors.Is(err, reservation.ErrBadRequest),
		errors.Is(err, taxrate.ErrInvalidPostalCode):
		writeError(c, http.StatusBadRequest, "bad request")
	case errors.Is(err, vehicle.ErrNotFound),
		errors.Is(err, promotion.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, reservation.ErrNotFound),
		errors.Is(err, taxrate.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, promotion.ErrDuplicateCode),
		errors.Is(err, reservation.ErrConflict),
		errors.Is(err, reservation.ErrInvalidState):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// bindJSON decodes the body and writes a 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusBadRequest, errInvalidJSON.Error())
		return false
	}
	return true
}

// parseDate reads an optional YYYY-MM-DD value.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func optPercent(d *decimal.Decimal) *types.Percent {
	if d == nil {
		return nil
	}
	p := types.NewPercent(*d)
	return &p
}

func optMoney(d *decimal.Decimal) *types.Money {
	if d == nil {
		return nil
	}
	m := types.NewMoney(*d)
	return &m
}

func optDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(types.DateLayout)
	return &s
}
