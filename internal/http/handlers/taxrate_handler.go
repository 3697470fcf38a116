// README: Staff handlers for inspecting and refreshing tax rates.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"autorent/internal/modules/taxrate"
)

type TaxRateService interface {
	Cached(ctx context.Context, postalCode string) (*taxrate.TaxRate, error)
	Refresh(ctx context.Context, postalCode string) (*taxrate.TaxRate, error)
}

type TaxRateHandler struct {
	rates TaxRateService
}

func NewTaxRateHandler(svc TaxRateService) *TaxRateHandler {
	return &TaxRateHandler{rates: svc}
}

func (h *TaxRateHandler) Get(c *gin.Context) {
	r, err := h.rates.Cached(c.Request.Context(), c.Param("zip"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *TaxRateHandler) Refresh(c *gin.Context) {
	r, err := h.rates.Refresh(c.Request.Context(), c.Param("zip"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}
