// README: Staff handler for customer loyalty discounts.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"autorent/internal/modules/customer"
	"autorent/internal/types"
)

type CustomerService interface {
	Save(ctx context.Context, c customer.Customer) (*customer.Customer, error)
}

type CustomerHandler struct {
	customers CustomerService
}

func NewCustomerHandler(svc CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: svc}
}

type customerReq struct {
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	DiscountPct *decimal.Decimal `json:"discount_pct"`
}

type customerResp struct {
	ID          int64          `json:"id"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	DiscountPct *types.Percent `json:"discount_pct,omitempty"`
}

// Put upserts the customer keyed by the email in the path.
func (h *CustomerHandler) Put(c *gin.Context) {
	var req customerReq
	if !bindJSON(c, &req) {
		return
	}
	saved, err := h.customers.Save(c.Request.Context(), customer.Customer{
		Email:       c.Param("email"),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DiscountPct: req.DiscountPct,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, customerResp{
		ID:          saved.ID,
		Email:       saved.Email,
		FirstName:   saved.FirstName,
		LastName:    saved.LastName,
		DiscountPct: optPercent(saved.DiscountPct),
	})
}
