// README: Staff handlers for promotions and coupon codes.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"autorent/internal/modules/promotion"
	"autorent/internal/types"
)

type PromotionService interface {
	ListPromotions(ctx context.Context, activeOn *time.Time) ([]promotion.Promotion, error)
	CreatePromotion(ctx context.Context, cmd promotion.CreatePromotionCommand) (*promotion.Promotion, error)
	DeletePromotion(ctx context.Context, id int64) error
	CouponByCode(ctx context.Context, code string) (*promotion.Coupon, error)
	CreateCoupon(ctx context.Context, cmd promotion.CreateCouponCommand) (*promotion.Coupon, error)
	DeleteCoupon(ctx context.Context, code string) error
}

type PromotionHandler struct {
	promotions PromotionService
}

func NewPromotionHandler(svc PromotionService) *PromotionHandler {
	return &PromotionHandler{promotions: svc}
}

type promotionReq struct {
	Name        string           `json:"name"`
	Amount      *decimal.Decimal `json:"amount"`
	Percent     *decimal.Decimal `json:"percent"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
	ServiceType string           `json:"service_type"`
}

type couponReq struct {
	promotionReq
	Code string `json:"code"`
}

type promotionResp struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Amount      *types.Money   `json:"amount,omitempty"`
	Percent     *types.Percent `json:"percent,omitempty"`
	StartDate   *string        `json:"start_date,omitempty"`
	EndDate     *string        `json:"end_date,omitempty"`
	ServiceType *string        `json:"service_type,omitempty"`
}

type couponResp struct {
	promotionResp
	Code string `json:"code"`
}

func toPromotionResp(p promotion.Promotion) promotionResp {
	out := promotionResp{
		ID:        p.ID,
		Name:      p.Name,
		Amount:    optMoney(p.Amount),
		Percent:   optPercent(p.Percent),
		StartDate: optDate(p.StartDate),
		EndDate:   optDate(p.EndDate),
	}
	if p.ServiceType != nil {
		st := string(*p.ServiceType)
		out.ServiceType = &st
	}
	return out
}

func (req promotionReq) command() (promotion.CreatePromotionCommand, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return promotion.CreatePromotionCommand{}, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return promotion.CreatePromotionCommand{}, err
	}
	cmd := promotion.CreatePromotionCommand{
		Name:      req.Name,
		Amount:    req.Amount,
		Percent:   req.Percent,
		StartDate: start,
		EndDate:   end,
	}
	if st := strings.TrimSpace(req.ServiceType); st != "" {
		v := promotion.ServiceType(st)
		cmd.ServiceType = &v
	}
	return cmd, nil
}

func (h *PromotionHandler) List(c *gin.Context) {
	activeOn, err := parseDate(c.Query("active_on"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid active_on")
		return
	}
	ps, err := h.promotions.ListPromotions(c.Request.Context(), activeOn)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]promotionResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPromotionResp(p))
	}
	writeJSON(c, http.StatusOK, gin.H{"promotions": out})
}

func (h *PromotionHandler) Create(c *gin.Context) {
	var req promotionReq
	if !bindJSON(c, &req) {
		return
	}
	cmd, err := req.command()
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid date")
		return
	}
	p, err := h.promotions.CreatePromotion(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toPromotionResp(*p))
}

func (h *PromotionHandler) Delete(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.promotions.DeletePromotion(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PromotionHandler) GetCoupon(c *gin.Context) {
	cp, err := h.promotions.CouponByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, couponResp{promotionResp: toPromotionResp(cp.Promotion), Code: cp.Code})
}

func (h *PromotionHandler) CreateCoupon(c *gin.Context) {
	var req couponReq
	if !bindJSON(c, &req) {
		return
	}
	cmd, err := req.command()
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid date")
		return
	}
	cp, err := h.promotions.CreateCoupon(c.Request.Context(), promotion.CreateCouponCommand{
		CreatePromotionCommand: cmd,
		Code:                   req.Code,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, couponResp{promotionResp: toPromotionResp(cp.Promotion), Code: cp.Code})
}

func (h *PromotionHandler) DeleteCoupon(c *gin.Context) {
	if err := h.promotions.DeleteCoupon(c.Request.Context(), c.Param("code")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
