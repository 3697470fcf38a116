// README: Reservation handlers for booking, lookup, cancel and staff transitions.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"autorent/internal/http/middleware"
	"autorent/internal/modules/reservation"
	"autorent/internal/types"
)

type ReservationService interface {
	Create(ctx context.Context, cmd reservation.CreateCommand) (*reservation.Reservation, error)
	Get(ctx context.Context, id types.ID) (*reservation.Reservation, error)
	Confirm(ctx context.Context, id types.ID, staffID string) (*reservation.Reservation, error)
	Complete(ctx context.Context, id types.ID, staffID string) (*reservation.Reservation, error)
	Cancel(ctx context.Context, cmd reservation.CancelCommand) (*reservation.Reservation, error)
	Events(ctx context.Context, id types.ID) ([]reservation.Event, error)
}

type ReservationHandler struct {
	reservations ReservationService
}

func NewReservationHandler(svc ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: svc}
}

type createReservationReq struct {
	VehicleID  int64  `json:"vehicle_id"`
	Email      string `json:"email"`
	StartDate  string `json:"start_date"`
	NumDays    int    `json:"num_days"`
	ExtraMiles int    `json:"extra_miles"`
	CouponCode string `json:"coupon_code"`
	TaxZip     string `json:"tax_zip"`
	TaxAddress string `json:"tax_address"`
	IsMilitary bool   `json:"is_military"`
}

type cancelReservationReq struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

func (h *ReservationHandler) Create(c *gin.Context) {
	var req createReservationReq
	if !bindJSON(c, &req) {
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil || start == nil {
		writeError(c, http.StatusBadRequest, "invalid start_date")
		return
	}
	r, err := h.reservations.Create(c.Request.Context(), reservation.CreateCommand{
		VehicleID:  req.VehicleID,
		Email:      req.Email,
		StartDate:  *start,
		NumDays:    req.NumDays,
		ExtraMiles: req.ExtraMiles,
		CouponCode: req.CouponCode,
		TaxZip:     req.TaxZip,
		TaxAddress: req.TaxAddress,
		IsMilitary: req.IsMilitary,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, r)
}

func (h *ReservationHandler) Get(c *gin.Context) {
	r, err := h.reservations.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *ReservationHandler) Cancel(c *gin.Context) {
	var req cancelReservationReq
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.reservations.Cancel(c.Request.Context(), reservation.CancelCommand{
		ReservationID: types.ID(c.Param("id")),
		ActorType:     reservation.ActorCustomer,
		Email:         req.Email,
		Reason:        req.Reason,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *ReservationHandler) Confirm(c *gin.Context) {
	r, err := h.reservations.Confirm(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerUID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *ReservationHandler) Complete(c *gin.Context) {
	r, err := h.reservations.Complete(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerUID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *ReservationHandler) StaffCancel(c *gin.Context) {
	var req cancelReservationReq
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.reservations.Cancel(c.Request.Context(), reservation.CancelCommand{
		ReservationID: types.ID(c.Param("id")),
		ActorType:     reservation.ActorStaff,
		ActorID:       middleware.CallerUID(c),
		Reason:        req.Reason,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *ReservationHandler) Events(c *gin.Context) {
	events, err := h.reservations.Events(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"events": events})
}
