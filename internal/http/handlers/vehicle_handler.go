// README: Vehicle handlers for the public catalogue.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"autorent/internal/modules/vehicle"
	"autorent/internal/types"
)

type VehicleService interface {
	Get(ctx context.Context, id int64) (*vehicle.Vehicle, error)
	List(ctx context.Context) ([]vehicle.Vehicle, error)
}

type VehicleHandler struct {
	vehicles VehicleService
}

func NewVehicleHandler(svc VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicles: svc}
}

type vehicleResp struct {
	ID              int64          `json:"id"`
	Slug            string         `json:"slug"`
	Name            string         `json:"name"`
	PricePerDay     types.Money    `json:"price_per_day"`
	Discount2Day    *types.Percent `json:"discount_2_day,omitempty"`
	Discount3Day    *types.Percent `json:"discount_3_day,omitempty"`
	Discount7Day    *types.Percent `json:"discount_7_day,omitempty"`
	SecurityDeposit types.Money    `json:"security_deposit"`
	MilesIncluded   int            `json:"miles_included"`
}

func toVehicleResp(v vehicle.Vehicle) vehicleResp {
	return vehicleResp{
		ID:              v.ID,
		Slug:            v.Slug,
		Name:            v.Name,
		PricePerDay:     types.NewMoney(v.PricePerDay),
		Discount2Day:    optPercent(v.Discount2Day),
		Discount3Day:    optPercent(v.Discount3Day),
		Discount7Day:    optPercent(v.Discount7Day),
		SecurityDeposit: types.NewMoney(v.SecurityDeposit),
		MilesIncluded:   v.MilesIncluded,
	}
}

func (h *VehicleHandler) List(c *gin.Context) {
	vs, err := h.vehicles.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]vehicleResp, 0, len(vs))
	for _, v := range vs {
		out = append(out, toVehicleResp(v))
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": out})
}

func (h *VehicleHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	v, err := h.vehicles.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toVehicleResp(*v))
}
