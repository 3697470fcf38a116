// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"autorent/internal/http/handlers"
	"autorent/internal/http/middleware"
	"autorent/internal/infra"
)

type RouterDeps struct {
	Quotes       handlers.QuoteService
	Vehicles     handlers.VehicleService
	Reservations handlers.ReservationService
	Promotions   handlers.PromotionService
	Customers    handlers.CustomerService
	TaxRates     handlers.TaxRateService
	Verifier     infra.TokenVerifier
}

func NewRouter(deps RouterDeps, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.Logging(logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	quoteHandler := handlers.NewQuoteHandler(deps.Quotes)
	api.POST("/quotes/rental", quoteHandler.Rental)
	api.POST("/quotes/joy-ride", quoteHandler.JoyRide)
	api.POST("/quotes/performance-experience", quoteHandler.PerformanceExperience)

	vehicleHandler := handlers.NewVehicleHandler(deps.Vehicles)
	api.GET("/vehicles", vehicleHandler.List)
	api.GET("/vehicles/:id", vehicleHandler.Get)

	reservationHandler := handlers.NewReservationHandler(deps.Reservations)
	api.POST("/reservations", reservationHandler.Create)
	api.GET("/reservations/:id", reservationHandler.Get)
	api.POST("/reservations/:id/cancel", reservationHandler.Cancel)

	staff := api.Group("/staff", middleware.Auth(deps.Verifier), middleware.RequireRole(middleware.RoleStaff))

	staffQuotes := handlers.NewStaffQuoteHandler(deps.Quotes)
	staff.POST("/quotes/rental", staffQuotes.Rental)
	staff.POST("/quotes/joy-ride", staffQuotes.JoyRide)
	staff.POST("/quotes/performance-experience", staffQuotes.PerformanceExperience)

	staff.POST("/reservations/:id/confirm", reservationHandler.Confirm)
	staff.POST("/reservations/:id/complete", reservationHandler.Complete)
	staff.POST("/reservations/:id/cancel", reservationHandler.StaffCancel)
	staff.GET("/reservations/:id/events", reservationHandler.Events)

	promotionHandler := handlers.NewPromotionHandler(deps.Promotions)
	staff.GET("/promotions", promotionHandler.List)
	staff.POST("/promotions", promotionHandler.Create)
	staff.DELETE("/promotions/:id", promotionHandler.Delete)
	staff.GET("/coupons/:code", promotionHandler.GetCoupon)
	staff.POST("/coupons", promotionHandler.CreateCoupon)
	staff.DELETE("/coupons/:code", promotionHandler.DeleteCoupon)

	customerHandler := handlers.NewCustomerHandler(deps.Customers)
	staff.PUT("/customers/:email", customerHandler.Put)

	taxRateHandler := handlers.NewTaxRateHandler(deps.TaxRates)
	staff.GET("/tax-rates/:zip", taxRateHandler.Get)
	staff.POST("/tax-rates/:zip/refresh", taxRateHandler.Refresh)

	return r
}
