// README: Entry point; loads config, wires services, starts HTTP server and background schedulers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"autorent/internal/config"
	httptransport "autorent/internal/http"
	"autorent/internal/infra"
	"autorent/internal/maps"
	"autorent/internal/modules/customer"
	"autorent/internal/modules/pricing"
	"autorent/internal/modules/promotion"
	"autorent/internal/modules/reservation"
	"autorent/internal/modules/taxrate"
	"autorent/internal/modules/vehicle"
)

func main() {
	cfg, err := config.Load()
	logger := infra.NewLogger(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		logger.Warn().Msg("AUTORENT_FIREBASE_PROJECT_ID not set; staff routes will reject every request")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("firebase init")
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres init")
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis init")
	}
	defer redisClient.Close()

	taxPolicy, err := taxrate.ParsePolicy(cfg.Tax.Policy)
	if err != nil {
		logger.Fatal().Err(err).Msg("tax policy")
	}

	vehicleSvc := vehicle.NewService(vehicle.NewStore(dbPool))
	customerSvc := customer.NewService(customer.NewStore(dbPool))
	promotionSvc := promotion.NewService(promotion.NewStore(dbPool), logger)

	var fetcher taxrate.Fetcher
	if cfg.Tax.AccountID != "" && cfg.Tax.LicenseKey != "" {
		fetcher = taxrate.NewClient(taxrate.ClientConfig{
			BaseURL:    cfg.Tax.APIBaseURL,
			AccountID:  cfg.Tax.AccountID,
			LicenseKey: cfg.Tax.LicenseKey,
			Country:    cfg.Tax.Country,
			Timeout:    cfg.Tax.RequestTimeout,
		})
	} else {
		logger.Warn().Str("default_rate", cfg.Tax.DefaultRate.String()).Msg("tax-rate API credentials not set; using the default rate")
	}
	taxSvc := taxrate.NewService(
		taxrate.NewStore(dbPool),
		taxrate.NewRedisCache(redisClient, cfg.Tax.CacheTTL),
		fetcher,
		taxrate.Options{
			DefaultRate:    cfg.Tax.DefaultRate,
			MaxAge:         cfg.Tax.MaxAge,
			RefreshTimeout: 2 * cfg.Tax.RequestTimeout,
		},
		logger,
	)

	pricingOpts := pricing.Options{
		Promotions: promotionSvc,
		Customers:  customerSvc,
		Vehicles:   vehicleSvc,
		TaxRates:   taxSvc,
		RateSheet:  cfg.RateSheet,
		TaxPolicy:  taxPolicy,
	}
	if cfg.Maps.APIKey != "" {
		postal, err := maps.NewPostalService(cfg.Maps.APIKey, cfg.Tax.Country)
		if err != nil {
			logger.Fatal().Err(err).Msg("maps init")
		}
		pricingOpts.Postal = postal
	}
	pricingSvc := pricing.NewService(pricingOpts, logger)

	reservationSvc := reservation.NewService(reservation.NewStore(dbPool), pricingSvc, logger)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Quotes:       pricingSvc,
		Vehicles:     vehicleSvc,
		Reservations: reservationSvc,
		Promotions:   promotionSvc,
		Customers:    customerSvc,
		TaxRates:     taxSvc,
		Verifier:     verifier,
	}, logger)

	go func() {
		if err := taxSvc.RunStaleRefresher(ctx, cfg.Tax.RefreshCron); err != nil {
			logger.Error().Err(err).Msg("tax-rate refresher stopped")
		}
	}()

	server := httptransport.NewServer(cfg.HTTP.Addr, router, logger)
	if err := server.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("http server")
	}
}
