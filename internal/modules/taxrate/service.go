// README: Tax-rate service; cached reads and external refreshes are separate operations.
package taxrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// staleBatchSize caps one pass of RefreshStale.
const staleBatchSize = 500

type Repository interface {
	Get(ctx context.Context, postalCode string) (*TaxRate, error)
	Upsert(ctx context.Context, r *TaxRate) error
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
}

type Cache interface {
	Get(ctx context.Context, postalCode string) (*TaxRate, bool, error)
	Set(ctx context.Context, r TaxRate) error
}

type Fetcher interface {
	Fetch(ctx context.Context, postalCode string) (Quote, error)
}

type Options struct {
	DefaultRate decimal.Decimal
	MaxAge      time.Duration
	// RefreshTimeout bounds one shared refresh, fetch and store write
	// together. Defaults to 15s.
	RefreshTimeout time.Duration
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

type Service struct {
	store   Repository
	cache   Cache
	fetcher Fetcher
	opts    Options
	group   singleflight.Group
	logger  zerolog.Logger
}

// NewService wires the rate sources. cache may be nil; a nil fetcher makes
// every refresh use the default rate.
func NewService(store Repository, cache Cache, fetcher Fetcher, opts Options, logger zerolog.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 30 * 24 * time.Hour
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 15 * time.Second
	}
	return &Service{
		store:   store,
		cache:   cache,
		fetcher: fetcher,
		opts:    opts,
		logger:  logger.With().Str("module", "taxrate").Logger(),
	}
}

// Cached returns the stored rate without ever calling the tax-rate API.
func (s *Service) Cached(ctx context.Context, postalCode string) (*TaxRate, error) {
	code, err := NormalizePostalCode(postalCode)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		r, ok, err := s.cache.Get(ctx, code)
		if err != nil {
			s.logger.Warn().Err(err).Str("postal_code", code).Msg("tax rate cache read failed")
		} else if ok {
			lookupTotal.WithLabelValues("cache").Inc()
			return r, nil
		}
	}
	r, err := s.store.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	lookupTotal.WithLabelValues("store").Inc()
	s.cacheSet(ctx, *r)
	return r, nil
}

// Refresh fetches the rate from the API, falling back to the default rate on
// any failure, and stores the result. Concurrent refreshes of one postal code
// share a single call, which outlives the cancellation of whichever caller
// started it.
func (s *Service) Refresh(ctx context.Context, postalCode string) (*TaxRate, error) {
	code, err := NormalizePostalCode(postalCode)
	if err != nil {
		return nil, err
	}
	v, err, _ := s.group.Do(code, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.RefreshTimeout)
		defer cancel()
		return s.refresh(flightCtx, code)
	})
	if err != nil {
		return nil, err
	}
	r := *v.(*TaxRate)
	return &r, nil
}

// Resolve returns a usable rate under the given policy. Only store failures
// are returned; API failures end in the default rate.
func (s *Service) Resolve(ctx context.Context, postalCode string, policy Policy) (*TaxRate, error) {
	if policy == PolicyForceRefresh {
		return s.Refresh(ctx, postalCode)
	}
	r, err := s.Cached(ctx, postalCode)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	found := err == nil

	if policy == PolicyCacheOnly {
		if found {
			return r, nil
		}
		code, _ := NormalizePostalCode(postalCode)
		lookupTotal.WithLabelValues("default").Inc()
		return s.fallback(code, "not cached"), nil
	}
	if found && !r.IsStale(s.opts.Now(), s.opts.MaxAge) {
		return r, nil
	}
	return s.Refresh(ctx, postalCode)
}

// RefreshStale refreshes rows that are stale or came from the fallback and
// returns how many were refreshed.
func (s *Service) RefreshStale(ctx context.Context) (int, error) {
	codes, err := s.store.ListStale(ctx, s.opts.Now().Add(-s.opts.MaxAge), staleBatchSize)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, code := range codes {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		if _, err := s.Refresh(ctx, code); err != nil {
			s.logger.Error().Err(err).Str("postal_code", code).Msg("stale tax rate refresh failed")
			continue
		}
		n++
	}
	return n, nil
}

// RunStaleRefresher runs RefreshStale on the cron schedule until ctx is done.
func (s *Service) RunStaleRefresher(ctx context.Context, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := s.RefreshStale(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("stale tax rate pass failed")
			return
		}
		s.logger.Info().Int("refreshed", n).Msg("stale tax rate pass done")
	})
	if err != nil {
		return fmt.Errorf("taxrate: schedule %q: %w", spec, err)
	}
	c.Start()
	s.logger.Info().Str("schedule", spec).Msg("stale tax rate refresher started")
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (s *Service) refresh(ctx context.Context, code string) (*TaxRate, error) {
	var r *TaxRate
	if s.fetcher == nil {
		r = s.fallback(code, "no tax rate client configured")
	} else if q, err := s.fetcher.Fetch(ctx, code); err != nil {
		s.logger.Warn().Err(err).Str("postal_code", code).Msg("tax rate API failed; using default rate")
		r = s.fallback(code, err.Error())
	} else {
		rate := q.TotalRate
		r = &TaxRate{
			PostalCode:  code,
			TotalRate:   &rate,
			Details:     q.Details,
			Source:      SourceAPI,
			DateUpdated: s.opts.Now(),
		}
	}
	refreshTotal.WithLabelValues(string(r.Source)).Inc()

	if err := s.store.Upsert(ctx, r); err != nil {
		return nil, err
	}
	s.cacheSet(ctx, *r)
	return r, nil
}

func (s *Service) fallback(code, reason string) *TaxRate {
	rate := s.opts.DefaultRate
	details, _ := json.Marshal(map[string]string{"fallback_reason": reason})
	return &TaxRate{
		PostalCode:  code,
		TotalRate:   &rate,
		Details:     details,
		Source:      SourceFallback,
		DateUpdated: s.opts.Now(),
	}
}

func (s *Service) cacheSet(ctx context.Context, r TaxRate) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, r); err != nil {
		s.logger.Warn().Err(err).Str("postal_code", r.PostalCode).Msg("tax rate cache write failed")
	}
}
