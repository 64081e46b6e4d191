package service

import (
	"context"
	"time"

	"github.com/Dan9191/rental-yield/internal/cache"
	"github.com/Dan9191/rental-yield/internal/calculator"
	"github.com/Dan9191/rental-yield/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	ufCacheKey  = "uf"
	fallbackTTL = time.Minute
)

// RateProvider fetches the current UF value from one source
type RateProvider interface {
	Name() string
	FetchUF(ctx context.Context) (models.UFRate, error)
}

// RateService serves the UF value from a cache backed by a chain of providers
type RateService struct {
	providers []RateProvider
	cache     *cache.Cache[models.UFRate]
	ttl       time.Duration
	log       *logrus.Logger
	now       func() time.Time
	group     singleflight.Group
}

// NewRateService creates a rate service trying providers in order
func NewRateService(c *cache.Cache[models.UFRate], ttl time.Duration, log *logrus.Logger, providers ...RateProvider) *RateService {
	return &RateService{
		providers: providers,
		cache:     c,
		ttl:       ttl,
		log:       log,
		now:       time.Now,
	}
}

// Current returns the cached UF value, refreshing it when missing or expired.
// Concurrent misses share a single provider round.
func (s *RateService) Current(ctx context.Context) models.UFRate {
	if rate, ok := s.cache.Get(ufCacheKey); ok {
		return rate
	}
	v, _, _ := s.group.Do(ufCacheKey, func() (any, error) {
		if rate, ok := s.cache.Get(ufCacheKey); ok {
			return rate, nil
		}
		return s.fetch(ctx), nil
	})
	return v.(models.UFRate)
}

// Refresh queries the providers regardless of the cached value
func (s *RateService) Refresh(ctx context.Context) models.UFRate {
	v, _, _ := s.group.Do(ufCacheKey, func() (any, error) {
		return s.fetch(ctx), nil
	})
	return v.(models.UFRate)
}

// fetch caches the first valid provider answer. When all of them fail the
// fixed fallback value is cached briefly and returned.
func (s *RateService) fetch(ctx context.Context) models.UFRate {
	for _, p := range s.providers {
		rate, err := p.FetchUF(ctx)
		if err != nil {
			s.log.WithError(err).WithField("provider", p.Name()).Warn("UF provider failed")
			continue
		}
		if rate.Value <= 0 {
			s.log.WithField("provider", p.Name()).Warnf("UF provider returned invalid value %.2f", rate.Value)
			continue
		}
		s.cache.SetTTL(ufCacheKey, rate, s.ttl)
		return rate
	}

	rate := models.UFRate{
		Value:    calculator.DefaultUFValue,
		Source:   "fallback",
		Fallback: true,
		Fetched:  s.now(),
	}
	s.cache.SetTTL(ufCacheKey, rate, fallbackTTL)
	s.log.Warnf("All UF providers failed, using fallback %.0f", rate.Value)
	return rate
}
