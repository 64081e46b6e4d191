package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Dan9191/rental-yield/internal/cache"
	"github.com/Dan9191/rental-yield/internal/calculator"
	"github.com/Dan9191/rental-yield/internal/models"
)

type stubProvider struct {
	name  string
	rate  models.UFRate
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) FetchUF(ctx context.Context) (models.UFRate, error) {
	p.calls++
	return p.rate, p.err
}

func TestRateServiceUsesFirstHealthyProvider(t *testing.T) {
	failing := &stubProvider{name: "bcch", err: errors.New("down")}
	invalid := &stubProvider{name: "zero", rate: models.UFRate{Value: 0}}
	healthy := &stubProvider{name: "sii", rate: models.UFRate{Value: 38500.5, Source: "sii"}}
	svc := NewRateService(cache.New[models.UFRate](), time.Hour, discardLogger(), failing, invalid, healthy)

	rate := svc.Current(context.Background())
	assert.Equal(t, 38500.5, rate.Value)
	assert.False(t, rate.Fallback)

	svc.Current(context.Background())
	assert.Equal(t, 1, healthy.calls, "second call served from cache")
}

func TestRateServiceFallback(t *testing.T) {
	now := testStart
	c := cache.New[models.UFRate](cache.WithClock(func() time.Time { return now }))
	p := &stubProvider{name: "bcch", err: errors.New("down")}
	svc := NewRateService(c, time.Hour, discardLogger(), p)

	rate := svc.Current(context.Background())
	assert.True(t, rate.Fallback)
	assert.Equal(t, calculator.DefaultUFValue, rate.Value)
	assert.Equal(t, "fallback", rate.Source)

	svc.Current(context.Background())
	assert.Equal(t, 1, p.calls)

	now = now.Add(2 * time.Minute)
	p.err = nil
	p.rate = models.UFRate{Value: 38000, Source: "bcch"}
	rate = svc.Current(context.Background())
	assert.Equal(t, 38000.0, rate.Value)
	assert.Equal(t, 2, p.calls)
}

func TestRateServiceRefreshReplacesCachedValue(t *testing.T) {
	p := &stubProvider{name: "bcch", rate: models.UFRate{Value: 38000}}
	svc := NewRateService(cache.New[models.UFRate](), time.Hour, discardLogger(), p)
	svc.Current(context.Background())

	p.rate = models.UFRate{Value: 38100}
	svc.Refresh(context.Background())
	assert.Equal(t, 38100.0, svc.Current(context.Background()).Value)
}

type blockingProvider struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (p *blockingProvider) Name() string { return "bcch" }

func (p *blockingProvider) FetchUF(ctx context.Context) (models.UFRate, error) {
	if p.calls.Add(1) == 1 {
		close(p.started)
	}
	<-p.release
	return models.UFRate{Value: 38100, Source: "bcch"}, nil
}

func TestRateServiceConcurrentMissesShareFetch(t *testing.T) {
	p := &blockingProvider{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewRateService(cache.New[models.UFRate](), time.Hour, discardLogger(), p)

	const callers = 8
	results := make([]models.UFRate, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Current(context.Background())
		}(i)
	}

	<-p.started
	close(p.release)
	wg.Wait()

	assert.Equal(t, int32(1), p.calls.Load())
	for _, r := range results {
		assert.Equal(t, 38100.0, r.Value)
	}
}
