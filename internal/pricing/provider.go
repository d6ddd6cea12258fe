package pricing

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redresshq/redress/internal/domain"
)

// ErrPriceUnavailable means the lookup collaborator could not produce a
// price. Callers treat it as "no new information", never as a crash.
var ErrPriceUnavailable = errors.New("price unavailable")

// NullProvider always reports the price as unavailable. Used when no
// PAAPI credentials are configured.
type NullProvider struct{}

func NewNullProvider() *NullProvider { return &NullProvider{} }

func (p *NullProvider) Price(ctx context.Context, asin string) (float64, error) {
	return 0, ErrPriceUnavailable
}

// CachingProvider memoizes successful lookups with a TTL so repeated
// turns about the same item don't hammer the upstream API.
type CachingProvider struct {
	inner domain.PriceProvider
	cache *gocache.Cache
	ttl   time.Duration
}

func NewCachingProvider(inner domain.PriceProvider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (p *CachingProvider) Price(ctx context.Context, asin string) (float64, error) {
	if v, found := p.cache.Get(asin); found {
		return v.(float64), nil
	}

	price, err := p.inner.Price(ctx, asin)
	if err != nil {
		return 0, err
	}

	p.cache.Set(asin, price, p.ttl)
	return price, nil
}
