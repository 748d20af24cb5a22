package quote

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type cachedPrice struct {
	price     decimal.Decimal
	fetchedAt time.Time
}

// DebouncedGasPrice coalesces gas price lookups: a lookup within the
// debounce window of a successful fetch for the same token/network pair
// reuses that result instead of hitting the oracle again. Failures are
// never cached.
type DebouncedGasPrice struct {
	src    GasPriceSource
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache map[gasPriceKey]cachedPrice
}

type gasPriceKey struct {
	tokenAddress string
	networkID    int64
}

// NewDebouncedGasPrice wraps src with a debounce window.
func NewDebouncedGasPrice(src GasPriceSource, window time.Duration) *DebouncedGasPrice {
	return &DebouncedGasPrice{
		src:    src,
		window: window,
		now:    time.Now,
		cache:  make(map[gasPriceKey]cachedPrice),
	}
}

// TokenGasPrice implements GasPriceSource.
func (d *DebouncedGasPrice) TokenGasPrice(ctx context.Context, tokenAddress string, networkID int64) (decimal.Decimal, error) {
	key := gasPriceKey{tokenAddress: tokenAddress, networkID: networkID}

	d.mu.Lock()
	if entry, ok := d.cache[key]; ok && d.now().Sub(entry.fetchedAt) < d.window {
		d.mu.Unlock()
		return entry.price, nil
	}
	d.mu.Unlock()

	price, err := d.src.TokenGasPrice(ctx, tokenAddress, networkID)
	if err != nil {
		return decimal.Zero, err
	}

	d.mu.Lock()
	d.cache[key] = cachedPrice{price: price, fetchedAt: d.now()}
	d.mu.Unlock()

	return price, nil
}
