// Package enrich looks up display names for symbols.
package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	yfgo "github.com/komsit37/yf-go"
	"go.uber.org/zap"

	"RangeScout/internal/model"
)

// NameService resolves a symbol to a company name.
type NameService interface {
	Name(ctx context.Context, sym model.Symbol) (string, error)
}

// YFService implements NameService using yf-go's quote summary.
type YFService struct {
	client  *yfgo.Client
	timeout time.Duration
}

func NewYFService(timeout time.Duration) *YFService {
	return &YFService{client: yfgo.NewClient(), timeout: timeout}
}

func (s *YFService) Name(ctx context.Context, sym model.Symbol) (string, error) {
	if sym == "" {
		return "", nil
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.client.QuoteSummaryTyped(cctx, string(sym), []yfgo.QuoteSummaryModule{yfgo.ModulePrice})
	if err != nil {
		return "", err
	}
	if res.Price == nil {
		return "", fmt.Errorf("no price module for %s", sym)
	}
	if res.Price.ShortName != "" {
		return res.Price.ShortName, nil
	}
	return res.Price.LongName, nil
}

// CacheService decorates a NameService with a TTL+LRU cache.
type CacheService struct {
	next NameService
	ttl  time.Duration
	size int

	mu    sync.Mutex
	items map[model.Symbol]cacheEntry
	order []model.Symbol // oldest at index 0
}

type cacheEntry struct {
	at   time.Time
	name string
}

func NewCacheService(next NameService, ttl time.Duration, size int) *CacheService {
	if size < 1 {
		size = 1
	}
	return &CacheService{next: next, ttl: ttl, size: size, items: make(map[model.Symbol]cacheEntry)}
}

func (c *CacheService) Name(ctx context.Context, sym model.Symbol) (string, error) {
	if sym == "" {
		return "", nil
	}
	now := time.Now()
	c.mu.Lock()
	if ent, ok := c.items[sym]; ok {
		if now.Sub(ent.at) <= c.ttl {
			c.touchLocked(sym)
			c.mu.Unlock()
			return ent.name, nil
		}
		delete(c.items, sym)
		c.removeLocked(sym)
	}
	c.mu.Unlock()

	name, err := c.next.Name(ctx, sym)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	if _, ok := c.items[sym]; ok {
		c.removeLocked(sym)
	}
	c.items[sym] = cacheEntry{at: now, name: name}
	c.order = append(c.order, sym)
	for len(c.items) > c.size && len(c.order) > 0 {
		old := c.order[0]
		c.order = c.order[1:]
		delete(c.items, old)
	}
	c.mu.Unlock()
	return name, nil
}

func (c *CacheService) touchLocked(sym model.Symbol) {
	c.removeLocked(sym)
	c.order = append(c.order, sym)
}

func (c *CacheService) removeLocked(sym model.Symbol) {
	for i, v := range c.order {
		if v == sym {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Names resolves names for syms with up to workers concurrent lookups.
// Lookups that fail are logged and left out of the map.
func Names(ctx context.Context, svc NameService, syms []model.Symbol, workers int, logger *zap.Logger) map[model.Symbol]string {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	out := make(map[model.Symbol]string, len(syms))
	var mu sync.Mutex
	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, sym := range syms {
		wg.Add(1)
		go func(sym model.Symbol) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			name, err := svc.Name(ctx, sym)
			if err != nil {
				logger.Debug("name lookup failed", zap.String("symbol", string(sym)), zap.Error(err))
				return
			}
			if name == "" {
				return
			}
			mu.Lock()
			out[sym] = name
			mu.Unlock()
		}(sym)
	}
	wg.Wait()
	return out
}
