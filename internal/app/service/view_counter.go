package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/internal/app/repository"
	"github.com/ikkim/atelier-catalog/internal/cache"
	"github.com/ikkim/atelier-catalog/pkg/logger"
)

// neverSaved stands in for a missing last-flush timestamp.
var neverSaved = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// ViewCounter counts product views in the cache and writes the running
// total to products.views at most once per flush interval per product.
type ViewCounter struct {
	cache         cache.ViewCache
	products      repository.ProductRepository
	flushInterval time.Duration
	now           Clock
}

func NewViewCounter(viewCache cache.ViewCache, products repository.ProductRepository, flushInterval time.Duration, now Clock) *ViewCounter {
	return &ViewCounter{
		cache:         viewCache,
		products:      products,
		flushInterval: flushInterval,
		now:           now.orDefault(),
	}
}

// Increment counts one view of product and returns the running total.
// When the cache is unreachable the count falls back to the durable value
// plus one and is flushed immediately. Flush failures are returned.
func (c *ViewCounter) Increment(ctx context.Context, product *model.Product) (int64, error) {
	lastSaved := neverSaved

	count, err := c.cache.Increment(ctx, product.ID, product.Views)
	if err != nil {
		logger.Warn("View cache unavailable, counting from durable value", map[string]interface{}{
			"product_id": product.ID,
			"error":      err.Error(),
		})
		count = product.Views + 1
	} else if at, ok, err := c.cache.LastSaved(ctx, product.ID); err != nil {
		logger.Warn("Failed to read last view flush time", map[string]interface{}{
			"product_id": product.ID,
			"error":      err.Error(),
		})
	} else if ok {
		lastSaved = at
	}

	now := c.now()
	if now.Sub(lastSaved) <= c.flushInterval {
		return count, nil
	}
	if err := c.flush(ctx, product.ID, count, now); err != nil {
		return count, err
	}
	product.Views = count
	return count, nil
}

func (c *ViewCounter) flush(ctx context.Context, productID uint, count int64, now time.Time) error {
	if err := c.products.UpdateViews(ctx, productID, count); err != nil {
		return fmt.Errorf("flush views of product %d: %w", productID, err)
	}
	if err := c.cache.SetLastSaved(ctx, productID, now); err != nil {
		logger.Warn("Failed to record view flush time", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
	}
	logger.Debug("Product views flushed", map[string]interface{}{
		"product_id": productID,
		"views":      count,
	})
	return nil
}

// FlushStale writes every cached counter whose last flush is older than
// the interval, so products that stopped being viewed still reach the
// database before their counter expires. It returns how many were written.
func (c *ViewCounter) FlushStale(ctx context.Context) (int, error) {
	ids, err := c.cache.PendingProductIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending view counters: %w", err)
	}

	var (
		flushed int
		errs    []error
	)
	now := c.now()
	for _, id := range ids {
		count, ok, err := c.cache.Count(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}

		lastSaved := neverSaved
		if at, ok, err := c.cache.LastSaved(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		} else if ok {
			lastSaved = at
		}
		if now.Sub(lastSaved) <= c.flushInterval {
			continue
		}

		if err := c.flush(ctx, id, count, now); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		flushed++
	}

	return flushed, errors.Join(errs...)
}
