package service

import (
	"context"
	"sync"

	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/internal/session"
)

// ProductViewed is sent once per product detail request.
type ProductViewed struct {
	Session *session.Session
	Product *model.Product
}

type ProductViewedReceiver func(ctx context.Context, evt ProductViewed) error

// ProductViewedSignal runs its receivers in connection order and stops at
// the first error.
type ProductViewedSignal struct {
	mu        sync.RWMutex
	receivers []ProductViewedReceiver
}

func NewProductViewedSignal(receivers ...ProductViewedReceiver) *ProductViewedSignal {
	return &ProductViewedSignal{receivers: receivers}
}

func (s *ProductViewedSignal) Connect(r ProductViewedReceiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receivers = append(s.receivers, r)
}

func (s *ProductViewedSignal) Send(ctx context.Context, evt ProductViewed) error {
	s.mu.RLock()
	receivers := s.receivers
	s.mu.RUnlock()

	for _, r := range receivers {
		if err := r(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

type viewIncrementer interface {
	Increment(ctx context.Context, product *model.Product) (int64, error)
}

// PruneRecentViews forgets the session's views older than the window.
func PruneRecentViews(tracker *RecentViewTracker) ProductViewedReceiver {
	return func(ctx context.Context, evt ProductViewed) error {
		if evt.Session == nil {
			return nil
		}
		return tracker.Prune(evt.Session)
	}
}

// CountFirstView increments the product's counter unless the session saw
// the product within the window. Requests without a session are not
// counted.
func CountFirstView(tracker *RecentViewTracker, counter viewIncrementer) ProductViewedReceiver {
	return func(ctx context.Context, evt ProductViewed) error {
		if evt.Session == nil {
			return nil
		}
		first, err := tracker.Record(evt.Session, evt.Product.ID)
		if err != nil || !first {
			return err
		}
		_, err = counter.Increment(ctx, evt.Product)
		return err
	}
}

// NewDefaultProductViewedSignal wires pruning before counting.
func NewDefaultProductViewedSignal(tracker *RecentViewTracker, counter *ViewCounter) *ProductViewedSignal {
	return NewProductViewedSignal(
		PruneRecentViews(tracker),
		CountFirstView(tracker, counter),
	)
}
