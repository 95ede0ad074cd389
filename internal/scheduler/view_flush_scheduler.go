package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/atelier-catalog/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ViewFlusher writes cached view counts that have waited longer than the
// flush interval back to the database.
type ViewFlusher interface {
	FlushStale(ctx context.Context) (int, error)
}

// ViewFlushScheduler periodically sweeps counters of products nobody has
// opened since their last flush, which the request path would otherwise
// never write back.
type ViewFlushScheduler struct {
	cron    *cron.Cron
	spec    string
	flusher ViewFlusher
	timeout time.Duration
}

func NewViewFlushScheduler(spec string, flusher ViewFlusher) *ViewFlushScheduler {
	return &ViewFlushScheduler{
		cron:    cron.New(),
		spec:    spec,
		flusher: flusher,
		timeout: 5 * time.Minute,
	}
}

// Start registers the sweep and starts the cron runner.
func (s *ViewFlushScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		logger.Error("Failed to add cron job for view flush", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("View flush scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

func (s *ViewFlushScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	logger.Debug("Starting scheduled view flush")
	flushed, err := s.flusher.FlushStale(ctx)
	if err != nil {
		logger.Error("Scheduled view flush finished with errors", err, map[string]interface{}{
			"flushed": flushed,
		})
		return
	}
	logger.Info("Scheduled view flush completed", map[string]interface{}{
		"flushed": flushed,
	})
}

// Stop waits for a running sweep to finish.
func (s *ViewFlushScheduler) Stop() {
	logger.Info("Stopping view flush scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("View flush scheduler stopped")
}
