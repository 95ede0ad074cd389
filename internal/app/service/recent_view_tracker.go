package service

import (
	"strconv"
	"time"

	"github.com/ikkim/atelier-catalog/internal/session"
	"github.com/ikkim/atelier-catalog/pkg/logger"
)

const (
	ViewedSessionKey = "viewed"
	viewedTimeLayout = "2006-01-02 15:04:05"
)

// RecentViewTracker remembers, per session, which products were opened
// within the window so repeated visits count once.
type RecentViewTracker struct {
	window time.Duration
	now    Clock
}

func NewRecentViewTracker(window time.Duration, now Clock) *RecentViewTracker {
	return &RecentViewTracker{window: window, now: now.orDefault()}
}

// viewed returns the session's product-id -> timestamp map. A value that
// cannot be decoded is replaced by an empty map and reported as changed.
func (t *RecentViewTracker) viewed(sess *session.Session) (map[string]string, bool) {
	viewed := map[string]string{}
	if _, err := sess.Get(ViewedSessionKey, &viewed); err != nil {
		logger.Warn("Discarding unreadable recently viewed entries", map[string]interface{}{
			"session_id": sess.ID(),
			"error":      err.Error(),
		})
		return map[string]string{}, true
	}
	return viewed, false
}

// Prune drops entries at least one window old, and entries whose
// timestamp does not parse.
func (t *RecentViewTracker) Prune(sess *session.Session) error {
	viewed, changed := t.viewed(sess)
	now := t.now().UTC()

	for id, stamp := range viewed {
		at, err := time.ParseInLocation(viewedTimeLayout, stamp, time.UTC)
		if err != nil || now.Sub(at) >= t.window {
			delete(viewed, id)
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return sess.Set(ViewedSessionKey, viewed)
}

// Record marks productID as viewed now. It returns false, leaving the
// session untouched, when the product is already recorded.
func (t *RecentViewTracker) Record(sess *session.Session, productID uint) (bool, error) {
	viewed, _ := t.viewed(sess)
	key := strconv.FormatUint(uint64(productID), 10)
	if _, seen := viewed[key]; seen {
		return false, nil
	}

	viewed[key] = t.now().UTC().Format(viewedTimeLayout)
	if err := sess.Set(ViewedSessionKey, viewed); err != nil {
		return false, err
	}
	return true, nil
}
