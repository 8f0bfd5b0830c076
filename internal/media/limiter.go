// Package media guards media loading against endless retry loops. A
// broken attachment that fails repeatedly gets blocked for a cooldown
// period instead of being re-fetched on every render.
package media

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	maxFailures = 3
	windowMs    = 30 * 1000
	blockMs     = 30 * 1000
	retainMs    = 60 * 60 * 1000
)

// Ledger persists failure timestamps across restarts. *store.DB
// satisfies it.
type Ledger interface {
	AddMediaAttempt(itemKey string, at int64) error
	ClearMediaAttempts(itemKey string) error
	AllMediaAttempts() (map[string][]int64, error)
	PruneMediaAttempts(before int64) error
}

// Limiter tracks failed media loads per item and blocks further
// attempts once an item fails three times within thirty seconds. The
// block lasts thirty seconds, after which the item's history is
// cleared and it may be retried fresh. A successful load clears the
// history immediately.
type Limiter struct {
	mu       sync.Mutex
	attempts map[string][]int64
	ledger   Ledger
	logger   *zap.Logger
	now      func() int64
}

// NewLimiter creates a limiter, restoring recorded failures from the
// ledger. Entries older than an hour are pruned first. A nil ledger
// keeps the limiter memory-only.
func NewLimiter(ledger Ledger, logger *zap.Logger) *Limiter {
	l := &Limiter{
		attempts: make(map[string][]int64),
		ledger:   ledger,
		logger:   logger,
		now:      func() int64 { return time.Now().UnixMilli() },
	}
	if ledger != nil {
		if err := ledger.PruneMediaAttempts(l.now() - retainMs); err != nil {
			logger.Warn("failed to prune media attempts", zap.Error(err))
		}
		saved, err := ledger.AllMediaAttempts()
		if err != nil {
			logger.Warn("failed to load media attempts", zap.Error(err))
		} else {
			l.attempts = saved
			if l.attempts == nil {
				l.attempts = make(map[string][]int64)
			}
		}
	}
	return l
}

// Key derives the ledger key for one attachment of one message.
func Key(msgID, path string) string {
	return msgID + "|" + path
}

// Allowed reports whether a load attempt for the item may proceed. A
// blocked item becomes allowed again once its cooldown expires, at
// which point its failure history is cleared.
func (l *Limiter) Allowed(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.attempts[key]
	if len(ts) < maxFailures {
		return true
	}
	last := ts[len(ts)-maxFailures:]
	if last[maxFailures-1]-last[0] > windowMs {
		return true
	}
	if l.now() < last[maxFailures-1]+blockMs {
		return false
	}
	l.clearLocked(key)
	return true
}

// RecordFailure notes a failed load for the item.
func (l *Limiter) RecordFailure(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	at := l.now()
	l.attempts[key] = append(l.attempts[key], at)
	if l.ledger != nil {
		if err := l.ledger.AddMediaAttempt(key, at); err != nil {
			l.logger.Warn("failed to persist media attempt", zap.Error(err), zap.String("key", key))
		}
	}
}

// RecordSuccess clears the item's failure history.
func (l *Limiter) RecordSuccess(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearLocked(key)
}

func (l *Limiter) clearLocked(key string) {
	delete(l.attempts, key)
	if l.ledger != nil {
		if err := l.ledger.ClearMediaAttempts(key); err != nil {
			l.logger.Warn("failed to clear media attempts", zap.Error(err), zap.String("key", key))
		}
	}
}
