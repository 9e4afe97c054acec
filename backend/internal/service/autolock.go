package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/logger"
)

// AutoLockActor is recorded as the closer of threads locked for inactivity.
var AutoLockActor = domain.Actor{Name: "autolock", Caps: domain.Capabilities{Moderator: true}}

const autoLockBatch = 500

// InactiveThreadLocker closes open threads whose last post is older than the
// configured threshold. Deciding what counts as inactive stays here; the
// transition itself goes through ThreadCloser like any moderator action.
type InactiveThreadLocker struct {
	storage       InactiveThreadStorage
	closer        ThreadCloser
	inactiveAfter time.Duration
	now           Clock

	mu            sync.Mutex
	lastLockStats AutoLockStats
}

// AutoLockStats tracks metrics from the last run.
type AutoLockStats struct {
	RunAt         time.Time
	ThreadsFound  int
	ThreadsLocked int
	DurationMs    int64
	Errors        []string
}

type InactiveThreadStorage interface {
	InactiveThreads(ctx context.Context, before time.Time, limit int) ([]domain.Thread, error)
}

// ThreadCloser is satisfied by the thread service.
type ThreadCloser interface {
	Close(ctx context.Context, actor domain.Actor, id domain.ThreadId) error
}

// NewInactiveThreadLocker returns a locker that does nothing when
// inactiveAfter is zero.
func NewInactiveThreadLocker(storage InactiveThreadStorage, closer ThreadCloser, inactiveAfter time.Duration, now Clock) *InactiveThreadLocker {
	if now == nil {
		now = SystemClock
	}
	return &InactiveThreadLocker{
		storage:       storage,
		closer:        closer,
		inactiveAfter: inactiveAfter,
		now:           now,
	}
}

// StartBackgroundLocking runs RunLock every interval until ctx is done.
func (l *InactiveThreadLocker) StartBackgroundLocking(ctx context.Context, interval time.Duration) {
	if l.inactiveAfter <= 0 {
		logger.Log.Warn("autolock threshold not configured, background locking disabled",
			"component", "autolock")
		return
	}

	ticker := time.NewTicker(interval)
	logger.Log.Info("started inactive thread locker",
		"component", "autolock",
		"interval", interval,
		"inactive_after", l.inactiveAfter)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := l.RunLock(ctx); err != nil {
					logger.Log.Error("autolock run failed",
						"component", "autolock",
						"error", err)
				} else {
					stats := l.GetLastLockStats()
					logger.Log.Info("autolock completed",
						"component", "autolock",
						"threads_found", stats.ThreadsFound,
						"threads_locked", stats.ThreadsLocked,
						"duration_ms", stats.DurationMs,
						"errors", len(stats.Errors))
				}
			case <-ctx.Done():
				logger.Log.Info("autolock shutting down gracefully",
					"component", "autolock")
				return
			}
		}
	}()
}

// RunLock executes a single pass. It can be called manually from the
// operator CLI.
func (l *InactiveThreadLocker) RunLock(ctx context.Context) error {
	if l.inactiveAfter <= 0 {
		return nil
	}

	began := time.Now()
	runAt := l.now()
	stats := AutoLockStats{RunAt: runAt, Errors: []string{}}
	cutoff := runAt.Add(-l.inactiveAfter)

	for {
		threads, err := l.storage.InactiveThreads(ctx, cutoff, autoLockBatch)
		if err != nil {
			return fmt.Errorf("failed to list inactive threads: %w", err)
		}
		stats.ThreadsFound += len(threads)

		failed := 0
		for _, t := range threads {
			if err := l.closer.Close(ctx, AutoLockActor, t.Id); err != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("thread %d: %v", t.Id, err))
				failed++
				continue
			}
			stats.ThreadsLocked++
		}
		// a short batch is the last one; a batch of pure failures would repeat forever
		if len(threads) < autoLockBatch || failed == len(threads) {
			break
		}
	}

	stats.DurationMs = time.Since(began).Milliseconds()
	l.mu.Lock()
	l.lastLockStats = stats
	l.mu.Unlock()
	return nil
}

func (l *InactiveThreadLocker) GetLastLockStats() AutoLockStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastLockStats
}
