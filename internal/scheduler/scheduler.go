package scheduler

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/jp973/groupnotify-backend/internal/models"
)

// DefaultInterval matches the original once-a-minute cadence. Worst-case
// delivery latency for a due message is one full interval; due-but-unsent
// messages stay queryable indefinitely, so a missed tick self-heals.
const DefaultInterval = time.Minute

// MessageStore is the slice of the durable store the scheduler needs.
type MessageStore interface {
	FindDueUnsent(now time.Time) ([]models.Message, error)
	MarkSent(id uint) error
}

// Deliverer resolves a message's recipients and pushes the notification to
// each. A returned error means the message could not be resolved and must
// stay unsent for the next sweep.
type Deliverer interface {
	Deliver(msg *models.Message) error
}

// Scheduler periodically scans the message store for due scheduled messages
// and drives each through resolve, notify and the sent transition. A single
// instance per deployment: the is_sent flag is the only duplicate-delivery
// guard, so running two schedulers would double-send.
type Scheduler struct {
	store     MessageStore
	deliverer Deliverer
	interval  time.Duration
	sweeping  atomic.Bool

	// now is swappable for tests.
	now func() time.Time
}

func New(store MessageStore, deliverer Deliverer, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		store:     store,
		deliverer: deliverer,
		interval:  interval,
		now:       time.Now,
	}
}

// Run blocks, sweeping once per interval until the context is cancelled. Main
// owns the goroutine and cancels it on shutdown.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("[scheduler] started (interval %s)", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[scheduler] stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			// A tick firing while the previous sweep is still running is
			// skipped rather than overlapped.
			if !s.sweeping.CompareAndSwap(false, true) {
				log.Printf("[scheduler] previous sweep still running, skipping tick")
				continue
			}
			s.Sweep(s.now())
			s.sweeping.Store(false)
		}
	}
}

// Sweep processes every due unsent message once. Each message is isolated: a
// failure to resolve or persist one message never aborts the rest of the
// batch. Messages that fail stay unsent and are retried next sweep.
func (s *Scheduler) Sweep(now time.Time) (sent, skipped int) {
	due, err := s.store.FindDueUnsent(now)
	if err != nil {
		log.Printf("[scheduler] due query failed: %v", err)
		return 0, 0
	}
	if len(due) == 0 {
		return 0, 0
	}

	log.Printf("[scheduler] found %d pending message(s)", len(due))
	for i := range due {
		msg := &due[i]
		if err := s.deliverer.Deliver(msg); err != nil {
			// Undeliverable this cycle; is_sent stays false so the next
			// sweep retries the lookup.
			log.Printf("[scheduler] skipping message %d: %v", msg.ID, err)
			skipped++
			continue
		}

		if err := s.store.MarkSent(msg.ID); err != nil {
			// Notifications already went out; the retry next sweep may
			// duplicate them. Accepted at-least-once semantics.
			log.Printf("[scheduler] mark sent failed for message %d: %v", msg.ID, err)
			skipped++
			continue
		}
		log.Printf("[scheduler] marked as sent: %d", msg.ID)
		sent++
	}
	return sent, skipped
}
