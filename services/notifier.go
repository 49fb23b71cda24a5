package services

import (
	"log"
)

// Ledger events handed to the notification collaborator. Emission is
// fire-and-forget after the owning transaction commits: a full queue or a
// failed dispatch is logged and dropped, never surfaced to the ledger caller.

// ActivityCreatedEvent fires once per successful accrual.
type ActivityCreatedEvent struct {
	UserID     uint
	ActivityID uint
	Points     int
}

// ChallengeCompletedEvent fires on the single crediting completion.
type ChallengeCompletedEvent struct {
	UserID         uint
	ChallengeID    uint
	ChallengeTitle string
	Bonus          int
}

// PointsMilestoneEvent fires when an accrual crosses a milestone threshold.
type PointsMilestoneEvent struct {
	UserID    uint
	Milestone int
	Total     int
}

// AchievementUnlockedEvent fires when an auto-award rule first matches.
type AchievementUnlockedEvent struct {
	UserID uint
	Code   string
	Name   string
}

// PointsMilestones are the totals that trigger a milestone event, checked
// against the pre- and post-accrual totals.
var PointsMilestones = []int{100, 500, 1000, 5000, 10000}

// Notifier fans ledger events out to the dispatcher worker through a bounded
// queue. Publish never blocks the ledger path.
type Notifier struct {
	queue chan any
}

func NewNotifier(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = 256
	}
	return &Notifier{queue: make(chan any, buffer)}
}

// Publish enqueues an event; drops it with a log line when the queue is full.
func (n *Notifier) Publish(event any) {
	if n == nil {
		return
	}
	select {
	case n.queue <- event:
	default:
		log.Printf("⚠️ [NOTIFIER] queue full, dropping %T", event)
	}
}

// Events is consumed by the dispatcher worker.
func (n *Notifier) Events() <-chan any {
	return n.queue
}

// Close stops the dispatcher after the queue drains.
func (n *Notifier) Close() {
	close(n.queue)
}
