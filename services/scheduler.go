// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartLedgerScheduler runs the recurring ledger maintenance jobs:
// the Monday-midnight weekly_points reset and a daily refresh of the
// advisory leaderboard ranks. Returns a shutdown func.
func StartLedgerScheduler(community *CommunityService) func() {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[Scheduler] failed to start: %v", err)
		return func() {}
	}
	sched.Start()

	// Weekly points reset: single UPDATE, no per-row read-modify-write.
	_, _ = sched.NewJob(
		gocron.WeeklyJob(1, gocron.NewWeekdays(time.Monday), gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(func() {
			reset, err := community.ResetWeeklyPoints(context.Background())
			if err != nil {
				log.Printf("[Scheduler] weekly reset failed: %v", err)
				return
			}
			log.Printf("✅ Weekly points reset for %d users", reset)
		}),
	)

	// Advisory rank refresh. Display data only; leaderboard reads always
	// recompute their ordering.
	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 30, 0))),
		gocron.NewTask(func() {
			if err := community.RefreshAdvisoryRanks(context.Background()); err != nil {
				log.Printf("[Scheduler] rank refresh failed: %v", err)
			}
		}),
	)

	return func() {
		if err := sched.Shutdown(); err != nil {
			log.Printf("[Scheduler] shutdown error: %v", err)
		}
	}
}
