// workers/notification_dispatcher.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"eco-track-service/models"
	"eco-track-service/services"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NotificationDispatcher drains ledger events into in-app notification rows.
// It runs strictly after the owning transaction has committed; any failure
// here is logged and dropped so it can never roll back or block the ledger.
type NotificationDispatcher struct {
	notifications *services.NotificationService
	notifier      *services.Notifier
	printer       *message.Printer
}

func NewNotificationDispatcher(notifications *services.NotificationService, notifier *services.Notifier) *NotificationDispatcher {
	return &NotificationDispatcher{
		notifications: notifications,
		notifier:      notifier,
		printer:       message.NewPrinter(language.English),
	}
}

func (d *NotificationDispatcher) Start(ctx context.Context) {
	log.Println("🔁 Starting Notification Dispatcher (ledger events → notifications)…")
	go d.run(ctx)
}

func (d *NotificationDispatcher) run(ctx context.Context) {
	for {
		select {
		case event, ok := <-d.notifier.Events():
			if !ok {
				log.Println("⏹️ Notification Dispatcher stopped (queue closed)")
				return
			}
			d.dispatch(ctx, event)
		case <-ctx.Done():
			log.Println("⏹️ Notification Dispatcher stopped")
			return
		}
	}
}

func (d *NotificationDispatcher) dispatch(ctx context.Context, event any) {
	n, ok := d.render(event)
	if !ok {
		log.Printf("⚠️ [DISPATCH] unknown event type %T, dropping", event)
		return
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		log.Printf("⚠️ [DISPATCH] failed to persist %T for user %d: %v", event, n.UserID, err)
	}
}

func (d *NotificationDispatcher) render(event any) (*models.Notification, bool) {
	switch e := event.(type) {
	case services.ActivityCreatedEvent:
		return &models.Notification{
			UserID:  e.UserID,
			Type:    models.NotificationActivity,
			Title:   "Activity logged",
			Message: d.printer.Sprintf("You earned %d points for your activity.", e.Points),
			Data:    payload(map[string]any{"activity_id": e.ActivityID, "points": e.Points}),
		}, true

	case services.ChallengeCompletedEvent:
		return &models.Notification{
			UserID:   e.UserID,
			Type:     models.NotificationChallenge,
			Title:    "Challenge completed",
			Message:  d.printer.Sprintf("You completed %q and earned a %d point bonus!", e.ChallengeTitle, e.Bonus),
			Priority: "high",
			Data:     payload(map[string]any{"challenge_id": e.ChallengeID, "bonus": e.Bonus}),
		}, true

	case services.PointsMilestoneEvent:
		return &models.Notification{
			UserID:   e.UserID,
			Type:     models.NotificationLeaderboard,
			Title:    "Milestone reached",
			Message:  d.printer.Sprintf("You crossed %d points! Your total is now %d.", e.Milestone, e.Total),
			Priority: "high",
			Data:     payload(map[string]any{"milestone": e.Milestone, "total": e.Total}),
		}, true

	case services.AchievementUnlockedEvent:
		return &models.Notification{
			UserID:  e.UserID,
			Type:    models.NotificationAchievement,
			Title:   "Achievement unlocked",
			Message: fmt.Sprintf("You earned the %q achievement!", e.Name),
			Data:    payload(map[string]any{"code": e.Code}),
		}, true
	}
	return nil, false
}

func payload(data map[string]any) string {
	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(raw)
}
