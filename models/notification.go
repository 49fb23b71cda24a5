package models

import "time"

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotificationActivity    NotificationType = "activity"
	NotificationChallenge   NotificationType = "challenge"
	NotificationAchievement NotificationType = "achievement"
	NotificationLeaderboard NotificationType = "leaderboard"
	NotificationSystem      NotificationType = "system"
)

// Notification is an in-app notification row persisted by the dispatcher.
// Content rendering and push/email delivery belong to the external
// notification collaborator; this service only records the rows.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"index;not null" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(16);not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Data      string           `gorm:"type:text" json:"-"` // JSON payload for deep links
	Priority  string           `gorm:"type:varchar(8);default:'normal'" json:"priority"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
}
