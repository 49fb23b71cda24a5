package models

import "time"

// Challenge is a time-boxed community challenge with a fixed completion bonus.
type Challenge struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Title       string   `gorm:"not null" json:"title"`
	Slug        string   `gorm:"uniqueIndex;not null" json:"slug"`
	Description string   `gorm:"type:text" json:"description"`
	Category    Category `gorm:"type:varchar(16);not null;index" json:"category"`
	Duration    string   `json:"duration"` // display string, e.g. "2 weeks"

	// Fixed bonus credited exactly once on completion.
	Points int `gorm:"not null" json:"points"`

	Difficulty string     `gorm:"type:varchar(16)" json:"difficulty"` // easy | medium | hard
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// JoinableAt reports whether the challenge accepts joins at t: it must be
// active and t must fall inside the [start, end] window when one is set.
func (ch *Challenge) JoinableAt(t time.Time) bool {
	if !ch.IsActive {
		return false
	}
	if ch.StartDate != nil && t.Before(*ch.StartDate) {
		return false
	}
	if ch.EndDate != nil && t.After(*ch.EndDate) {
		return false
	}
	return true
}

// ChallengeParticipation is the per-(user, challenge) state machine row.
// The composite primary key guarantees at most one row per pair; a duplicate
// join surfaces as a unique violation, not a second row.
//
// BonusCredited flips false→true at most once, inside the same transaction
// that credits the challenge points. It is the compare-and-set guard that
// keeps two concurrent completion calls from double-crediting.
type ChallengeParticipation struct {
	UserID      uint `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ChallengeID uint `gorm:"primaryKey;autoIncrement:false" json:"challenge_id"`

	JoinedAt      time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	Progress      float64    `gorm:"not null;default:0" json:"progress"` // [0,100]
	Completed     bool       `gorm:"not null;default:false" json:"completed"`
	BonusCredited bool       `gorm:"not null;default:false" json:"bonus_credited"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}
