package models

import (
	"time"

	"gorm.io/gorm"
)

// UserAccount is the ledger's view of a user: profile columns are a local
// snapshot synced from the Profile Service (read-only here), the point and
// impact aggregates are owned and mutated exclusively by this service.
type UserAccount struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // profile service UUID

	// Profile snapshot (populated by the sync worker, never written by the ledger)
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Location string `json:"location,omitempty"`
	Region   string `gorm:"index" json:"region,omitempty"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// Ledger-owned aggregates. Updated only by single-statement atomic
	// increments/decrements inside transactions, never read-modify-write.
	TotalPoints  int `gorm:"not null;default:0" json:"total_points"`
	WeeklyPoints int `gorm:"not null;default:0" json:"weekly_points"`

	// Environmental impact aggregates
	TrashCollectedKg float64 `gorm:"not null;default:0" json:"trash_collected_kg"`
	TreesPlanted     int     `gorm:"not null;default:0" json:"trees_planted"`
	CO2SavedKg       float64 `gorm:"not null;default:0" json:"co2_saved_kg"`

	// Advisory display rank written by the leaderboard refresh; never used
	// as an ordering key when projecting leaderboards.
	Rank int `gorm:"default:0" json:"rank"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// RemoteProfile mirrors the JSON shape served by the Profile Service's
// public sync endpoint. Used only by the profile sync worker.
type RemoteProfile struct {
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Location   *string   `json:"location,omitempty"`
	Region     *string   `json:"region,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
