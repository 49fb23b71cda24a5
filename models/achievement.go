package models

import "time"

// AchievementType: static config for threshold-triggered awards over the
// ledger aggregates.
type AchievementType struct {
	ID          uint   `gorm:"primaryKey"`
	Code        string `gorm:"uniqueIndex;not null"` // e.g., "FIRST_STEPS", "TREE_HUGGER"
	Name        string `gorm:"not null"`
	Description string
	IconURL     string    `gorm:"type:text"`
	Rarity      string    `gorm:"type:varchar(16);default:'common'"` // common, rare, epic, legendary
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// UserAchievement: awarded instance. The composite unique index keeps an
// achievement from being awarded twice even under concurrent accruals.
type UserAchievement struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_achievement"`
	Code      string    `gorm:"not null;uniqueIndex:idx_user_achievement;size:64"`
	AwardedAt time.Time `gorm:"autoCreateTime"`
}

// AchievementTrigger pairs an achievement with its aggregate threshold check.
type AchievementTrigger struct {
	AchievementType
	Meets func(acc *UserAccount) bool `gorm:"-"`
}

// AchievementTriggers lists every auto-award rule, evaluated against the
// user's current aggregates after each accrual.
var AchievementTriggers = []AchievementTrigger{
	{
		AchievementType: AchievementType{
			Code: "FIRST_STEPS", Name: "First Steps",
			Description: "Earned your first activity points", Rarity: "common",
		},
		Meets: func(acc *UserAccount) bool { return acc.TotalPoints >= 1 },
	},
	{
		AchievementType: AchievementType{
			Code: "CENTURION", Name: "Centurion",
			Description: "Reached 100 total points", Rarity: "common",
		},
		Meets: func(acc *UserAccount) bool { return acc.TotalPoints >= 100 },
	},
	{
		AchievementType: AchievementType{
			Code: "POINT_COLLECTOR", Name: "Point Collector",
			Description: "Reached 1,000 total points", Rarity: "rare",
		},
		Meets: func(acc *UserAccount) bool { return acc.TotalPoints >= 1000 },
	},
	{
		AchievementType: AchievementType{
			Code: "TREE_HUGGER", Name: "Tree Hugger",
			Description: "Planted 10 trees", Rarity: "rare",
		},
		Meets: func(acc *UserAccount) bool { return acc.TreesPlanted >= 10 },
	},
	{
		AchievementType: AchievementType{
			Code: "CLEANUP_CREW", Name: "Cleanup Crew",
			Description: "Collected 50 kg of trash", Rarity: "rare",
		},
		Meets: func(acc *UserAccount) bool { return acc.TrashCollectedKg >= 50 },
	},
	{
		AchievementType: AchievementType{
			Code: "CARBON_CUTTER", Name: "Carbon Cutter",
			Description: "Saved 100 kg of CO2", Rarity: "epic",
		},
		Meets: func(acc *UserAccount) bool { return acc.CO2SavedKg >= 100 },
	},
}
