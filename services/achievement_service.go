package services

import (
	"context"
	"errors"
	"log"

	"eco-track-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementService struct {
	DB       *gorm.DB
	Notifier *Notifier
}

func NewAchievementService(db *gorm.DB, notifier *Notifier) *AchievementService {
	return &AchievementService{DB: db, Notifier: notifier}
}

// SeedTypes upserts the static achievement catalog on boot.
func (s *AchievementService) SeedTypes(ctx context.Context) error {
	for _, trigger := range models.AchievementTriggers {
		at := trigger.AchievementType
		err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&at).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Evaluate checks every auto-award rule against the user's current
// aggregates. The unique (user, code) index is the double-award guard, so
// concurrent evaluations after racing accruals stay safe.
func (s *AchievementService) Evaluate(ctx context.Context, userID uint) error {
	var acc models.UserAccount
	if err := s.DB.WithContext(ctx).First(&acc, userID).Error; err != nil {
		return err
	}

	for _, trigger := range models.AchievementTriggers {
		if !trigger.Meets(&acc) {
			continue
		}
		award := models.UserAchievement{UserID: userID, Code: trigger.Code}
		err := s.DB.WithContext(ctx).Create(&award).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue // already earned
		}
		if err != nil {
			return err
		}
		log.Printf("🎖️ [ACHIEVEMENT] %s → user %d", trigger.Code, userID)
		s.Notifier.Publish(AchievementUnlockedEvent{UserID: userID, Code: trigger.Code, Name: trigger.Name})
	}
	return nil
}

// AchievementView pairs an award with its catalog entry.
type AchievementView struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rarity      string `json:"rarity"`
	AwardedAt   string `json:"awarded_at"`
}

// ListUserAchievements returns the user's earned achievements, newest first.
func (s *AchievementService) ListUserAchievements(ctx context.Context, userID uint) ([]AchievementView, error) {
	var rows []AchievementView
	err := s.DB.WithContext(ctx).Model(&models.UserAchievement{}).
		Select("user_achievements.code, at.name, at.description, at.rarity, user_achievements.awarded_at").
		Joins("INNER JOIN achievement_types at ON at.code = user_achievements.code").
		Where("user_achievements.user_id = ?", userID).
		Order("user_achievements.awarded_at DESC").
		Scan(&rows).Error
	return rows, err
}
