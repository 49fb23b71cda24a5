package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"eco-track-service/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ChallengeService owns the per-(user, challenge) participation state machine
// (NOT_JOINED → ACTIVE → COMPLETED) and the exactly-once crediting of the
// completion bonus.
type ChallengeService struct {
	DB        *gorm.DB
	Notifier  *Notifier
	OpTimeout time.Duration

	// Optional: evaluated after a bonus credit commits, errors swallowed.
	Achievements *AchievementService
}

func NewChallengeService(db *gorm.DB, notifier *Notifier, opTimeout time.Duration) *ChallengeService {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &ChallengeService{DB: db, Notifier: notifier, OpTimeout: opTimeout}
}

func (s *ChallengeService) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.OpTimeout)
}

// Join creates the participation row. The composite primary key makes a
// duplicate join a unique violation, so two concurrent joins can never leave
// two rows behind.
func (s *ChallengeService) Join(ctx context.Context, userID, challengeID uint) (*models.ChallengeParticipation, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var ch models.Challenge
	err := s.DB.WithContext(ctx).First(&ch, challengeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("challenge %d: %w", challengeID, ErrNotFound)
	}
	if err != nil {
		return nil, wrapTimeout(err)
	}
	if !ch.JoinableAt(time.Now()) {
		return nil, fmt.Errorf("challenge %d: %w", challengeID, ErrInactiveChallenge)
	}

	part := models.ChallengeParticipation{UserID: userID, ChallengeID: challengeID}
	if err := s.DB.WithContext(ctx).Create(&part).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("challenge %d: %w", challengeID, ErrAlreadyJoined)
		}
		return nil, wrapTimeout(err)
	}
	return &part, nil
}

// UpdateProgress stores the clamped progress value. The first time the value
// reaches 100 the transition to COMPLETED and the bonus credit happen as one
// compare-and-set guarded on bonus_credited=false, inside one transaction
// with the atomic point credit, so two concurrent threshold calls credit
// exactly once. Updates after completion still store the value but can never
// re-credit.
func (s *ChallengeService) UpdateProgress(ctx context.Context, userID, challengeID uint, progress float64) (*models.ChallengeParticipation, error) {
	clamped := progress
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 100 {
		clamped = 100
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var (
		part     models.ChallengeParticipation
		ch       models.Challenge
		credited bool
	)
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&ch, challengeID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("challenge %d: %w", challengeID, ErrNotFound)
		}
		if err != nil {
			return err
		}

		if clamped >= 100 {
			now := time.Now()
			res := tx.Model(&models.ChallengeParticipation{}).
				Where("user_id = ? AND challenge_id = ? AND bonus_credited = ?", userID, challengeID, false).
				Updates(map[string]any{
					"progress":       clamped,
					"completed":      true,
					"bonus_credited": true,
					"completed_at":   now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				credited = true
				credit := tx.Model(&models.UserAccount{}).Where("id = ?", userID).Updates(map[string]any{
					"total_points":  gorm.Expr("total_points + ?", ch.Points),
					"weekly_points": gorm.Expr("weekly_points + ?", ch.Points),
				})
				if credit.Error != nil {
					return credit.Error
				}
				if credit.RowsAffected == 0 {
					return fmt.Errorf("user account %d: %w", userID, ErrNotFound)
				}
			} else {
				// Already credited earlier (or never joined): store the value only.
				res = tx.Model(&models.ChallengeParticipation{}).
					Where("user_id = ? AND challenge_id = ?", userID, challengeID).
					Update("progress", clamped)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return fmt.Errorf("participation in challenge %d: %w", challengeID, ErrNotFound)
				}
			}
		} else {
			res := tx.Model(&models.ChallengeParticipation{}).
				Where("user_id = ? AND challenge_id = ?", userID, challengeID).
				Update("progress", clamped)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("participation in challenge %d: %w", challengeID, ErrNotFound)
			}
		}

		return tx.Where("user_id = ? AND challenge_id = ?", userID, challengeID).First(&part).Error
	})
	if txErr != nil {
		return nil, wrapTimeout(txErr)
	}

	if credited {
		s.Notifier.Publish(ChallengeCompletedEvent{
			UserID: userID, ChallengeID: challengeID, ChallengeTitle: ch.Title, Bonus: ch.Points,
		})
		if s.Achievements != nil {
			if err := s.Achievements.Evaluate(context.WithoutCancel(ctx), userID); err != nil {
				log.Printf("⚠️ [CHALLENGE] achievement evaluation failed for user %d: %v", userID, err)
			}
		}
	}
	return &part, nil
}

// Leave removes the participation row in any state. A bonus already credited
// stays credited.
func (s *ChallengeService) Leave(ctx context.Context, userID, challengeID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res := s.DB.WithContext(ctx).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Delete(&models.ChallengeParticipation{})
	if res.Error != nil {
		return wrapTimeout(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("participation in challenge %d: %w", challengeID, ErrNotFound)
	}
	return nil
}

// ChallengeInput is the admin payload for creating a challenge.
type ChallengeInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    models.Category `json:"category"`
	Duration    string          `json:"duration"`
	Points      int             `json:"points"`
	Difficulty  string          `json:"difficulty"`
	StartDate   *time.Time      `json:"start_date"`
	EndDate     *time.Time      `json:"end_date"`
}

// CreateChallenge persists a new challenge definition with a URL slug.
func (s *ChallengeService) CreateChallenge(ctx context.Context, in ChallengeInput) (*models.Challenge, error) {
	if in.Title == "" {
		return nil, invalidf("title", "must not be empty")
	}
	if !in.Category.Valid() {
		return nil, invalidf("category", "unknown challenge category %q", string(in.Category))
	}
	if in.Points < 0 {
		return nil, invalidf("points", "must not be negative, got %d", in.Points)
	}

	ch := models.Challenge{
		Title:       in.Title,
		Slug:        slug.Make(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Duration:    in.Duration,
		Points:      in.Points,
		Difficulty:  in.Difficulty,
		IsActive:    true,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}
	err := s.DB.WithContext(ctx).Create(&ch).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Slug collision with an existing challenge title: disambiguate once.
		ch.Slug = fmt.Sprintf("%s-%d", ch.Slug, time.Now().Unix())
		err = s.DB.WithContext(ctx).Create(&ch).Error
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ChallengeView decorates a challenge with participation info for a viewer.
type ChallengeView struct {
	models.Challenge
	Participants int64   `json:"participants"`
	Joined       bool    `json:"joined"`
	Progress     float64 `json:"progress"`
}

// ChallengeFilter narrows challenge listings.
type ChallengeFilter struct {
	Category   models.Category
	Difficulty string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ListChallenges returns challenges with participant counts and, when
// viewerID is non-zero, the viewer's join state.
func (s *ChallengeService) ListChallenges(ctx context.Context, f ChallengeFilter, viewerID uint) ([]ChallengeView, error) {
	q := s.DB.WithContext(ctx).Model(&models.Challenge{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Difficulty != "" {
		q = q.Where("difficulty = ?", f.Difficulty)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	limit := f.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var challenges []models.Challenge
	if err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&challenges).Error; err != nil {
		return nil, err
	}
	return s.decorate(ctx, challenges, viewerID)
}

// ListUserChallenges returns the challenges the user has joined, most
// recently joined first.
func (s *ChallengeService) ListUserChallenges(ctx context.Context, userID uint, limit, offset int) ([]ChallengeView, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var challenges []models.Challenge
	err := s.DB.WithContext(ctx).Model(&models.Challenge{}).
		Joins("INNER JOIN challenge_participations cp ON cp.challenge_id = challenges.id").
		Where("cp.user_id = ?", userID).
		Order("cp.joined_at DESC").
		Limit(limit).Offset(offset).
		Find(&challenges).Error
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, challenges, userID)
}

// GetChallenge returns one challenge with viewer participation info.
func (s *ChallengeService) GetChallenge(ctx context.Context, challengeID, viewerID uint) (*ChallengeView, error) {
	var ch models.Challenge
	err := s.DB.WithContext(ctx).First(&ch, challengeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("challenge %d: %w", challengeID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	views, err := s.decorate(ctx, []models.Challenge{ch}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *ChallengeService) decorate(ctx context.Context, challenges []models.Challenge, viewerID uint) ([]ChallengeView, error) {
	views := make([]ChallengeView, 0, len(challenges))
	for _, ch := range challenges {
		view := ChallengeView{Challenge: ch}
		if err := s.DB.WithContext(ctx).Model(&models.ChallengeParticipation{}).
			Where("challenge_id = ?", ch.ID).Count(&view.Participants).Error; err != nil {
			return nil, err
		}
		if viewerID != 0 {
			var part models.ChallengeParticipation
			err := s.DB.WithContext(ctx).
				Where("user_id = ? AND challenge_id = ?", viewerID, ch.ID).
				First(&part).Error
			if err == nil {
				view.Joined = true
				view.Progress = part.Progress
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// ParticipantView is one row of a challenge's participant listing.
type ParticipantView struct {
	UserID      uint      `json:"user_id"`
	Name        string    `json:"name"`
	Location    string    `json:"location,omitempty"`
	Progress    float64   `json:"progress"`
	JoinedAt    time.Time `json:"joined_at"`
	TotalPoints int       `json:"total_points"`
}

// Participants lists a challenge's participants ordered by progress.
func (s *ChallengeService) Participants(ctx context.Context, challengeID uint, limit, offset int) ([]ParticipantView, error) {
	var ch models.Challenge
	err := s.DB.WithContext(ctx).First(&ch, challengeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("challenge %d: %w", challengeID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if limit < 1 || limit > 100 {
		limit = 50
	}
	var rows []ParticipantView
	err = s.DB.WithContext(ctx).Model(&models.ChallengeParticipation{}).
		Select("challenge_participations.user_id, ua.name, ua.location, challenge_participations.progress, challenge_participations.joined_at, ua.total_points").
		Joins("INNER JOIN user_accounts ua ON ua.id = challenge_participations.user_id").
		Where("challenge_participations.challenge_id = ?", challengeID).
		Order("challenge_participations.progress DESC, challenge_participations.user_id ASC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	return rows, err
}
