package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"eco-track-service/models"

	"gorm.io/gorm"
)

// DefaultOpTimeout bounds how long a ledger write may block on row locks
// before failing with ErrConcurrencyTimeout.
const DefaultOpTimeout = 5 * time.Second

// ActivityService is the accrual ledger: it owns the Activity lifecycle and
// every mutation of the UserAccount point/impact aggregates. All aggregate
// writes are single-statement atomic increments inside one transaction with
// the record insert/delete, so concurrent callers for the same user serialize
// on the row and partial application is never observable.
type ActivityService struct {
	DB        *gorm.DB
	Notifier  *Notifier
	OpTimeout time.Duration

	// Optional: evaluated after each accrual commit, errors swallowed.
	Achievements *AchievementService
}

func NewActivityService(db *gorm.DB, notifier *Notifier, opTimeout time.Duration) *ActivityService {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &ActivityService{DB: db, Notifier: notifier, OpTimeout: opTimeout}
}

// ActivityInput is the payload for logging one activity.
type ActivityInput struct {
	Type        models.Category `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Region      string          `json:"region"`
	Photos      []string        `json:"photos"`

	Metrics DeclaredMetrics `json:"impact_data"`

	// Optional client-supplied key making retries safe: a request replayed
	// with the same key returns the original record instead of double-logging.
	IdempotencyKey string `json:"-"`
}

func (s *ActivityService) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.OpTimeout)
}

// errIdemReplay aborts the write transaction when a concurrent retry won the
// race on the idempotency key; the original row is fetched afterwards.
var errIdemReplay = errors.New("idempotency key raced")

// CreateActivity scores and records one activity and accrues its points and
// impact delta onto the owner's aggregates, all in one transaction.
func (s *ActivityService) CreateActivity(ctx context.Context, userID uint, in ActivityInput) (*models.Activity, error) {
	m, err := ParseMetrics(in.Type, in.Metrics)
	if err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, invalidf("title", "must not be empty")
	}

	points := Points(m, len(in.Photos), in.Location)
	delta := Impact(m)

	photosJSON := ""
	if len(in.Photos) > 0 {
		raw, err := json.Marshal(in.Photos)
		if err != nil {
			return nil, invalidf("photos", "not serializable: %v", err)
		}
		photosJSON = string(raw)
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var (
		created  models.Activity
		after    models.UserAccount
		replayed bool
	)
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.IdempotencyKey != "" {
			var key models.IdempotencyKey
			err := tx.Where("key = ?", in.IdempotencyKey).First(&key).Error
			switch {
			case err == nil:
				replayed = true
				return tx.First(&created, key.ActivityID).Error
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}

		created = models.Activity{
			UserID:        userID,
			Type:          in.Type,
			Title:         in.Title,
			Description:   in.Description,
			Points:        points,
			Location:      in.Location,
			Region:        in.Region,
			Photos:        photosJSON,
			ImpactTrashKg: delta.TrashKg,
			ImpactTrees:   delta.Trees,
			ImpactCO2Kg:   delta.CO2Kg,
		}
		applyDeclared(&created, m)

		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		if in.IdempotencyKey != "" {
			key := models.IdempotencyKey{Key: in.IdempotencyKey, UserID: userID, ActivityID: created.ID}
			if err := tx.Create(&key).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errIdemReplay
				}
				return err
			}
		}

		res := tx.Model(&models.UserAccount{}).Where("id = ?", userID).Updates(map[string]any{
			"total_points":       gorm.Expr("total_points + ?", points),
			"weekly_points":      gorm.Expr("weekly_points + ?", points),
			"trash_collected_kg": gorm.Expr("trash_collected_kg + ?", delta.TrashKg),
			"trees_planted":      gorm.Expr("trees_planted + ?", delta.Trees),
			"co2_saved_kg":       gorm.Expr("co2_saved_kg + ?", delta.CO2Kg),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user account %d: %w", userID, ErrNotFound)
		}

		return tx.First(&after, userID).Error
	})
	if txErr != nil {
		if errors.Is(txErr, errIdemReplay) {
			return s.findByIdempotencyKey(ctx, in.IdempotencyKey)
		}
		return nil, wrapTimeout(txErr)
	}

	if !replayed {
		s.Notifier.Publish(ActivityCreatedEvent{UserID: userID, ActivityID: created.ID, Points: points})
		before := after.TotalPoints - points
		for _, milestone := range PointsMilestones {
			if before < milestone && after.TotalPoints >= milestone {
				s.Notifier.Publish(PointsMilestoneEvent{UserID: userID, Milestone: milestone, Total: after.TotalPoints})
			}
		}
		if s.Achievements != nil {
			if err := s.Achievements.Evaluate(context.WithoutCancel(ctx), userID); err != nil {
				log.Printf("⚠️ [LEDGER] achievement evaluation failed for user %d: %v", userID, err)
			}
		}
	}
	return &created, nil
}

func (s *ActivityService) findByIdempotencyKey(ctx context.Context, idemKey string) (*models.Activity, error) {
	var key models.IdempotencyKey
	if err := s.DB.WithContext(ctx).Where("key = ?", idemKey).First(&key).Error; err != nil {
		return nil, wrapTimeout(err)
	}
	var activity models.Activity
	if err := s.DB.WithContext(ctx).First(&activity, key.ActivityID).Error; err != nil {
		return nil, wrapTimeout(err)
	}
	return &activity, nil
}

// applyDeclared copies the typed variant's fields onto the stored record.
func applyDeclared(a *models.Activity, m Metrics) {
	switch v := m.(type) {
	case TrashMetrics:
		a.BagsCollected = &v.BagsCollected
	case TreesMetrics:
		a.TreesPlanted = &v.TreesPlanted
	case MobilityMetrics:
		a.DistanceKm = &v.DistanceKm
		a.TransportType = &v.TransportType
	case WaterMetrics:
		a.WaterSavedLiters = &v.LitersSaved
	case EnergyMetrics:
		a.EnergySavedKwh = &v.KwhSaved
	}
}

// DeleteActivity reverses exactly the stored award and impact snapshot and
// removes the record, all in one transaction. Weekly points may legitimately
// have been reset since accrual, so that column is always clamped; for the
// remaining aggregates a guarded fast path decrements only when every field
// still covers its delta, and the clamped fallback is an invariant violation
// worth logging (external tampering or a bug elsewhere), not a caller error.
func (s *ActivityService) DeleteActivity(ctx context.Context, activityID, userID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var act models.Activity
		err := tx.Where("id = ? AND user_id = ?", activityID, userID).First(&act).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("activity %d: %w", activityID, ErrNotFound)
		}
		if err != nil {
			return err
		}

		points := act.Points
		delta := act.AppliedImpact()

		weeklyExpr := gorm.Expr(
			"CASE WHEN weekly_points > ? THEN weekly_points - ? ELSE 0 END", points, points)

		res := tx.Model(&models.UserAccount{}).
			Where("id = ? AND total_points >= ? AND trash_collected_kg >= ? AND trees_planted >= ? AND co2_saved_kg >= ?",
				userID, points, delta.TrashKg, delta.Trees, delta.CO2Kg).
			Updates(map[string]any{
				"total_points":       gorm.Expr("total_points - ?", points),
				"weekly_points":      weeklyExpr,
				"trash_collected_kg": gorm.Expr("trash_collected_kg - ?", delta.TrashKg),
				"trees_planted":      gorm.Expr("trees_planted - ?", delta.Trees),
				"co2_saved_kg":       gorm.Expr("co2_saved_kg - ?", delta.CO2Kg),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// An aggregate no longer covers its delta. Clamp at zero instead
			// of going negative, and log the violation for observability.
			log.Printf("⚠️ [LEDGER] invariant violation reversing activity %d for user %d: aggregate below stored delta (points=%d, impact=%+v), clamping",
				act.ID, userID, points, delta)
			res = tx.Model(&models.UserAccount{}).Where("id = ?", userID).Updates(map[string]any{
				"total_points":       gorm.Expr("CASE WHEN total_points > ? THEN total_points - ? ELSE 0 END", points, points),
				"weekly_points":      weeklyExpr,
				"trash_collected_kg": gorm.Expr("CASE WHEN trash_collected_kg > ? THEN trash_collected_kg - ? ELSE 0 END", delta.TrashKg, delta.TrashKg),
				"trees_planted":      gorm.Expr("CASE WHEN trees_planted > ? THEN trees_planted - ? ELSE 0 END", delta.Trees, delta.Trees),
				"co2_saved_kg":       gorm.Expr("CASE WHEN co2_saved_kg > ? THEN co2_saved_kg - ? ELSE 0 END", delta.CO2Kg, delta.CO2Kg),
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("user account %d: %w", userID, ErrNotFound)
			}
		}

		return tx.Delete(&models.Activity{}, act.ID).Error
	})
	return wrapTimeout(txErr)
}

// SetVerified is the moderation collaborator's one-way flag flip. Scoring and
// accrual never read it.
func (s *ActivityService) SetVerified(ctx context.Context, activityID uint, verified bool) error {
	res := s.DB.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ?", activityID).Update("verified", verified)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("activity %d: %w", activityID, ErrNotFound)
	}
	return nil
}

// GetActivity returns one activity by id.
func (s *ActivityService) GetActivity(ctx context.Context, activityID uint) (*models.Activity, error) {
	var act models.Activity
	err := s.DB.WithContext(ctx).First(&act, activityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("activity %d: %w", activityID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &act, nil
}

// ActivityFilter narrows activity listings.
type ActivityFilter struct {
	Type         models.Category
	Region       string
	VerifiedOnly bool
	Limit        int
	Offset       int
}

func (f ActivityFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Region != "" {
		q = q.Where("region = ?", f.Region)
	}
	if f.VerifiedOnly {
		q = q.Where("verified = ?", true)
	}
	limit := f.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return q.Order("created_at DESC").Limit(limit).Offset(f.Offset)
}

// ListActivities returns the public feed, newest first.
func (s *ActivityService) ListActivities(ctx context.Context, f ActivityFilter) ([]models.Activity, error) {
	var activities []models.Activity
	err := f.apply(s.DB.WithContext(ctx).Model(&models.Activity{})).Find(&activities).Error
	return activities, err
}

// ListUserActivities returns one user's activities, newest first.
func (s *ActivityService) ListUserActivities(ctx context.Context, userID uint, f ActivityFilter) ([]models.Activity, error) {
	var activities []models.Activity
	q := s.DB.WithContext(ctx).Model(&models.Activity{}).Where("user_id = ?", userID)
	err := f.apply(q).Find(&activities).Error
	return activities, err
}

// EnsureAccount resolves (or lazily creates) the local ledger account for an
// external profile id. Profile columns are filled in later by the sync worker.
func (s *ActivityService) EnsureAccount(ctx context.Context, externalUserID string) (*models.UserAccount, error) {
	var acc models.UserAccount
	err := s.DB.WithContext(ctx).
		Where(models.UserAccount{ExternalUserID: externalUserID}).
		Attrs(models.UserAccount{IsActive: true}).
		FirstOrCreate(&acc).Error
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
