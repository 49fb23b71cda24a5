package services

import (
	"context"
	"time"

	"eco-track-service/models"

	"gorm.io/gorm"
)

// Leaderboard orderings.
const (
	OrderingAllTime = "all_time"
	OrderingWeekly  = "weekly"
)

// CommunityService projects read-only ranked views and aggregate statistics
// from the current ledger state. Leaderboards are recomputed on every read;
// the persisted rank column is display data refreshed out of band and is
// never trusted as an ordering key.
type CommunityService struct {
	DB *gorm.DB
}

func NewCommunityService(db *gorm.DB) *CommunityService {
	return &CommunityService{DB: db}
}

// LeaderboardQuery selects scope, ordering and size of the projection.
type LeaderboardQuery struct {
	Region   string // empty = global scope
	Ordering string // all_time | weekly
	Limit    int
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank          int                `json:"rank"`
	UserID        uint               `json:"user_id"`
	Name          string             `json:"name"`
	Location      string             `json:"location,omitempty"`
	Region        string             `json:"region,omitempty"`
	TotalPoints   int                `json:"total_points"`
	WeeklyPoints  int                `json:"weekly_points"`
	ImpactStats   models.ImpactDelta `json:"impact_stats"`
	IsCurrentUser bool               `json:"is_current_user"`
}

// Leaderboard returns the ranked projection. Ties break on ascending user id
// so repeated reads of the same snapshot produce identical orderings.
func (s *CommunityService) Leaderboard(ctx context.Context, q LeaderboardQuery, viewerID uint) ([]LeaderboardEntry, error) {
	var orderExpr string
	switch q.Ordering {
	case OrderingWeekly:
		orderExpr = "weekly_points DESC, id ASC"
	case OrderingAllTime, "":
		orderExpr = "total_points DESC, id ASC"
	default:
		return nil, invalidf("timeframe", "unknown ordering %q", q.Ordering)
	}

	limit := q.Limit
	if limit < 1 || limit > 100 {
		limit = 50
	}

	dbq := s.DB.WithContext(ctx).Model(&models.UserAccount{}).Where("is_active = ?", true)
	if q.Region != "" {
		dbq = dbq.Where("region = ?", q.Region)
	}

	var accounts []models.UserAccount
	if err := dbq.Order(orderExpr).Limit(limit).Find(&accounts).Error; err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(accounts))
	for i, acc := range accounts {
		entries = append(entries, LeaderboardEntry{
			Rank:         i + 1,
			UserID:       acc.ID,
			Name:         acc.Name,
			Location:     acc.Location,
			Region:       acc.Region,
			TotalPoints:  acc.TotalPoints,
			WeeklyPoints: acc.WeeklyPoints,
			ImpactStats: models.ImpactDelta{
				TrashKg: acc.TrashCollectedKg,
				Trees:   acc.TreesPlanted,
				CO2Kg:   acc.CO2SavedKg,
			},
			IsCurrentUser: viewerID != 0 && acc.ID == viewerID,
		})
	}
	return entries, nil
}

// ResetWeeklyPoints zeroes every account's weekly_points in a single UPDATE.
// Runs from the Monday-midnight scheduler job; reversal of pre-reset accruals
// clamps the weekly column instead of assuming it still covers the delta.
func (s *CommunityService) ResetWeeklyPoints(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.UserAccount{}).
		Where("weekly_points <> 0").
		Update("weekly_points", 0)
	return res.RowsAffected, res.Error
}

// RefreshAdvisoryRanks rewrites the display-only rank column from the current
// all-time ordering. Nothing reads it for correctness.
func (s *CommunityService) RefreshAdvisoryRanks(ctx context.Context) error {
	return s.DB.WithContext(ctx).Exec(`
		UPDATE user_accounts SET rank = ranked.pos
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY total_points DESC, id ASC) AS pos
			FROM user_accounts WHERE is_active
		) ranked
		WHERE user_accounts.id = ranked.id`).Error
}

// GlobalStats is the community-wide aggregate summary.
type GlobalStats struct {
	TotalUsers       int64              `json:"total_users"`
	ActiveUsers      int64              `json:"active_users"` // activity in the last 30 days
	TotalPoints      int64              `json:"total_points"`
	TotalActivities  int64              `json:"total_activities"`
	ActivitiesByType map[string]int64   `json:"activities_by_type"`
	ImpactStats      models.ImpactDelta `json:"impact_stats"`
}

// GlobalCommunityStats computes the global summary from current aggregates.
func (s *CommunityService) GlobalCommunityStats(ctx context.Context) (*GlobalStats, error) {
	db := s.DB.WithContext(ctx)
	stats := &GlobalStats{ActivitiesByType: map[string]int64{}}

	if err := db.Model(&models.UserAccount{}).Where("is_active = ?", true).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}

	var totals struct {
		Points  int64
		TrashKg float64
		Trees   int64
		CO2Kg   float64
	}
	err := db.Model(&models.UserAccount{}).Where("is_active = ?", true).
		Select("COALESCE(SUM(total_points),0) AS points, COALESCE(SUM(trash_collected_kg),0) AS trash_kg, COALESCE(SUM(trees_planted),0) AS trees, COALESCE(SUM(co2_saved_kg),0) AS co2_kg").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	stats.TotalPoints = totals.Points
	stats.ImpactStats = models.ImpactDelta{
		TrashKg: totals.TrashKg,
		Trees:   int(totals.Trees),
		CO2Kg:   totals.CO2Kg,
	}

	if err := db.Model(&models.Activity{}).Count(&stats.TotalActivities).Error; err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -30)
	if err := db.Model(&models.Activity{}).Where("created_at >= ?", since).
		Distinct("user_id").Count(&stats.ActiveUsers).Error; err != nil {
		return nil, err
	}

	var byType []struct {
		Type  string
		Count int64
	}
	if err := db.Model(&models.Activity{}).
		Select("type, COUNT(*) AS count").Group("type").Scan(&byType).Error; err != nil {
		return nil, err
	}
	for _, row := range byType {
		stats.ActivitiesByType[row.Type] = row.Count
	}
	return stats, nil
}

// RegionStats is the per-region aggregate summary.
type RegionStats struct {
	Region      string             `json:"region"`
	Capital     string             `json:"capital,omitempty"`
	Users       int64              `json:"users"`
	TotalPoints int64              `json:"total_points"`
	ImpactStats models.ImpactDelta `json:"impact_stats"`
}

// RegionCommunityStats groups aggregates by the seeded region catalog.
func (s *CommunityService) RegionCommunityStats(ctx context.Context) ([]RegionStats, error) {
	var rows []struct {
		Region  string
		Users   int64
		Points  int64
		TrashKg float64
		Trees   int64
		CO2Kg   float64
	}
	err := s.DB.WithContext(ctx).Model(&models.UserAccount{}).
		Select("region, COUNT(*) AS users, COALESCE(SUM(total_points),0) AS points, COALESCE(SUM(trash_collected_kg),0) AS trash_kg, COALESCE(SUM(trees_planted),0) AS trees, COALESCE(SUM(co2_saved_kg),0) AS co2_kg").
		Where("is_active = ? AND region <> ''", true).
		Group("region").
		Order("points DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var regions []models.Region
	if err := s.DB.WithContext(ctx).Find(&regions).Error; err != nil {
		return nil, err
	}
	capitals := make(map[string]string, len(regions))
	for _, r := range regions {
		capitals[r.Name] = r.Capital
	}

	out := make([]RegionStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, RegionStats{
			Region:      row.Region,
			Capital:     capitals[row.Region],
			Users:       row.Users,
			TotalPoints: row.Points,
			ImpactStats: models.ImpactDelta{
				TrashKg: row.TrashKg,
				Trees:   int(row.Trees),
				CO2Kg:   row.CO2Kg,
			},
		})
	}
	return out, nil
}
