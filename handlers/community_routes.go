// handlers/community_routes.go
package handlers

import (
	"eco-track-service/middleware"
	"eco-track-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCommunityRoutes(app *fiber.App, community *services.CommunityService, achievements *services.AchievementService, activities *services.ActivityService) {
	public := app.Group("/community", middleware.UserContextMiddleware(false))

	// Ranked projection, recomputed from current aggregates on every read.
	public.Get("/leaderboard", func(c *fiber.Ctx) error {
		var viewerID uint
		if acc := optionalAccount(c, activities); acc != nil {
			viewerID = acc.ID
		}
		query := services.LeaderboardQuery{
			Region:   c.Query("region"),
			Ordering: c.Query("timeframe", services.OrderingAllTime),
			Limit:    c.QueryInt("limit", 50),
		}
		entries, err := community.Leaderboard(c.Context(), query, viewerID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(entries)
	})

	public.Get("/stats/global", func(c *fiber.Ctx) error {
		stats, err := community.GlobalCommunityStats(c.Context())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(stats)
	})

	public.Get("/stats/regions", func(c *fiber.Ctx) error {
		stats, err := community.RegionCommunityStats(c.Context())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(stats)
	})

	secured := app.Group("/achievements", middleware.UserContextMiddleware(true))
	secured.Get("/my", func(c *fiber.Ctx) error {
		acc, err := currentAccount(c, activities)
		if err != nil {
			return err
		}
		list, err := achievements.ListUserAchievements(c.Context(), acc.ID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(list)
	})
}
