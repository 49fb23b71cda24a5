// handlers/challenge_routes.go
package handlers

import (
	"eco-track-service/middleware"
	"eco-track-service/models"
	"eco-track-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challenges *services.ChallengeService, activities *services.ActivityService) {
	public := app.Group("/challenges", middleware.UserContextMiddleware(false))
	secured := app.Group("/challenges", middleware.UserContextMiddleware(true))
	admin := app.Group("/challenges", middleware.UserContextMiddleware(true), middleware.RequireRole("admin"))

	public.Get("/", func(c *fiber.Ctx) error {
		var viewerID uint
		if acc := optionalAccount(c, activities); acc != nil {
			viewerID = acc.ID
		}
		filter := services.ChallengeFilter{
			Category:   models.Category(c.Query("category")),
			Difficulty: c.Query("difficulty"),
			ActiveOnly: c.QueryBool("active_only", true),
			Limit:      c.QueryInt("limit", 20),
			Offset:     c.QueryInt("skip", 0),
		}
		views, err := challenges.ListChallenges(c.Context(), filter, viewerID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(views)
	})

	secured.Get("/my", func(c *fiber.Ctx) error {
		acc, err := currentAccount(c, activities)
		if err != nil {
			return err
		}
		views, err := challenges.ListUserChallenges(c.Context(), acc.ID, c.QueryInt("limit", 20), c.QueryInt("skip", 0))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(views)
	})

	admin.Post("/", func(c *fiber.Ctx) error {
		var input services.ChallengeInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		ch, err := challenges.CreateChallenge(c.Context(), input)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ch)
	})

	public.Get("/:id", func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid challenge id"})
		}
		var viewerID uint
		if acc := optionalAccount(c, activities); acc != nil {
			viewerID = acc.ID
		}
		view, err := challenges.GetChallenge(c.Context(), id, viewerID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(view)
	})

	secured.Post("/:id/join", func(c *fiber.Ctx) error {
		acc, err := currentAccount(c, activities)
		if err != nil {
			return err
		}
		id, ok := idParam(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid challenge id"})
		}
		if _, err := challenges.Join(c.Context(), acc.ID, id); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Successfully joined challenge"})
	})

	secured.Post("/:id/leave", func(c *fiber.Ctx) error {
		acc, err := currentAccount(c, activities)
		if err != nil {
			return err
		}
		id, ok := idParam(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid challenge id"})
		}
		if err := challenges.Leave(c.Context(), acc.ID, id); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Successfully left challenge"})
	})

	secured.Put("/:id/progress", func(c *fiber.Ctx) error {
		acc, err := currentAccount(c, activities)
		if err != nil {
			return err
		}
		id, ok := idParam(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid challenge id"})
		}
		var body struct {
			Progress float64 `json:"progress"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		part, err := challenges.UpdateProgress(c.Context(), acc.ID, id, body.Progress)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(part)
	})

	public.Get("/:id/participants", func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid challenge id"})
		}
		rows, err := challenges.Participants(c.Context(), id, c.QueryInt("limit", 50), c.QueryInt("skip", 0))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(rows)
	})
}
