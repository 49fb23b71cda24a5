// handlers/activity_routes.go
package handlers

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"eco-track-service/middleware"
	"eco-track-service/models"
	"eco-track-service/services"
	"eco-track-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxPhotoSize = 5 * 1024 * 1024 // 5MB

func SetupActivityRoutes(app *fiber.App, activities *services.ActivityService) {
	public := app.Group("/activities", middleware.UserContextMiddleware(false))
	secured := app.Group("/activities", middleware.UserContextMiddleware(true))
	moderation := app.Group("/activities", middleware.UserContextMiddleware(true), middleware.RequireRole("moderator"))

	// Public feed with filters.
	public.Get("/", func(c *fiber.Ctx) error {
		filter := services.ActivityFilter{
			Type:         models.Category(c.Query("activity_type")),
			Region:       c.Query("region"),
			VerifiedOnly: c.QueryBool("verified_only"),
			Limit:        c.QueryInt("limit", 20),
			Offset:       c.QueryInt("skip", 0),
		}
		list, err := activities.ListActivities(c.Context(), filter)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(list)
	})

	// Own activities. Registered before /:id so the literal path wins.
	secured.Get("/my", func(c *fiber.Ctx) error {
		acc, err := currentAccount(c, activities)
		if err != nil {
			return err
		}
		filter := services.ActivityFilter{
			Type:   models.Category(c.Query("activity_type")),
			Limit:  c.QueryInt("limit", 20),
			Offset: c.QueryInt("skip", 0),
		}
		list, err := activities.ListUserActivities(c.Context(), acc.ID, filter)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(list)
	})

	// Log an activity. An X-Idempotency-Key header makes retries safe:
	// a replayed key returns the original record instead of double-logging.
	secured.Post("/", func(c *fiber.Ctx) error {
		acc, err := currentAccount(c, activities)
		if err != nil {
			return err
		}

		var input services.ActivityInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		input.IdempotencyKey = c.Get("X-Idempotency-Key")

		created, err := activities.CreateActivity(c.Context(), acc.ID, input)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	secured.Post("/upload-photo", func(c *fiber.Ctx) error {
		if _, err := currentAccount(c, activities); err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file"})
		}
		if !strings.HasPrefix(fileHeader.Header.Get("Content-Type"), "image/") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file must be an image"})
		}
		if fileHeader.Size > maxPhotoSize {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "file too large"})
		}

		ext := filepath.Ext(fileHeader.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		filename := uuid.NewString() + ext

		var photoURL string
		if utils.R2Enabled() {
			photoURL, err = utils.UploadFileToR2(fileHeader, "activities/"+filename)
		} else {
			err = utils.SaveFile(fileHeader, utils.GetUploadPath(filename))
			photoURL = "/uploads/activities/" + filename
		}
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"photo_url": photoURL})
	})

	public.Get("/:id", func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid activity id"})
		}
		act, err := activities.GetActivity(c.Context(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(act)
	})

	// Deleting reverses exactly the stored award and impact snapshot.
	secured.Delete("/:id", func(c *fiber.Ctx) error {
		acc, err := currentAccount(c, activities)
		if err != nil {
			return err
		}
		id, ok := idParam(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid activity id"})
		}
		if err := activities.DeleteActivity(c.Context(), id, acc.ID); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Activity deleted successfully"})
	})

	// Moderation collaborator's one-way verification flip.
	moderation.Put("/:id/verify", func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid activity id"})
		}
		verified, err := strconv.ParseBool(c.Query("verified", "true"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid verified value"})
		}
		if err := activities.SetVerified(c.Context(), id, verified); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": fmt.Sprintf("Activity %d verification set to %t", id, verified)})
	})
}
