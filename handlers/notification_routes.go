// handlers/notification_routes.go
package handlers

import (
	"eco-track-service/middleware"
	"eco-track-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupNotificationRoutes(app *fiber.App, notifications *services.NotificationService, activities *services.ActivityService) {
	secured := app.Group("/notifications", middleware.UserContextMiddleware(true))

	secured.Get("/", func(c *fiber.Ctx) error {
		acc, err := currentAccount(c, activities)
		if err != nil {
			return err
		}
		list, err := notifications.List(c.Context(), acc.ID, c.QueryBool("unread_only"), c.QueryInt("limit", 20), c.QueryInt("skip", 0))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(list)
	})

	secured.Get("/unread-count", func(c *fiber.Ctx) error {
		acc, err := currentAccount(c, activities)
		if err != nil {
			return err
		}
		count, err := notifications.UnreadCount(c.Context(), acc.ID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"unread": count})
	})

	secured.Put("/read-all", func(c *fiber.Ctx) error {
		acc, err := currentAccount(c, activities)
		if err != nil {
			return err
		}
		updated, err := notifications.MarkAllRead(c.Context(), acc.ID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"marked_read": updated})
	})

	secured.Put("/:id/read", func(c *fiber.Ctx) error {
		acc, err := currentAccount(c, activities)
		if err != nil {
			return err
		}
		id, ok := idParam(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid notification id"})
		}
		if err := notifications.MarkRead(c.Context(), acc.ID, id); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Notification marked as read"})
	})
}
