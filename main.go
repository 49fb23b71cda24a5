package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"eco-track-service/handlers"
	"eco-track-service/middleware"
	"eco-track-service/models"
	"eco-track-service/services"
	"eco-track-service/utils"
	"eco-track-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // photo uploads cap well below this
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	// All traffic must come through the Gateway.
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Idempotency-Key",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.UserAccount{},
		&models.Activity{},
		&models.IdempotencyKey{},
		&models.Challenge{},
		&models.ChallengeParticipation{},
		&models.Notification{},
		&models.Region{},
		&models.AchievementType{},
		&models.UserAchievement{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	seedRegions(db)

	r2Ready, err := utils.InitR2()
	if err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}
	if !r2Ready {
		log.Println("⚠️  R2 not configured, photo uploads fall back to local disk")
		if err := utils.EnsureUploadDir(); err != nil {
			log.Fatal("failed to ensure upload dir:", err)
		}
	}

	opTimeout := services.DefaultOpTimeout
	if raw := os.Getenv("LEDGER_OP_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("invalid LEDGER_OP_TIMEOUT %q: %v", raw, err)
		}
		opTimeout = parsed
	}

	notifier := services.NewNotifier(256)
	achievementService := services.NewAchievementService(db, notifier)
	activityService := services.NewActivityService(db, notifier, opTimeout)
	activityService.Achievements = achievementService
	challengeService := services.NewChallengeService(db, notifier, opTimeout)
	challengeService.Achievements = achievementService
	communityService := services.NewCommunityService(db)
	notificationService := services.NewNotificationService(db)

	if err := achievementService.SeedTypes(context.Background()); err != nil {
		log.Fatal("failed to seed achievement types:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := workers.NewNotificationDispatcher(notificationService, notifier)
	dispatcher.Start(ctx)

	if profileSyncURL := os.Getenv("PROFILE_SYNC_URL"); profileSyncURL != "" {
		serviceToken := os.Getenv("ECO_SERVICE_TOKEN")
		syncWorker := workers.NewProfileSyncWorker(db, profileSyncURL, "/api/v1/public/profiles", serviceToken)
		syncWorker.Start(ctx)
	} else {
		log.Println("⚠️  PROFILE_SYNC_URL not set, profile snapshot sync disabled")
	}

	stopScheduler := services.StartLedgerScheduler(communityService)
	defer stopScheduler()

	handlers.SetupActivityRoutes(app, activityService)
	handlers.SetupChallengeRoutes(app, challengeService, activityService)
	handlers.SetupCommunityRoutes(app, communityService, achievementService, activityService)
	handlers.SetupNotificationRoutes(app, notificationService, activityService)

	app.Static("/uploads", "./uploads")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Notification dispatcher running")
	log.Println("✅ Ledger scheduler running (weekly reset + rank refresh)")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func seedRegions(db *gorm.DB) {
	for _, region := range models.GhanaRegions {
		r := region
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&r).Error; err != nil {
			log.Printf("⚠️  Failed to seed region %s: %v", region.Name, err)
			return
		}
	}
}
