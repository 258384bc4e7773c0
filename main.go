package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluentdeck/fluentdeck/backend/handlers"
	"github.com/fluentdeck/fluentdeck/backend/middleware"
	"github.com/fluentdeck/fluentdeck/fluentdeck"
	"github.com/fluentdeck/fluentdeck/fluentdeck/auth"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database/repositories"
	"github.com/fluentdeck/fluentdeck/fluentdeck/leveling"
	"github.com/fluentdeck/fluentdeck/fluentdeck/logger"
	"github.com/fluentdeck/fluentdeck/fluentdeck/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler("fluentdeck")
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting FluentDeck API",
		slog.String("version", version),
		slog.String("commit", commit))

	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := fluentdeck.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.New(ctx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	var audioStorage services.AudioStorage
	if cfg.Spaces.Key != "" {
		spacesService, err := services.NewSpacesService(
			cfg.Spaces.Key,
			cfg.Spaces.Secret,
			cfg.Spaces.Region,
			cfg.Spaces.Bucket,
			cfg.Spaces.AudioRoot,
		)
		if err != nil {
			slog.Error("Failed to initialize audio storage", slog.Any("error", err))
			os.Exit(-1)
		}
		audioStorage = spacesService
	} else {
		slog.Warn("Audio storage not configured, uploads disabled")
	}

	bunDB := db.BunDB()
	userRepo := repositories.NewUserRepository(bunDB)
	cardRepo := repositories.NewCardRepository(bunDB)
	progressRepo := repositories.NewCardProgressRepository(bunDB)
	statsRepo := repositories.NewUserStatsRepository(bunDB)
	missionRepo := repositories.NewMissionRepository(bunDB)
	achievementRepo := repositories.NewAchievementRepository(bunDB)

	calc := leveling.NewCalculator(leveling.NewDefaultConfig())
	rollover := services.NewDailyRollover(statsRepo, missionRepo)

	statsService := services.NewStatsService(statsRepo, userRepo, calc)
	progressService := services.NewProgressService(progressRepo, cardRepo)
	missionService := services.NewMissionService(missionRepo, achievementRepo, statsService, rollover)
	tracker := services.NewMissionTracker(missionService)
	achievementService := services.NewAchievementService(achievementRepo, statsRepo, progressRepo)
	cardService := services.NewCardService(cardRepo, progressRepo, statsService, tracker, rollover, audioStorage)
	studyService := services.NewStudyService(cardRepo, progressService, statsService, achievementService, tracker, rollover, calc)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, 24*time.Hour, "fluentdeck")

	webApp := &handlers.WebApp{
		DB:                 db,
		Tokens:             tokens,
		Users:              userRepo,
		StatsService:       statsService,
		ProgressService:    progressService,
		StudyService:       studyService,
		MissionService:     missionService,
		AchievementService: achievementService,
		CardService:        cardService,
		Rollover:           rollover,
		Version:            version,
	}

	app := fiber.New(fiber.Config{
		AppName:      "FluentDeck API",
		ErrorHandler: middleware.CustomErrorHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(compress.New())
	app.Use(cors.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.LoggingMiddleware())

	app.Get("/health", handlers.HealthCheck(webApp))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", handlers.Register(webApp))
	authGroup.Post("/login", handlers.Login(webApp))

	api := app.Group("/api", middleware.AuthRequired(tokens))
	api.Get("/me", handlers.Me(webApp))
	api.Get("/stats", handlers.GetStats(webApp))

	cards := api.Group("/cards")
	cards.Post("/", handlers.CreateCard(webApp))
	cards.Get("/", handlers.ListCards(webApp))
	cards.Get("/search", handlers.SearchCards(webApp))
	cards.Get("/deleted", handlers.ListDeletedCards(webApp))
	cards.Get("/:id", handlers.GetCard(webApp))
	cards.Put("/:id", handlers.UpdateCard(webApp))
	cards.Delete("/:id", handlers.DeleteCard(webApp))
	cards.Post("/:id/restore", handlers.RestoreCard(webApp))
	cards.Patch("/:id/learned", handlers.SetCardLearned(webApp))
	cards.Post("/:id/audio", handlers.UploadCardAudio(webApp))

	study := api.Group("/study")
	study.Post("/session", handlers.SubmitSession(webApp))
	study.Get("/progress", handlers.StudyProgress(webApp))
	study.Get("/review", handlers.CardsToReview(webApp))

	missions := api.Group("/missions")
	missions.Get("/daily", handlers.DailyMissions(webApp))
	missions.Post("/:id/progress", handlers.UpdateMissionProgress(webApp))
	missions.Post("/:id/complete", handlers.CompleteMission(webApp))

	achievements := api.Group("/achievements")
	achievements.Get("/", handlers.ListAchievements(webApp))
	achievements.Post("/check", handlers.CheckAchievements(webApp))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := app.Listen(addr); err != nil {
			slog.Error("Server stopped",
				slog.String("type", "http"),
				slog.Any("error", err))
			os.Exit(-1)
		}
	}()
	slog.Info("Server is running. Press CTRL-C to exit.",
		slog.String("type", "http"),
		slog.String("addr", addr))

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", slog.Any("error", err))
	}
}
