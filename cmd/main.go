package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/karowl/simportal/internal/cache"
	"github.com/karowl/simportal/internal/config"
	"github.com/karowl/simportal/internal/database"
	"github.com/karowl/simportal/internal/domain/auth"
	"github.com/karowl/simportal/internal/domain/session"
	"github.com/karowl/simportal/internal/domain/token"
	"github.com/karowl/simportal/internal/domain/training"
	"github.com/karowl/simportal/internal/domain/user"
	"github.com/karowl/simportal/internal/migrations"
	"github.com/karowl/simportal/internal/server"
)

func main() {
	_ = godotenv.Load()

	envConfig := config.LoadEnv()

	cfg, err := config.Load(envConfig.ConfigPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	server.InitLogger(cfg.Logging.Level)

	if envConfig.SessionSecret == "" {
		if envConfig.Environment == config.EnvironmentProduction {
			slog.Error("SESSION_SECRET is required in production")
			os.Exit(1)
		}
		slog.Warn("SESSION_SECRET not set, using a development default")
		envConfig.SessionSecret = "simportal-development-secret"
	}

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected successfully")

	if err := migrations.RunMigrations(cfg); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Migrations completed successfully")

	var revocation *cache.SessionRevocationCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.Connect(&cfg.Redis)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		revocation = cache.NewSessionRevocationCache(redisClient)
	}

	codec, err := token.NewCodec([]byte(envConfig.SessionSecret), cfg.Auth.Issuer)
	if err != nil {
		slog.Error("Failed to initialize token codec", "error", err)
		os.Exit(1)
	}

	sessionRepo := session.NewRepository(db)
	sessionService := session.NewServiceWithCache(sessionRepo, codec, cfg.Auth.SessionTTL, revocation)

	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)

	launchVerifier := auth.NewLaunchVerifier(cfg.Launch.ConsumerKey, envConfig.LaunchSecret)
	authService := auth.NewService(userService, sessionService, launchVerifier)
	resolver := auth.NewResolver(sessionService, cfg.Auth.CookieName)
	authHandler := auth.NewHandler(authService, sessionService, cfg.Auth)

	trainingRepo := training.NewRepository(db)
	trainingEngine := training.NewService(trainingRepo)
	trainingHandler := training.NewHandler(trainingEngine)

	app := server.New(cfg)
	server.SetupRoutes(app, authHandler, trainingHandler, resolver)

	addr := cfg.Server.Address()
	slog.Info("Server starting", "address", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
