package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bookclub/api"
	"bookclub/bot"
	"bookclub/config"
	"bookclub/database"
	"bookclub/events"
	"bookclub/metrics"
	"bookclub/repository"
	"bookclub/service"

	log "github.com/sirupsen/logrus"
)

const (
	shutdownTimeout        = 10 * time.Second
	rateLimitCleanupPeriod = 10 * time.Minute
)

// ConfigureLogging applies the configured level and formatter to logrus
func ConfigureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	ConfigureLogging(cfg)
	log.Info("Starting bookclub...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL(),
		database.WithMaxConns(cfg.DBMaxConns),
		database.WithMinConns(cfg.DBMinConns),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize event bus
	log.Info("Initializing event bus...")
	eventBus := events.NewBus()
	metrics.SubscribeToBus(eventBus)
	log.Info("Event bus initialized successfully")

	// Initialize unit of work factory
	log.Info("Initializing unit of work factory...")
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	log.Info("Unit of work factory initialized successfully")

	userService := service.NewUserService(uowFactory, cfg.AdminDiscordIDs)
	voiceService := service.NewVoiceActivityService(uowFactory)
	eventService := service.NewEventService(uowFactory)

	// The Discord bot is optional; without it the activity check fails open
	// and payment DMs are counted as not sent.
	var (
		discordBot *bot.Bot
		oracle     service.ActivityOracle = service.AllowAllOracle{}
		notifier   service.PaymentNotifier
	)
	if cfg.BotEnabled && cfg.DiscordToken != "" {
		log.Info("Initializing Discord bot...")
		discordBot, err = bot.New(bot.Config{
			Token:            cfg.DiscordToken,
			GuildID:          cfg.DiscordGuildID,
			LibraryChannelID: cfg.DiscordLibraryChannelID,
			TerrasRoleID:     cfg.DiscordTerrasRoleID,
			Location:         cfg.ActivityLocation(),
			Notifier: bot.PaymentNotifierConfig{
				FrontendURL:   cfg.FrontendURL,
				BankAccount:   cfg.PaymentBankAccount,
				AccountHolder: cfg.PaymentAccountHolder,
			},
		}, userService, voiceService)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord bot: %w", err)
		}
		defer func() {
			if err := discordBot.Close(); err != nil {
				log.WithError(err).Error("Error closing Discord bot")
			}
		}()
		oracle = discordBot.ActivityOracle()
		notifier = discordBot.PaymentNotifier()
		log.Info("Discord bot initialized successfully")
	} else {
		log.Warn("Discord bot disabled, activity checks allow everyone and payment DMs are skipped")
	}

	// Initialize services
	log.Info("Initializing services...")
	applicationService := service.NewApplicationService(uowFactory, oracle)
	approvalService := service.NewApprovalService(uowFactory, notifier, eventBus, cfg.DMTimeout)
	log.Info("Services initialized successfully")

	limiter := api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartCleanup(ctx, rateLimitCleanupPeriod)

	handler := api.NewHandler(applicationService, approvalService, eventService, userService)
	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(handler, api.RouterConfig{
			JWTSecret: cfg.JWTSecret,
			Limiter:   limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	log.WithField("environment", cfg.Environment).Info("Bookclub is running")

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	log.Info("Shutdown completed")
	return nil
}
