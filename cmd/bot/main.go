package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/draftnight/draftbot/internal/config"
	"github.com/draftnight/draftbot/internal/events"
	"github.com/draftnight/draftbot/internal/handlers/discord"
	draftRepo "github.com/draftnight/draftbot/internal/repositories/draft"
	draftService "github.com/draftnight/draftbot/internal/services/draft"
	"github.com/draftnight/draftbot/internal/teams"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to connect to Redis")
	}

	// Load the team pool
	pool, err := teams.LoadFile(cfg.TeamsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.TeamsFile).Msg("failed to load team pool")
	}
	log.Info().Int("teams", pool.Size()).Int("conferences", len(pool.Conferences())).Msg("team pool loaded")

	// Initialize the draft repository
	repo, err := draftRepo.NewRedis(&draftRepo.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create draft repository")
	}

	// Initialize the event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(events.DefaultNATSConfig(cfg.NATSURL))
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NATSURL).Msg("failed to connect to NATS")
		}
		publisher = natsPublisher
	}
	defer publisher.Close()

	// Initialize the draft service
	draftSvc, err := draftService.New(&draftService.Config{
		Repo:                      repo,
		Pool:                      pool,
		Publisher:                 publisher,
		TurnPolicy:                draftService.TurnPolicy(cfg.TurnPolicy),
		DefaultPicksAllowed:       cfg.DefaultPicksAllowed,
		MaxUsersPerConference:     cfg.MaxUsersPerConference,
		ReleaseTeamsOnCancel:      cfg.ReleaseTeamsOnCancel,
		RestrictPicksToConference: cfg.RestrictPicksToConference,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create draft service")
	}

	// Initialize Discord bot
	bot, err := discord.New(&discord.Config{
		Token:         cfg.DiscordToken,
		ApplicationID: cfg.ApplicationID,
		GuildID:       cfg.GuildID,
		AdminUserID:   cfg.AdminUserID,
		DraftService:  draftSvc,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Discord bot")
	}

	// Start the bot
	if err := bot.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start Discord bot")
	}

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Shutdown the bot
	if err := bot.Stop(); err != nil {
		log.Error().Err(err).Msg("error stopping bot")
	}

	log.Info().Msg("bot has been shut down")
}
