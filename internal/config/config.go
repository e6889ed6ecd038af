package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the bot's runtime configuration, loaded from the environment
type Config struct {
	// DiscordToken is the bot token
	DiscordToken string `env:"DISCORD_TOKEN,required"`

	// ApplicationID is the Discord application ID; falls back to the
	// session user when empty
	ApplicationID string `env:"APPLICATION_ID"`

	// GuildID restricts command registration to one guild (development)
	GuildID string `env:"GUILD_ID"`

	// AdminUserID may start and end drafts; empty allows anyone
	AdminUserID string `env:"ADMIN_USER_ID"`

	// RedisAddr is the Redis host:port
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	// RedisPassword is the Redis password, empty for none
	RedisPassword string `env:"REDIS_PASSWORD"`

	// RedisDB is the Redis database number
	RedisDB int `env:"REDIS_DB" envDefault:"0"`

	// NATSURL enables event publishing when set
	NATSURL string `env:"NATS_URL"`

	// TeamsFile is the path to the conference/team pool definition
	TeamsFile string `env:"TEAMS_FILE" envDefault:"teams.yaml"`

	// TurnPolicy is round_robin or snake
	TurnPolicy string `env:"TURN_POLICY" envDefault:"round_robin"`

	// DefaultPicksAllowed is the per-user pick cap, 0 for unlimited
	DefaultPicksAllowed int `env:"DEFAULT_PICKS_ALLOWED" envDefault:"7"`

	// MaxUsersPerConference caps participants per conference
	MaxUsersPerConference int `env:"MAX_USERS_PER_CONFERENCE" envDefault:"2"`

	// ReleaseTeamsOnCancel frees a cancelled draft's teams
	ReleaseTeamsOnCancel bool `env:"RELEASE_TEAMS_ON_CANCEL" envDefault:"true"`

	// RestrictPicksToConference limits picks to the chosen conference
	RestrictPicksToConference bool `env:"RESTRICT_PICKS_TO_CONFERENCE" envDefault:"false"`

	// LogLevel is a zerolog level name (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
