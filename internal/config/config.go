package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the engine
type Config struct {
	Redis     RedisConfig
	Authority AuthorityConfig
	Delivery  DeliveryConfig
	Discord   DiscordConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthorityConfig selects this session's role. Non-authoritative sessions
// need the remote URL of the authoritative session's operation endpoint.
type AuthorityConfig struct {
	Authoritative bool
	RemoteURL     string
	ListenAddr    string // operation endpoint bind address on the authoritative session
}

// DeliveryConfig holds delivery mode configuration
type DeliveryConfig struct {
	Mode string // "auto" or "interactive"
}

// DiscordConfig holds the optional shared-channel configuration. Empty
// token means the engine posts to the process log instead.
type DiscordConfig struct {
	Token     string
	ChannelID string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
		},
		Authority: AuthorityConfig{
			Authoritative: getEnvAsBoolOrDefault("AUTHORITATIVE", true),
			RemoteURL:     os.Getenv("AUTHORITY_REMOTE_URL"),
			ListenAddr:    getEnvOrDefault("AUTHORITY_LISTEN_ADDR", ":8089"),
		},
		Delivery: DeliveryConfig{
			Mode: getEnvOrDefault("DELIVERY_MODE", "auto"),
		},
		Discord: DiscordConfig{
			Token:     os.Getenv("DISCORD_TOKEN"),
			ChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		},
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
