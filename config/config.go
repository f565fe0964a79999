package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	API      APIConfig
	CORS     CORSConfig
	Platform PlatformConfig
	Bot      BotConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type APIConfig struct {
	RateLimitPerSec int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// PlatformConfig holds credentials and tuning for the moderation platform API.
type PlatformConfig struct {
	BaseURL        string
	Token          string
	UserAgent      string
	RequestsPerSec float64
	WebhookURL     string
}

// BotConfig holds the tuning knobs for the moderation bot. Missing or invalid
// env values fall back to the defaults below.
type BotConfig struct {
	Domain              string
	PollInterval        time.Duration
	ModlogPageSize      int
	StreamPageSize      int
	DedupRetention      time.Duration
	GracePeriod         time.Duration
	Overtime            time.Duration
	WarnCooldown        time.Duration
	CommentThreshold    int
	SubmissionThreshold int
	BanThreshold        int
	QueueWarnThreshold  int
	QueueWarnCooldown   time.Duration
	EnableBans          bool
	EnableFlair         bool
	EnableBotbans       bool
	EnableTracking      bool
	EnableNotes         bool
	WatchStickies       bool
	WatchQueue          bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		redisDB = 0
	}

	jwtExpiry, err := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "168"))
	if err != nil {
		jwtExpiry = 168
	}

	platformRPS, err := strconv.ParseFloat(getEnv("PLATFORM_REQUESTS_PER_SECOND", "1"), 64)
	if err != nil || platformRPS <= 0 {
		platformRPS = 1
	}

	origins := strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",")

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "modwarden"),
			Password: getEnv("DB_PASSWORD", "modwarden_password"),
			DBName:   getEnv("DB_NAME", "modwarden_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-this-secret-key"),
			ExpiryHours: jwtExpiry,
		},
		API: APIConfig{
			RateLimitPerSec: getEnvInt("RATE_LIMIT_PER_SECOND", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: origins,
		},
		Platform: PlatformConfig{
			BaseURL:        getEnv("PLATFORM_BASE_URL", ""),
			Token:          getEnv("PLATFORM_TOKEN", ""),
			UserAgent:      getEnv("PLATFORM_USER_AGENT", "modwarden/1.0"),
			RequestsPerSec: platformRPS,
			WebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Bot: BotConfig{
			Domain:              getEnv("BOT_DOMAIN", ""),
			PollInterval:        getEnvDuration("BOT_POLL_INTERVAL", 30*time.Second),
			ModlogPageSize:      getEnvInt("BOT_MODLOG_PAGE_SIZE", 20),
			StreamPageSize:      getEnvInt("BOT_STREAM_PAGE_SIZE", 50),
			DedupRetention:      getEnvDuration("BOT_DEDUP_RETENTION", 24*time.Hour),
			GracePeriod:         getEnvDuration("BOT_FLAIR_GRACE_PERIOD", 600*time.Second),
			Overtime:            getEnvDuration("BOT_FLAIR_OVERTIME", 13600*time.Second),
			WarnCooldown:        getEnvDuration("BOT_WARN_COOLDOWN", 24*time.Hour),
			CommentThreshold:    getEnvInt("BOT_COMMENT_THRESHOLD", 10),
			SubmissionThreshold: getEnvInt("BOT_SUBMISSION_THRESHOLD", 5),
			BanThreshold:        getEnvInt("BOT_BAN_THRESHOLD", 1),
			QueueWarnThreshold:  getEnvInt("BOT_QUEUE_WARN_THRESHOLD", 30),
			QueueWarnCooldown:   getEnvDuration("BOT_QUEUE_WARN_COOLDOWN", 2*time.Hour),
			EnableBans:          getEnvBool("BOT_ENABLE_BANS", false),
			EnableFlair:         getEnvBool("BOT_ENABLE_FLAIR_ENFORCEMENT", true),
			EnableBotbans:       getEnvBool("BOT_ENABLE_BOTBANS", true),
			EnableTracking:      getEnvBool("BOT_ENABLE_TRACKING", true),
			EnableNotes:         getEnvBool("BOT_ENABLE_NOTES", false),
			WatchStickies:       getEnvBool("BOT_WATCH_STICKIES", false),
			WatchQueue:          getEnvBool("BOT_WATCH_QUEUE", false),
		},
	}

	// Validate required fields
	if cfg.JWT.Secret == "change-this-secret-key" && cfg.Server.Env == "production" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}
	if cfg.Bot.Domain == "" {
		return nil, fmt.Errorf("BOT_DOMAIN must be set")
	}
	if cfg.Platform.BaseURL == "" {
		return nil, fmt.Errorf("PLATFORM_BASE_URL must be set")
	}

	return cfg, nil
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
