package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string

	CIMSDSN        string
	ProjectDSN     string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBConnMaxLife  time.Duration

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret   string
	SwaggerHost string

	// DefaultPassword is hashed into the credential row of every new member.
	DefaultPassword string
	// HomeGroupID scopes the partial-deletion branch and the group listing.
	HomeGroupID string
	// Location defines "today" for event validity checks.
	Location *time.Location
	// TeamMaxPlayers caps the players a team may register per event.
	TeamMaxPlayers int
	// GroupListRoles restricts the group listing when non-empty.
	GroupListRoles []string
	// LoginRatePerMinute throttles login attempts per client IP.
	LoginRatePerMinute int

	LogLevel  string
	LogFormat string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		CIMSDSN:            getEnv("CIMS_DSN", "user:password@tcp(localhost:3306)/cs432cims?charset=utf8mb4&parseTime=True&loc=Local"),
		ProjectDSN:         getEnv("PROJECT_DSN", "user:password@tcp(localhost:3306)/cs432g2?charset=utf8mb4&parseTime=True&loc=Local"),
		DBMaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:     getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLife:      time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second,
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisPass:          os.Getenv("REDIS_PASSWORD"),
		JWTSecret:          getEnv("JWT_SECRET", "change-me"),
		SwaggerHost:        os.Getenv("SWAGGER_HOST"),
		DefaultPassword:    getEnv("DEFAULT_PASSWORD", "default123"),
		HomeGroupID:        getEnv("HOME_GROUP_ID", "2"),
		Location:           getEnvLocation("TIMEZONE", time.Local),
		TeamMaxPlayers:     getEnvInt("TEAM_MAX_PLAYERS", 12),
		GroupListRoles:     getEnvList("GROUP_LIST_ROLES"),
		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
		slog.Warn("ignoring non-integer environment value", "key", key, "value", v)
	}
	return def
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvLocation(key string, def *time.Location) *time.Location {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		slog.Warn("unknown time zone, using default", "key", key, "value", v, "error", err)
		return def
	}
	return loc
}
