package app

import (
	"os"
	"strconv"
	"strings"
)

// Config carries every externally tunable knob. The signaling protocol only
// cares about Addr; the rest configure the serving surfaces around it.
type Config struct {
	Env         string
	Addr        string
	StaticDir   string
	PublicWSURL string
	CORSOrigins []string

	// RedisAddr enables the room-directory mirror; empty leaves it off.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// LoadConfig reads configuration from the environment, applying defaults
// suitable for local development.
func LoadConfig() Config {
	return Config{
		Env:           getEnv("APP_ENV", "dev"),
		Addr:          getEnv("ADDR", ":8080"),
		StaticDir:     getEnv("STATIC_DIR", "./static"),
		PublicWSURL:   getEnv("PUBLIC_WS_URL", ""),
		CORSOrigins:   splitCSV(getEnv("CORS_ALLOW", "*")),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_PREFIX", "podlobby"),
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
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
