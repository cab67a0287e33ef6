package config

import (
	"os"
	"strings"
)

// Config holds server configuration loaded from the environment
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	HTTPPort  string
	JWTSecret string
	AdminUIDs []string
}

// Load reads configuration from environment variables with development
// defaults. ADMIN_UIDS is a comma-separated allow-list of identity-provider
// uids that may open the admin dashboard.
func Load() *Config {
	return &Config{
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "lessonplay"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:  getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		AdminUIDs: splitList(os.Getenv("ADMIN_UIDS")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
