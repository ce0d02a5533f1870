package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	AppEnv string

	DatabaseURL string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	SessionCacheTTL time.Duration

	NATSURL         string
	NATSConnTimeout time.Duration

	PlatformURL     string
	PlatformTimeout time.Duration

	GeminiAPIKey string

	GmailCredentialsFile string
	GmailTokenFile       string
	NotifyFrom           string

	UploadsDir    string
	PublicBaseURL string

	OTelCollectorURL string

	CORSOrigins []string
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	config := &Config{
		Port:   getEnvString("PORT", "8080"),
		AppEnv: getEnvString("APP_ENV", "production"),

		DatabaseURL: getEnvString("DATABASE_URL", "host=localhost user=postgres password=password dbname=jobboard port=5432 sslmode=disable"),

		RedisAddr:       getEnvString("REDIS_ADDR", ""),
		RedisPassword:   getEnvString("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		SessionCacheTTL: getEnvDuration("SESSION_CACHE_TTL", 5*time.Minute),

		NATSURL:         getEnvString("NATS_URL", ""),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		PlatformURL:     getEnvString("PLATFORM_URL", "http://localhost:3001"),
		PlatformTimeout: getEnvDuration("PLATFORM_TIMEOUT", 10*time.Second),

		GeminiAPIKey: getEnvString("GEMINI_API_KEY", ""),

		GmailCredentialsFile: getEnvString("GMAIL_CREDENTIALS_FILE", ""),
		GmailTokenFile:       getEnvString("GMAIL_TOKEN_FILE", "token.json"),
		NotifyFrom:           getEnvString("NOTIFY_FROM", "me"),

		UploadsDir:    getEnvString("UPLOADS_DIR", "./uploads"),
		PublicBaseURL: getEnvString("PUBLIC_BASE_URL", "http://localhost:8080"),

		OTelCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),

		CORSOrigins: getEnvList("CORS_ORIGINS", nil),
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
