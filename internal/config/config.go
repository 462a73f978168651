// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string

	// Storage. An empty DatabaseURL selects the local SQLite file.
	DatabaseURL string
	SQLitePath  string

	// Completion provider
	LLMProvider    string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	GeminiAPIKey   string
	GeminiModel    string
	LLMMaxTokens   int
	LLMTemperature float32
	ChatTimeout    time.Duration

	LogWriteTimeout time.Duration

	// Chat requests per client per minute. Zero disables limiting.
	ChatRateLimit int

	SystemPromptPath   string
	SystemPromptMarker string

	// Daily digest
	ResendAPIKey   string
	DigestFrom     string
	DigestTo       []string
	DigestTimezone string
	DigestCron     string
	CronSecret     string
	PublicBaseURL  string

	CORSAllowedOrigins []string
}

// IsProduction reports whether ENV is set to production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Location returns the digest timezone, falling back to UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DigestTimezone)
	if err != nil {
		log.Printf("Warning: unknown DIGEST_TIMEZONE %q, using UTC", c.DigestTimezone)
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables or .env file.
func Load() (*Config, error) {
	env := getEnv("ENV", "development")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", getEnv("POSTGRES_URL", "")),
		SQLitePath:  getEnv("SQLITE_PATH", "milo.db"),

		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		LLMMaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		ChatTimeout:    getEnvAsDuration("CHAT_TIMEOUT", 30*time.Second),

		LogWriteTimeout: getEnvAsDuration("LOG_WRITE_TIMEOUT", 10*time.Second),
		ChatRateLimit:   getEnvAsInt("CHAT_RATE_LIMIT", 20),

		SystemPromptPath:   getEnv("SYSTEM_PROMPT_PATH", "prompts/system-prompt.md"),
		SystemPromptMarker: getEnv("SYSTEM_PROMPT_MARKER", "You are an AI consultant"),

		ResendAPIKey:   getEnv("RESEND_API_KEY", ""),
		DigestFrom:     getEnv("DIGEST_FROM", "Archpoint Labs <notifications@archpointlabs.com>"),
		DigestTo:       getEnvAsList("DIGEST_TO", []string{"matt@archpointlabs.com"}),
		DigestTimezone: getEnv("DIGEST_TIMEZONE", "UTC"),
		DigestCron:     getEnv("DIGEST_CRON", ""),
		CronSecret:     getEnv("CRON_SECRET", ""),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "https://archpointlabs.com"), "/"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at request time.
// Secrets are only enforced in production.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.ChatTimeout <= 0 {
		return fmt.Errorf("CHAT_TIMEOUT must be positive")
	}
	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}

	if !c.IsProduction() {
		return nil
	}

	missing := []string{}
	if c.LLMProvider == "openai" && c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.LLMProvider == "gemini" && c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.ResendAPIKey == "" {
		missing = append(missing, "RESEND_API_KEY")
	}
	if c.CronSecret == "" {
		missing = append(missing, "CRON_SECRET")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required production environment variables: %v", missing)
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float32) float32 {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(strValue, 32)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as float. Using default value.", key)
		return defaultValue
	}
	return float32(value)
}

// getEnvAsDuration accepts Go duration strings ("30s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	value, err := time.ParseDuration(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as duration. Using default value.", key)
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
