package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Delivery target names
const (
	TargetDiscord  = "discord"
	TargetWhatsApp = "whatsapp"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Logging configuration
	Log LogConfig

	// Security configuration
	Security SecurityConfig

	// GitHub configuration
	GitHub GitHubConfig

	// Gitea configuration
	Gitea GiteaConfig

	// Policy configuration
	Policy PolicyConfig

	// Generative-text collaborator configuration
	AI AIConfig

	// Delivery configuration
	Delivery DeliveryConfig

	// WhatsApp configuration
	WhatsApp WhatsAppConfig

	// EventTimeout bounds the processing of one webhook event
	EventTimeout time.Duration
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimit       int // requests per minute per client, 0 disables
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// SecurityConfig holds security-specific configuration
type SecurityConfig struct {
	// API keys accepted by the preview endpoint
	APIKeys []string
}

// GitHubConfig holds GitHub webhook and API configuration
type GitHubConfig struct {
	WebhookSecret string
	Token         string
	APIURL        string
}

// GiteaConfig holds Gitea webhook configuration
type GiteaConfig struct {
	WebhookSecret string
}

// PolicyConfig holds the policy directory location
type PolicyConfig struct {
	Dir string
}

// AIConfig holds the generative-text collaborator configuration
type AIConfig struct {
	Provider  string // "openai" or "anthropic"
	Endpoint  string
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// Configured reports whether both an endpoint and a key are set
func (a AIConfig) Configured() bool {
	return a.Endpoint != "" && a.APIKey != ""
}

// DeliveryConfig holds notification delivery configuration
type DeliveryConfig struct {
	Targets           []string
	DiscordWebhookURL string
	Timeout           time.Duration
}

// Enabled reports whether target is in the configured target list
func (d DeliveryConfig) Enabled(target string) bool {
	return slices.Contains(d.Targets, target)
}

// WhatsAppConfig holds WhatsApp-specific configuration
type WhatsAppConfig struct {
	DBDriver   string
	DBDSN      string
	LogLevel   string
	DeviceName string // name shown in WhatsApp linked devices
	Recipient  string // default JID to send notifications to
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	// Try to load .env file (ignore errors - it's optional)
	_ = godotenv.Load(".env")

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// FromEnv reads the configuration without validating it
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", ""),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimit:       getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Security: SecurityConfig{
			APIKeys: getEnvAsSlice("API_KEYS", []string{}),
		},
		GitHub: GitHubConfig{
			WebhookSecret: getEnv("GITHUB_WEBHOOK_SECRET", ""),
			Token:         getEnv("GITHUB_TOKEN", ""),
			APIURL:        getEnv("GITHUB_API_URL", "https://api.github.com/"),
		},
		Gitea: GiteaConfig{
			WebhookSecret: getEnv("GITEA_WEBHOOK_SECRET", ""),
		},
		Policy: PolicyConfig{
			Dir: getEnv("POLICY_DIR", "./policies"),
		},
		AI: AIConfig{
			Provider:  getEnv("AI_PROVIDER", "openai"),
			Endpoint:  getEnv("AI_ENDPOINT", ""),
			APIKey:    getEnv("AI_API_KEY", ""),
			Model:     getEnv("AI_MODEL", ""),
			Timeout:   getEnvAsDuration("AI_TIMEOUT", 30*time.Second),
			MaxTokens: getEnvAsInt("AI_MAX_TOKENS", 2048),
		},
		Delivery: DeliveryConfig{
			Targets:           getEnvAsSlice("DELIVERY_TARGETS", []string{TargetDiscord}),
			DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
			Timeout:           getEnvAsDuration("DELIVERY_TIMEOUT", 10*time.Second),
		},
		WhatsApp: WhatsAppConfig{
			DBDriver:   getEnv("WHATSAPP_DB_DRIVER", "sqlite3"),
			DBDSN:      getEnv("WHATSAPP_DB_DSN", "file:whatsapp.db?_foreign_keys=on"),
			LogLevel:   getEnv("WHATSAPP_LOG_LEVEL", "INFO"),
			DeviceName: getEnv("WHATSAPP_DEVICE_NAME", "Checklist Notifier"),
			Recipient:  getEnv("WHATSAPP_RECIPIENT", ""),
		},
		EventTimeout: getEnvAsDuration("EVENT_TIMEOUT", 60*time.Second),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Policy.Dir == "" {
		return fmt.Errorf("policy directory is required")
	}

	for _, target := range c.Delivery.Targets {
		if target != TargetDiscord && target != TargetWhatsApp {
			return fmt.Errorf("unknown delivery target: %s", target)
		}
	}

	if c.Delivery.Enabled(TargetWhatsApp) {
		if c.WhatsApp.DBDriver == "" || c.WhatsApp.DBDSN == "" {
			return fmt.Errorf("whatsapp session store driver and DSN are required")
		}
	}

	switch strings.ToLower(c.AI.Provider) {
	case "", "openai", "azure", "ollama", "lmstudio", "anthropic":
	default:
		return fmt.Errorf("unknown AI provider: %s", c.AI.Provider)
	}

	// Check for default/insecure API keys
	for _, key := range c.Security.APIKeys {
		if key == "default-api-key" || key == "api-key-123" || len(key) < 8 {
			return fmt.Errorf("insecure or default API key detected: '%s'. Please set secure API keys in environment variables", key)
		}
	}

	if c.EventTimeout <= 0 {
		return fmt.Errorf("event timeout must be positive")
	}

	return nil
}

// Address returns the server address in the format host:port
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Helper functions to get environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	// Split by comma and trim spaces
	values := make([]string, 0)
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}

	return values
}
