package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var ErrEmptyEnvironmentVariable = errors.New("empty environment variable")

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Auth     AuthConfig
	Gateway  GatewayConfig
	Services ServicesConfig
	Server   ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Username string
	Password string
	Name     string
}

// AuthConfig holds authentication-related configuration
type AuthConfig struct {
	JWTSecret string
}

// GatewayConfig holds WhatsApp gateway configuration.
// Provider selects the outbound implementation: "evolution" or "twilio".
type GatewayConfig struct {
	Provider          string
	EvolutionAPIURL   string
	EvolutionAPIKey   string
	EvolutionInstance string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromNumber  string
}

// ServicesConfig holds external service API keys and configuration
type ServicesConfig struct {
	ResendAPIKey       string
	DefaultEmailSender string
	OpenAIAPIKey       string
	WebAppURI          string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
}

// GatewayProviderEvolution and GatewayProviderTwilio are the supported
// values for GATEWAY_PROVIDER.
const (
	GatewayProviderEvolution = "evolution"
	GatewayProviderTwilio    = "twilio"
)

// Load reads and validates all required environment variables
func Load() (*Config, error) {
	// Load env.local in non-production environments
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load("env.local"); err != nil {
			return nil, fmt.Errorf("failed to load env.local: %w", err)
		}
	}

	cfg := &Config{}

	// Database configuration
	var err error
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Database.Username, err = requireEnv("DB_USERNAME"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.Name, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}

	// Auth configuration
	if cfg.Auth.JWTSecret, err = requireEnv("JWT_SECRET"); err != nil {
		return nil, err
	}

	// Gateway configuration. Evolution credentials are required only when
	// Evolution is the selected provider, same for Twilio.
	cfg.Gateway.Provider = getEnvWithDefault("GATEWAY_PROVIDER", GatewayProviderEvolution)
	switch cfg.Gateway.Provider {
	case GatewayProviderEvolution:
		if cfg.Gateway.EvolutionAPIURL, err = requireEnv("EVOLUTION_API_URL"); err != nil {
			return nil, err
		}
		if cfg.Gateway.EvolutionAPIKey, err = requireEnv("EVOLUTION_API_KEY"); err != nil {
			return nil, err
		}
		if cfg.Gateway.EvolutionInstance, err = requireEnv("EVOLUTION_INSTANCE"); err != nil {
			return nil, err
		}
	case GatewayProviderTwilio:
		if cfg.Gateway.TwilioAccountSID, err = requireEnv("TWILIO_ACCOUNT_SID"); err != nil {
			return nil, err
		}
		if cfg.Gateway.TwilioAuthToken, err = requireEnv("TWILIO_AUTH_TOKEN"); err != nil {
			return nil, err
		}
		if cfg.Gateway.TwilioFromNumber, err = requireEnv("TWILIO_WHATSAPP_FROM"); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported GATEWAY_PROVIDER %q", cfg.Gateway.Provider)
	}

	// Services configuration
	if cfg.Services.ResendAPIKey, err = requireEnv("RESEND_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.Services.DefaultEmailSender, err = requireEnv("DEFAULT_EMAIL_SENDER_ADDRESS"); err != nil {
		return nil, err
	}
	if cfg.Services.OpenAIAPIKey, err = requireEnv("OPENAI_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.Services.WebAppURI, err = requireEnv("WEBAPP_URI"); err != nil {
		return nil, err
	}

	// Server configuration
	serverPort, err := requireEnv("SERVER_PORT")
	if err != nil {
		return nil, err
	}
	cfg.Server.Port, err = strconv.Atoi(serverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SERVER_PORT: %w", err)
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s",
		c.Username, c.Password, c.Host, c.Name)
}

// requireEnv retrieves an environment variable or returns an error if empty
func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set: %w", key, ErrEmptyEnvironmentVariable)
	}
	return value, nil
}

// getEnvWithDefault retrieves an environment variable or returns a default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
