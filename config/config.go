package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	CORS     CORSConfig     `mapstructure:"cors"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Platform PlatformConfig `mapstructure:"platform"`
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// DBConfig holds database specific configuration
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// RedisConfig holds Redis connection settings (refresh-token store)
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CORSConfig holds CORS specific configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// JWTConfig holds token signing settings
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	Expiration        time.Duration `mapstructure:"expiration"`
	RefreshExpiration time.Duration `mapstructure:"refresh_expiration"`
}

// SMTPConfig holds outbound mail settings. An empty Host disables SMTP and
// notification emails are written to the log instead.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// StripeConfig holds Stripe API and checkout redirect settings
type StripeConfig struct {
	APIKey        string `mapstructure:"api_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	SuccessURL    string `mapstructure:"success_url"`
	CancelURL     string `mapstructure:"cancel_url"`
}

// PlatformConfig holds marketplace behavior flags
type PlatformConfig struct {
	PaymentMode                 string  `mapstructure:"payment_mode"` // "stripe" or "offline"
	RequirePaymentBeforeConfirm bool    `mapstructure:"require_payment_before_confirm"`
	MaxContractorOffers         int     `mapstructure:"max_contractor_offers"`
	PayoutRate                  float64 `mapstructure:"payout_rate"`
	SandboxMode                 bool    `mapstructure:"sandbox_mode"`
	Currency                    string  `mapstructure:"currency"`
	PricingDir                  string  `mapstructure:"pricing_dir"`
}

// Load configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app/config")
	viper.AddConfigPath("/app")

	// --- Set Default Values ---
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.name", "bridge_local")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	viper.SetDefault("jwt.expiration", time.Hour)
	viper.SetDefault("jwt.refresh_expiration", 7*24*time.Hour)
	viper.SetDefault("platform.payment_mode", "offline")
	viper.SetDefault("platform.require_payment_before_confirm", true)
	viper.SetDefault("platform.max_contractor_offers", 3)
	viper.SetDefault("platform.payout_rate", 0.70)
	viper.SetDefault("platform.sandbox_mode", false)
	viper.SetDefault("platform.currency", "usd")
	viper.SetDefault("platform.pricing_dir", "./config/pricing")

	// --- Read Config File (Optional) ---
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults and environment variables.")
		} else {
			log.Printf("Error reading config file: %v", err)
		}
	}

	// --- Bind Environment Variables ---
	viper.SetEnvPrefix("API")
	viper.AutomaticEnv()
	viper.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("stripe.api_key", "STRIPE_API_KEY")
	viper.BindEnv("stripe.webhook_secret", "STRIPE_WEBHOOK_SECRET")

	// --- Unmarshal Config ---
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// --- Manual Override from Specific Environment Variables (Highest Priority) ---
	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = port
		}
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if portStr := os.Getenv("DB_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.DB.Port = port
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.DB.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}

	// Handle CORS_ALLOWED_ORIGINS env var (comma-separated string -> slice)
	if originsStr := os.Getenv("CORS_ALLOWED_ORIGINS"); originsStr != "" {
		cfg.CORS.AllowedOrigins = strings.Split(originsStr, ",")
		for i, origin := range cfg.CORS.AllowedOrigins {
			cfg.CORS.AllowedOrigins[i] = strings.TrimSpace(origin)
		}
	}

	if err := cfg.Platform.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Configuration loaded: Server Port=%d, DB Host=%s, Payment Mode=%s, Sandbox=%v",
		cfg.Server.Port, cfg.DB.Host, cfg.Platform.PaymentMode, cfg.Platform.SandboxMode)

	return &cfg, nil
}

// Validate rejects flag combinations the services cannot run with.
func (p PlatformConfig) Validate() error {
	switch p.PaymentMode {
	case "stripe", "offline":
	default:
		return fmt.Errorf("invalid platform.payment_mode %q: must be \"stripe\" or \"offline\"", p.PaymentMode)
	}
	if p.PayoutRate <= 0 || p.PayoutRate > 1 {
		return fmt.Errorf("invalid platform.payout_rate %v: must be in (0, 1]", p.PayoutRate)
	}
	if p.MaxContractorOffers < 1 {
		return fmt.Errorf("invalid platform.max_contractor_offers %d: must be at least 1", p.MaxContractorOffers)
	}
	return nil
}
