package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         *AppConfig         `yaml:"app"`
	Database    *DatabaseConfig    `yaml:"database"`
	Redis       *RedisConfig       `yaml:"redis"`
	SMTP        *SMTPConfig        `yaml:"smtp"`
	SMS         *SMSConfig         `yaml:"sms"`
	Push        *PushConfig        `yaml:"push"`
	Payment     *PaymentConfig     `yaml:"payment"`
	Maps        *MapsConfig        `yaml:"maps"`
	Storage     *StorageConfig     `yaml:"storage"`
	Security    *SecurityConfig    `yaml:"security"`
	Marketplace *MarketplaceConfig `yaml:"marketplace"`
}

type AppConfig struct {
	Name            string `yaml:"name"`
	Version         string `yaml:"version"`
	Environment     string `yaml:"environment"`
	Port            int    `yaml:"port"`
	Host            string `yaml:"host"`
	BaseURL         string `yaml:"base_url"`
	Debug           bool   `yaml:"debug"`
	DevelopmentMode bool   `yaml:"development_mode"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	Timezone        string `yaml:"timezone"`
	Currency        string `yaml:"currency"`
}

type SecurityConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTTokenTTL        time.Duration `yaml:"jwt_token_ttl"`
	CookieName         string        `yaml:"cookie_name"`
	CookieSecure       bool          `yaml:"cookie_secure"`
	OTPExpiry          time.Duration `yaml:"otp_expiry"`
	OTPRateLimit       int           `yaml:"otp_rate_limit"`
	OTPRateWindow      time.Duration `yaml:"otp_rate_window"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
}

// Load reads an optional .env file and then builds the configuration from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	config := &Config{
		App:         loadAppConfig(),
		Database:    loadDatabaseConfig(),
		Redis:       loadRedisConfig(),
		SMTP:        loadSMTPConfig(),
		SMS:         loadSMSConfig(),
		Push:        loadPushConfig(),
		Payment:     loadPaymentConfig(),
		Maps:        loadMapsConfig(),
		Storage:     loadStorageConfig(),
		Security:    loadSecurityConfig(),
		Marketplace: loadMarketplaceConfig(),
	}

	return config, nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:            getEnv("APP_NAME", "RaddiWala"),
		Version:         getEnv("APP_VERSION", "1.0.0"),
		Environment:     getEnv("APP_ENV", "development"),
		Port:            getEnvAsInt("APP_PORT", 8080),
		Host:            getEnv("APP_HOST", "localhost"),
		BaseURL:         getEnv("APP_BASE_URL", "http://localhost:8080"),
		Debug:           getEnvAsBool("APP_DEBUG", true),
		DevelopmentMode: getEnvAsBool("DEVELOPMENT_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		Timezone:        getEnv("APP_TIMEZONE", "Asia/Kolkata"),
		Currency:        getEnv("APP_CURRENCY", "INR"),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", "change-me-raddiwala-secret"),
		JWTTokenTTL:        getEnvAsDuration("JWT_TOKEN_TTL", 7*24*time.Hour),
		CookieName:         getEnv("AUTH_COOKIE_NAME", "token"),
		CookieSecure:       getEnvAsBool("AUTH_COOKIE_SECURE", IsProduction()),
		OTPExpiry:          getEnvAsDuration("OTP_EXPIRY", 5*time.Minute),
		OTPRateLimit:       getEnvAsInt("OTP_RATE_LIMIT", 5),
		OTPRateWindow:      getEnvAsDuration("OTP_RATE_WINDOW", 15*time.Minute),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func IsProduction() bool {
	return getEnv("APP_ENV", "development") == "production"
}

func IsDevelopment() bool {
	return getEnv("APP_ENV", "development") == "development"
}

func IsTest() bool {
	return getEnv("APP_ENV", "development") == "test"
}
