package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "FOODSTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv             = "FOODSTORE_APP_ENV"
	EnvPort               = "FOODSTORE_APP_PORT"
	EnvRedisURL           = "FOODSTORE_REDIS_URL"
	EnvJWTSecret          = "FOODSTORE_JWT_SECRET"
	EnvJWTIssuer          = "FOODSTORE_JWT_ISSUER"
	EnvJWTExpMins         = "FOODSTORE_JWT_EXPIRATION_MINUTES"
	EnvSessionTTLMinutes  = "FOODSTORE_SESSION_TTL_MINUTES"
	EnvBackendBaseURL     = "FOODSTORE_BACKEND_BASE_URL"
	EnvCheckoutRate       = "FOODSTORE_CHECKOUT_EXCHANGE_RATE"
	EnvCheckoutMarkers    = "FOODSTORE_CHECKOUT_ALREADY_PROCESSED_MARKERS"
	EnvCheckoutMinorScale = "FOODSTORE_CHECKOUT_SETTLEMENT_SCALE"
)

type Config struct {
	App           AppConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Backend       BackendConfig
	Checkout      CheckoutConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	Metrics       MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string        `envconfig:"FOODSTORE_APP_ENV" required:"true"`
	Port         string        `envconfig:"FOODSTORE_APP_PORT" required:"true"`
	LogLevel     string        `envconfig:"FOODSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool          `envconfig:"FOODSTORE_LOG_WARN_STACK" default:"false"`
	Timezone     string        `envconfig:"FOODSTORE_APP_TIMEZONE" default:"UTC"`
	ShutdownWait time.Duration `envconfig:"FOODSTORE_APP_SHUTDOWN_WAIT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the zone statistics buckets are labelled in.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid FOODSTORE_APP_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

type RedisConfig struct {
	URL          string        `envconfig:"FOODSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FOODSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"FOODSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOODSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOODSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOODSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOODSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOODSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOODSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FOODSTORE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FOODSTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FOODSTORE_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"FOODSTORE_SESSION_TTL_MINUTES" default:"1440"`
	CookieName        string `envconfig:"FOODSTORE_SESSION_COOKIE" default:"fs_session"`
}

// SessionTTL returns how long a signed-in session survives in Redis.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

// BackendConfig points at the food backend all resource clients talk to.
type BackendConfig struct {
	BaseURL      string        `envconfig:"FOODSTORE_BACKEND_BASE_URL" default:"http://localhost:8080/api"`
	Timeout      time.Duration `envconfig:"FOODSTORE_BACKEND_TIMEOUT" default:"10s"`
	MaxErrorBody int64         `envconfig:"FOODSTORE_BACKEND_MAX_ERROR_BODY" default:"2048"`
}

func (b BackendConfig) validate() error {
	raw := strings.TrimSpace(b.BaseURL)
	if raw == "" {
		return fmt.Errorf("%s is required", EnvBackendBaseURL)
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvBackendBaseURL)
	}
	return nil
}

// CheckoutConfig carries the business rules used when turning a cart into a payment.
type CheckoutConfig struct {
	DisplayCurrency         string   `envconfig:"FOODSTORE_CHECKOUT_DISPLAY_CURRENCY" default:"VND"`
	SettlementCurrency      string   `envconfig:"FOODSTORE_CHECKOUT_SETTLEMENT_CURRENCY" default:"USD"`
	ExchangeRate            string   `envconfig:"FOODSTORE_CHECKOUT_EXCHANGE_RATE" default:"24000"`
	SettlementScale         int32    `envconfig:"FOODSTORE_CHECKOUT_SETTLEMENT_SCALE" default:"2"`
	AlreadyProcessedMarkers []string `envconfig:"FOODSTORE_CHECKOUT_ALREADY_PROCESSED_MARKERS" default:"PAYMENT_ALREADY_DONE"`
	HomePath                string   `envconfig:"FOODSTORE_CHECKOUT_HOME_PATH" default:"/home"`
}

// Rate returns the display-to-settlement divisor.
func (c CheckoutConfig) Rate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.ExchangeRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (c CheckoutConfig) validate() error {
	if !c.Rate().IsPositive() {
		return fmt.Errorf("%s must be a positive number", EnvCheckoutRate)
	}
	if c.SettlementScale < 0 {
		return fmt.Errorf("%s must not be negative", EnvCheckoutMinorScale)
	}
	return nil
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FOODSTORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"FOODSTORE_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FOODSTORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FOODSTORE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"FOODSTORE_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"FOODSTORE_METRICS_PATH" default:"/metrics"`
}
