package config

import (
	"crypto/subtle"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/local.yaml"

type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER" env-required:"true"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD" env-required:"true"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME" env-required:"true"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"1m"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER" env-required:"true"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD" env-required:"true"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

type RateConfig struct {
	MaxAttempts int64         `yaml:"MAX_ATTEMPTS" env:"MAX_ATTEMPTS" env-default:"5"`
	WindowSize  time.Duration `yaml:"WINDOW_SIZE" env:"WINDOW_SIZE" env-default:"15s"`
}

type Stripe struct {
	APIKey        string `yaml:"STRIPE_API_KEY" env:"STRIPE_API_KEY" env-default:""`
	WebhookSecret string `yaml:"STRIPE_WEBHOOK_SECRET" env:"STRIPE_WEBHOOK_SECRET" env-default:""`
}

type SendGrid struct {
	Enabled   bool   `yaml:"ENABLED" env:"SENDGRID_ENABLED" env-default:"false"`
	APIKey    string `yaml:"API_KEY" env:"SENDGRID_API_KEY" env-default:""`
	FromEmail string `yaml:"FROM_EMAIL" env:"SENDGRID_FROM_EMAIL" env-default:"orders@storefront.local"`
	FromName  string `yaml:"FROM_NAME" env:"SENDGRID_FROM_NAME" env-default:"Storefront"`
	// SandboxMode makes SendGrid accept and validate mail without delivering it.
	SandboxMode bool `yaml:"SANDBOX_MODE" env:"SENDGRID_SANDBOX_MODE" env-default:"false"`
}

type Security struct {
	JWTKey         string   `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
	JWTExpiryHours int      `yaml:"JWT_EXPIRY_HOURS" env:"JWT_EXPIRY_HOURS" env-default:"24"`
	AdminEmails    []string `yaml:"ADMIN_EMAILS" env:"ADMIN_EMAILS" env-separator:","`
	// AdminSignupToken gates registration of ADMIN_EMAILS addresses. Empty
	// means those accounts cannot be self-registered at all.
	AdminSignupToken string `yaml:"ADMIN_SIGNUP_TOKEN" env:"ADMIN_SIGNUP_TOKEN" env-default:""`
}

type Otel struct {
	Enabled          bool    `yaml:"ENABLED" env:"OTEL_ENABLED" env-default:"false"`
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"storefront"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_ENDPOINT" env-default:"http://localhost:4318/v1/traces"`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO" env-default:"1.0"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL" env-default:"5m"`
	CatalogTTL time.Duration `yaml:"catalog_ttl" env:"CACHE_CATALOG_TTL" env-default:"1m"`
}

// CartPersistence controls the asynchronous cart write queue.
type CartPersistence struct {
	Workers         int           `yaml:"WORKERS" env:"CART_WRITE_WORKERS" env-default:"4"`
	QueueSize       int           `yaml:"QUEUE_SIZE" env:"CART_WRITE_QUEUE_SIZE" env-default:"256"`
	MaxRetries      uint64        `yaml:"MAX_RETRIES" env:"CART_WRITE_MAX_RETRIES" env-default:"3"`
	InitialInterval time.Duration `yaml:"INITIAL_INTERVAL" env:"CART_WRITE_INITIAL_INTERVAL" env-default:"200ms"`
	MaxInterval     time.Duration `yaml:"MAX_INTERVAL" env:"CART_WRITE_MAX_INTERVAL" env-default:"5s"`
	SessionIdleTTL  time.Duration `yaml:"SESSION_IDLE_TTL" env:"CART_SESSION_IDLE_TTL" env-default:"30m"`
}

type Checkout struct {
	DefaultCity     string `yaml:"DEFAULT_CITY" env:"CHECKOUT_DEFAULT_CITY" env-default:"Dhaka"`
	DefaultPostcode string `yaml:"DEFAULT_POSTCODE" env:"CHECKOUT_DEFAULT_POSTCODE" env-default:"1200"`
	Currency        string `yaml:"CURRENCY" env:"CHECKOUT_CURRENCY" env-default:"bdt"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-required:"true"`
	HTTPServer   `yaml:"http_server"`
	Database     Database        `yaml:"database"`
	RedisConnect RedisConnect    `yaml:"redis"`
	RateConfig   RateConfig      `yaml:"rateConfig"`
	Stripe       Stripe          `yaml:"stripe"`
	SendGrid     SendGrid        `yaml:"sendgrid"`
	Security     Security        `yaml:"security"`
	Otel         Otel            `yaml:"otel"`
	Cache        CacheConfig     `yaml:"cache"`
	Cart         CartPersistence `yaml:"cart"`
	Checkout     Checkout        `yaml:"checkout"`
}

// MustLoad reads the config file named by CONFIG_PATH, the -config flag, or
// ./config/local.yaml, in that order, and exits on failure.
func MustLoad() *Config {

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "path to the config file")

		flag.Parse()

		configPath = *flags

		if configPath == "" {
			configPath = defaultConfigPath
		}

	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return cfg
}

func LoadConfigFromPath(configPath string) (*Config, error) {

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return &cfg, nil
}

// Validate rejects values the server cannot run with, such as a zero ticker
// interval or an empty rate limit window.
func (c *Config) Validate() error {
	var errs []error

	if c.Cart.SessionIdleTTL <= 0 {
		errs = append(errs, fmt.Errorf("cart SESSION_IDLE_TTL must be positive, got %s", c.Cart.SessionIdleTTL))
	}
	if c.Cart.InitialInterval <= 0 || c.Cart.MaxInterval < c.Cart.InitialInterval {
		errs = append(errs, fmt.Errorf("cart retry intervals must satisfy 0 < INITIAL_INTERVAL <= MAX_INTERVAL, got %s and %s", c.Cart.InitialInterval, c.Cart.MaxInterval))
	}
	if c.RateConfig.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("rateConfig MAX_ATTEMPTS must be at least 1, got %d", c.RateConfig.MaxAttempts))
	}
	if c.RateConfig.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("rateConfig WINDOW_SIZE must be positive, got %s", c.RateConfig.WindowSize))
	}
	if c.Cache.DefaultTTL < 0 || c.Cache.CatalogTTL < 0 {
		errs = append(errs, errors.New("cache ttls must not be negative"))
	}

	return errors.Join(errs...)
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s/%d",
		url.QueryEscape(r.Username), url.QueryEscape(r.Password), r.Host, r.Port, r.DB)
}

// AllowsAdminSignup reports whether token unlocks registration of an
// administrator address.
func (s *Security) AllowsAdminSignup(token string) bool {
	if s.AdminSignupToken == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(s.AdminSignupToken), []byte(token)) == 1
}

// IsAdminEmail reports whether email belongs to a store administrator.
func (s *Security) IsAdminEmail(email string) bool {
	for _, admin := range s.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(admin), email) {
			return true
		}
	}

	return false
}
