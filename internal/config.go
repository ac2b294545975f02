package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAccessTokenDuration            = 15 * time.Minute
	DefaultRefreshTokenDuration           = 7 * 24 * time.Hour
	DefaultEmailVerificationTokenDuration = 24 * time.Hour
)

type Config struct {
	AppEnv        string              `mapstructure:"app_env"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Messaging     MessagingConfig     `mapstructure:"messaging"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	FrontendURL       string        `mapstructure:"frontend_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

// SecurityConfig holds the three independent signing secrets and their
// lifetimes. It is validated once and then handed to the token generator by value.
type SecurityConfig struct {
	AccessTokenSecret              string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret             string        `mapstructure:"refresh_token_secret"`
	EmailVerificationSecret        string        `mapstructure:"email_verification_secret"`
	AccessTokenDuration            time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration           time.Duration `mapstructure:"refresh_token_duration"`
	EmailVerificationTokenDuration time.Duration `mapstructure:"email_verification_token_duration"`
	Argon2                         Argon2Config  `mapstructure:"argon2"`
}

type Argon2Config struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Window        time.Duration `mapstructure:"window"`
	MaxRequests   int           `mapstructure:"max_requests"`
	EntryTTL      time.Duration `mapstructure:"entry_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type MessagingConfig struct {
	AMQPURL    string `mapstructure:"amqp_url"`
	EmailQueue string `mapstructure:"email_queue"`
}

type AdminConfig struct {
	Email     string `mapstructure:"email"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	FirstName string `mapstructure:"first_name"`
	LastName  string `mapstructure:"last_name"`
	Phone     string `mapstructure:"phone"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.RateLimit.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("rate limit config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range c.Origins() {
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.FrontendURL != "" {
		if _, err := url.ParseRequestURI(c.FrontendURL); err != nil {
			return fmt.Errorf("invalid frontend_url: %w", err)
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *ServerConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

// Validate rejects missing or shared secrets and negative lifetimes, and
// fills zero lifetimes with their defaults.
func (c *SecurityConfig) Validate() error {
	secrets := map[string]string{
		"access_token_secret":       c.AccessTokenSecret,
		"refresh_token_secret":      c.RefreshTokenSecret,
		"email_verification_secret": c.EmailVerificationSecret,
	}
	for _, name := range []string{"access_token_secret", "refresh_token_secret", "email_verification_secret"} {
		if strings.TrimSpace(secrets[name]) == "" {
			return fmt.Errorf("%w: %s is required", ErrConfiguration, name)
		}
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret ||
		c.AccessTokenSecret == c.EmailVerificationSecret ||
		c.RefreshTokenSecret == c.EmailVerificationSecret {
		return fmt.Errorf("%w: token secrets must be distinct", ErrConfiguration)
	}

	if c.AccessTokenDuration < 0 || c.RefreshTokenDuration < 0 || c.EmailVerificationTokenDuration < 0 {
		return fmt.Errorf("%w: token durations must not be negative", ErrConfiguration)
	}
	if c.AccessTokenDuration == 0 {
		c.AccessTokenDuration = DefaultAccessTokenDuration
	}
	if c.RefreshTokenDuration == 0 {
		c.RefreshTokenDuration = DefaultRefreshTokenDuration
	}
	if c.EmailVerificationTokenDuration == 0 {
		c.EmailVerificationTokenDuration = DefaultEmailVerificationTokenDuration
	}
	return nil
}

func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Window <= 0 || c.MaxRequests <= 0 {
		return errors.New("window and max_requests must be positive when enabled")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", c.Level)
	}
	switch c.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}
