package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Credential store and ledger backend selectors.
const (
	AuthProviderLocal   = "local"
	AuthProviderCognito = "cognito"

	LedgerBackendDynamo = "dynamo"
	LedgerBackendMongo  = "mongo"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string   `env:"APP_PORT" envDefault:"3000"`
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"` // CORS allowed origins

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`

	AuthProvider        string `env:"AUTH_PROVIDER" envDefault:"local"`
	CognitoUserPoolID   string `env:"COGNITO_USER_POOL_ID"`
	CognitoClientID     string `env:"COGNITO_CLIENT_ID"`
	CognitoClientSecret string `env:"COGNITO_CLIENT_SECRET"`

	LedgerBackend string       `env:"LEDGER_BACKEND" envDefault:"dynamo"`
	DynamoTables  DynamoTables `envPrefix:"DYNAMO_TABLE_"`
	MongoURI      string       `env:"MONGO_URI"`
	MongoDatabase string       `env:"MONGO_DATABASE" envDefault:"gateway"`

	S3BucketName   string `env:"S3_BUCKET_NAME" envDefault:"userfiles"`
	UploadMaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"33554432"`

	SMTPHost     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"465"`
	SMTPUsername string `env:"EMAIL_USER"`
	SMTPPassword string `env:"EMAIL_PASS"`

	OTPTTL         time.Duration `env:"OTP_TTL" envDefault:"5m"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users            string `env:"USERS" envDefault:"users"`
	OTPVerifications string `env:"OTP_VERIFICATIONS" envDefault:"otp_verifications"`
	AccessTokens     string `env:"ACCESS_TOKENS" envDefault:"access_tokens"`
}

// Load reads all configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend selectors and the credentials each of them needs.
func (c *Config) Validate() error {
	var errs []error
	switch c.AuthProvider {
	case AuthProviderLocal:
	case AuthProviderCognito:
		if c.CognitoUserPoolID == "" || c.CognitoClientID == "" {
			errs = append(errs, errors.New("COGNITO_USER_POOL_ID and COGNITO_CLIENT_ID are required when AUTH_PROVIDER=cognito"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider))
	}
	switch c.LedgerBackend {
	case LedgerBackendDynamo:
	case LedgerBackendMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when LEDGER_BACKEND=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LEDGER_BACKEND %q", c.LedgerBackend))
	}
	if c.OTPTTL <= 0 || c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("OTP_TTL and ACCESS_TOKEN_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
