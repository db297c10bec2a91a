package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Arguments mirrors the environment; values are copied into Config after flag overrides.
type Arguments struct {
	ListenAddr string `env:"SERVER_ADDRESS" envDefault:":8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM"`
	StaffEmails  string `env:"STAFF_EMAILS"`

	PublicOrigin   string `env:"PUBLIC_ORIGIN" envDefault:"http://localhost:5173"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`
	JWTSecret      string `env:"JWT_SECRET"`

	AnalyticsKey  string `env:"ANALYTICS_KEY"`
	AnalyticsHost string `env:"ANALYTICS_HOST" envDefault:"https://us.i.posthog.com"`
	RabbitMQURL   string `env:"RABBITMQ_URL"`
	TrackerBuffer int    `env:"TRACKER_BUFFER" envDefault:"256"`

	BackfillRunSecret string        `env:"BACKFILL_RUN_SECRET"`
	BackfillInterval  time.Duration `env:"BACKFILL_INTERVAL" envDefault:"0s"`
	QuoteTTL          time.Duration `env:"QUOTE_TTL" envDefault:"720h"`

	DocumentsBucket   string `env:"DOCUMENTS_BUCKET"`
	DocumentsEndpoint string `env:"DOCUMENTS_ENDPOINT"`
	AWSRegion         string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSAccessKeyID    string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey      string `env:"AWS_SECRET_ACCESS_KEY"`
}

type ServerConfig struct {
	ListenAddr     string
	LogLevel       string
	PublicOrigin   string
	AllowedOrigins []string
	JWTSecret      string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type MailConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	From        string
	StaffEmails []string
}

type AnalyticsConfig struct {
	Key         string
	Host        string
	RabbitMQURL string
	Buffer      int
}

type BackfillConfig struct {
	RunSecret string
	Interval  time.Duration
}

type DocumentsConfig struct {
	Bucket      string
	Endpoint    string
	Region      string
	AccessKeyID string
	SecretKey   string
}

// Config is built once at start-up and handed to every constructor.
type Config struct {
	Server      ServerConfig
	DatabaseURL string
	Stripe      StripeConfig
	Mail        MailConfig
	Analytics   AnalyticsConfig
	Backfill    BackfillConfig
	Documents   DocumentsConfig
	QuoteTTL    time.Duration
}

// MissingConfigError lists every required variable that was empty.
type MissingConfigError struct {
	Keys []string
}

func (e *MissingConfigError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}

// Load reads .env (if present), the environment and command-line overrides.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	var a Arguments
	if err := env.Parse(&a); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	fs := pflag.NewFlagSet("api", pflag.ContinueOnError)
	server := fs.StringP("server", "a", a.ListenAddr, "Server listen address in a form host:port.")
	logLevel := fs.StringP("log_level", "l", a.LogLevel, "Log level.")
	dsn := fs.StringP("dsn", "d", a.DatabaseURL, "Database URL.")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			ListenAddr:     *server,
			LogLevel:       *logLevel,
			PublicOrigin:   strings.TrimRight(a.PublicOrigin, "/"),
			AllowedOrigins: parseList(a.AllowedOrigins),
			JWTSecret:      a.JWTSecret,
		},
		DatabaseURL: *dsn,
		Stripe: StripeConfig{
			SecretKey:     a.StripeSecretKey,
			WebhookSecret: a.StripeWebhookSecret,
		},
		Mail: MailConfig{
			Host:        a.SMTPHost,
			Port:        a.SMTPPort,
			User:        a.SMTPUser,
			Password:    a.SMTPPassword,
			From:        a.MailFrom,
			StaffEmails: parseList(a.StaffEmails),
		},
		Analytics: AnalyticsConfig{
			Key:         a.AnalyticsKey,
			Host:        strings.TrimRight(a.AnalyticsHost, "/"),
			RabbitMQURL: a.RabbitMQURL,
			Buffer:      a.TrackerBuffer,
		},
		Backfill: BackfillConfig{
			RunSecret: a.BackfillRunSecret,
			Interval:  a.BackfillInterval,
		},
		Documents: DocumentsConfig{
			Bucket:      a.DocumentsBucket,
			Endpoint:    a.DocumentsEndpoint,
			Region:      a.AWSRegion,
			AccessKeyID: a.AWSAccessKeyID,
			SecretKey:   a.AWSSecretKey,
		},
		QuoteTTL: a.QuoteTTL,
	}

	if cfg.Analytics.Buffer <= 0 {
		cfg.Analytics.Buffer = 256
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate only enforces what the workflow cannot run without. The backfill
// secret, analytics and document storage degrade per operation instead.
func validate(cfg *Config) error {
	var missing []string
	required := []struct {
		key, value string
	}{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"STRIPE_SECRET_KEY", cfg.Stripe.SecretKey},
		{"STRIPE_WEBHOOK_SECRET", cfg.Stripe.WebhookSecret},
		{"SMTP_HOST", cfg.Mail.Host},
		{"MAIL_FROM", cfg.Mail.From},
		{"JWT_SECRET", cfg.Server.JWTSecret},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(cfg.Mail.StaffEmails) == 0 {
		missing = append(missing, "STAFF_EMAILS")
	}
	if len(missing) > 0 {
		return &MissingConfigError{Keys: missing}
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
