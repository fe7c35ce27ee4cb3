package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	DatabaseURL    string `yaml:"database_url"`
	DBMaxOpenConns int    `yaml:"db_max_open_conns"`
	AutoMigrate    bool   `yaml:"auto_migrate"`

	SessionSecret string `yaml:"session_secret"`
	JWTSecret     string `yaml:"jwt_secret"`
	JWTIssuer     string `yaml:"jwt_issuer"`

	// Redis - optional, profile cache falls back to an in-process LRU when empty
	RedisURL        string        `yaml:"redis_url"`
	ProfileCacheTTL time.Duration `yaml:"profile_cache_ttl"`

	CMSBaseURL string `yaml:"cms_base_url"`
	CMSToken   string `yaml:"cms_token"`
	SiteURL    string `yaml:"site_url"`

	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     string `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPass     string `yaml:"smtp_pass"`
	SMTPFrom     string `yaml:"smtp_from"`
	SMTPFromName string `yaml:"smtp_from_name"`
	NotifyEmail  string `yaml:"notify_email"`

	EventsBackend string   `yaml:"events_backend"` // memory | kafka
	KafkaBrokers  []string `yaml:"kafka_brokers"`
	KafkaTopic    string   `yaml:"kafka_topic"`
	KafkaGroupID  string   `yaml:"kafka_group_id"`
	QueueSize     int      `yaml:"queue_size"`
	QueueWorkers  int      `yaml:"queue_workers"`

	LookupTimeout   time.Duration `yaml:"lookup_timeout"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`

	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
	LogLevel     string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Port:            "8080",
		DatabaseURL:     "host=localhost user=postgres password=postgres dbname=agencyblog port=5432 sslmode=disable TimeZone=UTC",
		DBMaxOpenConns:  20,
		AutoMigrate:     true,
		SessionSecret:   "secret_key_change_me",
		JWTSecret:       "replace-this-with-a-strong-secret",
		ProfileCacheTTL: 5 * time.Minute,
		SMTPPort:        "587",
		SMTPFromName:    "Agency Blog",
		EventsBackend:   "memory",
		KafkaTopic:      "blog.comments.created",
		KafkaGroupID:    "comment-notifier",
		QueueSize:       1000,
		QueueWorkers:    2,
		LookupTimeout:   2 * time.Second,
		DispatchTimeout: 15 * time.Second,
		ServiceName:     "agencyblog-engagement",
		LogLevel:        "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by CONFIG_FILE,
// and finally the process environment.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = getenv("PORT", cfg.Port)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBMaxOpenConns = getenvInt("DB_MAX_OPEN_CONNS", cfg.DBMaxOpenConns)
	cfg.AutoMigrate = getenvBool("AUTO_MIGRATE", cfg.AutoMigrate)

	cfg.SessionSecret = getenv("SESSION_SECRET", cfg.SessionSecret)
	cfg.JWTSecret = getenv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = getenv("JWT_ISSUER", cfg.JWTIssuer)

	cfg.RedisURL = getenv("REDIS_URL", cfg.RedisURL)
	cfg.ProfileCacheTTL = getenvSeconds("PROFILE_CACHE_TTL_SECONDS", cfg.ProfileCacheTTL)

	cfg.CMSBaseURL = getenv("CMS_BASE_URL", cfg.CMSBaseURL)
	cfg.CMSToken = getenv("CMS_TOKEN", cfg.CMSToken)
	cfg.SiteURL = strings.TrimRight(getenv("SITE_URL", cfg.SiteURL), "/")

	cfg.SMTPHost = getenv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getenv("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUser = getenv("SMTP_USER", cfg.SMTPUser)
	cfg.SMTPPass = getenv("SMTP_PASS", cfg.SMTPPass)
	cfg.SMTPFrom = getenv("SMTP_FROM", cfg.SMTPFrom)
	cfg.SMTPFromName = getenv("SMTP_FROM_NAME", cfg.SMTPFromName)
	cfg.NotifyEmail = getenv("NOTIFY_EMAIL", cfg.NotifyEmail)

	cfg.EventsBackend = strings.ToLower(getenv("EVENTS_BACKEND", cfg.EventsBackend))
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}
	cfg.KafkaTopic = getenv("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.KafkaGroupID = getenv("KAFKA_GROUP_ID", cfg.KafkaGroupID)
	cfg.QueueSize = getenvInt("QUEUE_SIZE", cfg.QueueSize)
	cfg.QueueWorkers = getenvInt("QUEUE_WORKERS", cfg.QueueWorkers)

	cfg.LookupTimeout = getenvMillis("LOOKUP_TIMEOUT_MS", cfg.LookupTimeout)
	cfg.DispatchTimeout = getenvSeconds("DISPATCH_TIMEOUT_SECONDS", cfg.DispatchTimeout)

	cfg.OTLPEndpoint = getenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.ServiceName = getenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", cfg.LogLevel))

	if cfg.EventsBackend != "memory" && cfg.EventsBackend != "kafka" {
		return cfg, fmt.Errorf("unknown EVENTS_BACKEND %q", cfg.EventsBackend)
	}
	if cfg.EventsBackend == "kafka" && len(cfg.KafkaBrokers) == 0 {
		return cfg, fmt.Errorf("EVENTS_BACKEND=kafka requires KAFKA_BROKERS")
	}
	return cfg, nil
}

// MailEnabled mirrors the SMTP check the mail service does on startup.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPPort != "" && c.SMTPFrom != "" && c.NotifyEmail != ""
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvSeconds(key string, fallback time.Duration) time.Duration {
	n := getenvInt(key, 0)
	if n == 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func getenvMillis(key string, fallback time.Duration) time.Duration {
	n := getenvInt(key, 0)
	if n == 0 {
		return fallback
	}
	return time.Duration(n) * time.Millisecond
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
