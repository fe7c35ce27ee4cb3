package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"CONFIG_FILE", "EVENTS_BACKEND", "PORT", "LOOKUP_TIMEOUT_MS"} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" || cfg.EventsBackend != "memory" || cfg.LookupTimeout != 2*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "port: \"9000\"\nsite_url: https://agency.example/\nqueue_workers: 4\nlookup_timeout: 750ms\nkafka_brokers: [a:9092]\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("QUEUE_WORKERS", "not-a-number")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("EVENTS_BACKEND", "Kafka")
	t.Setenv("SITE_URL", "")
	t.Setenv("LOOKUP_TIMEOUT_MS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9100" {
		t.Errorf("env should override file, port = %s", cfg.Port)
	}
	if cfg.SiteURL != "https://agency.example" {
		t.Errorf("site url = %s", cfg.SiteURL)
	}
	if cfg.QueueWorkers != 4 {
		t.Errorf("invalid env number should keep the file value, workers = %d", cfg.QueueWorkers)
	}
	if cfg.LookupTimeout != 750*time.Millisecond {
		t.Errorf("lookup timeout = %v", cfg.LookupTimeout)
	}
	if cfg.EventsBackend != "kafka" || len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("kafka settings = %s %v", cfg.EventsBackend, cfg.KafkaBrokers)
	}
}

func TestLoadRejectsBadBackend(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("EVENTS_BACKEND", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}

	t.Setenv("EVENTS_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "")
	if _, err := Load(); err == nil {
		t.Fatal("kafka without brokers should be rejected")
	}
}

func TestMailEnabled(t *testing.T) {
	cfg := Default()
	if cfg.MailEnabled() {
		t.Fatal("mail needs a host, sender and recipient")
	}
	cfg.SMTPHost, cfg.SMTPFrom, cfg.NotifyEmail = "smtp.example", "blog@example.com", "owner@example.com"
	if !cfg.MailEnabled() {
		t.Fatal("mail should be enabled")
	}
}
