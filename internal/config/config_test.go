package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_USER", "dm")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "dm")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBPort != "3306" {
		t.Fatalf("defaults not applied: port=%s dbPort=%s", cfg.Port, cfg.DBPort)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers=%v", cfg.KafkaBrokers)
	}
	if cfg.KafkaTopic != "dm.messages" {
		t.Fatalf("topic=%s", cfg.KafkaTopic)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	for _, k := range []string{"DB_USER", "DB_PASSWORD", "DB_HOST", "DB_NAME"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DB settings")
	}
}

func TestOriginAllowed(t *testing.T) {
	cfg := &Config{AllowedOrigins: []string{"https://chat.example.com"}}
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"https://127.0.0.1:50001", true},
		{"https://chat.example.com", true},
		{"https://evil.example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := cfg.OriginAllowed(tt.origin); got != tt.want {
			t.Errorf("OriginAllowed(%q)=%v want %v", tt.origin, got, tt.want)
		}
	}
}
