package tui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dmchat.yaml")
	if err := os.WriteFile(path, []byte("api_url: https://dm.example.com\nuser_id: 3\nlog_file: /tmp/dmchat.log\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		env     map[string]string
		wantURL string
		wantID  int
		wantLvl string
	}{
		{"defaults", "", nil, "http://localhost:8080", 0, "info"},
		{"file", path, nil, "https://dm.example.com", 3, "info"},
		{"env overrides file", path, map[string]string{"DMCHAT_USER_ID": "9", "DMCHAT_LOG_LEVEL": "debug"}, "https://dm.example.com", 9, "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadConfig(tt.path)
			if err != nil {
				t.Fatal(err)
			}
			if cfg.APIURL != tt.wantURL || cfg.UserID != tt.wantID || cfg.LogLevel != tt.wantLvl {
				t.Fatalf("cfg = %+v", cfg)
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("user_id: [1"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{APIURL: "http://x", UserID: 1}, false},
		{"no url", Config{UserID: 1}, true},
		{"no user", Config{APIURL: "http://x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
		})
	}
}
