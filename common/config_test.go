package common_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guarzo/recruitapi/common"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, name := range []string{
		"RECRUIT_API_BASE_URL", "RECRUIT_API_TIMEOUT_MS", "RECRUIT_API_LOGGING",
		"RECRUIT_STORE", "RECRUIT_PROFILE", "APP_ENV",
	} {
		t.Setenv(name, "")
	}

	cfg := common.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if cfg.BaseURL != common.DefaultBaseURL {
		t.Errorf("expected default base url, got %q", cfg.BaseURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.Timeout)
	}
	if cfg.Logging {
		t.Error("expected logging off by default")
	}
	if cfg.Store != "memory" || cfg.Profile != "default" {
		t.Errorf("unexpected store defaults %q/%q", cfg.Store, cfg.Profile)
	}
}

func TestLoadConfig_FromEnvAndFile(t *testing.T) {
	t.Setenv("RECRUIT_API_TIMEOUT_MS", "2500")
	t.Setenv("RECRUIT_API_LOGGING", "true")
	t.Setenv("RECRUIT_PROFILE", "")
	t.Setenv("RECRUIT_API_BASE_URL", "http://env.example/api")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "RECRUIT_PROFILE=staging\nRECRUIT_API_BASE_URL=http://file.example/api\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv.Load never overrides variables that are already set
	os.Unsetenv("RECRUIT_PROFILE")

	cfg := common.LoadConfig(envFile)
	if cfg.Timeout != 2500*time.Millisecond {
		t.Errorf("expected 2.5s, got %v", cfg.Timeout)
	}
	if !cfg.Logging {
		t.Error("expected logging enabled")
	}
	if cfg.Profile != "staging" {
		t.Errorf("expected profile from file, got %q", cfg.Profile)
	}
	if cfg.BaseURL != "http://env.example/api" {
		t.Errorf("expected env to win over file, got %q", cfg.BaseURL)
	}
}

func TestEnvIntOrDefault(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 7},
		{"42", 42},
		{" 3 ", 3},
		{"abc", 7},
		{"-1", 7},
	}
	for _, tt := range tests {
		t.Setenv("RECRUIT_TEST_INT", tt.value)
		if got := common.EnvIntOrDefault("RECRUIT_TEST_INT", 7); got != tt.want {
			t.Errorf("EnvIntOrDefault(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}
