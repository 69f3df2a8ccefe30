package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"DDT_CONFIG", "DATABASE_URL", "HTTP_ADDR", "STORAGE_DIR", "MAX_UPLOAD_MB",
		"TELEGRAM_TOKEN", "DIGEST_TIME", "RECOMPUTE_INTERVAL_MINUTES", "TEMPLATES_DIR", "PREFS_PATH", "DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DatabaseURL != "diligence.db" || cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.MaxUploadBytes != 50<<20 {
		t.Fatalf("expected 50MB ceiling, got %d", cfg.MaxUploadBytes)
	}
	if cfg.BotEnabled() {
		t.Fatal("bot must be disabled without a token")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tracker.ini")
	content := "[database]\nurl = file.db\n\n[storage]\nmax_upload_mb = 20\n\n[schedule]\nrecompute_interval_minutes = 5\n\n[app]\ndebug = true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DDT_CONFIG", path)
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DatabaseURL != "file.db" {
		t.Errorf("expected file.db, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("expected env override :9090, got %s", cfg.HTTPAddr)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Errorf("expected 20MB, got %d", cfg.MaxUploadBytes)
	}
	if cfg.RecomputeInterval != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.RecomputeInterval)
	}
	if !cfg.Debug {
		t.Error("expected debug from [app] section")
	}
}

func TestLoadRejectsBadDigestTime(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIGEST_TIME", "25:00")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid digest time")
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("07:45")
	if err != nil || h != 7 || m != 45 {
		t.Fatalf("unexpected %d:%d (%v)", h, m, err)
	}
	for _, bad := range []string{"7", "aa:10", "10:61"} {
		if _, _, err := ParseClock(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
