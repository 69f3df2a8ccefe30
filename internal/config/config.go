package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	DatabaseURL       string
	HTTPAddr          string
	StorageDir        string
	MaxUploadBytes    int64
	TelegramToken     string
	DigestTime        string
	RecomputeInterval time.Duration
	TemplatesDir      string
	PrefsPath         string
	Debug             bool
}

const (
	defaultMaxUploadMB       = 50
	defaultRecomputeInterval = 15 * time.Minute
)

// Load reads an optional INI file named by DDT_CONFIG and then environment
// variables, which take precedence. Missing values get sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:       "diligence.db",
		HTTPAddr:          ":8080",
		StorageDir:        "storage",
		MaxUploadBytes:    defaultMaxUploadMB << 20,
		DigestTime:        "09:00",
		RecomputeInterval: defaultRecomputeInterval,
		TemplatesDir:      "templates",
		PrefsPath:         "preferences.yaml",
	}

	if path := strings.TrimSpace(os.Getenv("DDT_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.HTTPAddr, "HTTP_ADDR")
	overrideString(&cfg.StorageDir, "STORAGE_DIR")
	overrideString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	overrideString(&cfg.DigestTime, "DIGEST_TIME")
	overrideString(&cfg.TemplatesDir, "TEMPLATES_DIR")
	overrideString(&cfg.PrefsPath, "PREFS_PATH")
	if mb := parsePositive(strings.TrimSpace(os.Getenv("MAX_UPLOAD_MB"))); mb > 0 {
		cfg.MaxUploadBytes = int64(mb) << 20
	}
	if minutes := parsePositive(strings.TrimSpace(os.Getenv("RECOMPUTE_INTERVAL_MINUTES"))); minutes > 0 {
		cfg.RecomputeInterval = time.Duration(minutes) * time.Minute
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("DEBUG"))); err == nil {
		cfg.Debug = v
	}

	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database url is required")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http addr is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	if _, _, err := ParseClock(c.DigestTime); err != nil {
		return err
	}
	return nil
}

// BotEnabled reports whether a Telegram token was configured.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// ParseClock parses an HH:MM string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("load config file: %w", err)
	}

	db := f.Section("database")
	cfg.DatabaseURL = db.Key("url").MustString(cfg.DatabaseURL)

	server := f.Section("server")
	cfg.HTTPAddr = server.Key("addr").MustString(cfg.HTTPAddr)

	storage := f.Section("storage")
	cfg.StorageDir = storage.Key("dir").MustString(cfg.StorageDir)
	if mb := storage.Key("max_upload_mb").MustInt(0); mb > 0 {
		cfg.MaxUploadBytes = int64(mb) << 20
	}

	telegram := f.Section("telegram")
	cfg.TelegramToken = telegram.Key("token").MustString(cfg.TelegramToken)

	schedule := f.Section("schedule")
	cfg.DigestTime = schedule.Key("digest_time").MustString(cfg.DigestTime)
	if minutes := schedule.Key("recompute_interval_minutes").MustInt(0); minutes > 0 {
		cfg.RecomputeInterval = time.Duration(minutes) * time.Minute
	}

	cfg.Debug = f.Section("app").Key("debug").MustBool(cfg.Debug)

	paths := f.Section("paths")
	cfg.TemplatesDir = paths.Key("templates").MustString(cfg.TemplatesDir)
	cfg.PrefsPath = paths.Key("preferences").MustString(cfg.PrefsPath)
	return nil
}

func overrideString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func parsePositive(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
