package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	HTTPAddr       string   `yaml:"http_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`
	GameTTLSec  int    `yaml:"game_ttl_sec"`

	StockfishPath     string `yaml:"stockfish_path"`
	StockfishCapacity int    `yaml:"stockfish_capacity"`
	AnalysisURL       string `yaml:"analysis_url"`
	AnalysisPath      string `yaml:"analysis_path"`
	AnalysisDepth     int    `yaml:"analysis_depth"`
	AnalysisMaxDepth  int    `yaml:"analysis_max_depth"`
	AnalysisTimeoutMS int    `yaml:"analysis_timeout_ms"`

	PromotionTimeoutSec int  `yaml:"promotion_timeout_sec"`
	OracleCrossCheck    bool `yaml:"oracle_cross_check"`

	MessagesDir string `yaml:"messages_dir"`
	Locale      string `yaml:"locale"`
}

func (c *AppConfig) GameTTL() time.Duration {
	return time.Duration(c.GameTTLSec) * time.Second
}

func (c *AppConfig) AnalysisTimeout() time.Duration {
	return time.Duration(c.AnalysisTimeoutMS) * time.Millisecond
}

func (c *AppConfig) PromotionTimeout() time.Duration {
	return time.Duration(c.PromotionTimeoutSec) * time.Second
}

func defaults() *AppConfig {
	return &AppConfig{
		HTTPAddr:            ":8080",
		GameTTLSec:          86400,
		AnalysisPath:        "/api/s/v2.php",
		AnalysisDepth:       12,
		AnalysisMaxDepth:    18,
		AnalysisTimeoutMS:   8000,
		PromotionTimeoutSec: 60,
		OracleCrossCheck:    true,
		Locale:              "en",
	}
}

// Load builds the configuration from defaults, then the yaml file named by
// ARENA_CONFIG (if any), then environment variables.
func Load() (*AppConfig, error) {
	cfg, err := LoadLocal()
	if err != nil {
		return nil, err
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.GameTTLSec <= 0 {
		return nil, fmt.Errorf("game ttl must be positive: %d", cfg.GameTTLSec)
	}
	return cfg, nil
}

// LoadLocal is Load without the server requirements, for offline play.
func LoadLocal() (*AppConfig, error) {
	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("ARENA_CONFIG")); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func loadFile(cfg *AppConfig, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("decode config %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}

	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setPositiveInt(&cfg.GameTTLSec, "GAME_TTL_SEC")

	setString(&cfg.StockfishPath, "STOCKFISH_PATH")
	setPositiveInt(&cfg.StockfishCapacity, "STOCKFISH_CAPACITY")
	setString(&cfg.AnalysisURL, "ANALYSIS_URL")
	setString(&cfg.AnalysisPath, "ANALYSIS_PATH")
	setPositiveInt(&cfg.AnalysisDepth, "ANALYSIS_DEPTH")
	setPositiveInt(&cfg.AnalysisMaxDepth, "ANALYSIS_MAX_DEPTH")
	setPositiveInt(&cfg.AnalysisTimeoutMS, "ANALYSIS_TIMEOUT_MS")

	// 0 disables promotion expiry
	if v := strings.TrimSpace(os.Getenv("PROMOTION_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.PromotionTimeoutSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ORACLE_CROSS_CHECK")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OracleCrossCheck = b
		}
	}

	setString(&cfg.MessagesDir, "MESSAGES_DIR")
	setString(&cfg.Locale, "LOCALE")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setPositiveInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
