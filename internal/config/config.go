package config

import (
	"os"
	"strings"
	"time"
)

type AppConfig struct {
	ListenAddr string
	HealthAddr string

	RedisURL string

	AllowedOrigins []string

	DefaultMode       string
	DefaultDifficulty string

	RoomTTL time.Duration

	MsgTemplateDir string
}

// Load reads the process configuration from the environment. Everything has
// a sensible default; REDIS_URL left empty disables the live-state mirror.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:        ":8080",
		HealthAddr:        ":9090",
		DefaultMode:       "solo",
		DefaultDifficulty: "medium",
		RoomTTL:           24 * time.Hour,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("HEALTH_ADDR")); v != "" {
		cfg.HealthAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))

	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, s)
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv("DEFAULT_MODE")); v != "" {
		cfg.DefaultMode = v
	}
	if v := strings.TrimSpace(os.Getenv("DEFAULT_DIFFICULTY")); v != "" {
		cfg.DefaultDifficulty = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOM_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RoomTTL = d
		}
	}
	cfg.MsgTemplateDir = strings.TrimSpace(os.Getenv("MSG_TEMPLATE_DIR"))

	return cfg, nil
}
