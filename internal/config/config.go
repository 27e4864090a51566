package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/varoOP/pokechu/internal/domain"
)

const (
	DefaultAppOrigin   = "http://localhost:5173/PwaPokedex/"
	DefaultPokeAPIBase = "https://pokeapi.co/api/v2"
	DefaultListenAddr  = "127.0.0.1:7151"
)

// DefaultDataDir is where the sqlite database lives unless configured.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "pokechu")
	}
	return ".pokechu"
}

// SetDefaults registers the default of every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("app_origin", DefaultAppOrigin)
	v.SetDefault("pokeapi_base", DefaultPokeAPIBase)
	v.SetDefault("offline", false)
	v.SetDefault("shiny_probability", domain.DefaultShinyProbability)
	v.SetDefault("entity_rps", 0)
	v.SetDefault("navigation_timeout", 1500*time.Millisecond)
	v.SetDefault("entity_timeout", 2500*time.Millisecond)
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("discord_webhook_url", "")
	v.SetDefault("notifications", false)
	v.SetDefault("sound", true)
}

// Load loads configuration from multiple sources:
// 1. Defaults
// 2. Config file (config.yaml in $HOME/.pokechu or the working directory, optional)
// 3. Environment variables (POKECHU_*)
// 4. Command line flags bound to the global viper instance
func Load() (*domain.Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*domain.Config, error) {
	SetDefaults(v)

	cfg := &domain.Config{
		DataDir:           v.GetString("data_dir"),
		AppOrigin:         v.GetString("app_origin"),
		PokeAPIBase:       v.GetString("pokeapi_base"),
		Offline:           v.GetBool("offline"),
		ShinyProbability:  v.GetFloat64("shiny_probability"),
		EntityRPS:         v.GetFloat64("entity_rps"),
		NavigationTimeout: v.GetDuration("navigation_timeout"),
		EntityTimeout:     v.GetDuration("entity_timeout"),
		ListenAddr:        v.GetString("listen_addr"),
		DiscordWebhookURL: v.GetString("discord_webhook_url"),
		Notifications:     v.GetBool("notifications"),
		Sound:             v.GetBool("sound"),
	}

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir is required (set via config.yaml or POKECHU_DATA_DIR environment variable)")
	}

	origin, err := url.Parse(cfg.AppOrigin)
	if err != nil || !origin.IsAbs() {
		return nil, fmt.Errorf("invalid app_origin: %q (must be an absolute URL)", cfg.AppOrigin)
	}

	if base, err := url.Parse(cfg.PokeAPIBase); err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("invalid pokeapi_base: %q (must be an absolute URL)", cfg.PokeAPIBase)
	}

	if cfg.ShinyProbability <= 0 || cfg.ShinyProbability > 1 {
		return nil, fmt.Errorf("invalid shiny_probability: %v (must be in (0, 1])", cfg.ShinyProbability)
	}

	if cfg.EntityRPS < 0 {
		return nil, fmt.Errorf("invalid entity_rps: %v (must not be negative)", cfg.EntityRPS)
	}

	if cfg.NavigationTimeout <= 0 || cfg.EntityTimeout <= 0 {
		return nil, fmt.Errorf("navigation_timeout and entity_timeout must be positive")
	}

	return cfg, nil
}

// Scope is the app origin as a router scope; it always ends in a slash.
func Scope(cfg *domain.Config) (*url.URL, error) {
	u, err := url.Parse(cfg.AppOrigin)
	if err != nil {
		return nil, fmt.Errorf("invalid app_origin: %w", err)
	}
	if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
		u.Path += "/"
	}
	return u, nil
}
