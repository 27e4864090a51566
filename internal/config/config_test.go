package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/varoOP/pokechu/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ShinyProbability != domain.DefaultShinyProbability {
		t.Errorf("shiny_probability = %v", cfg.ShinyProbability)
	}
	if cfg.NavigationTimeout != 1500*time.Millisecond || cfg.EntityTimeout != 2500*time.Millisecond {
		t.Errorf("timeouts = %v, %v", cfg.NavigationTimeout, cfg.EntityTimeout)
	}
	if cfg.PokeAPIBase != DefaultPokeAPIBase || !cfg.Sound || cfg.Notifications {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("POKECHU_SHINY_PROBABILITY", "0.5")
	t.Setenv("POKECHU_ENTITY_TIMEOUT", "4s")
	t.Setenv("POKECHU_OFFLINE", "true")

	v := viper.New()
	v.SetEnvPrefix("POKECHU")
	v.AutomaticEnv()

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ShinyProbability != 0.5 || cfg.EntityTimeout != 4*time.Second || !cfg.Offline {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadValidates(t *testing.T) {
	tests := map[string]any{
		"app_origin":        "not a url",
		"shiny_probability": 2.0,
		"entity_rps":        -1,
		"entity_timeout":    "0s",
	}
	for key, value := range tests {
		v := viper.New()
		v.Set(key, value)
		if _, err := LoadFrom(v); err == nil {
			t.Errorf("%s = %v accepted", key, value)
		}
	}
}

func TestScope(t *testing.T) {
	u, err := Scope(&domain.Config{AppOrigin: "https://example.com/PwaPokedex"})
	if err != nil {
		t.Fatal(err)
	}
	if u.String() != "https://example.com/PwaPokedex/" {
		t.Errorf("Scope = %s", u)
	}
}
