package domain

import "time"

type Config struct {
	DataDir           string        `toml:"data_dir" mapstructure:"data_dir"`
	AppOrigin         string        `toml:"app_origin" mapstructure:"app_origin"`
	PokeAPIBase       string        `toml:"pokeapi_base" mapstructure:"pokeapi_base"`
	Offline           bool          `toml:"offline" mapstructure:"offline"`
	ShinyProbability  float64       `toml:"shiny_probability" mapstructure:"shiny_probability"`
	EntityRPS         float64       `toml:"entity_rps" mapstructure:"entity_rps"`
	NavigationTimeout time.Duration `toml:"navigation_timeout" mapstructure:"navigation_timeout"`
	EntityTimeout     time.Duration `toml:"entity_timeout" mapstructure:"entity_timeout"`
	ListenAddr        string        `toml:"listen_addr" mapstructure:"listen_addr"`
	DiscordWebhookURL string        `toml:"discord_webhook_url" mapstructure:"discord_webhook_url"`
	Notifications     bool          `toml:"notifications" mapstructure:"notifications"`
	Sound             bool          `toml:"sound" mapstructure:"sound"`
}
