package domain

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Preferences struct {
	Theme        Theme   `json:"theme" yaml:"theme"`
	SoundEnabled bool    `json:"soundEnabled" yaml:"soundEnabled"`
	SoundVolume  float64 `json:"soundVolume" yaml:"soundVolume"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:        ThemeLight,
		SoundEnabled: true,
		SoundVolume:  0.65,
	}
}

type Stats struct {
	Encounters       int `json:"encounters" yaml:"encounters"`
	Captures         int `json:"captures" yaml:"captures"`
	ShinyEncounters  int `json:"shinyEncounters" yaml:"shinyEncounters"`
	Flees            int `json:"flees" yaml:"flees"`
	FailedEncounters int `json:"failedEncounters" yaml:"failedEncounters"`
	Throws           int `json:"throws" yaml:"throws"`
}

// CapturedPokemon is one inventory record. Identity is the (ID, CapturedAt) pair.
type CapturedPokemon struct {
	ID         int      `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Sprite     string   `json:"sprite,omitempty" yaml:"sprite,omitempty"`
	Types      []string `json:"types" yaml:"types"`
	Shiny      bool     `json:"shiny" yaml:"shiny"`
	CapturedAt string   `json:"capturedAt" yaml:"capturedAt"`
}

// PokedexEntry is the per-species logbook record.
type PokedexEntry struct {
	ID               int    `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	TimesEncountered int    `json:"timesEncountered" yaml:"timesEncountered"`
	ShinySeen        bool   `json:"shinySeen" yaml:"shinySeen"`
	CapturedEver     bool   `json:"capturedEver" yaml:"capturedEver"`
	ReleasedCount    int    `json:"releasedCount" yaml:"releasedCount"`
}

type Pokedex map[int]PokedexEntry

type ToastTone string

const (
	ToneInfo    ToastTone = "info"
	ToneSuccess ToastTone = "success"
	ToneWarning ToastTone = "warning"
	ToneShiny   ToastTone = "shiny"
)

type Sfx string

const (
	SfxUI      Sfx = "ui"
	SfxThrow   Sfx = "throw"
	SfxShake   Sfx = "shake"
	SfxCapture Sfx = "capture"
	SfxBreak   Sfx = "break"
)
