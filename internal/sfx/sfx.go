// Package sfx plays the game's sound cues through a lazily opened output.
package sfx

import (
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
)

// Output renders one cue at the given master gain.
type Output interface {
	Play(cue domain.Sfx, gain float64) error
}

// tones is the number of tones each cue is made of.
var tones = map[domain.Sfx]int{
	domain.SfxUI:      2,
	domain.SfxThrow:   1,
	domain.SfxShake:   1,
	domain.SfxBreak:   2,
	domain.SfxCapture: 3,
}

type bell struct {
	w io.Writer
}

// Bell rings the terminal bell once per tone.
func Bell(w io.Writer) Output {
	return &bell{w: w}
}

func (b *bell) Play(cue domain.Sfx, gain float64) error {
	n, ok := tones[cue]
	if !ok {
		return errors.Errorf("unknown sound effect %q", cue)
	}
	_, err := io.WriteString(b.w, strings.Repeat("\a", n))
	return err
}

// Player owns the process-wide output. The output is opened on first use and
// never torn down; a failed open silences the player.
type Player struct {
	log  zerolog.Logger
	open func() (Output, error)

	once    sync.Once
	out     Output
	openErr error
}

func NewPlayer(log zerolog.Logger, open func() (Output, error)) *Player {
	if open == nil {
		open = func() (Output, error) { return Bell(os.Stderr), nil }
	}
	return &Player{
		log:  log.With().Str("module", "sfx").Logger(),
		open: open,
	}
}

// Clamp limits v to [0, 1]; non-finite values become 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

// Play renders cue under prefs. Disabled sound or zero volume is a no-op and
// playback errors are only logged.
func (p *Player) Play(cue domain.Sfx, prefs domain.Preferences) {
	if !prefs.SoundEnabled {
		return
	}
	volume := Clamp(prefs.SoundVolume)
	if volume <= 0 {
		return
	}

	p.once.Do(func() {
		p.out, p.openErr = p.open()
		if p.openErr != nil {
			p.log.Debug().Err(p.openErr).Msg("audio output unavailable")
		}
	})
	if p.openErr != nil {
		return
	}

	if err := p.out.Play(cue, 0.25+volume*0.75); err != nil {
		p.log.Debug().Err(err).Str("sfx", string(cue)).Msg("playback failed")
	}
}
