package encounter

import "github.com/varoOP/pokechu/internal/domain"

type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

// Roll is what every encounter carries regardless of status. Shiny is decided
// once when the encounter starts.
type Roll struct {
	Shiny        bool
	AttemptsUsed int
}

// State is one of Loading, Errored or Ready.
type State interface {
	Status() Status
	roll() Roll
}

type Loading struct {
	Roll
}

type Errored struct {
	Roll
	Err string
}

type Ready struct {
	Roll
	Pokemon domain.Pokemon
}

func (Loading) Status() Status { return StatusLoading }
func (Errored) Status() Status { return StatusError }
func (Ready) Status() Status   { return StatusReady }

func (s Loading) roll() Roll { return s.Roll }
func (s Errored) roll() Roll { return s.Roll }
func (s Ready) roll() Roll   { return s.Roll }

type Variant string

const (
	VariantCapture Variant = "capture"
	VariantBreak   Variant = "break"
)

// ThrowEffect is the live timed sequence of one throw. ID is the token every
// scheduled step checks before acting.
type ThrowEffect struct {
	ID      string
	Variant Variant
}

// PendingCapture is a successful catch waiting for a free team slot.
type PendingCapture struct {
	Pokemon domain.Pokemon
	Shiny   bool
}

// Snapshot is a consistent copy of the controller's observable state.
type Snapshot struct {
	State        State
	Effect       *ThrowEffect
	Pending      *PendingCapture
	AttemptsLeft int
	MaxAttempts  int
}

// Sprite is the sprite of the current encounter, empty unless ready.
func (s Snapshot) Sprite() string {
	r, ok := s.State.(Ready)
	if !ok {
		return ""
	}
	return r.Pokemon.Sprite(r.Shiny)
}
