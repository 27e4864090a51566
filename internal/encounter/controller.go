// Package encounter drives the wild encounter: it draws and fetches a random
// entity, resolves throws through timed effect sequences and reconciles
// captures against the capacity-bounded team.
//
// Deferred steps are tied to the effect token that was live when they were
// scheduled and do nothing once it has been replaced or cleared. Encounter
// loads are tied to a generation; a result that arrives after a newer
// encounter started is discarded.
package encounter

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
	"github.com/varoOP/pokechu/internal/format"
	"github.com/varoOP/pokechu/internal/profile"
	"github.com/varoOP/pokechu/internal/schedule"
	"go.uber.org/atomic"
)

// Rand is the randomness the controller draws from.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type Notices interface {
	Add(message string, tone domain.ToastTone) string
}

type Player interface {
	Play(cue domain.Sfx, prefs domain.Preferences)
}

type Connectivity interface {
	Online() bool
}

type Deps struct {
	Fetcher   domain.PokemonFetcher
	Profile   *profile.Profile
	Notices   Notices
	Notifier  domain.NotificationService
	Player    Player
	Net       Connectivity
	Scheduler schedule.Scheduler
	// Rand defaults to a randomly seeded source.
	Rand Rand
	// ShinyProbability defaults to domain.DefaultShinyProbability.
	ShinyProbability float64
}

type Controller struct {
	log      zerolog.Logger
	fetcher  domain.PokemonFetcher
	profile  *profile.Profile
	notices  Notices
	notifier domain.NotificationService
	player   Player
	net      Connectivity
	sched    schedule.Scheduler
	rnd      Rand
	shinyP   float64

	token *atomic.String
	wg    sync.WaitGroup
	ctx   context.Context
	stop  context.CancelFunc

	mu            sync.Mutex
	state         State
	effect        *ThrowEffect
	pending       *PendingCapture
	gen           uint64
	cancel        context.CancelFunc
	shinyNotified bool
	closed        bool
	onChange      func(Snapshot)
}

func NewController(log zerolog.Logger, deps Deps) *Controller {
	rnd := deps.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	shinyP := deps.ShinyProbability
	if shinyP <= 0 {
		shinyP = domain.DefaultShinyProbability
	}
	sched := deps.Scheduler
	if sched == nil {
		sched = schedule.Real()
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Controller{
		log:      log.With().Str("module", "encounter").Logger(),
		fetcher:  deps.Fetcher,
		profile:  deps.Profile,
		notices:  deps.Notices,
		notifier: deps.Notifier,
		player:   deps.Player,
		net:      deps.Net,
		sched:    sched,
		rnd:      rnd,
		shinyP:   shinyP,
		token:    atomic.NewString(""),
		ctx:      ctx,
		stop:     stop,
		state:    Loading{},
	}
}

// OnChange registers f to receive a snapshot after every observable change.
func (c *Controller) OnChange(f func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = f
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{
		State:        c.state,
		MaxAttempts:  domain.MaxThrowsPerEncounter,
		AttemptsLeft: domain.MaxThrowsPerEncounter - c.state.roll().AttemptsUsed,
	}
	if c.effect != nil {
		e := *c.effect
		s.Effect = &e
	}
	if c.pending != nil {
		p := *c.pending
		s.Pending = &p
	}
	return s
}

// CurrentSprite is the sprite to show for the current encounter.
func (c *Controller) CurrentSprite() string {
	return c.Snapshot().Sprite()
}

// apply runs f under the lock and publishes a snapshot when f reports a change.
func (c *Controller) apply(f func() bool) {
	c.mu.Lock()
	if c.closed || !f() {
		c.mu.Unlock()
		return
	}
	snap := c.snapshot()
	cb := c.onChange
	c.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// NewEncounter abandons the current encounter and starts a fresh one.
func (c *Controller) NewEncounter() {
	c.apply(c.newEncounter)
}

// Retry starts a new encounter, but only from the error state.
func (c *Controller) Retry() {
	c.apply(func() bool {
		if _, ok := c.state.(Errored); !ok {
			return false
		}
		return c.newEncounter()
	})
}

func (c *Controller) newEncounter() bool {
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.shinyNotified = false

	id := c.pickID(ctx)
	shiny := c.rnd.Float64() < c.shinyP

	c.profile.UpdateStats(ctx, func(s *domain.Stats) {
		s.Encounters++
		if shiny {
			s.ShinyEncounters++
		}
	})
	c.state = Loading{Roll: Roll{Shiny: shiny}}

	c.log.Debug().Int("id", id).Bool("shiny", shiny).Uint64("gen", gen).Msg("new encounter")

	c.wg.Add(1)
	go c.load(ctx, gen, id, shiny)
	return true
}

// pickID draws from the cached ids while offline, else from the full range.
func (c *Controller) pickID(ctx context.Context) int {
	if c.net != nil && !c.net.Online() {
		var pool []int
		for _, id := range c.fetcher.CachedIDs(ctx) {
			if id >= 1 && id <= domain.Gen1MaxID {
				pool = append(pool, id)
			}
		}
		if len(pool) > 0 {
			return pool[c.rnd.IntN(len(pool))]
		}
	}
	return c.rnd.IntN(domain.Gen1MaxID) + 1
}

func (c *Controller) load(ctx context.Context, gen uint64, id int, shiny bool) {
	defer c.wg.Done()

	pokemon, err := c.fetcher.Fetch(ctx, id)

	c.apply(func() bool {
		if gen != c.gen {
			c.log.Debug().Int("id", id).Uint64("gen", gen).Msg("discarding stale encounter load")
			return false
		}
		roll := c.state.roll()

		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return false
			}
			c.log.Warn().Err(err).Int("id", id).Msg("failed to load encounter")
			c.state = Errored{Roll: roll, Err: err.Error()}
			c.notices.Add("Could not load Pokémon (offline?). Try again.", domain.ToneWarning)
			return true
		}

		c.profile.RecordEncounter(ctx, pokemon, shiny)
		c.state = Ready{Roll: roll, Pokemon: pokemon}

		if shiny && !c.shinyNotified {
			c.shinyNotified = true
			name := format.Name(pokemon.Name)
			c.notices.Add(fmt.Sprintf("Shiny encounter: %s!", name), domain.ToneShiny)
			c.notify("Shine bright like a diamond", fmt.Sprintf("%s appeared!", name))
		}
		return true
	})
}

// notify delivers an OS-level notification without blocking the caller.
func (c *Controller) notify(title, body string) {
	if c.notifier == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.notifier.Notify(c.ctx, title, body); err != nil {
			c.log.Debug().Err(err).Str("title", title).Msg("notification failed")
		}
	}()
}

func (c *Controller) play(cue domain.Sfx) {
	if c.player != nil {
		c.player.Play(cue, c.profile.Preferences())
	}
}

// startEffect makes a fresh effect live, invalidating every step of the
// previous one.
func (c *Controller) startEffect(v Variant) string {
	id := uuid.NewString()
	c.token.Store(id)
	c.effect = &ThrowEffect{ID: id, Variant: v}
	return id
}

func (c *Controller) clearEffect() {
	c.token.Store("")
	c.effect = nil
}

// after schedules f as a step of effect id.
func (c *Controller) after(id string, d time.Duration, f func() bool) {
	c.sched.AfterFunc(d, func() {
		if c.token.Load() != id {
			return
		}
		c.apply(func() bool {
			if c.token.Load() != id {
				return false
			}
			return f()
		})
	})
}

// afterEncounter schedules f unless a newer encounter has started by then.
// The caller holds c.mu.
func (c *Controller) afterEncounter(d time.Duration, f func() bool) {
	gen := c.gen
	c.sched.AfterFunc(d, func() {
		c.apply(func() bool {
			if gen != c.gen {
				return false
			}
			return f()
		})
	})
}

// Throw resolves one capture attempt against the current encounter.
func (c *Controller) Throw() {
	c.apply(func() bool {
		ready, ok := c.state.(Ready)
		if !ok || c.pending != nil || c.effect != nil || ready.AttemptsUsed >= domain.MaxThrowsPerEncounter {
			return false
		}

		c.play(domain.SfxThrow)
		c.profile.UpdateStats(c.ctx, func(s *domain.Stats) { s.Throws++ })

		chance := MinCatchChance + c.rnd.Float64()*(MaxCatchChance-MinCatchChance)
		caught := c.rnd.Float64() < chance

		ready.AttemptsUsed++
		c.state = ready
		pokemon, shiny := ready.Pokemon, ready.Shiny

		c.log.Debug().Int("id", pokemon.ID).Int("attempt", ready.AttemptsUsed).Float64("chance", chance).Bool("caught", caught).Msg("throw")

		switch {
		case caught && c.profile.TeamFull():
			id := c.startEffect(VariantBreak)
			c.after(id, ThrowFxClear, func() bool {
				c.clearEffect()
				c.pending = &PendingCapture{Pokemon: pokemon, Shiny: shiny}
				c.play(domain.SfxBreak)
				c.notices.Add(fmt.Sprintf("Your team is full (%d). Release one Pokémon to continue.", domain.MaxTeamSize), domain.ToneWarning)
				return true
			})

		case caught:
			id := c.startEffect(VariantCapture)
			for _, d := range []time.Duration{FirstShake, SecondShake, ThirdShake} {
				c.after(id, d, func() bool {
					c.play(domain.SfxShake)
					return false
				})
			}
			c.after(id, CaptureCommit, func() bool {
				c.commit(pokemon, shiny)
				c.play(domain.SfxCapture)
				return true
			})
			c.after(id, NextAfterCapture, func() bool {
				c.clearEffect()
				return c.newEncounter()
			})

		case ready.AttemptsUsed < domain.MaxThrowsPerEncounter:
			c.breakFree()
			c.notices.Add("Oh no! It broke free.", domain.ToneWarning)

		default:
			c.profile.UpdateStats(c.ctx, func(s *domain.Stats) { s.FailedEncounters++ })
			c.breakFree()
			c.notices.Add(fmt.Sprintf("It fled after %d failed throws...", domain.MaxThrowsPerEncounter), domain.ToneWarning)
			c.afterEncounter(NextAfterFlee, c.newEncounter)
		}
		return true
	})
}

func (c *Controller) breakFree() {
	id := c.startEffect(VariantBreak)
	c.after(id, ThrowFxClear, func() bool {
		c.clearEffect()
		return true
	})
	c.after(id, BreakSfx, func() bool {
		c.play(domain.SfxBreak)
		return false
	})
}

// commit adds a capture to the team and announces it.
func (c *Controller) commit(pokemon domain.Pokemon, shiny bool) {
	c.profile.Capture(c.ctx, pokemon, shiny)

	name := format.Name(pokemon.Name)
	c.notices.Add(fmt.Sprintf("It's a catch! %s joined your team.", name), domain.ToneSuccess)
	c.notify("It's a catch!", fmt.Sprintf("%s was captured.", name))
}

// Flee abandons a ready or failed encounter for a new one.
func (c *Controller) Flee() {
	c.apply(func() bool {
		if c.state.Status() == StatusLoading || c.pending != nil || c.effect != nil {
			return false
		}
		c.profile.UpdateStats(c.ctx, func(s *domain.Stats) { s.Flees++ })
		c.notices.Add("You fled. Searching for another Pokémon...", domain.ToneInfo)
		return c.newEncounter()
	})
}

// Release removes the team member identified by (id, capturedAt).
func (c *Controller) Release(id int, capturedAt string) bool {
	var released bool
	c.apply(func() bool {
		released = c.release(id, capturedAt)
		return released
	})
	return released
}

func (c *Controller) release(id int, capturedAt string) bool {
	if !c.profile.Release(c.ctx, id, capturedAt) {
		return false
	}
	c.notices.Add("Pokémon released.", domain.ToneInfo)
	return true
}

// ConfirmReleaseForPending frees a team slot and commits the pending capture
// into it, then moves on to a new encounter.
func (c *Controller) ConfirmReleaseForPending(id int, capturedAt string) bool {
	var released bool
	c.apply(func() bool {
		released = c.release(id, capturedAt)
		if c.pending == nil || c.profile.TeamFull() {
			return released
		}

		p := *c.pending
		c.commit(p.Pokemon, p.Shiny)
		c.pending = nil
		c.afterEncounter(NextAfterPendingClear, c.newEncounter)
		return true
	})
	return released
}

// Wait blocks until in-flight loads and notifications have settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels the in-flight load and turns every later step into a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.token.Store("")
	c.mu.Unlock()

	c.stop()
	c.wg.Wait()
}
