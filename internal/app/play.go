package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/varoOP/pokechu/internal/domain"
	"github.com/varoOP/pokechu/internal/encounter"
	"github.com/varoOP/pokechu/internal/format"
	"github.com/varoOP/pokechu/internal/profile"
	"github.com/varoOP/pokechu/internal/toast"
)

const playHelp = `commands:
  throw, t              throw a ball
  flee, f               run from the current encounter
  retry                 retry a failed load
  team                  list your team
  release <n>           release team member n
  stats                 show your stats
  dex [filter] [query]  list the logbook (all, team, captured, favorites, shiny)
  fav <id>              toggle a favorite
  sound [on|off|0-1]    show or change sound
  theme [light|dark]    show or change the theme
  online, offline       toggle connectivity
  reset                 wipe all local data
  help                  show this help
  quit, q               exit`

// console serializes writes from the input loop and the change callbacks.
type console struct {
	mu   sync.Mutex
	out  io.Writer
	seen map[string]bool
}

func (c *console) printf(msg string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, msg, args...)
}

func (c *console) toasts(list []toast.Toast) {
	c.mu.Lock()
	defer c.mu.Unlock()

	visible := make(map[string]bool, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		t := list[i]
		visible[t.ID] = true
		if c.seen[t.ID] {
			continue
		}
		c.seen[t.ID] = true
		fmt.Fprintf(c.out, "[%s] %s\n", t.Tone, t.Message)
	}
	for id := range c.seen {
		if !visible[id] {
			delete(c.seen, id)
		}
	}
}

// PlayOptions configures a terminal session.
type PlayOptions struct {
	// Install registers the caching router when the session starts and again
	// after every in-game reset.
	Install bool
}

// Play runs the interactive game loop until quit, EOF or ctx is done.
func (a *App) Play(ctx context.Context, in io.Reader, out io.Writer, opts PlayOptions) error {
	if opts.Install {
		if _, err := a.Install(ctx); err != nil {
			return err
		}
	}

	con := &console{out: out, seen: make(map[string]bool)}
	a.toasts.OnChange(con.toasts)
	defer a.toasts.OnChange(nil)

	ctrl := a.startController(con)
	defer func() { ctrl.Close() }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	con.printf("type help for commands\n")
	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
		case "throw", "t":
			ctrl.Throw()
		case "flee", "f":
			ctrl.Flee()
		case "retry":
			ctrl.Retry()
		case "team":
			a.printTeam(con)
		case "release":
			a.release(con, ctrl, args)
		case "stats":
			a.printStats(con)
		case "dex":
			a.printDex(con, args)
		case "fav":
			a.toggleFavorite(ctx, con, args)
		case "sound":
			a.sound(ctx, con, args)
		case "theme":
			a.theme(ctx, con, args)
		case "online":
			a.net.SetOnline(true)
			con.printf("online\n")
		case "offline":
			a.net.SetOnline(false)
			con.printf("offline\n")
		case "reset":
			ctrl.Close()
			if err := a.Reset(ctx); err != nil {
				a.log.Error().Err(err).Msg("reset failed")
			}
			if opts.Install {
				if _, err := a.Install(ctx); err != nil {
					a.log.Error().Err(err).Msg("reinstall after reset failed")
				}
			}
			ctrl = a.startController(con)
		case "help", "?":
			con.printf("%s\n", playHelp)
		case "quit", "exit", "q":
			return nil
		default:
			con.printf("unknown command %q, type help\n", cmd)
		}
	}
}

func (a *App) startController(con *console) *encounter.Controller {
	ctrl := a.NewController()

	var (
		mu   sync.Mutex
		last string
	)
	ctrl.OnChange(func(s encounter.Snapshot) {
		line := describe(s)
		mu.Lock()
		defer mu.Unlock()
		if line == "" || line == last {
			return
		}
		last = line
		con.printf("%s\n", line)
	})

	ctrl.NewEncounter()
	return ctrl
}

func describe(s encounter.Snapshot) string {
	if s.Pending != nil {
		return fmt.Sprintf("%s is waiting for a team slot, release someone (team, release <n>)",
			format.Name(s.Pending.Pokemon.Name))
	}

	switch st := s.State.(type) {
	case encounter.Loading:
		return "searching..."
	case encounter.Errored:
		return "load failed, type retry"
	case encounter.Ready:
		if s.Effect != nil {
			return ""
		}
		shiny := ""
		if st.Shiny {
			shiny = " ✨"
		}
		return fmt.Sprintf("%s %s%s [%s] throws left: %d/%d",
			format.DexNumber(st.Pokemon.ID),
			format.Name(st.Pokemon.Name),
			shiny,
			strings.Join(st.Pokemon.Types, "/"),
			s.AttemptsLeft,
			s.MaxAttempts,
		)
	}
	return ""
}

func (a *App) printTeam(con *console) {
	team := a.profile.Captured()
	if len(team) == 0 {
		con.printf("your team is empty\n")
		return
	}
	for i, p := range team {
		shiny := ""
		if p.Shiny {
			shiny = " ✨"
		}
		con.printf("%d. %s %s%s (%s)\n", i+1, format.DexNumber(p.ID), format.Name(p.Name), shiny, p.CapturedAt)
	}
}

func (a *App) release(con *console, ctrl *encounter.Controller, args []string) {
	if len(args) != 1 {
		con.printf("usage: release <n>\n")
		return
	}
	team := a.profile.Captured()
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(team) {
		con.printf("no team member %q\n", args[0])
		return
	}
	member := team[n-1]

	if ctrl.Snapshot().Pending != nil {
		ctrl.ConfirmReleaseForPending(member.ID, member.CapturedAt)
		return
	}
	ctrl.Release(member.ID, member.CapturedAt)
}

func (a *App) printStats(con *console) {
	s := a.profile.Stats()
	con.printf("encounters %d  captures %d  shiny %d  flees %d  failed %d  throws %d\n",
		s.Encounters, s.Captures, s.ShinyEncounters, s.Flees, s.FailedEncounters, s.Throws)
}

func (a *App) printDex(con *console, args []string) {
	filter := profile.FilterAll
	if len(args) > 0 {
		if f, err := profile.ParseFilter(args[0]); err == nil {
			filter = f
			args = args[1:]
		}
	}

	entries := a.Dex(filter, strings.Join(args, " "))
	if len(entries) == 0 {
		con.printf("no entries\n")
		return
	}
	for _, e := range entries {
		con.printf("%s %-12s seen %d  caught %t  shiny %t  released %d\n",
			format.DexNumber(e.ID), format.Name(e.Name), e.TimesEncountered, e.CapturedEver, e.ShinySeen, e.ReleasedCount)
	}
}

func (a *App) toggleFavorite(ctx context.Context, con *console, args []string) {
	if len(args) != 1 {
		con.printf("usage: fav <id>\n")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 1 {
		con.printf("invalid id %q\n", args[0])
		return
	}
	if a.profile.ToggleFavorite(ctx, id) {
		con.printf("%s added to favorites\n", format.DexNumber(id))
		return
	}
	con.printf("%s removed from favorites\n", format.DexNumber(id))
}

func (a *App) sound(ctx context.Context, con *console, args []string) {
	prefs := a.profile.Preferences()
	if len(args) > 0 {
		switch v := strings.ToLower(args[0]); v {
		case "on":
			prefs = a.profile.UpdatePreferences(ctx, func(p *domain.Preferences) { p.SoundEnabled = true })
		case "off":
			prefs = a.profile.UpdatePreferences(ctx, func(p *domain.Preferences) { p.SoundEnabled = false })
		default:
			vol, err := strconv.ParseFloat(v, 64)
			if err != nil {
				con.printf("usage: sound [on|off|0-1]\n")
				return
			}
			prefs = a.profile.UpdatePreferences(ctx, func(p *domain.Preferences) { p.SoundVolume = vol })
		}
	}
	con.printf("sound %t, volume %.2f\n", prefs.SoundEnabled, prefs.SoundVolume)
}

func (a *App) theme(ctx context.Context, con *console, args []string) {
	prefs := a.profile.Preferences()
	if len(args) > 0 {
		prefs = a.profile.UpdatePreferences(ctx, func(p *domain.Preferences) {
			p.Theme = domain.Theme(strings.ToLower(args[0]))
		})
	}
	con.printf("theme %s\n", prefs.Theme)
}
