package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
	"github.com/varoOP/pokechu/internal/encounter"
	"github.com/varoOP/pokechu/internal/profile"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := &domain.Config{
		DataDir:           t.TempDir(),
		AppOrigin:         "http://localhost:5173/PwaPokedex/",
		PokeAPIBase:       "https://pokeapi.co/api/v2",
		Offline:           true,
		ShinyProbability:  domain.DefaultShinyProbability,
		NavigationTimeout: 1500 * time.Millisecond,
		EntityTimeout:     2500 * time.Millisecond,
		ListenAddr:        "127.0.0.1:0",
	}

	a, err := New(zerolog.Nop(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewRouterUsesConfiguredEntityHost(t *testing.T) {
	a := newTestApp(t)

	r, err := a.NewRouter()
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	defer r.Close()

	if got := r.IndexURL(); got != "http://localhost:5173/PwaPokedex/index.html" {
		t.Errorf("IndexURL = %q", got)
	}
}

func TestResetWipesProfile(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	pikachu := domain.Pokemon{ID: 25, Name: "pikachu", Types: []string{"electric"}}
	a.Profile().RecordEncounter(ctx, pikachu, false)
	a.Profile().Capture(ctx, pikachu, false)
	a.Profile().ToggleFavorite(ctx, 25)
	if len(a.Dex(profile.FilterCaptured, "")) != 1 {
		t.Fatal("capture not recorded in logbook")
	}

	if err := a.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if got := a.Profile().Captured(); len(got) != 0 {
		t.Errorf("team after reset = %v", got)
	}
	if a.Profile().IsFavorite(25) {
		t.Error("favorite survived reset")
	}
	if got := a.Dex(profile.FilterAll, ""); len(got) != 0 {
		t.Errorf("logbook after reset = %v", got)
	}
	if a.Registration().Controlled() {
		t.Error("router still registered after reset")
	}

	var msgs []string
	for _, toast := range a.Toasts().List() {
		msgs = append(msgs, toast.Message)
	}
	if len(msgs) == 0 || msgs[len(msgs)-1] != "Resetting app…" {
		t.Errorf("toasts = %v", msgs)
	}
}

func TestPlayCommands(t *testing.T) {
	a := newTestApp(t)

	in := strings.NewReader("team\nfav 25\nsound off\ntheme dark\nbogus\nquit\n")
	var out bytes.Buffer

	if err := a.Play(context.Background(), in, &out, PlayOptions{}); err != nil {
		t.Fatalf("Play: %v", err)
	}

	for _, want := range []string{
		"type help for commands",
		"your team is empty",
		"#025 added to favorites",
		"sound false",
		"theme dark",
		`unknown command "bogus"`,
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	if !a.Profile().IsFavorite(25) {
		t.Error("favorite not persisted")
	}
	if prefs := a.Profile().Preferences(); prefs.SoundEnabled || prefs.Theme != domain.ThemeDark {
		t.Errorf("preferences = %+v", prefs)
	}
}

func TestDescribe(t *testing.T) {
	bulbasaur := domain.Pokemon{ID: 1, Name: "bulbasaur", Types: []string{"grass", "poison"}}

	tests := []struct {
		name string
		in   encounter.Snapshot
		want string
	}{
		{
			name: "loading",
			in:   encounter.Snapshot{State: encounter.Loading{}},
			want: "searching...",
		},
		{
			name: "error",
			in:   encounter.Snapshot{State: encounter.Errored{Err: "offline"}},
			want: "load failed, type retry",
		},
		{
			name: "ready",
			in:   encounter.Snapshot{State: encounter.Ready{Pokemon: bulbasaur}, AttemptsLeft: 3, MaxAttempts: 3},
			want: "#001 Bulbasaur [grass/poison] throws left: 3/3",
		},
		{
			name: "throw in flight",
			in: encounter.Snapshot{
				State:  encounter.Ready{Pokemon: bulbasaur},
				Effect: &encounter.ThrowEffect{ID: "x", Variant: encounter.VariantCapture},
			},
			want: "",
		},
		{
			name: "pending",
			in: encounter.Snapshot{
				State:   encounter.Ready{Pokemon: bulbasaur},
				Pending: &encounter.PendingCapture{Pokemon: bulbasaur},
			},
			want: "Bulbasaur is waiting for a team slot, release someone (team, release <n>)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describe(tt.in); got != tt.want {
				t.Errorf("describe = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlayResetReinstallsRouter(t *testing.T) {
	a := newTestApp(t)

	var out bytes.Buffer
	in := strings.NewReader("reset\nquit\n")
	if err := a.Play(context.Background(), in, &out, PlayOptions{Install: true}); err != nil {
		t.Fatalf("Play: %v", err)
	}

	if !a.Registration().Controlled() {
		t.Error("no router registered after in-game reset")
	}
	if !strings.Contains(out.String(), "Resetting app…") {
		t.Errorf("reset notice missing:\n%s", out.String())
	}
}

func TestPlayWithoutInstallStaysUncontrolled(t *testing.T) {
	a := newTestApp(t)

	var out bytes.Buffer
	if err := a.Play(context.Background(), strings.NewReader("reset\nquit\n"), &out, PlayOptions{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if a.Registration().Controlled() {
		t.Error("router registered although install was off")
	}
}
