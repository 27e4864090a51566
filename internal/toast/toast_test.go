package toast

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
	"github.com/varoOP/pokechu/internal/schedule"
)

func messages(ts []Toast) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Message
	}
	return out
}

func TestQueueCapsAndOrders(t *testing.T) {
	q := NewQueue(zerolog.Nop(), schedule.NewManual())
	for _, m := range []string{"1", "2", "3", "4", "5"} {
		q.Add(m, domain.ToneInfo)
	}

	got := messages(q.List())
	want := []string{"5", "4", "3", "2"}
	if len(got) != len(want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List = %v, want %v", got, want)
		}
	}
}

func TestQueueExpires(t *testing.T) {
	clock := schedule.NewManual()
	q := NewQueue(zerolog.Nop(), clock)

	var changes int
	q.OnChange(func([]Toast) { changes++ })

	first := q.Add("first", "")
	clock.Advance(time.Second)
	q.Add("second", domain.ToneWarning)

	if ts := q.List(); len(ts) != 2 || ts[1].ID != first || ts[1].Tone != domain.ToneInfo {
		t.Fatalf("List = %+v", ts)
	}

	clock.Advance(Lifetime - time.Second)
	if ts := q.List(); len(ts) != 1 || ts[0].Message != "second" {
		t.Fatalf("after first expiry List = %+v", ts)
	}

	clock.Advance(time.Second)
	if ts := q.List(); len(ts) != 0 {
		t.Fatalf("after second expiry List = %+v", ts)
	}
	if changes != 4 {
		t.Errorf("OnChange called %d times, want 4", changes)
	}
}
