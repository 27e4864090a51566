package schedule

import (
	"slices"
	"testing"
	"time"
)

func TestManualRunsInDueOrder(t *testing.T) {
	m := NewManual()
	var got []string

	m.AfterFunc(30*time.Millisecond, func() { got = append(got, "c") })
	m.AfterFunc(10*time.Millisecond, func() {
		got = append(got, "a")
		m.AfterFunc(5*time.Millisecond, func() { got = append(got, "b") })
	})
	m.AfterFunc(30*time.Millisecond, func() { got = append(got, "d") })
	m.AfterFunc(time.Second, func() { got = append(got, "late") })

	m.Advance(30 * time.Millisecond)

	if want := []string{"a", "b", "c", "d"}; !slices.Equal(got, want) {
		t.Errorf("ran %v, want %v", got, want)
	}
	if m.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", m.Pending())
	}
}
