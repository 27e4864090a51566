// Package toast keeps the short-lived notices shown to the player.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
	"github.com/varoOP/pokechu/internal/schedule"
)

const (
	MaxVisible = 4
	Lifetime   = 3200 * time.Millisecond
)

type Toast struct {
	ID      string           `json:"id"`
	Message string           `json:"message"`
	Tone    domain.ToastTone `json:"tone"`
}

// Queue holds the visible toasts, newest first.
type Queue struct {
	log   zerolog.Logger
	sched schedule.Scheduler

	mu       sync.Mutex
	toasts   []Toast
	onChange func([]Toast)
}

func NewQueue(log zerolog.Logger, sched schedule.Scheduler) *Queue {
	return &Queue{
		log:   log.With().Str("module", "toast").Logger(),
		sched: sched,
	}
}

// OnChange registers f to receive the visible toasts after every change.
func (q *Queue) OnChange(f func([]Toast)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = f
}

// Add shows message and schedules its removal. Older toasts beyond
// MaxVisible are dropped immediately.
func (q *Queue) Add(message string, tone domain.ToastTone) string {
	if tone == "" {
		tone = domain.ToneInfo
	}
	t := Toast{ID: uuid.NewString(), Message: message, Tone: tone}

	q.mu.Lock()
	q.toasts = append([]Toast{t}, q.toasts...)
	if len(q.toasts) > MaxVisible {
		q.toasts = q.toasts[:MaxVisible]
	}
	q.mu.Unlock()

	q.log.Debug().Str("tone", string(tone)).Msg(message)
	q.notify()

	q.sched.AfterFunc(Lifetime, func() { q.remove(t.ID) })
	return t.ID
}

func (q *Queue) remove(id string) {
	q.mu.Lock()
	removed := false
	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i:i], q.toasts[i+1:]...)
			removed = true
			break
		}
	}
	q.mu.Unlock()

	if removed {
		q.notify()
	}
}

// List returns the visible toasts, newest first.
func (q *Queue) List() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Toast, len(q.toasts))
	copy(out, q.toasts)
	return out
}

func (q *Queue) notify() {
	q.mu.Lock()
	f := q.onChange
	q.mu.Unlock()
	if f != nil {
		f(q.List())
	}
}
