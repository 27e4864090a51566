// Package netstate tracks whether the process considers itself online.
package netstate

import "go.uber.org/atomic"

type Status struct {
	online *atomic.Bool
}

func New(online bool) *Status {
	return &Status{online: atomic.NewBool(online)}
}

func (s *Status) Online() bool {
	return s.online.Load()
}

func (s *Status) SetOnline(online bool) {
	s.online.Store(online)
}
