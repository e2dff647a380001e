package store

import (
	"context"
	"time"
)

// ObserveFunc receives the operation name and its wall-clock duration.
type ObserveFunc func(op string, duration time.Duration)

// Instrument wraps a store so every View and Update is timed. A nil observer
// returns the store unchanged.
func Instrument(st Store, observe ObserveFunc) Store {
	if observe == nil {
		return st
	}
	return &instrumented{next: st, observe: observe}
}

type instrumented struct {
	next    Store
	observe ObserveFunc
}

func (s *instrumented) View(ctx context.Context, fn func(Tx) error) error {
	start := time.Now()
	err := s.next.View(ctx, fn)
	s.observe("view", time.Since(start))
	return err
}

func (s *instrumented) Update(ctx context.Context, fn func(Tx) error) error {
	start := time.Now()
	err := s.next.Update(ctx, fn)
	s.observe("update", time.Since(start))
	return err
}

func (s *instrumented) Close() error {
	return s.next.Close()
}
