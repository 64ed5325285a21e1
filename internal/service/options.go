package service

import "time"

// Option customizes a service at construction time.
type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock replaces time.Now as the service's source of the current time.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

func applyOptions(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
