package repository

import (
	"time"

	"github.com/google/uuid"
)

type memoryOptions struct {
	now   func() time.Time
	newID func() string
}

func defaultMemoryOptions() memoryOptions {
	return memoryOptions{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Option applies a configuration option to the in-memory stores.
type Option func(*memoryOptions)

// WithClock sets the time source used for CreatedAt/UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(o *memoryOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator sets the generator used for profiles inserted without an ID.
func WithIDGenerator(gen func() string) Option {
	return func(o *memoryOptions) {
		if gen != nil {
			o.newID = gen
		}
	}
}
