package domain

import "context"

// Database defines lifecycle operations for a persistent user store.
// Each implementation (SQLite, Postgres) owns its own migration files and
// strategy so the backend stays swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
