package repository

import (
	"context"
	"database/sql"
	"time"

	"controme_bridge"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*controme_bridge.User, error)
}

// EventRepo is the append-only command audit trail. Snapshot data is never
// persisted; only issued commands and refresh failures are.
type EventRepo interface {
	Append(ctx context.Context, e controme_bridge.CommandEvent) error
	List(ctx context.Context, from, to time.Time, typ, deviceID string) ([]controme_bridge.CommandEvent, error)
}

type Repository struct {
	Events EventRepo
	Auth   Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Events: NewEventSQLite(db),
		Auth:   NewUserRepository(db),
	}
}
