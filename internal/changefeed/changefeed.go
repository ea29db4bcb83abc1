// Package changefeed delivers row-change notifications from the remote store.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Event reports one changed row. Only the identity is carried; consumers
// refetch rather than apply payloads.
type Event struct {
	Table string `json:"table"`
	Op    Op     `json:"op"`
	ID    string `json:"id"`
}

// ParseEvent decodes a notification payload.
func ParseEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode change event: %w", err)
	}
	if ev.Table == "" {
		return Event{}, fmt.Errorf("decode change event: missing table")
	}
	return ev, nil
}

// Subscription is a live feed for one principal. Events is closed after Close
// returns or when the underlying connection fails.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Source opens subscriptions filtered to one principal's rows.
type Source interface {
	Subscribe(ctx context.Context, userID string) (Subscription, error)
}

// Open returns the Source for driver. dsn is only called for the postgres
// driver. The memory driver receives nothing from the database: only
// in-process publishers reach it, so remote changes are never seen.
func Open(driver string, dsn func() (string, error), log zerolog.Logger) (Source, error) {
	switch driver {
	case "", "postgres":
		url, err := dsn()
		if err != nil {
			return nil, err
		}
		return NewPGListener(url, log), nil
	case "memory":
		log.Warn().Str("event", "changefeed_memory").
			Msg("memory change feed selected; remote changes will not trigger a refetch")
		return NewBus(), nil
	default:
		return nil, fmt.Errorf("unsupported changefeed driver: %s", driver)
	}
}
