package changefeed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"clientfiles/internal/database/migration"
)

// PGListener subscribes through PostgreSQL LISTEN/NOTIFY. Each subscription
// holds a dedicated connection listening on the owner's channel.
type PGListener struct {
	dsn     string
	log     zerolog.Logger
	connect func(ctx context.Context, dsn string) (*pgx.Conn, error)
}

var _ Source = (*PGListener)(nil)

func NewPGListener(dsn string, log zerolog.Logger) *PGListener {
	return &PGListener{
		dsn:     dsn,
		log:     log.With().Str("component", "changefeed").Logger(),
		connect: pgx.Connect,
	}
}

// ChannelName is the notification channel carrying userID's row changes.
func ChannelName(userID string) string {
	return migration.NotifyChannelPrefix + userID
}

func (l *PGListener) Subscribe(ctx context.Context, userID string) (Subscription, error) {
	if userID == "" {
		return nil, errors.New("changefeed: user id is required")
	}
	conn, err := l.connect(ctx, l.dsn)
	if err != nil {
		return nil, fmt.Errorf("changefeed connect: %w", err)
	}
	channel := ChannelName(userID)
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("changefeed listen: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := &pgSubscription{
		conn:   conn,
		events: make(chan Event, 64),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.run(runCtx, l.log.With().Str("channel", channel).Logger())
	l.log.Info().Str("event", "changefeed_subscribed").Str("channel", channel).Msg("listening")
	return sub, nil
}

type pgSubscription struct {
	conn   *pgx.Conn
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *pgSubscription) Events() <-chan Event { return s.events }

func (s *pgSubscription) run(ctx context.Context, log zerolog.Logger) {
	defer close(s.done)
	defer close(s.events)
	for {
		n, err := s.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Str("event", "changefeed_failed").Msg("wait for notification")
			}
			return
		}
		ev, err := ParseEvent(n.Payload)
		if err != nil {
			log.Warn().Err(err).Str("payload", n.Payload).Msg("skipping malformed notification")
			continue
		}
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (s *pgSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		<-s.done
		err = s.conn.Close(context.Background())
	})
	return err
}
