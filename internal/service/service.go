// Package service implements the client-file sync engine: optimistic
// mutations over an in-memory tree, persisted to the remote store and
// reconciled by debounced refetches driven by the change feed.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"clientfiles/internal/auth"
	"clientfiles/internal/cache"
	"clientfiles/internal/changefeed"
	"clientfiles/internal/debounce"
	"clientfiles/internal/model"
	"clientfiles/internal/repository"
	"clientfiles/internal/storage"
)

// Policy decides what happens to an optimistic cache write whose remote
// write fails.
type Policy int

const (
	// PolicyNoRollback keeps the optimistic state and lets the next
	// reconciliation refetch restore the store's truth.
	PolicyNoRollback Policy = iota
	// PolicyRollback restores the pre-write snapshot, unless the cache was
	// rewritten again in the meantime.
	PolicyRollback
)

func (p Policy) String() string {
	if p == PolicyRollback {
		return "rollback"
	}
	return "optimistic_no_rollback"
}

// Config tunes a Service. Zero values take the defaults below.
type Config struct {
	Policy        Policy
	Debounce      time.Duration
	SignedURLTTL  time.Duration
	ActivityLimit int
	Logger        zerolog.Logger
	Metrics       *Metrics
}

const (
	DefaultDebounce      = 100 * time.Millisecond
	DefaultSignedURLTTL  = 365 * 24 * time.Hour
	DefaultActivityLimit = 50
	refetchTimeout       = 30 * time.Second
)

// Service owns one session's entity cache and its operation set.
type Service struct {
	store   repository.Store
	objects storage.Storage
	feed    changefeed.Source
	cache   *cache.Cache
	cfg     Config
	log     zerolog.Logger
	tracer  trace.Tracer
	now     func() time.Time

	mu        sync.Mutex
	principal auth.Principal
	epoch     uint64
	sub       changefeed.Subscription
	debouncer *debounce.Debouncer
}

// New builds a Service. feed may be nil, in which case only the service's
// own writes schedule refetches.
func New(store repository.Store, objects storage.Storage, feed changefeed.Source, cfg Config) *Service {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = DefaultSignedURLTTL
	}
	if cfg.ActivityLimit <= 0 {
		cfg.ActivityLimit = DefaultActivityLimit
	}
	return &Service{
		store:   store,
		objects: objects,
		feed:    feed,
		cache:   cache.New(),
		cfg:     cfg,
		log:     cfg.Logger.With().Str("component", "sync").Logger(),
		tracer:  otel.Tracer("clientfiles/internal/service"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Init starts a session for p: it loads the tree and subscribes to the
// change feed. Any previous session is torn down first.
func (s *Service) Init(ctx context.Context, p auth.Principal) error {
	if p.UserID == "" {
		return ErrIDRequired
	}
	s.Teardown()

	s.mu.Lock()
	s.principal = p
	s.epoch++
	epoch := s.epoch
	deb := debounce.New(s.cfg.Debounce, func() { s.reconcile(epoch) })
	s.debouncer = deb
	s.mu.Unlock()

	if err := s.load(ctx, epoch); err != nil {
		s.abort(epoch)
		return err
	}

	if s.feed != nil {
		sub, err := s.feed.Subscribe(ctx, p.UserID)
		if err != nil {
			s.abort(epoch)
			return err
		}
		s.mu.Lock()
		if s.epoch != epoch {
			s.mu.Unlock()
			_ = sub.Close()
			return nil
		}
		s.sub = sub
		s.mu.Unlock()
		go func() {
			for range sub.Events() {
				deb.Trigger()
			}
		}()
	}

	s.log.Info().Str("event", "session_started").Str("user_id", p.UserID).Str("policy", s.cfg.Policy.String()).Msg("sync session started")
	return nil
}

// Teardown unsubscribes from the change feed, cancels any pending refetch
// and clears the cache. In-flight remote calls are not cancelled; their
// results are discarded.
func (s *Service) Teardown() {
	s.mu.Lock()
	sub, deb, had := s.sub, s.debouncer, s.principal.UserID != ""
	s.sub, s.debouncer = nil, nil
	s.principal = auth.Principal{}
	s.epoch++
	s.mu.Unlock()

	if deb != nil {
		deb.Stop()
	}
	if sub != nil {
		if err := sub.Close(); err != nil {
			s.log.Warn().Err(err).Msg("close change feed")
		}
	}
	s.cache.Reset()
	if had {
		s.log.Info().Str("event", "session_ended").Msg("sync session ended")
	}
}

// abort tears down a session whose Init failed, unless a newer session has
// already replaced it.
func (s *Service) abort(epoch uint64) {
	s.mu.Lock()
	current := s.epoch == epoch
	s.mu.Unlock()
	if current {
		s.Teardown()
	}
}

// ScheduleRefetch arms the reconciliation debouncer.
func (s *Service) ScheduleRefetch() {
	s.mu.Lock()
	deb := s.debouncer
	s.mu.Unlock()
	if deb != nil {
		deb.Trigger()
	}
}

func (s *Service) reconcile(epoch uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
	defer cancel()
	if err := s.refetch(ctx, epoch); err != nil {
		s.log.Error().Err(err).Str("event", "refetch_failed").Msg("reconciliation refetch failed")
	}
}

// Policy reports the active failure policy.
func (s *Service) Policy() Policy { return s.cfg.Policy }

// Principal returns the session owner, zero when no session is active.
func (s *Service) Principal() auth.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal
}

// Snapshot returns the current immutable cache revision.
func (s *Service) Snapshot() *cache.State { return s.cache.Snapshot() }

func (s *Service) Files() []*model.ClientFile { return s.cache.Snapshot().Files }

func (s *Service) Templates() []*model.Template { return s.cache.Snapshot().Templates }

func (s *Service) Activities() []*model.ActivityEntry { return s.cache.Snapshot().Activities }

func (s *Service) userID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal.UserID == "" {
		return "", ErrNotInitialized
	}
	return s.principal.UserID, nil
}

func (s *Service) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}
