package service

import (
	"context"
)

// mutation is one optimistic operation: a cache write followed by the remote
// writes that persist it.
type mutation struct {
	op string
	// apply rewrites the cache. It may be nil for operations that only
	// touch rows the cache does not hold.
	apply func()
	// persist performs the remote writes, parent rows before child rows.
	persist func(ctx context.Context) error
	// activity is recorded after a successful persist when action is set.
	action, target, fileID string
}

func (s *Service) metrics() *Metrics { return s.cfg.Metrics }

// commit runs m through the pipeline: cache write, remote writes, activity,
// then a scheduled refetch. A remote failure is returned as *RemoteError;
// under PolicyNoRollback the optimistic state is kept.
func (s *Service) commit(ctx context.Context, m mutation) error {
	prev, _ := s.cache.Checkpoint()
	if m.apply != nil {
		m.apply()
	}
	written := s.cache.Version()

	if err := m.persist(ctx); err != nil {
		s.metrics().mutationFailed(m.op)
		ev := s.log.Error().Err(err).Str("event", "mutation_failed").Str("op", m.op)
		if s.cfg.Policy == PolicyRollback && m.apply != nil {
			ev = ev.Bool("rolled_back", s.cache.RestoreIf(written, prev))
		}
		ev.Msg("remote write failed")
		s.ScheduleRefetch()
		return &RemoteError{Op: m.op, Err: err}
	}

	if m.action != "" {
		s.RecordActivity(ctx, m.action, m.target, m.fileID)
	}
	s.ScheduleRefetch()
	return nil
}
