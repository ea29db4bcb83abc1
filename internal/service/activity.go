package service

import (
	"context"

	"clientfiles/internal/model"
	"clientfiles/internal/repository"
)

// RecordActivity prepends an entry to the capped activity feed and persists
// it. Failures are logged and never surface to the caller.
func (s *Service) RecordActivity(ctx context.Context, action, target, fileID string) {
	uid, err := s.userID()
	if err != nil {
		return
	}
	entry := &model.ActivityEntry{
		ID:        model.NewID(),
		Action:    action,
		Target:    target,
		FileID:    fileID,
		CreatedAt: s.now(),
	}
	s.cache.PrependActivity(entry, s.cfg.ActivityLimit)

	values := repository.Values{
		"id":         entry.ID,
		"user_id":    uid,
		"action":     entry.Action,
		"target":     entry.Target,
		"created_at": entry.CreatedAt,
	}
	if fileID != "" {
		values["file_id"] = fileID
	}
	if err := s.store.Insert(ctx, repository.TableActivities, values); err != nil {
		s.log.Warn().Err(err).Str("event", "activity_failed").Str("action", action).Msg("record activity")
	}
}
