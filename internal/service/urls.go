package service

import (
	"context"

	"clientfiles/internal/model"
)

// RefreshFileURL signs a fresh download URL for storagePath and patches it
// into the one cached folder file that references the path. It returns
// ok=false when signing fails; it never errors and never triggers a refetch.
func (s *Service) RefreshFileURL(ctx context.Context, storagePath string) (url string, ok bool) {
	if storagePath == "" {
		return "", false
	}
	url, err := s.objects.PresignGet(ctx, storagePath, s.cfg.SignedURLTTL)
	if err != nil || url == "" {
		s.log.Warn().Err(err).Str("event", "url_refresh_failed").Str("storage_path", storagePath).Msg("refresh file url")
		return "", false
	}
	if p, found := s.cache.Snapshot().LocateStoragePath(storagePath); found {
		s.cache.ReplaceFolderFile(p.FileID, p.ProjectID, p.FolderID, p.FolderFileID, func(ff *model.FolderFile) {
			ff.URL = url
		})
	}
	return url, true
}
