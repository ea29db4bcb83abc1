package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"clientfiles/internal/cache"
	"clientfiles/internal/model"
	"clientfiles/internal/repository"
	"clientfiles/internal/storage"
)

type FolderInput struct {
	ID   string           `json:"id,omitempty"`
	Name string           `json:"name"`
	Type model.FolderType `json:"type,omitempty"`
}

// Upload is a blob to add to a folder. Size must be the exact byte count.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type FolderFilePatch struct {
	Name *string `json:"name,omitempty"`
}

func (s *Service) AddFolder(ctx context.Context, fileID, projectID string, in FolderInput) (*model.Folder, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, err
	}
	if _, err := s.editableProject(fileID, projectID); err != nil {
		return nil, err
	}
	d, err := newFolder(in)
	if err != nil {
		return nil, err
	}
	values := folderValues(uid, projectID, d, s.now())

	err = s.commit(ctx, mutation{
		op: "add_folder",
		apply: func() {
			s.cache.ReplaceProject(fileID, projectID, func(p *model.Project) {
				p.Folders = cache.Append(p.Folders, d)
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Insert(ctx, repository.TableFolders, values)
		},
		action: "Added folder", target: d.Name, fileID: fileID,
	})
	return d, err
}

// DeleteFolder removes a folder wherever it lives in the tree, along with
// the blobs of its files.
func (s *Service) DeleteFolder(ctx context.Context, folderID string) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	st := s.cache.Snapshot()
	path, ok := st.LocateFolder(folderID)
	if !ok {
		return notFound("folder", folderID)
	}
	if _, err := s.editableProject(path.FileID, path.ProjectID); err != nil {
		return err
	}
	cur := st.Folder(path.FileID, path.ProjectID, folderID)
	paths := folderStoragePaths(cur)

	err := s.commit(ctx, mutation{
		op: "delete_folder",
		apply: func() {
			s.cache.ReplaceProject(path.FileID, path.ProjectID, func(p *model.Project) {
				p.Folders = cache.Without(p.Folders, func(d *model.Folder) bool { return d.ID == folderID })
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Delete(ctx, repository.TableFolders, folderID)
		},
		action: "Deleted folder", target: cur.Name, fileID: path.FileID,
	})
	if err == nil {
		s.removeBlobs(ctx, paths)
	}
	return err
}

// AddFileToFolder checks the quota, then uploads the blob, signs a
// download URL and inserts the row. The row insert failing removes the
// uploaded blob again.
func (s *Service) AddFileToFolder(ctx context.Context, fileID, projectID, folderID string, up Upload) (*model.FolderFile, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, err
	}
	if _, err := s.editableProject(fileID, projectID); err != nil {
		return nil, err
	}
	if s.cache.Snapshot().Folder(fileID, projectID, folderID) == nil {
		return nil, notFound("folder", folderID)
	}
	name := strings.TrimSpace(up.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if up.Body == nil {
		return nil, ErrReaderNil
	}
	if up.Size < 0 {
		return nil, fmt.Errorf("upload %q: size is required", name)
	}
	if err := s.checkQuota(up.Size); err != nil {
		s.log.Info().Str("event", "quota_rejected").Int64("incoming", up.Size).Msg(err.Error())
		return nil, err
	}

	size := up.Size
	ff := &model.FolderFile{
		ID:          model.NewID(),
		Name:        name,
		FileType:    model.DetectFileType(name, up.ContentType),
		Size:        model.HumanSize(size),
		SizeInBytes: &size,
		UploadDate:  s.now(),
	}
	ff.StoragePath = storage.ObjectKey(uid, folderID, ff.ID, name)

	var url string
	err = s.commit(ctx, mutation{
		op: "add_file_to_folder",
		apply: func() {
			s.cache.ReplaceFolder(fileID, projectID, folderID, func(d *model.Folder) {
				d.Files = cache.Append(d.Files, ff)
			})
		},
		persist: func(ctx context.Context) error {
			if _, err := s.objects.Put(ctx, ff.StoragePath, up.Body, storage.PutObjectOptions{
				Size:        size,
				ContentType: up.ContentType,
			}); err != nil {
				return fmt.Errorf("upload blob: %w", err)
			}
			signed, err := s.objects.PresignGet(ctx, ff.StoragePath, s.cfg.SignedURLTTL)
			if err != nil {
				s.log.Warn().Err(err).Str("storage_path", ff.StoragePath).Msg("sign upload url")
			}
			url = signed

			values := repository.Values{
				"id":            ff.ID,
				"user_id":       uid,
				"folder_id":     folderID,
				"name":          ff.Name,
				"file_type":     string(ff.FileType),
				"size":          ff.Size,
				"size_in_bytes": size,
				"upload_date":   ff.UploadDate,
				"storage_path":  ff.StoragePath,
			}
			setOptional(values, "url", url)
			if err := s.store.Insert(ctx, repository.TableFolderFiles, values); err != nil {
				if rmErr := s.objects.Remove(ctx, []string{ff.StoragePath}); rmErr != nil {
					s.log.Warn().Err(rmErr).Str("storage_path", ff.StoragePath).Msg("remove orphaned blob")
				}
				return fmt.Errorf("insert folder file: %w", err)
			}
			return nil
		},
		action: "Uploaded file", target: ff.Name, fileID: fileID,
	})
	if err != nil {
		return ff, err
	}

	if url != "" {
		s.cache.ReplaceFolderFile(fileID, projectID, folderID, ff.ID, func(f *model.FolderFile) { f.URL = url })
	}
	out := *ff
	out.URL = url
	s.metrics().setStorageUsed(s.TotalStorageUsed())
	return &out, nil
}

// SyncFolderFiles re-reads one folder's files from the store and replaces
// them in the cache.
func (s *Service) SyncFolderFiles(ctx context.Context, folderID string) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	path, ok := s.cache.Snapshot().LocateFolder(folderID)
	if !ok {
		return notFound("folder", folderID)
	}
	rows, err := s.store.ListFolderFiles(ctx, []string{folderID})
	if err != nil {
		return fmt.Errorf("list folder files: %w", err)
	}
	files := make([]*model.FolderFile, 0, len(rows))
	for _, r := range rows {
		ff := r.FolderFile
		files = append(files, &ff)
	}
	s.cache.ReplaceFolder(path.FileID, path.ProjectID, folderID, func(d *model.Folder) { d.Files = files })
	return nil
}

func (s *Service) UpdateFileInFolder(ctx context.Context, fileID, projectID, folderID, id string, patch FolderFilePatch) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	if _, err := s.editableProject(fileID, projectID); err != nil {
		return err
	}
	d := s.cache.Snapshot().Folder(fileID, projectID, folderID)
	if d == nil {
		return notFound("folder", folderID)
	}
	cur := findByID(d.Files, id, func(f *model.FolderFile) string { return f.ID })
	if cur == nil {
		return notFound("folder file", id)
	}
	next := *cur
	values := repository.Values{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return ErrNameRequired
		}
		diffString(values, "name", &next.Name, name)
	}
	if len(values) == 0 {
		return nil
	}

	return s.commit(ctx, mutation{
		op: "update_folder_file",
		apply: func() {
			s.cache.ReplaceFolderFile(fileID, projectID, folderID, id, func(f *model.FolderFile) { f.Name = next.Name })
		},
		persist: func(ctx context.Context) error {
			return s.store.Update(ctx, repository.TableFolderFiles, id, values)
		},
		action: "Renamed file", target: next.Name, fileID: fileID,
	})
}

func (s *Service) DeleteFileFromFolder(ctx context.Context, fileID, projectID, folderID, id string) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	if _, err := s.editableProject(fileID, projectID); err != nil {
		return err
	}
	d := s.cache.Snapshot().Folder(fileID, projectID, folderID)
	if d == nil {
		return notFound("folder", folderID)
	}
	cur := findByID(d.Files, id, func(f *model.FolderFile) string { return f.ID })
	if cur == nil {
		return notFound("folder file", id)
	}

	err := s.commit(ctx, mutation{
		op: "delete_folder_file",
		apply: func() {
			s.cache.ReplaceFolder(fileID, projectID, folderID, func(d *model.Folder) {
				d.Files = cache.Without(d.Files, func(f *model.FolderFile) bool { return f.ID == id })
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Delete(ctx, repository.TableFolderFiles, id)
		},
		action: "Deleted file", target: cur.Name, fileID: fileID,
	})
	if err == nil {
		if cur.StoragePath != "" {
			s.removeBlobs(ctx, []string{cur.StoragePath})
		}
		s.metrics().setStorageUsed(s.TotalStorageUsed())
	}
	return err
}

func newFolder(in FolderInput) (*model.Folder, error) {
	d := &model.Folder{ID: in.ID, Name: strings.TrimSpace(in.Name), Type: in.Type, Files: []*model.FolderFile{}}
	if d.Name == "" {
		return nil, ErrNameRequired
	}
	if d.ID == "" {
		d.ID = model.NewID()
	}
	if d.Type == "" {
		d.Type = model.FolderGeneral
	}
	if !d.Type.Valid() {
		return nil, ErrInvalidFolderType
	}
	return d, nil
}

func folderValues(uid, projectID string, d *model.Folder, createdAt time.Time) repository.Values {
	return repository.Values{
		"id":         d.ID,
		"user_id":    uid,
		"project_id": projectID,
		"name":       d.Name,
		"type":       string(d.Type),
		"created_at": createdAt,
	}
}
