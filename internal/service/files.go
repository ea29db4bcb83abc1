package service

import (
	"context"
	"strings"

	"clientfiles/internal/cache"
	"clientfiles/internal/model"
	"clientfiles/internal/repository"
)

// FileInput describes a new client file. ID is generated when empty.
type FileInput struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Kind      model.FileKind `json:"kind"`
	Phone     string         `json:"phone,omitempty"`
	Email     string         `json:"email,omitempty"`
	IDNumber  string         `json:"id_number,omitempty"`
	Reference string         `json:"reference,omitempty"`
}

// FilePatch holds the client-file attributes to change. Nil fields are left alone.
type FilePatch struct {
	Name      *string         `json:"name,omitempty"`
	Kind      *model.FileKind `json:"kind,omitempty"`
	Phone     *string         `json:"phone,omitempty"`
	Email     *string         `json:"email,omitempty"`
	IDNumber  *string         `json:"id_number,omitempty"`
	Reference *string         `json:"reference,omitempty"`
}

func (s *Service) AddFile(ctx context.Context, in FileInput) (*model.ClientFile, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if in.Kind == "" {
		in.Kind = model.KindBusiness
	}
	if !in.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	ref := strings.TrimSpace(in.Reference)
	if in.ID == "" {
		in.ID = model.NewID()
	}
	if s.cache.Snapshot().HasReference(ref, in.ID) {
		return nil, ErrDuplicateReference
	}

	now := s.now()
	f := &model.ClientFile{
		ID:        in.ID,
		Name:      name,
		Kind:      in.Kind,
		Phone:     in.Phone,
		Email:     in.Email,
		IDNumber:  in.IDNumber,
		Reference: ref,
		CreatedAt: now,
		UpdatedAt: now,
		Projects:  []*model.Project{},
	}
	values := repository.Values{
		"id":         f.ID,
		"user_id":    uid,
		"name":       f.Name,
		"kind":       string(f.Kind),
		"shared":     false,
		"created_at": now,
		"updated_at": now,
	}
	setOptional(values, "phone", f.Phone)
	setOptional(values, "email", f.Email)
	setOptional(values, "id_number", f.IDNumber)
	setOptional(values, "reference", f.Reference)

	err = s.commit(ctx, mutation{
		op: "add_file",
		apply: func() {
			s.cache.ReplaceFiles(func(files []*model.ClientFile) []*model.ClientFile {
				return append([]*model.ClientFile{f}, files...)
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Insert(ctx, repository.TableFiles, values)
		},
		action: "Created file", target: f.Name, fileID: f.ID,
	})
	return f, err
}

// UpdateFile applies the attributes of patch that differ from the cached
// file. A patch that changes nothing makes no remote call.
func (s *Service) UpdateFile(ctx context.Context, id string, patch FilePatch) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	if id == "" {
		return ErrIDRequired
	}
	st := s.cache.Snapshot()
	cur := st.File(id)
	if cur == nil {
		return notFound("file", id)
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
	if patch.Kind != nil {
		if !patch.Kind.Valid() {
			return ErrInvalidKind
		}
		if *patch.Kind != cur.Kind {
			next.Kind = *patch.Kind
			values["kind"] = string(next.Kind)
		}
	}
	if patch.Phone != nil {
		diffOptional(values, "phone", &next.Phone, strings.TrimSpace(*patch.Phone))
	}
	if patch.Email != nil {
		diffOptional(values, "email", &next.Email, strings.TrimSpace(*patch.Email))
	}
	if patch.IDNumber != nil {
		diffOptional(values, "id_number", &next.IDNumber, strings.TrimSpace(*patch.IDNumber))
	}
	if patch.Reference != nil {
		ref := strings.TrimSpace(*patch.Reference)
		if ref != cur.Reference && st.HasReference(ref, id) {
			return ErrDuplicateReference
		}
		diffOptional(values, "reference", &next.Reference, ref)
	}
	if len(values) == 0 {
		return nil
	}
	next.UpdatedAt = s.now()
	values["updated_at"] = next.UpdatedAt

	return s.commit(ctx, mutation{
		op: "update_file",
		apply: func() {
			s.cache.ReplaceFile(id, func(f *model.ClientFile) {
				projects := f.Projects
				*f = next
				f.Projects = projects
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Update(ctx, repository.TableFiles, id, values)
		},
		action: "Updated file", target: next.Name, fileID: id,
	})
}

// DeleteFile removes the file and its whole subtree. Blobs of the removed
// folder files are deleted once the row delete succeeds.
func (s *Service) DeleteFile(ctx context.Context, id string) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	if id == "" {
		return ErrIDRequired
	}
	cur := s.cache.Snapshot().File(id)
	if cur == nil {
		return notFound("file", id)
	}
	var paths []string
	for _, p := range cur.Projects {
		paths = append(paths, projectStoragePaths(p)...)
	}

	err := s.commit(ctx, mutation{
		op: "delete_file",
		apply: func() {
			s.cache.ReplaceFiles(func(files []*model.ClientFile) []*model.ClientFile {
				return cache.Without(files, func(f *model.ClientFile) bool { return f.ID == id })
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Delete(ctx, repository.TableFiles, id)
		},
		action: "Deleted file", target: cur.Name,
	})
	if err == nil {
		s.removeBlobs(ctx, paths)
	}
	return err
}

func (s *Service) removeBlobs(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	if err := s.objects.Remove(ctx, paths); err != nil {
		s.log.Warn().Err(err).Str("event", "blob_cleanup_failed").Int("count", len(paths)).Msg("remove blobs")
	}
}

func projectStoragePaths(p *model.Project) []string {
	var out []string
	for _, d := range p.Folders {
		out = append(out, folderStoragePaths(d)...)
	}
	return out
}

func folderStoragePaths(d *model.Folder) []string {
	var out []string
	for _, ff := range d.Files {
		if ff.StoragePath != "" {
			out = append(out, ff.StoragePath)
		}
	}
	return out
}

// diffString sets *dst and values[col] when v differs from *dst.
func diffString(values repository.Values, col string, dst *string, v string) {
	if *dst == v {
		return
	}
	*dst = v
	values[col] = v
}

// diffOptional is diffString for nullable columns: an empty v is written as
// NULL so cleared values never collide under a unique constraint.
func diffOptional(values repository.Values, col string, dst *string, v string) {
	if *dst == v {
		return
	}
	*dst = v
	if v == "" {
		values[col] = nil
		return
	}
	values[col] = v
}

func setOptional(values repository.Values, col, v string) {
	if v != "" {
		values[col] = v
	}
}
