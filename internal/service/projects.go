package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clientfiles/internal/cache"
	"clientfiles/internal/model"
	"clientfiles/internal/repository"
)

const projectNumberPrefix = "PRJ-"

type ProjectInput struct {
	ID            string              `json:"id,omitempty"`
	ProjectNumber string              `json:"project_number,omitempty"`
	Name          string              `json:"name"`
	Status        model.ProjectStatus `json:"status,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	Fields        []FieldInput        `json:"fields,omitempty"`
	Folders       []FolderInput       `json:"folders,omitempty"`
}

type ProjectPatch struct {
	Name          *string              `json:"name,omitempty"`
	ProjectNumber *string              `json:"project_number,omitempty"`
	Status        *model.ProjectStatus `json:"status,omitempty"`
}

type FieldInput struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type FieldPatch struct {
	Name  *string `json:"name,omitempty"`
	Value *string `json:"value,omitempty"`
}

// NextProjectID returns the next free project number, one past the highest
// PRJ-nnnn number in the cache.
func (s *Service) NextProjectID() string {
	highest := 0
	for _, p := range s.cache.Snapshot().Projects() {
		n, ok := strings.CutPrefix(p.ProjectNumber, projectNumberPrefix)
		if !ok {
			continue
		}
		if v, err := strconv.Atoi(n); err == nil && v > highest {
			highest = v
		}
	}
	return fmt.Sprintf("%s%04d", projectNumberPrefix, highest+1)
}

// AddProject creates a project under fileID together with its initial
// fields and folders. The project row is written before its children.
func (s *Service) AddProject(ctx context.Context, fileID string, in ProjectInput) (*model.Project, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, err
	}
	file := s.cache.Snapshot().File(fileID)
	if file == nil {
		return nil, notFound("file", fileID)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if in.Status == "" {
		in.Status = model.StatusLive
	}
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if in.ID == "" {
		in.ID = model.NewID()
	}
	if in.ProjectNumber == "" {
		in.ProjectNumber = s.NextProjectID()
	}

	now := s.now()
	p := &model.Project{
		ID:            in.ID,
		ProjectNumber: in.ProjectNumber,
		Name:          name,
		Status:        in.Status,
		DateCreated:   now,
		Notes:         in.Notes,
		Fields:        make([]*model.Field, 0, len(in.Fields)),
		Folders:       make([]*model.Folder, 0, len(in.Folders)),
		NoteEntries:   []*model.NoteEntry{},
	}
	if p.Status == model.StatusCompleted {
		p.CompletedDate = &now
	}

	rows := []writeRow{{table: repository.TableProjects, values: repository.Values{
		"id":             p.ID,
		"user_id":        uid,
		"file_id":        fileID,
		"project_number": p.ProjectNumber,
		"name":           p.Name,
		"status":         string(p.Status),
		"date_created":   now,
		"completed_date": p.CompletedDate,
		"notes":          p.Notes,
	}}}
	for i, fi := range in.Fields {
		f := &model.Field{ID: fi.ID, Name: strings.TrimSpace(fi.Name), Value: fi.Value}
		if f.Name == "" {
			return nil, ErrNameRequired
		}
		if f.ID == "" {
			f.ID = model.NewID()
		}
		p.Fields = append(p.Fields, f)
		rows = append(rows, writeRow{table: repository.TableFields, values: fieldValues(uid, p.ID, f, ordered(now, i))})
	}
	for i, di := range in.Folders {
		d, err := newFolder(di)
		if err != nil {
			return nil, err
		}
		p.Folders = append(p.Folders, d)
		rows = append(rows, writeRow{table: repository.TableFolders, values: folderValues(uid, p.ID, d, ordered(now, i))})
	}

	err = s.commit(ctx, mutation{
		op: "add_project",
		apply: func() {
			s.cache.ReplaceFile(fileID, func(f *model.ClientFile) {
				f.Projects = cache.Append(f.Projects, p)
			})
		},
		persist: func(ctx context.Context) error { return s.insertAll(ctx, rows) },
		action:  "Added project", target: p.Name, fileID: fileID,
	})
	return p, err
}

// AddProjectFromTemplate creates a project whose fields and folders are
// instantiated from the template's definitions, in display order.
func (s *Service) AddProjectFromTemplate(ctx context.Context, fileID, templateID, name string) (*model.Project, error) {
	tp := s.cache.Snapshot().Template(templateID)
	if tp == nil {
		return nil, notFound("template", templateID)
	}
	if strings.TrimSpace(name) == "" {
		name = tp.Name
	}
	in := ProjectInput{Name: name}
	for _, f := range tp.Fields {
		in.Fields = append(in.Fields, FieldInput{Name: f.Name})
	}
	for _, d := range tp.Folders {
		in.Folders = append(in.Folders, FolderInput{Name: d.Name, Type: d.Type})
	}
	return s.AddProject(ctx, fileID, in)
}

// UpdateProject changes name, number or status. Moving to Completed stamps
// the completion date and moving away clears it.
func (s *Service) UpdateProject(ctx context.Context, fileID, projectID string, patch ProjectPatch) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	cur := s.cache.Snapshot().Project(fileID, projectID)
	if cur == nil {
		return notFound("project", projectID)
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
	if patch.ProjectNumber != nil {
		diffString(values, "project_number", &next.ProjectNumber, *patch.ProjectNumber)
	}
	if patch.Status != nil && *patch.Status != cur.Status {
		if !patch.Status.Valid() {
			return ErrInvalidStatus
		}
		next.Status = *patch.Status
		values["status"] = string(next.Status)
		if next.Status == model.StatusCompleted {
			now := s.now()
			next.CompletedDate = &now
		} else {
			next.CompletedDate = nil
		}
		values["completed_date"] = next.CompletedDate
	}
	if len(values) == 0 {
		return nil
	}

	return s.commit(ctx, mutation{
		op: "update_project",
		apply: func() {
			s.cache.ReplaceProject(fileID, projectID, func(p *model.Project) {
				p.Name, p.ProjectNumber = next.Name, next.ProjectNumber
				p.Status, p.CompletedDate = next.Status, next.CompletedDate
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Update(ctx, repository.TableProjects, projectID, values)
		},
		action: "Updated project", target: next.Name, fileID: fileID,
	})
}

func (s *Service) DeleteProject(ctx context.Context, fileID, projectID string) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	cur := s.cache.Snapshot().Project(fileID, projectID)
	if cur == nil {
		return notFound("project", projectID)
	}
	paths := projectStoragePaths(cur)

	err := s.commit(ctx, mutation{
		op: "delete_project",
		apply: func() {
			s.cache.ReplaceFile(fileID, func(f *model.ClientFile) {
				f.Projects = cache.Without(f.Projects, func(p *model.Project) bool { return p.ID == projectID })
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Delete(ctx, repository.TableProjects, projectID)
		},
		action: "Deleted project", target: cur.Name, fileID: fileID,
	})
	if err == nil {
		s.removeBlobs(ctx, paths)
	}
	return err
}

func (s *Service) AddField(ctx context.Context, fileID, projectID string, in FieldInput) (*model.Field, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, err
	}
	if _, err := s.editableProject(fileID, projectID); err != nil {
		return nil, err
	}
	f := &model.Field{ID: in.ID, Name: strings.TrimSpace(in.Name), Value: in.Value}
	if f.Name == "" {
		return nil, ErrNameRequired
	}
	if f.ID == "" {
		f.ID = model.NewID()
	}
	values := fieldValues(uid, projectID, f, s.now())

	err = s.commit(ctx, mutation{
		op: "add_field",
		apply: func() {
			s.cache.ReplaceProject(fileID, projectID, func(p *model.Project) {
				p.Fields = cache.Append(p.Fields, f)
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Insert(ctx, repository.TableFields, values)
		},
		action: "Added field", target: f.Name, fileID: fileID,
	})
	return f, err
}

func (s *Service) UpdateField(ctx context.Context, fileID, projectID, fieldID string, patch FieldPatch) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	p, err := s.editableProject(fileID, projectID)
	if err != nil {
		return err
	}
	cur := findByID(p.Fields, fieldID, func(f *model.Field) string { return f.ID })
	if cur == nil {
		return notFound("field", fieldID)
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
	if patch.Value != nil {
		diffString(values, "value", &next.Value, *patch.Value)
	}
	if len(values) == 0 {
		return nil
	}

	return s.commit(ctx, mutation{
		op: "update_field",
		apply: func() {
			s.cache.ReplaceField(fileID, projectID, fieldID, func(f *model.Field) { *f = next })
		},
		persist: func(ctx context.Context) error {
			return s.store.Update(ctx, repository.TableFields, fieldID, values)
		},
		action: "Updated field", target: next.Name, fileID: fileID,
	})
}

func (s *Service) DeleteField(ctx context.Context, fileID, projectID, fieldID string) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	p, err := s.editableProject(fileID, projectID)
	if err != nil {
		return err
	}
	cur := findByID(p.Fields, fieldID, func(f *model.Field) string { return f.ID })
	if cur == nil {
		return notFound("field", fieldID)
	}

	return s.commit(ctx, mutation{
		op: "delete_field",
		apply: func() {
			s.cache.ReplaceProject(fileID, projectID, func(p *model.Project) {
				p.Fields = cache.Without(p.Fields, func(f *model.Field) bool { return f.ID == fieldID })
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Delete(ctx, repository.TableFields, fieldID)
		},
		action: "Deleted field", target: cur.Name, fileID: fileID,
	})
}

// editableProject returns the cached project, rejecting completed ones.
func (s *Service) editableProject(fileID, projectID string) (*model.Project, error) {
	p := s.cache.Snapshot().Project(fileID, projectID)
	if p == nil {
		return nil, notFound("project", projectID)
	}
	if p.ReadOnly() {
		return nil, ErrProjectCompleted
	}
	return p, nil
}

type writeRow struct {
	table  repository.Table
	values repository.Values
}

// insertAll writes rows in order and stops at the first failure.
func (s *Service) insertAll(ctx context.Context, rows []writeRow) error {
	for _, r := range rows {
		if err := s.store.Insert(ctx, r.table, r.values); err != nil {
			return fmt.Errorf("insert %s: %w", r.table, err)
		}
	}
	return nil
}

// ordered spaces sibling timestamps so created_at ordering matches input order.
func ordered(base time.Time, i int) time.Time {
	return base.Add(time.Duration(i) * time.Microsecond)
}

func fieldValues(uid, projectID string, f *model.Field, createdAt time.Time) repository.Values {
	return repository.Values{
		"id":         f.ID,
		"user_id":    uid,
		"project_id": projectID,
		"name":       f.Name,
		"value":      f.Value,
		"created_at": createdAt,
	}
}

func findByID[T any](list []*T, id string, idOf func(*T) string) *T {
	for _, v := range list {
		if idOf(v) == id {
			return v
		}
	}
	return nil
}
