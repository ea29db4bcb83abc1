package service

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"clientfiles/internal/cache"
	"clientfiles/internal/model"
	"clientfiles/internal/repository"
)

// tree is the raw row set of one load.
type tree struct {
	files       []model.ClientFile
	projects    []repository.ProjectRow
	fields      []repository.FieldRow
	folders     []repository.FolderRow
	notes       []repository.NoteEntryRow
	folderFiles []repository.FolderFileRow
	templates   []model.Template
	tFields     []repository.TemplateFieldRow
	tFolders    []repository.TemplateFolderRow
	activities  []model.ActivityEntry
}

// Refetch reloads the whole tree for the active session and replaces the
// cache with it. A result that arrives after Teardown or a new Init is
// discarded.
func (s *Service) Refetch(ctx context.Context) error {
	return s.refetch(ctx, s.currentEpoch())
}

func (s *Service) refetch(ctx context.Context, epoch uint64) (err error) {
	ctx, span := s.tracer.Start(ctx, "service.Refetch")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics().refetched(err)
	}()

	uid, err := s.userID()
	if err != nil {
		return err
	}
	t, err := s.fetchTree(ctx, uid)
	if err != nil {
		return err
	}
	if err = s.fetchFolderFiles(ctx, t); err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("clientfiles.files", len(t.files)))

	if !s.publish(epoch, assemble(t, true)) {
		s.log.Debug().Str("event", "refetch_discarded").Msg("session changed during refetch")
	}
	return nil
}

// load is the two-phase initial load: the hierarchy is published first with
// empty folders, then folder files are fetched in one batch and merged.
func (s *Service) load(ctx context.Context, epoch uint64) error {
	ctx, span := s.tracer.Start(ctx, "service.Load")
	defer span.End()

	uid, err := s.userID()
	if err != nil {
		return err
	}
	t, err := s.fetchTree(ctx, uid)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !s.publish(epoch, assemble(t, false)) {
		return nil
	}
	if err := s.fetchFolderFiles(ctx, t); err != nil {
		span.RecordError(err)
		return err
	}
	s.publish(epoch, assemble(t, true))
	return nil
}

func (s *Service) fetchTree(ctx context.Context, uid string) (*tree, error) {
	var (
		t   tree
		err error
	)
	if t.files, err = s.store.ListFiles(ctx, uid); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	fileIDs := make([]string, 0, len(t.files))
	for _, f := range t.files {
		fileIDs = append(fileIDs, f.ID)
	}
	if t.projects, err = s.store.ListProjects(ctx, fileIDs); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projectIDs := make([]string, 0, len(t.projects))
	for _, p := range t.projects {
		projectIDs = append(projectIDs, p.ID)
	}
	if t.fields, err = s.store.ListFields(ctx, projectIDs); err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	if t.folders, err = s.store.ListFolders(ctx, projectIDs); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	if t.notes, err = s.store.ListNoteEntries(ctx, projectIDs); err != nil {
		return nil, fmt.Errorf("list note entries: %w", err)
	}

	if t.templates, err = s.store.ListTemplates(ctx, uid); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	templateIDs := make([]string, 0, len(t.templates))
	for _, tp := range t.templates {
		templateIDs = append(templateIDs, tp.ID)
	}
	if t.tFields, err = s.store.ListTemplateFields(ctx, templateIDs); err != nil {
		return nil, fmt.Errorf("list template fields: %w", err)
	}
	if t.tFolders, err = s.store.ListTemplateFolders(ctx, templateIDs); err != nil {
		return nil, fmt.Errorf("list template folders: %w", err)
	}
	if t.activities, err = s.store.ListActivities(ctx, uid, s.cfg.ActivityLimit); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return &t, nil
}

func (s *Service) fetchFolderFiles(ctx context.Context, t *tree) error {
	ids := make([]string, 0, len(t.folders))
	for _, d := range t.folders {
		ids = append(ids, d.ID)
	}
	rows, err := s.store.ListFolderFiles(ctx, ids)
	if err != nil {
		return fmt.Errorf("list folder files: %w", err)
	}
	t.folderFiles = rows
	return nil
}

// publish installs st unless the session changed since epoch was read.
func (s *Service) publish(epoch uint64, st *cache.State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.cache.Replace(st)
	s.metrics().setStorageUsed(TotalBytes(st))
	return true
}

// assemble builds the nested tree from flat rows. Rows whose parent is
// missing are dropped. Sibling order follows row order, except template
// fields which are ordered by their display order.
func assemble(t *tree, withFolderFiles bool) *cache.State {
	folders := make(map[string]*model.Folder, len(t.folders))
	projects := make(map[string]*model.Project, len(t.projects))
	for _, r := range t.projects {
		p := r.Project
		p.Fields, p.Folders, p.NoteEntries = []*model.Field{}, []*model.Folder{}, []*model.NoteEntry{}
		projects[p.ID] = &p
	}
	for _, r := range t.fields {
		if p := projects[r.ProjectID]; p != nil {
			f := r.Field
			p.Fields = append(p.Fields, &f)
		}
	}
	for _, r := range t.folders {
		if p := projects[r.ProjectID]; p != nil {
			d := r.Folder
			d.Files = []*model.FolderFile{}
			folders[d.ID] = &d
			p.Folders = append(p.Folders, &d)
		}
	}
	for _, r := range t.notes {
		if p := projects[r.ProjectID]; p != nil {
			n := r.NoteEntry
			p.NoteEntries = append(p.NoteEntries, &n)
		}
	}
	if withFolderFiles {
		for _, r := range t.folderFiles {
			if d := folders[r.FolderID]; d != nil {
				ff := r.FolderFile
				d.Files = append(d.Files, &ff)
			}
		}
	}

	files := make([]*model.ClientFile, 0, len(t.files))
	byID := make(map[string]*model.ClientFile, len(t.files))
	for _, cf := range t.files {
		cf.Projects = []*model.Project{}
		byID[cf.ID] = &cf
		files = append(files, &cf)
	}
	for _, r := range t.projects {
		if f := byID[r.FileID]; f != nil {
			f.Projects = append(f.Projects, projects[r.ID])
		}
	}

	templates := make([]*model.Template, 0, len(t.templates))
	tByID := make(map[string]*model.Template, len(t.templates))
	for _, tp := range t.templates {
		tp.Fields, tp.Folders = []*model.TemplateField{}, []*model.TemplateFolderDef{}
		tByID[tp.ID] = &tp
		templates = append(templates, &tp)
	}
	for _, r := range t.tFields {
		if tp := tByID[r.TemplateID]; tp != nil {
			f := r.TemplateField
			tp.Fields = append(tp.Fields, &f)
		}
	}
	for _, r := range t.tFolders {
		if tp := tByID[r.TemplateID]; tp != nil {
			d := r.TemplateFolderDef
			tp.Folders = append(tp.Folders, &d)
		}
	}
	for _, tp := range templates {
		slices.SortStableFunc(tp.Fields, func(a, b *model.TemplateField) int { return a.DisplayOrder - b.DisplayOrder })
	}

	activities := make([]*model.ActivityEntry, 0, len(t.activities))
	for _, a := range t.activities {
		activities = append(activities, &a)
	}

	return &cache.State{
		Files:             files,
		Templates:         templates,
		Activities:        activities,
		FolderFilesLoaded: withFolderFiles,
	}
}
