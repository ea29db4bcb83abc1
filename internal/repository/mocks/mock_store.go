package mocks

import (
	"context"

	"clientfiles/internal/model"
	"clientfiles/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

var _ repository.Store = (*MockStore)(nil)

func (m *MockStore) ListFiles(ctx context.Context, userID string) ([]model.ClientFile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ClientFile), args.Error(1)
}

func (m *MockStore) ListProjects(ctx context.Context, fileIDs []string) ([]repository.ProjectRow, error) {
	args := m.Called(ctx, fileIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ProjectRow), args.Error(1)
}

func (m *MockStore) ListFields(ctx context.Context, projectIDs []string) ([]repository.FieldRow, error) {
	args := m.Called(ctx, projectIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.FieldRow), args.Error(1)
}

func (m *MockStore) ListFolders(ctx context.Context, projectIDs []string) ([]repository.FolderRow, error) {
	args := m.Called(ctx, projectIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.FolderRow), args.Error(1)
}

func (m *MockStore) ListNoteEntries(ctx context.Context, projectIDs []string) ([]repository.NoteEntryRow, error) {
	args := m.Called(ctx, projectIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.NoteEntryRow), args.Error(1)
}

func (m *MockStore) ListFolderFiles(ctx context.Context, folderIDs []string) ([]repository.FolderFileRow, error) {
	args := m.Called(ctx, folderIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.FolderFileRow), args.Error(1)
}

func (m *MockStore) ListTemplates(ctx context.Context, userID string) ([]model.Template, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Template), args.Error(1)
}

func (m *MockStore) ListTemplateFields(ctx context.Context, templateIDs []string) ([]repository.TemplateFieldRow, error) {
	args := m.Called(ctx, templateIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.TemplateFieldRow), args.Error(1)
}

func (m *MockStore) ListTemplateFolders(ctx context.Context, templateIDs []string) ([]repository.TemplateFolderRow, error) {
	args := m.Called(ctx, templateIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.TemplateFolderRow), args.Error(1)
}

func (m *MockStore) ListActivities(ctx context.Context, userID string, limit int) ([]model.ActivityEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ActivityEntry), args.Error(1)
}

func (m *MockStore) ListFormSubmissions(ctx context.Context, templateID string) ([]model.FormSubmissionRow, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FormSubmissionRow), args.Error(1)
}

func (m *MockStore) FindFormSubmission(ctx context.Context, id string) (*model.FormSubmissionRow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FormSubmissionRow), args.Error(1)
}

func (m *MockStore) Insert(ctx context.Context, table repository.Table, values repository.Values) error {
	args := m.Called(ctx, table, values)
	return args.Error(0)
}

func (m *MockStore) Update(ctx context.Context, table repository.Table, id string, values repository.Values) error {
	args := m.Called(ctx, table, id, values)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, table repository.Table, id string) error {
	args := m.Called(ctx, table, id)
	return args.Error(0)
}

func (m *MockStore) DeleteWhere(ctx context.Context, table repository.Table, column string, value any) error {
	args := m.Called(ctx, table, column, value)
	return args.Error(0)
}

func (m *MockStore) Upsert(ctx context.Context, table repository.Table, conflictColumn string, values repository.Values) error {
	args := m.Called(ctx, table, conflictColumn, values)
	return args.Error(0)
}
