package repository

import (
	"context"

	"clientfiles/internal/model"
)

// Table names a relation of the remote store. Writes only accept these.
type Table string

const (
	TableFiles           Table = "files"
	TableProjects        Table = "projects"
	TableFields          Table = "fields"
	TableFolders         Table = "folders"
	TableFolderFiles     Table = "folder_files"
	TableNoteEntries     Table = "note_entries"
	TableTemplates       Table = "templates"
	TableTemplateFields  Table = "template_fields"
	TableTemplateFolders Table = "template_folders"
	TableActivities      Table = "activities"
	TableShares          Table = "shares"
	TableViewShares      Table = "view_shares"
	TableUploadRequests  Table = "upload_requests"
	TableFormSubmissions Table = "form_submissions"
)

// Values maps column names to values for an insert, update patch or upsert.
type Values map[string]any

// ProjectRow is a project as stored, carrying its parent file id.
type ProjectRow struct {
	FileID string
	model.Project
}

type FieldRow struct {
	ProjectID string
	model.Field
}

type FolderRow struct {
	ProjectID string
	model.Folder
}

type NoteEntryRow struct {
	ProjectID string
	model.NoteEntry
}

type FolderFileRow struct {
	FolderID string
	model.FolderFile
}

type TemplateFieldRow struct {
	TemplateID string
	model.TemplateField
}

type TemplateFolderRow struct {
	TemplateID string
	model.TemplateFolderDef
}

// TreeReader loads the file hierarchy. Child reads are batched by parent ids;
// an empty id set returns no rows without touching the store.
type TreeReader interface {
	ListFiles(ctx context.Context, userID string) ([]model.ClientFile, error)
	ListProjects(ctx context.Context, fileIDs []string) ([]ProjectRow, error)
	ListFields(ctx context.Context, projectIDs []string) ([]FieldRow, error)
	ListFolders(ctx context.Context, projectIDs []string) ([]FolderRow, error)
	ListNoteEntries(ctx context.Context, projectIDs []string) ([]NoteEntryRow, error)
	ListFolderFiles(ctx context.Context, folderIDs []string) ([]FolderFileRow, error)
}

// TemplateReader loads templates, the activity tail and form submissions.
type TemplateReader interface {
	ListTemplates(ctx context.Context, userID string) ([]model.Template, error)
	ListTemplateFields(ctx context.Context, templateIDs []string) ([]TemplateFieldRow, error)
	ListTemplateFolders(ctx context.Context, templateIDs []string) ([]TemplateFolderRow, error)
	ListActivities(ctx context.Context, userID string, limit int) ([]model.ActivityEntry, error)
	ListFormSubmissions(ctx context.Context, templateID string) ([]model.FormSubmissionRow, error)
	FindFormSubmission(ctx context.Context, id string) (*model.FormSubmissionRow, error)
}

// Writer performs row-level writes. Column names are checked against the
// table's known columns; unknown columns are rejected with ErrUnknownColumn.
type Writer interface {
	Insert(ctx context.Context, table Table, values Values) error
	// Update patches the row whose primary key equals id.
	Update(ctx context.Context, table Table, id string, values Values) error
	// Delete removes a row by primary key. Missing rows are not an error.
	Delete(ctx context.Context, table Table, id string) error
	// DeleteWhere removes every row whose column equals value.
	DeleteWhere(ctx context.Context, table Table, column string, value any) error
	// Upsert inserts or, on conflict over conflictColumn, overwrites the other columns.
	Upsert(ctx context.Context, table Table, conflictColumn string, values Values) error
}

// Store is the full remote store adapter consumed by the sync service.
type Store interface {
	TreeReader
	TemplateReader
	Writer
}
