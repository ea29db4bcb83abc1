package repository

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrEmptyValues   = errors.New("no values to write")
)

var columns = map[Table][]string{
	TableFiles:           {"id", "user_id", "name", "kind", "phone", "email", "id_number", "reference", "shared", "created_at", "updated_at"},
	TableProjects:        {"id", "user_id", "file_id", "project_number", "name", "status", "date_created", "completed_date", "notes"},
	TableFields:          {"id", "user_id", "project_id", "name", "value", "created_at"},
	TableFolders:         {"id", "user_id", "project_id", "name", "type", "created_at"},
	TableFolderFiles:     {"id", "user_id", "folder_id", "name", "file_type", "size", "size_in_bytes", "upload_date", "storage_path", "url"},
	TableNoteEntries:     {"id", "user_id", "project_id", "date", "heading", "subheading", "content"},
	TableTemplates:       {"id", "user_id", "name", "shareable", "share_token", "share_code", "created_at"},
	TableTemplateFields:  {"id", "user_id", "template_id", "name", "display_order"},
	TableTemplateFolders: {"id", "user_id", "template_id", "name", "type"},
	TableActivities:      {"id", "user_id", "file_id", "action", "target", "created_at"},
	TableShares:          {"token", "user_id", "template_id", "code", "created_at"},
	TableViewShares:      {"token", "user_id", "file_id", "code", "created_at"},
	TableUploadRequests:  {"token", "user_id", "file_id", "project_id", "folder_id", "code", "created_at"},
	TableFormSubmissions: {"id", "user_id", "template_id", "client_name", "data", "status", "submitted_at"},
}

// PrimaryKey returns the key column used by Update and Delete.
func PrimaryKey(t Table) string {
	switch t {
	case TableShares, TableViewShares, TableUploadRequests:
		return "token"
	}
	return "id"
}

// CheckColumns validates the table and every column name. It returns the
// column names sorted so statements and their arguments are deterministic.
func CheckColumns(t Table, names ...string) ([]string, error) {
	known, ok := columns[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, t)
	}
	for _, n := range names {
		if !slices.Contains(known, n) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t, n)
		}
	}
	out := slices.Clone(names)
	slices.Sort(out)
	return out, nil
}

// Columns returns the sorted column names of v after validating them for t.
func (v Values) Columns(t Table) ([]string, error) {
	if len(v) == 0 {
		return nil, ErrEmptyValues
	}
	names := make([]string, 0, len(v))
	for k := range v {
		names = append(names, k)
	}
	return CheckColumns(t, names...)
}
