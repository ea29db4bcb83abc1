package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"clientfiles/internal/model"
	"clientfiles/internal/repository"
)

// ListFiles returns every client file owned by userID, newest first.
func (s *Store) ListFiles(ctx context.Context, userID string) ([]model.ClientFile, error) {
	const q = `
		SELECT id, name, kind, phone, email, id_number, reference, shared, created_at, updated_at
		FROM files
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ClientFile, 0)
	for rows.Next() {
		var (
			f                             model.ClientFile
			phone, email, idNum, reference sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.Kind, &phone, &email, &idNum, &reference, &f.Shared, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		f.Phone, f.Email, f.IDNumber, f.Reference = phone.String, email.String, idNum.String, reference.String
		items = append(items, f)
	}
	return items, rows.Err()
}

// ListProjects returns the projects of the given files in creation order.
func (s *Store) ListProjects(ctx context.Context, fileIDs []string) ([]repository.ProjectRow, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}
	const q = `
		SELECT id, file_id, project_number, name, status, date_created, completed_date, notes
		FROM projects
		WHERE file_id = ANY($1)
		ORDER BY date_created, id
	`
	rows, err := s.db.QueryContext(ctx, q, pq.Array(fileIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]repository.ProjectRow, 0)
	for rows.Next() {
		var (
			p         repository.ProjectRow
			number    sql.NullString
			completed sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.FileID, &number, &p.Name, &p.Status, &p.DateCreated, &completed, &p.Notes); err != nil {
			return nil, err
		}
		p.ProjectNumber = number.String
		if completed.Valid {
			t := completed.Time
			p.CompletedDate = &t
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// ListFields returns the fields of the given projects in creation order.
func (s *Store) ListFields(ctx context.Context, projectIDs []string) ([]repository.FieldRow, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	const q = `
		SELECT id, project_id, name, value
		FROM fields
		WHERE project_id = ANY($1)
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, q, pq.Array(projectIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]repository.FieldRow, 0)
	for rows.Next() {
		var f repository.FieldRow
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Name, &f.Value); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// ListFolders returns the folders of the given projects in creation order.
func (s *Store) ListFolders(ctx context.Context, projectIDs []string) ([]repository.FolderRow, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	const q = `
		SELECT id, project_id, name, type
		FROM folders
		WHERE project_id = ANY($1)
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, q, pq.Array(projectIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]repository.FolderRow, 0)
	for rows.Next() {
		var f repository.FolderRow
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Name, &f.Type); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// ListNoteEntries returns note entries in storage order; display order is the caller's concern.
func (s *Store) ListNoteEntries(ctx context.Context, projectIDs []string) ([]repository.NoteEntryRow, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	const q = `
		SELECT id, project_id, date, heading, subheading, content
		FROM note_entries
		WHERE project_id = ANY($1)
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, q, pq.Array(projectIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]repository.NoteEntryRow, 0)
	for rows.Next() {
		var n repository.NoteEntryRow
		if err := rows.Scan(&n.ID, &n.ProjectID, &n.Date, &n.Heading, &n.Subheading, &n.Content); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// ListFolderFiles returns the files of the given folders in one batched query.
func (s *Store) ListFolderFiles(ctx context.Context, folderIDs []string) ([]repository.FolderFileRow, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	const q = `
		SELECT id, folder_id, name, file_type, size, size_in_bytes, upload_date, storage_path, url
		FROM folder_files
		WHERE folder_id = ANY($1)
		ORDER BY upload_date, id
	`
	rows, err := s.db.QueryContext(ctx, q, pq.Array(folderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]repository.FolderFileRow, 0)
	for rows.Next() {
		var (
			f         repository.FolderFileRow
			sizeBytes sql.NullInt64
			path, url sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.FolderID, &f.Name, &f.FileType, &f.Size, &sizeBytes, &f.UploadDate, &path, &url); err != nil {
			return nil, err
		}
		if sizeBytes.Valid {
			n := sizeBytes.Int64
			f.SizeInBytes = &n
		}
		f.StoragePath, f.URL = path.String, url.String
		items = append(items, f)
	}
	return items, rows.Err()
}
