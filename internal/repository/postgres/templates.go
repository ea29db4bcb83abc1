package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"clientfiles/internal/model"
	"clientfiles/internal/repository"
)

// ListTemplates returns the owner's templates without their children.
func (s *Store) ListTemplates(ctx context.Context, userID string) ([]model.Template, error) {
	const q = `
		SELECT id, name, shareable, share_token, share_code, created_at
		FROM templates
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Template, 0)
	for rows.Next() {
		var (
			t           model.Template
			token, code sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Shareable, &token, &code, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.ShareToken, t.ShareCode = token.String, code.String
		items = append(items, t)
	}
	return items, rows.Err()
}

// ListTemplateFields returns template fields ordered by display order.
func (s *Store) ListTemplateFields(ctx context.Context, templateIDs []string) ([]repository.TemplateFieldRow, error) {
	if len(templateIDs) == 0 {
		return nil, nil
	}
	const q = `
		SELECT id, template_id, name, display_order
		FROM template_fields
		WHERE template_id = ANY($1)
		ORDER BY display_order, id
	`
	rows, err := s.db.QueryContext(ctx, q, pq.Array(templateIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]repository.TemplateFieldRow, 0)
	for rows.Next() {
		var f repository.TemplateFieldRow
		if err := rows.Scan(&f.ID, &f.TemplateID, &f.Name, &f.DisplayOrder); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

func (s *Store) ListTemplateFolders(ctx context.Context, templateIDs []string) ([]repository.TemplateFolderRow, error) {
	if len(templateIDs) == 0 {
		return nil, nil
	}
	const q = `
		SELECT id, template_id, name, type
		FROM template_folders
		WHERE template_id = ANY($1)
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, q, pq.Array(templateIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]repository.TemplateFolderRow, 0)
	for rows.Next() {
		var f repository.TemplateFolderRow
		if err := rows.Scan(&f.ID, &f.TemplateID, &f.Name, &f.Type); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// ListActivities returns the most recent limit entries, newest first.
func (s *Store) ListActivities(ctx context.Context, userID string, limit int) ([]model.ActivityEntry, error) {
	const q = `
		SELECT id, file_id, action, target, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ActivityEntry, 0)
	for rows.Next() {
		var (
			a      model.ActivityEntry
			fileID sql.NullString
		)
		if err := rows.Scan(&a.ID, &fileID, &a.Action, &a.Target, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.FileID = fileID.String
		items = append(items, a)
	}
	return items, rows.Err()
}

const submissionColumns = `id, template_id, client_name, data, status, submitted_at`

// ListFormSubmissions returns submissions for one template, newest first.
func (s *Store) ListFormSubmissions(ctx context.Context, templateID string) ([]model.FormSubmissionRow, error) {
	q := `SELECT ` + submissionColumns + `
		FROM form_submissions
		WHERE template_id = $1
		ORDER BY submitted_at DESC, id`
	rows, err := s.db.QueryContext(ctx, q, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.FormSubmissionRow, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *sub)
	}
	return items, rows.Err()
}

// FindFormSubmission fetches a single submission. It returns sql.ErrNoRows when missing.
func (s *Store) FindFormSubmission(ctx context.Context, id string) (*model.FormSubmissionRow, error) {
	q := `SELECT ` + submissionColumns + ` FROM form_submissions WHERE id = $1`
	return scanSubmission(s.db.QueryRowContext(ctx, q, id))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*model.FormSubmissionRow, error) {
	var (
		sub  model.FormSubmissionRow
		data []byte
	)
	if err := row.Scan(&sub.ID, &sub.TemplateID, &sub.ClientName, &data, &sub.Status, &sub.SubmittedAt); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &sub.Data); err != nil {
			return nil, fmt.Errorf("decode submission %s: %w", sub.ID, err)
		}
	}
	return &sub, nil
}
