package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientfiles/internal/model"
	"clientfiles/internal/repository"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestStore_Insert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fields (id, name, project_id, user_id, value) VALUES ($1, $2, $3, $4, $5)")).
		WithArgs("f1", "Roof pitch", "p1", "u1", "35deg").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Insert(context.Background(), repository.TableFields, repository.Values{
		"id": "f1", "user_id": "u1", "project_id": "p1", "name": "Roof pitch", "value": "35deg",
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Insert_RejectsUnknownColumn(t *testing.T) {
	store, mock := newMockStore(t)

	err := store.Insert(context.Background(), repository.TableFields, repository.Values{"owner": "u1"})

	assert.ErrorIs(t, err, repository.ErrUnknownColumn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Update(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET name = $1, status = $2 WHERE id = $3")).
		WithArgs("Roof install", "Live", "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Update(context.Background(), repository.TableProjects, "p1", repository.Values{
		"status": "Live", "name": "Roof install",
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	tests := []struct {
		name  string
		table repository.Table
		query string
	}{
		{name: "by id", table: repository.TableFolders, query: "DELETE FROM folders WHERE id = $1"},
		{name: "by token", table: repository.TableViewShares, query: "DELETE FROM view_shares WHERE token = $1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectExec(regexp.QuoteMeta(tt.query)).WithArgs("k1").WillReturnResult(sqlmock.NewResult(0, 0))

			assert.NoError(t, store.Delete(context.Background(), tt.table, "k1"))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_DeleteWhere(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM template_fields WHERE template_id = $1")).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	assert.NoError(t, store.DeleteWhere(context.Background(), repository.TableTemplateFields, "template_id", "t1"))
	assert.ErrorIs(t, store.DeleteWhere(context.Background(), repository.TableTemplateFields, "1=1 OR id", "x"), repository.ErrUnknownColumn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Upsert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO shares (code, template_id, token, user_id) VALUES ($1, $2, $3, $4) " +
			"ON CONFLICT (token) DO UPDATE SET code = EXCLUDED.code, template_id = EXCLUDED.template_id, user_id = EXCLUDED.user_id")).
		WithArgs("482913", "t1", "tok", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Upsert(context.Background(), repository.TableShares, "token", repository.Values{
		"token": "tok", "template_id": "t1", "code": "482913", "user_id": "u1",
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListFiles(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "name", "kind", "phone", "email", "id_number", "reference", "shared", "created_at", "updated_at"}).
		AddRow("f1", "Acme Roofing", "Business", "555-0100", nil, nil, "ACME-1", true, now, now).
		AddRow("f2", "Jane Doe", "Individual", nil, "jane@example.com", nil, nil, false, now, now)
	mock.ExpectQuery("SELECT id, name, kind").WithArgs("u1").WillReturnRows(rows)

	files, err := store.ListFiles(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "ACME-1", files[0].Reference)
	assert.True(t, files[0].Shared)
	assert.Equal(t, model.KindIndividual, files[1].Kind)
	assert.Equal(t, "jane@example.com", files[1].Email)
	assert.Empty(t, files[1].Reference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListProjects(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "file_id", "project_number", "name", "status", "date_created", "completed_date", "notes"}).
		AddRow("p1", "f1", "PRJ-0001", "Roof install", "Completed", now, now, "legacy").
		AddRow("p2", "f1", nil, "Gutters", "Live", now, nil, "")
	mock.ExpectQuery("FROM projects").WithArgs(pq.Array([]string{"f1"})).WillReturnRows(rows)

	projects, err := store.ListProjects(context.Background(), []string{"f1"})

	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "f1", projects[0].FileID)
	require.NotNil(t, projects[0].CompletedDate)
	assert.Nil(t, projects[1].CompletedDate)
	assert.Empty(t, projects[1].ProjectNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ChildReadsSkipEmptyParents(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	projects, err := store.ListProjects(ctx, nil)
	assert.NoError(t, err)
	assert.Nil(t, projects)
	files, err := store.ListFolderFiles(ctx, []string{})
	assert.NoError(t, err)
	assert.Nil(t, files)
	fields, err := store.ListTemplateFields(ctx, nil)
	assert.NoError(t, err)
	assert.Nil(t, fields)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListFolderFiles(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "folder_id", "name", "file_type", "size", "size_in_bytes", "upload_date", "storage_path", "url"}).
		AddRow("ff1", "d1", "plan.pdf", "pdf", "1.0 MB", int64(1048576), now, "u1/d1/ff1.pdf", "https://signed").
		AddRow("ff2", "d2", "old.doc", "word", "12 KB", nil, now, nil, nil)
	mock.ExpectQuery("FROM folder_files").WithArgs(pq.Array([]string{"d1", "d2"})).WillReturnRows(rows)

	items, err := store.ListFolderFiles(context.Background(), []string{"d1", "d2"})

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1048576), items[0].Bytes())
	assert.Equal(t, "u1/d1/ff1.pdf", items[0].StoragePath)
	assert.Nil(t, items[1].SizeInBytes)
	assert.Equal(t, "d2", items[1].FolderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListFields_QueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM fields").WillReturnError(errors.New("connection reset"))

	_, err := store.ListFields(context.Background(), []string{"p1"})

	assert.EqualError(t, err, "connection reset")
}

func TestStore_ListTemplateFields(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "template_id", "name", "display_order"}).
		AddRow("tf1", "t1", "Address", 0).
		AddRow("tf2", "t1", "Phone", 1)
	mock.ExpectQuery("FROM template_fields").WithArgs(pq.Array([]string{"t1"})).WillReturnRows(rows)

	items, err := store.ListTemplateFields(context.Background(), []string{"t1"})

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[1].DisplayOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListActivities(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "file_id", "action", "target", "created_at"}).
		AddRow("a1", "f1", "Added project", "Roof install", now).
		AddRow("a2", nil, "Created template", "Intake", now)
	mock.ExpectQuery("FROM activities").WithArgs("u1", 50).WillReturnRows(rows)

	items, err := store.ListActivities(context.Background(), "u1", 50)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "f1", items[0].FileID)
	assert.Empty(t, items[1].FileID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FindFormSubmission(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "template_id", "client_name", "data", "status", "submitted_at"}).
		AddRow("s1", "t1", "Jane Doe", []byte(`{"Address":"1 Main St"}`), "pending", now)
	mock.ExpectQuery("FROM form_submissions WHERE id").WithArgs("s1").WillReturnRows(rows)

	sub, err := store.FindFormSubmission(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, "1 Main St", sub.Data["Address"])
	assert.Equal(t, model.SubmissionPending, sub.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FindFormSubmission_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM form_submissions WHERE id").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := store.FindFormSubmission(context.Background(), "missing")

	assert.ErrorIs(t, err, sql.ErrNoRows)
}
