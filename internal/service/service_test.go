package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clientfiles/internal/auth"
	"clientfiles/internal/cache"
	"clientfiles/internal/changefeed"
	"clientfiles/internal/model"
	"clientfiles/internal/repository"
	repomocks "clientfiles/internal/repository/mocks"
	storemocks "clientfiles/internal/storage/mocks"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func bytesPtr(n int64) *int64 { return &n }

func newTestService(t *testing.T, cfg Config) (*Service, *repomocks.MockStore, *storemocks.MockStorage) {
	t.Helper()
	store := new(repomocks.MockStore)
	objects := new(storemocks.MockStorage)
	cfg.Logger = zerolog.Nop()
	svc := New(store, objects, nil, cfg)
	svc.principal = auth.Principal{UserID: "u1"}
	svc.now = func() time.Time { return fixedNow }
	return svc, store, objects
}

// seedState returns a fresh two-file tree. f1/p1 has two folders, the first
// holding two files of 1000 and 2000 bytes.
func seedState() *cache.State {
	return &cache.State{
		Files: []*model.ClientFile{
			{ID: "f1", Name: "Acme Roofing", Kind: model.KindBusiness, Reference: "ACME-1", Projects: []*model.Project{{
				ID: "p1", ProjectNumber: "PRJ-0007", Name: "Roof install", Status: model.StatusLive,
				Fields: []*model.Field{{ID: "fl1", Name: "Address", Value: "1 Main St"}},
				Folders: []*model.Folder{
					{ID: "d1", Name: "Plans", Type: model.FolderDocuments, Files: []*model.FolderFile{
						{ID: "ff1", Name: "plan.pdf", SizeInBytes: bytesPtr(1000), StoragePath: "u1/d1/ff1.pdf", URL: "https://old/1"},
						{ID: "ff2", Name: "quote.pdf", SizeInBytes: bytesPtr(2000), StoragePath: "u1/d1/ff2.pdf", URL: "https://old/2"},
					}},
					{ID: "d2", Name: "Photos", Type: model.FolderPhotos, Files: []*model.FolderFile{}},
				},
				NoteEntries: []*model.NoteEntry{{ID: "n1", Date: fixedNow.Add(-time.Hour), Heading: "Visit", Content: "Measured"}},
			}}},
			{ID: "f2", Name: "Jane Doe", Kind: model.KindIndividual, Reference: "JD-2", Projects: []*model.Project{}},
		},
		Templates: []*model.Template{{
			ID: "t1", Name: "Intake",
			Fields:  []*model.TemplateField{{ID: "tf1", Name: "Address", DisplayOrder: 0}, {ID: "tf2", Name: "Phone", DisplayOrder: 1}},
			Folders: []*model.TemplateFolderDef{{ID: "tfd1", Name: "Photos", Type: model.FolderPhotos}},
		}},
		FolderFilesLoaded: true,
	}
}

type rows struct {
	files       []model.ClientFile
	projects    []repository.ProjectRow
	fields      []repository.FieldRow
	folders     []repository.FolderRow
	notes       []repository.NoteEntryRow
	folderFiles []repository.FolderFileRow
	templates   []model.Template
	tFields     []repository.TemplateFieldRow
	activities  []model.ActivityEntry
}

func expectTree(store *repomocks.MockStore, r rows) {
	store.On("ListFiles", mock.Anything, "u1").Return(r.files, nil)
	store.On("ListProjects", mock.Anything, mock.Anything).Return(r.projects, nil)
	store.On("ListFields", mock.Anything, mock.Anything).Return(r.fields, nil)
	store.On("ListFolders", mock.Anything, mock.Anything).Return(r.folders, nil)
	store.On("ListNoteEntries", mock.Anything, mock.Anything).Return(r.notes, nil)
	store.On("ListFolderFiles", mock.Anything, mock.Anything).Return(r.folderFiles, nil)
	store.On("ListTemplates", mock.Anything, "u1").Return(r.templates, nil)
	store.On("ListTemplateFields", mock.Anything, mock.Anything).Return(r.tFields, nil)
	store.On("ListTemplateFolders", mock.Anything, mock.Anything).Return([]repository.TemplateFolderRow(nil), nil)
	store.On("ListActivities", mock.Anything, "u1", DefaultActivityLimit).Return(r.activities, nil)
}

func remoteRows() rows {
	return rows{
		files: []model.ClientFile{{ID: "f1", Name: "Acme Roofing", Kind: model.KindBusiness}},
		projects: []repository.ProjectRow{
			{FileID: "f1", Project: model.Project{ID: "p1", ProjectNumber: "PRJ-0001", Name: "Roof install", Status: model.StatusLive}},
			{FileID: "missing", Project: model.Project{ID: "orphan", Name: "Orphan"}},
		},
		fields:      []repository.FieldRow{{ProjectID: "p1", Field: model.Field{ID: "fl1", Name: "Address"}}},
		folders:     []repository.FolderRow{{ProjectID: "p1", Folder: model.Folder{ID: "d1", Name: "Plans"}}},
		notes:       []repository.NoteEntryRow{{ProjectID: "p1", NoteEntry: model.NoteEntry{ID: "n1", Heading: "Visit"}}},
		folderFiles: []repository.FolderFileRow{{FolderID: "d1", FolderFile: model.FolderFile{ID: "ff1", Name: "plan.pdf", SizeInBytes: bytesPtr(4096)}}},
		templates:   []model.Template{{ID: "t1", Name: "Intake"}},
		tFields: []repository.TemplateFieldRow{
			{TemplateID: "t1", TemplateField: model.TemplateField{ID: "tf2", Name: "Phone", DisplayOrder: 1}},
			{TemplateID: "t1", TemplateField: model.TemplateField{ID: "tf1", Name: "Address", DisplayOrder: 0}},
		},
		activities: []model.ActivityEntry{{ID: "a1", Action: "Created file", Target: "Acme Roofing"}},
	}
}

func TestNew_DefaultsToNoRollback(t *testing.T) {
	svc := New(new(repomocks.MockStore), new(storemocks.MockStorage), nil, Config{})

	assert.Equal(t, PolicyNoRollback, svc.Policy())
	assert.Equal(t, "optimistic_no_rollback", svc.Policy().String())
	assert.Equal(t, DefaultDebounce, svc.cfg.Debounce)
	assert.Equal(t, DefaultActivityLimit, svc.cfg.ActivityLimit)
}

func TestRefetch_AssemblesTree(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})
	expectTree(store, remoteRows())

	require.NoError(t, svc.Refetch(context.Background()))

	st := svc.Snapshot()
	require.Len(t, st.Files, 1)
	p := st.Project("f1", "p1")
	require.NotNil(t, p)
	assert.Len(t, p.Fields, 1)
	assert.Len(t, p.NoteEntries, 1)
	require.Len(t, p.Folders, 1)
	assert.Len(t, p.Folders[0].Files, 1)
	_, found := st.LocateProject("orphan")
	assert.False(t, found)
	assert.Equal(t, []string{"Address", "Phone"}, fieldNames(st.Template("t1").Fields))
	assert.True(t, st.FolderFilesLoaded)
	assert.Equal(t, int64(4096), svc.TotalStorageUsed())
	assert.Len(t, svc.Activities(), 1)
}

func TestRefetch_IsIdempotent(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})
	expectTree(store, remoteRows())
	ctx := context.Background()

	require.NoError(t, svc.Refetch(ctx))
	first := svc.Snapshot()
	require.NoError(t, svc.Refetch(ctx))

	assert.Equal(t, first, svc.Snapshot())
}

func TestRefetch_ErrorKeepsCache(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})
	svc.cache.Replace(seedState())
	before := svc.Snapshot()
	store.On("ListFiles", mock.Anything, "u1").Return(nil, errors.New("connection refused"))

	err := svc.Refetch(context.Background())

	assert.ErrorContains(t, err, "list files")
	assert.Same(t, before, svc.Snapshot())
}

func TestRefetch_DiscardedAfterTeardown(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})
	r := remoteRows()
	expectTree(store, r)
	store.ExpectedCalls[0].Run(func(mock.Arguments) { svc.Teardown() })

	require.NoError(t, svc.Refetch(context.Background()))

	assert.Empty(t, svc.Files())
}

func TestInit_TwoPhaseLoad(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})
	expectTree(store, remoteRows())
	for _, c := range store.ExpectedCalls {
		if c.Method == "ListFolderFiles" {
			c.Run(func(mock.Arguments) {
				st := svc.Snapshot()
				assert.False(t, st.FolderFilesLoaded)
				require.NotNil(t, st.Folder("f1", "p1", "d1"))
				assert.Empty(t, st.Folder("f1", "p1", "d1").Files)
			})
		}
	}

	require.NoError(t, svc.Init(context.Background(), auth.Principal{UserID: "u1"}))
	defer svc.Teardown()

	st := svc.Snapshot()
	assert.True(t, st.FolderFilesLoaded)
	assert.Len(t, st.Folder("f1", "p1", "d1").Files, 1)
}

func TestInit_RequiresUser(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	assert.ErrorIs(t, svc.Init(context.Background(), auth.Principal{}), ErrIDRequired)
}

type failingFeed struct{ err error }

func (f failingFeed) Subscribe(context.Context, string) (changefeed.Subscription, error) {
	return nil, f.err
}

func TestInit_FailureEndsSession(t *testing.T) {
	tests := []struct {
		name  string
		feed  changefeed.Source
		setup func(*repomocks.MockStore)
		want  string
	}{
		{
			name: "load fails",
			setup: func(store *repomocks.MockStore) {
				store.On("ListFiles", mock.Anything, "u1").Return(nil, errors.New("connection refused"))
			},
			want: "connection refused",
		},
		{
			name:  "subscribe fails",
			feed:  failingFeed{err: errors.New("listen: connection reset")},
			setup: func(store *repomocks.MockStore) { expectTree(store, remoteRows()) },
			want:  "connection reset",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(repomocks.MockStore)
			tt.setup(store)
			svc := New(store, new(storemocks.MockStorage), tt.feed, Config{Logger: zerolog.Nop()})

			err := svc.Init(context.Background(), auth.Principal{UserID: "u1"})

			assert.ErrorContains(t, err, tt.want)
			assert.Empty(t, svc.Principal().UserID)
			assert.Empty(t, svc.Files())
			_, err = svc.AddFile(context.Background(), FileInput{Name: "Acme"})
			assert.ErrorIs(t, err, ErrNotInitialized)
		})
	}
}

func TestTeardown_ClearsSession(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	svc.cache.Replace(seedState())

	svc.Teardown()

	assert.Empty(t, svc.Files())
	assert.Empty(t, svc.Principal().UserID)
	_, err := svc.AddFile(context.Background(), FileInput{Name: "Acme"})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestChangeFeed_BurstCoalescesIntoOneRefetch(t *testing.T) {
	store := new(repomocks.MockStore)
	bus := changefeed.NewBus()
	svc := New(store, new(storemocks.MockStorage), bus, Config{Debounce: 50 * time.Millisecond, Logger: zerolog.Nop()})
	expectTree(store, rows{})

	require.NoError(t, svc.Init(context.Background(), auth.Principal{UserID: "u1"}))
	defer svc.Teardown()
	store.AssertNumberOfCalls(t, "ListFiles", 1)

	for i := 0; i < 5; i++ {
		bus.Publish("u1", changefeed.Event{Table: "fields", Op: changefeed.OpUpdate, ID: "x"})
		time.Sleep(10 * time.Millisecond)
	}
	bus.Publish("u2", changefeed.Event{Table: "fields", Op: changefeed.OpUpdate, ID: "y"})
	time.Sleep(250 * time.Millisecond)

	store.AssertNumberOfCalls(t, "ListFiles", 2)
}

func TestTeardown_CancelsPendingRefetch(t *testing.T) {
	store := new(repomocks.MockStore)
	bus := changefeed.NewBus()
	svc := New(store, new(storemocks.MockStorage), bus, Config{Debounce: 50 * time.Millisecond, Logger: zerolog.Nop()})
	expectTree(store, rows{})
	require.NoError(t, svc.Init(context.Background(), auth.Principal{UserID: "u1"}))

	bus.Publish("u1", changefeed.Event{Table: "files", Op: changefeed.OpInsert, ID: "f9"})
	time.Sleep(10 * time.Millisecond)
	svc.Teardown()
	time.Sleep(150 * time.Millisecond)

	store.AssertNumberOfCalls(t, "ListFiles", 1)
}
