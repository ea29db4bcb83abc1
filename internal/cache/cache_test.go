package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientfiles/internal/model"
)

func size(n int64) *int64 { return &n }

// seed builds two files, each with two projects, each with two folders of two files.
func seed() *State {
	var files []*model.ClientFile
	for fi := 1; fi <= 2; fi++ {
		f := &model.ClientFile{ID: fmt.Sprintf("f%d", fi), Name: fmt.Sprintf("File %d", fi), Reference: fmt.Sprintf("REF-%d", fi)}
		for pi := 1; pi <= 2; pi++ {
			p := &model.Project{
				ID:          fmt.Sprintf("%s-p%d", f.ID, pi),
				Name:        "Project",
				Fields:      []*model.Field{{ID: fmt.Sprintf("%s-p%d-fld", f.ID, pi), Name: "Address", Value: "1 Main St"}},
				NoteEntries: []*model.NoteEntry{{ID: fmt.Sprintf("%s-p%d-n", f.ID, pi), Heading: "Visit"}},
			}
			for di := 1; di <= 2; di++ {
				d := &model.Folder{ID: fmt.Sprintf("%s-d%d", p.ID, di), Name: "Docs", Type: model.FolderDocuments}
				for xi := 1; xi <= 2; xi++ {
					id := fmt.Sprintf("%s-x%d", d.ID, xi)
					d.Files = append(d.Files, &model.FolderFile{ID: id, Name: id, SizeInBytes: size(10), StoragePath: "u1/" + d.ID + "/" + id})
				}
				p.Folders = append(p.Folders, d)
			}
			f.Projects = append(f.Projects, p)
		}
		files = append(files, f)
	}
	return &State{Files: files, Templates: []*model.Template{{ID: "t1", Name: "Intake"}, {ID: "t2", Name: "Roofing"}}}
}

func TestReplaceFolder_IsPathLocal(t *testing.T) {
	c := New()
	c.Replace(seed())
	before := c.Snapshot()

	ok := c.ReplaceFolder("f1", "f1-p1", "f1-p1-d1", func(d *model.Folder) {
		d.Name = "Renamed"
	})
	require.True(t, ok)
	after := c.Snapshot()

	// Changed path: new nodes.
	assert.NotSame(t, before.Files[0], after.Files[0])
	assert.NotSame(t, before.Files[0].Projects[0], after.Files[0].Projects[0])
	assert.NotSame(t, before.Files[0].Projects[0].Folders[0], after.Files[0].Projects[0].Folders[0])
	assert.Equal(t, "Renamed", after.Files[0].Projects[0].Folders[0].Name)
	assert.Equal(t, "Docs", before.Files[0].Projects[0].Folders[0].Name, "previous revision untouched")

	// Everything else: same pointers.
	assert.Same(t, before.Files[1], after.Files[1])
	assert.Same(t, before.Files[0].Projects[1], after.Files[0].Projects[1])
	assert.Same(t, before.Files[0].Projects[0].Folders[1], after.Files[0].Projects[0].Folders[1])
	assert.Same(t, before.Files[0].Projects[0].Fields[0], after.Files[0].Projects[0].Fields[0])
	assert.Same(t, before.Files[0].Projects[0].NoteEntries[0], after.Files[0].Projects[0].NoteEntries[0])
	for i, ff := range before.Files[0].Projects[0].Folders[0].Files {
		assert.Same(t, ff, after.Files[0].Projects[0].Folders[0].Files[i])
	}
	assert.Same(t, before.Templates[0], after.Templates[0])
}

func TestReplaceFolderFile_IsPathLocal(t *testing.T) {
	c := New()
	c.Replace(seed())
	before := c.Snapshot()

	ok := c.ReplaceFolderFile("f2", "f2-p2", "f2-p2-d2", "f2-p2-d2-x1", func(ff *model.FolderFile) {
		ff.URL = "https://fresh"
	})
	require.True(t, ok)
	after := c.Snapshot()

	assert.Equal(t, "https://fresh", after.Files[1].Projects[1].Folders[1].Files[0].URL)
	assert.Same(t, before.Files[1].Projects[1].Folders[1].Files[1], after.Files[1].Projects[1].Folders[1].Files[1])
	assert.Same(t, before.Files[1].Projects[1].Folders[0], after.Files[1].Projects[1].Folders[0])
	assert.Same(t, before.Files[0], after.Files[0])
}

func TestReplace_MissingTargetPublishesNothing(t *testing.T) {
	c := New()
	c.Replace(seed())
	before, version := c.Checkpoint()

	assert.False(t, c.ReplaceFile("nope", func(*model.ClientFile) {}))
	assert.False(t, c.ReplaceProject("f1", "nope", func(*model.Project) {}))
	assert.False(t, c.ReplaceFolder("f1", "f1-p1", "nope", func(*model.Folder) {}))
	assert.False(t, c.ReplaceFolderFile("f1", "f1-p1", "f1-p1-d1", "nope", func(*model.FolderFile) {}))
	assert.False(t, c.ReplaceField("f1", "f1-p1", "nope", func(*model.Field) {}))
	assert.False(t, c.ReplaceNoteEntry("f1", "f1-p1", "nope", func(*model.NoteEntry) {}))
	assert.False(t, c.ReplaceTemplate("nope", func(*model.Template) {}))

	assert.Same(t, before, c.Snapshot())
	assert.Equal(t, version, c.Version())
}

func TestCascadeDelete(t *testing.T) {
	c := New()
	c.Replace(seed())

	c.ReplaceFile("f1", func(f *model.ClientFile) {
		f.Projects = Without(f.Projects, func(p *model.Project) bool { return p.ID == "f1-p1" })
	})
	s := c.Snapshot()
	for _, d := range []string{"f1-p1-d1", "f1-p1-d2"} {
		_, found := s.LocateFolder(d)
		assert.False(t, found, d)
	}
	_, found := s.LocateStoragePath("u1/f1-p1-d1/f1-p1-d1-x1")
	assert.False(t, found)
	_, found = s.LocateFolder("f1-p2-d1")
	assert.True(t, found)

	c.ReplaceFiles(func(files []*model.ClientFile) []*model.ClientFile {
		return Without(files, func(f *model.ClientFile) bool { return f.ID == "f1" })
	})
	s = c.Snapshot()
	assert.Nil(t, s.File("f1"))
	for fID := range s.Projects() {
		assert.NotEqual(t, "f1", fID)
	}
	count := 0
	for range s.FolderFiles() {
		count++
	}
	assert.Equal(t, 8, count)
}

func TestAppend_DoesNotAliasPreviousRevision(t *testing.T) {
	list := make([]*model.Field, 1, 4)
	list[0] = &model.Field{ID: "a"}

	a := Append(list, &model.Field{ID: "b"})
	b := Append(list, &model.Field{ID: "c"})

	assert.Equal(t, "b", a[1].ID)
	assert.Equal(t, "c", b[1].ID)
	assert.Len(t, list, 1)
}

func TestRestoreIf(t *testing.T) {
	c := New()
	c.Replace(seed())
	prev, _ := c.Checkpoint()

	c.ReplaceFile("f1", func(f *model.ClientFile) { f.Name = "optimistic" })
	v := c.Version()

	assert.True(t, c.RestoreIf(v, prev))
	assert.Equal(t, "File 1", c.Snapshot().File("f1").Name)

	c.ReplaceFile("f1", func(f *model.ClientFile) { f.Name = "optimistic" })
	stale := c.Version()
	c.Replace(seed())
	assert.False(t, c.RestoreIf(stale, prev), "a newer write wins over rollback")
}

func TestPrependActivity_Caps(t *testing.T) {
	c := New()
	for i := 0; i < 60; i++ {
		c.PrependActivity(&model.ActivityEntry{ID: fmt.Sprintf("a%d", i)}, 50)
	}

	acts := c.Snapshot().Activities
	require.Len(t, acts, 50)
	assert.Equal(t, "a59", acts[0].ID)
	assert.Equal(t, "a10", acts[49].ID)
}

func TestFolderFilesLoaded(t *testing.T) {
	c := New()
	assert.False(t, c.Snapshot().FolderFilesLoaded)
	v := c.Version()

	c.SetFolderFilesLoaded(true)
	assert.True(t, c.Snapshot().FolderFilesLoaded)
	c.SetFolderFilesLoaded(true)
	assert.Equal(t, v+1, c.Version())
}

func TestLookups(t *testing.T) {
	s := seed()

	path, ok := s.LocateProject("f2-p1")
	require.True(t, ok)
	assert.Equal(t, Path{FileID: "f2", ProjectID: "f2-p1"}, path)

	path, ok = s.LocateStoragePath("u1/f2-p1-d2/f2-p1-d2-x2")
	require.True(t, ok)
	assert.Equal(t, Path{FileID: "f2", ProjectID: "f2-p1", FolderID: "f2-p1-d2", FolderFileID: "f2-p1-d2-x2"}, path)

	_, ok = s.LocateStoragePath("")
	assert.False(t, ok)

	assert.NotNil(t, s.Folder("f1", "f1-p2", "f1-p2-d1"))
	assert.Nil(t, s.Folder("f1", "f2-p2", "f1-p2-d1"))
	assert.Equal(t, "Roofing", s.Template("t2").Name)

	assert.True(t, s.HasReference("REF-1", "f2"))
	assert.False(t, s.HasReference("REF-1", "f1"))
	assert.False(t, s.HasReference("", "f9"))
}
