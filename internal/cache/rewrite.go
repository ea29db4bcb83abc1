package cache

import (
	"slices"

	"clientfiles/internal/model"
)

// rewrite replaces the element of list whose id matches with a modified copy.
// fn edits the copy and reports whether the rewrite should stand; on false,
// or when no element matches, list is returned unchanged.
func rewrite[T any](list []*T, idOf func(*T) string, id string, fn func(*T) bool) ([]*T, bool) {
	i := slices.IndexFunc(list, func(x *T) bool { return idOf(x) == id })
	if i < 0 {
		return list, false
	}
	cp := *list[i]
	if !fn(&cp) {
		return list, false
	}
	out := slices.Clone(list)
	out[i] = &cp
	return out, true
}

// Append returns list with items added, never writing into list's backing array.
func Append[T any](list []*T, items ...*T) []*T {
	return append(slices.Clip(list), items...)
}

// Without returns a new list minus the elements drop selects.
func Without[T any](list []*T, drop func(*T) bool) []*T {
	out := make([]*T, 0, len(list))
	for _, x := range list {
		if !drop(x) {
			out = append(out, x)
		}
	}
	return out
}

func fileID(f *model.ClientFile) string       { return f.ID }
func projectID(p *model.Project) string       { return p.ID }
func fieldID(f *model.Field) string           { return f.ID }
func folderID(f *model.Folder) string         { return f.ID }
func folderFileID(f *model.FolderFile) string { return f.ID }
func noteEntryID(n *model.NoteEntry) string   { return n.ID }
func templateID(t *model.Template) string     { return t.ID }

// ReplaceFiles rewrites the top-level file list.
func (c *Cache) ReplaceFiles(fn func([]*model.ClientFile) []*model.ClientFile) {
	c.update(func(s *State) bool {
		s.Files = fn(s.Files)
		return true
	})
}

// ReplaceFile rewrites one file. fn receives a copy it may edit.
func (c *Cache) ReplaceFile(id string, fn func(*model.ClientFile)) bool {
	return c.update(func(s *State) bool {
		var ok bool
		s.Files, ok = rewrite(s.Files, fileID, id, func(f *model.ClientFile) bool {
			fn(f)
			return true
		})
		return ok
	})
}

// ReplaceProject rewrites one project and the file above it.
func (c *Cache) ReplaceProject(fID, pID string, fn func(*model.Project)) bool {
	return c.updateProject(fID, pID, func(p *model.Project) bool {
		fn(p)
		return true
	})
}

// ReplaceField rewrites one field along its path.
func (c *Cache) ReplaceField(fID, pID, id string, fn func(*model.Field)) bool {
	return c.updateProject(fID, pID, func(p *model.Project) bool {
		var ok bool
		p.Fields, ok = rewrite(p.Fields, fieldID, id, func(f *model.Field) bool {
			fn(f)
			return true
		})
		return ok
	})
}

// ReplaceFolder rewrites one folder along its path.
func (c *Cache) ReplaceFolder(fID, pID, id string, fn func(*model.Folder)) bool {
	return c.updateProject(fID, pID, func(p *model.Project) bool {
		var ok bool
		p.Folders, ok = rewrite(p.Folders, folderID, id, func(d *model.Folder) bool {
			fn(d)
			return true
		})
		return ok
	})
}

// ReplaceFolderFile rewrites one folder file along its path.
func (c *Cache) ReplaceFolderFile(fID, pID, dID, id string, fn func(*model.FolderFile)) bool {
	return c.updateProject(fID, pID, func(p *model.Project) bool {
		var ok bool
		p.Folders, ok = rewrite(p.Folders, folderID, dID, func(d *model.Folder) bool {
			var ok bool
			d.Files, ok = rewrite(d.Files, folderFileID, id, func(ff *model.FolderFile) bool {
				fn(ff)
				return true
			})
			return ok
		})
		return ok
	})
}

// ReplaceNoteEntry rewrites one note entry along its path.
func (c *Cache) ReplaceNoteEntry(fID, pID, id string, fn func(*model.NoteEntry)) bool {
	return c.updateProject(fID, pID, func(p *model.Project) bool {
		var ok bool
		p.NoteEntries, ok = rewrite(p.NoteEntries, noteEntryID, id, func(n *model.NoteEntry) bool {
			fn(n)
			return true
		})
		return ok
	})
}

func (c *Cache) updateProject(fID, pID string, fn func(*model.Project) bool) bool {
	return c.update(func(s *State) bool {
		var ok bool
		s.Files, ok = rewrite(s.Files, fileID, fID, func(f *model.ClientFile) bool {
			var ok bool
			f.Projects, ok = rewrite(f.Projects, projectID, pID, fn)
			return ok
		})
		return ok
	})
}

// ReplaceTemplates rewrites the template list.
func (c *Cache) ReplaceTemplates(fn func([]*model.Template) []*model.Template) {
	c.update(func(s *State) bool {
		s.Templates = fn(s.Templates)
		return true
	})
}

// ReplaceTemplate rewrites one template.
func (c *Cache) ReplaceTemplate(id string, fn func(*model.Template)) bool {
	return c.update(func(s *State) bool {
		var ok bool
		s.Templates, ok = rewrite(s.Templates, templateID, id, func(t *model.Template) bool {
			fn(t)
			return true
		})
		return ok
	})
}

// PrependActivity puts entry first and keeps at most limit entries.
func (c *Cache) PrependActivity(entry *model.ActivityEntry, limit int) {
	c.update(func(s *State) bool {
		n := min(len(s.Activities), max(limit-1, 0))
		out := make([]*model.ActivityEntry, 0, n+1)
		out = append(out, entry)
		s.Activities = append(out, s.Activities[:n]...)
		return true
	})
}
