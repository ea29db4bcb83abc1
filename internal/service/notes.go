package service

import (
	"context"
	"fmt"
	"time"

	"clientfiles/internal/cache"
	"clientfiles/internal/model"
	"clientfiles/internal/repository"
)

type NoteEntryInput struct {
	ID         string    `json:"id,omitempty"`
	Date       time.Time `json:"date"`
	Heading    string    `json:"heading"`
	Subheading string    `json:"subheading"`
	Content    string    `json:"content"`
}

type NoteEntryPatch struct {
	Date       *time.Time `json:"date,omitempty"`
	Heading    *string    `json:"heading,omitempty"`
	Subheading *string    `json:"subheading,omitempty"`
	Content    *string    `json:"content,omitempty"`
}

// UpdateNotes replaces the project's legacy free-text notes.
func (s *Service) UpdateNotes(ctx context.Context, fileID, projectID, notes string) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	p, err := s.editableProject(fileID, projectID)
	if err != nil {
		return err
	}
	if p.Notes == notes {
		return nil
	}
	return s.commit(ctx, mutation{
		op:    "update_notes",
		apply: func() { s.cache.ReplaceProject(fileID, projectID, func(p *model.Project) { p.Notes = notes }) },
		persist: func(ctx context.Context) error {
			return s.store.Update(ctx, repository.TableProjects, projectID, repository.Values{"notes": notes})
		},
		action: "Updated notes", target: p.Name, fileID: fileID,
	})
}

func (s *Service) AddNoteEntry(ctx context.Context, fileID, projectID string, in NoteEntryInput) (*model.NoteEntry, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, err
	}
	if _, err := s.editableProject(fileID, projectID); err != nil {
		return nil, err
	}
	n := s.newNoteEntry(in)
	values := noteValues(uid, projectID, n)

	err = s.commit(ctx, mutation{
		op: "add_note_entry",
		apply: func() {
			s.cache.ReplaceProject(fileID, projectID, func(p *model.Project) {
				p.NoteEntries = cache.Append(p.NoteEntries, n)
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Insert(ctx, repository.TableNoteEntries, values)
		},
		action: "Added note", target: n.Heading, fileID: fileID,
	})
	return n, err
}

func (s *Service) UpdateNoteEntry(ctx context.Context, fileID, projectID, entryID string, patch NoteEntryPatch) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	p, err := s.editableProject(fileID, projectID)
	if err != nil {
		return err
	}
	cur := findByID(p.NoteEntries, entryID, func(n *model.NoteEntry) string { return n.ID })
	if cur == nil {
		return notFound("note entry", entryID)
	}
	next := *cur
	values := repository.Values{}
	if patch.Date != nil && !patch.Date.Equal(cur.Date) {
		next.Date = *patch.Date
		values["date"] = next.Date
	}
	if patch.Heading != nil {
		diffString(values, "heading", &next.Heading, *patch.Heading)
	}
	if patch.Subheading != nil {
		diffString(values, "subheading", &next.Subheading, *patch.Subheading)
	}
	if patch.Content != nil {
		diffString(values, "content", &next.Content, *patch.Content)
	}
	if len(values) == 0 {
		return nil
	}

	return s.commit(ctx, mutation{
		op:    "update_note_entry",
		apply: func() { s.cache.ReplaceNoteEntry(fileID, projectID, entryID, func(n *model.NoteEntry) { *n = next }) },
		persist: func(ctx context.Context) error {
			return s.store.Update(ctx, repository.TableNoteEntries, entryID, values)
		},
		action: "Updated note", target: next.Heading, fileID: fileID,
	})
}

func (s *Service) DeleteNoteEntry(ctx context.Context, fileID, projectID, entryID string) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	p, err := s.editableProject(fileID, projectID)
	if err != nil {
		return err
	}
	cur := findByID(p.NoteEntries, entryID, func(n *model.NoteEntry) string { return n.ID })
	if cur == nil {
		return notFound("note entry", entryID)
	}
	return s.commit(ctx, mutation{
		op: "delete_note_entry",
		apply: func() {
			s.cache.ReplaceProject(fileID, projectID, func(p *model.Project) {
				p.NoteEntries = cache.Without(p.NoteEntries, func(n *model.NoteEntry) bool { return n.ID == entryID })
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Delete(ctx, repository.TableNoteEntries, entryID)
		},
		action: "Deleted note", target: cur.Heading, fileID: fileID,
	})
}

// SetNoteEntries makes the project's entries equal to entries. Rows are
// diffed by id: removed ones are deleted, new ones inserted and changed ones
// updated. Nothing is written when the lists already match.
func (s *Service) SetNoteEntries(ctx context.Context, fileID, projectID string, entries []NoteEntryInput) error {
	uid, err := s.userID()
	if err != nil {
		return err
	}
	p, err := s.editableProject(fileID, projectID)
	if err != nil {
		return err
	}

	existing := make(map[string]*model.NoteEntry, len(p.NoteEntries))
	for _, n := range p.NoteEntries {
		existing[n.ID] = n
	}
	next := make([]*model.NoteEntry, 0, len(entries))
	keep := make(map[string]bool, len(entries))
	var inserts []writeRow
	type update struct {
		id     string
		values repository.Values
	}
	var updates []update
	for _, in := range entries {
		cur := existing[in.ID]
		if cur == nil {
			n := s.newNoteEntry(in)
			next = append(next, n)
			inserts = append(inserts, writeRow{table: repository.TableNoteEntries, values: noteValues(uid, projectID, n)})
			continue
		}
		keep[cur.ID] = true
		n := &model.NoteEntry{ID: cur.ID, Date: in.Date, Heading: in.Heading, Subheading: in.Subheading, Content: in.Content}
		if n.Date.IsZero() {
			n.Date = cur.Date
		}
		if sameNote(n, cur) {
			next = append(next, cur)
			continue
		}
		next = append(next, n)
		updates = append(updates, update{id: n.ID, values: repository.Values{
			"date": n.Date, "heading": n.Heading, "subheading": n.Subheading, "content": n.Content,
		}})
	}
	var deletes []string
	for _, n := range p.NoteEntries {
		if !keep[n.ID] {
			deletes = append(deletes, n.ID)
		}
	}
	if len(inserts) == 0 && len(updates) == 0 && len(deletes) == 0 {
		return nil
	}

	return s.commit(ctx, mutation{
		op:    "set_note_entries",
		apply: func() { s.cache.ReplaceProject(fileID, projectID, func(p *model.Project) { p.NoteEntries = next }) },
		persist: func(ctx context.Context) error {
			for _, id := range deletes {
				if err := s.store.Delete(ctx, repository.TableNoteEntries, id); err != nil {
					return fmt.Errorf("delete note entry: %w", err)
				}
			}
			if err := s.insertAll(ctx, inserts); err != nil {
				return err
			}
			for _, u := range updates {
				if err := s.store.Update(ctx, repository.TableNoteEntries, u.id, u.values); err != nil {
					return fmt.Errorf("update note entry: %w", err)
				}
			}
			return nil
		},
		action: "Updated notes", target: p.Name, fileID: fileID,
	})
}

func sameNote(a, b *model.NoteEntry) bool {
	return a.Date.Equal(b.Date) && a.Heading == b.Heading && a.Subheading == b.Subheading && a.Content == b.Content
}

func (s *Service) newNoteEntry(in NoteEntryInput) *model.NoteEntry {
	n := &model.NoteEntry{ID: in.ID, Date: in.Date, Heading: in.Heading, Subheading: in.Subheading, Content: in.Content}
	if n.ID == "" {
		n.ID = model.NewID()
	}
	if n.Date.IsZero() {
		n.Date = s.now()
	}
	return n
}

func noteValues(uid, projectID string, n *model.NoteEntry) repository.Values {
	return repository.Values{
		"id":         n.ID,
		"user_id":    uid,
		"project_id": projectID,
		"date":       n.Date,
		"heading":    n.Heading,
		"subheading": n.Subheading,
		"content":    n.Content,
	}
}
