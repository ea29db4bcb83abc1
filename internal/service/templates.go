package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"clientfiles/internal/cache"
	"clientfiles/internal/model"
	"clientfiles/internal/repository"
)

type TemplateInput struct {
	ID      string        `json:"id,omitempty"`
	Name    string        `json:"name"`
	Fields  []string      `json:"fields,omitempty"`
	Folders []FolderInput `json:"folders,omitempty"`
}

// TemplatePatch changes a template. Non-nil Fields or Folders replace the
// whole definition list.
type TemplatePatch struct {
	Name    *string        `json:"name,omitempty"`
	Fields  *[]string      `json:"fields,omitempty"`
	Folders *[]FolderInput `json:"folders,omitempty"`
}

func (s *Service) AddTemplate(ctx context.Context, in TemplateInput) (*model.Template, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if in.ID == "" {
		in.ID = model.NewID()
	}
	t := &model.Template{ID: in.ID, Name: name, CreatedAt: s.now()}
	if t.Fields, err = templateFields(in.Fields); err != nil {
		return nil, err
	}
	if t.Folders, err = templateFolders(in.Folders); err != nil {
		return nil, err
	}

	rows := []writeRow{{table: repository.TableTemplates, values: repository.Values{
		"id": t.ID, "user_id": uid, "name": t.Name, "shareable": false, "created_at": t.CreatedAt,
	}}}
	rows = append(rows, templateChildRows(uid, t)...)

	err = s.commit(ctx, mutation{
		op: "add_template",
		apply: func() {
			s.cache.ReplaceTemplates(func(list []*model.Template) []*model.Template { return cache.Append(list, t) })
		},
		persist: func(ctx context.Context) error { return s.insertAll(ctx, rows) },
		action:  "Created template", target: t.Name,
	})
	return t, err
}

func (s *Service) UpdateTemplate(ctx context.Context, id string, patch TemplatePatch) error {
	uid, err := s.userID()
	if err != nil {
		return err
	}
	cur := s.cache.Snapshot().Template(id)
	if cur == nil {
		return notFound("template", id)
	}
	next := *cur
	values := repository.Values{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return ErrNameRequired
		}
		diffString(values, "name", &next.Name, name)
	}

	var replaceFields, replaceFolders bool
	if patch.Fields != nil && !slices.Equal(*patch.Fields, fieldNames(cur.Fields)) {
		if next.Fields, err = templateFields(*patch.Fields); err != nil {
			return err
		}
		replaceFields = true
	}
	if patch.Folders != nil && !sameFolderDefs(*patch.Folders, cur.Folders) {
		if next.Folders, err = templateFolders(*patch.Folders); err != nil {
			return err
		}
		replaceFolders = true
	}
	if len(values) == 0 && !replaceFields && !replaceFolders {
		return nil
	}

	return s.commit(ctx, mutation{
		op: "update_template",
		apply: func() {
			s.cache.ReplaceTemplate(id, func(t *model.Template) {
				t.Name, t.Fields, t.Folders = next.Name, next.Fields, next.Folders
			})
		},
		persist: func(ctx context.Context) error {
			if len(values) > 0 {
				if err := s.store.Update(ctx, repository.TableTemplates, id, values); err != nil {
					return err
				}
			}
			if replaceFields {
				if err := s.store.DeleteWhere(ctx, repository.TableTemplateFields, "template_id", id); err != nil {
					return fmt.Errorf("clear template fields: %w", err)
				}
				if err := s.insertAll(ctx, templateFieldRows(uid, id, next.Fields)); err != nil {
					return err
				}
			}
			if replaceFolders {
				if err := s.store.DeleteWhere(ctx, repository.TableTemplateFolders, "template_id", id); err != nil {
					return fmt.Errorf("clear template folders: %w", err)
				}
				if err := s.insertAll(ctx, templateFolderRows(uid, id, next.Folders)); err != nil {
					return err
				}
			}
			return nil
		},
		action: "Updated template", target: next.Name,
	})
}

func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	cur := s.cache.Snapshot().Template(id)
	if cur == nil {
		return notFound("template", id)
	}
	return s.commit(ctx, mutation{
		op: "delete_template",
		apply: func() {
			s.cache.ReplaceTemplates(func(list []*model.Template) []*model.Template {
				return cache.Without(list, func(t *model.Template) bool { return t.ID == id })
			})
		},
		persist: func(ctx context.Context) error {
			return s.store.Delete(ctx, repository.TableTemplates, id)
		},
		action: "Deleted template", target: cur.Name,
	})
}

func templateFields(names []string) ([]*model.TemplateField, error) {
	out := make([]*model.TemplateField, 0, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, ErrNameRequired
		}
		out = append(out, &model.TemplateField{ID: model.NewID(), Name: n, DisplayOrder: i})
	}
	return out, nil
}

func templateFolders(in []FolderInput) ([]*model.TemplateFolderDef, error) {
	out := make([]*model.TemplateFolderDef, 0, len(in))
	for _, fi := range in {
		d, err := newFolder(fi)
		if err != nil {
			return nil, err
		}
		out = append(out, &model.TemplateFolderDef{ID: d.ID, Name: d.Name, Type: d.Type})
	}
	return out, nil
}

func fieldNames(fields []*model.TemplateField) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}

func sameFolderDefs(in []FolderInput, cur []*model.TemplateFolderDef) bool {
	return slices.EqualFunc(in, cur, func(a FolderInput, b *model.TemplateFolderDef) bool {
		typ := a.Type
		if typ == "" {
			typ = model.FolderGeneral
		}
		return strings.TrimSpace(a.Name) == b.Name && typ == b.Type
	})
}

func templateChildRows(uid string, t *model.Template) []writeRow {
	return append(templateFieldRows(uid, t.ID, t.Fields), templateFolderRows(uid, t.ID, t.Folders)...)
}

func templateFieldRows(uid, templateID string, fields []*model.TemplateField) []writeRow {
	rows := make([]writeRow, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, writeRow{table: repository.TableTemplateFields, values: repository.Values{
			"id": f.ID, "user_id": uid, "template_id": templateID, "name": f.Name, "display_order": f.DisplayOrder,
		}})
	}
	return rows
}

func templateFolderRows(uid, templateID string, folders []*model.TemplateFolderDef) []writeRow {
	rows := make([]writeRow, 0, len(folders))
	for _, d := range folders {
		rows = append(rows, writeRow{table: repository.TableTemplateFolders, values: repository.Values{
			"id": d.ID, "user_id": uid, "template_id": templateID, "name": d.Name, "type": string(d.Type),
		}})
	}
	return rows
}
