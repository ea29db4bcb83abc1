package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"clientfiles/internal/model"
	"clientfiles/internal/repository"
)

// ImportTarget chooses where an imported submission lands. An empty FileID
// creates a new individual client file named after the submitter.
type ImportTarget struct {
	FileID      string `json:"file_id,omitempty"`
	ProjectName string `json:"project_name,omitempty"`
}

// GetFormSubmissions reads submissions for a template straight from the
// store; they are not cached.
func (s *Service) GetFormSubmissions(ctx context.Context, templateID string) ([]model.FormSubmissionRow, error) {
	if _, err := s.userID(); err != nil {
		return nil, err
	}
	if templateID == "" {
		return nil, ErrIDRequired
	}
	rows, err := s.store.ListFormSubmissions(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("list form submissions: %w", err)
	}
	return rows, nil
}

// ImportFormSubmission turns a pending submission into a project. Values are
// laid out in the template's display order; keys the template does not
// define follow in name order.
func (s *Service) ImportFormSubmission(ctx context.Context, submissionID string, target ImportTarget) (*model.Project, error) {
	if _, err := s.userID(); err != nil {
		return nil, err
	}
	sub, err := s.pendingSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	tp := s.cache.Snapshot().Template(sub.TemplateID)
	if tp == nil {
		return nil, notFound("template", sub.TemplateID)
	}

	fileID := target.FileID
	if fileID == "" {
		name := strings.TrimSpace(sub.ClientName)
		if name == "" {
			name = tp.Name + " submission"
		}
		f, err := s.AddFile(ctx, FileInput{Name: name, Kind: model.KindIndividual})
		if err != nil {
			return nil, err
		}
		fileID = f.ID
	}

	in := ProjectInput{Name: target.ProjectName}
	if strings.TrimSpace(in.Name) == "" {
		in.Name = tp.Name
	}
	known := make(map[string]bool, len(tp.Fields))
	for _, f := range tp.Fields {
		known[f.Name] = true
		in.Fields = append(in.Fields, FieldInput{Name: f.Name, Value: sub.Data[f.Name]})
	}
	var extra []string
	for k := range sub.Data {
		if !known[k] && strings.TrimSpace(k) != "" {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	for _, k := range extra {
		in.Fields = append(in.Fields, FieldInput{Name: k, Value: sub.Data[k]})
	}
	for _, d := range tp.Folders {
		in.Folders = append(in.Folders, FolderInput{Name: d.Name, Type: d.Type})
	}

	p, err := s.AddProject(ctx, fileID, in)
	if err != nil {
		return p, err
	}
	if err := s.setSubmissionStatus(ctx, sub.ID, model.SubmissionImported); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Service) RejectFormSubmission(ctx context.Context, submissionID string) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	sub, err := s.pendingSubmission(ctx, submissionID)
	if err != nil {
		return err
	}
	return s.setSubmissionStatus(ctx, sub.ID, model.SubmissionRejected)
}

func (s *Service) pendingSubmission(ctx context.Context, id string) (*model.FormSubmissionRow, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	sub, err := s.store.FindFormSubmission(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("form submission", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find form submission %q: %w", id, err)
	}
	if sub.Status != model.SubmissionPending {
		return nil, ErrSubmissionProcessed
	}
	return sub, nil
}

func (s *Service) setSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus) error {
	if err := s.store.Update(ctx, repository.TableFormSubmissions, id, repository.Values{"status": string(status)}); err != nil {
		s.metrics().mutationFailed("set_submission_status")
		return &RemoteError{Op: "set_submission_status", Err: err}
	}
	return nil
}
