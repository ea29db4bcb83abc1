package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"clientfiles/internal/model"
	"clientfiles/internal/repository"
)

// GenerateFormShare makes a template publicly fillable. A template that is
// already shared keeps its existing token and code.
func (s *Service) GenerateFormShare(ctx context.Context, templateID string) (model.Share, error) {
	uid, err := s.userID()
	if err != nil {
		return model.Share{}, err
	}
	cur := s.cache.Snapshot().Template(templateID)
	if cur == nil {
		return model.Share{}, notFound("template", templateID)
	}
	if cur.Shareable && cur.ShareToken != "" {
		return model.Share{Token: cur.ShareToken, Code: cur.ShareCode, CreatedAt: cur.CreatedAt}, nil
	}
	share, err := s.newShare()
	if err != nil {
		return model.Share{}, err
	}

	err = s.commit(ctx, mutation{
		op: "generate_form_share",
		apply: func() {
			s.cache.ReplaceTemplate(templateID, func(t *model.Template) {
				t.Shareable, t.ShareToken, t.ShareCode = true, share.Token, share.Code
			})
		},
		persist: func(ctx context.Context) error {
			if err := s.store.Update(ctx, repository.TableTemplates, templateID, repository.Values{
				"shareable": true, "share_token": share.Token, "share_code": share.Code,
			}); err != nil {
				return err
			}
			return s.store.Upsert(ctx, repository.TableShares, "token", repository.Values{
				"token": share.Token, "user_id": uid, "template_id": templateID, "code": share.Code, "created_at": share.CreatedAt,
			})
		},
		action: "Shared form", target: cur.Name,
	})
	return share, err
}

// ShareFile publishes a read-only view of a client file.
func (s *Service) ShareFile(ctx context.Context, fileID string) (model.Share, error) {
	uid, err := s.userID()
	if err != nil {
		return model.Share{}, err
	}
	cur := s.cache.Snapshot().File(fileID)
	if cur == nil {
		return model.Share{}, notFound("file", fileID)
	}
	share, err := s.newShare()
	if err != nil {
		return model.Share{}, err
	}

	err = s.commit(ctx, mutation{
		op:    "share_file",
		apply: func() { s.cache.ReplaceFile(fileID, func(f *model.ClientFile) { f.Shared = true }) },
		persist: func(ctx context.Context) error {
			if err := s.store.Upsert(ctx, repository.TableViewShares, "token", repository.Values{
				"token": share.Token, "user_id": uid, "file_id": fileID, "code": share.Code, "created_at": share.CreatedAt,
			}); err != nil {
				return err
			}
			return s.store.Update(ctx, repository.TableFiles, fileID, repository.Values{"shared": true})
		},
		action: "Shared file", target: cur.Name, fileID: fileID,
	})
	return share, err
}

// UnshareFile revokes every view share of the file.
func (s *Service) UnshareFile(ctx context.Context, fileID string) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	cur := s.cache.Snapshot().File(fileID)
	if cur == nil {
		return notFound("file", fileID)
	}
	if !cur.Shared {
		return nil
	}
	return s.commit(ctx, mutation{
		op:    "unshare_file",
		apply: func() { s.cache.ReplaceFile(fileID, func(f *model.ClientFile) { f.Shared = false }) },
		persist: func(ctx context.Context) error {
			if err := s.store.DeleteWhere(ctx, repository.TableViewShares, "file_id", fileID); err != nil {
				return err
			}
			return s.store.Update(ctx, repository.TableFiles, fileID, repository.Values{"shared": false})
		},
		action: "Unshared file", target: cur.Name, fileID: fileID,
	})
}

// CreateUploadRequest issues a token that lets an outside party upload into
// one folder. Completed projects cannot receive uploads.
func (s *Service) CreateUploadRequest(ctx context.Context, fileID, projectID, folderID string) (model.Share, error) {
	uid, err := s.userID()
	if err != nil {
		return model.Share{}, err
	}
	st := s.cache.Snapshot()
	p := st.Project(fileID, projectID)
	if p == nil {
		return model.Share{}, notFound("project", projectID)
	}
	d := st.Folder(fileID, projectID, folderID)
	if d == nil {
		return model.Share{}, notFound("folder", folderID)
	}
	if p.ReadOnly() {
		return model.Share{}, ErrProjectCompleted
	}
	share, err := s.newShare()
	if err != nil {
		return model.Share{}, err
	}

	err = s.commit(ctx, mutation{
		op: "create_upload_request",
		persist: func(ctx context.Context) error {
			return s.store.Upsert(ctx, repository.TableUploadRequests, "token", repository.Values{
				"token": share.Token, "user_id": uid, "file_id": fileID, "project_id": projectID,
				"folder_id": folderID, "code": share.Code, "created_at": share.CreatedAt,
			})
		},
		action: "Requested upload", target: d.Name, fileID: fileID,
	})
	return share, err
}

func (s *Service) newShare() (model.Share, error) {
	token, err := newToken()
	if err != nil {
		return model.Share{}, err
	}
	code, err := newCode()
	if err != nil {
		return model.Share{}, err
	}
	return model.Share{Token: token, Code: code, CreatedAt: s.now()}, nil
}

// newToken returns 24 random bytes, hex encoded.
func newToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// newCode returns a six-digit access code.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate share code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
