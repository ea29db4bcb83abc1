package service

import (
	"errors"
	"fmt"

	"clientfiles/internal/model"
)

var (
	ErrIDRequired          = errors.New("id is required")
	ErrNameRequired        = errors.New("name is required")
	ErrNotFound            = errors.New("not found")
	ErrReaderNil           = errors.New("reader is nil")
	ErrInvalidKind         = errors.New("invalid file kind")
	ErrInvalidStatus       = errors.New("invalid project status")
	ErrInvalidFolderType   = errors.New("invalid folder type")
	ErrDuplicateReference  = errors.New("reference is already used by another file")
	ErrQuotaExceeded       = errors.New("storage quota exceeded")
	ErrNotInitialized      = errors.New("session is not initialized")
	ErrProjectCompleted    = errors.New("project is completed")
	ErrSubmissionProcessed = errors.New("submission was already processed")
)

// QuotaError describes a rejected upload. It matches ErrQuotaExceeded.
type QuotaError struct {
	Used     int64
	Incoming int64
	Limit    int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("storage quota exceeded: %s used + %s incoming is over the %s limit",
		model.HumanSize(e.Used), model.HumanSize(e.Incoming), model.HumanSize(e.Limit))
}

func (e *QuotaError) Is(target error) bool { return target == ErrQuotaExceeded }

// RemoteError reports a failed remote store or object storage write. The
// optimistic cache write that preceded it is kept unless the rollback policy
// is active.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote write failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
