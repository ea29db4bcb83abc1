// Package model holds the client-file domain types shared by the cache,
// the remote store adapter and the HTTP layer.
//
// Child collections are slices of pointers: the entity cache rewrites a path
// by copying only the nodes along it, so untouched siblings keep their
// identity across revisions.
package model

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a random UUIDv4 string. Every locally created entity uses it.
func NewID() string {
	return uuid.NewString()
}

type FileKind string

const (
	KindBusiness   FileKind = "Business"
	KindIndividual FileKind = "Individual"
)

func (k FileKind) Valid() bool {
	return k == KindBusiness || k == KindIndividual
}

type ProjectStatus string

const (
	StatusLive      ProjectStatus = "Live"
	StatusPending   ProjectStatus = "Pending"
	StatusCompleted ProjectStatus = "Completed"
)

func (s ProjectStatus) Valid() bool {
	return s == StatusLive || s == StatusPending || s == StatusCompleted
}

type FolderType string

const (
	FolderDocuments FolderType = "documents"
	FolderPhotos    FolderType = "photos"
	FolderVideos    FolderType = "videos"
	FolderGeneral   FolderType = "general"
)

func (t FolderType) Valid() bool {
	switch t {
	case FolderDocuments, FolderPhotos, FolderVideos, FolderGeneral:
		return true
	}
	return false
}

type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeWord  FileType = "word"
	FileTypeExcel FileType = "excel"
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"
	FileTypeOther FileType = "other"
)

// ClientFile is the top-level record kept per client.
type ClientFile struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Kind      FileKind   `json:"kind"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	IDNumber  string     `json:"id_number,omitempty"`
	Reference string     `json:"reference,omitempty"`
	Shared    bool       `json:"shared"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Projects  []*Project `json:"projects"`
}

type Project struct {
	ID            string        `json:"id"`
	ProjectNumber string        `json:"project_number,omitempty"`
	Name          string        `json:"name"`
	Status        ProjectStatus `json:"status"`
	DateCreated   time.Time     `json:"date_created"`
	CompletedDate *time.Time    `json:"completed_date,omitempty"`
	Fields        []*Field      `json:"fields"`
	Folders       []*Folder     `json:"folders"`
	Notes         string        `json:"notes,omitempty"`
	NoteEntries   []*NoteEntry  `json:"note_entries"`
}

// ReadOnly reports whether collaborators may no longer change the project's contents.
func (p *Project) ReadOnly() bool {
	return p.Status == StatusCompleted
}

type Field struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Folder struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Type  FolderType    `json:"type"`
	Files []*FolderFile `json:"files"`
}

type FolderFile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	FileType    FileType  `json:"file_type"`
	Size        string    `json:"size"`
	SizeInBytes *int64    `json:"size_in_bytes,omitempty"`
	UploadDate  time.Time `json:"upload_date"`
	StoragePath string    `json:"storage_path,omitempty"`
	URL         string    `json:"url,omitempty"`
}

// Bytes returns the authoritative size, zero for rows that predate size tracking.
func (f *FolderFile) Bytes() int64 {
	if f.SizeInBytes == nil {
		return 0
	}
	return *f.SizeInBytes
}

type NoteEntry struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	Heading    string    `json:"heading"`
	Subheading string    `json:"subheading"`
	Content    string    `json:"content"`
}

type Template struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Shareable  bool                 `json:"shareable"`
	ShareToken string               `json:"share_token,omitempty"`
	ShareCode  string               `json:"share_code,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	Fields     []*TemplateField     `json:"fields"`
	Folders    []*TemplateFolderDef `json:"folders"`
}

type TemplateField struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
}

type TemplateFolderDef struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type FolderType `json:"type"`
}

type ActivityEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	FileID    string    `json:"file_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionImported SubmissionStatus = "imported"
	SubmissionRejected SubmissionStatus = "rejected"
)

// FormSubmissionRow is created by the public form portal and pulled on demand.
type FormSubmissionRow struct {
	ID          string            `json:"id"`
	TemplateID  string            `json:"template_id"`
	ClientName  string            `json:"client_name"`
	Data        map[string]string `json:"data"`
	Status      SubmissionStatus  `json:"status"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// Share is a token/code pair granting public access without a full session.
type Share struct {
	Token     string    `json:"token"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}
