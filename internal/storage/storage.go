package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Package storage contains the object storage adapter used for folder-file blobs.
// Implementations must avoid using local disk and rely on streaming I/O only.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Storage is the object storage adapter: upload, remove, sign.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Remove deletes the objects at keys. Missing objects are not an error.
	Remove(ctx context.Context, keys []string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// MaxPresignExpiry is the SigV4 ceiling on signed URL lifetimes.
const MaxPresignExpiry = 7 * 24 * time.Hour

// clampExpiry bounds a requested lifetime to (0, MaxPresignExpiry]; zero or
// negative means 15 minutes.
func clampExpiry(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return 15 * time.Minute
	case d > MaxPresignExpiry:
		return MaxPresignExpiry
	}
	return d
}

// ObjectKey builds the namespaced key {userID}/{folderID}/{fileID}.{ext}.
// The extension is taken from the original file name and lower-cased.
func ObjectKey(userID, folderID, fileID, originalName string) string {
	key := fmt.Sprintf("%s/%s/%s", userID, folderID, fileID)
	if ext := strings.ToLower(path.Ext(originalName)); ext != "" && ext != "." {
		key += ext
	}
	return key
}
