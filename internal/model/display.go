package model

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// NotesByDate returns the project's note entries newest first without
// touching storage order.
func (p *Project) NotesByDate() []*NoteEntry {
	out := slices.Clone(p.NoteEntries)
	slices.SortStableFunc(out, func(a, b *NoteEntry) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// HumanSize renders a byte count the way folder listings show it.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// DetectFileType classifies an upload by extension, then by content type.
func DetectFileType(name, contentType string) FileType {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "pdf":
		return FileTypePDF
	case "doc", "docx", "odt", "rtf":
		return FileTypeWord
	case "xls", "xlsx", "csv", "ods":
		return FileTypeExcel
	case "png", "jpg", "jpeg", "gif", "webp", "heic", "bmp", "svg":
		return FileTypeImage
	case "mp4", "mov", "avi", "mkv", "webm":
		return FileTypeVideo
	}
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return FileTypeImage
	case strings.HasPrefix(contentType, "video/"):
		return FileTypeVideo
	case contentType == "application/pdf":
		return FileTypePDF
	}
	return FileTypeOther
}
