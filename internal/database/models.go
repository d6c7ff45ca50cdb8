package database

import "time"

// MetadataStatus describes what is stored in a file's metadata column.
type MetadataStatus string

const (
	// MetadataPending means extraction has not been attempted yet.
	MetadataPending MetadataStatus = "pending"
	// MetadataValid means a usable metadata blob is stored.
	MetadataValid MetadataStatus = "valid"
	// MetadataFailed means an error wrapper is stored.
	MetadataFailed MetadataStatus = "failed"
)

// File is an indexed DjVu file.
type File struct {
	ID             int64          `json:"id"`
	Path           string         `json:"path"`
	SHA            string         `json:"sha"`
	Size           int64          `json:"size"`
	ModTime        time.Time      `json:"modTime"`
	MetadataStatus MetadataStatus `json:"metadataStatus"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// ListOptions controls ListFiles paging.
type ListOptions struct {
	Status   MetadataStatus // empty lists every file
	Page     int
	PageSize int
}

// FileList is one page of indexed files.
type FileList struct {
	Items      []File `json:"items"`
	TotalItems int    `json:"totalItems"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}
