package core

import (
	"io"
	"time"
)

// SignatureSuffix is appended to a file path to locate its detached signature
const SignatureSuffix = ".sig"

// FileEntry describes a stored file inside a subject's partition
type FileEntry struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ETag        string    `json:"etag"`
	ContentType string    `json:"content_type"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Download is the payload handed back for a download request.
// Content must be closed by the caller.
type Download struct {
	Entry    FileEntry
	Content  io.ReadSeekCloser
	Verified bool
}

// StorageEventType names what happened to a stored file
type StorageEventType string

const (
	EventFileUploaded      StorageEventType = "file.uploaded"
	EventFileDeleted       StorageEventType = "file.deleted"
	EventFileRenamed       StorageEventType = "file.renamed"
	EventFileMoved         StorageEventType = "file.moved"
	EventFileCopied        StorageEventType = "file.copied"
	EventSignatureVerified StorageEventType = "signature.verified"
	EventSignatureRejected StorageEventType = "signature.rejected"
)

// StorageEvent is published after storage mutations and verification decisions
type StorageEvent struct {
	Type    StorageEventType `json:"type"`
	Address string           `json:"address"`
	Path    string           `json:"path"`
	Target  string           `json:"target,omitempty"`
	At      time.Time        `json:"at"`
}
