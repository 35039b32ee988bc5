package ports

import (
	"context"
	"io"

	"github.com/layer-3/walletvault/core"
)

// Storage is a partitioned file store. Every path is relative to the
// partition of the given subject and must not escape it.
type Storage interface {
	List(ctx context.Context, subject string) ([]core.FileEntry, error)
	Write(ctx context.Context, subject, path string, content io.Reader) (core.FileEntry, error)
	Open(ctx context.Context, subject, path string) (io.ReadSeekCloser, core.FileEntry, error)
	ReadAll(ctx context.Context, subject, path string) ([]byte, core.FileEntry, error)
	Rename(ctx context.Context, subject, path, newName string) error
	Move(ctx context.Context, subject, from, to string) error
	Copy(ctx context.Context, subject, from, to string) error
	Delete(ctx context.Context, subject, path string) error
}

// SignatureVerifier checks a detached signature over file content
type SignatureVerifier interface {
	Verify(fileBytes []byte, signature string, claimedAddress string) bool
}
