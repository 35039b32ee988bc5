package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/layer-3/walletvault/core"
	"github.com/layer-3/walletvault/ports"
)

// UploadFile is one file of an upload request
type UploadFile struct {
	Name    string
	Content io.Reader
}

// StorageService scopes file operations to the authenticated subject and
// gates verified downloads on the detached signature check.
type StorageService struct {
	storage  ports.Storage
	verifier ports.SignatureVerifier
	events   ports.EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewStorageService creates a new storage service
func NewStorageService(
	storage ports.Storage,
	verifier ports.SignatureVerifier,
	events ports.EventPublisher,
	logger *slog.Logger,
) *StorageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageService{
		storage:  storage,
		verifier: verifier,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns every file in the subject's partition
func (s *StorageService) List(ctx context.Context, subject string) ([]core.FileEntry, error) {
	return s.storage.List(ctx, subject)
}

// Upload writes files into dir. dir may be empty for the partition root.
// Client-supplied names are reduced to their final path element.
func (s *StorageService) Upload(ctx context.Context, subject, dir string, files []UploadFile) ([]core.FileEntry, error) {
	if len(files) == 0 {
		return nil, core.ErrEmptyRequest
	}
	if !core.ValidDir(dir) {
		return nil, fmt.Errorf("%q: %w", dir, core.ErrInvalidPath)
	}
	dir = strings.Trim(dir, "/")

	entries := make([]core.FileEntry, 0, len(files))
	for _, f := range files {
		name := path.Base(strings.ReplaceAll(f.Name, "\\", "/"))
		if !core.ValidName(name) {
			return entries, fmt.Errorf("%q: %w", f.Name, core.ErrInvalidPath)
		}

		entry, err := s.storage.Write(ctx, subject, path.Join(dir, name), f.Content)
		if err != nil {
			return entries, fmt.Errorf("failed to store %s: %w", name, err)
		}
		entries = append(entries, entry)
		s.publish(ctx, core.EventFileUploaded, subject, entry.Path, "")
	}

	return entries, nil
}

// Download opens a file. With verify set, the file and its ".sig" sibling
// are read in full, the signature is checked against the subject, and only
// the verified bytes are returned.
func (s *StorageService) Download(ctx context.Context, subject, name string, verify bool) (core.Download, error) {
	if !verify {
		content, entry, err := s.storage.Open(ctx, subject, name)
		if err != nil {
			return core.Download{}, err
		}
		return core.Download{Entry: entry, Content: content}, nil
	}

	data, entry, err := s.readArtifact(ctx, subject, name)
	if err != nil {
		return core.Download{}, err
	}

	signature, _, err := s.readArtifact(ctx, subject, name+core.SignatureSuffix)
	if err != nil {
		return core.Download{}, err
	}

	if !s.verifier.Verify(data, string(signature), subject) {
		s.publish(ctx, core.EventSignatureRejected, subject, name, "")
		return core.Download{}, fmt.Errorf("%s: %w", name, core.ErrVerificationFailed)
	}
	s.publish(ctx, core.EventSignatureVerified, subject, name, "")

	return core.Download{
		Entry:    entry,
		Content:  nopCloser{bytes.NewReader(data)},
		Verified: true,
	}, nil
}

func (s *StorageService) readArtifact(ctx context.Context, subject, name string) ([]byte, core.FileEntry, error) {
	data, entry, err := s.storage.ReadAll(ctx, subject, name)
	if err != nil {
		if errors.Is(err, core.ErrInvalidPath) {
			return nil, core.FileEntry{}, err
		}
		return nil, core.FileEntry{}, fmt.Errorf("%s: %w: %w", name, core.ErrUnreadableArtifact, err)
	}
	return data, entry, nil
}

// Rename renames a file within its directory
func (s *StorageService) Rename(ctx context.Context, subject, name, newName string) error {
	if err := s.storage.Rename(ctx, subject, name, newName); err != nil {
		return err
	}
	s.publish(ctx, core.EventFileRenamed, subject, name, path.Join(path.Dir(name), newName))
	return nil
}

// Move moves a file to a new path
func (s *StorageService) Move(ctx context.Context, subject, from, to string) error {
	if err := s.storage.Move(ctx, subject, from, to); err != nil {
		return err
	}
	s.publish(ctx, core.EventFileMoved, subject, from, to)
	return nil
}

// Copy copies a file to a new path
func (s *StorageService) Copy(ctx context.Context, subject, from, to string) error {
	if err := s.storage.Copy(ctx, subject, from, to); err != nil {
		return err
	}
	s.publish(ctx, core.EventFileCopied, subject, from, to)
	return nil
}

// Delete removes files in order and stops at the first failure. Files
// removed before the failure stay removed.
func (s *StorageService) Delete(ctx context.Context, subject string, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, core.ErrEmptyRequest
	}

	for i, p := range paths {
		if err := s.storage.Delete(ctx, subject, p); err != nil {
			return i, fmt.Errorf("%s: %w", p, err)
		}
		s.publish(ctx, core.EventFileDeleted, subject, p, "")
	}

	return len(paths), nil
}

func (s *StorageService) publish(ctx context.Context, typ core.StorageEventType, subject, name, target string) {
	event := core.StorageEvent{
		Type:    typ,
		Address: core.PartitionKey(subject),
		Path:    name,
		Target:  target,
		At:      s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		// The storage change already happened; events are best effort
		s.logger.WarnContext(ctx, "failed to publish storage event", "type", typ, "err", err)
	}
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
