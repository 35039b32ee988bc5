// Package storage provides the filesystem backend for wallet partitions.
// Each authenticated address owns one directory under the storage root and
// every operation goes through an os.Root opened on that directory, so
// paths that resolve outside the partition are rejected by the kernel-level
// sandbox rather than by string checks alone.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/layer-3/walletvault/core"
	"github.com/layer-3/walletvault/ports"
)

// FileStore implements ports.Storage on top of a local directory
type FileStore struct {
	root   *os.Root
	logger *slog.Logger
}

// NewFileStore creates a FileStore rooted at root
func NewFileStore(root *os.Root, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{root: root, logger: logger}
}

var _ ports.Storage = (*FileStore)(nil)

// partition opens the sandbox for subject. With create set, the
// partition directory is created on first use.
func (s *FileStore) partition(subject string, create bool) (*os.Root, error) {
	key := core.PartitionKey(subject)
	if !core.ValidName(key) || strings.HasPrefix(key, ".") {
		return nil, fmt.Errorf("partition %q: %w", key, core.ErrInvalidPath)
	}

	if create {
		if err := s.root.MkdirAll(key, 0o750); err != nil {
			return nil, fmt.Errorf("could not create partition: %w", err)
		}
	}

	p, err := s.root.OpenRoot(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("could not open partition: %w", err)
	}

	return p, nil
}

func (s *FileStore) closeRoot(r *os.Root) {
	if err := r.Close(); err != nil {
		s.logger.Warn("failed to close partition", "err", err)
	}
}

func checkPath(p string) error {
	if !core.ValidPath(p) {
		return fmt.Errorf("%q: %w", p, core.ErrInvalidPath)
	}
	return nil
}

func mapErr(op string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return core.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// List recursively walks the partition and returns every stored file.
// A partition that has never been written to is empty, not missing.
func (s *FileStore) List(ctx context.Context, subject string) ([]core.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.partition(subject, false)
	if errors.Is(err, core.ErrNotFound) {
		return []core.FileEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer s.closeRoot(p)

	entries := []core.FileEntry{}
	if err := s.walkDir(ctx, p, ".", &entries); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return entries, nil
}

func (s *FileStore) walkDir(ctx context.Context, p *os.Root, dir string, entries *[]core.FileEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(p.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, p, entryPath, entries); err != nil {
				return err
			}
			continue
		}

		if strings.HasPrefix(entry.Name(), core.ReservedPrefix) || !entry.Type().IsRegular() {
			continue
		}

		fe, err := s.describe(p, entryPath)
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}
		*entries = append(*entries, fe)
	}

	return nil
}

// describe stats and hashes a file to build its entry
func (s *FileStore) describe(p *os.Root, name string) (core.FileEntry, error) {
	f, err := p.Open(filepath.FromSlash(name))
	if err != nil {
		return core.FileEntry{}, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			s.logger.Warn("failed to close file", "path", name, "err", closeErr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return core.FileEntry{}, err
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return core.FileEntry{}, err
	}

	return core.FileEntry{
		Path:        name,
		Size:        info.Size(),
		ETag:        hex.EncodeToString(h.Sum(nil)),
		ContentType: detectContentType(name),
		UpdatedAt:   info.ModTime(),
	}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content to path using a temp file and rename,
// creating intermediate directories as needed. An existing file is replaced.
func (s *FileStore) Write(ctx context.Context, subject, name string, content io.Reader) (core.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return core.FileEntry{}, err
	}
	if err := checkPath(name); err != nil {
		return core.FileEntry{}, err
	}

	p, err := s.partition(subject, true)
	if err != nil {
		return core.FileEntry{}, err
	}
	defer s.closeRoot(p)

	return s.writeAtomic(ctx, p, name, content)
}

func (s *FileStore) writeAtomic(ctx context.Context, p *os.Root, name string, content io.Reader) (core.FileEntry, error) {
	tmpFile := tmpFileName()
	t, err := p.Create(tmpFile)
	if err != nil {
		return core.FileEntry{}, fmt.Errorf("could not open temp file: %w", err)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			s.logger.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := p.Remove(tmpFile); rmErr != nil {
				s.logger.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	size, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return core.FileEntry{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return core.FileEntry{}, fmt.Errorf("could not sync written file: %w", err)
	}

	if err := mkdirParent(p, name); err != nil {
		return core.FileEntry{}, err
	}

	target := filepath.FromSlash(name)
	if info, statErr := p.Lstat(target); statErr == nil && info.IsDir() {
		return core.FileEntry{}, fmt.Errorf("%q is a directory: %w", name, core.ErrAlreadyExists)
	}

	if err := p.Rename(tmpFile, target); err != nil {
		return core.FileEntry{}, fmt.Errorf("failed to rename file: %w", err)
	}
	success = true

	entry := core.FileEntry{
		Path:        name,
		Size:        size,
		ETag:        hex.EncodeToString(h.Sum(nil)),
		ContentType: detectContentType(name),
	}
	if info, err := p.Stat(target); err == nil {
		entry.UpdatedAt = info.ModTime()
	}

	return entry, nil
}

// Open opens a file for reading. The caller closes the returned content.
func (s *FileStore) Open(ctx context.Context, subject, name string) (io.ReadSeekCloser, core.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.FileEntry{}, err
	}
	if err := checkPath(name); err != nil {
		return nil, core.FileEntry{}, err
	}

	p, err := s.partition(subject, false)
	if err != nil {
		return nil, core.FileEntry{}, err
	}
	defer s.closeRoot(p)

	f, err := p.Open(filepath.FromSlash(name))
	if err != nil {
		return nil, core.FileEntry{}, mapErr("failed to open file", err)
	}

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		if err == nil {
			err = core.ErrNotFound
		}
		return nil, core.FileEntry{}, mapErr("failed to stat file", err)
	}

	return f, core.FileEntry{
		Path:        name,
		Size:        info.Size(),
		ContentType: detectContentType(name),
		UpdatedAt:   info.ModTime(),
	}, nil
}

// ReadAll reads the whole file in one pass and describes the bytes it
// read. The handle is released on every return path.
func (s *FileStore) ReadAll(ctx context.Context, subject, name string) ([]byte, core.FileEntry, error) {
	f, entry, err := s.Open(ctx, subject, name)
	if err != nil {
		return nil, core.FileEntry{}, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			s.logger.Warn("failed to close file", "path", name, "err", closeErr)
		}
	}()

	data, err := io.ReadAll(&ctxReader{ctx: ctx, r: f})
	if err != nil {
		return nil, core.FileEntry{}, fmt.Errorf("failed to read file: %w", err)
	}

	sum := sha256.Sum256(data)
	entry.Size = int64(len(data))
	entry.ETag = hex.EncodeToString(sum[:])

	return data, entry, nil
}

// Rename gives a file a new name inside its current directory
func (s *FileStore) Rename(ctx context.Context, subject, name, newName string) error {
	if !core.ValidName(newName) {
		return fmt.Errorf("%q: %w", newName, core.ErrInvalidPath)
	}
	return s.Move(ctx, subject, name, path.Join(path.Dir(name), newName))
}

// Move relocates a file, creating the destination directory if needed.
// An existing destination is never overwritten.
func (s *FileStore) Move(ctx context.Context, subject, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkPath(from); err != nil {
		return err
	}
	if err := checkPath(to); err != nil {
		return err
	}

	p, err := s.partition(subject, false)
	if err != nil {
		return err
	}
	defer s.closeRoot(p)

	if err := requireFile(p, from); err != nil {
		return err
	}
	if err := requireAbsent(p, to); err != nil {
		return err
	}
	if err := mkdirParent(p, to); err != nil {
		return err
	}

	if err := p.Rename(filepath.FromSlash(from), filepath.FromSlash(to)); err != nil {
		return mapErr("failed to move file", err)
	}

	return nil
}

// Copy duplicates a file, creating the destination directory if needed.
// An existing destination is never overwritten.
func (s *FileStore) Copy(ctx context.Context, subject, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkPath(from); err != nil {
		return err
	}
	if err := checkPath(to); err != nil {
		return err
	}

	p, err := s.partition(subject, false)
	if err != nil {
		return err
	}
	defer s.closeRoot(p)

	if err := requireFile(p, from); err != nil {
		return err
	}
	if err := requireAbsent(p, to); err != nil {
		return err
	}

	src, err := p.Open(filepath.FromSlash(from))
	if err != nil {
		return mapErr("failed to open source", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			s.logger.Warn("failed to close file", "path", from, "err", closeErr)
		}
	}()

	if _, err := s.writeAtomic(ctx, p, to, src); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}

	return nil
}

// Delete removes a file. Directories are not removed.
func (s *FileStore) Delete(ctx context.Context, subject, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkPath(name); err != nil {
		return err
	}

	p, err := s.partition(subject, false)
	if err != nil {
		return err
	}
	defer s.closeRoot(p)

	if err := requireFile(p, name); err != nil {
		return err
	}

	if err := p.Remove(filepath.FromSlash(name)); err != nil {
		return mapErr("could not delete file", err)
	}

	return nil
}

func requireFile(p *os.Root, name string) error {
	info, err := p.Lstat(filepath.FromSlash(name))
	if err != nil {
		return mapErr("failed to stat file", err)
	}
	if !info.Mode().IsRegular() {
		return core.ErrNotFound
	}
	return nil
}

func requireAbsent(p *os.Root, name string) error {
	_, err := p.Lstat(filepath.FromSlash(name))
	if err == nil {
		return fmt.Errorf("%q: %w", name, core.ErrAlreadyExists)
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to stat target: %w", err)
}

func mkdirParent(p *os.Root, name string) error {
	dir := path.Dir(name)
	if dir == "." {
		return nil
	}
	if err := p.MkdirAll(filepath.FromSlash(dir), 0o750); err != nil {
		return fmt.Errorf("could not create intermediate directories: %w", err)
	}
	return nil
}

func detectContentType(name string) string {
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

func tmpFileName() string {
	return core.ReservedPrefix + uuid.New().String()
}
