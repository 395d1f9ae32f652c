// Package filesystem provides a local disk object store backend.
// It supports atomic writes using temp files and sandboxed paths,
// intended for development and tests where S3 is not available.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"statichost"
)

// Store provides file system object storage operations.
type Store struct {
	root *os.Root
}

// NewStore creates a Store rooted at the given directory.
// The root provides sandboxed file operations preventing path traversal.
func NewStore(root *os.Root) *Store {
	return &Store{root: root}
}

// Open opens the root directory, creating it if it does not exist,
// and returns a Store over it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}

	return NewStore(root), nil
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

// UploadFiles writes each file under keyPrefix and returns the stored
// objects. Files already written are not removed when a later one fails.
func (s *Store) UploadFiles(ctx context.Context, files []statichost.UploadFile, keyPrefix string) ([]statichost.UploadedObject, error) {
	uploaded := make([]statichost.UploadedObject, 0, len(files))

	for _, f := range files {
		key := keyPrefix + f.Name

		size, err := s.write(ctx, key, f.Content)
		if err != nil {
			return uploaded, fmt.Errorf("upload files: %w: %w", statichost.ErrStorage, err)
		}

		uploaded = append(uploaded, statichost.UploadedObject{
			Key:         key,
			Name:        f.Name,
			ContentType: f.ContentType,
			Size:        size,
		})
	}

	return uploaded, nil
}

func (s *Store) write(ctx context.Context, key string, content io.Reader) (int64, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return 0, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(t.Name()); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	written, err := io.Copy(t, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return 0, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return 0, fmt.Errorf("could not sync written file: %w", err)
	}

	destDir := filepath.Dir(key)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return 0, fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, key); renameErr != nil {
		return 0, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return written, nil
}

// Fetch opens the object at key for reading. The caller owns the
// returned reader and must close it.
func (s *Store) Fetch(ctx context.Context, key string) (int64, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch object: %w: %w", statichost.ErrStorage, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return 0, nil, fmt.Errorf("fetch object: %w: %w", statichost.ErrStorage, err)
	}

	return info.Size(), f, nil
}

// DeleteAll removes the given objects. Missing objects are not an
// error; any other failure aborts the batch.
func (s *Store) DeleteAll(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.root.Remove(key)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete objects: %w: %w", statichost.ErrStorage, err)
		}
	}

	return nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
