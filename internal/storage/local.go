// Package storage keeps attachment bytes outside the relational store.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dom/worknest/internal/domain"
	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how much of an upload is inspected to detect its type.
const sniffLen = 3072

// ErrTooLarge is returned when an upload exceeds the size limit.
var ErrTooLarge = domain.Invalid("file", "exceeds the maximum attachment size")

// Object describes a stored blob.
type Object struct {
	Key      string
	Size     int64
	MimeType string
}

// Store saves, opens and deletes attachment blobs by key.
type Store interface {
	Save(ctx context.Context, r io.Reader, maxBytes int64) (*Object, error)
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
}

// LocalStore keeps blobs as files in one directory.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("%w: invalid storage key", domain.ErrNotFound)
	}
	return filepath.Join(s.root, key), nil
}

// Save streams r to a new blob. The file appears under its final name only
// once fully written.
func (s *LocalStore) Save(ctx context.Context, r io.Reader, maxBytes int64) (*Object, error) {
	if maxBytes <= 0 {
		maxBytes = domain.MaxAttachmentSize
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read upload: %w", domain.ErrStorage, err)
	}
	head = head[:n]
	if n == 0 {
		return nil, domain.Invalid("file", "is empty")
	}

	key := newKey()
	final, err := s.path(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	body := io.MultiReader(bytes.NewReader(head), r)
	size, err := io.Copy(tmp, &contextReader{ctx: ctx, r: io.LimitReader(body, maxBytes+1)})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: write upload: %w", domain.ErrStorage, err)
	}
	if size > maxBytes {
		return nil, ErrTooLarge
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	return &Object{
		Key:      key,
		Size:     size,
		MimeType: mimetype.Detect(head).String(),
	}, nil
}

func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: attachment file missing", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return f, nil
}

// Delete removes the blob. A blob that is already gone is not an error.
func (s *LocalStore) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
