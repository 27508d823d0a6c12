// Package source reads score sheets from the local filesystem.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

const defaultMaxBytes = 10 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Sentinel kinds for source errors. Both are distinct from parse failures.
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrSourceTooLarge = errors.New("source too large")
)

// Option configures a FileSource.
type Option func(*FileSource)

// WithMaxBytes caps how much of a file is read.
func WithMaxBytes(n int64) Option {
	return func(s *FileSource) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// FileSource reads whole files as text.
type FileSource struct {
	maxBytes int64
}

// NewFileSource constructs a FileSource.
func NewFileSource(opts ...Option) *FileSource {
	s := &FileSource{maxBytes: defaultMaxBytes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the content of name with any leading UTF-8 BOM removed.
func (s *FileSource) Read(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrSourceNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrSourceTooLarge, name, s.maxBytes)
	}

	return string(bytes.TrimPrefix(data, utf8BOM)), nil
}
