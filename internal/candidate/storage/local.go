package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/talentvault/talentvault-backend/pkg/logger"
)

// LocalStore keeps files in one flat directory
type LocalStore struct {
	dir    string
	logger *logger.Logger
}

// NewLocalStore creates dir if needed
func NewLocalStore(dir string, log *logger.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, logger: log.WithComponent("storage")}, nil
}

// Dir returns the upload directory
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	clean, err := SecureFilename(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// write next to the target and rename so readers never see a partial file
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", clean, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, clean)); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", clean, err)
	}

	s.logger.Debug().Str("file", clean).Int64("bytes", n).Msg("stored upload")
	return clean, nil
}

func (s *LocalStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := checkStoredName(name); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) LocalPath(_ context.Context, name string) (string, func(), error) {
	if err := checkStoredName(name); err != nil {
		return "", nil, err
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}
	return path, func() {}, nil
}

func (s *LocalStore) Delete(_ context.Context, name string) error {
	if err := checkStoredName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}
