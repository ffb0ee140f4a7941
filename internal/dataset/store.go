package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("dataset not found")

// Store persists the training dataset.
type Store interface {
	Load(ctx context.Context) (Dataset, error)
	Save(ctx context.Context, ds Dataset) error
	Close() error
}

// Store kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindCSV    = "csv"
	KindNone   = "none"
)

// Open returns the store of the given kind rooted at path.
func Open(kind, path string) (Store, error) {
	switch kind {
	case KindFile:
		return NewFileStore(path), nil
	case KindSQLite:
		return OpenSQLiteStore(path)
	case KindCSV:
		return NewCSVStore(path), nil
	case KindNone, "":
		return NopStore{}, nil
	}
	return nil, fmt.Errorf("unknown dataset store %q", kind)
}

// FileStore keeps the dataset as a single JSON document {"X": [...], "y": [...]}.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (Dataset, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Dataset{}, ErrNotFound
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset %s: %w", s.path, err)
	}
	if len(ds.X) == 0 {
		return Dataset{}, ErrNotFound
	}
	return ds, nil
}

// Save replaces the file atomically through a temporary file in the same
// directory.
func (s *FileStore) Save(_ context.Context, ds Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return writeAtomic(s.path, ".dataset-*.json", func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// writeAtomic writes through a temporary file in the destination directory
// and renames it over path.
func writeAtomic(path, pattern string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace dataset: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// NopStore never holds a dataset; every run generates a fresh one.
type NopStore struct{}

func (NopStore) Load(context.Context) (Dataset, error) { return Dataset{}, ErrNotFound }
func (NopStore) Save(context.Context, Dataset) error   { return nil }
func (NopStore) Close() error                          { return nil }
