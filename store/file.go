package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/vertag/vertag/logging"
	"github.com/vertag/vertag/version"
)

const fileFormat string = "file://<dir>"

// File keeps one JSON document per key under a root directory. A single
// writer crashing mid-save cannot corrupt the document (writes go to a temp
// file renamed over the target), but two concurrent writers can still lose
// an update.
type File struct {
	Dir    string
	logger *logging.Logger
}

// NewFile returns File.
func NewFile(u string, log *logging.Logger) (*File, error) {
	ur, err := url.Parse(u)
	if err != nil {
		return nil, err
	}

	// file://relative/dir parses the first segment as host.
	dir := filepath.Join(ur.Host, ur.Path)
	if dir == "" {
		return nil, &version.ConfigError{Message: fmt.Sprintf("dir is required: %s", fileFormat)}
	}

	if log == nil {
		log = logging.Discard()
	}

	return &File{Dir: dir, logger: log}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.Dir, key+".json")
}

// Load returns the record for key, or the zero record when no document
// exists yet. A document that exists but does not parse is a hard error.
func (f *File) Load(ctx context.Context, key string) (version.Record, error) {
	p := f.path(key)

	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		f.logger.Debug("No version document yet", slog.String("path", p))
		return version.Record{}, nil
	}
	if err != nil {
		return version.Record{}, &StorageError{Op: "load", Key: key, Err: err}
	}

	record, err := unmarshalRecord(b)
	if err != nil {
		return version.Record{}, &StorageError{Op: "load", Key: key, Err: err}
	}

	f.logger.Debug("Loaded version document", slog.String("path", p), slog.String("version", record.String()))
	return record, nil
}

// Save writes the document to a temp file in the target directory, then
// renames it over the target so readers see the old document or the new
// one, never a truncated one.
func (f *File) Save(ctx context.Context, key string, record version.Record) error {
	p := f.path(key)

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	b, err := marshalRecord(record)
	if err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".version-*")
	if err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &StorageError{Op: "save", Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	f.logger.Debug("Saved version document", slog.String("path", p), slog.String("version", record.String()))
	return nil
}
