package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gorilla/schema"
	"github.com/vertag/vertag/logging"
	"github.com/vertag/vertag/version"
)

var (
	decoder        = schema.NewDecoder()
	fileScheme     = "file"
	dynamodbScheme = "dynamodb"
	s3Scheme       = "s3"
	gsScheme       = "gs"
)

// Store reads and writes a version record addressed by a caller-supplied
// key. A key that has never been saved loads as the zero record, not as an
// error. Save replaces the whole record; readers never observe a partial
// write. All backends are last-writer-wins: two runners racing the same key
// through load-mutate-save can lose one update.
type Store interface {
	Load(ctx context.Context, key string) (version.Record, error)
	Save(ctx context.Context, key string, record version.Record) error
}

// New constructs the store named by url.
//
//	file:///var/ci/versions
//	dynamodb://<region>/<table>?endpoint=...
//	s3://<region>/<bucket>/<prefix>?endpoint=...
//	gs://<bucket>/<prefix>
func New(ctx context.Context, url string, log *logging.Logger) (Store, error) {
	splitted := strings.SplitN(url, "://", 2)

	switch splitted[0] {
	case fileScheme:
		return NewFile(url, log)

	case dynamodbScheme:
		return NewDynamoDB(ctx, url, log)

	case s3Scheme:
		return NewS3(ctx, url, log)

	case gsScheme:
		return NewGS(ctx, url, log)
	}

	return nil, &version.ConfigError{Message: fmt.Sprintf("unsupported store: %s", url)}
}

// StorageError wraps a backend failure: unreachable backend, permission
// failure, or a persisted document that does not match the schema.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s %q: %s", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type document struct {
	X *int `json:"x"`
	Y *int `json:"y"`
	Z *int `json:"z"`
}

func marshalRecord(r version.Record) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// unmarshalRecord rejects documents missing a component or holding a
// negative one; an unreadable document must not degrade to the zero record.
func unmarshalRecord(b []byte) (version.Record, error) {
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return version.Record{}, err
	}

	for field, v := range map[string]*int{"x": doc.X, "y": doc.Y, "z": doc.Z} {
		if v == nil {
			return version.Record{}, fmt.Errorf("document is missing %q", field)
		}
		if *v < 0 {
			return version.Record{}, fmt.Errorf("document holds negative %q: %d", field, *v)
		}
	}

	return version.Record{X: *doc.X, Y: *doc.Y, Z: *doc.Z}, nil
}

func addTrailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}
