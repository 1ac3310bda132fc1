package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/vertag/vertag/logging"
	"github.com/vertag/vertag/version"
)

const gsFormat string = "gs://<bucket>/<prefix>"

// GS keeps one JSON object per key in a Google Cloud Storage bucket, at the
// same <prefix><key>.json layout as the S3 store.
type GS struct {
	Bucket string `schema:"-"`
	Prefix string `schema:"-"`
	client GSClient
	logger *logging.Logger
}

type GSClient interface {
	Bucket(name string) *storage.BucketHandle
	Close() error
}

// NewGS returns GS.
func NewGS(ctx context.Context, u string, log *logging.Logger) (*GS, error) {
	return NewGSWithClient(ctx, u, log, nil)
}

// NewGSWithClient returns GS with custom client (for testing).
func NewGSWithClient(ctx context.Context, u string, log *logging.Logger, client GSClient) (*GS, error) {
	ur, err := url.Parse(u)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logging.Discard()
	}

	prefix := defaultObjectPrefix
	if path := strings.TrimPrefix(ur.Path, "/"); path != "" {
		prefix = addTrailingSlash(path)
	}

	g := &GS{
		Bucket: ur.Host,
		Prefix: prefix,
		logger: log,
	}
	if err = decoder.Decode(g, ur.Query()); err != nil {
		return nil, err
	}

	if g.Bucket == "" {
		return nil, &version.ConfigError{Message: fmt.Sprintf("bucket is required: %s", gsFormat)}
	}

	if client == nil {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		g.client = client
	} else {
		g.client = client
	}

	return g, nil
}

func (g *GS) objectName(key string) string {
	return g.Prefix + key + ".json"
}

// Load returns the record for key, or the zero record when the object does
// not exist. A body that does not parse is a hard error.
func (g *GS) Load(ctx context.Context, key string) (version.Record, error) {
	obj := g.client.Bucket(g.Bucket).Object(g.objectName(key))

	r, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		g.logger.Debug("No version object yet", slog.String("bucket", g.Bucket), slog.String("name", g.objectName(key)))
		return version.Record{}, nil
	}
	if err != nil {
		return version.Record{}, &StorageError{Op: "load", Key: key, Err: err}
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return version.Record{}, &StorageError{Op: "load", Key: key, Err: err}
	}

	record, err := unmarshalRecord(b)
	if err != nil {
		return version.Record{}, &StorageError{Op: "load", Key: key, Err: err}
	}

	g.logger.Debug("Loaded version object", slog.String("bucket", g.Bucket), slog.String("name", g.objectName(key)), slog.String("version", record.String()))
	return record, nil
}

// Save overwrites the object as a whole. Writes flush on Close, so its
// error is the write result.
func (g *GS) Save(ctx context.Context, key string, record version.Record) error {
	b, err := marshalRecord(record)
	if err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	obj := g.client.Bucket(g.Bucket).Object(g.objectName(key))
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(b); err != nil {
		w.Close()
		return &StorageError{Op: "save", Key: key, Err: err}
	}
	if err := w.Close(); err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	g.logger.Debug("Saved version object", slog.String("bucket", g.Bucket), slog.String("name", g.objectName(key)), slog.String("version", record.String()))
	return nil
}
