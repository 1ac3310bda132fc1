package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/vertag/vertag/logging"
	"github.com/vertag/vertag/version"
)

const (
	s3Format string = "s3://<region>/<bucket>/<prefix>"

	// Used when the store URL names no prefix.
	defaultObjectPrefix = "versions/"
)

// S3 keeps one JSON object per key at <prefix><key>.json. Save is a
// whole-object PutObject; there is no conditional write.
type S3 struct {
	Bucket   string `schema:"-"`
	Prefix   string `schema:"-"`
	Region   string `schema:"region"`
	Endpoint string `schema:"endpoint"`
	cl       S3Client
	logger   *logging.Logger
}

type S3Client interface {
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3 returns S3.
func NewS3(ctx context.Context, u string, log *logging.Logger) (*S3, error) {
	ur, err := url.Parse(u)
	if err != nil {
		return nil, err
	}

	after, _ := strings.CutPrefix(ur.Path, "/")
	splitted := strings.SplitN(after, "/", 2)
	bucket := ""
	prefix := defaultObjectPrefix
	if len(splitted) > 0 {
		bucket = splitted[0]
	}
	if len(splitted) > 1 && splitted[1] != "" {
		prefix = addTrailingSlash(splitted[1])
	}

	if log == nil {
		log = logging.Discard()
	}

	s := &S3{
		Region: ur.Host,
		Bucket: bucket,
		Prefix: prefix,
		logger: log,
	}
	if err = decoder.Decode(s, ur.Query()); err != nil {
		return nil, err
	}

	if s.Region == "" {
		return nil, &version.ConfigError{Message: fmt.Sprintf("region is required: %s", s3Format)}
	}
	if s.Bucket == "" {
		return nil, &version.ConfigError{Message: fmt.Sprintf("bucket is required: %s", s3Format)}
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(s.Region))
	if err != nil {
		return nil, err
	}

	if s.Endpoint != "" {
		s.cl = s3.NewFromConfig(cfg, func(o *s3.Options) {
			// path-style: https://s3.region.amazonaws.com/<bucket>/<key>
			o.UsePathStyle = true
			o.BaseEndpoint = aws.String(s.Endpoint)
		})
	} else if e := os.Getenv("AWS_ENDPOINT_URL"); e != "" {
		s.cl = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	} else {
		s.cl = s3.NewFromConfig(cfg)
	}

	return s, nil
}

func (s *S3) objectKey(key string) string {
	return s.Prefix + key + ".json"
}

// S3-compatible endpoints are not consistent about NoSuchKey; some return a
// bare NotFound code instead.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound"
}

// Load returns the record for key, or the zero record when the object does
// not exist. A body that does not parse is a hard error.
func (s *S3) Load(ctx context.Context, key string) (version.Record, error) {
	out, err := s.cl.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			s.logger.Debug("No version object yet", slog.String("bucket", s.Bucket), slog.String("key", s.objectKey(key)))
			return version.Record{}, nil
		}
		return version.Record{}, &StorageError{Op: "load", Key: key, Err: err}
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return version.Record{}, &StorageError{Op: "load", Key: key, Err: err}
	}

	record, err := unmarshalRecord(b)
	if err != nil {
		return version.Record{}, &StorageError{Op: "load", Key: key, Err: err}
	}

	s.logger.Debug("Loaded version object", slog.String("bucket", s.Bucket), slog.String("key", s.objectKey(key)), slog.String("version", record.String()))
	return record, nil
}

// Save overwrites the object as a whole.
func (s *S3) Save(ctx context.Context, key string, record version.Record) error {
	b, err := marshalRecord(record)
	if err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	if _, err := s.cl.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	s.logger.Debug("Saved version object", slog.String("bucket", s.Bucket), slog.String("key", s.objectKey(key)), slog.String("version", record.String()))
	return nil
}
