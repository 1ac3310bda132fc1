package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/vertag/vertag/logging"
	"github.com/vertag/vertag/version"
)

const (
	dynamodbFormat string = "dynamodb://<region>/<table>"

	partitionKey = "repo_id"
)

// DynamoDB keeps one item per key in a single table: the partition key
// attribute repo_id plus numeric x, y, z and an updated_at timestamp.
// Plain GetItem/PutItem, no conditional writes.
type DynamoDB struct {
	Table    string `schema:"-"`
	Region   string `schema:"-"`
	Endpoint string `schema:"endpoint"`
	cl       DynamoDBClient
	logger   *logging.Logger
}

type DynamoDBClient interface {
	GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type dynamodbItem struct {
	RepoID    string `dynamodbav:"repo_id"`
	X         int    `dynamodbav:"x"`
	Y         int    `dynamodbav:"y"`
	Z         int    `dynamodbav:"z"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// NewDynamoDB returns DynamoDB.
func NewDynamoDB(ctx context.Context, u string, log *logging.Logger) (*DynamoDB, error) {
	ur, err := url.Parse(u)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logging.Discard()
	}

	d := &DynamoDB{
		Region: ur.Host,
		Table:  strings.TrimPrefix(ur.Path, "/"),
		logger: log,
	}
	if err = decoder.Decode(d, ur.Query()); err != nil {
		return nil, err
	}

	if d.Region == "" {
		return nil, &version.ConfigError{Message: fmt.Sprintf("region is required: %s", dynamodbFormat)}
	}
	if d.Table == "" || strings.Contains(d.Table, "/") {
		return nil, &version.ConfigError{Message: fmt.Sprintf("table is required: %s", dynamodbFormat)}
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(d.Region))
	if err != nil {
		return nil, err
	}

	if d.Endpoint != "" {
		d.cl = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(d.Endpoint)
		})
	} else {
		d.cl = dynamodb.NewFromConfig(cfg)
	}

	return d, nil
}

// Load returns the record for key, or the zero record when the table has no
// item for it.
func (d *DynamoDB) Load(ctx context.Context, key string) (version.Record, error) {
	out, err := d.cl.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.Table),
		Key: map[string]types.AttributeValue{
			partitionKey: &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return version.Record{}, &StorageError{Op: "load", Key: key, Err: err}
	}

	if len(out.Item) == 0 {
		d.logger.Debug("No version item yet", slog.String("table", d.Table), slog.String("key", key))
		return version.Record{}, nil
	}

	var item dynamodbItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return version.Record{}, &StorageError{Op: "load", Key: key, Err: err}
	}
	if item.X < 0 || item.Y < 0 || item.Z < 0 {
		return version.Record{}, &StorageError{Op: "load", Key: key, Err: fmt.Errorf("item holds a negative component: %d.%d.%d", item.X, item.Y, item.Z)}
	}

	record := version.Record{X: item.X, Y: item.Y, Z: item.Z}
	d.logger.Debug("Loaded version item", slog.String("table", d.Table), slog.String("key", key), slog.String("version", record.String()))
	return record, nil
}

// Save puts the whole item; the previous item for key is replaced.
func (d *DynamoDB) Save(ctx context.Context, key string, record version.Record) error {
	item, err := attributevalue.MarshalMap(dynamodbItem{
		RepoID:    key,
		X:         record.X,
		Y:         record.Y,
		Z:         record.Z,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	if _, err := d.cl.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.Table),
		Item:      item,
	}); err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	d.logger.Debug("Saved version item", slog.String("table", d.Table), slog.String("key", key), slog.String("version", record.String()))
	return nil
}
