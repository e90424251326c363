package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/speedwagon-io/relicwatch/internal/config"
)

// dynamoAPI is the subset of the DynamoDB client the store uses.
type dynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type dynamoRecord struct {
	Key       string `dynamodbav:"key"`
	Value     string `dynamodbav:"value"`
	UpdatedAt int64  `dynamodbav:"updated_at"`
}

// DynamoDBKV stores records in a table whose partition key is the string
// attribute "key".
type DynamoDBKV struct {
	log       *slog.Logger
	client    dynamoAPI
	tableName string
}

func NewDynamoDBKV(ctx context.Context, log *slog.Logger, cfg config.DynamoDBConfig) (*DynamoDBKV, error) {
	if cfg.Table == "" {
		return nil, fmt.Errorf("dynamodb table name is not set")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &DynamoDBKV{log: log, client: client, tableName: cfg.Table}, nil
}

func (d *DynamoDBKV) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s from dynamodb: %w", key, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var rec dynamoRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", key, err)
	}
	return []byte(rec.Value), nil
}

func (d *DynamoDBKV) Put(ctx context.Context, key string, value []byte) error {
	item, err := attributevalue.MarshalMap(dynamoRecord{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", key, err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store record %s in dynamodb: %w", key, err)
	}

	d.log.Debug("record stored", slog.String("key", key), slog.String("table", d.tableName))
	return nil
}

func (d *DynamoDBKV) Ping(ctx context.Context) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
	if err != nil {
		return fmt.Errorf("dynamodb table %s unavailable: %w", d.tableName, err)
	}
	return nil
}

func (d *DynamoDBKV) Close() error { return nil }
