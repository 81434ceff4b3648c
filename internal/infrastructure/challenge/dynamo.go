package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nimbusapp/nimbus-api/internal/config"
	"github.com/nimbusapp/nimbus-api/internal/domain"
	"github.com/nimbusapp/nimbus-api/internal/pkg/id"
)

// dynamoItem is the stored row. TTL is the DynamoDB expiry attribute, set
// slightly past the challenge expiry for the same reason as the Redis store.
type dynamoItem struct {
	Handle string `dynamodbav:"handle"`
	domain.VerificationChallenge
	TTL int64 `dynamodbav:"ttl"`
}

// DynamoStore keeps challenges in a single DynamoDB table keyed by handle.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

// NewDynamoClient creates a DynamoDB client. When cfg.AWSEndpointURL is set
// (LocalStack), it overrides the endpoint so all traffic goes to the local
// instance.
func NewDynamoClient(cfg *config.Config) *dynamodb.Client {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		panic("failed to load AWS config: " + err.Error())
	}
	clientOpts := []func(*dynamodb.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return dynamodb.NewFromConfig(awsCfg, clientOpts...)
}

// BootstrapDynamo creates the challenge table and enables TTL if needed.
// Safe to call on every startup.
func BootstrapDynamo(ctx context.Context, client *dynamodb.Client, tableName string) {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("handle"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("handle"), KeyType: types.KeyTypeHash},
		},
	})
	if err != nil {
		// ResourceInUseException means the table already exists — that's fine.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", tableName, "err", err)
		}
	} else {
		slog.Info("created table", "table", tableName)
	}

	_, err = client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String("ttl"),
		},
	})
	if err != nil {
		slog.Warn("could not enable TTL", "table", tableName, "err", err)
	}
}

func (s *DynamoStore) Set(ctx context.Context, handle string, ch *domain.VerificationChallenge) (string, error) {
	if handle == "" {
		handle = id.New()
	}
	item, err := attributevalue.MarshalMap(dynamoItem{
		Handle:                handle,
		VerificationChallenge: *ch,
		TTL:                   ch.ExpiresAt.Add(ttlGrace).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal challenge: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return "", fmt.Errorf("store challenge: %w", err)
	}
	return handle, nil
}

func (s *DynamoStore) Get(ctx context.Context, handle string) (*domain.VerificationChallenge, error) {
	if handle == "" {
		return nil, fmt.Errorf("no challenge record: %w", domain.ErrNotFound)
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       strKey("handle", handle),
	})
	if err != nil {
		return nil, fmt.Errorf("read challenge: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("no challenge record: %w", domain.ErrNotFound)
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	// TTL deletion is lazy in DynamoDB; drop hard-expired rows on read.
	if time.Now().Unix() > item.TTL {
		return nil, fmt.Errorf("no challenge record: %w", domain.ErrNotFound)
	}
	ch := item.VerificationChallenge
	return &ch, nil
}

func (s *DynamoStore) Delete(ctx context.Context, handle string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       strKey("handle", handle),
	})
	return err
}

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

var _ Store = (*DynamoStore)(nil)
