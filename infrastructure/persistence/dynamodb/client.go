// Package dynamodb implements the Graph Store and Job Queue
// persistence ports against a single DynamoDB table: tagged ddbXxx structs
// marshalled via attributevalue.MarshalMap/UnmarshalMap rather than a
// more elaborate generic-repository abstraction, since this domain's port
// surface (GraphStore, JobStore) is flatter than a typical CQRS
// node/edge repository split.
package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Config configures the table/endpoint for both GraphStore and JobStore.
type Config struct {
	TableName string
	Region    string
	Endpoint  string // non-empty for local/dynamodb-local testing
}

// NewClient builds an AWS SDK v2 DynamoDB client, optionally pointed at a
// local endpoint for integration tests.
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	optFns := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
