package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/kgraph/engine/application/ports"
)

// activeStatusSet is the set of JobRecord statuses dedup.Checker treats as
// "in flight" when scanning for a colliding content_hash+ontology.
var activeStatusSet = map[string]bool{
	"pending":           true,
	"awaiting_approval": true,
	"approved":          true,
	"processing":        true,
}

// JobStore implements application/ports.JobStore against the same
// single DynamoDB table as GraphStore, using a status GSI (GSI1) and a
// content-hash/ontology GSI (GSI2) to serve ListByStatus and
// FindActiveByContentHash without a full scan.
type JobStore struct {
	client    *dynamodb.Client
	tableName string
	gsi1Name  string
	gsi2Name  string
	logger    *zap.Logger
}

func NewJobStore(client *dynamodb.Client, tableName, gsi1IndexName, gsi2IndexName string, logger *zap.Logger) *JobStore {
	return &JobStore{client: client, tableName: tableName, gsi1Name: gsi1IndexName, gsi2Name: gsi2IndexName, logger: logger}
}

func (s *JobStore) Save(ctx context.Context, job *ports.JobRecord) error {
	item, err := attributevalue.MarshalMap(toDDBJob(job))
	if err != nil {
		return fmt.Errorf("jobstore: marshal job %s: %w", job.JobID, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: item})
	if err != nil {
		return fmt.Errorf("jobstore: save job %s: %w", job.JobID, err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, jobID string) (*ports.JobRecord, error) {
	pk, sk := jobKey(jobID)
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: aws.String(s.tableName), Key: keyAV(pk, sk)})
	if err != nil {
		return nil, fmt.Errorf("jobstore: get job %s: %w", jobID, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item ddbJob
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("jobstore: unmarshal job %s: %w", jobID, err)
	}
	return fromDDBJob(item), nil
}

func (s *JobStore) ListByStatus(ctx context.Context, status string) ([]*ports.JobRecord, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(s.gsi1Name),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: prefixStatus + status},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("jobstore: list by status %s: %w", status, err)
	}
	jobs := make([]*ports.JobRecord, 0, len(out.Items))
	for _, raw := range out.Items {
		var item ddbJob
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		jobs = append(jobs, fromDDBJob(item))
	}
	return jobs, nil
}

func (s *JobStore) FindActiveByContentHash(ctx context.Context, contentHash, ontology string) ([]*ports.JobRecord, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(s.gsi2Name),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: prefixContentHash + contentHash + "#" + ontology},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("jobstore: find active by content hash %s/%s: %w", contentHash, ontology, err)
	}
	jobs := make([]*ports.JobRecord, 0, len(out.Items))
	for _, raw := range out.Items {
		var item ddbJob
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		if !activeStatusSet[item.Status] {
			continue
		}
		jobs = append(jobs, fromDDBJob(item))
	}
	return jobs, nil
}

func (s *JobStore) Delete(ctx context.Context, jobID string) error {
	pk, sk := jobKey(jobID)
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: aws.String(s.tableName), Key: keyAV(pk, sk)})
	if err != nil {
		return fmt.Errorf("jobstore: delete job %s: %w", jobID, err)
	}
	return nil
}
