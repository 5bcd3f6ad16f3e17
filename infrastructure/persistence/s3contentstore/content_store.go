// Package s3contentstore implements the Content Store port against
// S3: raw document bytes keyed by content_hash, backing re-chunking and
// re-embedding without re-fetching from the original source.
package s3contentstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ContentStore implements application/ports.ContentStore against one S3
// bucket, objects keyed by content_hash under a fixed prefix.
type ContentStore struct {
	client *s3.Client
	bucket string
	prefix string
}

func New(client *s3.Client, bucket, prefix string) *ContentStore {
	return &ContentStore{client: client, bucket: bucket, prefix: prefix}
}

func (c *ContentStore) key(contentHash string) string {
	if c.prefix == "" {
		return contentHash
	}
	return c.prefix + "/" + contentHash
}

func (c *ContentStore) Put(ctx context.Context, contentHash string, data []byte) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key(contentHash)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("s3contentstore: put %s: %w", contentHash, err)
	}
	return nil
}

func (c *ContentStore) Get(ctx context.Context, contentHash string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key(contentHash)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil
		}
		return nil, fmt.Errorf("s3contentstore: get %s: %w", contentHash, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3contentstore: read %s: %w", contentHash, err)
	}
	return data, nil
}

func (c *ContentStore) Exists(ctx context.Context, contentHash string) (bool, error) {
	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key(contentHash)),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("s3contentstore: head %s: %w", contentHash, err)
	}
	return true, nil
}

func (c *ContentStore) Delete(ctx context.Context, contentHash string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key(contentHash)),
	})
	if err != nil {
		return fmt.Errorf("s3contentstore: delete %s: %w", contentHash, err)
	}
	return nil
}
