package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/deepnoodle-ai/gscript/bytecode"
)

// S3API is the subset of the S3 client used by S3Backend.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

const (
	revisionMetadata = "gscript-revision"
	createdMetadata  = "gscript-created"
	contentType      = "application/cbor"
)

// S3Backend ships artifacts through an S3 bucket, one object per key.
type S3Backend struct {
	client S3API
	bucket string
	prefix string
}

// NewS3 returns a backend using the default AWS configuration chain.
func NewS3(ctx context.Context, bucket, prefix string) (*S3Backend, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return NewS3Client(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3Client returns a backend over an existing client.
func NewS3Client(client S3API, bucket, prefix string) *S3Backend {
	return &S3Backend{client: client, bucket: bucket, prefix: prefix}
}

func (b *S3Backend) objectKey(key string) string {
	return path.Join(b.prefix, key+".cbor")
}

func (b *S3Backend) Get(ctx context.Context, key string) (*Entry, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting s3://%s/%s: %w", b.bucket, b.objectKey(key), err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s: %w", b.bucket, b.objectKey(key), err)
	}
	return decodeEntry(key, out.Metadata[revisionMetadata], data, createdAt(out))
}

// createdAt reads the creation time recorded at Put, falling back to the
// object's modification time for objects written by other tools.
func createdAt(out *s3.GetObjectOutput) time.Time {
	if created, err := time.Parse(time.RFC3339Nano, out.Metadata[createdMetadata]); err == nil {
		return created
	}
	if out.LastModified != nil {
		return out.LastModified.UTC()
	}
	return time.Time{}
}

func (b *S3Backend) Put(ctx context.Context, key string, blocks *bytecode.ScriptBlocks) (*Entry, error) {
	entry, data, err := newEntry(key, blocks)
	if err != nil {
		return nil, err
	}
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			revisionMetadata: entry.Revision.String(),
			createdMetadata:  entry.Created.Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("putting s3://%s/%s: %w", b.bucket, b.objectKey(key), err)
	}
	return entry, nil
}
