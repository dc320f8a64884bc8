// Package storage implements the object-store collaborator over any
// S3-compatible backend (MinIO in development) and the upload executor
// that reads a staged image's bytes and stores them under a fresh key.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"recipebox/internal/common"
	appconfig "recipebox/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in)
	}
)

// GenerateObjectKey builds a fresh object key for one upload: unix
// milliseconds, a random suffix and the original file extension. Keys are
// never reused, so uploads never overwrite existing objects.
func GenerateObjectKey(fileName string) string {
	ext := ""
	if dot := strings.LastIndex(fileName, "."); dot >= 0 {
		ext = strings.ToLower(fileName[dot:])
	}
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), suffix, ext)
}

// S3Store talks to one S3-compatible endpoint. Objects are publicly
// readable; PublicURL derives the dereferenceable URL from the endpoint,
// bucket and key.
type S3Store struct {
	client       *s3.Client
	baseEndpoint string
}

func NewS3Store(ctx context.Context, c *appconfig.Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{client: client, baseEndpoint: strings.TrimSuffix(c.S3BaseEndpoint, "/")}, nil
}

// Store writes body under bucket/key with the given content type and
// returns the public URL of the new object.
func (s *S3Store) Store(ctx context.Context, bucket common.Bucket, key string, body io.Reader, contentType string) (string, error) {
	_, err := putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(string(bucket)),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}

	return s.PublicURL(bucket, key), nil
}

// Delete removes bucket/key. Deleting an absent object is not an error on
// S3-compatible backends, which suits compensation retries.
func (s *S3Store) Delete(ctx context.Context, bucket common.Bucket, key string) error {
	_, err := deleteObject(s.client, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(string(bucket)),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// PublicURL returns the dereferenceable URL for bucket/key.
func (s *S3Store) PublicURL(bucket common.Bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseEndpoint, bucket, key)
}

// ParseObjectURL splits a public URL produced by PublicURL back into bucket
// and key. Used when a persisted row only carries the URL of an object that
// must be deleted.
func ParseObjectURL(url string) (common.Bucket, string, bool) {
	trimmed := strings.TrimSuffix(url, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return "", "", false
	}
	bucket := common.Bucket(parts[len(parts)-2])
	key := parts[len(parts)-1]
	switch bucket {
	case common.BucketItemImages, common.BucketInstructionImages, common.BucketUserAvatars:
		return bucket, key, key != ""
	}
	return "", "", false
}
