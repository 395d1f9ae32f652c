// Package s3 provides an object store backend on S3-compatible storage.
package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"statichost"
)

// S3 limits DeleteObjects to 1000 keys per request.
const deleteBatchSize = 1000

// Config holds the settings needed to reach an S3-compatible endpoint.
// Endpoint and the static credentials are optional; when empty the
// default AWS credential chain and endpoint resolution apply.
type Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	// UsePathStyle is required for most non-AWS endpoints such as MinIO.
	UsePathStyle bool `mapstructure:"use_path_style"`
}

// Store provides object storage operations against a single bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// NewStore creates a Store from an existing client.
func NewStore(client *s3.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Connect builds an S3 client from cfg and returns a Store over it.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("connect object store: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewStore(client, cfg.Bucket), nil
}

// UploadFiles puts each file under keyPrefix and returns the stored
// objects. Objects already written are not removed when a later one
// fails; the caller decides what to do with the partial batch.
func (s *Store) UploadFiles(ctx context.Context, files []statichost.UploadFile, keyPrefix string) ([]statichost.UploadedObject, error) {
	uploaded := make([]statichost.UploadedObject, 0, len(files))

	for _, f := range files {
		key := keyPrefix + f.Name

		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          f.Content,
			ContentType:   aws.String(f.ContentType),
			ContentLength: aws.Int64(f.Size),
		})
		if err != nil {
			return uploaded, fmt.Errorf("upload files: put %q: %w: %w", key, statichost.ErrStorage, err)
		}

		uploaded = append(uploaded, statichost.UploadedObject{
			Key:         key,
			Name:        f.Name,
			ContentType: f.ContentType,
			Size:        f.Size,
		})
	}

	return uploaded, nil
}

// Fetch streams the object at key. The caller owns the returned body
// and must close it.
func (s *Store) Fetch(ctx context.Context, key string) (int64, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, nil, fmt.Errorf("fetch object %q: %w: %w", key, statichost.ErrStorage, err)
	}

	return aws.ToInt64(out.ContentLength), out.Body, nil
}

// DeleteAll removes the given objects in batches. Any batch failure
// aborts the operation.
func (s *Store) DeleteAll(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("delete objects: %w: %w", statichost.ErrStorage, err)
		}

		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("delete objects: %w: %s: %s",
				statichost.ErrStorage, aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}

	return nil
}
