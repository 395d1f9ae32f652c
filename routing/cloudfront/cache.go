// Package cloudfront implements the routing cache on a CloudFront
// key-value store. Every mutation describes the store first to obtain
// its current ETag and passes it as the IfMatch precondition, so a
// concurrent writer surfaces as a conflict instead of a lost update.
package cloudfront

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	kvs "github.com/aws/aws-sdk-go-v2/service/cloudfrontkeyvaluestore"
	"github.com/aws/aws-sdk-go-v2/service/cloudfrontkeyvaluestore/types"

	"statichost"
)

// Config identifies the key-value store to use.
type Config struct {
	KvsARN string `mapstructure:"kvs_arn"`
	Region string `mapstructure:"region"`
}

// Cache is a routing cache backed by a CloudFront key-value store.
type Cache struct {
	client *kvs.Client
	kvsARN string
}

// NewCache creates a Cache from an existing client.
func NewCache(client *kvs.Client, kvsARN string) *Cache {
	return &Cache{client: client, kvsARN: kvsARN}
}

// Connect builds a key-value store client from cfg and returns a Cache
// over it.
func Connect(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.KvsARN == "" {
		return nil, fmt.Errorf("connect routing cache: kvs_arn is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect routing cache: %w", err)
	}

	return NewCache(kvs.NewFromConfig(awsCfg), cfg.KvsARN), nil
}

// Get reads the routing token for a host.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	out, err := c.client.GetKey(ctx, &kvs.GetKeyInput{
		KvsARN: aws.String(c.kvsARN),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("routing cache get %q: %w", key, statichost.ErrNotFound)
		}
		return "", fmt.Errorf("routing cache get %q: %w", key, err)
	}

	return aws.ToString(out.Value), nil
}

// Set writes the routing token for a host, conditional on the store
// ETag read at the start of the call. The cache does not retry.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	etag, err := c.describeETag(ctx)
	if err != nil {
		return fmt.Errorf("routing cache set %q: %w", key, err)
	}

	_, err = c.client.PutKey(ctx, &kvs.PutKeyInput{
		KvsARN:  aws.String(c.kvsARN),
		Key:     aws.String(key),
		Value:   aws.String(value),
		IfMatch: aws.String(etag),
	})
	if err != nil {
		var conflict *types.ConflictException
		if errors.As(err, &conflict) {
			return fmt.Errorf("routing cache set %q: %w", key, statichost.ErrConcurrentModification)
		}
		return fmt.Errorf("routing cache set %q: %w", key, err)
	}

	return nil
}

// Delete removes the routing entry for a host, using the same
// conditional protocol as Set. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	etag, err := c.describeETag(ctx)
	if err != nil {
		return fmt.Errorf("routing cache delete %q: %w", key, err)
	}

	_, err = c.client.DeleteKey(ctx, &kvs.DeleteKeyInput{
		KvsARN:  aws.String(c.kvsARN),
		Key:     aws.String(key),
		IfMatch: aws.String(etag),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		var conflict *types.ConflictException
		if errors.As(err, &conflict) {
			return fmt.Errorf("routing cache delete %q: %w", key, statichost.ErrConcurrentModification)
		}
		return fmt.Errorf("routing cache delete %q: %w", key, err)
	}

	return nil
}

func (c *Cache) describeETag(ctx context.Context) (string, error) {
	out, err := c.client.DescribeKeyValueStore(ctx, &kvs.DescribeKeyValueStoreInput{
		KvsARN: aws.String(c.kvsARN),
	})
	if err != nil {
		return "", fmt.Errorf("describe key value store: %w", err)
	}

	return aws.ToString(out.ETag), nil
}
