package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"recruitment-portal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store implements BlobStore on Amazon S3 (or any S3-compatible
// endpoint).
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Store creates an S3-backed blob store
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	if cfg.Blob.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Blob.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Blob.Region))
	}
	if cfg.Blob.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Blob.AccessKeyID, cfg.Blob.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Blob.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Blob.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := cfg.Blob.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Blob.Bucket, cfg.Blob.Region)
	}

	return &S3Store{
		client:  client,
		bucket:  cfg.Blob.Bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Put uploads an object and returns its public URL
func (s *S3Store) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object bucket=%s key=%s: %w", s.bucket, key, err)
	}
	return s.URL(key), nil
}

// Delete removes an object
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object bucket=%s key=%s: %w", s.bucket, key, err)
	}
	return nil
}

// List enumerates stored objects under a prefix
func (s *S3Store) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	var blobs []BlobInfo

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list objects bucket=%s: %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			info := BlobInfo{
				Key: aws.ToString(obj.Key),
				URL: s.URL(aws.ToString(obj.Key)),
			}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			blobs = append(blobs, info)
		}
	}

	return blobs, nil
}

// URL returns the public URL for a key
func (s *S3Store) URL(key string) string {
	return s.baseURL + "/" + key
}
