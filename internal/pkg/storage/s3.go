package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kontenhub/cms/internal/config"
)

const uploadPrefix = "uploads/"

// S3 stores files in an S3-compatible bucket using path-style addressing.
type S3 struct {
	client    *s3.Client
	bucket    string
	endpoint  string
	publicURL string
}

// NewS3 builds a client from static credentials.
func NewS3(cfg config.S3Config) (*S3, error) {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("s3 storage requires bucket, access key and secret key")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", region)
	}

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})
	return &S3{
		client:    client,
		bucket:    cfg.Bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/"),
	}, nil
}

func (s *S3) Name() string { return config.StorageS3 }

func (s *S3) Put(ctx context.Context, obj Object) (string, error) {
	name := SafeName(obj.Name)
	if name == "" {
		return "", fmt.Errorf("invalid file name %q", obj.Name)
	}
	key := uploadPrefix + name
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        obj.Body,
		ContentType: aws.String(obj.ContentType),
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return s.FileURL(key), nil
}

func (s *S3) Delete(ctx context.Context, ref string) error {
	key, ok := s.KeyFromURL(ref)
	if !ok {
		return fmt.Errorf("reference %q does not belong to bucket %s", ref, s.bucket)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

// FileURL returns the public URL of key.
func (s *S3) FileURL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return s.endpoint + "/" + s.bucket + "/" + key
}

// KeyFromURL reverses FileURL.
func (s *S3) KeyFromURL(raw string) (string, bool) {
	for _, base := range []string{s.publicURL, s.endpoint + "/" + s.bucket} {
		if base == "" {
			continue
		}
		if prefix := base + "/"; strings.HasPrefix(raw, prefix) {
			return strings.TrimPrefix(raw, prefix), true
		}
	}
	return "", false
}
