package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Config struct {
	// ProjectURL is the Supabase project URL. The S3 endpoint and public
	// object URLs are derived from it.
	ProjectURL      string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type S3Store struct {
	client  *s3.Client
	baseURL string
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	base := strings.TrimRight(cfg.ProjectURL, "/")
	if base == "" {
		return nil, fmt.Errorf("storage: project url is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(base + "/storage/v1/s3")
		o.UsePathStyle = true
	})
	return &S3Store{client: client, baseURL: base}, nil
}

func (s *S3Store) Name() string { return BackendS3 }

func (s *S3Store) Put(ctx context.Context, bucket, key, contentType string, data []byte) (Object, error) {
	if err := checkKey(key); err != nil {
		return Object{}, err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=3600"),
	})
	if err != nil {
		return Object{}, fmt.Errorf("s3 put %s/%s: %w", bucket, key, err)
	}
	return Object{
		Bucket:    bucket,
		Key:       key,
		PublicURL: s.PublicURL(bucket, key),
		Backend:   BackendS3,
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, bucket, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *S3Store) PublicURL(bucket, key string) string {
	return s.baseURL + "/storage/v1/object/public/" + bucket + "/" + key
}
