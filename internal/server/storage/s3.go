package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the settings for an S3-compatible endpoint (MinIO in dev).
type S3Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
}

type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Seams for tests.
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

// S3Backend stores objects with PutObject.
type S3Backend struct {
	client s3PutAPI
	bucket string
}

// NewS3Backend builds an S3 client with static credentials and a custom
// base endpoint using path-style addressing.
func NewS3Backend(ctx context.Context, c S3Config) (*S3Backend, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Backend{client: client, bucket: c.Bucket}, nil
}

func (b *S3Backend) Name() string { return "s3" }

// seekable returns r unchanged when it can seek and a buffered copy
// otherwise. The SDK rejects unseekable bodies on plain-HTTP endpoints.
func seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffer body: %w", err)
	}
	return bytes.NewReader(b), nil
}

func (b *S3Backend) Put(ctx context.Context, req *PutRequest) (*PutResult, error) {
	key, err := CleanKey(req.Key)
	if err != nil {
		return nil, err
	}

	body, err := seekable(req.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 put %s: %w", key, err)
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if req.ContentType != "" {
		in.ContentType = aws.String(req.ContentType)
	}
	if req.Size > 0 {
		in.ContentLength = aws.Int64(req.Size)
	}

	out, err := b.client.PutObject(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("s3 put %s: %w", key, err)
	}

	return &PutResult{Key: key, Size: req.Size, ETag: aws.ToString(out.ETag)}, nil
}
