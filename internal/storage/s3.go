package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Options configures the S3 client. Empty fields fall back to the default
// AWS credential and region chain.
type Options struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3Client downloads source PDFs from and uploads cut documents to S3.
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
}

// NewS3Client creates a new S3 client
func NewS3Client(ctx context.Context, opts Options) (*S3Client, error) {
	var load []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		load = append(load, awscfg.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		load = append(load, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, load...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &S3Client{
		client:   cli,
		uploader: manager.NewUploader(cli),
	}, nil
}

// ParseURL splits s3://bucket/key into bucket and key.
func ParseURL(s3url string) (bucket, key string, err error) {
	p := strings.TrimPrefix(s3url, "s3://")
	if p == s3url {
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	bucket, key, _ = strings.Cut(p, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	return bucket, key, nil
}

// Download copies the object at s3url into w.
func (s *S3Client) Download(ctx context.Context, s3url string, w io.Writer) (int64, error) {
	bucket, key, err := ParseURL(s3url)
	if err != nil {
		return 0, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer out.Body.Close()

	n, err := io.Copy(w, out.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read S3 object: %w", err)
	}
	log.Debug().Str("bucket", bucket).Str("key", key).Int64("size", n).Msg("downloaded s3 object")
	return n, nil
}

// Upload stores body at s3url with the given content type.
func (s *S3Client) Upload(ctx context.Context, s3url string, body io.Reader, contentType string) error {
	bucket, key, err := ParseURL(s3url)
	if err != nil {
		return err
	}
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("upload failed")
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	log.Info().Str("bucket", bucket).Str("key", key).Msg("uploaded to s3")
	return nil
}

// Ping checks that the endpoint accepts our credentials.
func (s *S3Client) Ping(ctx context.Context) error {
	_, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	return err
}
