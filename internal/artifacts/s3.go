package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/manuelmanso/etfoptimizer/internal/modules/presenter"
)

// S3Config configures an S3Sink.
type S3Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // custom endpoint for R2, MinIO and friends; path-style addressing is used

	AccessKeyID     string // static credentials; empty selects the default chain
	SecretAccessKey string
}

// S3Sink uploads artifacts to a bucket.
type S3Sink struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Sink loads the AWS configuration and builds an uploader for cfg.Bucket.
func NewS3Sink(ctx context.Context, cfg S3Config, log zerolog.Logger) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Sink{
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		log: log.With().
			Str("component", "s3_sink").
			Str("bucket", cfg.Bucket).
			Logger(),
	}, nil
}

// Put uploads the artifact under the configured prefix and returns its s3:// URI.
func (s *S3Sink) Put(ctx context.Context, artifact presenter.Artifact) (string, error) {
	key := path.Join(s.prefix, artifact.Filename)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(artifact.Data),
		ContentType: aws.String(artifact.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", artifact.Filename, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.log.Info().Str("key", key).Int("bytes", len(artifact.Data)).Msg("Artifact uploaded")
	return location, nil
}
