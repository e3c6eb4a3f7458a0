package storage

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"slidereel/internal/config"
	"slidereel/internal/logging"
	"slidereel/internal/services"
)

// S3 uploads through the multipart manager, so large videos are split into
// parts transparently. Custom endpoints cover MinIO and other S3-compatible
// stores.
type S3 struct {
	bucket   string
	acl      string
	uploader *manager.Uploader
	logger   *slog.Logger
}

// NewS3 resolves AWS credentials and builds the client. Static keys from the
// config take precedence over the default credential chain.
func NewS3(ctx context.Context, cfg config.Storage, logger *slog.Logger) (*S3, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "load aws config", "", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3{
		bucket:   cfg.Bucket,
		acl:      strings.TrimSpace(cfg.ACL),
		uploader: manager.NewUploader(client),
		logger:   logger,
	}, nil
}

func (s *S3) Name() string { return config.StorageS3 }

func (s *S3) Close() error { return nil }

// Upload streams localPath to s3://bucket/key.
func (s *S3) Upload(ctx context.Context, localPath, key string, onProgress ProgressFunc) (err error) {
	started := time.Now()
	defer func() { recordUpload(ctx, s.Name(), err) }()

	file, size, err := openSized(localPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "s3 upload", "", err)
	}
	defer file.Close()

	body := newProgressReader(file, size, onProgress)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String("video/mp4"),
	}
	if s.acl != "" {
		input.ACL = types.ObjectCannedACL(s.acl)
	}

	result, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "s3 upload",
			"failed to upload object "+key+" to bucket "+s.bucket, err)
	}
	body.finish()
	recordBytes(ctx, s.Name(), size)

	s.logger.Info("uploaded video to s3",
		logging.String("bucket", s.bucket),
		logging.String("key", key),
		logging.String("location", result.Location),
		logging.Int64("bytes", size),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}
