package storage

import (
	"context"
	"io"
	"log/slog"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"slidereel/internal/config"
	"slidereel/internal/logging"
	"slidereel/internal/services"
)

// GCS uploads to a Google Cloud Storage bucket with a resumable writer.
type GCS struct {
	bucket string
	acl    string
	client *gcs.Client
	logger *slog.Logger
}

// NewGCS creates the client. A credentials file is optional; without one
// application default credentials apply.
func NewGCS(ctx context.Context, cfg config.Storage, logger *slog.Logger, extra ...option.ClientOption) (*GCS, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}
	opts = append(opts, extra...)

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "create gcs client", "", err)
	}
	return &GCS{bucket: cfg.Bucket, acl: cfg.ACL, client: client, logger: logger}, nil
}

func (g *GCS) Name() string { return config.StorageGCS }

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}

// Upload writes localPath to gs://bucket/key.
func (g *GCS) Upload(ctx context.Context, localPath, key string, onProgress ProgressFunc) (err error) {
	started := time.Now()
	defer func() { recordUpload(ctx, g.Name(), err) }()

	file, size, err := openSized(localPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "gcs upload", "", err)
	}
	defer file.Close()

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := g.client.Bucket(g.bucket).Object(key).NewWriter(writeCtx)
	writer.ContentType = "video/mp4"
	if acl := predefinedACL(g.acl); acl != "" {
		writer.PredefinedACL = acl
	}

	body := newProgressReader(file, size, onProgress)
	if _, err := io.Copy(writer, body); err != nil {
		cancel()
		_ = writer.Close()
		return services.Wrap(services.ErrExternalTool, "storage", "gcs upload", "copy to object writer", err)
	}
	if err := writer.Close(); err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "gcs upload",
			"failed to finalize object "+key+" in bucket "+g.bucket, err)
	}
	body.finish()
	recordBytes(ctx, g.Name(), size)

	g.logger.Info("uploaded video to gcs",
		logging.String("bucket", g.bucket),
		logging.String("key", key),
		logging.Int64("bytes", size),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// predefinedACL maps S3-style canned ACL names onto GCS predefined ACLs.
func predefinedACL(acl string) string {
	switch acl {
	case "":
		return ""
	case "public-read":
		return "publicRead"
	case "private":
		return "private"
	case "authenticated-read":
		return "authenticatedRead"
	case "bucket-owner-full-control":
		return "bucketOwnerFullControl"
	default:
		return acl
	}
}
