// Package archive stores uploaded audio in S3 before it is transcribed.
package archive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/config"
	"go.uber.org/zap"
)

// Archiver keeps a copy of an uploaded audio file and returns its object key.
type Archiver interface {
	Store(ctx context.Context, tenantUID, filename, contentType string, body io.Reader) (string, error)
}

// putObjectAPI is the part of *s3.Client the archive needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive 将音频文件保存到 S3（或 MinIO）
type S3Archive struct {
	client putObjectAPI
	bucket string
	now    func() time.Time
	logger *zap.Logger
}

// NewS3Archive loads AWS credentials from the default chain.
func NewS3Archive(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "ap-northeast-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Archive(client, cfg.Bucket, logger), nil
}

func newS3Archive(client putObjectAPI, bucket string, logger *zap.Logger) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, now: time.Now, logger: logger}
}

var _ Archiver = (*S3Archive)(nil)

// ObjectKey builds audio/<tenant>/<yyyy>/<mm>/<uuid>.<ext>.
func ObjectKey(tenantUID, filename string, at time.Time) string {
	tenant := tenantUID
	if tenant == "" {
		tenant = "global"
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("audio/%s/%04d/%02d/%s.%s", tenant, at.Year(), int(at.Month()), uuid.NewString(), ext)
}

func (a *S3Archive) Store(ctx context.Context, tenantUID, filename, contentType string, body io.Reader) (string, error) {
	key := ObjectKey(tenantUID, filename, a.now().UTC())
	in := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := a.client.PutObject(ctx, in); err != nil {
		a.logger.Error("Failed to archive audio",
			zap.String("bucket", a.bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to archive audio: %w", err)
	}
	a.logger.Info("Audio archived", zap.String("bucket", a.bucket), zap.String("key", key))
	return key, nil
}
