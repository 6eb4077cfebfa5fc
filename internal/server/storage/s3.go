package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/spacebox-app/spacebox/internal/common"
	"github.com/spacebox-app/spacebox/internal/logging"
)

const presignExpiry = 15 * time.Minute

// S3Config carries the settings for an S3-compatible backend
// (AWS, minio, R2).
type S3Config struct {
	AccessKey    string
	SecretKey    string
	Region       string
	Bucket       string
	BaseEndpoint string
	// PublicBaseURL is prepended to object keys to build fetchable URLs,
	// e.g. "https://cdn.example.com".
	PublicBaseURL string
	// Timeout bounds every provider call.
	Timeout time.Duration
}

// S3Store implements BlobStore against an S3-compatible object store.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	cfg     S3Config
	logger  logging.Logger
}

func NewS3Store(ctx context.Context, cfg S3Config, logger logging.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 config error: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
		logger:  logger.With("module", "s3_store"),
	}, nil
}

func (s *S3Store) publicURL(key string) string {
	base := strings.TrimRight(s.cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.amazonaws.com", s.cfg.Bucket)
	}
	return base + "/" + key
}

func (s *S3Store) Put(ctx context.Context, ownerID, spaceID, uploadID, filename, contentType string, body io.Reader) (*PutResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading upload body: %v", common.ErrStorage, err)
	}

	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}

	key := ObjectKey(ownerID, spaceID, uploadID)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: put %s: %v", common.ErrStorage, key, err)
	}

	s.logger.Info(ctx, "object stored", "key", key, "size", len(data), "content_type", contentType, "filename", filename)

	return &PutResult{
		Key:  key,
		URL:  s.publicURL(key),
		Size: int64(len(data)),
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, key string, kind string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		// best effort: an object that is already gone costs nothing,
		// a dangling one is reported and left for manual cleanup
		s.logger.Warn(ctx, "object delete failed", "key", key, "kind", kind, "error", err.Error())
		return fmt.Errorf("%w: delete %s: %v", common.ErrStorage, key, err)
	}

	return nil
}

func (s *S3Store) PresignPut(ctx context.Context, ownerID, spaceID, uploadID string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	key := ObjectKey(ownerID, spaceID, uploadID)

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("%w: presign %s: %v", common.ErrStorage, key, err)
	}

	return key, req.URL, nil
}
