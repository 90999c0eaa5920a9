package stores

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Desarso/parsa/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// MinioConfig configures the object storage backend for generated images.
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	// PublicBaseURL, when set, is used to build plain object URLs instead of presigned ones.
	PublicBaseURL string
	URLExpiry     time.Duration
}

// MinioImageStore keeps generated images in a MinIO bucket.
type MinioImageStore struct {
	client *minio.Client
	cfg    MinioConfig
	logger zerolog.Logger
}

// NewMinioImageStore connects to MinIO and makes sure the bucket exists.
func NewMinioImageStore(ctx context.Context, cfg MinioConfig, logger zerolog.Logger) (*MinioImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = 24 * time.Hour
	}

	log := logger.With().Str("component", "minio_image_store").Str("bucket", cfg.BucketName).Logger()

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check MinIO bucket: %w", err)
	}
	if !exists {
		log.Info().Msg("bucket does not exist, creating")
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create MinIO bucket: %w", err)
		}
	}

	return &MinioImageStore{client: client, cfg: cfg, logger: log}, nil
}

func (s *MinioImageStore) SaveImage(ctx context.Context, img models.Image) (string, error) {
	objectName := imageFilename(img.MimeType, time.Now())
	_, err := s.client.PutObject(ctx, s.cfg.BucketName, objectName, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType: img.MimeType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	s.logger.Debug().Str("object", objectName).Int("bytes", len(img.Data)).Msg("image uploaded")

	if s.cfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.PublicBaseURL, "/"), s.cfg.BucketName, objectName), nil
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.cfg.BucketName, objectName, s.cfg.URLExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign image url: %w", err)
	}
	return presigned.String(), nil
}

func (s *MinioImageStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	for obj := range s.client.ListObjects(ctx, s.cfg.BucketName, minio.ListObjectsOptions{Prefix: imagePrefix, Recursive: true}) {
		if obj.Err != nil {
			return removed, fmt.Errorf("failed to list images: %w", obj.Err)
		}
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.cfg.BucketName, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			s.logger.Warn().Err(err).Str("object", obj.Key).Msg("failed to prune image")
			continue
		}
		removed++
	}
	return removed, nil
}
