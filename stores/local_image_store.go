package stores

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Desarso/parsa/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const imagePrefix = "generated_image_"

// LocalImageStore writes images into a directory the HTTP server exposes under /images/.
type LocalImageStore struct {
	dir        string
	serverHost string
	logger     zerolog.Logger
}

// NewLocalImageStore creates dir if needed. serverHost is the public base URL, for
// example http://localhost:8080.
func NewLocalImageStore(dir, serverHost string, logger zerolog.Logger) (*LocalImageStore, error) {
	if dir == "" {
		dir = "images"
	}
	if serverHost == "" {
		serverHost = "http://localhost:8080"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return &LocalImageStore{
		dir:        dir,
		serverHost: strings.TrimRight(serverHost, "/"),
		logger:     logger.With().Str("component", "local_image_store").Logger(),
	}, nil
}

// Dir is the directory images are written to.
func (s *LocalImageStore) Dir() string { return s.dir }

func (s *LocalImageStore) SaveImage(ctx context.Context, img models.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	filename := imageFilename(img.MimeType, time.Now())
	filePath := filepath.Join(s.dir, filename)
	if err := os.WriteFile(filePath, img.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	s.logger.Debug().Str("file", filePath).Int("bytes", len(img.Data)).Msg("image saved")
	return fmt.Sprintf("%s/images/%s", s.serverHost, filename), nil
}

func (s *LocalImageStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read images directory: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), imagePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("failed to prune image")
			continue
		}
		removed++
	}
	return removed, nil
}

// imageFilename keeps the timestamped name and adds a short random suffix so two images
// generated within the same second do not collide.
func imageFilename(mimeType string, at time.Time) string {
	return fmt.Sprintf("%s%s_%s.%s", imagePrefix, at.Format("20060102_150405"), uuid.NewString()[:8], imageExtension(mimeType))
}

// imageExtension determines the file extension from the MIME type.
func imageExtension(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "jpeg"), strings.Contains(mimeType, "jpg"):
		return "jpg"
	case strings.Contains(mimeType, "webp"):
		return "webp"
	case strings.Contains(mimeType, "gif"):
		return "gif"
	default:
		return "png"
	}
}
