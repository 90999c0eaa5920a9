package sessions

import (
	"context"
	"strings"
	"time"

	"github.com/Desarso/parsa/models"
	"github.com/Desarso/parsa/stores"
	"github.com/rs/zerolog"
)

// StudioSession runs the one-shot operations: image generation, image editing and
// web-grounded search. Each call is independent; failures come back as fixed strings.
type StudioSession struct {
	Gateway models.Gateway
	Images  stores.ImageStore // optional
	Logger  zerolog.Logger
}

func (s *StudioSession) GenerateImage(ctx context.Context, in models.ImageGenInput) ImageResult {
	if err := in.Validate(); err != nil {
		studioOutcome("generate_image", "invalid")
		return ImageResult{Error: err.Error()}
	}
	start := time.Now()
	img, err := s.Gateway.GenerateImage(ctx, in)
	StudioDuration.WithLabelValues("generate_image").Observe(time.Since(start).Seconds())
	if err != nil {
		s.Logger.Error().Err(err).
			Str("aspect_ratio", string(in.AspectRatio)).
			Str("size", string(in.Size)).
			Msg("image generation failed")
		studioOutcome("generate_image", "failed")
		return ImageResult{Error: ImageGenerationError}
	}
	studioOutcome("generate_image", "ok")
	return ImageResult{Image: s.store(ctx, img)}
}

func (s *StudioSession) EditImage(ctx context.Context, in models.ImageEditInput) ImageResult {
	if err := in.Validate(); err != nil {
		studioOutcome("edit_image", "invalid")
		return ImageResult{Error: err.Error()}
	}
	start := time.Now()
	img, err := s.Gateway.EditImage(ctx, in)
	StudioDuration.WithLabelValues("edit_image").Observe(time.Since(start).Seconds())
	if err != nil {
		s.Logger.Error().Err(err).Str("source_mime", in.Source.MimeType).Msg("image edit failed")
		studioOutcome("edit_image", "failed")
		return ImageResult{Error: ImageEditError}
	}
	studioOutcome("edit_image", "ok")
	return ImageResult{Image: s.store(ctx, img)}
}

// Search runs a web-grounded generation.
func (s *StudioSession) Search(ctx context.Context, prompt string) GroundedResult {
	if strings.TrimSpace(prompt) == "" {
		studioOutcome("search_web", "invalid")
		return GroundedResult{Sources: []models.GroundingSource{}, Error: models.ErrEmptyPrompt.Error()}
	}
	start := time.Now()
	resp, err := s.Gateway.SearchWeb(ctx, prompt)
	StudioDuration.WithLabelValues("search_web").Observe(time.Since(start).Seconds())
	if err != nil {
		s.Logger.Error().Err(err).Msg("web search failed")
		studioOutcome("search_web", "failed")
		return GroundedResult{Sources: []models.GroundingSource{}, Error: SearchError}
	}
	studioOutcome("search_web", "ok")
	return groundedResult(resp)
}

// store saves the image and sets its URL. When no store is configured, or saving fails,
// the URL is the image's data URI.
func (s *StudioSession) store(ctx context.Context, img models.Image) *models.Image {
	if s.Images != nil {
		url, err := s.Images.SaveImage(ctx, img)
		if err == nil {
			img.URL = url
			return &img
		}
		s.Logger.Warn().Err(err).Msg("failed to store image, returning inline data")
	}
	img.URL = img.DataURI()
	return &img
}

func groundedResult(resp models.GroundedResponse) GroundedResult {
	sources := resp.Sources
	if sources == nil {
		sources = []models.GroundingSource{}
	}
	return GroundedResult{Text: resp.Text, Sources: sources}
}

func studioOutcome(operation, status string) {
	StudioRequestsTotal.WithLabelValues(operation, status).Inc()
}
