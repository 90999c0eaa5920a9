package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/Desarso/parsa/models"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// Gemini_Model implements models.Gateway on the Gemini API.
type Gemini_Model struct {
	Catalog Catalog

	models contentGenerator
	logger zerolog.Logger
}

var _ models.Gateway = (*Gemini_Model)(nil)

// New creates a gateway backed by a genai client for the Gemini API backend.
func New(ctx context.Context, apiKey string, catalog Catalog, logger zerolog.Logger) (*Gemini_Model, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newGemini(client.Models, catalog, logger), nil
}

func newGemini(gen contentGenerator, catalog Catalog, logger zerolog.Logger) *Gemini_Model {
	return &Gemini_Model{
		Catalog: catalog.Merge(DefaultCatalog()),
		models:  gen,
		logger:  logger.With().Str("component", "gemini").Logger(),
	}
}

// StreamChat forwards the genai stream into a fragment channel. Empty chunks are skipped.
func (g *Gemini_Model) StreamChat(ctx context.Context, in models.ChatInput) (<-chan string, <-chan error) {
	fragments := make(chan string)
	errChan := make(chan error, 1)

	route := g.Catalog.RouteChat(in.Mode, in.Attachment != nil)
	contents := chatContents(in)
	config := chatConfig(route)

	g.logger.Debug().
		Str("model", route.Model).
		Str("mode", string(in.Mode)).
		Bool("image_analysis", route.ImageAnalysis).
		Msg("opening chat stream")

	go func() {
		defer close(fragments)
		defer close(errChan)

		for resp, err := range g.models.GenerateContentStream(ctx, route.Model, contents, config) {
			if err != nil {
				errChan <- fmt.Errorf("gemini stream (%s): %w", route.Model, err)
				return
			}
			text := responseText(resp)
			if text == "" {
				continue
			}
			select {
			case fragments <- text:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return fragments, errChan
}

func (g *Gemini_Model) GenerateImage(ctx context.Context, in models.ImageGenInput) (models.Image, error) {
	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: string(in.AspectRatio),
			ImageSize:   string(in.Size),
		},
	}
	resp, err := g.models.GenerateContent(ctx, g.Catalog.ImageGen, genai.Text(in.Prompt), config)
	if err != nil {
		return models.Image{}, fmt.Errorf("failed to generate image: %w", err)
	}
	return firstImage(resp)
}

func (g *Gemini_Model) EditImage(ctx context.Context, in models.ImageEditInput) (models.Image, error) {
	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(in.Source.Data, in.Source.MimeType),
		genai.NewPartFromText(in.Prompt),
	}, genai.RoleUser)}

	resp, err := g.models.GenerateContent(ctx, g.Catalog.ImageEdit, contents, nil)
	if err != nil {
		return models.Image{}, fmt.Errorf("failed to edit image: %w", err)
	}
	return firstImage(resp)
}

func (g *Gemini_Model) SearchWeb(ctx context.Context, prompt string) (models.GroundedResponse, error) {
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	resp, err := g.models.GenerateContent(ctx, g.Catalog.Search, genai.Text(prompt), config)
	if err != nil {
		return models.GroundedResponse{}, fmt.Errorf("web grounded generation failed: %w", err)
	}
	return models.GroundedResponse{Text: responseText(resp), Sources: webSources(resp)}, nil
}

func (g *Gemini_Model) SearchMaps(ctx context.Context, prompt string, at models.LatLng) (models.GroundedResponse, error) {
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}},
		ToolConfig: &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{
					Latitude:  genai.Ptr(at.Latitude),
					Longitude: genai.Ptr(at.Longitude),
				},
			},
		},
	}
	resp, err := g.models.GenerateContent(ctx, g.Catalog.Maps, genai.Text(prompt), config)
	if err != nil {
		return models.GroundedResponse{}, fmt.Errorf("maps grounded generation failed: %w", err)
	}
	return models.GroundedResponse{Text: responseText(resp), Sources: mapsSources(resp)}, nil
}

// chatContents puts the image first, then the prompt. An empty prompt is dropped when an
// image is attached since the API rejects empty text parts.
func chatContents(in models.ChatInput) []*genai.Content {
	parts := make([]*genai.Part, 0, 2)
	if in.Attachment != nil {
		parts = append(parts, genai.NewPartFromBytes(in.Attachment.Data, in.Attachment.MimeType))
	}
	if in.Prompt != "" || in.Attachment == nil {
		parts = append(parts, genai.NewPartFromText(in.Prompt))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func chatConfig(route ChatRoute) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if route.ThinkingBudget != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: route.ThinkingBudget}
	}
	return config
}

func firstCandidate(resp *genai.GenerateContentResponse) *genai.Candidate {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	return resp.Candidates[0]
}

// responseText concatenates the text parts of the first candidate, skipping thoughts.
func responseText(resp *genai.GenerateContentResponse) string {
	cand := firstCandidate(resp)
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func firstImage(resp *genai.GenerateContentResponse) (models.Image, error) {
	cand := firstCandidate(resp)
	if cand == nil || cand.Content == nil {
		return models.Image{}, models.ErrNoImage
	}
	for _, part := range cand.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		return models.Image{MimeType: mimeType, Data: part.InlineData.Data}, nil
	}
	return models.Image{}, models.ErrNoImage
}

func groundingChunks(resp *genai.GenerateContentResponse) []*genai.GroundingChunk {
	cand := firstCandidate(resp)
	if cand == nil || cand.GroundingMetadata == nil {
		return nil
	}
	return cand.GroundingMetadata.GroundingChunks
}

// webSources keeps chunks that expose a web uri.
func webSources(resp *genai.GenerateContentResponse) []models.GroundingSource {
	sources := []models.GroundingSource{}
	for _, chunk := range groundingChunks(resp) {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		sources = append(sources, models.GroundingSource{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return sources
}

// mapsSources reads the place uri and title, falling back to the first review snippet.
func mapsSources(resp *genai.GenerateContentResponse) []models.GroundingSource {
	sources := []models.GroundingSource{}
	for _, chunk := range groundingChunks(resp) {
		if chunk == nil || chunk.Maps == nil {
			continue
		}
		uri, title := chunk.Maps.URI, chunk.Maps.Title
		if pas := chunk.Maps.PlaceAnswerSources; pas != nil && len(pas.ReviewSnippets) > 0 && pas.ReviewSnippets[0] != nil {
			snippet := pas.ReviewSnippets[0]
			if uri == "" {
				uri = snippet.GoogleMapsURI
			}
			if title == "" {
				title = snippet.Title
			}
		}
		if uri == "" {
			continue
		}
		sources = append(sources, models.GroundingSource{URI: uri, Title: title})
	}
	return sources
}
