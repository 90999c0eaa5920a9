package gemini

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/Desarso/parsa/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeGenerator struct {
	calls []generateCall

	response *genai.GenerateContentResponse
	err      error

	chunks    []*genai.GenerateContentResponse
	streamErr error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, generateCall{model, contents, config})
	return f.response, f.err
}

func (f *fakeGenerator) GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.calls = append(f.calls, generateCall{model, contents, config})
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range f.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if f.streamErr != nil {
			yield(nil, f.streamErr)
		}
	}
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: parts}}},
	}
}

func drain(frags <-chan string, errs <-chan error) ([]string, error) {
	var got []string
	for f := range frags {
		got = append(got, f)
	}
	return got, <-errs
}

func TestRouteChat(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name       string
		mode       models.ChatMode
		attachment bool
		wantModel  string
		wantBudget bool
		wantImage  bool
	}{
		{"fast text", models.ChatModeFast, false, "gemini-flash-lite-latest", false, false},
		{"pro text", models.ChatModePro, false, "gemini-3-pro-preview", false, false},
		{"thinking text", models.ChatModeThinking, false, "gemini-3-pro-preview", true, false},
		{"fast with image", models.ChatModeFast, true, c.ImageAnalysis, false, true},
		{"thinking with image", models.ChatModeThinking, true, c.ImageAnalysis, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			route := c.RouteChat(tc.mode, tc.attachment)
			assert.Equal(t, tc.wantModel, route.Model)
			assert.Equal(t, tc.wantImage, route.ImageAnalysis)
			if tc.wantBudget {
				require.NotNil(t, route.ThinkingBudget)
				assert.Equal(t, int32(32768), *route.ThinkingBudget)
			} else {
				assert.Nil(t, route.ThinkingBudget)
			}
		})
	}
}

func TestCatalogMerge(t *testing.T) {
	c := Catalog{ChatFast: "custom-lite"}.Merge(DefaultCatalog())
	assert.Equal(t, "custom-lite", c.ChatFast)
	assert.Equal(t, DefaultCatalog().Maps, c.Maps)
}

func TestStreamChat_FastPromptUsesLightweightModel(t *testing.T) {
	gen := &fakeGenerator{chunks: []*genai.GenerateContentResponse{
		textResponse(genai.NewPartFromText("Hel")),
		textResponse(genai.NewPartFromText("")),
		textResponse(&genai.Part{Text: "pondering", Thought: true}, genai.NewPartFromText("lo")),
	}}
	g := newGemini(gen, Catalog{}, zerolog.Nop())

	got, err := drain(g.StreamChat(context.Background(), models.ChatInput{Prompt: "hello", Mode: models.ChatModeFast}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, got)

	require.Len(t, gen.calls, 1)
	call := gen.calls[0]
	assert.Equal(t, "gemini-flash-lite-latest", call.model)
	assert.Nil(t, call.config.ThinkingConfig)
	require.Len(t, call.contents, 1)
	require.Len(t, call.contents[0].Parts, 1)
	assert.Equal(t, "hello", call.contents[0].Parts[0].Text)
}

func TestStreamChat_AttachmentOverridesMode(t *testing.T) {
	gen := &fakeGenerator{}
	g := newGemini(gen, Catalog{}, zerolog.Nop())

	att := &models.Attachment{MimeType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	_, err := drain(g.StreamChat(context.Background(), models.ChatInput{Prompt: "what is this", Attachment: att, Mode: models.ChatModeThinking}))
	require.NoError(t, err)

	call := gen.calls[0]
	assert.Equal(t, DefaultCatalog().ImageAnalysis, call.model)
	require.NotNil(t, call.config.ThinkingConfig)
	parts := call.contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/png", parts[0].InlineData.MIMEType)
	assert.Equal(t, "what is this", parts[1].Text)
}

func TestStreamChat_ImageOnlyDropsEmptyText(t *testing.T) {
	gen := &fakeGenerator{}
	g := newGemini(gen, Catalog{}, zerolog.Nop())

	att := &models.Attachment{MimeType: "image/jpeg", Data: []byte{0xFF, 0xD8}}
	_, err := drain(g.StreamChat(context.Background(), models.ChatInput{Attachment: att, Mode: models.ChatModePro}))
	require.NoError(t, err)
	assert.Len(t, gen.calls[0].contents[0].Parts, 1)
}

func TestStreamChat_ErrorAfterFragments(t *testing.T) {
	gen := &fakeGenerator{
		chunks:    []*genai.GenerateContentResponse{textResponse(genai.NewPartFromText("partial"))},
		streamErr: errors.New("connection reset"),
	}
	g := newGemini(gen, Catalog{}, zerolog.Nop())

	got, err := drain(g.StreamChat(context.Background(), models.ChatInput{Prompt: "hi", Mode: models.ChatModePro}))
	assert.Equal(t, []string{"partial"}, got)
	assert.ErrorContains(t, err, "connection reset")
}

func TestGenerateImage(t *testing.T) {
	gen := &fakeGenerator{response: textResponse(
		genai.NewPartFromText("here you go"),
		&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("png-bytes")}},
	)}
	g := newGemini(gen, Catalog{}, zerolog.Nop())

	img, err := g.GenerateImage(context.Background(), models.ImageGenInput{Prompt: "a fox", AspectRatio: models.AspectWide, Size: models.ImageSize2K})
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, []byte("png-bytes"), img.Data)

	call := gen.calls[0]
	assert.Equal(t, "gemini-3-pro-image-preview", call.model)
	require.NotNil(t, call.config.ImageConfig)
	assert.Equal(t, "16:9", call.config.ImageConfig.AspectRatio)
	assert.Equal(t, "2K", call.config.ImageConfig.ImageSize)
}

func TestGenerateImage_NoImagePart(t *testing.T) {
	gen := &fakeGenerator{response: textResponse(genai.NewPartFromText("I cannot draw that"))}
	g := newGemini(gen, Catalog{}, zerolog.Nop())

	_, err := g.GenerateImage(context.Background(), models.ImageGenInput{Prompt: "x", AspectRatio: models.AspectSquare, Size: models.ImageSize1K})
	assert.ErrorIs(t, err, models.ErrNoImage)

	gen.response = &genai.GenerateContentResponse{}
	_, err = g.EditImage(context.Background(), models.ImageEditInput{Prompt: "x", Source: models.Attachment{MimeType: "image/png", Data: []byte{1}}})
	assert.ErrorIs(t, err, models.ErrNoImage)
}

func TestEditImage_SendsSourceFirst(t *testing.T) {
	gen := &fakeGenerator{response: textResponse(&genai.Part{InlineData: &genai.Blob{Data: []byte("edited")}})}
	g := newGemini(gen, Catalog{}, zerolog.Nop())

	img, err := g.EditImage(context.Background(), models.ImageEditInput{Prompt: "make it blue", Source: models.Attachment{MimeType: "image/jpeg", Data: []byte("src")}})
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)

	call := gen.calls[0]
	assert.Equal(t, "gemini-2.5-flash-image", call.model)
	parts := call.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, []byte("src"), parts[0].InlineData.Data)
	assert.Equal(t, "make it blue", parts[1].Text)
}

func TestSearchWeb_Sources(t *testing.T) {
	resp := textResponse(genai.NewPartFromText("Answer"))
	resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{GroundingChunks: []*genai.GroundingChunk{
		{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A"}},
		{Web: &genai.GroundingChunkWeb{Title: "no uri"}},
		{Web: &genai.GroundingChunkWeb{URI: "https://b.example"}},
	}}
	gen := &fakeGenerator{response: resp}
	g := newGemini(gen, Catalog{}, zerolog.Nop())

	out, err := g.SearchWeb(context.Background(), "news")
	require.NoError(t, err)
	assert.Equal(t, "Answer", out.Text)
	assert.Equal(t, []models.GroundingSource{
		{URI: "https://a.example", Title: "A"},
		{URI: "https://b.example"},
	}, out.Sources)

	call := gen.calls[0]
	assert.Equal(t, "gemini-3-flash-preview", call.model)
	require.Len(t, call.config.Tools, 1)
	assert.NotNil(t, call.config.Tools[0].GoogleSearch)
}

func TestSearchWeb_NoChunksIsEmptyList(t *testing.T) {
	gen := &fakeGenerator{response: textResponse(genai.NewPartFromText("Nothing cited"))}
	g := newGemini(gen, Catalog{}, zerolog.Nop())

	out, err := g.SearchWeb(context.Background(), "quiet day")
	require.NoError(t, err)
	assert.NotNil(t, out.Sources)
	assert.Empty(t, out.Sources)
}

func TestSearchMaps(t *testing.T) {
	resp := textResponse(genai.NewPartFromText("Try these"))
	resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{GroundingChunks: []*genai.GroundingChunk{
		{Maps: &genai.GroundingChunkMaps{URI: "https://maps.example/1", Title: "Cafe One"}},
		{Maps: &genai.GroundingChunkMaps{PlaceAnswerSources: &genai.GroundingChunkMapsPlaceAnswerSources{
			ReviewSnippets: []*genai.GroundingChunkMapsPlaceAnswerSourcesReviewSnippet{
				{GoogleMapsURI: "https://maps.example/2", Title: "Cafe Two"},
			},
		}}},
		{Maps: &genai.GroundingChunkMaps{Title: "dangling"}},
	}}
	gen := &fakeGenerator{response: resp}
	g := newGemini(gen, Catalog{}, zerolog.Nop())

	out, err := g.SearchMaps(context.Background(), "coffee", models.LatLng{Latitude: 35.7, Longitude: 51.4})
	require.NoError(t, err)
	assert.Equal(t, []models.GroundingSource{
		{URI: "https://maps.example/1", Title: "Cafe One"},
		{URI: "https://maps.example/2", Title: "Cafe Two"},
	}, out.Sources)

	call := gen.calls[0]
	assert.Equal(t, "gemini-2.5-flash", call.model)
	assert.NotNil(t, call.config.Tools[0].GoogleMaps)
	latLng := call.config.ToolConfig.RetrievalConfig.LatLng
	assert.Equal(t, 35.7, *latLng.Latitude)
	assert.Equal(t, 51.4, *latLng.Longitude)
}

func TestGatewayErrorsAreWrapped(t *testing.T) {
	boom := errors.New("quota exceeded")
	g := newGemini(&fakeGenerator{err: boom}, Catalog{}, zerolog.Nop())

	_, err := g.SearchWeb(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	_, err = g.SearchMaps(context.Background(), "x", models.LatLng{})
	assert.ErrorIs(t, err, boom)
	_, err = g.GenerateImage(context.Background(), models.ImageGenInput{Prompt: "x"})
	assert.ErrorIs(t, err, boom)
}
