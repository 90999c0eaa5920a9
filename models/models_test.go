package models

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
var pngPixel, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func TestParseChatMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ChatMode
		wantErr bool
	}{
		{"", ChatModePro, false},
		{"fast", ChatModeFast, false},
		{" Thinking ", ChatModeThinking, false},
		{"pro", ChatModePro, false},
		{"turbo", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseChatMode(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestImageGenerationRequest_Input(t *testing.T) {
	in, err := Image_Generation_Request{Prompt: "a lighthouse", Aspect_Ratio: "16:9", Size: "2k"}.Input()
	require.NoError(t, err)
	assert.Equal(t, AspectWide, in.AspectRatio)
	assert.Equal(t, ImageSize2K, in.Size)
	assert.NoError(t, in.Validate())

	in, err = Image_Generation_Request{Prompt: "defaults"}.Input()
	require.NoError(t, err)
	assert.Equal(t, AspectSquare, in.AspectRatio)
	assert.Equal(t, ImageSize1K, in.Size)

	_, err = Image_Generation_Request{Prompt: "   "}.Input()
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = Image_Generation_Request{Prompt: "x", Aspect_Ratio: "2:1"}.Input()
	assert.ErrorIs(t, err, ErrInvalidAspectRatio)

	_, err = Image_Generation_Request{Prompt: "x", Size: "8K"}.Input()
	assert.ErrorIs(t, err, ErrInvalidImageSize)

	assert.ErrorIs(t, ImageGenInput{Prompt: "x", Size: ImageSize1K}.Validate(), ErrInvalidAspectRatio)
}

func TestInlineData_Decode(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(pngPixel)

	att, err := InlineData{Data: b64}.Decode()
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.MimeType)
	assert.Equal(t, pngPixel, att.Data)

	att, err = InlineData{Data: "data:image/png;base64," + b64}.Decode()
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.MimeType)
	assert.Equal(t, "data:image/png;base64,"+b64, att.DataURI())
}

func TestInlineData_DecodeRejects(t *testing.T) {
	_, err := InlineData{Data: ""}.Decode()
	assert.ErrorIs(t, err, ErrMissingAttachment)

	_, err = InlineData{Data: "not-valid-base64!!!"}.Decode()
	assert.ErrorContains(t, err, "invalid base64")

	text := base64.StdEncoding.EncodeToString([]byte("just some text"))
	_, err = InlineData{Data: text, MimeType: "text/plain"}.Decode()
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestStaticLocator(t *testing.T) {
	_, err := StaticLocator{}.CurrentPosition(t.Context())
	assert.ErrorIs(t, err, ErrLocationUnavailable)

	_, err = StaticLocator{Position: &LatLng{Latitude: 91}}.CurrentPosition(t.Context())
	assert.ErrorIs(t, err, ErrLocationUnavailable)

	lat, lng := 35.6892, 51.3890
	pos, err := Maps_Search_Request{Prompt: "cafes", Latitude: &lat, Longitude: &lng}.Locator().CurrentPosition(t.Context())
	require.NoError(t, err)
	assert.Equal(t, LatLng{Latitude: lat, Longitude: lng}, pos)

	_, err = Maps_Search_Request{Prompt: "cafes", Latitude: &lat}.Locator().CurrentPosition(t.Context())
	assert.ErrorIs(t, err, ErrLocationUnavailable)
}

func TestGroundingSource_Label(t *testing.T) {
	assert.Equal(t, "Example", GroundingSource{URI: "https://example.com", Title: "Example"}.Label())
	assert.Equal(t, "https://example.com", GroundingSource{URI: "https://example.com"}.Label())
}
