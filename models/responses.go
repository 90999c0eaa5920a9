package models

import "encoding/base64"

// GroundingSource is a citation attached to a grounded response.
type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Label is what a source list shows: the title, or the uri when untitled.
func (s GroundingSource) Label() string {
	if s.Title != "" {
		return s.Title
	}
	return s.URI
}

// GroundedResponse is the text of a grounded generation plus its citations.
type GroundedResponse struct {
	Text    string
	Sources []GroundingSource
}

// Image is a single generated or edited image. URL is set once the image is stored.
type Image struct {
	MimeType string
	Data     []byte
	URL      string
}

func (i Image) DataURI() string {
	return "data:" + i.MimeType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Image_Response is returned by the image endpoints. Exactly one of Image_URL or Error is set.
type Image_Response struct {
	Image_URL string `json:"image_url,omitempty"`
	Mime_Type string `json:"mime_type,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Grounded_Response is returned by the search endpoints.
type Grounded_Response struct {
	Text    string            `json:"text,omitempty"`
	Sources []GroundingSource `json:"sources"`
	Error   string            `json:"error,omitempty"`
}
