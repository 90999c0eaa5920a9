package models

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrMissingAttachment = errors.New("an image attachment is required")
	ErrNotAnImage        = errors.New("attachment is not an image")
)

// InlineData is an image carried inside a JSON request as base64, optionally as a data URI.
type InlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data"`
}

// Attachment is a decoded image supplied by the user.
type Attachment struct {
	MimeType string
	Data     []byte
}

// Decode strips an optional data: URI prefix, decodes the payload and checks it is an image.
func (d InlineData) Decode() (*Attachment, error) {
	payload := strings.TrimSpace(d.Data)
	declared := d.MimeType

	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed data URI")
		}
		typePart := strings.TrimPrefix(parts[0], "data:")
		typePart = strings.TrimSuffix(typePart, ";base64")
		if declared == "" {
			declared = typePart
		}
		payload = parts[1]
	}
	if payload == "" {
		return nil, ErrMissingAttachment
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Try URL-safe base64
		raw2, err2 := base64.URLEncoding.DecodeString(payload)
		if err2 != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
		raw = raw2
	}
	return NewAttachment(raw, declared)
}

// NewAttachment sniffs the content type of data. The sniffed type wins over the declared
// one unless sniffing is inconclusive.
func NewAttachment(data []byte, declared string) (*Attachment, error) {
	if len(data) == 0 {
		return nil, ErrMissingAttachment
	}
	mimeType := mimetype.Detect(data).String()
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	if !strings.HasPrefix(mimeType, "image/") {
		if strings.HasPrefix(declared, "image/") {
			mimeType = declared
		} else {
			return nil, fmt.Errorf("%w: detected %s", ErrNotAnImage, mimeType)
		}
	}
	return &Attachment{MimeType: mimeType, Data: data}, nil
}

// DataURI renders the attachment the way the chat transcript references user images.
func (a *Attachment) DataURI() string {
	if a == nil {
		return ""
	}
	return "data:" + a.MimeType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}
