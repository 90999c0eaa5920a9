package models

import (
	"errors"
	"strings"
)

var ErrEmptyPrompt = errors.New("prompt must not be empty")

// Chat_Request is the JSON body of a chat submission.
type Chat_Request struct {
	Prompt string      `json:"prompt"`
	Mode   string      `json:"mode,omitempty"`
	Image  *InlineData `json:"image,omitempty"`
}

// Image_Generation_Request is the JSON body of an image generation.
type Image_Generation_Request struct {
	Prompt       string `json:"prompt"`
	Aspect_Ratio string `json:"aspect_ratio,omitempty"`
	Size         string `json:"size,omitempty"`
}

// Image_Edit_Request is the JSON body of an image edit. Multipart uploads carry the
// same fields as form values.
type Image_Edit_Request struct {
	Prompt string      `json:"prompt"`
	Image  *InlineData `json:"image"`
}

// Search_Request is the JSON body of a web-grounded search.
type Search_Request struct {
	Prompt string `json:"prompt"`
}

// Maps_Search_Request carries the caller's position alongside the prompt.
// Missing coordinates mean the caller could not obtain a location.
type Maps_Search_Request struct {
	Prompt    string   `json:"prompt"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// ChatInput is what the gateway needs to open a chat stream.
type ChatInput struct {
	Prompt     string
	Attachment *Attachment
	Mode       ChatMode
}

// ImageGenInput is a validated image generation request.
type ImageGenInput struct {
	Prompt      string
	AspectRatio AspectRatio
	Size        ImageSize
}

// ImageEditInput is a validated image edit request.
type ImageEditInput struct {
	Prompt string
	Source Attachment
}

// Input validates the wire request and applies defaults.
func (r Image_Generation_Request) Input() (ImageGenInput, error) {
	if strings.TrimSpace(r.Prompt) == "" {
		return ImageGenInput{}, ErrEmptyPrompt
	}
	ar, err := ParseAspectRatio(r.Aspect_Ratio)
	if err != nil {
		return ImageGenInput{}, err
	}
	size, err := ParseImageSize(r.Size)
	if err != nil {
		return ImageGenInput{}, err
	}
	return ImageGenInput{Prompt: r.Prompt, AspectRatio: ar, Size: size}, nil
}

// Validate checks the input the same way the wire request is checked.
func (in ImageGenInput) Validate() error {
	if strings.TrimSpace(in.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if _, err := ParseAspectRatio(string(in.AspectRatio)); err != nil || in.AspectRatio == "" {
		return ErrInvalidAspectRatio
	}
	if _, err := ParseImageSize(string(in.Size)); err != nil || in.Size == "" {
		return ErrInvalidImageSize
	}
	return nil
}

// Input decodes the source image and checks the prompt.
func (r Image_Edit_Request) Input() (ImageEditInput, error) {
	if strings.TrimSpace(r.Prompt) == "" {
		return ImageEditInput{}, ErrEmptyPrompt
	}
	if r.Image == nil {
		return ImageEditInput{}, ErrMissingAttachment
	}
	src, err := r.Image.Decode()
	if err != nil {
		return ImageEditInput{}, err
	}
	return ImageEditInput{Prompt: r.Prompt, Source: *src}, nil
}

func (in ImageEditInput) Validate() error {
	if strings.TrimSpace(in.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if len(in.Source.Data) == 0 {
		return ErrMissingAttachment
	}
	return nil
}
