package gemini

import (
	"context"
	"iter"

	"github.com/Desarso/parsa/models"
	"google.golang.org/genai"
)

// ThinkingBudget is the reasoning budget requested by the thinking chat mode.
const ThinkingBudget int32 = 32768

// Catalog names the hosted model used for every operation. Empty fields fall back to
// DefaultCatalog.
type Catalog struct {
	ChatFast      string `json:"chat_fast" env:"CHAT_FAST"`
	ChatPro       string `json:"chat_pro" env:"CHAT_PRO"`
	ChatThinking  string `json:"chat_thinking" env:"CHAT_THINKING"`
	ImageAnalysis string `json:"image_analysis" env:"IMAGE_ANALYSIS"`
	ImageGen      string `json:"image_gen" env:"IMAGE_GEN"`
	ImageEdit     string `json:"image_edit" env:"IMAGE_EDIT"`
	Search        string `json:"search" env:"SEARCH"`
	Maps          string `json:"maps" env:"MAPS"`
}

// DefaultCatalog returns the production model identifiers.
func DefaultCatalog() Catalog {
	return Catalog{
		ChatFast:      "gemini-flash-lite-latest",
		ChatPro:       "gemini-3-pro-preview",
		ChatThinking:  "gemini-3-pro-preview",
		ImageAnalysis: "gemini-3-pro-preview",
		ImageGen:      "gemini-3-pro-image-preview",
		ImageEdit:     "gemini-2.5-flash-image",
		Search:        "gemini-3-flash-preview",
		Maps:          "gemini-2.5-flash",
	}
}

// Merge fills every empty field of c from defaults.
func (c Catalog) Merge(defaults Catalog) Catalog {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Catalog{
		ChatFast:      pick(c.ChatFast, defaults.ChatFast),
		ChatPro:       pick(c.ChatPro, defaults.ChatPro),
		ChatThinking:  pick(c.ChatThinking, defaults.ChatThinking),
		ImageAnalysis: pick(c.ImageAnalysis, defaults.ImageAnalysis),
		ImageGen:      pick(c.ImageGen, defaults.ImageGen),
		ImageEdit:     pick(c.ImageEdit, defaults.ImageEdit),
		Search:        pick(c.Search, defaults.Search),
		Maps:          pick(c.Maps, defaults.Maps),
	}
}

// ChatRoute is the resolved model and reasoning budget of a chat request.
type ChatRoute struct {
	Model          string
	ThinkingBudget *int32
	ImageAnalysis  bool
}

// RouteChat picks the model for a chat request. The budget is keyed on the mode alone,
// while an attachment always routes to the image-analysis model.
func (c Catalog) RouteChat(mode models.ChatMode, hasAttachment bool) ChatRoute {
	route := ChatRoute{}
	switch mode {
	case models.ChatModeFast:
		route.Model = c.ChatFast
	case models.ChatModeThinking:
		route.Model = c.ChatThinking
		route.ThinkingBudget = genai.Ptr(ThinkingBudget)
	default:
		route.Model = c.ChatPro
	}
	if hasAttachment {
		route.Model = c.ImageAnalysis
		route.ImageAnalysis = true
	}
	return route
}

// contentGenerator is the subset of *genai.Models used by the gateway.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}
