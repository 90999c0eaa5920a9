package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidMode        = errors.New("invalid chat mode")
	ErrInvalidAspectRatio = errors.New("invalid aspect ratio")
	ErrInvalidImageSize   = errors.New("invalid image size")
)

// ChatMode is the quality/latency tier of a chat request.
type ChatMode string

const (
	ChatModeFast     ChatMode = "fast"
	ChatModePro      ChatMode = "pro"
	ChatModeThinking ChatMode = "thinking"
)

// DefaultChatMode is the mode used when a request does not name one.
const DefaultChatMode = ChatModePro

var ChatModes = []ChatMode{ChatModeFast, ChatModePro, ChatModeThinking}

// ParseChatMode accepts the wire value of a mode. An empty value selects DefaultChatMode.
func ParseChatMode(s string) (ChatMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultChatMode, nil
	}
	for _, m := range ChatModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// AspectRatio of a generated image.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectLandscape AspectRatio = "4:3"
	AspectPortrait  AspectRatio = "3:4"
	AspectWide      AspectRatio = "16:9"
	AspectTall      AspectRatio = "9:16"
)

var AspectRatios = []AspectRatio{AspectSquare, AspectLandscape, AspectPortrait, AspectWide, AspectTall}

// ParseAspectRatio defaults to 1:1 when s is empty.
func ParseAspectRatio(s string) (AspectRatio, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AspectSquare, nil
	}
	for _, ar := range AspectRatios {
		if string(ar) == s {
			return ar, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAspectRatio, s)
}

// ImageSize of a generated image.
type ImageSize string

const (
	ImageSize1K ImageSize = "1K"
	ImageSize2K ImageSize = "2K"
	ImageSize4K ImageSize = "4K"
)

var ImageSizes = []ImageSize{ImageSize1K, ImageSize2K, ImageSize4K}

// ParseImageSize defaults to 1K when s is empty. Lower-case input is accepted.
func ParseImageSize(s string) (ImageSize, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ImageSize1K, nil
	}
	for _, sz := range ImageSizes {
		if string(sz) == s {
			return sz, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidImageSize, s)
}
