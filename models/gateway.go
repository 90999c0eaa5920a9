package models

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoImage is returned when a generation succeeds but carries no inline image part.
	ErrNoImage             = errors.New("no image part in response")
	ErrLocationUnavailable = errors.New("location unavailable")
)

// Gateway is the hosted model service. Implementations must be safe for concurrent use.
type Gateway interface {
	// StreamChat opens a finite, non-restartable fragment stream. The fragment channel is
	// closed when the stream ends; at most one error is delivered on the error channel,
	// which is closed afterwards.
	StreamChat(ctx context.Context, in ChatInput) (<-chan string, <-chan error)
	GenerateImage(ctx context.Context, in ImageGenInput) (Image, error)
	EditImage(ctx context.Context, in ImageEditInput) (Image, error)
	SearchWeb(ctx context.Context, prompt string) (GroundedResponse, error)
	SearchMaps(ctx context.Context, prompt string, at LatLng) (GroundedResponse, error)
}

// LatLng is a position in degrees.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l LatLng) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrLocationUnavailable, l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrLocationUnavailable, l.Longitude)
	}
	return nil
}

// Locator is a one-shot position provider.
type Locator interface {
	CurrentPosition(ctx context.Context) (LatLng, error)
}

// StaticLocator returns a position supplied up front, e.g. by an HTTP client.
type StaticLocator struct {
	Position *LatLng
}

func (s StaticLocator) CurrentPosition(ctx context.Context) (LatLng, error) {
	if s.Position == nil {
		return LatLng{}, ErrLocationUnavailable
	}
	if err := s.Position.Validate(); err != nil {
		return LatLng{}, err
	}
	return *s.Position, nil
}

// Locator builds the locator for this request. Both coordinates must be present.
func (r Maps_Search_Request) Locator() Locator {
	if r.Latitude == nil || r.Longitude == nil {
		return StaticLocator{}
	}
	return StaticLocator{Position: &LatLng{Latitude: *r.Latitude, Longitude: *r.Longitude}}
}
