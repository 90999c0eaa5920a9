package sessions

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Desarso/parsa/models"
	"github.com/rs/zerolog"
)

// MapsSession answers maps-grounded questions around a located position. The position
// is acquired once through Locate; until that succeeds every search is refused with the
// location status.
type MapsSession struct {
	Gateway models.Gateway
	Logger  zerolog.Logger

	mu       sync.Mutex
	position *models.LatLng
	status   string
}

func NewMapsSession(gateway models.Gateway, logger zerolog.Logger) *MapsSession {
	return &MapsSession{
		Gateway: gateway,
		Logger:  logger.With().Str("component", "maps_session").Logger(),
		status:  LocatingStatus,
	}
}

// Locate asks locator for the current position once. On failure the status is set and
// stays until a later Locate succeeds.
func (m *MapsSession) Locate(ctx context.Context, locator models.Locator) error {
	pos, err := locator.CurrentPosition(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.position = nil
		m.status = LocationError
		m.Logger.Warn().Err(err).Msg("location unavailable")
		return err
	}
	m.position = &pos
	m.status = ""
	return nil
}

// Status is the persistent location message: LocatingStatus before the first Locate,
// LocationError after a failed one, empty once a position is known.
func (m *MapsSession) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Position returns the located position, if any.
func (m *MapsSession) Position() (models.LatLng, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.position == nil {
		return models.LatLng{}, false
	}
	return *m.position, true
}

// Search runs a maps-grounded generation at the located position. Without a position the
// gateway is not called and the current location status is returned as the error.
func (m *MapsSession) Search(ctx context.Context, prompt string) GroundedResult {
	m.mu.Lock()
	position, status := m.position, m.status
	m.mu.Unlock()
	if position == nil {
		studioOutcome("search_maps", "no_location")
		return GroundedResult{Sources: []models.GroundingSource{}, Error: status}
	}
	pos := *position
	if strings.TrimSpace(prompt) == "" {
		studioOutcome("search_maps", "invalid")
		return GroundedResult{Sources: []models.GroundingSource{}, Error: models.ErrEmptyPrompt.Error()}
	}

	start := time.Now()
	resp, err := m.Gateway.SearchMaps(ctx, prompt, pos)
	StudioDuration.WithLabelValues("search_maps").Observe(time.Since(start).Seconds())
	if err != nil {
		m.Logger.Error().Err(err).
			Float64("latitude", pos.Latitude).
			Float64("longitude", pos.Longitude).
			Msg("maps search failed")
		studioOutcome("search_maps", "failed")
		return GroundedResult{Sources: []models.GroundingSource{}, Error: SearchError}
	}
	studioOutcome("search_maps", "ok")
	return groundedResult(resp)
}
