package sessions

import (
	"sync"
	"time"

	"github.com/Desarso/parsa/conversation"
	"github.com/Desarso/parsa/models"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// User-visible failure strings.
const (
	ChatErrorNotice      = "An error occurred. Please try again."
	ImageGenerationError = "Failed to generate image. Please try again."
	ImageEditError       = "Failed to edit image. Please try again."
	SearchError          = "Failed to perform search. Please try again."
	LocationError        = "Could not get location. Please allow location access."
	LocatingStatus       = "Getting your location..."
)

// ImageResult is the outcome of an image operation. Exactly one of Image or Error is set.
type ImageResult struct {
	Image *models.Image
	Error string
}

// Response converts the result to its wire form.
func (r ImageResult) Response() models.Image_Response {
	if r.Image == nil {
		return models.Image_Response{Error: r.Error}
	}
	return models.Image_Response{Image_URL: r.Image.URL, Mime_Type: r.Image.MimeType}
}

// GroundedResult is the outcome of a grounded search. Sources is never nil.
type GroundedResult struct {
	Text    string
	Sources []models.GroundingSource
	Error   string
}

func (r GroundedResult) Response() models.Grounded_Response {
	return models.Grounded_Response{Text: r.Text, Sources: r.Sources, Error: r.Error}
}

// SSEWriter handles Server-Sent Events writing
type SSEWriter interface {
	WriteSSE(data string) error
	WriteSSEError(err error) error
	Flush()
}

// WebSocketWriter serialises writes to a WebSocket connection.
type WebSocketWriter struct {
	Conn             *websocket.Conn
	Logger           zerolog.Logger
	StartTime        time.Time
	FirstTokenLogged bool
	mu               sync.Mutex
}

func (w *WebSocketWriter) WriteResponse(resp any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(resp)
}

// WriteFragment writes a conversation snapshot and logs the time to the first fragment
// of the current submission.
func (w *WebSocketWriter) WriteFragment(resp any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.FirstTokenLogged && !w.StartTime.IsZero() {
		w.Logger.Debug().Dur("time_to_first_token", time.Since(w.StartTime)).Msg("first fragment")
		w.FirstTokenLogged = true
	}
	return w.Conn.WriteJSON(resp)
}

// Begin marks the start of a submission for first-fragment timing.
func (w *WebSocketWriter) Begin() {
	w.mu.Lock()
	w.StartTime = time.Now()
	w.FirstTokenLogged = false
	w.mu.Unlock()
}

func (w *WebSocketWriter) WriteError(message string) error {
	return w.WriteResponse(Socket_Response{Type: "error", Error: message})
}

func (w *WebSocketWriter) WriteDone(messageID string) error {
	return w.WriteResponse(Socket_Response{Type: "done", Message_ID: messageID})
}

// Socket_Message is what a WebSocket client sends.
type Socket_Message struct {
	Type   string             `json:"type"` // "submit", "clear"
	Prompt string             `json:"prompt,omitempty"`
	Mode   string             `json:"mode,omitempty"`
	Image  *models.InlineData `json:"image,omitempty"`
}

// Socket_Response is what the server pushes to a WebSocket client.
type Socket_Response struct {
	Type       string                 `json:"type"` // "conversation", "done", "busy", "error"
	Event      conversation.EventKind `json:"event,omitempty"`
	Message_ID string                 `json:"message_id,omitempty"`
	Messages   []conversation.Message `json:"messages,omitempty"`
	Error      string                 `json:"error,omitempty"`
}
