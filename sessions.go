package parsa

import (
	"github.com/Desarso/parsa/conversation"
	"github.com/Desarso/parsa/models"
	"github.com/Desarso/parsa/sessions"
	"github.com/Desarso/parsa/stores"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Re-export session types so callers only need the root package
type ChatSession = sessions.ChatSession
type ChatSocket = sessions.ChatSocket
type StudioSession = sessions.StudioSession
type MapsSession = sessions.MapsSession
type Registry = sessions.Registry
type Turn = sessions.Turn
type ImageResult = sessions.ImageResult
type GroundedResult = sessions.GroundedResult
type SSEWriter = sessions.SSEWriter
type WebSocketWriter = sessions.WebSocketWriter

// Re-export constructor functions
func NewChatSession(conv *conversation.Conversation, gateway models.Gateway, logger zerolog.Logger) *ChatSession {
	return sessions.NewChatSession(conv, gateway, logger)
}

func NewChatSocket(session *ChatSession, conn *websocket.Conn) *ChatSocket {
	return sessions.NewChatSocket(session, conn)
}

func NewStudioSession(gateway models.Gateway, images stores.ImageStore, logger zerolog.Logger) *StudioSession {
	return sessions.NewStudioSession(gateway, images, logger)
}

func NewMapsSession(gateway models.Gateway, logger zerolog.Logger) *MapsSession {
	return sessions.NewMapsSession(gateway, logger)
}

func NewRegistry(gateway models.Gateway, store stores.MessageStore, logger zerolog.Logger) *Registry {
	return sessions.NewRegistry(gateway, store, logger)
}
