package sessions

import (
	"github.com/Desarso/parsa/conversation"
	"github.com/Desarso/parsa/models"
	"github.com/Desarso/parsa/stores"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// NewChatSession binds a gateway to a conversation.
func NewChatSession(conv *conversation.Conversation, gateway models.Gateway, logger zerolog.Logger) *ChatSession {
	return &ChatSession{
		Conversation: conv,
		Gateway:      gateway,
		Logger:       logger.With().Str("component", "chat_session").Str("conversation_id", conv.ID).Logger(),
	}
}

// NewChatSocket creates a WebSocket driver for a chat session.
func NewChatSocket(session *ChatSession, conn *websocket.Conn) *ChatSocket {
	logger := session.Logger.With().Str("transport", "ws").Logger()
	return &ChatSocket{
		Session: session,
		Writer: &WebSocketWriter{
			Conn:   conn,
			Logger: logger,
		},
	}
}

// NewStudioSession creates a studio session. images may be nil.
func NewStudioSession(gateway models.Gateway, images stores.ImageStore, logger zerolog.Logger) *StudioSession {
	return &StudioSession{
		Gateway: gateway,
		Images:  images,
		Logger:  logger.With().Str("component", "studio_session").Logger(),
	}
}
