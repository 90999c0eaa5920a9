package stores

import (
	"context"
	"time"

	"github.com/Desarso/parsa/conversation"
	"github.com/Desarso/parsa/models"
	"gorm.io/gorm"
)

// Message is one archived chat message. Rows are keyed by the in-memory message id so a
// streaming model message can be saved on append and updated when it finishes.
type Message struct {
	gorm.Model
	ConversationID string `gorm:"index;not null"`
	MessageID      string `gorm:"uniqueIndex;not null"`
	Sequence       int    `gorm:"not null"`
	Role           string `gorm:"not null"` // "user", "model"
	Text           string `gorm:"type:text"`
	Image          string `gorm:"type:text"`
	Streaming      bool
	// SourcesJSON stores the JSON marshaled grounding sources, if any.
	SourcesJSON string `gorm:"type:text"`
	SentAt      time.Time
}

// Conversation holds metadata for an archived chat.
type Conversation struct {
	gorm.Model
	ConversationID string    `gorm:"uniqueIndex;not null"`
	Title          string    `gorm:"type:text"` // first user prompt, truncated
	MessageCount   int       `gorm:"default:0"`
	Messages       []Message `gorm:"foreignKey:ConversationID;references:ConversationID"`
}

// ConversationInfo holds basic conversation metadata for listing
type ConversationInfo struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
	MessageCount   int    `json:"message_count"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// MessageStore archives conversation transcripts.
type MessageStore interface {
	// Message operations
	SaveMessage(conversationID string, msg conversation.Message) error
	FetchHistory(conversationID string, limit int) ([]conversation.Message, error)

	// Conversation operations
	CreateConversation(convoID, title string) error
	ListConversations() ([]ConversationInfo, error)
	DeleteConversation(convoID string) error

	// Connection management
	Connect() error
	Close() error

	// Health check
	Ping() error
}

// ImageStore persists generated images and hands back a URL the client can load.
type ImageStore interface {
	SaveImage(ctx context.Context, img models.Image) (string, error)
	// Prune removes images created before cutoff and reports how many went away.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// StoreConfig holds configuration for database stores
type StoreConfig struct {
	Type       string            `json:"type"`       // "memory", "sqlite", "postgres"
	Connection string            `json:"connection"` // connection string
	Options    map[string]string `json:"options"`    // additional options
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{
		Type:       storeType,
		Connection: connection,
		Options:    make(map[string]string),
	}
}

// WithOption adds an option to the store configuration
func (c *StoreConfig) WithOption(key, value string) *StoreConfig {
	c.Options[key] = value
	return c
}
