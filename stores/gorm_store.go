package stores

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Desarso/parsa/conversation"
	"github.com/Desarso/parsa/models"
	"gorm.io/gorm"
)

var errNilDB = errors.New("database connection is nil")

const maxTitleLength = 60

// gormStore carries the queries shared by the SQLite and PostgreSQL stores. The
// embedding store only decides how to open the connection.
type gormStore struct {
	db *gorm.DB
}

func (s *gormStore) migrate() error {
	if err := s.db.AutoMigrate(&Conversation{}, &Message{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *gormStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (s *gormStore) Ping() error {
	if s.db == nil {
		return errNilDB
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// SaveMessage inserts a message, or updates its text, image, sources and streaming flag
// when a row with the same message id already exists.
func (s *gormStore) SaveMessage(conversationID string, msg conversation.Message) error {
	if s.db == nil {
		return errNilDB
	}

	sourcesJSON, err := marshalSources(msg.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources for database (ConvID: %s): %w", conversationID, err)
	}

	var existing Message
	res := s.db.Where("message_id = ?", msg.ID).Limit(1).Find(&existing)
	if res.Error != nil {
		return fmt.Errorf("failed to look up message %s: %w", msg.ID, res.Error)
	}
	if res.RowsAffected > 0 {
		err := s.db.Model(&existing).Updates(map[string]any{
			"text":         msg.Text,
			"image":        msg.Image,
			"streaming":    msg.Streaming,
			"sources_json": sourcesJSON,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update message record: %w", err)
		}
		return nil
	}

	// Use Count() to check existence without triggering "record not found" error logs
	var count int64
	if err := s.db.Model(&Conversation{}).Where("conversation_id = ?", conversationID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check conversation %s: %w", conversationID, err)
	}
	if count == 0 {
		if err := s.CreateConversation(conversationID, ""); err != nil {
			return fmt.Errorf("failed to create conversation record for %s: %w", conversationID, err)
		}
	}

	// Reuse count variable to get message sequence number
	if err := s.db.Model(&Message{}).Where("conversation_id = ?", conversationID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count existing messages: %w", err)
	}
	seq := int(count) + 1

	sentAt := msg.CreatedAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	row := Message{
		ConversationID: conversationID,
		MessageID:      msg.ID,
		Sequence:       seq,
		Role:           string(msg.Role),
		Text:           msg.Text,
		Image:          msg.Image,
		Streaming:      msg.Streaming,
		SourcesJSON:    sourcesJSON,
		SentAt:         sentAt,
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create message record: %w", err)
		}
		updates := map[string]any{"message_count": seq}
		if msg.Role == conversation.RoleUser && msg.Text != "" {
			// only the first prompt names the conversation
			if err := tx.Model(&Conversation{}).
				Where("conversation_id = ? AND (title IS NULL OR title = '')", conversationID).
				Update("title", titleFrom(msg.Text)).Error; err != nil {
				return fmt.Errorf("failed to set conversation title: %w", err)
			}
		}
		if err := tx.Model(&Conversation{}).Where("conversation_id = ?", conversationID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update conversation message count: %w", err)
		}
		return nil
	})
}

// FetchHistory retrieves messages for a conversation in sequence order
// limit: maximum number of messages to retrieve (0 = return all messages)
func (s *gormStore) FetchHistory(conversationID string, limit int) ([]conversation.Message, error) {
	if s.db == nil {
		return nil, errNilDB
	}

	var rows []Message
	query := s.db.Where("conversation_id = ?", conversationID).Order("sequence ASC")

	if limit > 0 {
		var count int64
		if err := s.db.Model(&Message{}).Where("conversation_id = ?", conversationID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count messages: %w", err)
		}
		// If more than limit, offset to get only last N messages
		if count > int64(limit) {
			query = query.Offset(int(count) - limit)
		}
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	msgs := make([]conversation.Message, 0, len(rows))
	for _, r := range rows {
		sources, err := unmarshalSources(r.SourcesJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode sources of message %s: %w", r.MessageID, err)
		}
		msgs = append(msgs, conversation.Message{
			ID:        r.MessageID,
			Role:      conversation.Role(r.Role),
			Text:      r.Text,
			Image:     r.Image,
			Sources:   sources,
			Streaming: r.Streaming,
			CreatedAt: r.SentAt,
		})
	}
	return msgs, nil
}

// CreateConversation creates a new conversation record
func (s *gormStore) CreateConversation(convoID, title string) error {
	if s.db == nil {
		return errNilDB
	}
	conv := Conversation{
		ConversationID: convoID,
		Title:          title,
		MessageCount:   0,
	}
	return s.db.Create(&conv).Error
}

// ListConversations returns every archived conversation, most recently updated first.
func (s *gormStore) ListConversations() ([]ConversationInfo, error) {
	if s.db == nil {
		return nil, errNilDB
	}

	var convs []Conversation
	if err := s.db.Order("updated_at DESC").Find(&convs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch conversations: %w", err)
	}

	result := make([]ConversationInfo, len(convs))
	for i, c := range convs {
		result[i] = ConversationInfo{
			ConversationID: c.ConversationID,
			Title:          c.Title,
			MessageCount:   c.MessageCount,
			CreatedAt:      c.CreatedAt.Format(time.RFC3339),
			UpdatedAt:      c.UpdatedAt.Format(time.RFC3339),
		}
	}
	return result, nil
}

// DeleteConversation removes a conversation and its messages. Rows are hard deleted so
// the id can be archived again after the conversation is cleared.
func (s *gormStore) DeleteConversation(convoID string) error {
	if s.db == nil {
		return errNilDB
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("conversation_id = ?", convoID).Delete(&Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if err := tx.Unscoped().Where("conversation_id = ?", convoID).Delete(&Conversation{}).Error; err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}
		return nil
	})
}

func marshalSources(sources []models.GroundingSource) (string, error) {
	if len(sources) == 0 {
		return "", nil
	}
	data, err := json.Marshal(sources)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalSources(raw string) ([]models.GroundingSource, error) {
	if raw == "" {
		return nil, nil
	}
	var sources []models.GroundingSource
	if err := json.Unmarshal([]byte(raw), &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

func titleFrom(prompt string) string {
	if utf8.RuneCountInString(prompt) <= maxTitleLength {
		return prompt
	}
	runes := []rune(prompt)
	return string(runes[:maxTitleLength]) + "..."
}
