package server

import (
	"net/http"
	"strconv"

	"github.com/Desarso/parsa/conversation"
	"github.com/Desarso/parsa/models"
	"github.com/Desarso/parsa/sessions"
	"github.com/Desarso/parsa/stores"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChatHandler exposes conversations and the streaming assembler.
type ChatHandler struct {
	registry  *sessions.Registry
	store     stores.MessageStore
	maxUpload int64
	log       zerolog.Logger
}

type conversationResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Messages       []conversation.Message `json:"messages"`
	Streaming      bool                   `json:"streaming"`
}

// GinSSEWriter implements sessions.SSEWriter for a gin context
type GinSSEWriter struct {
	Context *gin.Context
}

func (w *GinSSEWriter) WriteSSE(data string) error {
	w.Context.SSEvent("message", data)
	return w.Context.Err()
}

func (w *GinSSEWriter) WriteSSEError(err error) error {
	w.Context.SSEvent("error", err.Error())
	w.Context.Writer.Flush()
	return nil
}

func (w *GinSSEWriter) Flush() {
	w.Context.Writer.Flush()
}

// CreateConversation godoc
// @Summary      Start a conversation
// @Tags         conversations
// @Produce      json
// @Success      201  {object}  map[string]string
// @Router       /api/v1/conversations [post]
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	conv := h.registry.Create()
	c.JSON(http.StatusCreated, gin.H{"conversation_id": conv.ID})
}

// ListConversations godoc
// @Summary      List archived conversations
// @Tags         conversations
// @Produce      json
// @Success      200  {array}   stores.ConversationInfo
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/conversations [get]
func (h *ChatHandler) ListConversations(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, []stores.ConversationInfo{})
		return
	}
	infos, err := h.store.ListConversations()
	if err != nil {
		h.log.Error().Err(err).Msg("list conversations failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, infos)
}

// GetConversation godoc
// @Summary      Get a conversation
// @Tags         conversations
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  conversationResponse
// @Router       /api/v1/conversations/{id} [get]
func (h *ChatHandler) GetConversation(c *gin.Context) {
	conv, ok := h.conversation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, conversationResponse{
		ConversationID: conv.ID,
		Messages:       conv.Messages(),
		Streaming:      conv.Streaming() > 0,
	})
}

// RenderConversation godoc
// @Summary      Render a conversation transcript
// @Description  Markdown by default; format=ansi styles it for a terminal.
// @Tags         conversations
// @Produce      plain
// @Param        id      path   string  true   "Conversation ID"
// @Param        format  query  string  false  "markdown or ansi"
// @Param        width   query  int     false  "wrap width for ansi"
// @Success      200  {string}  string
// @Router       /api/v1/conversations/{id}/render [get]
func (h *ChatHandler) RenderConversation(c *gin.Context) {
	conv, ok := h.conversation(c)
	if !ok {
		return
	}
	msgs := conv.Messages()
	view := conversation.DefaultView()

	switch c.DefaultQuery("format", "markdown") {
	case "markdown":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(view.Render(msgs)))
	case "ansi":
		width, _ := strconv.Atoi(c.Query("width"))
		r, err := conversation.NewTerminalRenderer(view, "dark", width)
		if err != nil {
			h.log.Error().Err(err).Msg("terminal renderer unavailable")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "renderer unavailable"})
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(r.Render(msgs)))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be markdown or ansi"})
	}
}

// ClearConversation godoc
// @Summary      Clear a conversation
// @Description  Drops every message. Refused while a reply is streaming.
// @Tags         conversations
// @Param        id   path  string  true  "Conversation ID"
// @Success      204
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/conversations/{id} [delete]
func (h *ChatHandler) ClearConversation(c *gin.Context) {
	conv, ok := h.conversation(c)
	if !ok {
		return
	}
	if !conv.ClearIfIdle() {
		c.JSON(http.StatusConflict, gin.H{"error": "a reply is still streaming"})
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitMessage godoc
// @Summary      Send a chat message
// @Description  Streams the model reply as server-sent events until it is final.
// @Tags         conversations
// @Accept       json,mpfd
// @Produce      text/event-stream
// @Param        id       path      string               true  "Conversation ID"
// @Param        request  body      models.Chat_Request  true  "Chat request"
// @Success      200      {string}  string
// @Failure      400      {object}  map[string]string
// @Router       /api/v1/conversations/{id}/messages [post]
func (h *ChatHandler) SubmitMessage(c *gin.Context) {
	prompt, mode, attachment, err := bindChat(c, h.maxUpload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.registry.Chat(c.Param("id"))
	if err != nil {
		h.log.Error().Err(err).Msg("open conversation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open conversation"})
		return
	}

	turn, ok := chat.Begin(prompt, attachment, mode)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrEmptyPrompt.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	writer := &GinSSEWriter{Context: c}
	if err := chat.RunSSEInteraction(c.Request.Context(), turn, writer); err != nil {
		return
	}
	c.SSEvent("done", gin.H{"message_id": turn.MessageID})
	writer.Flush()
}

// ConversationSocket godoc
// @Summary      Chat over WebSocket
// @Tags         conversations
// @Param        id   path  string  true  "Conversation ID"
// @Router       /ws/conversations/{id} [get]
func (h *ChatHandler) ConversationSocket(c *gin.Context) {
	chat, err := h.registry.Chat(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open conversation"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	socket := sessions.NewChatSocket(chat, conn)
	if err := socket.RunInteraction(c.Request.Context()); err != nil {
		h.log.Debug().Err(err).Str("conversation_id", chat.Conversation.ID).Msg("websocket session ended")
	}
}

func (h *ChatHandler) conversation(c *gin.Context) (*conversation.Conversation, bool) {
	conv, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.log.Error().Err(err).Msg("open conversation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open conversation"})
		return nil, false
	}
	return conv, true
}

// bindChat reads a chat submission from JSON or from a multipart form with an optional
// "image" file.
func bindChat(c *gin.Context, maxUpload int64) (string, models.ChatMode, *models.Attachment, error) {
	if c.ContentType() == "multipart/form-data" {
		mode, err := models.ParseChatMode(c.PostForm("mode"))
		if err != nil {
			return "", "", nil, err
		}
		attachment, err := formImage(c, "image", maxUpload, false)
		if err != nil {
			return "", "", nil, err
		}
		return c.PostForm("prompt"), mode, attachment, nil
	}

	var req models.Chat_Request
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", "", nil, err
	}
	mode, err := models.ParseChatMode(req.Mode)
	if err != nil {
		return "", "", nil, err
	}
	var attachment *models.Attachment
	if req.Image != nil {
		attachment, err = req.Image.Decode()
		if err != nil {
			return "", "", nil, err
		}
	}
	return req.Prompt, mode, attachment, nil
}
