package sessions

import (
	"context"
	"sync"

	"github.com/Desarso/parsa/conversation"
	"github.com/Desarso/parsa/models"
	"github.com/gorilla/websocket"
)

// ChatSocket drives one WebSocket client attached to a conversation. Every change to the
// conversation is pushed to the client; a submission is refused with "busy" while a
// model message is still streaming.
type ChatSocket struct {
	Session *ChatSession
	Writer  *WebSocketWriter

	wg sync.WaitGroup
}

// RunInteraction reads client messages until the connection closes. Turns that are still
// streaming when it returns keep running detached and finish in the conversation.
func (cs *ChatSocket) RunInteraction(ctx context.Context) error {
	log := cs.Session.Logger
	unsubscribe := cs.Session.Conversation.Subscribe(cs.publish)
	defer unsubscribe()

	if err := cs.Writer.WriteResponse(Socket_Response{
		Type:     "conversation",
		Messages: cs.Session.Conversation.Messages(),
	}); err != nil {
		return err
	}

	for {
		var msg Socket_Message
		if err := cs.Writer.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket closed unexpectedly")
			}
			return nil
		}

		switch msg.Type {
		case "submit":
			cs.submit(ctx, msg)
		case "clear":
			if !cs.Session.Conversation.ClearIfIdle() {
				cs.writeBusy()
			}
		default:
			if err := cs.Writer.WriteError("unknown message type: " + msg.Type); err != nil {
				return err
			}
		}
	}
}

// Wait blocks until every turn started by this socket has finished.
func (cs *ChatSocket) Wait() {
	cs.wg.Wait()
}

func (cs *ChatSocket) submit(ctx context.Context, msg Socket_Message) {
	log := cs.Session.Logger

	if cs.Session.Conversation.Streaming() > 0 {
		cs.writeBusy()
		return
	}

	mode, err := models.ParseChatMode(msg.Mode)
	if err != nil {
		cs.writeError(err.Error())
		return
	}

	var attachment *models.Attachment
	if msg.Image != nil {
		attachment, err = msg.Image.Decode()
		if err != nil {
			log.Warn().Err(err).Msg("rejected attachment")
			cs.writeError(err.Error())
			return
		}
	}

	cs.Writer.Begin()
	turn, ok := cs.Session.Begin(msg.Prompt, attachment, mode)
	if !ok {
		cs.writeError(models.ErrEmptyPrompt.Error())
		return
	}

	cs.wg.Add(1)
	go func() {
		defer cs.wg.Done()
		cs.Session.Run(context.WithoutCancel(ctx), turn)
		if err := cs.Writer.WriteDone(turn.MessageID); err != nil {
			log.Debug().Err(err).Msg("error writing done")
		}
	}()
}

func (cs *ChatSocket) publish(ev conversation.Event) {
	resp := Socket_Response{
		Type:       "conversation",
		Event:      ev.Kind,
		Message_ID: ev.MessageID,
		Messages:   ev.Messages,
	}
	var err error
	if ev.Kind == conversation.EventFragment {
		err = cs.Writer.WriteFragment(resp)
	} else {
		err = cs.Writer.WriteResponse(resp)
	}
	if err != nil {
		cs.Session.Logger.Debug().Err(err).Msg("error writing conversation event")
	}
}

func (cs *ChatSocket) writeError(message string) {
	if err := cs.Writer.WriteError(message); err != nil {
		cs.Session.Logger.Debug().Err(err).Msg("error writing error response")
	}
}

func (cs *ChatSocket) writeBusy() {
	if err := cs.Writer.WriteResponse(Socket_Response{Type: "busy"}); err != nil {
		cs.Session.Logger.Debug().Err(err).Msg("error writing busy")
	}
}
