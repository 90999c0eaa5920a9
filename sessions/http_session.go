package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/Desarso/parsa/conversation"
)

// SSE_Message is one server-sent event of a chat stream: the target message as it stands
// after a mutation.
type SSE_Message struct {
	Event   conversation.EventKind `json:"event"`
	Message conversation.Message   `json:"message"`
}

var marshalSSE = json.Marshal

// RunSSEInteraction writes the target message of turn to writer after every change until
// it is final. A failed turn is followed by an error event carrying the notice, and a
// message that cannot be encoded ends the stream with an error event. The turn
// itself runs detached from ctx: a client that goes away stops receiving events, but the
// model message is still completed in the conversation.
func (s *ChatSession) RunSSEInteraction(ctx context.Context, turn Turn, writer SSEWriter) error {
	var (
		mu     sync.Mutex
		closed bool
		werr   error
	)
	writeError := func(err error) {
		if werr = writer.WriteSSEError(err); werr != nil {
			s.Logger.Debug().Err(werr).Msg("error writing SSE error event")
		}
	}
	write := func(kind conversation.EventKind, msg conversation.Message) {
		mu.Lock()
		defer mu.Unlock()
		if closed || werr != nil {
			return
		}
		data, err := marshalSSE(SSE_Message{Event: kind, Message: msg})
		if err != nil {
			s.Logger.Error().Err(err).Msg("error marshalling sse message")
			writeError(err)
			werr = err
			return
		}
		if err := writer.WriteSSE(string(data)); err != nil {
			s.Logger.Debug().Err(err).Msg("error writing to SSE stream")
			werr = err
			return
		}
		writer.Flush()
		if kind == conversation.EventFailed {
			writeError(errors.New(msg.Text))
		}
	}

	unsubscribe := s.Conversation.Subscribe(func(ev conversation.Event) {
		if ev.MessageID != turn.MessageID {
			return
		}
		if msg, ok := ev.Message(); ok {
			write(ev.Kind, msg)
		}
	})
	defer func() {
		unsubscribe()
		mu.Lock()
		closed = true
		mu.Unlock()
	}()

	if msg, ok := s.Conversation.Get(turn.MessageID); ok {
		write(conversation.EventAppended, msg)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(context.WithoutCancel(ctx), turn)
	}()

	select {
	case <-done:
		mu.Lock()
		defer mu.Unlock()
		return werr
	case <-ctx.Done():
		s.Logger.Debug().Str("message_id", turn.MessageID).Msg("SSE client disconnected, stream continues")
		return ctx.Err()
	}
}
