package sessions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Desarso/parsa/conversation"
	"github.com/Desarso/parsa/models"
	"github.com/rs/zerolog"
)

var errNoStream = errors.New("gateway returned no stream")

// ChatSession assembles streamed model output into a conversation.
type ChatSession struct {
	Conversation *conversation.Conversation
	Gateway      models.Gateway
	Logger       zerolog.Logger
}

// Turn is a submission that has been accepted: the user message and the empty streaming
// model message are already in the conversation.
type Turn struct {
	UserMessageID string
	MessageID     string
	Input         models.ChatInput
	started       time.Time
}

// Submit runs one chat turn to completion and returns the id of the model message. It is
// a no-op returning "" when the prompt is blank and there is no attachment. Failures
// never surface as errors; the model message carries the error notice instead.
func (s *ChatSession) Submit(ctx context.Context, prompt string, attachment *models.Attachment, mode models.ChatMode) string {
	turn, ok := s.Begin(prompt, attachment, mode)
	if !ok {
		return ""
	}
	s.Run(ctx, turn)
	return turn.MessageID
}

// Begin checks the precondition and appends the user message and the streaming target.
func (s *ChatSession) Begin(prompt string, attachment *models.Attachment, mode models.ChatMode) (Turn, bool) {
	if strings.TrimSpace(prompt) == "" && attachment == nil {
		return Turn{}, false
	}
	if mode == "" {
		mode = models.DefaultChatMode
	}

	image := ""
	if attachment != nil {
		image = attachment.DataURI()
	}
	user := s.Conversation.AppendUser(prompt, image)
	target := s.Conversation.AppendModel()

	ChatSubmitsTotal.WithLabelValues(string(mode)).Inc()
	return Turn{
		UserMessageID: user.ID,
		MessageID:     target.ID,
		Input:         models.ChatInput{Prompt: prompt, Attachment: attachment, Mode: mode},
		started:       time.Now(),
	}, true
}

// Run streams the turn's reply into its target message and leaves it final.
func (s *ChatSession) Run(ctx context.Context, turn Turn) {
	log := s.Logger.With().
		Str("message_id", turn.MessageID).
		Str("mode", string(turn.Input.Mode)).
		Bool("attachment", turn.Input.Attachment != nil).
		Logger()

	// cancelled on return so the producer stops if we quit early
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	fragments, errChan := s.Gateway.StreamChat(streamCtx, turn.Input)
	count, err := s.consume(turn.MessageID, fragments, errChan)

	outcome := "finalized"
	if err != nil {
		outcome = "failed"
		log.Error().Err(err).Int("fragments", count).Msg("chat stream failed")
		if ferr := s.Conversation.Fail(turn.MessageID, ChatErrorNotice); ferr != nil {
			log.Warn().Err(ferr).Msg("could not mark message as failed")
		}
	} else {
		if ferr := s.Conversation.Finish(turn.MessageID); ferr != nil {
			log.Warn().Err(ferr).Msg("could not finalize message")
		}
		log.Debug().Int("fragments", count).Msg("chat stream finished")
	}

	ChatStreamsTotal.WithLabelValues(outcome).Inc()
	if !turn.started.IsZero() {
		ChatStreamDuration.WithLabelValues(string(turn.Input.Mode)).Observe(time.Since(turn.started).Seconds())
	}
}

// consume appends fragments in arrival order until the stream ends or fails. Each
// fragment is published before the next one is received.
func (s *ChatSession) consume(id string, fragments <-chan string, errChan <-chan error) (int, error) {
	if fragments == nil && errChan == nil {
		return 0, errNoStream
	}
	count := 0
	for fragments != nil || errChan != nil {
		select {
		case frag, ok := <-fragments:
			if !ok {
				fragments = nil
				continue
			}
			if frag == "" {
				continue
			}
			if err := s.Conversation.AppendFragment(id, frag); err != nil {
				return count, err
			}
			count++
			ChatFragmentsTotal.Inc()

		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err != nil {
				return count, err
			}
		}
	}
	return count, nil
}
