package sessions

import (
	"fmt"
	"sync"
	"time"

	"github.com/Desarso/parsa/conversation"
	"github.com/Desarso/parsa/models"
	"github.com/Desarso/parsa/stores"
	"github.com/rs/zerolog"
)

// Archiver mirrors conversation events into a MessageStore. Fragments are not written;
// a model message is saved when it is appended and again when it reaches its final state.
type Archiver struct {
	Store  stores.MessageStore
	Logger zerolog.Logger
}

// Observe is a conversation.Observer.
func (a *Archiver) Observe(ev conversation.Event) {
	switch ev.Kind {
	case conversation.EventAppended, conversation.EventFinalized, conversation.EventFailed:
		msg, ok := ev.Message()
		if !ok {
			return
		}
		if err := a.Store.SaveMessage(ev.ConversationID, msg); err != nil {
			a.Logger.Error().Err(err).
				Str("conversation_id", ev.ConversationID).
				Str("message_id", msg.ID).
				Str("event", string(ev.Kind)).
				Msg("failed to archive message")
		}
	case conversation.EventCleared:
		if err := a.Store.DeleteConversation(ev.ConversationID); err != nil {
			a.Logger.Error().Err(err).Str("conversation_id", ev.ConversationID).Msg("failed to delete archived conversation")
		}
	}
}

type registryEntry struct {
	conv        *conversation.Conversation
	unsubscribe func()
	// touched is the last time the entry was handed out by Get
	touched time.Time
}

func (e *registryEntry) lastUsed() time.Time {
	if last := e.conv.LastActive(); last.After(e.touched) {
		return last
	}
	return e.touched
}

// Registry holds the live conversations of the process, keyed by id.
type Registry struct {
	Gateway models.Gateway
	Store   stores.MessageStore // optional
	Logger  zerolog.Logger
	// HistoryLimit caps how many archived messages are restored. 0 restores everything.
	HistoryLimit int

	base          zerolog.Logger
	mu            sync.Mutex
	conversations map[string]*registryEntry
	now           func() time.Time
}

func NewRegistry(gateway models.Gateway, store stores.MessageStore, logger zerolog.Logger) *Registry {
	return &Registry{
		Gateway:       gateway,
		Store:         store,
		Logger:        logger.With().Str("component", "registry").Logger(),
		base:          logger,
		conversations: make(map[string]*registryEntry),
		now:           time.Now,
	}
}

// Create starts a new, empty conversation.
func (r *Registry) Create() *conversation.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(conversation.New(""))
}

// Get returns the conversation with id, restoring it from the store or creating it when
// it is not in memory.
func (r *Registry) Get(id string) (*conversation.Conversation, error) {
	if id == "" {
		return nil, fmt.Errorf("conversation id must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conversations[id]; ok {
		e.touched = r.now()
		return e.conv, nil
	}

	conv, err := r.hydrate(id)
	if err != nil {
		return nil, err
	}
	return r.addLocked(conv), nil
}

// Lookup returns a conversation only if it is already in memory.
func (r *Registry) Lookup(id string) (*conversation.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conversations[id]
	if !ok {
		return nil, false
	}
	return e.conv, true
}

// Chat returns a ChatSession bound to the conversation with id.
func (r *Registry) Chat(id string) (*ChatSession, error) {
	conv, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return NewChatSession(conv, r.Gateway, r.base), nil
}

// Evict drops conversations idle for at least idle that have no streaming message. A
// conversation counts as used when it was last mutated or last returned by Get. The
// archive is untouched, so an evicted conversation is restored on the next Get.
func (r *Registry) Evict(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	evicted := 0
	for id, e := range r.conversations {
		if e.conv.Streaming() > 0 || now.Sub(e.lastUsed()) < idle {
			continue
		}
		if e.unsubscribe != nil {
			e.unsubscribe()
		}
		delete(r.conversations, id)
		evicted++
	}
	ActiveConversations.Set(float64(len(r.conversations)))
	if evicted > 0 {
		r.Logger.Info().Int("evicted", evicted).Int("remaining", len(r.conversations)).Msg("evicted idle conversations")
	}
	return evicted
}

// Len reports how many conversations are in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conversations)
}

func (r *Registry) hydrate(id string) (*conversation.Conversation, error) {
	if r.Store == nil {
		return conversation.New(id), nil
	}
	history, err := r.Store.FetchHistory(id, r.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", id, err)
	}
	if len(history) == 0 {
		return conversation.New(id), nil
	}
	issues := stores.DetectCorruptedHistory(history)
	history = stores.SanitizeHistory(history, ChatErrorNotice)
	if len(issues) > 0 {
		r.Logger.Warn().Str("conversation_id", id).Strs("issues", issues).Msg("repairing archived history")
		for _, msg := range history {
			if err := r.Store.SaveMessage(id, msg); err != nil {
				r.Logger.Error().Err(err).Str("conversation_id", id).Msg("failed to write repaired history")
				break
			}
		}
	}
	r.Logger.Debug().Str("conversation_id", id).Int("messages", len(history)).Msg("restored conversation")
	return conversation.Restore(id, history), nil
}

func (r *Registry) addLocked(conv *conversation.Conversation) *conversation.Conversation {
	e := &registryEntry{conv: conv, touched: r.now()}
	if r.Store != nil {
		archiver := &Archiver{Store: r.Store, Logger: r.Logger}
		e.unsubscribe = conv.Subscribe(archiver.Observe)
	}
	r.conversations[conv.ID] = e
	ActiveConversations.Set(float64(len(r.conversations)))
	return conv
}
