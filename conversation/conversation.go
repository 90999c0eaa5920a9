// Package conversation holds the in-memory message list of a chat and publishes every
// change to its observers.
package conversation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Desarso/parsa/models"
	"github.com/google/uuid"
)

var (
	ErrUnknownMessage = errors.New("unknown message")
	ErrNotStreaming   = errors.New("message is not streaming")
)

// Role is the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry of a conversation. Text only changes while Streaming is true.
type Message struct {
	ID        string                   `json:"id"`
	Role      Role                     `json:"role"`
	Text      string                   `json:"text"`
	Image     string                   `json:"image,omitempty"`
	Sources   []models.GroundingSource `json:"sources,omitempty"`
	Streaming bool                     `json:"streaming"`
	CreatedAt time.Time                `json:"created_at"`
}

func (m Message) clone() Message {
	if m.Sources != nil {
		m.Sources = append([]models.GroundingSource(nil), m.Sources...)
	}
	return m
}

// EventKind says what changed.
type EventKind string

const (
	EventAppended  EventKind = "appended"
	EventFragment  EventKind = "fragment"
	EventFinalized EventKind = "finalized"
	EventFailed    EventKind = "failed"
	EventCleared   EventKind = "cleared"
)

// Event is published after every mutation. Messages is a private copy.
type Event struct {
	Kind           EventKind `json:"kind"`
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id,omitempty"`
	Messages       []Message `json:"messages"`
}

// Message returns the message the event is about.
func (e Event) Message() (Message, bool) {
	for _, m := range e.Messages {
		if m.ID == e.MessageID {
			return m, true
		}
	}
	return Message{}, false
}

// Observer receives events synchronously on the goroutine that caused them.
type Observer func(Event)

// Conversation is an ordered, append-only list of messages.
type Conversation struct {
	ID string

	mu         sync.Mutex
	messages   []Message
	index      map[string]int
	observers  map[int]Observer
	nextObs    int
	lastActive time.Time
	now        func() time.Time
}

// New creates an empty conversation. An empty id gets a fresh uuid.
func New(id string) *Conversation {
	if id == "" {
		id = uuid.NewString()
	}
	return &Conversation{
		ID:         id,
		index:      make(map[string]int),
		observers:  make(map[int]Observer),
		lastActive: time.Now(),
		now:        time.Now,
	}
}

// Restore builds a conversation from archived messages. Streaming flags are cleared since
// nothing can still be producing them.
func Restore(id string, msgs []Message) *Conversation {
	c := New(id)
	for _, m := range msgs {
		m.Streaming = false
		c.index[m.ID] = len(c.messages)
		c.messages = append(c.messages, m.clone())
	}
	return c
}

// Subscribe registers an observer and returns a function that removes it.
func (c *Conversation) Subscribe(fn Observer) func() {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// AppendUser appends a finished user message. image is an optional reference such as a data URI.
func (c *Conversation) AppendUser(text, image string) Message {
	return c.append(Message{Role: RoleUser, Text: text, Image: image})
}

// AppendModel appends an empty model message with Streaming set. It is the target of
// subsequent AppendFragment calls.
func (c *Conversation) AppendModel() Message {
	return c.append(Message{Role: RoleModel, Streaming: true})
}

func (c *Conversation) append(m Message) Message {
	c.mu.Lock()
	m.ID = uuid.NewString()
	m.CreatedAt = c.now()
	c.index[m.ID] = len(c.messages)
	c.messages = append(c.messages, m)
	c.lastActive = m.CreatedAt
	ev, obs := c.eventLocked(EventAppended, m.ID)
	c.mu.Unlock()

	c.publish(ev, obs)
	return m.clone()
}

// AppendFragment concatenates fragment onto a streaming message.
func (c *Conversation) AppendFragment(id, fragment string) error {
	return c.mutate(id, EventFragment, func(m *Message) error {
		if !m.Streaming {
			return fmt.Errorf("%w: %s", ErrNotStreaming, id)
		}
		m.Text += fragment
		return nil
	})
}

// Finish marks a streaming message as final, keeping its text.
func (c *Conversation) Finish(id string) error {
	return c.mutate(id, EventFinalized, func(m *Message) error {
		if !m.Streaming {
			return fmt.Errorf("%w: %s", ErrNotStreaming, id)
		}
		m.Streaming = false
		return nil
	})
}

// Fail replaces the text of a streaming message with notice and marks it final.
func (c *Conversation) Fail(id, notice string) error {
	return c.mutate(id, EventFailed, func(m *Message) error {
		if !m.Streaming {
			return fmt.Errorf("%w: %s", ErrNotStreaming, id)
		}
		m.Text = notice
		m.Streaming = false
		return nil
	})
}

func (c *Conversation) mutate(id string, kind EventKind, fn func(*Message) error) error {
	c.mu.Lock()
	i, ok := c.index[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownMessage, id)
	}
	if err := fn(&c.messages[i]); err != nil {
		c.mu.Unlock()
		return err
	}
	c.lastActive = c.now()
	ev, obs := c.eventLocked(kind, id)
	c.mu.Unlock()

	c.publish(ev, obs)
	return nil
}

// Clear drops every message. Streaming messages are dropped too; their assemblers will
// get ErrUnknownMessage on the next fragment.
func (c *Conversation) Clear() {
	c.mu.Lock()
	ev, obs := c.clearLocked()
	c.mu.Unlock()

	c.publish(ev, obs)
}

// ClearIfIdle clears the conversation only when no message is streaming, checking and
// clearing under one lock. It reports whether it cleared.
func (c *Conversation) ClearIfIdle() bool {
	c.mu.Lock()
	for _, m := range c.messages {
		if m.Streaming {
			c.mu.Unlock()
			return false
		}
	}
	ev, obs := c.clearLocked()
	c.mu.Unlock()

	c.publish(ev, obs)
	return true
}

func (c *Conversation) clearLocked() (Event, []Observer) {
	c.messages = nil
	c.index = make(map[string]int)
	c.lastActive = c.now()
	return c.eventLocked(EventCleared, "")
}

// Messages returns a copy of the message list.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Get returns a copy of one message.
func (c *Conversation) Get(id string) (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return Message{}, false
	}
	return c.messages[i].clone(), true
}

// Streaming reports how many messages are still being produced.
func (c *Conversation) Streaming() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.messages {
		if m.Streaming {
			n++
		}
	}
	return n
}

// LastActive is the time of the last mutation.
func (c *Conversation) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Conversation) snapshotLocked() []Message {
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.clone()
	}
	return out
}

func (c *Conversation) eventLocked(kind EventKind, id string) (Event, []Observer) {
	ev := Event{
		Kind:           kind,
		ConversationID: c.ID,
		MessageID:      id,
		Messages:       c.snapshotLocked(),
	}
	obs := make([]Observer, 0, len(c.observers))
	for i := 0; i < c.nextObs; i++ {
		if fn, ok := c.observers[i]; ok {
			obs = append(obs, fn)
		}
	}
	return ev, obs
}

// publish runs outside the lock so observers may read the conversation.
func (c *Conversation) publish(ev Event, obs []Observer) {
	for _, fn := range obs {
		fn(ev)
	}
}
