package conversation

import (
	"strings"
	"sync"
	"testing"

	"github.com/Desarso/parsa/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_AppendOrder(t *testing.T) {
	c := New("")
	require.NotEmpty(t, c.ID)

	u := c.AppendUser("hello", "")
	m := c.AppendModel()

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, u.ID, msgs[0].ID)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.False(t, msgs[0].Streaming)
	assert.Equal(t, m.ID, msgs[1].ID)
	assert.Equal(t, RoleModel, msgs[1].Role)
	assert.True(t, msgs[1].Streaming)
	assert.Empty(t, msgs[1].Text)
	assert.NotEqual(t, u.ID, m.ID)
}

func TestConversation_FragmentsConcatenate(t *testing.T) {
	c := New("c1")
	m := c.AppendModel()

	for _, f := range []string{"The ", "quick ", "fox"} {
		require.NoError(t, c.AppendFragment(m.ID, f))
	}
	require.NoError(t, c.Finish(m.ID))

	got, ok := c.Get(m.ID)
	require.True(t, ok)
	assert.Equal(t, "The quick fox", got.Text)
	assert.False(t, got.Streaming)
	assert.Equal(t, 0, c.Streaming())
}

func TestConversation_FrozenAfterFinish(t *testing.T) {
	c := New("c1")
	m := c.AppendModel()
	require.NoError(t, c.AppendFragment(m.ID, "done"))
	require.NoError(t, c.Finish(m.ID))

	assert.ErrorIs(t, c.AppendFragment(m.ID, " more"), ErrNotStreaming)
	assert.ErrorIs(t, c.Fail(m.ID, "nope"), ErrNotStreaming)
	assert.ErrorIs(t, c.Finish(m.ID), ErrNotStreaming)

	got, _ := c.Get(m.ID)
	assert.Equal(t, "done", got.Text)
}

func TestConversation_FailReplacesText(t *testing.T) {
	c := New("c1")
	m := c.AppendModel()
	require.NoError(t, c.AppendFragment(m.ID, "partial answer"))
	require.NoError(t, c.Fail(m.ID, "An error occurred. Please try again."))

	got, _ := c.Get(m.ID)
	assert.Equal(t, "An error occurred. Please try again.", got.Text)
	assert.False(t, got.Streaming)
}

func TestConversation_UnknownMessage(t *testing.T) {
	c := New("c1")
	assert.ErrorIs(t, c.AppendFragment("missing", "x"), ErrUnknownMessage)

	m := c.AppendModel()
	c.Clear()
	assert.ErrorIs(t, c.AppendFragment(m.ID, "x"), ErrUnknownMessage)
	assert.Empty(t, c.Messages())
}

func TestConversation_ObserversSeeEveryStep(t *testing.T) {
	c := New("c1")
	var seen []string
	var kinds []EventKind
	unsubscribe := c.Subscribe(func(ev Event) {
		kinds = append(kinds, ev.Kind)
		if msg, ok := ev.Message(); ok && msg.Role == RoleModel {
			seen = append(seen, msg.Text)
		}
	})

	m := c.AppendModel()
	require.NoError(t, c.AppendFragment(m.ID, "a"))
	require.NoError(t, c.AppendFragment(m.ID, "b"))
	require.NoError(t, c.Finish(m.ID))

	assert.Equal(t, []string{"", "a", "ab", "ab"}, seen)
	assert.Equal(t, []EventKind{EventAppended, EventFragment, EventFragment, EventFinalized}, kinds)

	unsubscribe()
	c.AppendUser("ignored", "")
	assert.Len(t, kinds, 4)
}

func TestConversation_SnapshotsAreCopies(t *testing.T) {
	c := New("c1")
	m := c.AppendModel()
	var captured []Message
	c.Subscribe(func(ev Event) { captured = ev.Messages })

	require.NoError(t, c.AppendFragment(m.ID, "one"))
	captured[0].Text = "tampered"

	got, _ := c.Get(m.ID)
	assert.Equal(t, "one", got.Text)
}

func TestConversation_ConcurrentStreams(t *testing.T) {
	c := New("c1")
	a := c.AppendModel()
	b := c.AppendModel()
	assert.Equal(t, 2, c.Streaming())

	var wg sync.WaitGroup
	for _, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = c.AppendFragment(id, "x")
			}
			_ = c.Finish(id)
		}(id)
	}
	wg.Wait()

	for _, id := range []string{a.ID, b.ID} {
		got, _ := c.Get(id)
		assert.Equal(t, strings.Repeat("x", 100), got.Text)
	}
	assert.Equal(t, 0, c.Streaming())
}

func TestConversation_ClearIfIdle(t *testing.T) {
	c := New("")
	c.AppendUser("hi", "")
	m := c.AppendModel()

	var cleared int
	c.Subscribe(func(ev Event) {
		if ev.Kind == EventCleared {
			cleared++
		}
	})

	assert.False(t, c.ClearIfIdle())
	assert.Len(t, c.Messages(), 2)
	assert.Equal(t, 0, cleared)

	require.NoError(t, c.Finish(m.ID))
	assert.True(t, c.ClearIfIdle())
	assert.Empty(t, c.Messages())
	assert.Equal(t, 1, cleared)
}

func TestRestore_ClearsStreaming(t *testing.T) {
	c := Restore("c1", []Message{
		{ID: "1", Role: RoleUser, Text: "hi"},
		{ID: "2", Role: RoleModel, Text: "hel", Streaming: true},
	})
	assert.Equal(t, 0, c.Streaming())
	got, ok := c.Get("2")
	require.True(t, ok)
	assert.Equal(t, "hel", got.Text)
}

func TestRender_Idempotent(t *testing.T) {
	c := New("c1")
	c.AppendUser("what is new?", "data:image/png;base64,AAAA")
	m := c.AppendModel()
	require.NoError(t, c.AppendFragment(m.ID, "Plenty."))
	require.NoError(t, c.Finish(m.ID))

	v := DefaultView()
	first := v.Render(c.Messages())
	second := v.Render(c.Messages())
	assert.Equal(t, first, second)
	assert.Contains(t, first, "**You:** [image attached] what is new?")
	assert.Contains(t, first, "**Parsa AI:** Plenty.")
	assert.NotContains(t, first, "Thinking...")
}

func TestRender_StreamingAndSources(t *testing.T) {
	v := DefaultView()
	out := v.Render([]Message{
		{Role: RoleModel, Text: "Partial", Streaming: true},
		{Role: RoleModel, Text: "Cited", Sources: []models.GroundingSource{
			{URI: "https://a.example", Title: "A"},
			{URI: "https://b.example"},
		}},
	})
	assert.Contains(t, out, "**Parsa AI:** Partial _Thinking..._")
	assert.Contains(t, out, "Sources:\n- [A](https://a.example)\n- [https://b.example](https://b.example)\n")
}

func TestTerminalRenderer_Render(t *testing.T) {
	r, err := NewTerminalRenderer(DefaultView(), "notty", 60)
	require.NoError(t, err)

	out := r.Render([]Message{{Role: RoleModel, Text: "Hello there"}})
	assert.Contains(t, out, "Parsa AI")
	assert.Contains(t, out, "Hello there")
}
