package stores

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Desarso/parsa/conversation"
	"github.com/Desarso/parsa/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStoreSimple(filepath.Join(t.TempDir(), "history.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Ping())

	user := conversation.Message{ID: "u1", Role: conversation.RoleUser, Text: "where is the nearest cafe?", Image: "data:image/png;base64,AAAA"}
	model := conversation.Message{ID: "m1", Role: conversation.RoleModel, Streaming: true}
	require.NoError(t, store.SaveMessage("c1", user))
	require.NoError(t, store.SaveMessage("c1", model))

	model.Text = "Around the corner."
	model.Streaming = false
	model.Sources = []models.GroundingSource{{URI: "https://maps.example/1", Title: "Cafe"}}
	require.NoError(t, store.SaveMessage("c1", model))

	history, err := store.FetchHistory("c1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "u1", history[0].ID)
	assert.Equal(t, conversation.RoleUser, history[0].Role)
	assert.Equal(t, user.Image, history[0].Image)
	assert.Equal(t, "m1", history[1].ID)
	assert.Equal(t, "Around the corner.", history[1].Text)
	assert.False(t, history[1].Streaming)
	assert.Equal(t, model.Sources, history[1].Sources)

	convs, err := store.ListConversations()
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "c1", convs[0].ConversationID)
	assert.Equal(t, "where is the nearest cafe?", convs[0].Title)
	assert.Equal(t, 2, convs[0].MessageCount)
}

func TestSQLiteStore_FetchHistoryLimit(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.SaveMessage("c1", conversation.Message{ID: id, Role: conversation.RoleUser, Text: id}))
	}

	history, err := store.FetchHistory("c1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "c", history[0].ID)
	assert.Equal(t, "d", history[1].ID)
}

func TestSQLiteStore_DeleteConversation(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveMessage("c1", conversation.Message{ID: "u1", Role: conversation.RoleUser, Text: "hi"}))
	require.NoError(t, store.DeleteConversation("c1"))

	history, err := store.FetchHistory("c1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	// the id can be archived again after a clear
	require.NoError(t, store.SaveMessage("c1", conversation.Message{ID: "u2", Role: conversation.RoleUser, Text: "again"}))
	convs, err := store.ListConversations()
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "again", convs[0].Title)
}

func TestNewStore_Types(t *testing.T) {
	store, err := NewStore(NewStoreConfig("memory", ""))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Ping())

	_, err = NewStore(NewStoreConfig("mysql", ""))
	assert.Error(t, err)

	_, err = NewStore(NewStoreConfig("postgres", ""))
	assert.Error(t, err)
}

func TestTitleFrom(t *testing.T) {
	assert.Equal(t, "short", titleFrom("short"))
	long := strings.Repeat("é", 70)
	assert.Equal(t, strings.Repeat("é", 60)+"...", titleFrom(long))
}

func TestLocalImageStore_SaveAndPrune(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalImageStore(dir, "http://example.test/", zerolog.Nop())
	require.NoError(t, err)

	url, err := store.SaveImage(context.Background(), models.Image{MimeType: "image/jpeg", Data: []byte("jpeg")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://example.test/images/generated_image_"), url)
	assert.True(t, strings.HasSuffix(url, ".jpg"), url)

	name := filepath.Base(url)
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	old := filepath.Join(dir, "generated_image_old.png")
	require.NoError(t, os.WriteFile(old, []byte("png"), 0644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	unrelated := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0644))
	require.NoError(t, os.Chtimes(unrelated, past, past))

	n, err := store.Prune(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, old)
	assert.FileExists(t, unrelated)
	assert.FileExists(t, filepath.Join(dir, name))
}

func TestImageExtension(t *testing.T) {
	assert.Equal(t, "png", imageExtension("image/png"))
	assert.Equal(t, "jpg", imageExtension("image/jpeg"))
	assert.Equal(t, "webp", imageExtension("image/webp"))
	assert.Equal(t, "png", imageExtension(""))
}

type fakeEvictor struct {
	idle []time.Duration
}

func (f *fakeEvictor) Evict(idle time.Duration) int {
	f.idle = append(f.idle, idle)
	return 3
}

type fakeImageStore struct {
	cutoff time.Time
}

func (f *fakeImageStore) SaveImage(context.Context, models.Image) (string, error) { return "", nil }

func (f *fakeImageStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	return 2, nil
}

func TestJanitor_RunOnce(t *testing.T) {
	images := &fakeImageStore{}
	evictor := &fakeEvictor{}
	j := NewJanitor(JanitorConfig{ImageMaxAge: time.Hour, ConversationIdle: 30 * time.Minute}, images, evictor, zerolog.Nop())
	fixed := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return fixed }

	report, err := j.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{ImagesPruned: 2, ConversationsEvicted: 3}, report)
	assert.Equal(t, fixed.Add(-time.Hour), images.cutoff)
	assert.Equal(t, []time.Duration{30 * time.Minute}, evictor.idle)
}

func TestJanitor_DisabledHalves(t *testing.T) {
	images := &fakeImageStore{}
	evictor := &fakeEvictor{}
	j := NewJanitor(JanitorConfig{}, images, evictor, zerolog.Nop())

	report, err := j.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.True(t, images.cutoff.IsZero())
	assert.Empty(t, evictor.idle)
}

func TestJanitor_StartRejectsBadSchedule(t *testing.T) {
	j := NewJanitor(JanitorConfig{Schedule: "not a schedule"}, nil, nil, zerolog.Nop())
	assert.Error(t, j.Start())

	ok := NewJanitor(JanitorConfig{Schedule: "@every 1h"}, nil, nil, zerolog.Nop())
	require.NoError(t, ok.Start())
	<-ok.Stop().Done()
}
