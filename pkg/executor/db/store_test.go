package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentrooms/pkg/database"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	client, err := database.NewClient(database.Config{
		Path:         filepath.Join(dir, "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewStore(client.DB())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_PersistAndLoadMessages(t *testing.T) {
	store := newTestStore(t)
	roomID := values.RoomID("room-1")

	m := values.ChatMessage{
		ID:          values.MessageID("msg-1"),
		RoomID:      roomID,
		Sender:      values.AgentSender(values.AgentID("agent-1")),
		SenderName:  "Agent One",
		Content:     "hello",
		Type:        values.MessageChat,
		TimestampMS: 1000,
		Mentions:    []string{"agent-2"},
		Attachments: []values.Attachment{{Name: "f.txt", URL: "file://f.txt", ContentType: "text/plain"}},
	}
	require.NoError(t, store.PersistMessage(m))

	loaded, err := store.LoadMessages(roomID)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, m.ID, loaded[0].ID)
	assert.Equal(t, m.Sender, loaded[0].Sender)
	assert.Equal(t, m.Content, loaded[0].Content)
	assert.Equal(t, m.Mentions, loaded[0].Mentions)
	assert.Equal(t, m.Attachments, loaded[0].Attachments)
}

func TestStore_DeleteRoomMessages(t *testing.T) {
	store := newTestStore(t)
	roomID := values.RoomID("room-1")
	require.NoError(t, store.PersistMessage(values.ChatMessage{
		ID: "msg-1", RoomID: roomID, Sender: values.System, Type: values.MessageChat, TimestampMS: 1,
	}))

	require.NoError(t, store.DeleteRoomMessages(roomID))

	loaded, err := store.LoadMessages(roomID)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStore_UpsertTask(t *testing.T) {
	store := newTestStore(t)
	projectID := values.ProjectID("proj-1")
	task := values.Task{
		ID:          values.TaskID("task-1"),
		Title:       "build it",
		Priority:    1,
		Status:      values.TaskUnassigned,
		CreatedAtMS: 10,
	}
	require.NoError(t, store.UpsertTask(projectID, task))

	assignee := values.AgentID("agent-1")
	task.Status = values.TaskAssigned
	task.AssigneeID = &assignee
	task.AssignedAtMS = 20
	require.NoError(t, store.UpsertTask(projectID, task))
}

func TestStore_ArtifactRoundTrip(t *testing.T) {
	store := newTestStore(t)
	roomID := values.RoomID("room-1")

	_, found, err := store.ReadArtifact(roomID, "agent-1", "notes.md")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.WriteArtifact(roomID, "agent-1", "notes.md", "first draft", "art-1", 100))
	content, found, err := store.ReadArtifact(roomID, "agent-1", "notes.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "first draft", content)

	require.NoError(t, store.WriteArtifact(roomID, "agent-1", "notes.md", "second draft", "art-1", 200))
	content, found, err = store.ReadArtifact(roomID, "agent-1", "notes.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second draft", content)

	require.NoError(t, store.RenameArtifact(roomID, "agent-1", "notes.md", "notes-final.md", 300))
	_, found, err = store.ReadArtifact(roomID, "agent-1", "notes.md")
	require.NoError(t, err)
	assert.False(t, found)
	content, found, err = store.ReadArtifact(roomID, "agent-1", "notes-final.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second draft", content)

	require.NoError(t, store.DeleteArtifact(roomID, "agent-1", "notes-final.md"))
	_, found, err = store.ReadArtifact(roomID, "agent-1", "notes-final.md")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_ListArtifacts(t *testing.T) {
	store := newTestStore(t)
	roomID := values.RoomID("room-1")

	paths, err := store.ListArtifacts(roomID, "agent-1")
	require.NoError(t, err)
	assert.Empty(t, paths)

	require.NoError(t, store.WriteArtifact(roomID, "agent-1", "b.md", "b", "art-b", 100))
	require.NoError(t, store.WriteArtifact(roomID, "agent-1", "a.md", "a", "art-a", 100))
	require.NoError(t, store.WriteArtifact(roomID, "_shared_", "c.md", "c", "art-c", 100))

	paths, err = store.ListArtifacts(roomID, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.md"}, paths)
}

func TestStore_UpsertAgentAndRoom(t *testing.T) {
	store := newTestStore(t)
	cfg := values.AgentConfig{
		ID:                values.AgentID("agent-1"),
		Name:              "Agent One",
		Description:       "a test persona",
		PersonalityTraits: map[string]float64{"curiosity": 0.8},
		ResponseTendency:  0.5,
		Temperature:       0.7,
		Model:             "claude-haiku-4-5-20251001",
	}
	require.NoError(t, store.UpsertAgent(cfg, values.AgentIdle, 0, 0, 100, 100))

	room := values.RoomConfig{ID: values.RoomID("room-1"), Name: "Room One", CreatedAtMS: 100}
	require.NoError(t, store.UpsertRoom(room, 100))
}

func TestStore_AppendEvent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AppendEvent("session-1", "agent_response_error", map[string]any{"reason": "timeout"}, 100))
}

func TestStore_DeleteMessagesOlderThan(t *testing.T) {
	store := newTestStore(t)
	roomID := values.RoomID("room-1")

	require.NoError(t, store.PersistMessage(values.ChatMessage{
		ID: values.MessageID("old"), RoomID: roomID, Sender: values.AgentSender(values.AgentID("agent-1")),
		SenderName: "Agent One", Content: "old", Type: values.MessageChat, TimestampMS: 1000,
	}))
	require.NoError(t, store.PersistMessage(values.ChatMessage{
		ID: values.MessageID("new"), RoomID: roomID, Sender: values.AgentSender(values.AgentID("agent-1")),
		SenderName: "Agent One", Content: "new", Type: values.MessageChat, TimestampMS: 5000,
	}))

	n, err := store.DeleteMessagesOlderThan(2000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	loaded, err := store.LoadMessages(roomID)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, values.MessageID("new"), loaded[0].ID)
}

func TestStore_DeleteEventsOlderThan(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AppendEvent("session-1", "agent_response_error", nil, 1000))
	require.NoError(t, store.AppendEvent("session-1", "agent_response_error", nil, 5000))

	n, err := store.DeleteEventsOlderThan(2000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
