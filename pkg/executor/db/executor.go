package db

import (
	"log/slog"
	"time"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/interpreter"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// Sender is the one method of *runtime.Runtime this package depends on. It
// is declared locally rather than imported from pkg/runtime to avoid a
// pkg/runtime <-> pkg/executor/db import cycle (pkg/runtime already depends
// on the port interfaces this package implements).
type Sender interface {
	Send(target values.ActorAddress, msg any)
}

// Executor adapts Store to the runtime's PersistenceExecutor port. It never
// panics: every failure is logged and swallowed, matching spec §7's policy
// that an executor failure degrades the feature, not the process.
type Executor struct {
	store  *Store
	sender Sender
}

// NewExecutor builds a persistence Executor. sender may be nil if no
// producer in this runtime configuration emits a read effect
// (KindDBLoadMessages); Execute logs and drops such effects in that case.
func NewExecutor(store *Store, sender Sender) *Executor {
	return &Executor{store: store, sender: sender}
}

// Execute performs one DB_* effect synchronously on the dispatcher's
// persistence worker goroutine (spec §6 "synchronous prepared statements").
func (ex *Executor) Execute(e effects.Effect) {
	switch e.Kind {
	case effects.KindDBPersistMessage:
		ex.persistMessage(e)
	case effects.KindDBDeleteRoomMessages:
		ex.deleteRoomMessages(e)
	case effects.KindDBUpdateTask:
		ex.updateTask(e)
	case effects.KindDBUpsertAgent:
		ex.upsertAgent(e)
	case effects.KindDBUpsertRoom:
		ex.upsertRoom(e)
	case effects.KindDBLoadMessages:
		ex.loadMessages(e)
	case effects.KindDBWriteArtifact:
		ex.writeArtifact(e)
	case effects.KindDBReadArtifact:
		ex.readArtifact(e)
	case effects.KindDBDeleteArtifact:
		ex.deleteArtifact(e)
	case effects.KindDBRenameArtifact:
		ex.renameArtifact(e)
	case effects.KindDBAppendEvent:
		ex.appendEvent(e)
	default:
		slog.Warn("persistence executor received effect outside its category", "kind", e.Kind)
	}
}

func (ex *Executor) persistMessage(e effects.Effect) {
	if e.Message == nil {
		slog.Error("DB_PERSIST_MESSAGE effect missing Message payload")
		return
	}
	if err := ex.store.PersistMessage(*e.Message); err != nil {
		slog.Error("persist message failed", "room_id", e.Message.RoomID, "message_id", e.Message.ID, "error", err)
	}
}

func (ex *Executor) deleteRoomMessages(e effects.Effect) {
	if err := ex.store.DeleteRoomMessages(e.RoomID); err != nil {
		slog.Error("delete room messages failed", "room_id", e.RoomID, "error", err)
	}
}

func (ex *Executor) updateTask(e effects.Effect) {
	if e.Task == nil {
		slog.Error("DB_UPDATE_TASK effect missing Task payload")
		return
	}
	if err := ex.store.UpsertTask(e.ProjectID, *e.Task); err != nil {
		slog.Error("upsert task failed", "project_id", e.ProjectID, "task_id", e.Task.ID, "error", err)
	}
}

func (ex *Executor) upsertAgent(e effects.Effect) {
	if e.AgentSnapshot == nil {
		slog.Error("DB_UPSERT_AGENT effect missing AgentSnapshot payload")
		return
	}
	cfg := *e.AgentSnapshot
	if err := ex.store.UpsertAgent(cfg, values.AgentIdle, 0, 0, 0, 0); err != nil {
		slog.Error("upsert agent failed", "agent_id", cfg.ID, "error", err)
	}
}

func (ex *Executor) upsertRoom(e effects.Effect) {
	if e.RoomSnapshot == nil {
		slog.Error("DB_UPSERT_ROOM effect missing RoomSnapshot payload")
		return
	}
	cfg := *e.RoomSnapshot
	if err := ex.store.UpsertRoom(cfg, cfg.CreatedAtMS); err != nil {
		slog.Error("upsert room failed", "room_id", cfg.ID, "error", err)
	}
}

func (ex *Executor) loadMessages(e effects.Effect) {
	msgs, err := ex.store.LoadMessages(e.RoomID)
	if err != nil {
		slog.Error("load messages failed", "room_id", e.RoomID, "error", err)
		return
	}
	if ex.sender == nil || e.Target == (values.ActorAddress{}) {
		slog.Warn("DB_LOAD_MESSAGES has no reply route configured", "room_id", e.RoomID)
		return
	}
	ex.sender.Send(e.Target, interpreter.MessagesLoaded{Messages: msgs})
}

func (ex *Executor) writeArtifact(e effects.Effect) {
	ref := e.ArtifactRef
	if ref == nil {
		slog.Error("DB_WRITE_ARTIFACT effect missing ArtifactRef payload")
		return
	}
	if err := ex.store.WriteArtifact(ref.RoomID, ref.AgentID, ref.Path, ref.Content, values.NewID("art"), nowMSOrZero()); err != nil {
		slog.Error("write artifact failed", "room_id", ref.RoomID, "agent_id", ref.AgentID, "path", ref.Path, "error", err)
	}
}

func (ex *Executor) readArtifact(e effects.Effect) {
	ref := e.ArtifactRef
	if ref == nil {
		slog.Error("DB_READ_ARTIFACT effect missing ArtifactRef payload")
		return
	}
	content, found, err := ex.store.ReadArtifact(ref.RoomID, ref.AgentID, ref.Path)
	if err != nil {
		slog.Error("read artifact failed", "room_id", ref.RoomID, "agent_id", ref.AgentID, "path", ref.Path, "error", err)
		return
	}
	if ex.sender == nil || e.Target == (values.ActorAddress{}) {
		slog.Warn("DB_READ_ARTIFACT has no reply route configured", "room_id", ref.RoomID, "path", ref.Path)
		return
	}
	ex.sender.Send(e.Target, ArtifactRead{RoomID: ref.RoomID, AgentID: ref.AgentID, Path: ref.Path, Content: content, Found: found})
}

func (ex *Executor) deleteArtifact(e effects.Effect) {
	ref := e.ArtifactRef
	if ref == nil {
		slog.Error("DB_DELETE_ARTIFACT effect missing ArtifactRef payload")
		return
	}
	if err := ex.store.DeleteArtifact(ref.RoomID, ref.AgentID, ref.Path); err != nil {
		slog.Error("delete artifact failed", "room_id", ref.RoomID, "agent_id", ref.AgentID, "path", ref.Path, "error", err)
	}
}

func (ex *Executor) renameArtifact(e effects.Effect) {
	ref := e.ArtifactRef
	if ref == nil {
		slog.Error("DB_RENAME_ARTIFACT effect missing ArtifactRef payload")
		return
	}
	if err := ex.store.RenameArtifact(ref.RoomID, ref.AgentID, ref.Path, ref.NewPath, nowMSOrZero()); err != nil {
		slog.Error("rename artifact failed", "room_id", ref.RoomID, "agent_id", ref.AgentID, "path", ref.Path, "new_path", ref.NewPath, "error", err)
	}
}

func (ex *Executor) appendEvent(e effects.Effect) {
	entry := e.EventLog
	if entry == nil {
		slog.Error("DB_APPEND_EVENT effect missing EventLog payload")
		return
	}
	if err := ex.store.AppendEvent(entry.SessionID, entry.EventType, entry.EventData, nowMSOrZero()); err != nil {
		slog.Error("append event failed", "session_id", entry.SessionID, "event_type", entry.EventType, "error", err)
	}
}

// ArtifactRead is the reply message for a KindDBReadArtifact effect.
type ArtifactRead struct {
	RoomID  values.RoomID
	AgentID string
	Path    string
	Content string
	Found   bool
}

// nowMSOrZero stamps rows this package writes for state the interpreters
// never timestamp themselves (artifact/event bookkeeping, not domain state).
// Effects that need a deterministic, replayable timestamp carry one from the
// interpreter instead (e.g. ChatMessage.TimestampMS); this executor-local
// clock read never feeds back into a pure transition.
func nowMSOrZero() int64 {
	return time.Now().UnixMilli()
}
