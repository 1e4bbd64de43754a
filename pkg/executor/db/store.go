// Package db is the persistence executor (spec §6 "synchronous prepared
// statements"). Store owns every prepared statement against the embedded
// SQLite handle; Executor adapts Store to the runtime's PersistenceExecutor
// port. The tool executor's memory tool imports Store directly for the
// artifact table, since it needs a read-before-reply result synchronously
// within one EXECUTE_TOOLS_BATCH call, not a round trip through the
// persistence effect queue (see DESIGN.md).
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// Store wraps the shared *sql.DB with one prepared statement per write/read
// path named in spec §6's persistence schema.
type Store struct {
	db *sql.DB

	insertMessage       *sql.Stmt
	deleteRoomMessages  *sql.Stmt
	loadMessages        *sql.Stmt
	upsertTask          *sql.Stmt
	upsertAgent         *sql.Stmt
	upsertRoom          *sql.Stmt
	insertEvent         *sql.Stmt
	readArtifact        *sql.Stmt
	writeArtifact       *sql.Stmt
	deleteArtifact      *sql.Stmt
	renameArtifact      *sql.Stmt
	listArtifacts       *sql.Stmt
	deleteOldMessages   *sql.Stmt
	deleteOldEvents     *sql.Stmt
}

// NewStore prepares every statement Store needs. db must already have its
// schema migrated (pkg/database.NewClient does this before handing the
// connection to callers).
func NewStore(sqlDB *sql.DB) (*Store, error) {
	s := &Store{db: sqlDB}
	stmts := []struct {
		dst  **sql.Stmt
		text string
	}{
		{&s.insertMessage, `INSERT INTO messages (id, room_id, sender_id, sender_name, content, type, mentions, attachments, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&s.deleteRoomMessages, `DELETE FROM messages WHERE room_id = ?`},
		{&s.loadMessages, `SELECT id, room_id, sender_id, sender_name, content, type, mentions, attachments, created_at FROM messages WHERE room_id = ? ORDER BY created_at ASC`},
		{&s.upsertTask, `INSERT INTO tasks (id, project_id, title, description, priority, status, assignee_id, artifacts, error_message, created_at, assigned_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				status = excluded.status, assignee_id = excluded.assignee_id, artifacts = excluded.artifacts,
				error_message = excluded.error_message, assigned_at = excluded.assigned_at, completed_at = excluded.completed_at`},
		{&s.upsertAgent, `INSERT INTO agents (id, name, description, system_prompt, personality_traits, speaking_style, interests, response_tendency, temperature, model, status, message_count, last_spoke_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, description = excluded.description, status = excluded.status,
				message_count = excluded.message_count, last_spoke_at = excluded.last_spoke_at, updated_at = excluded.updated_at`},
		{&s.upsertRoom, `INSERT INTO rooms (id, name, description, topic, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description, topic = excluded.topic, updated_at = excluded.updated_at`},
		{&s.insertEvent, `INSERT INTO event_log (session_id, event_type, event_data, created_at) VALUES (?, ?, ?, ?)`},
		{&s.readArtifact, `SELECT content FROM artifacts WHERE room_id = ? AND agent_id = ? AND path = ?`},
		{&s.writeArtifact, `INSERT INTO artifacts (id, room_id, agent_id, path, content, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(room_id, agent_id, path) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`},
		{&s.deleteArtifact, `DELETE FROM artifacts WHERE room_id = ? AND agent_id = ? AND path = ?`},
		{&s.renameArtifact, `UPDATE artifacts SET path = ?, updated_at = ? WHERE room_id = ? AND agent_id = ? AND path = ?`},
		{&s.listArtifacts, `SELECT path FROM artifacts WHERE room_id = ? AND agent_id = ? ORDER BY path ASC`},
		{&s.deleteOldMessages, `DELETE FROM messages WHERE created_at < ?`},
		{&s.deleteOldEvents, `DELETE FROM event_log WHERE created_at < ?`},
	}
	for _, stmt := range stmts {
		prepared, err := sqlDB.Prepare(stmt.text)
		if err != nil {
			return nil, fmt.Errorf("prepare statement: %w", err)
		}
		*stmt.dst = prepared
	}
	return s, nil
}

func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{
		s.insertMessage, s.deleteRoomMessages, s.loadMessages, s.upsertTask,
		s.upsertAgent, s.upsertRoom, s.insertEvent, s.readArtifact,
		s.writeArtifact, s.deleteArtifact, s.renameArtifact, s.listArtifacts,
		s.deleteOldMessages, s.deleteOldEvents,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return nil
}

// PersistMessage inserts one chat message (spec §6 messages table).
func (s *Store) PersistMessage(m values.ChatMessage) error {
	mentions, err := json.Marshal(m.Mentions)
	if err != nil {
		return fmt.Errorf("marshal mentions: %w", err)
	}
	attachments, err := json.Marshal(m.Attachments)
	if err != nil {
		return fmt.Errorf("marshal attachments: %w", err)
	}
	_, err = s.insertMessage.Exec(string(m.ID), string(m.RoomID), m.Sender.String(), m.SenderName, m.Content, string(m.Type), mentions, attachments, m.TimestampMS)
	return err
}

// DeleteRoomMessages removes every persisted message for a room (spec §8 S5
// "Room reset"). The in-memory ring is cleared by the interpreter itself.
func (s *Store) DeleteRoomMessages(roomID values.RoomID) error {
	_, err := s.deleteRoomMessages.Exec(string(roomID))
	return err
}

// LoadMessages returns every persisted message for a room in chronological
// order, for cold-start room hydration (spec §8 "Round-trips").
func (s *Store) LoadMessages(roomID values.RoomID) ([]values.ChatMessage, error) {
	rows, err := s.loadMessages.Query(string(roomID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []values.ChatMessage
	for rows.Next() {
		var m values.ChatMessage
		var id, room, senderID, msgType string
		var mentionsJSON, attachmentsJSON []byte
		if err := rows.Scan(&id, &room, &senderID, &m.SenderName, &m.Content, &msgType, &mentionsJSON, &attachmentsJSON, &m.TimestampMS); err != nil {
			return nil, err
		}
		m.ID = values.MessageID(id)
		m.RoomID = values.RoomID(room)
		m.Type = values.MessageType(msgType)
		m.Sender = parseSenderID(senderID)
		if err := json.Unmarshal(mentionsJSON, &m.Mentions); err != nil {
			return nil, fmt.Errorf("unmarshal mentions: %w", err)
		}
		if err := json.Unmarshal(attachmentsJSON, &m.Attachments); err != nil {
			return nil, fmt.Errorf("unmarshal attachments: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func parseSenderID(s string) values.SenderID {
	if s == "system" {
		return values.System
	}
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			kind, id := s[:i], s[i+1:]
			return values.SenderID{Kind: values.SenderKind(kind), ID: id}
		}
	}
	return values.SenderID{Kind: values.SenderSystem}
}

// UpsertTask persists one task, keyed by id (spec §4.4 Project interpreter
// "dbUpdateTask").
func (s *Store) UpsertTask(projectID values.ProjectID, t values.Task) error {
	artifacts, err := json.Marshal(t.Artifacts)
	if err != nil {
		return fmt.Errorf("marshal artifacts: %w", err)
	}
	var assignee any
	if t.AssigneeID != nil {
		assignee = string(*t.AssigneeID)
	}
	_, err = s.upsertTask.Exec(
		string(t.ID), string(projectID), t.Title, t.Description, t.Priority, string(t.Status),
		assignee, artifacts, t.ErrorMessage, t.CreatedAtMS, t.AssignedAtMS, t.CompletedAtMS,
	)
	return err
}

// UpsertAgent persists an agent's catalogue entry (spec §6 agents table).
func (s *Store) UpsertAgent(cfg values.AgentConfig, status values.AgentStatus, messageCount int, lastSpokeAtMS int64, createdAtMS, updatedAtMS int64) error {
	traits, err := json.Marshal(cfg.PersonalityTraits)
	if err != nil {
		return fmt.Errorf("marshal personality traits: %w", err)
	}
	interests, err := json.Marshal([]string{})
	if err != nil {
		return err
	}
	_, err = s.upsertAgent.Exec(
		string(cfg.ID), cfg.Name, cfg.Description, cfg.Description, traits, "", interests,
		cfg.ResponseTendency, cfg.Temperature, cfg.Model, string(status), messageCount, lastSpokeAtMS,
		createdAtMS, updatedAtMS,
	)
	return err
}

// UpsertRoom persists a room's catalogue entry (spec §6 rooms table).
func (s *Store) UpsertRoom(cfg values.RoomConfig, updatedAtMS int64) error {
	_, err := s.upsertRoom.Exec(string(cfg.ID), cfg.Name, cfg.Description, cfg.Topic, cfg.CreatedAtMS, updatedAtMS)
	return err
}

// AppendEvent writes one audit row to event_log (spec §4.2 "Failure semantics").
func (s *Store) AppendEvent(sessionID, eventType string, data map[string]any, createdAtMS int64) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	_, err = s.insertEvent.Exec(sessionID, eventType, payload, createdAtMS)
	return err
}

// ReadArtifact returns the stored content for (roomId, agentId, path), or
// ("", false, nil) when absent. agentID "_shared_" is the room-wide store
// (spec §4.7 "memory").
func (s *Store) ReadArtifact(roomID values.RoomID, agentID, path string) (string, bool, error) {
	var content string
	err := s.readArtifact.QueryRow(string(roomID), agentID, path).Scan(&content)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return content, true, nil
}

// WriteArtifact creates or overwrites the stored content for a path.
func (s *Store) WriteArtifact(roomID values.RoomID, agentID, path, content string, id string, nowMS int64) error {
	_, err := s.writeArtifact.Exec(id, string(roomID), agentID, path, content, nowMS, nowMS)
	return err
}

// DeleteArtifact removes one stored path.
func (s *Store) DeleteArtifact(roomID values.RoomID, agentID, path string) error {
	_, err := s.deleteArtifact.Exec(string(roomID), agentID, path)
	return err
}

// RenameArtifact moves content from oldPath to newPath within one agent's store.
func (s *Store) RenameArtifact(roomID values.RoomID, agentID, oldPath, newPath string, nowMS int64) error {
	_, err := s.renameArtifact.Exec(newPath, nowMS, string(roomID), agentID, oldPath)
	return err
}

// ListArtifacts returns every stored path for (roomId, agentId), for the
// memory tool's directory-style "view" with no path (spec §4.7 "memory").
func (s *Store) ListArtifacts(roomID values.RoomID, agentID string) ([]string, error) {
	rows, err := s.listArtifacts.Query(string(roomID), agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, rows.Err()
}

// DeleteMessagesOlderThan removes every message persisted before cutoffMS
// and reports how many rows were removed, for the retention sweep (pkg/cleanup).
func (s *Store) DeleteMessagesOlderThan(cutoffMS int64) (int64, error) {
	res, err := s.deleteOldMessages.Exec(cutoffMS)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteEventsOlderThan removes every event_log row past its TTL.
func (s *Store) DeleteEventsOlderThan(cutoffMS int64) (int64, error) {
	res, err := s.deleteOldEvents.Exec(cutoffMS)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
