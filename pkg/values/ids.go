// Package values holds the immutable domain data shared by the interpreters:
// identifiers, chat messages, and the per-actor-kind state records.
package values

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// RoomID, AgentID, MessageID, ProjectID, TaskID are opaque, unique,
// URL-safe strings. They are distinct Go types so the compiler catches
// passing the wrong kind of identifier to an interpreter.
type (
	RoomID    string
	AgentID   string
	MessageID string
	ProjectID string
	TaskID    string
	UserID    string
)

// SenderKind distinguishes the three possible originators of a ChatMessage.
type SenderKind string

const (
	SenderAgent  SenderKind = "agent"
	SenderUser   SenderKind = "user"
	SenderSystem SenderKind = "system"
)

// SenderID is a union of {agent:AgentID, user:UserID, system}.
type SenderID struct {
	Kind SenderKind
	ID   string // empty when Kind == SenderSystem
}

// System is the well-known sender for synthesised system lines.
var System = SenderID{Kind: SenderSystem}

func UserSender(id UserID) SenderID  { return SenderID{Kind: SenderUser, ID: string(id)} }
func AgentSender(id AgentID) SenderID { return SenderID{Kind: SenderAgent, ID: string(id)} }

func (s SenderID) IsSystem() bool { return s.Kind == SenderSystem }

func (s SenderID) String() string {
	if s.Kind == SenderSystem {
		return "system"
	}
	return fmt.Sprintf("%s:%s", s.Kind, s.ID)
}

// ActorKind identifies which of the four interpreter kinds owns an address.
type ActorKind string

const (
	KindRoom     ActorKind = "room"
	KindAgent    ActorKind = "agent"
	KindProject  ActorKind = "project"
	KindDirector ActorKind = "director"
)

// ActorAddress is the runtime's routing key: (kind, id).
type ActorAddress struct {
	Kind ActorKind
	ID   string
}

// DirectorAddress is the one and only director instance.
var DirectorAddress = ActorAddress{Kind: KindDirector, ID: "main"}

func RoomAddress(id RoomID) ActorAddress    { return ActorAddress{Kind: KindRoom, ID: string(id)} }
func AgentAddress(id AgentID) ActorAddress  { return ActorAddress{Kind: KindAgent, ID: string(id)} }
func ProjectAddress(id ProjectID) ActorAddress {
	return ActorAddress{Kind: KindProject, ID: string(id)}
}

func (a ActorAddress) String() string {
	return fmt.Sprintf("%s:%s", a.Kind, a.ID)
}

// NewID returns a URL-safe opaque identifier, e.g. "msg_k3j9f2a1".
// Runtime-generated; interpreters never call this (spec §4.1: no randomness
// inside a transition — ids needed by an interpreter arrive in the message).
func NewID(prefix string) string {
	var buf [10]byte
	_, _ = rand.Read(buf[:])
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(buf[:]))
	if prefix == "" {
		return suffix
	}
	return prefix + "_" + suffix
}
