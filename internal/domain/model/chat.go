package model

import (
	"sort"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one immutable turn inside a session. Timestamp is epoch
// millis; ordering is by timestamp, not insertion order, because some stages
// prepend or append out of order.
type ChatMessage struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// SessionMemory is the short-lived conversation history for one
// (tenant, session) key. Mutated only through Append and TrimToWindow.
type SessionMemory struct {
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func NewSessionMemory() *SessionMemory {
	now := time.Now()
	return &SessionMemory{
		Messages:  make([]ChatMessage, 0, 8),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (m *SessionMemory) Append(role Role, content string) {
	m.Messages = append(m.Messages, ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	})
	m.UpdatedAt = time.Now()
}

// TrimToWindow keeps only the most recent window messages, by timestamp.
func (m *SessionMemory) TrimToWindow(window int) {
	m.sortByTimestamp()
	if window <= 0 || len(m.Messages) <= window {
		return
	}
	m.Messages = m.Messages[len(m.Messages)-window:]
}

// Since drops messages older than the retention horizon. Zero horizon keeps
// everything.
func (m *SessionMemory) Since(horizon time.Duration, now time.Time) {
	if horizon <= 0 {
		return
	}
	cut := now.Add(-horizon).UnixMilli()
	kept := m.Messages[:0]
	for _, msg := range m.Messages {
		if msg.Timestamp >= cut {
			kept = append(kept, msg)
		}
	}
	m.Messages = kept
}

// Ordered returns the messages sorted by timestamp (stable, so same-millis
// messages keep their insertion order).
func (m *SessionMemory) Ordered() []ChatMessage {
	m.sortByTimestamp()
	return m.Messages
}

func (m *SessionMemory) sortByTimestamp() {
	sort.SliceStable(m.Messages, func(i, j int) bool {
		return m.Messages[i].Timestamp < m.Messages[j].Timestamp
	})
}
