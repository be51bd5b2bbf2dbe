package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Game Master
	ChatRoleSystem = "system"    // Prompt scaffolding, never persisted
)

// ChatMessage represents a single chat message in the conversation.
// The shape matches the chat-completions wire format.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// TranscriptMessage is a persisted chat message as returned to clients.
type TranscriptMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnRequest is a player action submitted to the turn endpoint.
// SessionID is optional; the most recently active session is used when omitted.
type TurnRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Action    string    `json:"action"`
}

// Validate checks the request before it reaches the turn processor.
func (tr *TurnRequest) Validate() error {
	if strings.TrimSpace(tr.Action) == "" {
		return fmt.Errorf("action cannot be empty")
	}
	return nil
}

// TurnResponse is the uniform result of a processed turn.
type TurnResponse struct {
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	Response  string     `json:"response,omitempty"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`
}

// IsValidRole reports whether a persisted transcript role is acceptable.
func IsValidRole(role string) bool {
	return role == ChatRoleUser || role == ChatRoleAgent
}
