package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/pkg/chat"
	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/jwebster45206/eryndor/pkg/storage"
)

// SessionView is a session with its full transcript.
type SessionView struct {
	Session  state.GameSession        `json:"session"`
	Messages []chat.TranscriptMessage `json:"messages"`
}

// SessionService resumes play where the player left off.
type SessionService struct {
	store  storage.Storage
	logger *slog.Logger
}

func NewSessionService(store storage.Storage, logger *slog.Logger) *SessionService {
	return &SessionService{store: store, logger: logger}
}

// Resume returns the most recently active session, creating one for a new
// player, together with its transcript in chronological order.
func (s *SessionService) Resume(ctx context.Context, playerID uuid.UUID) (*SessionView, error) {
	if err := requirePlayer(playerID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetProfile(ctx, playerID); err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}

	session, err := latestOrNewSession(ctx, s.store, playerID)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.ListSessionMessages(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	transcript := make([]chat.TranscriptMessage, 0, len(messages))
	for _, m := range messages {
		transcript = append(transcript, chat.TranscriptMessage{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.CreatedAt,
		})
	}
	return &SessionView{Session: *session, Messages: transcript}, nil
}
