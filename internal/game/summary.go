package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/internal/services"
	"github.com/jwebster45206/eryndor/pkg/prompts"
	"github.com/jwebster45206/eryndor/pkg/storage"
)

// SummaryMessageLimit is how much of the transcript a summary covers.
const SummaryMessageLimit = 50

// Summary is a player's stored adventure summary.
type Summary struct {
	Summary       *string    `json:"summary"`
	LastSummaryAt *time.Time `json:"last_summary_at"`
}

// SummaryService condenses a player's recent transcript into an adventure
// summary that later prompts carry forward.
type SummaryService struct {
	store  storage.Storage
	llm    services.LLMService
	logger *slog.Logger
	now    func() time.Time
}

func NewSummaryService(store storage.Storage, llm services.LLMService, logger *slog.Logger) *SummaryService {
	return &SummaryService{
		store:  store,
		llm:    llm,
		logger: logger,
		now:    time.Now,
	}
}

// Generate summarises the player's latest messages across all sessions and
// stores the result on the profile.
func (s *SummaryService) Generate(ctx context.Context, playerID uuid.UUID) (string, error) {
	if err := requirePlayer(playerID); err != nil {
		return "", err
	}

	profile, err := s.store.GetProfile(ctx, playerID)
	if err != nil {
		return "", notFound(err, ErrProfileNotFound)
	}

	messages, err := s.store.ListPlayerMessages(ctx, playerID, SummaryMessageLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load messages: %w", err)
	}
	if len(messages) == 0 {
		return "", ErrNoHistory
	}

	prompt, err := prompts.BuildSummaryPrompt(profile, messages)
	if err != nil {
		return "", fmt.Errorf("failed to build summary prompt: %w", err)
	}

	summary, err := s.llm.GenerateSummary(ctx, prompt)
	if err != nil {
		if errors.Is(err, services.ErrMissingAPIKey) {
			return "", ErrAINotConfigured
		}
		s.logger.Error("Summary generation failed", "error", err, "player_id", playerID)
		return "", ErrSummaryFailed
	}
	if strings.TrimSpace(summary) == "" {
		return "", ErrSummaryFailed
	}

	if err := s.store.UpdateAdventureSummary(ctx, playerID, summary, s.now()); err != nil {
		return "", fmt.Errorf("failed to save summary: %w", err)
	}

	s.logger.Info("Adventure summary updated", "player_id", playerID, "messages", len(messages))
	return summary, nil
}

// Get returns the stored summary, which may be empty.
func (s *SummaryService) Get(ctx context.Context, playerID uuid.UUID) (*Summary, error) {
	if err := requirePlayer(playerID); err != nil {
		return nil, err
	}
	profile, err := s.store.GetProfile(ctx, playerID)
	if err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return &Summary{
		Summary:       profile.AdventureSummary,
		LastSummaryAt: profile.LastSummaryAt,
	}, nil
}
