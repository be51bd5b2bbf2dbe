package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/internal/metrics"
	"github.com/jwebster45206/eryndor/internal/services"
	"github.com/jwebster45206/eryndor/pkg/chat"
	"github.com/jwebster45206/eryndor/pkg/prompts"
	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/jwebster45206/eryndor/pkg/storage"
)

// TurnProcessor runs one player turn end to end: persist the action, load
// the surrounding world, ask the model, persist the narrative and apply the
// reply to the store. It never retries; the player replays the action.
type TurnProcessor struct {
	store      storage.Storage
	llm        services.LLMService
	reconciler *Reconciler
	logger     *slog.Logger
	now        func() time.Time
}

// NewTurnProcessor creates a new turn processor
func NewTurnProcessor(store storage.Storage, llm services.LLMService, reconciler *Reconciler, logger *slog.Logger) *TurnProcessor {
	return &TurnProcessor{
		store:      store,
		llm:        llm,
		reconciler: reconciler,
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessTurn handles a player action. Every failure is reported in the
// returned response rather than as an error.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, playerID uuid.UUID, req chat.TurnRequest) *chat.TurnResponse {
	narrative, sessionID, err := p.process(ctx, playerID, req)

	var sid *uuid.UUID
	if sessionID != uuid.Nil {
		sid = &sessionID
	}

	if err != nil {
		metrics.TurnsTotal.WithLabelValues(metrics.StatusError).Inc()
		p.logger.Error("Turn failed",
			"error", err,
			"player_id", playerID,
			"session_id", sessionID)
		return &chat.TurnResponse{
			Success:   false,
			Error:     UserMessage(err),
			SessionID: sid,
		}
	}

	metrics.TurnsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	return &chat.TurnResponse{
		Success:   true,
		Response:  narrative,
		SessionID: sid,
	}
}

func (p *TurnProcessor) process(ctx context.Context, playerID uuid.UUID, req chat.TurnRequest) (string, uuid.UUID, error) {
	if err := requirePlayer(playerID); err != nil {
		return "", uuid.Nil, err
	}
	if err := req.Validate(); err != nil {
		return "", uuid.Nil, ErrEmptyAction
	}

	profile, err := p.store.GetProfile(ctx, playerID)
	if err != nil {
		return "", uuid.Nil, notFound(err, ErrProfileNotFound)
	}

	session, err := p.resolveSession(ctx, playerID, req.SessionID)
	if err != nil {
		return "", uuid.Nil, err
	}

	// History is read before the new action is stored so it only holds
	// earlier exchanges.
	history, err := p.store.ListRecentMessages(ctx, session.ID, services.HistoryWindow)
	if err != nil {
		return "", session.ID, fmt.Errorf("failed to load history: %w", err)
	}

	// The action stays in the transcript even if the model call fails.
	if err := p.store.SaveMessage(ctx, &state.Message{
		PlayerID:  playerID,
		SessionID: session.ID,
		Role:      chat.ChatRoleUser,
		Content:   req.Action,
	}); err != nil {
		return "", session.ID, fmt.Errorf("failed to save user message: %w", err)
	}

	systemPrompt, err := p.buildPrompt(ctx, profile)
	if err != nil {
		return "", session.ID, err
	}

	p.logger.Debug("Sending turn to model",
		"player_id", playerID,
		"session_id", session.ID,
		"history", len(history))

	reply, err := p.llm.GenerateTurn(ctx, systemPrompt, toChatMessages(history), req.Action)
	if err != nil {
		return "", session.ID, err
	}
	if strings.TrimSpace(reply) == "" {
		return "", session.ID, ErrEmptyReply
	}

	resp := state.ParseResponse(reply)
	if dropped := resp.Sanitize(); len(dropped) > 0 {
		p.logger.Warn("Dropped malformed reply sections", "sections", dropped, "player_id", playerID)
	}

	if err := p.store.SaveMessage(ctx, &state.Message{
		PlayerID:  playerID,
		SessionID: session.ID,
		Role:      chat.ChatRoleAgent,
		Content:   resp.Narrative,
	}); err != nil {
		return "", session.ID, fmt.Errorf("failed to save assistant message: %w", err)
	}

	if err := p.reconciler.Apply(ctx, profile, resp); err != nil {
		return "", session.ID, err
	}

	if err := p.store.TouchSession(ctx, session.ID, p.now()); err != nil {
		return "", session.ID, fmt.Errorf("failed to update session activity: %w", err)
	}

	if err := p.store.LogPlayerAction(ctx, &state.PlayerAction{
		PlayerID:   playerID,
		ActionType: resp.ActionType(),
		Location:   profile.CurrentLocation,
		Region:     profile.CurrentRegion,
		ActionData: state.ActionData{Action: req.Action, Response: resp},
	}); err != nil {
		return "", session.ID, fmt.Errorf("failed to log player action: %w", err)
	}

	return resp.Narrative, session.ID, nil
}

// buildPrompt loads everything the Game Master needs to know about the
// player's current surroundings.
func (p *TurnProcessor) buildPrompt(ctx context.Context, profile *state.Profile) (string, error) {
	wc, err := p.store.GetWorldContext(ctx, profile.CurrentRegion, profile.CurrentLocation)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("failed to load world context: %w", err)
	}

	npcs, err := p.store.ListNPCs(ctx, profile.CurrentRegion, profile.CurrentLocation)
	if err != nil {
		return "", fmt.Errorf("failed to load npcs: %w", err)
	}

	equipped, err := p.store.ListEquippedItems(ctx, profile.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load equipped items: %w", err)
	}

	skills, err := p.store.ListSkills(ctx, profile.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load skills: %w", err)
	}

	systemPrompt, err := prompts.New().
		WithProfile(profile).
		WithWorldContext(wc).
		WithNPCs(npcs).
		WithEquippedItems(equipped).
		WithSkills(skills).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}
	return systemPrompt, nil
}

// resolveSession returns the requested session, or the player's most
// recently active one when none is named.
func (p *TurnProcessor) resolveSession(ctx context.Context, playerID, sessionID uuid.UUID) (*state.GameSession, error) {
	if sessionID == uuid.Nil {
		return latestOrNewSession(ctx, p.store, playerID)
	}

	session, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.PlayerID != playerID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func latestOrNewSession(ctx context.Context, store storage.Storage, playerID uuid.UUID) (*state.GameSession, error) {
	session, err := store.GetLatestSession(ctx, playerID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load latest session: %w", err)
	}

	session = &state.GameSession{PlayerID: playerID}
	if err := store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func toChatMessages(messages []state.Message) []chat.ChatMessage {
	out := make([]chat.ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, chat.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
