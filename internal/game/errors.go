package game

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/internal/services"
	"github.com/jwebster45206/eryndor/pkg/storage"
)

// Errors returned to players. Their text is shown verbatim in the client.
var (
	ErrNotAuthenticated    = errors.New("Not authenticated")
	ErrProfileNotFound     = errors.New("Profile not found")
	ErrSessionNotFound     = errors.New("Session not found")
	ErrEmptyAction         = errors.New("Action cannot be empty")
	ErrEmptyReply          = errors.New("Failed to get AI response")
	ErrNoSkillSlots        = errors.New("No available skill slots")
	ErrInvalidSkill        = errors.New("Skill name is required")
	ErrInvalidElement      = errors.New("Unknown skill element")
	ErrInvalidSlot         = errors.New("Invalid skill slot")
	ErrItemNotFound        = errors.New("Item not found")
	ErrWorldChangeNotFound = errors.New("World change not found")
	ErrNoHistory           = errors.New("No adventure history to summarize")
	ErrAINotConfigured     = errors.New("AI service not configured")
	ErrSummaryFailed       = errors.New("Failed to generate summary")
)

var playerErrors = []error{
	ErrNotAuthenticated,
	ErrProfileNotFound,
	ErrSessionNotFound,
	ErrEmptyAction,
	ErrEmptyReply,
	ErrNoSkillSlots,
	ErrInvalidSkill,
	ErrInvalidElement,
	ErrInvalidSlot,
	ErrItemNotFound,
	ErrWorldChangeNotFound,
	ErrNoHistory,
	ErrAINotConfigured,
	ErrSummaryFailed,
}

// Result is the uniform outcome every player-facing operation reports.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OK is the successful Result.
func OK() Result {
	return Result{Success: true}
}

// Fail converts err into a failed Result.
func Fail(err error) Result {
	return Result{Error: UserMessage(err)}
}

// UserMessage returns the text a player sees for err. Known player errors
// and model API failures keep their own message; anything else falls back
// to the underlying message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, known := range playerErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	var apiErr *services.APIStatusError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, services.ErrMissingAPIKey) {
		return services.ErrMissingAPIKey.Error()
	}
	return err.Error()
}

func requirePlayer(playerID uuid.UUID) error {
	if playerID == uuid.Nil {
		return ErrNotAuthenticated
	}
	return nil
}

// notFound replaces storage.ErrNotFound with a player-facing error.
func notFound(err, replacement error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return replacement
	}
	return err
}
