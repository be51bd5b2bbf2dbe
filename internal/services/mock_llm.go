package services

import (
	"context"
	"slices"
	"sync"

	"github.com/jwebster45206/eryndor/pkg/chat"
)

// MockLLM is a mock implementation of LLMService for testing
type MockLLM struct {
	GenerateTurnFunc    func(ctx context.Context, systemPrompt string, history []chat.ChatMessage, action string) (string, error)
	GenerateSummaryFunc func(ctx context.Context, prompt string) (string, error)

	// Track calls for testing
	TurnCalls    []TurnCall
	SummaryCalls []string

	mu sync.Mutex // protects all fields above
}

type TurnCall struct {
	SystemPrompt string
	History      []chat.ChatMessage
	Action       string
}

var _ LLMService = (*MockLLM)(nil)

// NewMockLLM creates a mock that answers with a plain narrative.
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) GenerateTurn(ctx context.Context, systemPrompt string, history []chat.ChatMessage, action string) (string, error) {
	m.mu.Lock()
	m.TurnCalls = append(m.TurnCalls, TurnCall{
		SystemPrompt: systemPrompt,
		History:      slices.Clone(history),
		Action:       action,
	})
	fn := m.GenerateTurnFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, systemPrompt, history, action)
	}
	return `{"narrative":"Mock response"}`, nil
}

func (m *MockLLM) GenerateSummary(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.SummaryCalls = append(m.SummaryCalls, prompt)
	fn := m.GenerateSummaryFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return "Mock summary", nil
}

// SetTurnResponse makes GenerateTurn return the given text and error.
func (m *MockLLM) SetTurnResponse(text string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateTurnFunc = func(context.Context, string, []chat.ChatMessage, string) (string, error) {
		return text, err
	}
}

// SetSummaryResponse makes GenerateSummary return the given text and error.
func (m *MockLLM) SetSummaryResponse(text string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateSummaryFunc = func(context.Context, string) (string, error) {
		return text, err
	}
}

// GetCalls returns copies of the recorded calls.
func (m *MockLLM) GetCalls() ([]TurnCall, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.TurnCalls), slices.Clone(m.SummaryCalls)
}

// Reset clears all call tracking
func (m *MockLLM) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TurnCalls = nil
	m.SummaryCalls = nil
}
