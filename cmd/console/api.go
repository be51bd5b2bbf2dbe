package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/internal/handlers"
	"github.com/jwebster45206/eryndor/pkg/chat"
	"github.com/jwebster45206/eryndor/pkg/state"
)

// apiClient talks to the Eryndor API as one authenticated player.
type apiClient struct {
	http    *http.Client
	baseURL string
	token   string
}

func (c *apiClient) testConnection() bool {
	resp, err := c.http.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func (c *apiClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

// do sends a request and decodes the response into out. A failed result is
// returned as an error carrying the server's message.
func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
	}
	if !result.Success {
		if result.Error == "" {
			return fmt.Errorf("API returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("%s", result.Error)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func (c *apiClient) ensureProfile(ctx context.Context) (*state.Profile, error) {
	var res handlers.ProfileResponse
	if err := c.do(ctx, http.MethodPost, "/v1/profile", handlers.ProfileRequest{}, &res); err != nil {
		return nil, err
	}
	return res.Profile, nil
}

func (c *apiClient) getProfile(ctx context.Context) (*state.Profile, error) {
	var res handlers.ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/v1/profile", nil, &res); err != nil {
		return nil, err
	}
	return res.Profile, nil
}

func (c *apiClient) resumeSession(ctx context.Context) (*handlers.SessionResponse, error) {
	var res handlers.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/v1/session", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *apiClient) sendTurn(ctx context.Context, sessionID uuid.UUID, action string) (*chat.TurnResponse, error) {
	var res chat.TurnResponse
	req := chat.TurnRequest{SessionID: sessionID, Action: action}
	if err := c.do(ctx, http.MethodPost, "/v1/turn", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *apiClient) generateSummary(ctx context.Context) (string, error) {
	var res handlers.SummaryResponse
	if err := c.do(ctx, http.MethodPost, "/v1/summary", nil, &res); err != nil {
		return "", err
	}
	if res.Summary == nil {
		return "", nil
	}
	return *res.Summary, nil
}

func (c *apiClient) unseenAlerts(ctx context.Context) ([]state.WorldChange, error) {
	var res handlers.WorldChangesResponse
	if err := c.do(ctx, http.MethodGet, "/v1/alerts", nil, &res); err != nil {
		return nil, err
	}
	return res.Changes, nil
}

func (c *apiClient) markAlertSeen(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/v1/alerts/"+id.String()+"/seen", nil, nil)
}

func (c *apiClient) listSkills(ctx context.Context) ([]state.Skill, error) {
	var res handlers.SkillsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/skills", nil, &res); err != nil {
		return nil, err
	}
	return res.Skills, nil
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// listenToWorld connects to the world feed and streams events to a channel
// until ctx ends or the stream closes.
func (c *apiClient) listenToWorld(ctx context.Context, eventChan chan<- SSEEvent) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/events/world", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The shared client has a timeout that would cut the stream.
	stream := &http.Client{Transport: c.http.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	var current SSEEvent

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if current.Type != "" {
				select {
				case eventChan <- current:
				case <-ctx.Done():
					return ctx.Err()
				}
				current = SSEEvent{}
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			current.Type = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			var data map[string]any
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &data); err == nil {
				current.Data = data
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}
