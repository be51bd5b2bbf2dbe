package chat

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		wantErr bool
	}{
		{"valid action", "I open the door", false},
		{"empty action", "", true},
		{"whitespace action", "   \n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := TurnRequest{Action: tt.action}
			err := req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTurnRequest_SessionIDOptional(t *testing.T) {
	var req TurnRequest
	require.NoError(t, json.Unmarshal([]byte(`{"action":"look"}`), &req))
	assert.Equal(t, uuid.Nil, req.SessionID)

	id := uuid.New()
	require.NoError(t, json.Unmarshal([]byte(`{"action":"look","session_id":"`+id.String()+`"}`), &req))
	assert.Equal(t, id, req.SessionID)
}

func TestTurnResponse_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(TurnResponse{Success: false, Error: "Not authenticated"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"Not authenticated"}`, string(data))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(ChatRoleUser))
	assert.True(t, IsValidRole(ChatRoleAgent))
	assert.False(t, IsValidRole(ChatRoleSystem))
	assert.False(t, IsValidRole("narrator"))
}
