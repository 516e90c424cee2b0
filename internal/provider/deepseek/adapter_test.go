package deepseek_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskAssistant/internal/models/chat"
	"taskAssistant/internal/provider"
	"taskAssistant/internal/provider/deepseek"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() []provider.Function {
	return []provider.Function{
		{Name: "create_task", Description: "Create a task", Parameters: map[string]any{"type": "object"}},
	}
}

// TestAdapter_Converse_ToolsWrapping тестирует заворачивание каталога в tools
func TestAdapter_Converse_ToolsWrapping(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	adapter := deepseek.New(deepseek.Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := adapter.Converse(context.Background(), nil, catalog())
	require.NoError(t, err)

	assert.Equal(t, "deepseek-ai/DeepSeek-R1-0528", captured["model"])
	assert.Equal(t, "auto", captured["tool_choice"])

	tools := captured["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "function", tool["type"])

	fn := tool["function"].(map[string]any)
	assert.Equal(t, "create_task", fn["name"])
}

// TestAdapter_Converse_ToolCall тестирует разбор tool_calls
func TestAdapter_Converse_ToolCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"tool_calls":[
			{"function":{"name":"create_task","arguments":"{\"title\":\"First\"}"}},
			{"function":{"name":"create_task","arguments":"{\"title\":\"Second\"}"}}
		]}}]}`))
	}))
	defer server.Close()

	adapter := deepseek.New(deepseek.Config{APIKey: "test-key", BaseURL: server.URL})

	result, err := adapter.Converse(context.Background(), nil, catalog())
	require.NoError(t, err)

	// выполняется только первый вызов
	assert.Equal(t, provider.KindFunctionCall, result.Kind)
	assert.Equal(t, "create_task", result.Name)
	assert.JSONEq(t, `{"title":"First"}`, result.ArgumentsJSON)
}

// TestAdapter_Converse_ToolRole тестирует проекцию function-сообщений в role=tool
func TestAdapter_Converse_ToolRole(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	adapter := deepseek.New(deepseek.Config{APIKey: "test-key", BaseURL: server.URL})

	history := []*chat.Message{
		{Role: chat.RoleFunction, FunctionName: "create_task", Content: "✅ Task created"},
	}
	_, err := adapter.Converse(context.Background(), history, catalog())
	require.NoError(t, err)

	messages := captured["messages"].([]any)
	require.Len(t, messages, 2) // system + tool

	toolMsg := messages[1].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "create_task", toolMsg["name"])
}

// TestAdapter_Converse_Errors тестирует классификацию ошибок
func TestAdapter_Converse_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expectedErr error
	}{
		{
			name:        "server error",
			status:      http.StatusBadGateway,
			body:        `{"error":"boom"}`,
			expectedErr: provider.ErrUnavailable,
		},
		{
			name:        "no choices",
			status:      http.StatusOK,
			body:        `{"choices":[]}`,
			expectedErr: provider.ErrEmptyResponse,
		},
		{
			name:        "empty message",
			status:      http.StatusOK,
			body:        `{"choices":[{"message":{"content":"","tool_calls":[]}}]}`,
			expectedErr: provider.ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			adapter := deepseek.New(deepseek.Config{APIKey: "test-key", BaseURL: server.URL})

			_, err := adapter.Converse(context.Background(), nil, catalog())
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}
