package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseChunk(t *testing.T, parts []geminiPart, finish string) string {
	t.Helper()
	resp := map[string]any{
		"candidates": []map[string]any{
			{
				"content":      map[string]any{"role": "model", "parts": parts},
				"finishReason": finish,
			},
		},
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	return fmt.Sprintf("data: %s\n\n", data)
}

func TestGeminiChatStreamsTokens(t *testing.T) {
	var gotBody geminiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk(t, []geminiPart{{Text: "Hi"}}, ""))
		fmt.Fprint(w, sseChunk(t, []geminiPart{{Text: " there"}}, "STOP"))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "k", BaseURL: srv.URL}, nil)

	var tokens []string
	resp, err := client.Chat(context.Background(), ChatRequest{
		System:   "be helpful",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}, func(tok string) { tokens = append(tokens, tok) })
	require.NoError(t, err)

	assert.Equal(t, "Hi there", resp.Text)
	assert.Equal(t, []string{"Hi", " there"}, tokens)
	assert.Equal(t, "STOP", resp.StopReason)
	assert.Empty(t, resp.ToolCalls)

	require.NotNil(t, gotBody.SystemInstruction)
	assert.Equal(t, "be helpful", gotBody.SystemInstruction.Parts[0].Text)
}

func TestGeminiChatParsesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk(t, []geminiPart{
			{FunctionCall: &geminiFunctionCall{
				Name: "write_file",
				Args: map[string]any{"path": "src/App.tsx", "content": "x"},
			}},
		}, "STOP"))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "k", BaseURL: srv.URL}, nil)

	resp, err := client.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "make an app"}},
		Tools: []ToolDefinition{{
			Name:        "write_file",
			Description: "Write content to a file",
			InputSchema: map[string]any{"type": "object"},
		}},
	}, nil)
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "write_file", resp.ToolCalls[0].Name)
	assert.Equal(t, "src/App.tsx", resp.ToolCalls[0].Input["path"])
	assert.Equal(t, "call_0", resp.ToolCalls[0].ID)
}

func TestGeminiChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"invalid request"}}`)
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "k", BaseURL: srv.URL}, nil)

	_, err := client.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestGeminiChatMissingAPIKey(t *testing.T) {
	client := NewGeminiClient(GeminiConfig{}, nil)

	_, err := client.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestBuildContents(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "make an app"},
		{Role: RoleAssistant, Content: "Working on it", ToolCalls: []ToolCall{
			{ID: "call_0", Name: "list_files", Input: map[string]any{}},
		}},
		{Role: RoleTool, ToolResults: []ToolResult{
			{ToolCallID: "call_0", Name: "list_files", Content: "src/App.tsx"},
		}},
	}

	contents := buildContents(msgs)
	require.Len(t, contents, 3)

	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, "Working on it", contents[1].Parts[0].Text)
	require.NotNil(t, contents[1].Parts[1].FunctionCall)
	assert.Equal(t, "list_files", contents[1].Parts[1].FunctionCall.Name)

	assert.Equal(t, "function", contents[2].Role)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Equal(t, "src/App.tsx", contents[2].Parts[0].FunctionResponse.Response["content"])
}

func TestBuildContentsSkipsEmptyAssistantTurn(t *testing.T) {
	contents := buildContents([]Message{
		{Role: RoleAssistant},
		{Role: RoleUser, Content: "hi"},
	})
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
}

func TestGeminiChatIgnoresMalformedChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: not-json\n\n")
		fmt.Fprint(w, ": comment line\n")
		fmt.Fprint(w, sseChunk(t, []geminiPart{{Text: "ok"}}, "STOP"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "k", BaseURL: srv.URL}, nil)

	var sb strings.Builder
	resp, err := client.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
	}, func(tok string) { sb.WriteString(tok) })
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, "ok", sb.String())
}
