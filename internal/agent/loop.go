// Package agent drives the LLM through a think/act cycle against the
// project tool surface.
//
// The cycle has two node types: a reasoning step that produces text and tool
// requests, and a tool step that executes every requested call and folds the
// results back into history. The loop terminates when a reasoning step
// requests no tools.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"spawn/internal/llm"
	"spawn/internal/tools"
)

// ErrMaxIterations is the safety backstop against infinite tool-call cycles.
var ErrMaxIterations = errors.New("agent exceeded maximum iterations")

// Event types relayed to the client, in generation order.
const (
	EventToken     = "token"
	EventToolStart = "tool_start"
	EventToolEnd   = "tool_end"
	EventError     = "error"
)

// Event is one unit of the agent's externally visible activity.
type Event struct {
	Type string `json:"type"`
	// Content is set on token events; concatenating all token contents in
	// order reconstructs the assistant message.
	Content string `json:"content,omitempty"`
	// Tool and Input are set on tool_start events.
	Tool  string         `json:"tool,omitempty"`
	Input map[string]any `json:"input,omitempty"`
	// Error is set on error events.
	Error string `json:"error,omitempty"`
}

// Sink receives events in strict generation order. Implementations must
// flush each event before Run proceeds to the next one.
type Sink func(Event)

// Loop runs one chat turn to completion.
type Loop struct {
	client        llm.Client
	registry      *tools.Registry
	maxIterations int
	logger        *zap.Logger
}

// New creates an agent loop over the given model client and tool surface.
func New(client llm.Client, registry *tools.Registry, maxIterations int, logger *zap.Logger) *Loop {
	if maxIterations <= 0 {
		maxIterations = 32
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		client:        client,
		registry:      registry,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// Run drives the cycle until the model stops requesting tools, streaming
// every token and tool event through emit. It returns the full assistant
// transcript: the concatenation of all emitted token contents.
func (l *Loop) Run(ctx context.Context, system string, history []llm.Message, emit Sink) (string, error) {
	if emit == nil {
		emit = func(Event) {}
	}

	messages := append([]llm.Message(nil), history...)
	defs := l.registry.Definitions()

	var transcript strings.Builder

	for iteration := 0; iteration < l.maxIterations; iteration++ {
		resp, err := l.client.Chat(ctx, llm.ChatRequest{
			System:   system,
			Messages: messages,
			Tools:    defs,
		}, func(token string) {
			transcript.WriteString(token)
			emit(Event{Type: EventToken, Content: token})
		})
		if err != nil {
			return "", fmt.Errorf("reasoning step failed: %w", err)
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			l.logger.Debug("agent loop terminated",
				zap.Int("iterations", iteration+1),
				zap.Int("transcript_len", transcript.Len()))
			return transcript.String(), nil
		}

		// Tool step: execute every requested call in issuance order and
		// fold results back before returning to reasoning.
		results := make([]llm.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			emit(Event{Type: EventToolStart, Tool: call.Name, Input: call.Input})

			result, err := l.registry.Execute(ctx, call.Name, call.Input)
			tr := llm.ToolResult{ToolCallID: call.ID, Name: call.Name}
			if err != nil {
				// Converted to conversation content; the model's only way
				// to adapt is through what it reads.
				tr.Content = fmt.Sprintf("Error: %v", err)
				tr.IsError = true
			} else {
				tr.Content = result.Result
			}
			results = append(results, tr)

			l.logger.Debug("tool executed",
				zap.String("tool", call.Name),
				zap.Bool("error", tr.IsError))
			emit(Event{Type: EventToolEnd})
		}

		messages = append(messages, llm.Message{
			Role:        llm.RoleTool,
			ToolResults: results,
		})
	}

	return "", fmt.Errorf("%w (%d)", ErrMaxIterations, l.maxIterations)
}
