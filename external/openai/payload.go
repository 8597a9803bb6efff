package openai

import (
	"strings"

	"github.com/jcamiloaa/deep90-app/internal/usecase"
)

type threadResponse struct {
	ID string `json:"id"`
}

type messageRequest struct {
	Role     string            `json:"role"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type functionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type runRequest struct {
	AssistantID string     `json:"assistant_id"`
	Tools       []toolSpec `json:"tools,omitempty"`
}

type toolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

type submitToolOutputsRequest struct {
	ToolOutputs []toolOutput `json:"tool_outputs"`
}

type runResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	RequiredAction *struct {
		Type              string `json:"type"`
		SubmitToolOutputs struct {
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"submit_tool_outputs"`
	} `json:"required_action"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

func (r runResponse) toRun() usecase.AssistantRun {
	run := usecase.AssistantRun{ID: r.ID, Status: usecase.RunStatus(r.Status)}
	if r.RequiredAction != nil {
		for _, call := range r.RequiredAction.SubmitToolOutputs.ToolCalls {
			if call.Type != "" && call.Type != "function" {
				continue
			}
			run.ToolCalls = append(run.ToolCalls, usecase.ToolCall{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			})
		}
	}
	if r.LastError != nil {
		run.LastError = strings.TrimSpace(r.LastError.Code + ": " + r.LastError.Message)
	}
	return run
}

type threadMessage struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text struct {
			Value string `json:"value"`
		} `json:"text"`
	} `json:"content"`
}

// text joins the text parts of a message.
func (m threadMessage) text() string {
	parts := make([]string, 0, len(m.Content))
	for _, part := range m.Content {
		if part.Type != "text" {
			continue
		}
		if value := strings.TrimSpace(part.Text.Value); value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, "\n")
}

type messageList struct {
	Data []threadMessage `json:"data"`
}
