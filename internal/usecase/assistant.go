package usecase

import "context"

type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCompleted      RunStatus = "completed"
	RunFailed         RunStatus = "failed"
	RunCancelled      RunStatus = "cancelled"
	RunExpired        RunStatus = "expired"
)

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

type ToolOutput struct {
	ToolCallID string
	Output     string
}

// ToolDefinition is a function tool exposed to the assistant. Parameters is a
// JSON schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type AssistantRun struct {
	ID        string
	Status    RunStatus
	ToolCalls []ToolCall
	LastError string
}

// AssistantBridge is the thread and run lifecycle of the hosted assistant API.
type AssistantBridge interface {
	CreateThread(ctx context.Context) (string, error)
	ThreadExists(ctx context.Context, threadID string) (bool, error)
	PostMessage(ctx context.Context, threadID, content string, metadata map[string]string) error
	CreateRun(ctx context.Context, threadID, assistantID string, tools []ToolDefinition) (AssistantRun, error)
	GetRun(ctx context.Context, threadID, runID string) (AssistantRun, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (AssistantRun, error)
	LatestAssistantMessage(ctx context.Context, threadID string) (string, bool, error)
}
