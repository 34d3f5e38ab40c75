package policies

import "context"

type TurnRole string

const (
	TurnUser  TurnRole = "user"
	TurnModel TurnRole = "model"
)

// Turn is one message of a conversation with the assistant model.
type Turn struct {
	Role TurnRole
	Text string
	// Set when the model asked for a tool invocation.
	Call *ToolCall
	// Set when the turn carries a tool result back to the model.
	Result *ToolResult
}

type ToolCall struct {
	Name string
	Args map[string]any
}

type ToolResult struct {
	Name     string
	Response map[string]any
}

// ToolSpec describes a function the model may call. Parameters is a JSON-schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type GenerateRequest struct {
	System string
	Turns  []Turn
	Tools  []ToolSpec
}

// GenerateResponse holds either text or a tool call.
type GenerateResponse struct {
	Text string
	Call *ToolCall
}

type LanguageModel interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}
