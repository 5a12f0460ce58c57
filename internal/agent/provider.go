package agent

import (
	"context"
	"errors"

	"github.com/wendylzh6/youtube-chat-ai/config"
)

// Turn is one entry of the prior conversation handed to the loop.
type Turn struct {
	Role string `json:"role"` // user or model
	Text string `json:"text"`
}

// ToolDeclaration describes one callable tool in the schema the model
// consumes. The loop treats it as opaque; argument validation is the tool
// implementation's responsibility.
type ToolDeclaration struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  ToolSchema `json:"parameters"`
}

// ToolSchema is the OBJECT-typed parameter schema of a tool declaration.
type ToolSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]ToolProperty `json:"properties"`
	Required   []string                `json:"required,omitempty"`
}

// ToolProperty describes a single declared parameter.
type ToolProperty struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// FunctionCall is the model's request to invoke a tool.
type FunctionCall struct {
	Name string
	Args map[string]interface{}
}

// ModelReply is one round's response: text, and possibly a function call.
type ModelReply struct {
	Text         string
	FunctionCall *FunctionCall
}

// Content is one message of the wire-level conversation, including function
// call and response parts accumulated across tool rounds.
type Content struct {
	Role             string
	Text             string
	FunctionCall     *FunctionCall
	FunctionResponse *FunctionResponse
}

// FunctionResponse carries a sanitized tool result back to the model.
type FunctionResponse struct {
	Name     string
	Response map[string]interface{}
}

// ImageArtifact is a generated image returned out-of-band to the caller.
type ImageArtifact struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
	Prompt   string `json:"prompt"`
}

// LLMProvider is the model round-trip the loop depends on.
type LLMProvider interface {
	Generate(ctx context.Context, system string, contents []Content, tools []ToolDeclaration) (ModelReply, error)
	GenerateImage(ctx context.Context, prompt string) (ImageArtifact, error)
}

// NewProvider builds the configured provider.
func NewProvider(cfg config.LLMConfig) (LLMProvider, error) {
	switch cfg.Provider {
	case "", "gemini":
		if cfg.APIKey == "" {
			return nil, errors.New("llm api key not configured")
		}
		return NewGeminiClient(cfg), nil
	default:
		return nil, errors.New("unsupported LLM provider: " + cfg.Provider)
	}
}
