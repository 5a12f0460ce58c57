package agent

import (
	"context"
	"fmt"
	"log"
)

// ToolFunc executes one tool invocation requested by the model. The loop
// awaits it without a recovery path: a failure here indicates a model or
// schema bug, and the error ends the turn.
type ToolFunc func(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error)

// ToolCallRecord is the audit entry for one tool invocation within a turn.
// The list is append-only and never mutated after the turn completes.
type ToolCallRecord struct {
	Tool   string                 `json:"tool"`
	Args   map[string]interface{} `json:"args"`
	Result map[string]interface{} `json:"result"`
	Kind   ResultKind             `json:"kind"`
}

// TurnResult is everything one model turn produced across all tool rounds.
type TurnResult struct {
	Text       string
	Charts     []map[string]interface{}
	Images     []ImageArtifact
	VideoCards []map[string]interface{}
	ToolCalls  []ToolCallRecord
	Rounds     int
}

// Loop drives a model conversation through bounded function-calling rounds.
// Each round sends the conversation so far, and if the model requests a tool,
// runs it, sanitizes the result, and feeds it back. The round budget is a
// safety valve, not a failure condition: exhausting it returns the best
// available text.
type Loop struct {
	Provider     LLMProvider
	Tools        []ToolDeclaration
	Execute      ToolFunc
	SystemPrompt string
	MaxRounds    int
	Logger       *log.Logger

	// Stop, when closed, ends the loop after the round in progress. It never
	// interrupts a tool call that already started.
	Stop <-chan struct{}
}

// Run performs one turn: prior history plus a new user message in, a
// TurnResult out.
func (l *Loop) Run(ctx context.Context, history []Turn, message string) (TurnResult, error) {
	maxRounds := l.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 8
	}

	contents := make([]Content, 0, len(history)+1)
	for _, t := range history {
		contents = append(contents, Content{Role: t.Role, Text: t.Text})
	}
	contents = append(contents, Content{Role: "user", Text: message})

	var result TurnResult
	for round := 1; round <= maxRounds; round++ {
		if l.stopped() {
			break
		}
		result.Rounds = round
		metricModelRounds.Inc()

		reply, err := l.Provider.Generate(ctx, l.SystemPrompt, contents, l.Tools)
		if err != nil {
			return result, fmt.Errorf("model round %d: %w", round, err)
		}
		if reply.Text != "" {
			result.Text = reply.Text
		}
		if reply.FunctionCall == nil {
			return result, nil
		}

		call := reply.FunctionCall
		if l.Logger != nil {
			l.Logger.Printf("round %d: tool %s", round, call.Name)
		}
		raw, err := l.Execute(ctx, call.Name, call.Args)
		if err != nil {
			return result, fmt.Errorf("tool %s: %w", call.Name, err)
		}
		metricToolCalls.WithLabelValues(call.Name).Inc()

		kind := Classify(raw)
		result.ToolCalls = append(result.ToolCalls, ToolCallRecord{
			Tool: call.Name, Args: call.Args, Result: raw, Kind: kind,
		})
		l.collect(&result, kind, raw)

		contents = append(contents,
			Content{Role: "model", FunctionCall: call},
			Content{Role: "user", FunctionResponse: &FunctionResponse{
				Name:     call.Name,
				Response: Sanitize(kind, raw),
			}},
		)
	}
	// round budget exhausted: whatever text the model produced last stands
	return result, nil
}

func (l *Loop) collect(result *TurnResult, kind ResultKind, raw map[string]interface{}) {
	switch kind {
	case KindChart:
		result.Charts = append(result.Charts, raw)
	case KindImage:
		img := ImageArtifact{}
		img.MimeType, _ = raw["mimeType"].(string)
		img.Data, _ = raw["data"].(string)
		img.Prompt, _ = raw["prompt"].(string)
		result.Images = append(result.Images, img)
	case KindVideo:
		result.VideoCards = append(result.VideoCards, raw)
	}
}

func (l *Loop) stopped() bool {
	if l.Stop == nil {
		return false
	}
	select {
	case <-l.Stop:
		return true
	default:
		return false
	}
}
