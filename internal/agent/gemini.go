package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wendylzh6/youtube-chat-ai/config"
	"github.com/wendylzh6/youtube-chat-ai/internal/httpx"
)

// GeminiClient talks to the generative language REST API.
type GeminiClient struct {
	apiKey      string
	baseURL     string
	model       string
	imageModel  string
	temperature float64
	maxTokens   int
	http        *httpx.Client
}

func NewGeminiClient(cfg config.LLMConfig) *GeminiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &GeminiClient{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       cfg.Model,
		imageModel:  cfg.ImageModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		http:        httpx.New(timeout, 0, 0),
	}
}

type geminiPart struct {
	Text             string              `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResp `json:"functionResponse,omitempty"`
	InlineData       *geminiInlineData   `json:"inlineData,omitempty"`
}

type geminiFunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type geminiFunctionResp struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	Tools             []geminiTools          `json:"tools,omitempty"`
	GenerationConfig  map[string]interface{} `json:"generationConfig,omitempty"`
}

type geminiTools struct {
	FunctionDeclarations []ToolDeclaration `json:"functionDeclarations"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) endpoint(model string) string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
}

// Generate sends the conversation plus tool declarations and returns the
// model's text and, when present, its single function-call request.
func (c *GeminiClient) Generate(ctx context.Context, system string, contents []Content, tools []ToolDeclaration) (ModelReply, error) {
	req := geminiRequest{
		Contents: make([]geminiContent, 0, len(contents)),
		GenerationConfig: map[string]interface{}{
			"temperature": c.temperature,
		},
	}
	if c.maxTokens > 0 {
		req.GenerationConfig["maxOutputTokens"] = c.maxTokens
	}
	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	if len(tools) > 0 {
		req.Tools = []geminiTools{{FunctionDeclarations: tools}}
	}
	for _, content := range contents {
		req.Contents = append(req.Contents, toGeminiContent(content))
	}

	var resp geminiResponse
	if err := c.http.DoJSON(ctx, "POST", c.endpoint(c.model), nil, req, &resp); err != nil {
		return ModelReply{}, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return ModelReply{}, errors.New("gemini generate: empty response")
	}

	var reply ModelReply
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			reply.Text += part.Text
		}
		if part.FunctionCall != nil && reply.FunctionCall == nil {
			reply.FunctionCall = &FunctionCall{Name: part.FunctionCall.Name, Args: part.FunctionCall.Args}
		}
	}
	return reply, nil
}

// GenerateImage asks the image model for one rendering of the prompt.
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string) (ImageArtifact, error) {
	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: map[string]interface{}{
			"responseModalities": []string{"TEXT", "IMAGE"},
		},
	}
	var resp geminiResponse
	if err := c.http.DoJSON(ctx, "POST", c.endpoint(c.imageModel), nil, req, &resp); err != nil {
		return ImageArtifact{}, fmt.Errorf("gemini image: %w", err)
	}
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil {
				return ImageArtifact{
					MimeType: part.InlineData.MimeType,
					Data:     part.InlineData.Data,
					Prompt:   prompt,
				}, nil
			}
		}
	}
	return ImageArtifact{}, errors.New("gemini image: no image in response")
}

func toGeminiContent(content Content) geminiContent {
	out := geminiContent{Role: content.Role}
	if content.Text != "" {
		out.Parts = append(out.Parts, geminiPart{Text: content.Text})
	}
	if content.FunctionCall != nil {
		out.Parts = append(out.Parts, geminiPart{FunctionCall: &geminiFunctionCall{
			Name: content.FunctionCall.Name,
			Args: content.FunctionCall.Args,
		}})
	}
	if content.FunctionResponse != nil {
		out.Parts = append(out.Parts, geminiPart{FunctionResponse: &geminiFunctionResp{
			Name:     content.FunctionResponse.Name,
			Response: content.FunctionResponse.Response,
		}})
	}
	return out
}
