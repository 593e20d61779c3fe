package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const googleAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GoogleProvider talks to the Gemini generateContent endpoint.
type GoogleProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGoogleProvider creates a Gemini provider.
func NewGoogleProvider(apiKey string, model string) *GoogleProvider {
	return &GoogleProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: googleAPIBaseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (p *GoogleProvider) Name() string { return "google" }

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      *geminiContent `json:"content"`
		FinishReason string         `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type geminiErrorBody struct {
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	apiReq := geminiRequest{
		GenerationConfig: geminiGenConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	var system []geminiPart
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, geminiPart{Text: msg.Content})
		case RoleAssistant:
			apiReq.Contents = append(apiReq.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: msg.Content}}})
		default:
			apiReq.Contents = append(apiReq.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
		}
	}
	if len(system) > 0 {
		apiReq.SystemInstruction = &geminiContent{Parts: system}
	}
	if len(apiReq.Contents) == 0 {
		apiReq.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: ""}}}}
	}

	header := http.Header{}
	header.Set("x-goog-api-key", p.apiKey)
	url := fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(p.baseURL, "/"), model)

	var apiResp geminiResponse
	err := postJSON(ctx, p.client, url, header, apiReq, &apiResp, func(raw []byte) error {
		var body geminiErrorBody
		if json.Unmarshal(raw, &body) == nil && body.Error != nil {
			return fmt.Errorf("gemini API error (%s): %s", body.Error.Status, body.Error.Message)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gemini completion: %w", err)
	}

	out := &CompletionResponse{
		Model:        model,
		InputTokens:  apiResp.UsageMetadata.PromptTokenCount,
		OutputTokens: apiResp.UsageMetadata.CandidatesTokenCount,
	}
	if len(apiResp.Candidates) > 0 {
		c := apiResp.Candidates[0]
		out.FinishReason = c.FinishReason
		if c.Content != nil {
			var sb strings.Builder
			for _, part := range c.Content.Parts {
				sb.WriteString(part.Text)
			}
			out.Content = sb.String()
		}
	}
	return out, nil
}
