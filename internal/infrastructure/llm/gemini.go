package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

type generateFunc func(ctx context.Context, system, user string) (*genai.GenerateContentResponse, error)

// GeminiClient implements ports.ChatClient for Google Gemini.
type GeminiClient struct {
	client   *genai.Client
	model    string
	generate generateFunc
}

var _ ports.ChatClient = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini backed chat client.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	g := &GeminiClient{client: client, model: cfg.Model}
	g.generate = g.generateContent
	return g, nil
}

func (c *GeminiClient) generateContent(ctx context.Context, system, user string) (*genai.GenerateContentResponse, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(defaultTemperature)
	model.SetMaxOutputTokens(defaultMaxTokens)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	return model.GenerateContent(ctx, genai.Text(user))
}

// Complete sends the exchange and joins the text parts of the first candidate.
func (c *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.generate(ctx, system, user)
	if err != nil {
		if isQuotaError(err) {
			return "", &RateLimitError{Provider: "gemini", Detail: err.Error()}
		}
		return "", fmt.Errorf("generate content: %w", err)
	}
	return extractText(resp)
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func isQuotaError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	return status.Code(err) == codes.ResourceExhausted
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no text parts in response")
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}
