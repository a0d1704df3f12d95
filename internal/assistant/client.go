// Package assistant bridges the dashboard to a hosted chat-completion API
// (Groq's OpenAI-compatible endpoint). The model is treated as an unreliable
// collaborator: both operations return a safe default on any failure and
// never surface a hard error to the caller.
package assistant

import (
	"context"
	"os"

	"finance-tracker/internal/config"
	"finance-tracker/internal/models"
	"finance-tracker/internal/stats"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "assistant").Logger()

// Analysis is the structured reply of the unsolicited analysis mode.
type Analysis struct {
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
	Alerts          []string `json:"alerts"`
}

// Client wraps the chat-completion API with the two assistant operations.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewClient builds a client for the configured endpoint. Groq speaks the
// OpenAI wire format, so only the base URL differs.
func NewClient(cfg config.AssistantConfig) *Client {
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Client{
		api:         openai.NewClientWithConfig(conf),
		model:       cfg.Model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Analyze sends the transaction list and stats and expects the structured
// insights/recommendations/alerts reply. Malformed or failed replies fall
// back to the canned lists.
func (c *Client) Analyze(ctx context.Context, txs []models.Transaction, s stats.DashboardStats) Analysis {
	prompt := analysisPrompt(txs, s)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		logger.Error().Err(err).Msg("analysis request failed")
		return fallbackAnalysis()
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		logger.Warn().Err(err).Str("raw", raw).Msg("unparseable analysis reply")
		return fallbackAnalysis()
	}
	return analysis
}

// Answer sends the same financial context plus a free-form question and
// returns the model's free-text reply, or an apology when the call fails.
func (c *Client) Answer(ctx context.Context, txs []models.Transaction, s stats.DashboardStats, question string) string {
	prompt := chatPrompt(txs, s, question)

	raw, err := c.complete(ctx, prompt)
	if err != nil || raw == "" {
		logger.Error().Err(err).Msg("chat request failed")
		return fallbackAnswer
	}
	return raw
}

func (c *Client) complete(ctx context.Context, userPrompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}
