package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"gamepulse/internal/config"
)

const (
	insightsSystemPrompt = "You are an expert gaming analytics consultant specializing in player behavior analysis and monetization optimization."
	querySystemPrompt    = "You are a gaming analytics expert. Answer questions based on the provided data with specific insights and recommendations."

	fallbackNoKey       = "Insight API key not configured. Set GAMEPULSE_INSIGHT_API_KEY in your environment."
	fallbackQueryFailed = "I'm sorry, I couldn't process your question at the moment."
)

// Client calls a chat-completions style text service. Failures never
// propagate: every public method returns usable prose, falling back to
// a descriptive message on error.
type Client struct {
	cfg        config.InsightConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an insight client from configuration.
func NewClient(cfg config.InsightConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     logger.With(slog.String("component", "insight_client")),
	}
}

// GenerateInsights asks the service for findings and recommendations
// over the data summary.
func (c *Client) GenerateInsights(ctx context.Context, summary Summary) string {
	if c.cfg.APIKey == "" {
		return fallbackNoKey
	}

	prompt := fmt.Sprintf(`You are a senior gaming analytics expert. Analyze the following gaming analytics data and provide actionable insights:

%s

Please provide:
1. Key findings and trends
2. Potential issues or opportunities
3. Specific recommendations for improving player retention and monetization
4. Actionable strategies for in-app purchase optimization

Be specific, data-driven, and focus on practical business implications.`, summary.Text())

	text, err := c.chat(ctx, insightsSystemPrompt, prompt, 0.7)
	if err != nil {
		c.logger.ErrorContext(ctx, "insight generation failed", slog.String("error", err.Error()))
		return fmt.Sprintf("Error generating insights: %s", err)
	}
	return text
}

// AnswerQuery answers a specific question against the data summary.
func (c *Client) AnswerQuery(ctx context.Context, question string, summary Summary) string {
	if c.cfg.APIKey == "" {
		return fallbackNoKey
	}

	prompt := fmt.Sprintf(`Based on the following gaming analytics data, answer this question: %q

Data Context:
%s

Provide a specific, data-driven answer with actionable insights where relevant.`, question, summary.Text())

	text, err := c.chat(ctx, querySystemPrompt, prompt, 0.5)
	if err != nil {
		c.logger.ErrorContext(ctx, "query answering failed", slog.String("error", err.Error()))
		return fallbackQueryFailed
	}
	return text
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) chat(ctx context.Context, system, user string, temperature float64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
