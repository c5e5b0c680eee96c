package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/utils"
)

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CallInput struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// ComplexityInput selects a model by complexity score instead of by name.
// Scores below the configured threshold go to the fast model.
type ComplexityInput struct {
	Messages   []Message
	Complexity float64
	MaxTokens  int
}

type Completion struct {
	Content   string `json:"content"`
	Model     string `json:"model"`
	LatencyMs int64  `json:"latency_ms"`
}

var ErrEmptyCompletion = errors.New("llm: empty completion")

type Client interface {
	Call(ctx context.Context, in CallInput) (*Completion, error)
	CallWithComplexity(ctx context.Context, in ComplexityInput) (*Completion, error)
}

type client struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string

	fastModel           string
	strongModel         string
	complexityThreshold float64
	maxRetries          int
}

func NewClient(log *logger.Logger) (Client, error) {
	clientLog := log.With("service", "LLMClient")

	apiKey := strings.TrimSpace(utils.GetEnv("LLM_API_KEY", "", log))
	if apiKey == "" {
		return nil, fmt.Errorf("missing LLM_API_KEY")
	}
	baseURL := strings.TrimRight(utils.GetEnv("LLM_BASE_URL", "https://api.openai.com/v1", log), "/")
	timeoutSeconds := utils.GetEnvAsInt("LLM_TIMEOUT_SECONDS", 60, log)

	return &client{
		log:     clientLog,
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
		fastModel:           utils.GetEnv("LLM_FAST_MODEL", "gpt-4o-mini", log),
		strongModel:         utils.GetEnv("LLM_STRONG_MODEL", "gpt-4o", log),
		complexityThreshold: utils.GetEnvAsFloat("LLM_COMPLEXITY_THRESHOLD", 0.4, log),
		maxRetries:          utils.GetEnvAsInt("LLM_MAX_RETRIES", 1, log),
	}, nil
}

func (c *client) Call(ctx context.Context, in CallInput) (*Completion, error) {
	model := strings.TrimSpace(in.Model)
	if model == "" {
		model = c.fastModel
	}
	return c.complete(ctx, model, in.Messages, in.MaxTokens, in.Temperature)
}

func (c *client) CallWithComplexity(ctx context.Context, in ComplexityInput) (*Completion, error) {
	model := c.fastModel
	if in.Complexity >= c.complexityThreshold {
		model = c.strongModel
	}
	return c.complete(ctx, model, in.Messages, in.MaxTokens, 0)
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *client) complete(ctx context.Context, model string, messages []Message, maxTokens int, temperature float64) (*Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		completion, retryable, err := c.doOnce(ctx, body)
		if err == nil {
			completion.Model = model
			completion.LatencyMs = time.Since(start).Milliseconds()
			return completion, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.log.Warn("LLM call failed, retrying", "model", model, "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *client) doOnce(ctx context.Context, body []byte) (*Completion, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and transport failures are retryable unless the caller
		// context is already gone.
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("llm: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("llm: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, false, fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return nil, false, fmt.Errorf("llm: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return nil, false, ErrEmptyCompletion
	}
	return &Completion{Content: parsed.Choices[0].Message.Content}, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
