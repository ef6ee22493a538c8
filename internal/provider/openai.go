package provider

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

	"golang.org/x/time/rate"

	"github.com/ent0n29/meetingsnap/internal/reliability"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultRateLimit     = 2.0
	defaultBurst         = 4
	defaultMaxRetries    = 2
	defaultBaseBackoff   = 200 * time.Millisecond
	defaultMaxBackoff    = 2 * time.Second
)

// Usage is the token accounting reported by the API.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// OpenAIConfig controls the Chat Completions adapter.
type OpenAIConfig struct {
	APIKey     string `json:"-"`
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	// RateLimit is outbound requests per second. Zero uses the default.
	RateLimit  float64
	MaxRetries int
	OnUsage    func(Usage)
}

// OpenAIProvider calls the Chat Completions API with a JSON response format.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	onUsage    func(Usage)
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	return &OpenAIProvider{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(limit), defaultBurst),
		maxRetries: retries,
		onUsage:    cfg.OnUsage,
	}
}

func (p *OpenAIProvider) ID() string { return IDOpenAI }

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string { return p.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

type statusError struct {
	code       int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openai http status %d: %s", e.code, e.body)
}

func (p *OpenAIProvider) Extract(ctx context.Context, transcript string) (map[string]any, error) {
	if p.apiKey == "" {
		return nil, newError(IDOpenAI, KindTransport, errors.New("OPENAI_API_KEY is not set"))
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, AsError(IDOpenAI, fmt.Errorf("rate limiter: %w", err))
	}

	req := chatRequest{
		Model:          p.model,
		Messages:       []chatMessage{{Role: "user", Content: BuildPrompt(transcript)}},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	var (
		lastErr    error
		retryAfter time.Duration
	)
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := reliability.ExponentialBackoff(attempt-1, defaultBaseBackoff, defaultMaxBackoff)
			if retryAfter > backoff {
				backoff = min(retryAfter, defaultMaxBackoff)
			}
			if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < backoff {
				break
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, AsError(IDOpenAI, ctx.Err())
			}
		}

		content, err := p.complete(ctx, req)
		if err == nil {
			obj, perr := ParseJSONBlock(content)
			if perr != nil {
				return nil, newError(IDOpenAI, KindMalformed, perr)
			}
			return obj, nil
		}
		lastErr = err

		var se *statusError
		if !errors.As(err, &se) || !reliability.IsRetryableHTTPStatus(se.code) {
			return nil, AsError(IDOpenAI, err)
		}
		retryAfter = se.retryAfter
	}
	return nil, AsError(IDOpenAI, fmt.Errorf("retries exhausted: %w", lastErr))
}

func (p *OpenAIProvider) complete(ctx context.Context, req chatRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	res, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		se := &statusError{code: res.StatusCode, body: strings.TrimSpace(string(body))}
		se.retryAfter, _ = reliability.RetryAfter(res.Header.Get("Retry-After"), time.Now())
		return "", se
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", newError(IDOpenAI, KindMalformed, fmt.Errorf("decode response: %w", err))
	}
	if out.Usage != nil && p.onUsage != nil {
		p.onUsage(*out.Usage)
	}
	if len(out.Choices) == 0 {
		return "", newError(IDOpenAI, KindMalformed, errors.New("response has no choices"))
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", newError(IDOpenAI, KindMalformed, errors.New("response message is empty"))
	}
	return content, nil
}
