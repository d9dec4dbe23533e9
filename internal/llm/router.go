package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultRouterURL   = "https://router.huggingface.co/v1/chat/completions"
	DefaultRouterModel = "Qwen/Qwen3-Coder-480B-A35B-Instruct"
)

// RouterConfig configures an OpenAI-compatible chat completions endpoint.
type RouterConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// RouterClient calls an OpenAI-compatible Chat Completions API such as the
// Hugging Face inference router.
type RouterClient struct {
	http        *http.Client
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
}

func NewRouterClient(cfg RouterConfig) *RouterClient {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultRouterURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultRouterModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &RouterClient{
		http:        &http.Client{Timeout: cfg.Timeout},
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (c *RouterClient) Name() string { return "Router:" + c.model }
func (c *RouterClient) Close() error { return nil }

type routerChatReq struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type routerChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends one request and returns the first choice's content, trimmed.
func (c *RouterClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.apiKey == "" {
		return "", ErrConfiguration
	}
	b, err := json.Marshal(routerChatReq{
		Model:       c.model,
		Messages:    messages,
		Stream:      false,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    upstreamMessage(body),
		}
	}
	var out routerChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyReply
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyReply
	}
	return content, nil
}

// upstreamMessage pulls the error text out of {"error":"..."} or
// {"error":{"message":"..."}} bodies and falls back to the raw body.
func upstreamMessage(body []byte) string {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Error) > 0 {
		var s string
		if json.Unmarshal(env.Error, &s) == nil {
			return strings.TrimSpace(s)
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(env.Error, &obj) == nil && obj.Message != "" {
			return strings.TrimSpace(obj.Message)
		}
	}
	return strings.TrimSpace(string(body))
}
