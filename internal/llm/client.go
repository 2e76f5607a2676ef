// Package llm talks to the OpenAI-compatible chat, structured output and embedding endpoints.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yuta0709/nagara-care-api/internal/config"
	"go.uber.org/zap"
)

// Message roles as the chat API spells them.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 单条对话消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// apiError OpenAI 错误响应体
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ErrEmptyResponse is returned when the model produced no choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// Client OpenAI API 客户端
type Client struct {
	httpClient     *resty.Client
	chatModel      string
	embeddingModel string
	logger         *zap.Logger
}

// NewClient 创建 OpenAI 客户端
func NewClient(cfg config.OpenAIConfig, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(60 * time.Second). // 结构化输出偶尔较慢
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == 429 || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient:     client,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		logger:         logger,
	}
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	var apiErr apiError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		c.logger.Error("OpenAI API call failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("openai %s: %w", path, err)
	}
	if resp.IsError() {
		c.logger.Error("OpenAI API returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", apiErr.Error.Message),
		)
		return fmt.Errorf("openai %s: status %d: %s", path, resp.StatusCode(), apiErr.Error.Message)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	var out chatResponse
	if err := c.post(ctx, "/chat/completions", req, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	msg := out.Choices[0].Message
	if msg.Refusal != "" {
		return "", fmt.Errorf("llm refused: %s", msg.Refusal)
	}
	return msg.Content, nil
}

// Chat returns the assistant reply for messages.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	return c.complete(ctx, chatRequest{Model: c.chatModel, Messages: messages})
}

// ChatJSON asks for a reply conforming to schema (strict structured output) and decodes it into out.
func (c *Client) ChatJSON(ctx context.Context, messages []ChatMessage, name string, schema map[string]any, out any) error {
	zero := 0.0
	content, err := c.complete(ctx, chatRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: &zero,
		ResponseFormat: &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchema{Name: name, Strict: true, Schema: schema},
		},
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("decode structured output: %w", err)
	}
	return nil
}

// Embed returns one vector per input, in input order.
func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	var out embeddingResponse
	if err := c.post(ctx, "/embeddings", embeddingRequest{Model: c.embeddingModel, Input: inputs}, &out); err != nil {
		return nil, err
	}
	if len(out.Data) != len(inputs) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(out.Data), len(inputs))
	}
	vecs := make([][]float32, len(inputs))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embeddings: index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
