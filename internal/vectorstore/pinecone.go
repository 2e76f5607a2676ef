// Package vectorstore keeps record documents in a Pinecone index for similarity search.
package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yuta0709/nagara-care-api/internal/config"
	"go.uber.org/zap"
)

// Vector Pinecone 向量
type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match 查询命中
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type upsertRequest struct {
	Vectors   []Vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type queryRequest struct {
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	IncludeMetadata bool           `json:"includeMetadata"`
	Filter          map[string]any `json:"filter,omitempty"`
	Namespace       string         `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

type deleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace,omitempty"`
}

// PineconeClient Pinecone data-plane REST 客户端
type PineconeClient struct {
	httpClient *resty.Client
	namespace  string
	logger     *zap.Logger
}

// NewPineconeClient 创建 Pinecone 客户端（IndexHost 为 index 的 data-plane host）
func NewPineconeClient(cfg config.PineconeConfig, logger *zap.Logger) *PineconeClient {
	host := cfg.IndexHost
	if host != "" && !hasScheme(host) {
		host = "https://" + host
	}
	client := resty.New().
		SetBaseURL(host).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Api-Key", cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &PineconeClient{httpClient: client, namespace: cfg.Namespace, logger: logger}
}

func hasScheme(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (p *PineconeClient) post(ctx context.Context, path string, body, result any) error {
	req := p.httpClient.R().SetContext(ctx).SetBody(body)
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Post(path)
	if err != nil {
		p.logger.Error("Pinecone API call failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("pinecone %s: %w", path, err)
	}
	if resp.IsError() {
		p.logger.Error("Pinecone API returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return fmt.Errorf("pinecone %s: status %d", path, resp.StatusCode())
	}
	return nil
}

func (p *PineconeClient) Upsert(ctx context.Context, vectors []Vector) error {
	return p.post(ctx, "/vectors/upsert", upsertRequest{Vectors: vectors, Namespace: p.namespace}, nil)
}

func (p *PineconeClient) Query(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]Match, error) {
	var out queryResponse
	err := p.post(ctx, "/query", queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
		Filter:          filter,
		Namespace:       p.namespace,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Matches, nil
}

func (p *PineconeClient) Delete(ctx context.Context, ids []string) error {
	return p.post(ctx, "/vectors/delete", deleteRequest{IDs: ids, Namespace: p.namespace}, nil)
}
