package speech

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yuta0709/nagara-care-api/internal/config"
	"go.uber.org/zap"
)

// OpenAITranscriber OpenAI audio/transcriptions 客户端
type OpenAITranscriber struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

func NewOpenAITranscriber(cfg config.OpenAIConfig, logger *zap.Logger) *OpenAITranscriber {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(120 * time.Second). // 长音频
		SetHeader("Accept", "application/json")
	return &OpenAITranscriber{httpClient: client, model: cfg.TranscriptionModel, logger: logger}
}

var _ Transcriber = (*OpenAITranscriber)(nil)

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio Audio) (string, error) {
	name := audio.Filename
	if name == "" {
		name = "audio.mp3"
	}
	var out struct {
		Text string `json:"text"`
	}
	resp, err := t.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", name, audio.Body).
		SetFormData(map[string]string{"model": t.model}).
		SetResult(&out).
		Post("/audio/transcriptions")
	if err != nil {
		t.logger.Error("Transcription API call failed", zap.Error(err))
		return "", fmt.Errorf("transcribe: %w", err)
	}
	if resp.IsError() {
		t.logger.Error("Transcription API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return "", fmt.Errorf("transcribe: status %d", resp.StatusCode())
	}
	return out.Text, nil
}
