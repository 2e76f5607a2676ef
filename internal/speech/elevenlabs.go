package speech

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yuta0709/nagara-care-api/internal/config"
	"go.uber.org/zap"
)

// ElevenLabsDiarizer ElevenLabs speech-to-text（diarize=true）客户端
type ElevenLabsDiarizer struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewElevenLabsDiarizer(cfg config.ElevenLabsConfig, logger *zap.Logger) *ElevenLabsDiarizer {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(180 * time.Second).
		SetHeader("xi-api-key", cfg.APIKey).
		SetHeader("Accept", "application/json")
	return &ElevenLabsDiarizer{httpClient: client, logger: logger}
}

var _ Diarizer = (*ElevenLabsDiarizer)(nil)

func (d *ElevenLabsDiarizer) Diarize(ctx context.Context, audio Audio) ([]Utterance, error) {
	name := audio.Filename
	if name == "" {
		name = "audio.mp3"
	}
	var out struct {
		Text  string `json:"text"`
		Words []Word `json:"words"`
	}
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", name, audio.Body).
		SetFormData(map[string]string{
			"model_id":      "scribe_v1",
			"language_code": "jpn",
			"diarize":       "true",
		}).
		SetResult(&out).
		Post("/v1/speech-to-text")
	if err != nil {
		d.logger.Error("Diarization API call failed", zap.Error(err))
		return nil, fmt.Errorf("diarize: %w", err)
	}
	if resp.IsError() {
		d.logger.Error("Diarization API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return nil, fmt.Errorf("diarize: status %d", resp.StatusCode())
	}
	return MergeSpeakerRuns(out.Words), nil
}
