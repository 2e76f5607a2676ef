package service

import (
	"bytes"
	"context"
	"io"

	"github.com/yuta0709/nagara-care-api/internal/archive"
	"github.com/yuta0709/nagara-care-api/internal/metrics"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/speech"
	"go.uber.org/zap"
)

// TranscribeResponse 转写结果
type TranscribeResponse struct {
	Text       string `json:"text"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

// DiarizeResponse 話者分離結果
type DiarizeResponse struct {
	Utterances []speech.Utterance `json:"utterances"`
	ArchiveKey string             `json:"archiveKey,omitempty"`
}

// TranscriptionService 语音转文本，配置了 archive 时先保存原始音频
type TranscriptionService struct {
	transcriber speech.Transcriber
	diarizer    speech.Diarizer
	archive     archive.Archiver
	metrics     *metrics.Registry
	logger      *zap.Logger
}

// NewTranscriptionService accepts nil collaborators; the matching operation then reports
// an upstream error, and a nil archiver skips archiving.
func NewTranscriptionService(t speech.Transcriber, d speech.Diarizer, a archive.Archiver, m *metrics.Registry, logger *zap.Logger) *TranscriptionService {
	return &TranscriptionService{transcriber: t, diarizer: d, archive: a, metrics: m, logger: logger}
}

// buffer reads the upload once so it can be both archived and sent upstream.
func (s *TranscriptionService) buffer(ctx context.Context, caller policy.Caller, audio speech.Audio) (speech.Audio, string, error) {
	if audio.Body == nil {
		return audio, "", policy.ErrBadRequest("file is required")
	}
	data, err := io.ReadAll(io.LimitReader(audio.Body, speech.MaxAudioBytes+1))
	if err != nil {
		return audio, "", policy.ErrBadRequest("failed to read upload")
	}
	if len(data) == 0 {
		return audio, "", policy.ErrBadRequest("file is empty")
	}
	if len(data) > speech.MaxAudioBytes {
		return audio, "", policy.ErrBadRequest("file exceeds 25MB")
	}
	audio.Body = bytes.NewReader(data)

	key := ""
	if s.archive != nil {
		key, err = s.archive.Store(ctx, caller.Tenant(), audio.Filename, audio.ContentType, bytes.NewReader(data))
		if err != nil {
			// archiving is best effort; transcription still proceeds
			s.logger.Warn("Failed to archive audio", zap.String("user_id", caller.UserID), zap.Error(err))
			key = ""
		}
	}
	return audio, key, nil
}

func (s *TranscriptionService) Transcribe(ctx context.Context, caller policy.Caller, audio speech.Audio) (*TranscribeResponse, error) {
	if s.transcriber == nil {
		return nil, policy.ErrUpstream("transcription is unavailable", errExtractorMissing)
	}
	audio, key, err := s.buffer(ctx, caller, audio)
	if err != nil {
		return nil, err
	}
	text, err := s.transcriber.Transcribe(ctx, audio)
	s.observe("transcribe", err)
	if err != nil {
		s.logger.Warn("Transcription failed", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, policy.ErrUpstream("transcription failed", err)
	}
	return &TranscribeResponse{Text: text, ArchiveKey: key}, nil
}

func (s *TranscriptionService) Diarize(ctx context.Context, caller policy.Caller, audio speech.Audio) (*DiarizeResponse, error) {
	if s.diarizer == nil {
		return nil, policy.ErrUpstream("diarization is unavailable", errExtractorMissing)
	}
	audio, key, err := s.buffer(ctx, caller, audio)
	if err != nil {
		return nil, err
	}
	utts, err := s.diarizer.Diarize(ctx, audio)
	s.observe("diarize", err)
	if err != nil {
		s.logger.Warn("Diarization failed", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, policy.ErrUpstream("diarization failed", err)
	}
	if utts == nil {
		utts = []speech.Utterance{}
	}
	return &DiarizeResponse{Utterances: utts, ArchiveKey: key}, nil
}

func (s *TranscriptionService) observe(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveUpstream(op, err)
	}
}
