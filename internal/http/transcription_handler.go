package httpapi

import (
	"errors"
	"net/http"

	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"github.com/yuta0709/nagara-care-api/internal/speech"
	"go.uber.org/zap"
)

// multipart framing on top of the audio itself
const multipartOverhead = 1 << 20

// TranscriptionHandler 上传音频（multipart 字段 "file"）
type TranscriptionHandler struct {
	transcription *service.TranscriptionService
	logger        *zap.Logger
}

func NewTranscriptionHandler(transcription *service.TranscriptionService, logger *zap.Logger) *TranscriptionHandler {
	return &TranscriptionHandler{transcription: transcription, logger: logger}
}

// audio opens the uploaded file. The caller must close the returned func.
func (h *TranscriptionHandler) audio(w http.ResponseWriter, r *http.Request) (speech.Audio, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, speech.MaxAudioBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return speech.Audio{}, nil, policy.ErrBadRequest("file exceeds 25MB")
		}
		return speech.Audio{}, nil, policy.ErrBadRequest("file is required")
	}
	a := speech.Audio{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	return a, func() {
		_ = file.Close()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}, nil
}

func (h *TranscriptionHandler) Transcribe(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	a, done, err := h.audio(w, r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	defer done()
	resp, err := h.transcription.Transcribe(r.Context(), caller, a)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Diarize 带说话人分离的转写
func (h *TranscriptionHandler) Diarize(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	a, done, err := h.audio(w, r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	defer done()
	resp, err := h.transcription.Diarize(r.Context(), caller, a)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
