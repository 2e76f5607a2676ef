package httpapi

import (
	"net/http"

	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"go.uber.org/zap"
)

// QAHandler /qa
type QAHandler struct {
	qa     *service.QAService
	logger *zap.Logger
}

func NewQAHandler(qa *service.QAService, logger *zap.Logger) *QAHandler {
	return &QAHandler{qa: qa, logger: logger}
}

func (h *QAHandler) ListSessions(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	list, err := h.qa.ListSessions(r.Context(), caller)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *QAHandler) CreateSession(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.SessionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	s, err := h.qa.CreateSession(r.Context(), caller, req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(s))
}

func (h *QAHandler) GetSession(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	s, err := h.qa.GetSession(r.Context(), caller, r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(s))
}

func (h *QAHandler) DeleteSession(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	if err := h.qa.DeleteSession(r.Context(), caller, r.PathValue("uid")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *QAHandler) AddQuestionAnswer(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.QuestionAnswerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	qa, err := h.qa.AddQuestionAnswer(r.Context(), caller, r.PathValue("uid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(qa))
}

// UpsertQuestionAnswers 整体替换会话的 Q/A
func (h *QAHandler) UpsertQuestionAnswers(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.UpsertQuestionAnswersRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	list, err := h.qa.UpsertQuestionAnswers(r.Context(), caller, r.PathValue("uid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *QAHandler) UpdateQuestionAnswer(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.UpdateQuestionAnswerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	qa, err := h.qa.UpdateQuestionAnswer(r.Context(), caller, r.PathValue("uid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(qa))
}

func (h *QAHandler) DeleteQuestionAnswer(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	if err := h.qa.DeleteQuestionAnswer(r.Context(), caller, r.PathValue("uid")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *QAHandler) UpdateTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.TranscriptionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	resp, err := h.qa.UpdateTranscription(r.Context(), caller, r.PathValue("uid"), req.Transcription)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *QAHandler) Extract(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	out, err := h.qa.ExtractQAPairs(r.Context(), caller, r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}
