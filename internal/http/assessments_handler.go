package httpapi

import (
	"net/http"

	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"go.uber.org/zap"
)

// AssessmentsHandler /assessments
type AssessmentsHandler struct {
	assessments *service.AssessmentService
	logger      *zap.Logger
}

func NewAssessmentsHandler(assessments *service.AssessmentService, logger *zap.Logger) *AssessmentsHandler {
	return &AssessmentsHandler{assessments: assessments, logger: logger}
}

// List ?tenantUid，省略时为调用者所属租户
func (h *AssessmentsHandler) List(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	list, err := h.assessments.ListAssessments(r.Context(), caller, r.URL.Query().Get("tenantUid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *AssessmentsHandler) Get(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	a, err := h.assessments.GetAssessment(r.Context(), caller, r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

func (h *AssessmentsHandler) Create(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.AssessmentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	a, err := h.assessments.CreateAssessment(r.Context(), caller, req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(a))
}

func (h *AssessmentsHandler) Update(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.AssessmentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	a, err := h.assessments.UpdateAssessment(r.Context(), caller, r.PathValue("uid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

func (h *AssessmentsHandler) Delete(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	if err := h.assessments.DeleteAssessment(r.Context(), caller, r.PathValue("uid")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AssessmentsHandler) GetTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	resp, err := h.assessments.GetTranscription(r.Context(), caller, r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AssessmentsHandler) AppendTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.TranscriptionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	resp, err := h.assessments.AppendTranscription(r.Context(), caller, r.PathValue("uid"), req.Transcription)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AssessmentsHandler) ReplaceTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.TranscriptionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	resp, err := h.assessments.ReplaceTranscription(r.Context(), caller, r.PathValue("uid"), req.Transcription)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AssessmentsHandler) ClearTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	resp, err := h.assessments.ClearTranscription(r.Context(), caller, r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AssessmentsHandler) Extract(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	out, err := h.assessments.Extract(r.Context(), caller, r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *AssessmentsHandler) Summarize(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	out, err := h.assessments.Summarize(r.Context(), caller, r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}
