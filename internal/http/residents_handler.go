package httpapi

import (
	"net/http"

	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"go.uber.org/zap"
)

// ResidentsHandler /tenants/{tenantUid}/residents
type ResidentsHandler struct {
	residents *service.ResidentService
	logger    *zap.Logger
}

func NewResidentsHandler(residents *service.ResidentService, logger *zap.Logger) *ResidentsHandler {
	return &ResidentsHandler{residents: residents, logger: logger}
}

func (h *ResidentsHandler) List(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	list, err := h.residents.ListResidents(r.Context(), caller, r.PathValue("tenantUid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *ResidentsHandler) Get(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	res, err := h.residents.GetResident(r.Context(), caller, r.PathValue("tenantUid"), r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *ResidentsHandler) Create(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.ResidentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	res, err := h.residents.CreateResident(r.Context(), caller, r.PathValue("tenantUid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(res))
}

func (h *ResidentsHandler) Update(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.ResidentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	res, err := h.residents.UpdateResident(r.Context(), caller, r.PathValue("tenantUid"), r.PathValue("uid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *ResidentsHandler) Delete(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	if err := h.residents.DeleteResident(r.Context(), caller, r.PathValue("tenantUid"), r.PathValue("uid")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// SubjectsHandler /tenants/{tenantUid}/subjects（评估对象）
type SubjectsHandler struct {
	subjects *service.SubjectService
	logger   *zap.Logger
}

func NewSubjectsHandler(subjects *service.SubjectService, logger *zap.Logger) *SubjectsHandler {
	return &SubjectsHandler{subjects: subjects, logger: logger}
}

func (h *SubjectsHandler) List(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	list, err := h.subjects.ListSubjects(r.Context(), caller, r.PathValue("tenantUid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *SubjectsHandler) Get(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	s, err := h.subjects.GetSubject(r.Context(), caller, r.PathValue("tenantUid"), r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(s))
}

func (h *SubjectsHandler) Create(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.PersonRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	s, err := h.subjects.CreateSubject(r.Context(), caller, r.PathValue("tenantUid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(s))
}

func (h *SubjectsHandler) Update(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.PersonRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	s, err := h.subjects.UpdateSubject(r.Context(), caller, r.PathValue("tenantUid"), r.PathValue("uid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(s))
}

func (h *SubjectsHandler) Delete(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	if err := h.subjects.DeleteSubject(r.Context(), caller, r.PathValue("tenantUid"), r.PathValue("uid")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
