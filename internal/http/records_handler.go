package httpapi

import (
	"context"
	"net/http"

	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"go.uber.org/zap"
)

// recordService is the surface of service.RecordService[T, In] used over HTTP.
type recordService[T any, In any] interface {
	Kind() policy.Kind
	List(ctx context.Context, caller policy.Caller, residentUID string, f repository.RecordFilter) (*service.ListResponse[T], error)
	Get(ctx context.Context, caller policy.Caller, residentUID, uid string) (T, error)
	Create(ctx context.Context, caller policy.Caller, residentUID string, in In) (T, error)
	Update(ctx context.Context, caller policy.Caller, residentUID, uid string, in In) (T, error)
	Delete(ctx context.Context, caller policy.Caller, residentUID, uid string) error
	GetTranscription(ctx context.Context, caller policy.Caller, residentUID, uid string) (*service.TranscriptionResponse, error)
	AppendTranscription(ctx context.Context, caller policy.Caller, residentUID, uid, text string) (*service.TranscriptionResponse, error)
	ReplaceTranscription(ctx context.Context, caller policy.Caller, residentUID, uid, text string) (*service.TranscriptionResponse, error)
	ClearTranscription(ctx context.Context, caller policy.Caller, residentUID, uid string) (*service.TranscriptionResponse, error)
	Extract(ctx context.Context, caller policy.Caller, residentUID, uid string) (any, error)
}

// RecordRoutes 由 RegisterRecordRoutes 挂载
type RecordRoutes interface {
	Kind() policy.Kind
	List(w http.ResponseWriter, r *http.Request, caller policy.Caller)
	Create(w http.ResponseWriter, r *http.Request, caller policy.Caller)
	Get(w http.ResponseWriter, r *http.Request, caller policy.Caller)
	Update(w http.ResponseWriter, r *http.Request, caller policy.Caller)
	Delete(w http.ResponseWriter, r *http.Request, caller policy.Caller)
	GetTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller)
	AppendTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller)
	ReplaceTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller)
	ClearTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller)
	Extract(w http.ResponseWriter, r *http.Request, caller policy.Caller)
}

// RecordHandler serves one observation kind. T is the record type, In its input.
type RecordHandler[T any, In any] struct {
	svc    recordService[T, In]
	logger *zap.Logger
}

func NewRecordHandler[T any, In any](svc recordService[T, In], logger *zap.Logger) *RecordHandler[T, In] {
	return &RecordHandler[T, In]{svc: svc, logger: logger}
}

var _ RecordRoutes = (*RecordHandler[any, service.RecordInput])(nil)

func (h *RecordHandler[T, In]) Kind() policy.Kind { return h.svc.Kind() }

// List ?from&to 按 recordedAt 过滤
func (h *RecordHandler[T, In]) List(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	from, err := parseTimeParam(r, "from", false)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	to, err := parseTimeParam(r, "to", true)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	list, err := h.svc.List(r.Context(), caller, r.PathValue("residentUid"), repository.RecordFilter{From: from, To: to})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *RecordHandler[T, In]) Get(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	rec, err := h.svc.Get(r.Context(), caller, r.PathValue("residentUid"), r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(rec))
}

func (h *RecordHandler[T, In]) Create(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var in In
	if err := decode(r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	rec, err := h.svc.Create(r.Context(), caller, r.PathValue("residentUid"), in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(rec))
}

func (h *RecordHandler[T, In]) Update(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var in In
	if err := decode(r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	rec, err := h.svc.Update(r.Context(), caller, r.PathValue("residentUid"), r.PathValue("uid"), in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(rec))
}

func (h *RecordHandler[T, In]) Delete(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	if err := h.svc.Delete(r.Context(), caller, r.PathValue("residentUid"), r.PathValue("uid")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *RecordHandler[T, In]) GetTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	resp, err := h.svc.GetTranscription(r.Context(), caller, r.PathValue("residentUid"), r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *RecordHandler[T, In]) AppendTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.TranscriptionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	resp, err := h.svc.AppendTranscription(r.Context(), caller, r.PathValue("residentUid"), r.PathValue("uid"), req.Transcription)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *RecordHandler[T, In]) ReplaceTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.TranscriptionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	resp, err := h.svc.ReplaceTranscription(r.Context(), caller, r.PathValue("residentUid"), r.PathValue("uid"), req.Transcription)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *RecordHandler[T, In]) ClearTranscription(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	resp, err := h.svc.ClearTranscription(r.Context(), caller, r.PathValue("residentUid"), r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Extract 从转写文本中抽取字段（不写回记录）
func (h *RecordHandler[T, In]) Extract(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	out, err := h.svc.Extract(r.Context(), caller, r.PathValue("residentUid"), r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

// FoodSummaryHandler 饮食记录按日汇总
type FoodSummaryHandler struct {
	food   *service.FoodRecordService
	logger *zap.Logger
}

func NewFoodSummaryHandler(food *service.FoodRecordService, logger *zap.Logger) *FoodSummaryHandler {
	return &FoodSummaryHandler{food: food, logger: logger}
}

func (h *FoodSummaryHandler) Daily(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	q := r.URL.Query()
	list, err := h.food.DailySummary(r.Context(), caller, r.PathValue("residentUid"), service.DailySummaryRequest{
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}
