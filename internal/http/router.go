package httpapi

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（Go 1.22 method + wildcard patterns）
type Router struct {
	mux    *http.ServeMux
	auth   Authenticator
	logger *zap.Logger
}

func NewRouter(auth Authenticator, logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		auth:   auth,
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// HandleAuthed registers a route that needs a bearer token.
func (r *Router) HandleAuthed(pattern string, h CallerHandler) {
	r.mux.HandleFunc(pattern, r.requireCaller(h))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterHealthRoutes 健康检查与 Prometheus
func (r *Router) RegisterHealthRoutes(metrics http.Handler) {
	r.Handle("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
	if metrics != nil {
		r.HandleHandler("GET /metrics", metrics)
	}
}

func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("POST /auth/signin", h.SignIn)
	r.HandleAuthed("GET /auth/me", h.Me)
}

func (r *Router) RegisterTenantRoutes(h *TenantsHandler) {
	r.HandleAuthed("GET /tenants", h.List)
	r.HandleAuthed("POST /tenants", h.Create)
	r.HandleAuthed("PATCH /tenants/{tenantUid}", h.Update)
	r.HandleAuthed("DELETE /tenants/{tenantUid}", h.Delete)
}

func (r *Router) RegisterUserRoutes(h *UsersHandler) {
	r.HandleAuthed("GET /tenants/{tenantUid}/users", h.List)
	r.HandleAuthed("POST /tenants/{tenantUid}/users", h.Create)
	r.HandleAuthed("PATCH /users/{uid}", h.Update)
	r.HandleAuthed("DELETE /users/{uid}", h.Delete)
}

func (r *Router) RegisterResidentRoutes(h *ResidentsHandler) {
	r.HandleAuthed("GET /tenants/{tenantUid}/residents", h.List)
	r.HandleAuthed("POST /tenants/{tenantUid}/residents", h.Create)
	r.HandleAuthed("GET /tenants/{tenantUid}/residents/{uid}", h.Get)
	r.HandleAuthed("PATCH /tenants/{tenantUid}/residents/{uid}", h.Update)
	r.HandleAuthed("DELETE /tenants/{tenantUid}/residents/{uid}", h.Delete)
}

func (r *Router) RegisterSubjectRoutes(h *SubjectsHandler) {
	r.HandleAuthed("GET /tenants/{tenantUid}/subjects", h.List)
	r.HandleAuthed("POST /tenants/{tenantUid}/subjects", h.Create)
	r.HandleAuthed("GET /tenants/{tenantUid}/subjects/{uid}", h.Get)
	r.HandleAuthed("PATCH /tenants/{tenantUid}/subjects/{uid}", h.Update)
	r.HandleAuthed("DELETE /tenants/{tenantUid}/subjects/{uid}", h.Delete)
}

// RegisterRecordRoutes mounts one observation kind under /residents/{residentUid}/{kind}-records.
func (r *Router) RegisterRecordRoutes(h RecordRoutes) {
	base := fmt.Sprintf("/residents/{residentUid}/%s-records", h.Kind())
	r.HandleAuthed("GET "+base, h.List)
	r.HandleAuthed("POST "+base, h.Create)
	r.HandleAuthed("GET "+base+"/{uid}", h.Get)
	r.HandleAuthed("PATCH "+base+"/{uid}", h.Update)
	r.HandleAuthed("DELETE "+base+"/{uid}", h.Delete)

	// transcription: PATCH 追記 / PUT 置換 / DELETE 消去
	r.HandleAuthed("GET "+base+"/{uid}/transcription", h.GetTranscription)
	r.HandleAuthed("PATCH "+base+"/{uid}/transcription", h.AppendTranscription)
	r.HandleAuthed("PUT "+base+"/{uid}/transcription", h.ReplaceTranscription)
	r.HandleAuthed("DELETE "+base+"/{uid}/transcription", h.ClearTranscription)

	r.HandleAuthed("POST "+base+"/{uid}/extract", h.Extract)
}

func (r *Router) RegisterFoodSummaryRoutes(h *FoodSummaryHandler) {
	r.HandleAuthed("GET /residents/{residentUid}/food-records/daily", h.Daily)
}

func (r *Router) RegisterExportRoutes(h *ExportHandler) {
	r.HandleAuthed("GET /residents/{residentUid}/records/export", h.Export)
}

func (r *Router) RegisterAssessmentRoutes(h *AssessmentsHandler) {
	r.HandleAuthed("GET /assessments", h.List)
	r.HandleAuthed("POST /assessments", h.Create)
	r.HandleAuthed("GET /assessments/{uid}", h.Get)
	r.HandleAuthed("PATCH /assessments/{uid}", h.Update)
	r.HandleAuthed("DELETE /assessments/{uid}", h.Delete)

	r.HandleAuthed("GET /assessments/{uid}/transcription", h.GetTranscription)
	r.HandleAuthed("PATCH /assessments/{uid}/transcription", h.AppendTranscription)
	r.HandleAuthed("PUT /assessments/{uid}/transcription", h.ReplaceTranscription)
	r.HandleAuthed("DELETE /assessments/{uid}/transcription", h.ClearTranscription)

	r.HandleAuthed("POST /assessments/{uid}/extract", h.Extract)
	r.HandleAuthed("POST /assessments/{uid}/summarize", h.Summarize)
}

func (r *Router) RegisterChatRoutes(h *ChatHandler) {
	r.HandleAuthed("GET /chat/threads", h.ListThreads)
	r.HandleAuthed("POST /chat/threads", h.CreateThread)
	r.HandleAuthed("GET /chat/threads/{uid}", h.GetThread)
	r.HandleAuthed("PUT /chat/threads/{uid}", h.UpdateThread)
	r.HandleAuthed("DELETE /chat/threads/{uid}", h.DeleteThread)
	r.HandleAuthed("POST /chat/threads/{uid}/messages", h.PostMessage)
}

func (r *Router) RegisterQARoutes(h *QAHandler) {
	r.HandleAuthed("GET /qa/sessions", h.ListSessions)
	r.HandleAuthed("POST /qa/sessions", h.CreateSession)
	r.HandleAuthed("GET /qa/sessions/{uid}", h.GetSession)
	r.HandleAuthed("DELETE /qa/sessions/{uid}", h.DeleteSession)

	r.HandleAuthed("POST /qa/sessions/{uid}/question-answers", h.AddQuestionAnswer)
	r.HandleAuthed("PUT /qa/sessions/{uid}/question-answers", h.UpsertQuestionAnswers)
	r.HandleAuthed("PATCH /qa/question-answers/{uid}", h.UpdateQuestionAnswer)
	r.HandleAuthed("DELETE /qa/question-answers/{uid}", h.DeleteQuestionAnswer)

	r.HandleAuthed("PUT /qa/sessions/{uid}/transcription", h.UpdateTranscription)
	r.HandleAuthed("POST /qa/sessions/{uid}/extract", h.Extract)
}

func (r *Router) RegisterTranscriptionRoutes(h *TranscriptionHandler) {
	r.HandleAuthed("POST /transcription", h.Transcribe)
	r.HandleAuthed("POST /transcription/diarize", h.Diarize)
}
