package httpapi

import (
	"net/http"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/metrics"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"go.uber.org/zap"
)

// Services 由 main 组装后交给 HTTP 层
type Services struct {
	Auth          *service.AuthService
	Tenants       *service.TenantService
	Users         *service.UserService
	Residents     *service.ResidentService
	Subjects      *service.SubjectService
	Food          *service.FoodRecordService
	Bath          *service.BathRecordService
	Elimination   *service.EliminationRecordService
	Beverage      *service.BeverageRecordService
	Daily         *service.DailyRecordService
	Assessments   *service.AssessmentService
	Chat          *service.ChatService
	QA            *service.QAService
	Transcription *service.TranscriptionService
	Export        *service.ExportService
}

type Options struct {
	CORSOrigin string
	Metrics    *metrics.Registry
}

// NewAPI registers every route and wraps the mux in recover, CORS, access log and
// request metrics. Metrics wrap the mux directly so the matched pattern is visible.
func NewAPI(s Services, opts Options, logger *zap.Logger) http.Handler {
	r := NewRouter(s.Auth, logger)

	var metricsHandler http.Handler
	if opts.Metrics != nil {
		metricsHandler = opts.Metrics.Handler()
	}
	r.RegisterHealthRoutes(metricsHandler)
	r.RegisterAuthRoutes(NewAuthHandler(s.Auth, logger))
	r.RegisterTenantRoutes(NewTenantsHandler(s.Tenants, logger))
	r.RegisterUserRoutes(NewUsersHandler(s.Users, logger))
	r.RegisterResidentRoutes(NewResidentsHandler(s.Residents, logger))
	r.RegisterSubjectRoutes(NewSubjectsHandler(s.Subjects, logger))

	r.RegisterRecordRoutes(NewRecordHandler[*domain.FoodRecord, service.FoodRecordInput](s.Food, logger))
	r.RegisterRecordRoutes(NewRecordHandler[*domain.BathRecord, service.BathRecordInput](s.Bath, logger))
	r.RegisterRecordRoutes(NewRecordHandler[*domain.EliminationRecord, service.EliminationRecordInput](s.Elimination, logger))
	r.RegisterRecordRoutes(NewRecordHandler[*domain.BeverageRecord, service.BeverageRecordInput](s.Beverage, logger))
	r.RegisterRecordRoutes(NewRecordHandler[*domain.DailyRecord, service.DailyRecordInput](s.Daily, logger))
	r.RegisterFoodSummaryRoutes(NewFoodSummaryHandler(s.Food, logger))
	r.RegisterExportRoutes(NewExportHandler(s.Export, logger))

	r.RegisterAssessmentRoutes(NewAssessmentsHandler(s.Assessments, logger))
	r.RegisterChatRoutes(NewChatHandler(s.Chat, logger))
	r.RegisterQARoutes(NewQAHandler(s.QA, logger))
	r.RegisterTranscriptionRoutes(NewTranscriptionHandler(s.Transcription, logger))

	var h http.Handler = r
	if opts.Metrics != nil {
		h = opts.Metrics.Middleware(h)
	}
	h = AccessLog(logger, h)
	h = CORS(opts.CORSOrigin, h)
	return Recover(logger, h)
}
