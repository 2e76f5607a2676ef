package httpapi

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"go.uber.org/zap"
)

// ExportHandler 记录导出为 Excel
type ExportHandler struct {
	export *service.ExportService
	logger *zap.Logger
}

func NewExportHandler(export *service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{export: export, logger: logger}
}

// Export ?from&to（RFC3339 或 YYYY-MM-DD，to 含当日）
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
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
	f, err := h.export.ExportResidentRecords(r.Context(), caller, r.PathValue("residentUid"), service.ExportRequest{From: from, To: to})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}
