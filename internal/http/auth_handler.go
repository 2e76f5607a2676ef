package httpapi

import (
	"net/http"

	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"go.uber.org/zap"
)

// AuthHandler 登录 / 当前用户
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler 创建认证 Handler
func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// SignIn 用户登录
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req service.SignInRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	resp, err := h.authService.SignIn(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Me 当前登录用户
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	u, err := h.authService.Me(r.Context(), caller)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(u))
}
