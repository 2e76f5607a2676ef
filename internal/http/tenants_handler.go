package httpapi

import (
	"net/http"

	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"go.uber.org/zap"
)

// TenantsHandler 施設管理（GLOBAL_ADMIN）
type TenantsHandler struct {
	tenants *service.TenantService
	logger  *zap.Logger
}

func NewTenantsHandler(tenants *service.TenantService, logger *zap.Logger) *TenantsHandler {
	return &TenantsHandler{tenants: tenants, logger: logger}
}

func (h *TenantsHandler) List(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	list, err := h.tenants.ListTenants(r.Context(), caller)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *TenantsHandler) Create(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.TenantRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	t, err := h.tenants.CreateTenant(r.Context(), caller, req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(t))
}

func (h *TenantsHandler) Update(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.TenantRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	t, err := h.tenants.UpdateTenant(r.Context(), caller, r.PathValue("tenantUid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(t))
}

func (h *TenantsHandler) Delete(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	if err := h.tenants.DeleteTenant(r.Context(), caller, r.PathValue("tenantUid")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// UsersHandler 租户用户管理
type UsersHandler struct {
	users  *service.UserService
	logger *zap.Logger
}

func NewUsersHandler(users *service.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{users: users, logger: logger}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	list, err := h.users.ListTenantUsers(r.Context(), caller, r.PathValue("tenantUid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.CreateUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	u, err := h.users.CreateTenantUser(r.Context(), caller, r.PathValue("tenantUid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(u))
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.UpdateUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	u, err := h.users.UpdateUser(r.Context(), caller, r.PathValue("uid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(u))
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	if err := h.users.DeleteUser(r.Context(), caller, r.PathValue("uid")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
