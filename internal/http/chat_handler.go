package httpapi

import (
	"net/http"

	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"go.uber.org/zap"
)

// ChatHandler RAG 对话，线程仅创建者可见
type ChatHandler struct {
	chat   *service.ChatService
	logger *zap.Logger
}

func NewChatHandler(chat *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

func (h *ChatHandler) ListThreads(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	list, err := h.chat.ListThreads(r.Context(), caller)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *ChatHandler) CreateThread(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	t, err := h.chat.CreateThread(r.Context(), caller)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(t))
}

func (h *ChatHandler) GetThread(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	t, err := h.chat.GetThread(r.Context(), caller, r.PathValue("uid"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(t))
}

func (h *ChatHandler) UpdateThread(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.ThreadRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	t, err := h.chat.UpdateThread(r.Context(), caller, r.PathValue("uid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(t))
}

func (h *ChatHandler) DeleteThread(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	if err := h.chat.DeleteThread(r.Context(), caller, r.PathValue("uid")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request, caller policy.Caller) {
	var req service.MessageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	resp, err := h.chat.PostMessage(r.Context(), caller, r.PathValue("uid"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(resp))
}
