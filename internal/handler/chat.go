package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"gowa-hub/internal/waclient"
)

const defaultMessageLimit = 50

// SendMessageRequest is the body for text messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// GET /api/:tenantId/:label/chats
func (h *Handler) GetChats(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "Please init the session first")
	}

	chats, err := sess.Client.GetChats(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to get chats", "GET_CHATS_FAILED", err.Error())
	}

	return SuccessResponse(c, http.StatusOK, "Chats retrieved", map[string]interface{}{
		"total": len(chats),
		"chats": chats,
	})
}

// GET /api/:tenantId/:label/chats/:chatId
func (h *Handler) GetChat(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "Please init the session first")
	}

	chat, err := sess.Client.GetChatByID(c.Request().Context(), c.Param("chatId"))
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to get chat", "GET_CHAT_FAILED", err.Error())
	}
	if chat == nil {
		return ErrorResponse(c, http.StatusNotFound, "Chat not found", "CHAT_NOT_FOUND", "")
	}

	return SuccessResponse(c, http.StatusOK, "Chat retrieved", chat)
}

// GET /api/:tenantId/:label/chats/:chatId/messages?limit
func (h *Handler) GetMessages(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "Please init the session first")
	}

	limit := defaultMessageLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return ErrorResponse(c, http.StatusBadRequest, "Query param 'limit' must be a positive integer", "VALIDATION_ERROR", "")
		}
		limit = n
	}

	msgs, err := sess.Client.FetchMessages(c.Request().Context(), c.Param("chatId"), limit)
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch messages", "FETCH_FAILED", err.Error())
	}

	return SuccessResponse(c, http.StatusOK, "Messages retrieved", map[string]interface{}{
		"total":    len(msgs),
		"messages": msgs,
	})
}

// POST /api/:tenantId/:label/chats/:chatId/messages
func (h *Handler) SendMessage(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "Please init the session first")
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if strings.TrimSpace(req.Content) == "" {
		return ErrorResponse(c, http.StatusBadRequest, "Field 'content' is required", "VALIDATION_ERROR", "")
	}

	msg, err := sess.Client.SendMessage(c.Request().Context(), c.Param("chatId"), req.Content, waclient.SendOptions{})
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to send message", "SEND_FAILED", err.Error())
	}

	return SuccessResponse(c, http.StatusOK, "Message sent", msg)
}
