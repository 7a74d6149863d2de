package handler

import (
	"errors"
	"net/http"
	"strings"

	"gowa-hub/internal/model"
	"gowa-hub/internal/service"
	"gowa-hub/internal/ws"

	"github.com/labstack/echo/v4"
)

// Handler carries the shared collaborators for all routes.
type Handler struct {
	Registry *service.Registry
	Media    *service.MediaService
	Hub      *ws.Hub
}

func New(registry *service.Registry, media *service.MediaService, hub *ws.Hub) *Handler {
	return &Handler{Registry: registry, Media: media, Hub: hub}
}

type sessionKeyRequest struct {
	TenantID string `json:"tenantId"`
	Label    string `json:"label"`
}

func (r *sessionKeyRequest) validate() string {
	r.TenantID = strings.TrimSpace(r.TenantID)
	r.Label = strings.TrimSpace(r.Label)
	switch {
	case r.TenantID == "":
		return "Field 'tenantId' is required"
	case r.Label == "":
		return "Field 'label' is required"
	}
	return ""
}

// GET /api/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	sessions := h.Registry.Sessions()
	return SuccessResponse(c, http.StatusOK, "Sessions retrieved", map[string]interface{}{
		"total":    len(sessions),
		"sessions": sessions,
	})
}

// GET /api/sessions/detected
func (h *Handler) DetectSessions(c echo.Context) error {
	detected, err := h.Registry.DetectPersisted()
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to scan session root", "SCAN_FAILED", err.Error())
	}
	return SuccessResponse(c, http.StatusOK, "Persisted sessions detected", map[string]interface{}{
		"total":    len(detected),
		"sessions": detected,
	})
}

// POST /api/sessions/init
func (h *Handler) InitSession(c echo.Context) error {
	var req sessionKeyRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if msg := req.validate(); msg != "" {
		return ErrorResponse(c, http.StatusBadRequest, msg, "VALIDATION_ERROR", "")
	}

	snap, err := h.Registry.Init(c.Request().Context(), req.TenantID, req.Label)
	if err != nil {
		if errors.Is(err, service.ErrCapacityExceeded) {
			return ErrorResponse(c, http.StatusConflict, "Maximum number of sessions reached", "CAPACITY_EXCEEDED", "")
		}
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to init session", "INIT_FAILED", err.Error())
	}

	return SuccessResponse(c, http.StatusOK, "Session initialized", snap)
}

// POST /api/sessions/destroy
func (h *Handler) DestroySession(c echo.Context) error {
	var req sessionKeyRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if msg := req.validate(); msg != "" {
		return ErrorResponse(c, http.StatusBadRequest, msg, "VALIDATION_ERROR", "")
	}

	if err := h.Registry.Destroy(c.Request().Context(), req.TenantID, req.Label); err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to destroy session", "DESTROY_FAILED", err.Error())
	}

	return SuccessResponse(c, http.StatusOK, "Session destroyed", map[string]interface{}{
		"tenantId": req.TenantID,
		"label":    req.Label,
	})
}

// POST /api/sessions/restore-all
func (h *Handler) RestoreSessions(c echo.Context) error {
	results, err := h.Registry.RestoreAll(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to restore sessions", "RESTORE_FAILED", err.Error())
	}

	restored := 0
	for _, r := range results {
		if r.Status == "restored" {
			restored++
		}
	}

	return SuccessResponse(c, http.StatusOK, "Restore completed", map[string]interface{}{
		"total":    len(results),
		"restored": restored,
		"results":  results,
	})
}

// GET /api/sessions/status?tenantId&label
func (h *Handler) SessionStatus(c echo.Context) error {
	tenantID := strings.TrimSpace(c.QueryParam("tenantId"))
	label := strings.TrimSpace(c.QueryParam("label"))
	if tenantID == "" || label == "" {
		return ErrorResponse(c, http.StatusBadRequest, "Query params 'tenantId' and 'label' are required", "VALIDATION_ERROR", "")
	}

	return SuccessResponse(c, http.StatusOK, "Status retrieved", h.Registry.Status(tenantID, label))
}

// session resolves the tenantId/label path params to a live session.
func (h *Handler) session(c echo.Context) (*model.Session, error) {
	return h.Registry.Session(c.Param("tenantId"), c.Param("label"))
}
