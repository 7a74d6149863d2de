package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"gowa-hub/internal/media"
	"gowa-hub/internal/service"
	"gowa-hub/internal/waclient"
)

// Voice notes below this size are rejected: the protocol side refuses
// payloads that short and the failure mode there is opaque.
const minVoiceBytes = 3000

func readUpload(c echo.Context) (*waclient.Media, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	return &waclient.Media{
		Data:     data,
		Mimetype: fh.Header.Get("Content-Type"),
		Filename: fh.Filename,
	}, nil
}

// POST /api/:tenantId/:label/chats/:chatId/media
func (h *Handler) SendMedia(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "Please init the session first")
	}

	upload, err := readUpload(c)
	if err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "Multipart field 'file' is required", "VALIDATION_ERROR", err.Error())
	}

	msg, err := sess.Client.SendMessage(c.Request().Context(), c.Param("chatId"), c.FormValue("caption"), waclient.SendOptions{
		Media:   upload,
		Caption: c.FormValue("caption"),
	})
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to send media", "SEND_FAILED", err.Error())
	}

	return SuccessResponse(c, http.StatusOK, "Media sent", msg)
}

// POST /api/:tenantId/:label/chats/:chatId/voice
func (h *Handler) SendVoice(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "Please init the session first")
	}

	upload, err := readUpload(c)
	if err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "Multipart field 'file' is required", "VALIDATION_ERROR", err.Error())
	}
	if len(upload.Data) < minVoiceBytes {
		return ErrorResponse(c, http.StatusBadRequest,
			fmt.Sprintf("Voice note too short: %d bytes (minimum %d)", len(upload.Data), minVoiceBytes),
			"VALIDATION_ERROR", "")
	}

	msg, err := sess.Client.SendMessage(c.Request().Context(), c.Param("chatId"), "", waclient.SendOptions{
		Media: upload,
		Voice: true,
	})
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to send voice note", "SEND_FAILED", err.Error())
	}

	return SuccessResponse(c, http.StatusOK, "Voice note sent", msg)
}

// GET /api/:tenantId/:label/media/:messageId
func (h *Handler) GetMedia(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "Please init the session first")
	}

	messageID := c.Param("messageId")
	entry, err := h.Media.Get(c.Request().Context(), sess.Client, messageID)
	if err != nil {
		if errors.Is(err, service.ErrMediaUnavailable) {
			return ErrorResponse(c, http.StatusGone, "Media is no longer available at the source", "MEDIA_UNAVAILABLE", err.Error())
		}
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch media", "MEDIA_FAILED", err.Error())
	}

	result := media.ServeRange(entry.Data, entry.Mimetype, entry.Filename, c.Request().Header.Get("Range"))

	res := c.Response()
	res.Header().Set("Accept-Ranges", "bytes")
	if result.ContentRange != "" {
		res.Header().Set("Content-Range", result.ContentRange)
	}
	if result.Code == http.StatusRequestedRangeNotSatisfiable {
		return c.NoContent(result.Code)
	}

	res.Header().Set("Content-Length", fmt.Sprintf("%d", result.ContentLength))
	if result.Filename != "" {
		res.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", result.Filename))
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Blob(result.Code, contentType, result.Body)
}
