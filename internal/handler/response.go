package handler

import (
	"github.com/labstack/echo/v4"
)

// Response envelope shared by every endpoint.

func SuccessResponse(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, map[string]interface{}{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func ErrorResponse(c echo.Context, code int, message, errCode, detail string) error {
	body := map[string]interface{}{
		"success": false,
		"message": message,
		"error":   errCode,
	}
	if detail != "" {
		body["detail"] = detail
	}
	return c.JSON(code, body)
}
