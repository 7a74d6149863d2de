package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"gowa-hub/internal/waclient"
)

// Contact listing filter. The scope is an explicit parameter because client
// revisions disagree on what the default listing should include.
const (
	scopeAll   = "all"
	scopeSaved = "saved"
)

func filterContacts(contacts []waclient.Contact, scope string) []waclient.Contact {
	if scope != scopeSaved {
		return contacts
	}
	out := make([]waclient.Contact, 0, len(contacts))
	for _, ct := range contacts {
		if ct.IsMyContact {
			out = append(out, ct)
		}
	}
	return out
}

// GET /api/:tenantId/:label/contacts?scope=all|saved
func (h *Handler) GetContacts(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "Please init the session first")
	}

	scope := c.QueryParam("scope")
	if scope == "" {
		scope = scopeAll
	}
	if scope != scopeAll && scope != scopeSaved {
		return ErrorResponse(c, http.StatusBadRequest, "Query param 'scope' must be 'all' or 'saved'", "VALIDATION_ERROR", "")
	}

	contacts, err := sess.Client.GetContacts(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to get contacts", "GET_CONTACTS_FAILED", err.Error())
	}
	contacts = filterContacts(contacts, scope)

	return SuccessResponse(c, http.StatusOK, "Contacts retrieved", map[string]interface{}{
		"total":    len(contacts),
		"scope":    scope,
		"contacts": contacts,
	})
}

// GET /api/:tenantId/:label/contacts/export?scope=all|saved
func (h *Handler) ExportContacts(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "Please init the session first")
	}

	scope := c.QueryParam("scope")
	if scope == "" {
		scope = scopeAll
	}

	contacts, err := sess.Client.GetContacts(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to get contacts", "GET_CONTACTS_FAILED", err.Error())
	}
	contacts = filterContacts(contacts, scope)

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"ID", "Name", "Push Name", "Saved", "Group"}
	for i, hdr := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hdr)
	}

	for row, ct := range contacts {
		values := []interface{}{ct.ID, ct.Name, ct.PushName, strconv.FormatBool(ct.IsMyContact), strconv.FormatBool(ct.IsGroup)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	filename := fmt.Sprintf("contacts-%s-%s-%s.xlsx", c.Param("tenantId"), c.Param("label"), time.Now().Format("20060102-150405"))
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)

	return f.Write(c.Response())
}
