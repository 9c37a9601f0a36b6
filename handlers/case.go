package handlers

import (
	"context"
	"errors"
	"fmt"
	"law_case_engine/middleware"
	"law_case_engine/services"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CaseHandler serves the case lifecycle API
type CaseHandler struct {
	service *services.CaseService
}

// NewCaseHandler creates a handler backed by service
func NewCaseHandler(service *services.CaseService) *CaseHandler {
	return &CaseHandler{service: service}
}

// RegisterRoutes mounts the case routes on g. g is expected to carry RequireScope.
func (h *CaseHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListCases)
	g.POST("", h.CreateCase)
	g.GET("/export", h.ExportCases)
	g.GET("/:id", h.GetCase)
	g.PATCH("/:id", h.UpdateCase)
	g.DELETE("/:id", h.DeleteCase)
	g.GET("/:id/timeline", h.GetTimeline)
	g.GET("/:id/history", h.GetHistory)
}

// ListCases returns one page of cases matching the query parameters
func (h *CaseHandler) ListCases(c echo.Context) error {
	result, err := h.service.List(c.Request().Context(), middleware.GetScope(c), c.QueryParams())
	if err != nil {
		return caseError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// CreateCase allocates a case number and stores a new case
func (h *CaseHandler) CreateCase(c echo.Context) error {
	var input services.CreateCaseInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	record, err := h.service.Create(c.Request().Context(), middleware.GetScope(c), middleware.GetUserID(c), input)
	if err != nil {
		return caseError(err)
	}
	return c.JSON(http.StatusCreated, record)
}

// GetCase returns a case with its bounded child collections
func (h *CaseHandler) GetCase(c echo.Context) error {
	record, err := h.service.Get(c.Request().Context(), middleware.GetScope(c), c.Param("id"))
	if err != nil {
		return caseError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// UpdateCase applies a partial update; absent keys are left unchanged
func (h *CaseHandler) UpdateCase(c echo.Context) error {
	var input services.UpdateCaseInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	record, err := h.service.Update(c.Request().Context(), middleware.GetScope(c), middleware.GetUserID(c), c.Param("id"), input)
	if err != nil {
		return caseError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// DeleteCase hard-deletes a case
func (h *CaseHandler) DeleteCase(c echo.Context) error {
	result, err := h.service.Delete(c.Request().Context(), middleware.GetScope(c), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		return caseError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetTimeline returns the merged activity feed of a case
func (h *CaseHandler) GetTimeline(c echo.Context) error {
	timeline, err := h.service.Timeline(c.Request().Context(), middleware.GetScope(c), c.Param("id"))
	if err != nil {
		return caseError(err)
	}
	return c.JSON(http.StatusOK, timeline)
}

// GetHistory returns the audit entries of a case
func (h *CaseHandler) GetHistory(c echo.Context) error {
	logs, err := h.service.History(c.Request().Context(), middleware.GetScope(c), c.Param("id"))
	if err != nil {
		return caseError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": logs})
}

// ExportCases streams the filtered case list as an Excel workbook
func (h *CaseHandler) ExportCases(c echo.Context) error {
	buf, count, err := h.service.ExportCases(c.Request().Context(), middleware.GetScope(c), c.QueryParams())
	if err != nil {
		return caseError(err)
	}

	filename := fmt.Sprintf("cases-%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().Header().Set("X-Export-Rows", fmt.Sprint(count))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// caseError maps service errors to HTTP errors. Unknown errors are logged and hidden.
func caseError(err error) error {
	switch {
	case errors.Is(err, services.ErrCaseNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Case not found")
	case errors.Is(err, services.ErrClientNotFound):
		return echo.NewHTTPError(http.StatusBadRequest, "Client not found")
	case errors.Is(err, services.ErrAssigneeNotFound):
		return echo.NewHTTPError(http.StatusBadRequest, "Assigned user not found")
	case errors.Is(err, services.ErrInvalidCaseField):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrConcurrencyConflict):
		return echo.NewHTTPError(http.StatusConflict, "Could not allocate a case number, please retry")
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Request timed out, please retry")
	case errors.Is(err, context.Canceled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Request cancelled")
	default:
		log.Printf("[ERROR] Case request failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
