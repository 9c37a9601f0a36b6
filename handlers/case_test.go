package handlers

import (
	"encoding/json"
	"fmt"
	"law_case_engine/models"
	"law_case_engine/services"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestCaseRoutesRequireIdentity(t *testing.T) {
	e, _ := setupServer(t)

	rec := doRequest(e, http.MethodGet, "/cases", nil, "", testOrg, testUser)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(e, http.MethodGet, "/cases", nil, testOwner, testOrg, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(e, http.MethodGet, "/healthz", nil, "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestCreateListGetDeleteCase(t *testing.T) {
	e, testDB := setupServer(t)
	client := seedTestClient(t, testDB, testOwner, testOrg)

	body := fmt.Sprintf(`{"title":"Smith v. Jones","caseType":"civil","clientId":%q}`, client.ID)
	rec := doRequest(e, http.MethodPost, "/cases", strings.NewReader(body), testOwner, testOrg, testUser)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created models.CaseRecord
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "active", created.Status)
	assert.Equal(t, "medium", created.Priority)
	assert.Equal(t, fmt.Sprintf("LAW-%d-001", time.Now().Year()), created.CaseNumber)
	if assert.NotNil(t, created.Client) {
		assert.Equal(t, client.ID, created.Client.ID)
	}

	rec = doRequest(e, http.MethodGet, "/cases?status=active&limit=500", nil, testOwner, testOrg, testUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	var list services.CaseListResult
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Data, 1)
	assert.Equal(t, 100, list.Pagination.Limit)
	assert.Equal(t, 1, list.Pagination.TotalPages)

	rec = doRequest(e, http.MethodGet, "/cases/"+created.ID, nil, testOwner, testOrg, testUser)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(e, http.MethodDelete, "/cases/"+created.ID, nil, testOwner, testOrg, testUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"success":true,"id":%q}`, created.ID), rec.Body.String())

	rec = doRequest(e, http.MethodGet, "/cases/"+created.ID, nil, testOwner, testOrg, testUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateCaseErrors(t *testing.T) {
	e, testDB := setupServer(t)
	client := seedTestClient(t, testDB, testOwner, testOrg)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantText string
	}{
		{"unknown client", `{"title":"x","caseType":"civil","clientId":"missing"}`, http.StatusBadRequest, "Client not found"},
		{"unknown assignee", fmt.Sprintf(`{"title":"x","caseType":"civil","clientId":%q,"assignedToId":"ghost"}`, client.ID), http.StatusBadRequest, "Assigned user not found"},
		{"bad type", fmt.Sprintf(`{"title":"x","caseType":"space","clientId":%q}`, client.ID), http.StatusBadRequest, "invalid case field"},
		{"malformed json", `{"title":`, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, http.MethodPost, "/cases", strings.NewReader(tt.body), testOwner, testOrg, testUser)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantText)
		})
	}
}

func TestUpdateCaseHandler(t *testing.T) {
	e, testDB := setupServer(t)
	client := seedTestClient(t, testDB, testOwner, testOrg)

	rec := doRequest(e, http.MethodPost, "/cases", strings.NewReader(fmt.Sprintf(`{"title":"Original","caseType":"civil","clientId":%q}`, client.ID)), testOwner, testOrg, testUser)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var created models.CaseRecord
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doRequest(e, http.MethodPatch, "/cases/"+created.ID, strings.NewReader(`{"priority":"high"}`), testOwner, testOrg, testUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	var updated models.CaseRecord
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "high", updated.Priority)
	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, "active", updated.Status)
	assert.Equal(t, created.ClientID, updated.ClientID)

	// Another tenant sees the same response as for a missing case
	rec = doRequest(e, http.MethodPatch, "/cases/"+created.ID, strings.NewReader(`{"priority":"low"}`), "owner-2", "org-2", "user-2")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	foreign := rec.Body.String()

	rec = doRequest(e, http.MethodPatch, "/cases/does-not-exist", strings.NewReader(`{"priority":"low"}`), testOwner, testOrg, testUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, foreign, rec.Body.String())
}

func TestTimelineAndHistoryHandlers(t *testing.T) {
	e, testDB := setupServer(t)
	client := seedTestClient(t, testDB, testOwner, testOrg)

	rec := doRequest(e, http.MethodPost, "/cases", strings.NewReader(fmt.Sprintf(`{"title":"Feed","caseType":"civil","clientId":%q}`, client.ID)), testOwner, testOrg, testUser)
	var created models.CaseRecord
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	completed := time.Now().Add(-time.Hour)
	assert.NoError(t, testDB.Create(&models.Task{CaseID: created.ID, Title: "Call client", CompletedDate: &completed, CreatedAt: completed.Add(-time.Hour)}).Error)

	rec = doRequest(e, http.MethodGet, "/cases/"+created.ID+"/timeline", nil, testOwner, testOrg, testUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	var timeline services.CaseTimeline
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timeline))
	assert.Equal(t, created.CaseNumber, timeline.CaseNumber)
	if assert.Len(t, timeline.Timeline, 2) {
		assert.Equal(t, "task_completed", timeline.Timeline[0].Type)
		assert.Equal(t, "Task created: Call client", timeline.Timeline[1].Title)
	}

	rec = doRequest(e, http.MethodGet, "/cases/"+created.ID+"/timeline", nil, "owner-2", "org-2", "user-2")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(e, http.MethodGet, "/cases/"+created.ID+"/history", nil, testOwner, testOrg, testUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"action":"CREATE"`)
}

func TestExportCasesHandler(t *testing.T) {
	e, testDB := setupServer(t)
	client := seedTestClient(t, testDB, testOwner, testOrg)

	rec := doRequest(e, http.MethodPost, "/cases", strings.NewReader(fmt.Sprintf(`{"title":"Exported","caseType":"civil","clientId":%q}`, client.ID)), testOwner, testOrg, testUser)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(e, http.MethodGet, "/cases/export", nil, testOwner, testOrg, testUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "1", rec.Header().Get("X-Export-Rows"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestCaseErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{services.ErrCaseNotFound, http.StatusNotFound},
		{services.ErrClientNotFound, http.StatusBadRequest},
		{services.ErrAssigneeNotFound, http.StatusBadRequest},
		{fmt.Errorf("%w: title is required", services.ErrInvalidCaseField), http.StatusBadRequest},
		{fmt.Errorf("%w (owner x): boom", services.ErrConcurrencyConflict), http.StatusConflict},
		{fmt.Errorf("database gone"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		he, ok := caseError(tt.err).(*echo.HTTPError)
		if assert.True(t, ok) {
			assert.Equal(t, tt.code, he.Code)
		}
	}
}
