package handlers

import (
	"io"
	"law_case_engine/db"
	"law_case_engine/middleware"
	"law_case_engine/models"
	"law_case_engine/services"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

const (
	testOwner = "owner-1"
	testOrg   = "org-1"
	testUser  = "user-1"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.Open(db.Options{SQLitePath: filepath.Join(t.TempDir(), "handlers.db")})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(testDB, models.All()...))
	t.Cleanup(func() { db.Close(testDB) })
	return testDB
}

// setupServer wires the full route table against a fresh database
func setupServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	testDB := setupTestDB(t)
	allocator := services.NewSequenceAllocator(testDB, 5, 10*time.Second)
	merger := services.NewTimelineMerger(services.NewCaseStore(testDB), 5*time.Second)
	service := services.NewCaseService(testDB, allocator, merger)

	e := echo.New()
	RegisterRoutes(e, testDB, service, nil)
	return e, testDB
}

// doRequest sends a request with the given identity headers through the router
func doRequest(e *echo.Echo, method, path string, body io.Reader, owner, org, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if owner != "" {
		req.Header.Set(middleware.HeaderOwnerUID, owner)
	}
	if org != "" {
		req.Header.Set(middleware.HeaderOrganizationID, org)
	}
	if user != "" {
		req.Header.Set(middleware.HeaderUserID, user)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func seedTestClient(t *testing.T, testDB *gorm.DB, owner, org string) models.Client {
	client := models.Client{OwnerUID: owner, OrganizationID: org, Name: "Test Client"}
	assert.NoError(t, testDB.Create(&client).Error)
	return client
}
