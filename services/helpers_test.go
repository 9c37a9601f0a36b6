package services

import (
	"law_case_engine/db"
	"law_case_engine/models"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// setupCaseDB opens a file-backed SQLite database so concurrent writers share one store
func setupCaseDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := db.Open(db.Options{SQLitePath: filepath.Join(t.TempDir(), "cases.db")})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(database, models.All()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { db.Close(database) })
	return database
}

func newTestCaseService(database *gorm.DB) *CaseService {
	allocator := NewSequenceAllocator(database, 5, 10*time.Second)
	merger := NewTimelineMerger(NewCaseStore(database), 5*time.Second)
	return NewCaseService(database, allocator, merger)
}

func seedClient(t *testing.T, database *gorm.DB, scope Scope, name string) models.Client {
	t.Helper()
	client := models.Client{OwnerUID: scope.OwnerUID, OrganizationID: scope.OrganizationID, Name: name}
	assert.NoError(t, database.Create(&client).Error)
	return client
}

func seedUser(t *testing.T, database *gorm.DB, name, email string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: email}
	assert.NoError(t, database.Create(&user).Error)
	return user
}

func stringPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

var (
	scopeA = Scope{OwnerUID: "owner-a", OrganizationID: "org-a"}
	scopeB = Scope{OwnerUID: "owner-b", OrganizationID: "org-b"}
)
