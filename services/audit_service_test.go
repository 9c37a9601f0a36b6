package services

import (
	"context"
	"encoding/json"
	"errors"
	"law_case_engine/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestRecordAuditEvent(t *testing.T) {
	database := setupCaseDB(t)
	actx := AuditContext{UserID: "user-1", Scope: scopeA}

	oldVals := map[string]interface{}{"status": "pending"}
	newVals := map[string]interface{}{"status": "active"}

	err := RecordAuditEvent(database, actx, models.AuditActionUpdate, "case-123", "LAW-2026-001", "Case updated", oldVals, newVals)
	assert.NoError(t, err)

	var log models.AuditLog
	assert.NoError(t, database.First(&log, "resource_id = ?", "case-123").Error)
	assert.Equal(t, "user-1", *log.UserID)
	assert.Equal(t, scopeA.OwnerUID, log.OwnerUID)
	assert.Equal(t, scopeA.OrganizationID, log.OrganizationID)
	assert.Equal(t, AuditResourceCase, log.ResourceType)
	assert.Equal(t, "Case updated", log.Description)

	var savedOld, savedNew map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(log.OldValues), &savedOld))
	assert.NoError(t, json.Unmarshal([]byte(log.NewValues), &savedNew))
	assert.Equal(t, "pending", savedOld["status"])
	assert.Equal(t, "active", savedNew["status"])
}

func TestRecordAuditEventRollsBackWithTransaction(t *testing.T) {
	database := setupCaseDB(t)
	actx := AuditContext{Scope: scopeA}
	failed := errors.New("mutation failed")

	err := database.Transaction(func(tx *gorm.DB) error {
		if err := RecordAuditEvent(tx, actx, models.AuditActionDelete, "case-9", "LAW-2026-009", "Case deleted", nil, nil); err != nil {
			return err
		}
		return failed
	})
	assert.ErrorIs(t, err, failed)

	var count int64
	database.Model(&models.AuditLog{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestResourceAuditHistoryIsScoped(t *testing.T) {
	database := setupCaseDB(t)

	assert.NoError(t, RecordAuditEvent(database, AuditContext{Scope: scopeA}, models.AuditActionCreate, "case-1", "LAW-2026-001", "Case created", nil, nil))
	assert.NoError(t, RecordAuditEvent(database, AuditContext{Scope: scopeB}, models.AuditActionCreate, "case-1", "LAW-2026-001", "Case created", nil, nil))

	logs, err := ResourceAuditHistory(context.Background(), database, scopeA, "case-1")
	assert.NoError(t, err)
	if assert.Len(t, logs, 1) {
		assert.Nil(t, logs[0].UserID)
		assert.Equal(t, scopeA.OwnerUID, logs[0].OwnerUID)
		assert.Empty(t, logs[0].OldValues)
	}
}

func TestAuditContextFor(t *testing.T) {
	ctx := WithAuditContext(context.Background(), AuditContext{IPAddress: "10.0.0.1", UserAgent: "curl", UserID: "spoofed"})

	actx := auditContextFor(ctx, scopeA, "user-1")
	assert.Equal(t, AuditContext{UserID: "user-1", Scope: scopeA, IPAddress: "10.0.0.1", UserAgent: "curl"}, actx)

	assert.Equal(t, AuditContext{Scope: scopeB}, auditContextFor(context.Background(), scopeB, ""))
}
