package services

import (
	"context"
	"encoding/json"
	"fmt"
	"law_case_engine/models"
	"log"

	"gorm.io/gorm"
)

// AuditResourceCase is the resource type recorded for case mutations
const AuditResourceCase = "Case"

// AuditContext identifies who performed a mutation, in which tenant and from where
type AuditContext struct {
	UserID    string
	Scope     Scope
	IPAddress string
	UserAgent string
}

type auditContextKey struct{}

// WithAuditContext attaches request details to ctx for the audit entries written below it
func WithAuditContext(ctx context.Context, actx AuditContext) context.Context {
	return context.WithValue(ctx, auditContextKey{}, actx)
}

// AuditContextFrom returns the audit details carried by ctx, if any
func AuditContextFrom(ctx context.Context) AuditContext {
	actx, _ := ctx.Value(auditContextKey{}).(AuditContext)
	return actx
}

// auditContextFor merges request details from ctx with the explicit actor and scope
func auditContextFor(ctx context.Context, scope Scope, userID string) AuditContext {
	actx := AuditContextFrom(ctx)
	actx.Scope = scope
	actx.UserID = userID
	return actx
}

// RecordAuditEvent writes an audit entry with tx. Callers pass their mutation
// transaction so the entry commits or rolls back together with the change.
func RecordAuditEvent(
	tx *gorm.DB,
	actx AuditContext,
	action models.AuditAction,
	resourceID string,
	resourceName string,
	description string,
	oldValues interface{},
	newValues interface{},
) error {
	auditLog := models.AuditLog{
		UserID:         ptrIfNotEmpty(actx.UserID),
		OwnerUID:       actx.Scope.OwnerUID,
		OrganizationID: actx.Scope.OrganizationID,
		ResourceType:   AuditResourceCase,
		ResourceID:     resourceID,
		ResourceName:   resourceName,
		Action:         action,
		Description:    description,
		OldValues:      marshalAuditValues(oldValues),
		NewValues:      marshalAuditValues(newValues),
		IPAddress:      actx.IPAddress,
		UserAgent:      actx.UserAgent,
	}

	if err := tx.Create(&auditLog).Error; err != nil {
		log.Printf("[AUDIT] Failed to create audit log for %s %s: %v", action, resourceID, err)
		return fmt.Errorf("failed to record audit log: %w", err)
	}
	return nil
}

func marshalAuditValues(values interface{}) string {
	if values == nil {
		return ""
	}
	bytes, err := json.Marshal(values)
	if err != nil {
		log.Printf("[AUDIT] Failed to encode audit values: %v", err)
		return ""
	}
	return string(bytes)
}

// ptrIfNotEmpty returns a pointer to the string if not empty, nil otherwise
func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ResourceAuditHistory retrieves the audit history of a case inside scope, newest first.
// Entries survive the deletion of the case they describe.
func ResourceAuditHistory(ctx context.Context, db *gorm.DB, scope Scope, resourceID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := scope.Apply(db.WithContext(ctx)).
		Where("resource_type = ? AND resource_id = ?", AuditResourceCase, resourceID).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audit history: %w", err)
	}
	return logs, nil
}
