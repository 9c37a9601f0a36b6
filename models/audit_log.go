package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction represents the type of operation performed
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditLog represents an immutable record of a case mutation
type AuditLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_audit_created_at" json:"createdAt"`

	// Actor and tenant
	UserID         *string `gorm:"type:uuid;index:idx_audit_user" json:"userId,omitempty"`
	OwnerUID       string  `gorm:"not null;index:idx_audit_scope" json:"ownerUid"`
	OrganizationID string  `gorm:"not null;index:idx_audit_scope" json:"organizationId"`

	// Target resource
	ResourceType string `gorm:"not null;index:idx_audit_resource" json:"resourceType"` // e.g., "Case"
	ResourceID   string `gorm:"type:uuid;not null;index:idx_audit_resource" json:"resourceId"`
	ResourceName string `json:"resourceName,omitempty"` // Human-readable identifier (case number)

	// Operation details
	Action      AuditAction `gorm:"not null" json:"action"`
	Description string      `gorm:"type:text" json:"description,omitempty"`

	// Change tracking (JSON encoded)
	OldValues string `gorm:"type:text" json:"oldValues,omitempty"`
	NewValues string `gorm:"type:text" json:"newValues,omitempty"`

	// Request metadata
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// BeforeCreate hook to generate UUID
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
