package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CaseNumberPrefix is the fixed leading segment of every case number (LAW-<year>-<seq>)
const CaseNumberPrefix = "LAW"

// Case status constants
const (
	CaseStatusActive   = "active"
	CaseStatusPending  = "pending"
	CaseStatusClosed   = "closed"
	CaseStatusArchived = "archived"
)

// Case type constants
const (
	CaseTypeCivil       = "civil"
	CaseTypeCriminal    = "criminal"
	CaseTypeCorporate   = "corporate"
	CaseTypeFamily      = "family"
	CaseTypeImmigration = "immigration"
	CaseTypeOther       = "other"
)

// Case priority constants
const (
	CasePriorityLow    = "low"
	CasePriorityMedium = "medium"
	CasePriorityHigh   = "high"
	CasePriorityUrgent = "urgent"
)

// CaseRecord represents a legal case owned by an organization
type CaseRecord struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_case_scope_created" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Tenant scope
	OwnerUID       string `gorm:"not null;index:idx_case_scope_created;uniqueIndex:idx_case_owner_number" json:"ownerUid"`
	OrganizationID string `gorm:"not null;index:idx_case_scope_created" json:"organizationId"`

	// Case identification (immutable once allocated)
	CaseNumber  string `gorm:"not null;uniqueIndex:idx_case_owner_number" json:"caseNumber"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	CaseType    string `gorm:"not null" json:"caseType"`

	// Lifecycle
	Status   string `gorm:"not null;default:active;index" json:"status"`
	Priority string `gorm:"not null;default:medium" json:"priority"`

	// Relationships
	ClientID     string  `gorm:"type:uuid;not null;index" json:"clientId"`
	Client       *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	AssignedToID *string `gorm:"type:uuid;index" json:"assignedToId"`
	AssignedTo   *User   `gorm:"foreignKey:AssignedToID" json:"assignedTo,omitempty"`
	CreatedByID  string  `gorm:"type:uuid" json:"createdById"`

	// Dates
	FilingDate      *time.Time `json:"filingDate"`
	NextHearingDate *time.Time `json:"nextHearingDate"`
	ClosingDate     *time.Time `json:"closingDate"`

	// Bounded eager loads (only populated by detail lookups)
	Documents []Document `gorm:"foreignKey:CaseID" json:"documents,omitempty"`
	Tasks     []Task     `gorm:"foreignKey:CaseID" json:"tasks,omitempty"`
	Events    []Event    `gorm:"foreignKey:CaseID" json:"events,omitempty"`
	Invoices  []Invoice  `gorm:"foreignKey:CaseID" json:"invoices,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *CaseRecord) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for CaseRecord model
func (CaseRecord) TableName() string {
	return "cases"
}

// IsValidCaseStatus checks if the status is valid
func IsValidCaseStatus(status string) bool {
	return contains(status, CaseStatusActive, CaseStatusPending, CaseStatusClosed, CaseStatusArchived)
}

// IsValidInitialCaseStatus checks if a case may be created with this status
func IsValidInitialCaseStatus(status string) bool {
	return status == CaseStatusActive || status == CaseStatusPending
}

// IsValidCaseType checks if the case type is valid
func IsValidCaseType(caseType string) bool {
	return contains(caseType,
		CaseTypeCivil,
		CaseTypeCriminal,
		CaseTypeCorporate,
		CaseTypeFamily,
		CaseTypeImmigration,
		CaseTypeOther,
	)
}

// IsValidCasePriority checks if the priority is valid
func IsValidCasePriority(priority string) bool {
	return contains(priority, CasePriorityLow, CasePriorityMedium, CasePriorityHigh, CasePriorityUrgent)
}

func contains(value string, allowed ...string) bool {
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}
