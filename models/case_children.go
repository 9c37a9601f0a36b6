package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is a file attached to a case
type Document struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_document_case_created" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	CaseID   string `gorm:"type:uuid;not null;index:idx_document_case_created" json:"caseId"`
	FileName string `gorm:"not null" json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType,omitempty"`
}

// BeforeCreate hook to generate UUID
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Document model
func (Document) TableName() string {
	return "case_documents"
}

// Task is a unit of work tracked against a case
type Task struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_task_case_created" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	CaseID        string     `gorm:"type:uuid;not null;index:idx_task_case_created" json:"caseId"`
	Title         string     `gorm:"not null" json:"title"`
	Status        string     `gorm:"not null;default:todo" json:"status"`
	DueDate       *time.Time `json:"dueDate"`
	CompletedDate *time.Time `json:"completedDate"`
}

// BeforeCreate hook to generate UUID
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Task model
func (Task) TableName() string {
	return "case_tasks"
}

// IsCompleted reports whether the task has a completion date
func (t *Task) IsCompleted() bool {
	return t.CompletedDate != nil
}

// Event is a calendar entry (hearing, meeting, deadline) linked to a case
type Event struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	CaseID    string    `gorm:"type:uuid;not null;index:idx_event_case_date" json:"caseId"`
	Title     string    `gorm:"not null" json:"title"`
	EventType string    `gorm:"not null" json:"eventType"` // hearing, meeting, deadline...
	EventDate time.Time `gorm:"not null;index:idx_event_case_date" json:"eventDate"`
	Location  *string   `json:"location,omitempty"`
}

// BeforeCreate hook to generate UUID
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Event model
func (Event) TableName() string {
	return "case_events"
}

// Invoice is a bill issued against a case
type Invoice struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_invoice_case_created" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	CaseID        string     `gorm:"type:uuid;not null;index:idx_invoice_case_created" json:"caseId"`
	InvoiceNumber string     `gorm:"not null" json:"invoiceNumber"`
	Status        string     `gorm:"not null;default:draft" json:"status"` // draft, sent, paid, overdue
	Amount        float64    `json:"amount"`
	Currency      string     `gorm:"not null;default:USD" json:"currency"`
	PaidDate      *time.Time `json:"paidDate"`
}

// BeforeCreate hook to generate UUID
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Invoice model
func (Invoice) TableName() string {
	return "case_invoices"
}

// IsPaid reports whether the invoice has a payment date
func (i *Invoice) IsPaid() bool {
	return i.PaidDate != nil
}
