package services

import (
	"context"
	"errors"
	"fmt"
	"law_case_engine/models"
	"log"
	"net/url"
	"time"

	"gorm.io/gorm"
)

// Bounds for the eager loads of a case detail lookup
const (
	detailChildLimit = 10
	detailEventLimit = 5
)

// CreateCaseInput is the payload of a case creation
type CreateCaseInput struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CaseType        string     `json:"caseType"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	ClientID        string     `json:"clientId"`
	AssignedToID    *string    `json:"assignedToId"`
	FilingDate      *time.Time `json:"filingDate"`
	NextHearingDate *time.Time `json:"nextHearingDate"`
}

// UpdateCaseInput is a partial update. Absent keys leave the stored value untouched;
// a JSON null clears the nullable fields. The case number is not updatable.
type UpdateCaseInput struct {
	Title           Optional[string]    `json:"title"`
	Description     Optional[string]    `json:"description"`
	CaseType        Optional[string]    `json:"caseType"`
	Status          Optional[string]    `json:"status"`
	Priority        Optional[string]    `json:"priority"`
	ClientID        Optional[string]    `json:"clientId"`
	AssignedToID    Optional[string]    `json:"assignedToId"`
	FilingDate      Optional[time.Time] `json:"filingDate"`
	NextHearingDate Optional[time.Time] `json:"nextHearingDate"`
	ClosingDate     Optional[time.Time] `json:"closingDate"`
}

// Pagination describes the page returned by List
type Pagination struct {
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	Total           int64 `json:"total"`
	TotalPages      int   `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// CaseListResult is one page of cases plus its pagination block
type CaseListResult struct {
	Data       []models.CaseRecord `json:"data"`
	Pagination Pagination          `json:"pagination"`
}

// DeleteResult confirms a hard delete
type DeleteResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// CaseService orchestrates the case lifecycle: numbering, listing, detail, timeline,
// partial updates and hard deletes, always bound to the caller's scope.
type CaseService struct {
	db        *gorm.DB
	store     *CaseStore
	allocator *SequenceAllocator
	timeline  *TimelineMerger
	now       func() time.Time
}

// NewCaseService wires the lifecycle service. The store handle is shared by all parts.
func NewCaseService(db *gorm.DB, allocator *SequenceAllocator, timeline *TimelineMerger) *CaseService {
	return &CaseService{
		db:        db,
		store:     NewCaseStore(db),
		allocator: allocator,
		timeline:  timeline,
		now:       time.Now,
	}
}

// Create validates references, allocates a case number and inserts the case together
// with its audit entry in one transaction.
func (s *CaseService) Create(ctx context.Context, scope Scope, userID string, input CreateCaseInput) (*models.CaseRecord, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("%w: scope is required", ErrInvalidCaseField)
	}

	record := models.CaseRecord{
		OwnerUID:        scope.OwnerUID,
		OrganizationID:  scope.OrganizationID,
		Title:           SanitizeText(input.Title),
		Description:     SanitizeText(input.Description),
		CaseType:        input.CaseType,
		Status:          input.Status,
		Priority:        input.Priority,
		ClientID:        input.ClientID,
		CreatedByID:     userID,
		FilingDate:      input.FilingDate,
		NextHearingDate: input.NextHearingDate,
	}
	if input.AssignedToID != nil && *input.AssignedToID != "" {
		assignee := *input.AssignedToID
		record.AssignedToID = &assignee
	}
	if record.Status == "" {
		record.Status = models.CaseStatusActive
	}
	if record.Priority == "" {
		record.Priority = models.CasePriorityMedium
	}

	if err := validateNewCase(&record); err != nil {
		return nil, err
	}
	if err := s.ensureClient(ctx, scope, record.ClientID); err != nil {
		return nil, err
	}
	if record.AssignedToID != nil {
		if err := s.ensureAssignee(ctx, *record.AssignedToID); err != nil {
			return nil, err
		}
	}

	actx := auditContextFor(ctx, scope, userID)
	_, err := s.allocator.Allocate(ctx, scope.OwnerUID, func(tx *gorm.DB, caseNumber string) error {
		// A retried attempt starts from a rolled back insert; let the hook assign a fresh id
		record.ID = ""
		record.CaseNumber = caseNumber
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create case: %w", err)
		}
		return RecordAuditEvent(tx, actx, models.AuditActionCreate, record.ID, record.CaseNumber,
			"Case created", nil, caseSnapshot(&record))
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[CASE] Created case %s (%s) for owner %s", record.CaseNumber, record.ID, scope.OwnerUID)
	return s.loadExpanded(ctx, record.ID)
}

// Get returns a case with its client, assignee and bounded child collections
func (s *CaseService) Get(ctx context.Context, scope Scope, id string) (*models.CaseRecord, error) {
	startOfToday := StartOfDay(s.now())

	var record models.CaseRecord
	err := scope.Apply(s.db.WithContext(ctx)).
		Preload("Client").
		Preload("AssignedTo").
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(detailChildLimit)
		}).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(detailChildLimit)
		}).
		Preload("Invoices", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(detailChildLimit)
		}).
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Where("event_date >= ?", startOfToday).Order("event_date ASC").Limit(detailEventLimit)
		}).
		First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to fetch case: %w", err)
	}
	return &record, nil
}

// Update applies the fields present in input. Client and assignee are re-validated only
// when they change. Status may move between any of the four values.
func (s *CaseService) Update(ctx context.Context, scope Scope, userID, id string, input UpdateCaseInput) (*models.CaseRecord, error) {
	record, err := s.store.FindCase(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}

	if input.Title.Set {
		title := SanitizeText(input.Title.Value)
		if input.Title.Null || title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidCaseField)
		}
		updates["title"] = title
	}
	if input.Description.Set {
		updates["description"] = SanitizeText(input.Description.Value)
	}
	if input.CaseType.Set {
		if !models.IsValidCaseType(input.CaseType.Value) {
			return nil, fmt.Errorf("%w: unknown case type %q", ErrInvalidCaseField, input.CaseType.Value)
		}
		updates["case_type"] = input.CaseType.Value
	}
	if input.Status.Set {
		if !models.IsValidCaseStatus(input.Status.Value) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidCaseField, input.Status.Value)
		}
		updates["status"] = input.Status.Value
	}
	if input.Priority.Set {
		if !models.IsValidCasePriority(input.Priority.Value) {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidCaseField, input.Priority.Value)
		}
		updates["priority"] = input.Priority.Value
	}

	if input.ClientID.Set {
		if input.ClientID.Null || input.ClientID.Value == "" {
			return nil, fmt.Errorf("%w: client is required", ErrInvalidCaseField)
		}
		if input.ClientID.Value != record.ClientID {
			if err := s.ensureClient(ctx, scope, input.ClientID.Value); err != nil {
				return nil, err
			}
			updates["client_id"] = input.ClientID.Value
		}
	}

	if input.AssignedToID.Set {
		switch {
		case input.AssignedToID.Null || input.AssignedToID.Value == "":
			if record.AssignedToID != nil {
				updates["assigned_to_id"] = nil
			}
		case record.AssignedToID == nil || *record.AssignedToID != input.AssignedToID.Value:
			if err := s.ensureAssignee(ctx, input.AssignedToID.Value); err != nil {
				return nil, err
			}
			updates["assigned_to_id"] = input.AssignedToID.Value
		}
	}

	if input.FilingDate.Set {
		updates["filing_date"] = input.FilingDate.Ptr()
	}
	if input.NextHearingDate.Set {
		updates["next_hearing_date"] = input.NextHearingDate.Ptr()
	}
	if input.ClosingDate.Set {
		updates["closing_date"] = input.ClosingDate.Ptr()
	}

	if len(updates) == 0 {
		return s.loadExpanded(ctx, record.ID)
	}

	if err := s.applyUpdate(ctx, scope, userID, record, updates); err != nil {
		return nil, err
	}

	return s.loadExpanded(ctx, record.ID)
}

// applyUpdate writes updates and the audit entry in one transaction. The write is scoped
// again so a case removed since record was read yields ErrCaseNotFound and no audit row.
func (s *CaseService) applyUpdate(ctx context.Context, scope Scope, userID string, record *models.CaseRecord, updates map[string]interface{}) error {
	actx := auditContextFor(ctx, scope, userID)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := scope.Apply(tx.Model(&models.CaseRecord{})).Where("id = ?", record.ID).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update case: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCaseNotFound
		}
		return RecordAuditEvent(tx, actx, models.AuditActionUpdate, record.ID, record.CaseNumber,
			"Case updated", changedValues(record, updates), updates)
	})
}

// Delete hard-deletes a case and its child records. Audit entries are kept.
func (s *CaseService) Delete(ctx context.Context, scope Scope, userID, id string) (*DeleteResult, error) {
	record, err := s.store.FindCase(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if err := s.deleteCase(ctx, scope, userID, record); err != nil {
		return nil, err
	}

	log.Printf("[CASE] Deleted case %s (%s) for owner %s", record.CaseNumber, record.ID, scope.OwnerUID)
	return &DeleteResult{Success: true, ID: record.ID}, nil
}

// deleteCase removes the children, the case and writes the audit entry in one transaction.
// When another request already deleted the case nothing is committed.
func (s *CaseService) deleteCase(ctx context.Context, scope Scope, userID string, record *models.CaseRecord) error {
	actx := auditContextFor(ctx, scope, userID)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&models.Document{}, &models.Task{}, &models.Event{}, &models.Invoice{}} {
			if err := tx.Where("case_id = ?", record.ID).Delete(child).Error; err != nil {
				return fmt.Errorf("failed to delete case children: %w", err)
			}
		}
		res := scope.Apply(tx).Where("id = ?", record.ID).Delete(&models.CaseRecord{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete case: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCaseNotFound
		}
		return RecordAuditEvent(tx, actx, models.AuditActionDelete, record.ID, record.CaseNumber,
			"Case deleted", caseSnapshot(record), nil)
	})
}

// List compiles raw list parameters and returns one page plus the total match count
func (s *CaseService) List(ctx context.Context, scope Scope, raw url.Values) (*CaseListResult, error) {
	q := CompileCaseQuery(scope, raw)

	var total int64
	if err := q.ApplyFilters(s.db.WithContext(ctx).Model(&models.CaseRecord{})).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}

	cases := []models.CaseRecord{}
	err := q.Apply(s.db.WithContext(ctx)).
		Preload("Client").
		Preload("AssignedTo").
		Find(&cases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return &CaseListResult{
		Data: cases,
		Pagination: Pagination{
			Page:            q.Page,
			Limit:           q.Limit,
			Total:           total,
			TotalPages:      totalPages,
			HasNextPage:     q.Page < totalPages,
			HasPreviousPage: q.Page > 1,
		},
	}, nil
}

// Timeline builds the merged activity feed of a case
func (s *CaseService) Timeline(ctx context.Context, scope Scope, id string) (*CaseTimeline, error) {
	return s.timeline.Build(ctx, scope, id)
}

// History lists the audit entries of a case, newest first. It answers for deleted cases
// too; a case with no entries in scope is reported as not found.
func (s *CaseService) History(ctx context.Context, scope Scope, id string) ([]models.AuditLog, error) {
	logs, err := ResourceAuditHistory(ctx, s.db, scope, id)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, ErrCaseNotFound
	}
	return logs, nil
}

func (s *CaseService) ensureClient(ctx context.Context, scope Scope, clientID string) error {
	var count int64
	err := scope.Apply(s.db.WithContext(ctx).Model(&models.Client{})).
		Where("id = ?", clientID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to verify client: %w", err)
	}
	if count == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (s *CaseService) ensureAssignee(ctx context.Context, userID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to verify assignee: %w", err)
	}
	if count == 0 {
		return ErrAssigneeNotFound
	}
	return nil
}

func (s *CaseService) loadExpanded(ctx context.Context, id string) (*models.CaseRecord, error) {
	var record models.CaseRecord
	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("AssignedTo").
		First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to fetch case: %w", err)
	}
	return &record, nil
}

func validateNewCase(record *models.CaseRecord) error {
	switch {
	case record.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidCaseField)
	case record.ClientID == "":
		return fmt.Errorf("%w: client is required", ErrInvalidCaseField)
	case !models.IsValidCaseType(record.CaseType):
		return fmt.Errorf("%w: unknown case type %q", ErrInvalidCaseField, record.CaseType)
	case !models.IsValidInitialCaseStatus(record.Status):
		return fmt.Errorf("%w: a case must start as active or pending", ErrInvalidCaseField)
	case !models.IsValidCasePriority(record.Priority):
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidCaseField, record.Priority)
	}
	return nil
}

// caseSnapshot is the audited form of a case, without loaded associations
func caseSnapshot(record *models.CaseRecord) map[string]interface{} {
	return map[string]interface{}{
		"case_number":       record.CaseNumber,
		"title":             record.Title,
		"description":       record.Description,
		"case_type":         record.CaseType,
		"status":            record.Status,
		"priority":          record.Priority,
		"client_id":         record.ClientID,
		"assigned_to_id":    record.AssignedToID,
		"filing_date":       record.FilingDate,
		"next_hearing_date": record.NextHearingDate,
		"closing_date":      record.ClosingDate,
	}
}

// changedValues picks the previous values of the columns an update touches
func changedValues(record *models.CaseRecord, updates map[string]interface{}) map[string]interface{} {
	before := caseSnapshot(record)
	old := make(map[string]interface{}, len(updates))
	for column := range updates {
		old[column] = before[column]
	}
	return old
}
