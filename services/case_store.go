package services

import (
	"context"
	"errors"
	"fmt"
	"law_case_engine/models"

	"gorm.io/gorm"
)

// CaseStore wraps the scoped reads shared by the lifecycle service and the timeline
type CaseStore struct {
	db *gorm.DB
}

// NewCaseStore creates a new store bound to db
func NewCaseStore(db *gorm.DB) *CaseStore {
	return &CaseStore{db: db}
}

// FindCase loads a case inside scope. Missing and foreign cases both yield ErrCaseNotFound.
func (s *CaseStore) FindCase(ctx context.Context, scope Scope, caseID string) (*models.CaseRecord, error) {
	var record models.CaseRecord
	err := scope.Apply(s.db.WithContext(ctx)).First(&record, "id = ?", caseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to fetch case: %w", err)
	}
	return &record, nil
}

// RecentDocuments returns the newest documents of a case
func (s *CaseStore) RecentDocuments(ctx context.Context, caseID string, limit int) ([]models.Document, error) {
	var docs []models.Document
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	return docs, nil
}

// RecentTasks returns the newest tasks of a case
func (s *CaseStore) RecentTasks(ctx context.Context, caseID string, limit int) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return tasks, nil
}

// RecentEvents returns the latest-dated events of a case
func (s *CaseStore) RecentEvents(ctx context.Context, caseID string, limit int) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("event_date DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return events, nil
}

// RecentInvoices returns the newest invoices of a case
func (s *CaseStore) RecentInvoices(ctx context.Context, caseID string, limit int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Limit(limit).
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoices: %w", err)
	}
	return invoices, nil
}
