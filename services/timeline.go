package services

import (
	"context"
	"errors"
	"fmt"
	"law_case_engine/models"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// TimelineSourceLimit caps each of the four source streams before projection
const TimelineSourceLimit = 20

// Timeline entry types
const (
	TimelineDocument      = "document"
	TimelineTask          = "task"
	TimelineTaskCompleted = "task_completed"
	TimelineEvent         = "event"
	TimelineInvoice       = "invoice"
	TimelineInvoicePaid   = "invoice_paid"
)

// TimelineEntry is one item of a case's activity feed. Derived entries (task_completed,
// invoice_paid) carry the id of the record they were derived from.
type TimelineEntry struct {
	Type  string    `json:"type"`
	Date  time.Time `json:"date"`
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Data  any       `json:"data"`
}

// CaseTimeline is the response of a timeline build
type CaseTimeline struct {
	CaseID     string          `json:"caseId"`
	CaseNumber string          `json:"caseNumber"`
	Timeline   []TimelineEntry `json:"timeline"`
}

// TimelineSource provides the scoped case lookup and the four bounded streams
type TimelineSource interface {
	FindCase(ctx context.Context, scope Scope, caseID string) (*models.CaseRecord, error)
	RecentDocuments(ctx context.Context, caseID string, limit int) ([]models.Document, error)
	RecentTasks(ctx context.Context, caseID string, limit int) ([]models.Task, error)
	RecentEvents(ctx context.Context, caseID string, limit int) ([]models.Event, error)
	RecentInvoices(ctx context.Context, caseID string, limit int) ([]models.Invoice, error)
}

// TimelineMerger builds a case's activity feed from documents, tasks, events and invoices
type TimelineMerger struct {
	source  TimelineSource
	timeout time.Duration
}

// NewTimelineMerger creates a merger; timeout bounds the four fetches together
func NewTimelineMerger(source TimelineSource, timeout time.Duration) *TimelineMerger {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &TimelineMerger{source: source, timeout: timeout}
}

// Build verifies the case is in scope, fetches the four streams concurrently and merges
// them newest first. A failed fetch fails the whole build; no partial feed is returned.
func (m *TimelineMerger) Build(ctx context.Context, scope Scope, caseID string) (*CaseTimeline, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		timelineBuildSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	record, err := m.source.FindCase(ctx, scope, caseID)
	if err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			outcome = "not_found"
		}
		return nil, err
	}

	var (
		documents []models.Document
		tasks     []models.Task
		events    []models.Event
		invoices  []models.Invoice
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		documents, err = m.source.RecentDocuments(gctx, record.ID, TimelineSourceLimit)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = m.source.RecentTasks(gctx, record.ID, TimelineSourceLimit)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = m.source.RecentEvents(gctx, record.ID, TimelineSourceLimit)
		return err
	})
	g.Go(func() error {
		var err error
		invoices, err = m.source.RecentInvoices(gctx, record.ID, TimelineSourceLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Printf("[TIMELINE] Failed to build timeline for case %s: %v", record.ID, err)
		return nil, fmt.Errorf("failed to build timeline: %w", err)
	}

	outcome = "ok"
	return &CaseTimeline{
		CaseID:     record.ID,
		CaseNumber: record.CaseNumber,
		Timeline: MergeTimeline(
			capSlice(documents, TimelineSourceLimit),
			capSlice(tasks, TimelineSourceLimit),
			capSlice(events, TimelineSourceLimit),
			capSlice(invoices, TimelineSourceLimit),
		),
	}, nil
}

// MergeTimeline projects the four streams into entries and sorts them by date, newest
// first. The sort is stable: equal dates keep emission order (documents, tasks with their
// completions, events, invoices with their payments).
func MergeTimeline(documents []models.Document, tasks []models.Task, events []models.Event, invoices []models.Invoice) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(documents)+2*len(tasks)+len(events)+2*len(invoices))

	for _, doc := range documents {
		entries = append(entries, TimelineEntry{
			Type:  TimelineDocument,
			Date:  doc.CreatedAt,
			ID:    doc.ID,
			Title: "Document uploaded: " + doc.FileName,
			Data:  doc,
		})
	}

	for _, task := range tasks {
		entries = append(entries, TimelineEntry{
			Type:  TimelineTask,
			Date:  task.CreatedAt,
			ID:    task.ID,
			Title: "Task created: " + task.Title,
			Data:  task,
		})
		if task.IsCompleted() {
			entries = append(entries, TimelineEntry{
				Type:  TimelineTaskCompleted,
				Date:  *task.CompletedDate,
				ID:    task.ID,
				Title: "Task completed: " + task.Title,
				Data:  task,
			})
		}
	}

	for _, event := range events {
		entries = append(entries, TimelineEntry{
			Type:  TimelineEvent,
			Date:  event.EventDate,
			ID:    event.ID,
			Title: event.EventType + ": " + event.Title,
			Data:  event,
		})
	}

	for _, invoice := range invoices {
		entries = append(entries, TimelineEntry{
			Type:  TimelineInvoice,
			Date:  invoice.CreatedAt,
			ID:    invoice.ID,
			Title: fmt.Sprintf("Invoice %s: %s", invoice.InvoiceNumber, invoice.Status),
			Data:  invoice,
		})
		if invoice.IsPaid() {
			entries = append(entries, TimelineEntry{
				Type:  TimelineInvoicePaid,
				Date:  *invoice.PaidDate,
				ID:    invoice.ID,
				Title: fmt.Sprintf("Invoice %s paid", invoice.InvoiceNumber),
				Data:  invoice,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries
}

// capSlice guards the bound when a source ignores the limit it was given
func capSlice[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
