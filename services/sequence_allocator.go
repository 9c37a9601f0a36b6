package services

import (
	"context"
	"errors"
	"fmt"
	"law_case_engine/models"
	"log"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errCounterRace marks a counter row that vanished between the lazy create and the
// increment; the attempt is retried like any other conflict.
var errCounterRace = errors.New("sequence counter changed concurrently")

// PersistFunc inserts the row that consumes an allocated case number. It runs inside the
// allocation transaction, so a failure releases the number together with the row.
type PersistFunc func(tx *gorm.DB, caseNumber string) error

// SequenceAllocator issues case numbers of the form LAW-<year>-<seq> per owner and year.
//
// Uniqueness is enforced by the store, not by process memory: each attempt runs in one
// transaction that bumps a per-(owner, year) counter row and inserts the case, and the
// cases table carries a unique index on (owner_uid, case_number). Write conflicts roll
// the attempt back and it is retried against fresh state, up to maxAttempts and within
// the timeout budget.
type SequenceAllocator struct {
	db          *gorm.DB
	maxAttempts int
	timeout     time.Duration
	now         func() time.Time
}

// NewSequenceAllocator creates an allocator bound to the given store
func NewSequenceAllocator(db *gorm.DB, maxAttempts int, timeout time.Duration) *SequenceAllocator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SequenceAllocator{
		db:          db,
		maxAttempts: maxAttempts,
		timeout:     timeout,
		now:         time.Now,
	}
}

// CaseNumberPrefix returns the scope prefix for a year, e.g. "LAW-2026-"
func CaseNumberPrefix(year int) string {
	return fmt.Sprintf("%s-%d-", models.CaseNumberPrefix, year)
}

// FormatCaseNumber zero-pads the sequence to three digits; wider values are kept whole
func FormatCaseNumber(year int, sequence int64) string {
	return fmt.Sprintf("%s%03d", CaseNumberPrefix(year), sequence)
}

// ParseCaseSequence extracts the numeric suffix of a case number issued in year
func ParseCaseSequence(caseNumber string, year int) (int64, bool) {
	suffix, ok := strings.CutPrefix(caseNumber, CaseNumberPrefix(year))
	if !ok || suffix == "" {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	seq, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// Allocate reserves the next case number for ownerUID in the current year and passes it
// to persist inside the same transaction. It returns ErrConcurrencyConflict once the
// retry budget (attempts or time) is spent.
func (a *SequenceAllocator) Allocate(ctx context.Context, ownerUID string, persist PersistFunc) (string, error) {
	if ownerUID == "" {
		return "", fmt.Errorf("%w: owner uid is required", ErrInvalidCaseField)
	}

	budget, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	year := a.now().Year()
	var lastErr error
	resync := false

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		var caseNumber string
		err := a.db.WithContext(budget).Transaction(func(tx *gorm.DB) error {
			// A conflict may mean the counter lags numbers stored by another writer
			if resync {
				if _, err := RaiseSequenceCounter(tx, ownerUID, year); err != nil {
					return err
				}
			}
			next, err := a.increment(tx, ownerUID, year)
			if err != nil {
				return err
			}
			caseNumber = FormatCaseNumber(year, next)
			if persist == nil {
				return nil
			}
			return persist(tx, caseNumber)
		})
		if err == nil {
			caseNumberAllocations.WithLabelValues("ok").Inc()
			return caseNumber, nil
		}

		// The caller went away; report that rather than a conflict
		if ctx.Err() != nil {
			caseNumberAllocations.WithLabelValues("error").Inc()
			return "", ctx.Err()
		}
		if budget.Err() == nil && !isAllocationConflict(err) {
			caseNumberAllocations.WithLabelValues("error").Inc()
			return "", err
		}

		lastErr = err
		resync = true
		caseNumberAllocationRetries.Inc()
		log.Printf("[SEQUENCE] Conflict allocating case number for owner %s (attempt %d/%d): %v", ownerUID, attempt, a.maxAttempts, err)

		if budget.Err() != nil || attempt == a.maxAttempts {
			break
		}
		select {
		case <-budget.Done():
		case <-time.After(retryDelay(attempt)):
		}
	}

	caseNumberAllocations.WithLabelValues("conflict").Inc()
	return "", fmt.Errorf("%w (owner %s): %v", ErrConcurrencyConflict, ownerUID, lastErr)
}

// Peek returns the case number the next allocation would receive, without consuming it
func (a *SequenceAllocator) Peek(ctx context.Context, ownerUID string) (string, error) {
	year := a.now().Year()
	tx := a.db.WithContext(ctx)

	var counter models.SequenceCounter
	err := tx.Where("owner_uid = ? AND year = ?", ownerUID, year).First(&counter).Error
	if err == nil {
		return FormatCaseNumber(year, counter.LastValue+1), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to read sequence counter: %w", err)
	}

	seed, err := HighestIssuedSequence(tx, ownerUID, year)
	if err != nil {
		return "", err
	}
	return FormatCaseNumber(year, seed+1), nil
}

// increment bumps the (owner, year) counter and returns the new value. The counter is
// created lazily, seeded from the highest suffix already present in cases.
func (a *SequenceAllocator) increment(tx *gorm.DB, ownerUID string, year int) (int64, error) {
	var counter models.SequenceCounter
	err := tx.Where("owner_uid = ? AND year = ?", ownerUID, year).First(&counter).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		seed, err := HighestIssuedSequence(tx, ownerUID, year)
		if err != nil {
			return 0, err
		}
		counter = models.SequenceCounter{OwnerUID: ownerUID, Year: year, LastValue: seed}
		// Another writer may create the row first; the increment below then applies to theirs
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
			return 0, fmt.Errorf("failed to create sequence counter: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("failed to read sequence counter: %w", err)
	}

	res := tx.Model(&models.SequenceCounter{}).
		Where("owner_uid = ? AND year = ?", ownerUID, year).
		UpdateColumn("last_value", gorm.Expr("last_value + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to increment sequence counter: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, errCounterRace
	}

	var current models.SequenceCounter
	if err := tx.Where("owner_uid = ? AND year = ?", ownerUID, year).First(&current).Error; err != nil {
		return 0, fmt.Errorf("failed to read sequence counter: %w", err)
	}
	return current.LastValue, nil
}

// RaiseSequenceCounter lifts the (owner, year) counter to the highest suffix stored in
// cases. It never lowers a counter and reports whether the row changed. A missing counter
// is left alone; increment seeds it.
func RaiseSequenceCounter(tx *gorm.DB, ownerUID string, year int) (bool, error) {
	highest, err := HighestIssuedSequence(tx, ownerUID, year)
	if err != nil {
		return false, err
	}
	res := tx.Model(&models.SequenceCounter{}).
		Where("owner_uid = ? AND year = ? AND last_value < ?", ownerUID, year, highest).
		UpdateColumn("last_value", highest)
	if res.Error != nil {
		return false, fmt.Errorf("failed to raise sequence counter: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// HighestIssuedSequence scans the owner's cases for the largest suffix issued in year.
// Suffixes are compared numerically, so LAW-2026-1000 ranks above LAW-2026-999.
func HighestIssuedSequence(tx *gorm.DB, ownerUID string, year int) (int64, error) {
	var caseNumbers []string
	err := tx.Model(&models.CaseRecord{}).
		Where("owner_uid = ? AND case_number LIKE ?", ownerUID, CaseNumberPrefix(year)+"%").
		Pluck("case_number", &caseNumbers).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query existing case numbers: %w", err)
	}

	var highest int64
	for _, n := range caseNumbers {
		if seq, ok := ParseCaseSequence(n, year); ok && seq > highest {
			highest = seq
		}
	}
	return highest, nil
}

// isAllocationConflict reports whether an attempt failed because another writer won a
// race (unique index, serialization failure, or a busy SQLite writer lock)
func isAllocationConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, errCounterRace) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"unique constraint",
		"duplicate key",
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"could not serialize",
		"deadlock detected",
		"sqlstate 40001",
		"sqlstate 40p01",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// retryDelay grows with the attempt number and adds jitter so retries spread out
func retryDelay(attempt int) time.Duration {
	base := time.Duration(attempt*attempt) * 5 * time.Millisecond
	return base + rand.N(5*time.Millisecond)
}
