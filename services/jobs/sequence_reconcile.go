package jobs

import (
	"fmt"
	"law_case_engine/config"
	"law_case_engine/models"
	"law_case_engine/services"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// StartScheduler starts the background jobs and returns the running scheduler so the
// caller can stop it on shutdown
func StartScheduler(database *gorm.DB, cfg *config.Config) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.ReconcileTimezone)
	if err != nil {
		log.Printf("[WARNING] Unknown reconcile timezone %q, using UTC", cfg.ReconcileTimezone)
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.ReconcileSchedule, func() {
		year := time.Now().In(loc).Year()
		log.Printf("[CRON] Reconciling sequence counters for %d...", year)
		raised, err := ReconcileSequenceCounters(database, year)
		if err != nil {
			log.Printf("[CRON] Sequence reconcile failed: %v", err)
			return
		}
		log.Printf("[CRON] Sequence reconcile done, %d counter(s) raised", raised)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule sequence reconcile: %w", err)
	}

	c.Start()
	log.Printf("[CRON] Scheduler started (reconcile %q, %s)", cfg.ReconcileSchedule, loc)
	return c, nil
}

// ReconcileSequenceCounters raises every counter of year that sits below the highest
// suffix present in cases, e.g. after rows were written by an import. Counters are never
// lowered and missing counters are left for the allocator to seed lazily.
func ReconcileSequenceCounters(database *gorm.DB, year int) (int, error) {
	var counters []models.SequenceCounter
	if err := database.Where("year = ?", year).Find(&counters).Error; err != nil {
		return 0, fmt.Errorf("failed to list sequence counters: %w", err)
	}

	raised := 0
	for _, counter := range counters {
		err := database.Transaction(func(tx *gorm.DB) error {
			changed, err := services.RaiseSequenceCounter(tx, counter.OwnerUID, year)
			if err != nil {
				return err
			}
			if changed {
				log.Printf("[CRON] Raised counter for owner %s/%d", counter.OwnerUID, year)
				raised++
			}
			return nil
		})
		if err != nil {
			return raised, fmt.Errorf("owner %s: %w", counter.OwnerUID, err)
		}
	}
	return raised, nil
}
