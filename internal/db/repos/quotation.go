// Package repos implements database access for the orchestrator's aggregates.
//
// Every status transition is a conditional update guarded by the currently
// expected status ("UPDATE ... WHERE status = ?"). A transition that matches
// zero rows lost a race or targeted a terminal state, and is reported via
// ErrStatusChanged so callers can surface a conflict instead of silently
// overwriting newer state.
package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/handyhub/quotehub/internal/db/models"
)

// ErrStatusChanged is returned when a guarded transition matched no rows
// because the record's status is no longer the expected one.
var ErrStatusChanged = errors.New("record status changed concurrently")

// QuotationRepository handles database operations for quotations
type QuotationRepository struct {
	db *gorm.DB
}

// NewQuotationRepository creates a new instance of QuotationRepository
func NewQuotationRepository(db *gorm.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

// Create inserts a new quotation. A unique-key error means an active quote
// already exists for this (job, provider) pair.
func (r *QuotationRepository) Create(ctx context.Context, quote *models.Quotation) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

// GetByID retrieves a quotation by ID
func (r *QuotationRepository) GetByID(ctx context.Context, id string) (*models.Quotation, error) {
	var quote models.Quotation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetActiveForJobProvider returns the PENDING or ACCEPTED quotation for the
// given (job, provider) pair, or gorm.ErrRecordNotFound when none exists.
func (r *QuotationRepository) GetActiveForJobProvider(ctx context.Context, jobID, providerID string) (*models.Quotation, error) {
	var quote models.Quotation
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND provider_id = ? AND status IN ?",
			jobID, providerID, []models.QuoteStatus{models.QuoteStatusPending, models.QuoteStatusAccepted}).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// ListByJob retrieves the reviewable (PENDING or ACCEPTED) quotations for a
// job in the customer-facing order: accepted first, then ascending price,
// then newest first.
func (r *QuotationRepository) ListByJob(ctx context.Context, jobID string) ([]models.Quotation, error) {
	var quotes []models.Quotation
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND status IN ?",
			jobID, []models.QuoteStatus{models.QuoteStatusPending, models.QuoteStatusAccepted}).
		// ACCEPTED sorts before PENDING lexically, giving accepted-first.
		Order("status asc").
		Order("price asc").
		Order("created_at desc").
		Find(&quotes).Error
	return quotes, err
}

// ListByProvider retrieves a provider's quotations, newest first, optionally
// filtered by status.
func (r *QuotationRepository) ListByProvider(ctx context.Context, providerID string, status *models.QuoteStatus) ([]models.Quotation, error) {
	query := r.db.WithContext(ctx).Where("provider_id = ?", providerID)
	if status != nil {
		query = query.Where(models.Quotation{Status: *status})
	}
	var quotes []models.Quotation
	err := query.Order("created_at desc").Find(&quotes).Error
	return quotes, err
}

// Accept transitions the quotation to ACCEPTED and rejects every other
// PENDING quotation for the same job, as a single transaction. Both writes
// commit or neither does; a partial application would break the
// at-most-one-accepted invariant.
//
// Returns ErrStatusChanged when the quote is no longer PENDING.
func (r *QuotationRepository) Accept(ctx context.Context, id, jobID, notes string, now time.Time) (*models.Quotation, error) {
	var accepted models.Quotation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Quotation{}).
			Where("id = ? AND status = ?", id, models.QuoteStatusPending).
			Updates(map[string]interface{}{
				"status":         models.QuoteStatusAccepted,
				"accepted_at":    now,
				"customer_notes": notes,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return ErrStatusChanged
		}

		if err := tx.Model(&models.Quotation{}).
			Where("job_id = ? AND id <> ? AND status = ?", jobID, id, models.QuoteStatusPending).
			Updates(map[string]interface{}{
				"status":      models.QuoteStatusRejected,
				"rejected_at": now,
			}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).First(&accepted).Error
	})
	if err != nil {
		return nil, err
	}
	return &accepted, nil
}

// Reject transitions a PENDING quotation to REJECTED.
func (r *QuotationRepository) Reject(ctx context.Context, id, notes string, now time.Time) (*models.Quotation, error) {
	return r.transitionFromPending(ctx, id, map[string]interface{}{
		"status":         models.QuoteStatusRejected,
		"rejected_at":    now,
		"customer_notes": notes,
	})
}

// Cancel transitions a PENDING quotation to CANCELLED.
func (r *QuotationRepository) Cancel(ctx context.Context, id string, now time.Time) (*models.Quotation, error) {
	return r.transitionFromPending(ctx, id, map[string]interface{}{
		"status":       models.QuoteStatusCancelled,
		"cancelled_at": now,
	})
}

// Expire transitions a PENDING quotation to EXPIRED.
func (r *QuotationRepository) Expire(ctx context.Context, id string, now time.Time) (*models.Quotation, error) {
	return r.transitionFromPending(ctx, id, map[string]interface{}{
		"status":     models.QuoteStatusExpired,
		"updated_at": now,
	})
}

func (r *QuotationRepository) transitionFromPending(ctx context.Context, id string, updates map[string]interface{}) (*models.Quotation, error) {
	var quote models.Quotation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Quotation{}).
			Where("id = ? AND status = ?", id, models.QuoteStatusPending).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return ErrStatusChanged
		}
		return tx.Where("id = ?", id).First(&quote).Error
	})
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// UpdatePending applies provider edits to a still-PENDING quotation.
func (r *QuotationRepository) UpdatePending(ctx context.Context, id string, updates map[string]interface{}) (*models.Quotation, error) {
	return r.transitionFromPending(ctx, id, updates)
}

// Delete removes a quotation row. Only non-accepted quotes may be removed;
// the caller enforces that rule before calling.
func (r *QuotationRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Quotation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ExpireSweep transitions every PENDING quotation whose validity window has
// elapsed to EXPIRED and returns the number of rows affected.
func (r *QuotationRepository) ExpireSweep(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Quotation{}).
		Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?", models.QuoteStatusPending, now).
		Updates(map[string]interface{}{
			"status":     models.QuoteStatusExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// CancelAllForJob transitions every PENDING quotation for the job to
// CANCELLED and returns the quotes that were cancelled, for per-provider
// notification.
func (r *QuotationRepository) CancelAllForJob(ctx context.Context, jobID string, now time.Time) ([]models.Quotation, error) {
	var cancelled []models.Quotation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("job_id = ? AND status = ?", jobID, models.QuoteStatusPending).
			Find(&cancelled).Error; err != nil {
			return err
		}
		if len(cancelled) == 0 {
			return nil
		}
		ids := make([]string, len(cancelled))
		for i := range cancelled {
			ids[i] = cancelled[i].ID
		}
		// Guard on status again so a quote accepted between the read and
		// this write is left untouched.
		return tx.Model(&models.Quotation{}).
			Where("id IN ? AND status = ?", ids, models.QuoteStatusPending).
			Updates(map[string]interface{}{
				"status":       models.QuoteStatusCancelled,
				"cancelled_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	for i := range cancelled {
		cancelled[i].Status = models.QuoteStatusCancelled
		cancelledAt := now
		cancelled[i].CancelledAt = &cancelledAt
	}
	return cancelled, nil
}

// CountAcceptedForJob returns the number of ACCEPTED quotations for a job.
func (r *QuotationRepository) CountAcceptedForJob(ctx context.Context, jobID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Quotation{}).
		Where("job_id = ? AND status = ?", jobID, models.QuoteStatusAccepted).
		Count(&count).Error
	return count, err
}
