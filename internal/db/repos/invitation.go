package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/handyhub/quotehub/internal/db/models"
)

// InvitationRepository handles database operations for invitations
type InvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new instance of InvitationRepository
func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// CreateBatch inserts invitations for a job, skipping any (job, provider)
// pair that already has one. Redelivered job.created signals therefore
// produce the same invitation set as a single delivery. Returns only the
// invitations actually inserted by this call.
func (r *InvitationRepository) CreateBatch(ctx context.Context, invitations []*models.Invitation) ([]*models.Invitation, error) {
	var created []*models.Invitation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, invitation := range invitations {
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "job_id"}, {Name: "provider_id"}},
				DoNothing: true,
			}).Create(invitation)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				// Already invited, treat as a no-op.
				continue
			}
			created = append(created, invitation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves an invitation by ID
func (r *InvitationRepository) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	var invitation models.Invitation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&invitation).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// ListByJob retrieves all invitations for a job
func (r *InvitationRepository) ListByJob(ctx context.Context, jobID string) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("invited_at desc").
		Find(&invitations).Error
	return invitations, err
}

// ListByProvider retrieves a provider's invitations, newest first,
// optionally filtered by status.
func (r *InvitationRepository) ListByProvider(ctx context.Context, providerID string, status *models.InviteStatus) ([]models.Invitation, error) {
	query := r.db.WithContext(ctx).Where("provider_id = ?", providerID)
	if status != nil {
		query = query.Where(models.Invitation{Status: *status})
	}
	var invitations []models.Invitation
	err := query.Order("invited_at desc").Find(&invitations).Error
	return invitations, err
}

// MarkResponded transitions an INVITED invitation to RESPONDED, recording
// the quote it was answered with. Returns ErrStatusChanged when the
// invitation is no longer INVITED.
func (r *InvitationRepository) MarkResponded(ctx context.Context, id, quoteID string, now time.Time) (*models.Invitation, error) {
	var invitation models.Invitation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", id, models.InviteStatusInvited).
			Updates(map[string]interface{}{
				"status":       models.InviteStatusResponded,
				"responded_at": now,
				"quote_id":     quoteID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return ErrStatusChanged
		}
		return tx.Where("id = ?", id).First(&invitation).Error
	})
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// MarkDeclined transitions an INVITED invitation to DECLINED.
func (r *InvitationRepository) MarkDeclined(ctx context.Context, id string, now time.Time) (*models.Invitation, error) {
	var invitation models.Invitation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", id, models.InviteStatusInvited).
			Updates(map[string]interface{}{
				"status":       models.InviteStatusDeclined,
				"responded_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return ErrStatusChanged
		}
		return tx.Where("id = ?", id).First(&invitation).Error
	})
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// Expire transitions an INVITED invitation to EXPIRED. Used by the lazy
// expiry check when a stale invitation is read.
func (r *InvitationRepository) Expire(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("id = ? AND status = ?", id, models.InviteStatusInvited).
		Update(models.InviteStatusField, models.InviteStatusExpired)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrStatusChanged
	}
	return nil
}

// ExpireSweep transitions every INVITED invitation whose response window has
// elapsed to EXPIRED and returns the number of rows affected.
func (r *InvitationRepository) ExpireSweep(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("status = ? AND expires_at < ?", models.InviteStatusInvited, now).
		Update(models.InviteStatusField, models.InviteStatusExpired)
	return result.RowsAffected, result.Error
}
