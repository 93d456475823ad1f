package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/handyhub/quotehub/internal/db/models"
)

// CriteriaRepository handles database operations for eligibility criteria
type CriteriaRepository struct {
	db *gorm.DB
}

// NewCriteriaRepository creates a new instance of CriteriaRepository
func NewCriteriaRepository(db *gorm.DB) *CriteriaRepository {
	return &CriteriaRepository{db: db}
}

// CreateOnce inserts criteria for a job unless a row already exists, in
// which case the existing row is returned unchanged. Criteria are immutable
// once written, so redelivered job.created signals always observe the
// parameters used by the first delivery.
func (r *CriteriaRepository) CreateOnce(ctx context.Context, criteria *models.EligibilityCriteria) (*models.EligibilityCriteria, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}},
		DoNothing: true,
	}).Create(criteria)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 1 {
		return criteria, nil
	}
	return r.GetByJobID(ctx, criteria.JobID)
}

// GetByJobID retrieves the criteria recorded for a job
func (r *CriteriaRepository) GetByJobID(ctx context.Context, jobID string) (*models.EligibilityCriteria, error) {
	var criteria models.EligibilityCriteria
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&criteria).Error; err != nil {
		return nil, err
	}
	return &criteria, nil
}
