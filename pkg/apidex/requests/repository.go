package requests

import (
	"github.com/apidex/apidex/pkg/apidex/apperror"
	"github.com/apidex/apidex/pkg/apidex/models"
	"github.com/apidex/apidex/pkg/apidex/validation"
	"gorm.io/gorm"
)

// Repository owns all store access for endpoint submissions. Authorization
// is enforced by the handlers and the review workflow wrapping it, not in
// here, so the state rules stay testable without a request lifecycle.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new request repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new pending submission with its tag associations in a
// single transaction. Either the request exists with all its tags or
// nothing is written; a tag-less pending request is never observable.
func (r *Repository) Create(sub *validation.Submission, submitterID uint) (*models.EndpointRequest, error) {
	req := &models.EndpointRequest{
		Company:       sub.Company,
		Title:         sub.Title,
		Description:   sub.Description,
		Protocol:      sub.Protocol,
		Address:       sub.Address,
		Ports:         sub.Ports,
		IconURL:       sub.IconURL,
		ReviewStatus:  models.ReviewStatusPending,
		SubmittedByID: submitterID,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		tags, terr := resolveTags(tx, sub.TagIDs)
		if terr != nil {
			return terr
		}
		req.Tags = tags
		if err := tx.Omit("Tags.*").Create(req).Error; err != nil {
			return apperror.Persistence("Failed to create submission", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListPending returns all pending submissions, oldest first, so review
// works through a FIFO queue.
func (r *Repository) ListPending() ([]models.EndpointRequest, error) {
	var reqs []models.EndpointRequest
	err := r.db.Preload("Tags").
		Where("review_status = ?", models.ReviewStatusPending).
		Order("created_at ASC").
		Find(&reqs).Error
	if err != nil {
		return nil, apperror.Persistence("Failed to fetch pending submissions", err)
	}
	return reqs, nil
}

// ListBySubmitter returns all submissions for one user, newest first
func (r *Repository) ListBySubmitter(submitterID uint) ([]models.EndpointRequest, error) {
	var reqs []models.EndpointRequest
	err := r.db.Preload("Tags").
		Where("submitted_by_id = ?", submitterID).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, apperror.Persistence("Failed to fetch submissions", err)
	}
	return reqs, nil
}

// DeleteIfPending deletes a submission only if it belongs to submitterID
// and is still pending. Anything else is a no-op; the returned bool says
// whether a row actually went away. The owner+pending predicate rides on
// the DELETE itself, so a review committing concurrently cannot be
// destroyed: the delete simply matches nothing.
func (r *Repository) DeleteIfPending(requestID, submitterID uint) (bool, error) {
	deleted := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND submitted_by_id = ? AND review_status = ?",
			requestID, submitterID, models.ReviewStatusPending).
			Delete(&models.EndpointRequest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Model(&models.EndpointRequest{ID: requestID}).Association("Tags").Clear()
	})
	if err != nil {
		return false, apperror.Persistence("Failed to delete submission", err)
	}
	return deleted, nil
}

// resolveTags loads the referenced tags and rejects ids that do not exist.
// This is the persistence-time referential check the validation layer
// deliberately leaves out.
func resolveTags(tx *gorm.DB, tagIDs []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, apperror.Persistence("Failed to resolve tags", err)
	}
	if len(tags) != len(tagIDs) {
		return nil, apperror.ValidationField("tag_ids", "One or more selected tags do not exist")
	}
	return tags, nil
}
