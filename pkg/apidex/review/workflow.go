// Package review implements the submission state machine: a pending
// request transitions exactly once, to approved or rejected, and approval
// materializes a published endpoint in the same transaction.
package review

import (
	"errors"
	"time"

	"github.com/apidex/apidex/pkg/apidex/apperror"
	"github.com/apidex/apidex/pkg/apidex/auth"
	"github.com/apidex/apidex/pkg/apidex/models"
	"gorm.io/gorm"
)

// Service runs approval decisions. Both operations re-classify the caller
// against the role store before touching anything.
type Service struct {
	db *gorm.DB
}

// NewService creates a new review service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// checkAdmin classifies callerID and rejects everyone below admin
func (s *Service) checkAdmin(callerID uint) error {
	switch auth.ClassifyCaller(s.db, callerID) {
	case auth.ClassificationAdmin:
		return nil
	case auth.ClassificationUnauthenticated:
		return apperror.Authentication("Authentication required")
	default:
		return apperror.Authorization("Admin access required")
	}
}

// transition marks a pending request reviewed. The guarded UPDATE is the
// concurrency control: of two racing reviews only one matches the pending
// row, the other sees zero rows affected and fails with invalid state.
func transition(tx *gorm.DB, requestID, reviewerID uint, to models.ReviewStatus, now time.Time) error {
	res := tx.Model(&models.EndpointRequest{}).
		Where("id = ? AND review_status = ?", requestID, models.ReviewStatusPending).
		Updates(map[string]interface{}{
			"review_status":  to,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    now,
		})
	if res.Error != nil {
		return apperror.Persistence("Failed to update submission", res.Error)
	}
	if res.RowsAffected == 0 {
		var existing models.EndpointRequest
		err := tx.First(&existing, requestID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.InvalidState("Submission not found")
		}
		if err != nil {
			return apperror.Persistence("Failed to fetch submission", err)
		}
		return apperror.InvalidState("Submission has already been reviewed")
	}
	return nil
}

// Approve transitions a pending request to approved and publishes an
// endpoint copying the request's fields and tags, all in one transaction.
// If endpoint creation fails the status update rolls back and the request
// stays pending.
func (s *Service) Approve(requestID, callerID uint) (*models.EndpointRequest, *models.Endpoint, error) {
	if err := s.checkAdmin(callerID); err != nil {
		return nil, nil, err
	}

	var req models.EndpointRequest
	var ep models.Endpoint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := transition(tx, requestID, callerID, models.ReviewStatusApproved, now); err != nil {
			return err
		}

		if err := tx.Preload("Tags").First(&req, requestID).Error; err != nil {
			return apperror.Persistence("Failed to fetch submission", err)
		}

		ep = models.Endpoint{
			Company:     req.Company,
			Title:       req.Title,
			Description: req.Description,
			Protocol:    req.Protocol,
			Address:     req.Address,
			Ports:       req.Ports,
			IconURL:     req.IconURL,
			Status:      models.EndpointStatusActive,
			CreatedByID: callerID,
			Tags:        req.Tags,
		}
		if err := tx.Omit("Tags.*").Create(&ep).Error; err != nil {
			return apperror.Persistence("Failed to publish endpoint", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &req, &ep, nil
}

// Reject transitions a pending request to rejected. No endpoint is
// created and nothing else changes.
func (s *Service) Reject(requestID, callerID uint) (*models.EndpointRequest, error) {
	if err := s.checkAdmin(callerID); err != nil {
		return nil, err
	}

	var req models.EndpointRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, requestID, callerID, models.ReviewStatusRejected, time.Now()); err != nil {
			return err
		}
		return tx.Preload("Tags").First(&req, requestID).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}
