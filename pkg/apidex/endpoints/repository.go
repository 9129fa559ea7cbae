package endpoints

import (
	"errors"
	"strings"

	"github.com/apidex/apidex/pkg/apidex/apperror"
	"github.com/apidex/apidex/pkg/apidex/models"
	"github.com/apidex/apidex/pkg/apidex/validation"
	"gorm.io/gorm"
)

// Repository owns all store access for published endpoints. Mutations are
// admin-only, but that check lives in the handlers wrapping it.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new endpoint repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilter narrows the catalog listing. Zero values mean "no filter"
// except Status, which defaults to active.
type ListFilter struct {
	Status   models.EndpointStatus
	TagSlugs []string
	Search   string
}

// List returns endpoints matching the filter, newest first. The search
// term matches case-insensitively against title, company and description.
// Tag filtering is OR across slugs and happens store-side via the junction
// join rather than in application memory.
func (r *Repository) List(f ListFilter) ([]models.Endpoint, error) {
	status := f.Status
	if status == "" {
		status = models.EndpointStatusActive
	}

	query := r.db.Preload("Tags").
		Where("endpoints.status = ?", status).
		Order("endpoints.created_at DESC")

	if f.Search != "" {
		term := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where(
			"LOWER(endpoints.title) LIKE ? OR LOWER(endpoints.company) LIKE ? OR LOWER(endpoints.description) LIKE ?",
			term, term, term)
	}

	if len(f.TagSlugs) > 0 {
		query = query.Distinct("endpoints.*").
			Joins("JOIN endpoint_tags ON endpoint_tags.endpoint_id = endpoints.id").
			Joins("JOIN tags ON tags.id = endpoint_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
	}

	var eps []models.Endpoint
	if err := query.Find(&eps).Error; err != nil {
		return nil, apperror.Persistence("Failed to fetch endpoints", err)
	}
	return eps, nil
}

// GetByID returns an endpoint with its tags, or nil if it does not exist
func (r *Repository) GetByID(id uint) (*models.Endpoint, error) {
	var ep models.Endpoint
	err := r.db.Preload("Tags").First(&ep, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Persistence("Failed to fetch endpoint", err)
	}
	return &ep, nil
}

// Create persists a new active endpoint with its tag associations in one
// transaction. Same no-orphan guarantee as submission creation.
func (r *Repository) Create(sub *validation.Submission, creatorID uint) (*models.Endpoint, error) {
	ep := &models.Endpoint{
		Company:     sub.Company,
		Title:       sub.Title,
		Description: sub.Description,
		Protocol:    sub.Protocol,
		Address:     sub.Address,
		Ports:       sub.Ports,
		IconURL:     sub.IconURL,
		Status:      models.EndpointStatusActive,
		CreatedByID: creatorID,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		tags, terr := resolveTags(tx, sub.TagIDs)
		if terr != nil {
			return terr
		}
		ep.Tags = tags
		if err := tx.Omit("Tags.*").Create(ep).Error; err != nil {
			return apperror.Persistence("Failed to create endpoint", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ep, nil
}

// Update replaces an endpoint's scalar fields and reconciles its tag set.
// The tag update is diff-based (append the added, remove the removed)
// inside one transaction, so a failure midway leaves the original tag set
// intact rather than an endpoint with zero tags.
func (r *Repository) Update(id uint, sub *validation.Submission) (*models.Endpoint, error) {
	var updated *models.Endpoint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ep models.Endpoint
		err := tx.Preload("Tags").First(&ep, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err != nil {
			return apperror.Persistence("Failed to fetch endpoint", err)
		}

		tags, terr := resolveTags(tx, sub.TagIDs)
		if terr != nil {
			return terr
		}

		fields := map[string]interface{}{
			"company":     sub.Company,
			"title":       sub.Title,
			"description": sub.Description,
			"protocol":    sub.Protocol,
			"address":     sub.Address,
			"ports":       sub.Ports,
			"icon_url":    sub.IconURL,
		}
		if err := tx.Model(&ep).Updates(fields).Error; err != nil {
			return apperror.Persistence("Failed to update endpoint", err)
		}

		added, removed := diffTags(ep.Tags, tags)
		if len(removed) > 0 {
			if err := tx.Model(&ep).Association("Tags").Delete(&removed); err != nil {
				return apperror.Persistence("Failed to update tags", err)
			}
		}
		if len(added) > 0 {
			if err := tx.Model(&ep).Association("Tags").Append(&added); err != nil {
				return apperror.Persistence("Failed to update tags", err)
			}
		}

		ep.Tags = tags
		updated = &ep
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an endpoint and its tag associations. Returns whether a
// row actually went away. The existence check is the DELETE itself, so a
// concurrent delete of the same row reports false rather than failing.
func (r *Repository) Delete(id uint) (bool, error) {
	deleted := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Endpoint{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Model(&models.Endpoint{ID: id}).Association("Tags").Clear()
	})
	if err != nil {
		return false, apperror.Persistence("Failed to delete endpoint", err)
	}
	return deleted, nil
}

// diffTags splits the desired tag set into additions and removals relative
// to the current set
func diffTags(current, want []models.Tag) (added, removed []models.Tag) {
	currentIDs := make(map[uint]struct{}, len(current))
	for _, t := range current {
		currentIDs[t.ID] = struct{}{}
	}
	wantIDs := make(map[uint]struct{}, len(want))
	for _, t := range want {
		wantIDs[t.ID] = struct{}{}
		if _, ok := currentIDs[t.ID]; !ok {
			added = append(added, t)
		}
	}
	for _, t := range current {
		if _, ok := wantIDs[t.ID]; !ok {
			removed = append(removed, t)
		}
	}
	return added, removed
}

// resolveTags loads the referenced tags and rejects ids that do not exist
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
