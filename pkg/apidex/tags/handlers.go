package tags

import (
	"net/http"
	"strconv"

	"github.com/apidex/apidex/pkg/apidex/apperror"
	"github.com/apidex/apidex/pkg/apidex/auth"
	"github.com/apidex/apidex/pkg/apidex/models"
	"github.com/apidex/apidex/pkg/apidex/validation"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles tag requests. Tags are shared reference data: anyone can
// read them, only admins create or change them.
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new tags handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// TagResponse represents a tag in API responses
type TagResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Color         string `json:"color"`
	EndpointCount int64  `json:"endpoint_count,omitempty"`
}

func (h *Handler) requireAdmin(c *gin.Context) bool {
	userID, exists := auth.GetUserID(c)
	if !exists {
		apperror.Write(c, apperror.Authentication("Authentication required"))
		return false
	}
	if auth.ClassifyCaller(h.db, userID) != auth.ClassificationAdmin {
		apperror.Write(c, apperror.Authorization("Admin access required"))
		return false
	}
	return true
}

// List returns all tags, ordered by name
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} TagResponse
// @Router /tags [get]
func (h *Handler) List(c *gin.Context) {
	var tags []models.Tag
	if err := h.db.Order("name ASC").Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}

	responses := make([]TagResponse, len(tags))
	for i, t := range tags {
		var count int64
		h.db.Table("endpoint_tags").Where("tag_id = ?", t.ID).Count(&count)
		responses[i] = TagResponse{
			ID:            t.ID,
			Name:          t.Name,
			Slug:          t.Slug,
			Color:         t.Color,
			EndpointCount: count,
		}
	}

	c.JSON(http.StatusOK, responses)
}

// Create creates a new tag
// @Summary Create a tag (admin)
// @Tags tags
// @Accept json
// @Produce json
// @Param request body validation.TagInput true "Tag fields"
// @Success 201 {object} TagResponse
// @Failure 400 {object} apperror.Error "Validation error"
// @Failure 409 {object} map[string]string "Name or slug already taken"
// @Security BearerAuth
// @Router /admin/tags [post]
func (h *Handler) Create(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var in validation.TagInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperror.Write(c, apperror.ValidationField("root", "Invalid request body"))
		return
	}
	if verr := validation.ValidateTag(in); verr != nil {
		apperror.Write(c, verr)
		return
	}

	var existing models.Tag
	if err := h.db.Where("name = ? OR slug = ?", in.Name, in.Slug).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A tag with that name or slug already exists"})
		return
	}

	tag := models.Tag{Name: in.Name, Slug: in.Slug, Color: in.Color}
	if err := h.db.Create(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
		return
	}

	c.JSON(http.StatusCreated, TagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug, Color: tag.Color})
}

// Update changes a tag's name, slug or color
// @Summary Update a tag (admin)
// @Tags tags
// @Accept json
// @Produce json
// @Param id path int true "Tag ID"
// @Param request body validation.TagInput true "Tag fields"
// @Success 200 {object} TagResponse
// @Failure 400 {object} apperror.Error "Validation error"
// @Failure 404 {object} map[string]string "Tag not found"
// @Security BearerAuth
// @Router /admin/tags/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag ID"})
		return
	}

	var tag models.Tag
	if err := h.db.First(&tag, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	var in validation.TagInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperror.Write(c, apperror.ValidationField("root", "Invalid request body"))
		return
	}
	if verr := validation.ValidateTag(in); verr != nil {
		apperror.Write(c, verr)
		return
	}

	tag.Name = in.Name
	tag.Slug = in.Slug
	tag.Color = in.Color
	if err := h.db.Save(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tag"})
		return
	}

	c.JSON(http.StatusOK, TagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug, Color: tag.Color})
}

// Delete removes a tag that no endpoint or submission still references
// @Summary Delete a tag (admin)
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} map[string]string "Tag deleted"
// @Failure 404 {object} map[string]string "Tag not found"
// @Failure 409 {object} map[string]string "Tag still in use"
// @Security BearerAuth
// @Router /admin/tags/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag ID"})
		return
	}

	var tag models.Tag
	if err := h.db.First(&tag, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	var inUse int64
	h.db.Table("endpoint_tags").Where("tag_id = ?", tag.ID).Count(&inUse)
	if inUse == 0 {
		h.db.Table("endpoint_request_tags").Where("tag_id = ?", tag.ID).Count(&inUse)
	}
	if inUse > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Tag is still in use"})
		return
	}

	if err := h.db.Delete(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tag"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted"})
}

// RegisterRoutes registers the public tag routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tags", h.List)
}

// RegisterAdminRoutes registers the admin tag routes
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/tags", h.Create)
	rg.PUT("/tags/:id", h.Update)
	rg.DELETE("/tags/:id", h.Delete)
}
