package endpoints

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/apidex/apidex/pkg/apidex/apperror"
	"github.com/apidex/apidex/pkg/apidex/auth"
	"github.com/apidex/apidex/pkg/apidex/models"
	"github.com/apidex/apidex/pkg/apidex/validation"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles endpoint catalog requests
type Handler struct {
	db   *gorm.DB
	repo *Repository
}

// NewHandler creates a new endpoints handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db, repo: NewRepository(db)}
}

// TagResponse represents a tag in API responses
type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// EndpointResponse represents an endpoint in API responses
type EndpointResponse struct {
	ID          uint          `json:"id"`
	Company     string        `json:"company"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Protocol    string        `json:"protocol"`
	Address     string        `json:"address"`
	Ports       models.Ports  `json:"ports"`
	IconURL     string        `json:"icon_url"`
	Status      string        `json:"status"`
	CreatedByID uint          `json:"created_by_id"`
	Tags        []TagResponse `json:"tags"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

// ToResponse converts an endpoint model to its API representation
func ToResponse(ep models.Endpoint) EndpointResponse {
	tags := make([]TagResponse, len(ep.Tags))
	for i, t := range ep.Tags {
		tags[i] = TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug, Color: t.Color}
	}
	return EndpointResponse{
		ID:          ep.ID,
		Company:     ep.Company,
		Title:       ep.Title,
		Description: ep.Description,
		Protocol:    ep.Protocol,
		Address:     ep.Address,
		Ports:       ep.Ports,
		IconURL:     ep.IconURL,
		Status:      string(ep.Status),
		CreatedByID: ep.CreatedByID,
		Tags:        tags,
		CreatedAt:   ep.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   ep.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// requireAdmin classifies the caller against the role store. The route
// group already checks the token claim; this re-check makes a stale or
// forged claim worthless.
func (h *Handler) requireAdmin(c *gin.Context) (uint, bool) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		apperror.Write(c, apperror.Authentication("Authentication required"))
		return 0, false
	}
	if auth.ClassifyCaller(h.db, userID) != auth.ClassificationAdmin {
		apperror.Write(c, apperror.Authorization("Admin access required"))
		return 0, false
	}
	return userID, true
}

// List returns catalog entries filtered by status, tag slugs and search text
// @Summary List endpoints
// @Description Browse the catalog; filter by status, tag slugs (OR semantics) and free text
// @Tags endpoints
// @Produce json
// @Param status query string false "Endpoint status (default active)"
// @Param tags query string false "Comma-separated tag slugs"
// @Param search query string false "Case-insensitive match against title, company, description"
// @Success 200 {array} EndpointResponse
// @Router /endpoints [get]
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{
		Status: models.EndpointStatus(c.Query("status")),
		Search: c.Query("search"),
	}
	if raw := c.Query("tags"); raw != "" {
		for _, slug := range strings.Split(raw, ",") {
			slug = strings.TrimSpace(slug)
			if slug != "" {
				filter.TagSlugs = append(filter.TagSlugs, slug)
			}
		}
	}

	eps, err := h.repo.List(filter)
	if err != nil {
		apperror.Write(c, err)
		return
	}

	responses := make([]EndpointResponse, len(eps))
	for i, ep := range eps {
		responses[i] = ToResponse(ep)
	}
	c.JSON(http.StatusOK, responses)
}

// Get returns a single endpoint by id
// @Summary Get an endpoint
// @Tags endpoints
// @Produce json
// @Param id path int true "Endpoint ID"
// @Success 200 {object} EndpointResponse
// @Failure 404 {object} map[string]string "Endpoint not found"
// @Router /endpoints/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endpoint ID"})
		return
	}

	ep, rerr := h.repo.GetByID(uint(id))
	if rerr != nil {
		apperror.Write(c, rerr)
		return
	}
	if ep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	c.JSON(http.StatusOK, ToResponse(*ep))
}

// Create creates an endpoint directly, bypassing the review queue.
// Shares the submission validation rules; never touches requests.
// @Summary Create an endpoint (admin)
// @Tags endpoints
// @Accept json
// @Produce json
// @Param request body validation.SubmissionInput true "Endpoint fields"
// @Success 201 {object} EndpointResponse
// @Failure 400 {object} apperror.Error "Validation error"
// @Failure 403 {object} apperror.Error "Admin access required"
// @Security BearerAuth
// @Router /admin/endpoints [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := h.requireAdmin(c)
	if !ok {
		return
	}

	var in validation.SubmissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperror.Write(c, apperror.ValidationField("root", "Invalid request body"))
		return
	}

	sub, verr := validation.ValidateSubmission(in)
	if verr != nil {
		apperror.Write(c, verr)
		return
	}

	ep, err := h.repo.Create(sub, userID)
	if err != nil {
		apperror.Write(c, err)
		return
	}

	c.JSON(http.StatusCreated, ToResponse(*ep))
}

// Update replaces an endpoint's fields and tag set
// @Summary Update an endpoint (admin)
// @Tags endpoints
// @Accept json
// @Produce json
// @Param id path int true "Endpoint ID"
// @Param request body validation.SubmissionInput true "Endpoint fields"
// @Success 200 {object} EndpointResponse
// @Failure 400 {object} apperror.Error "Validation error"
// @Failure 403 {object} apperror.Error "Admin access required"
// @Failure 404 {object} map[string]string "Endpoint not found"
// @Security BearerAuth
// @Router /admin/endpoints/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endpoint ID"})
		return
	}

	var in validation.SubmissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperror.Write(c, apperror.ValidationField("root", "Invalid request body"))
		return
	}

	sub, verr := validation.ValidateSubmission(in)
	if verr != nil {
		apperror.Write(c, verr)
		return
	}

	ep, uerr := h.repo.Update(uint(id), sub)
	if uerr != nil {
		apperror.Write(c, uerr)
		return
	}
	if ep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	c.JSON(http.StatusOK, ToResponse(*ep))
}

// Delete removes an endpoint
// @Summary Delete an endpoint (admin)
// @Tags endpoints
// @Produce json
// @Param id path int true "Endpoint ID"
// @Success 200 {object} map[string]string "Endpoint deleted"
// @Failure 403 {object} apperror.Error "Admin access required"
// @Failure 404 {object} map[string]string "Endpoint not found"
// @Security BearerAuth
// @Router /admin/endpoints/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endpoint ID"})
		return
	}

	deleted, derr := h.repo.Delete(uint(id))
	if derr != nil {
		apperror.Write(c, derr)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Endpoint deleted"})
}

// RegisterRoutes registers the public catalog routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/endpoints", h.List)
	rg.GET("/endpoints/:id", h.Get)
}

// RegisterAdminRoutes registers the admin mutation routes
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/endpoints", h.Create)
	rg.PUT("/endpoints/:id", h.Update)
	rg.DELETE("/endpoints/:id", h.Delete)
}
