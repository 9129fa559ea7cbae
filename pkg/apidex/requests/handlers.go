package requests

import (
	"net/http"
	"strconv"
	"time"

	"github.com/apidex/apidex/pkg/apidex/apperror"
	"github.com/apidex/apidex/pkg/apidex/auth"
	"github.com/apidex/apidex/pkg/apidex/models"
	"github.com/apidex/apidex/pkg/apidex/validation"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles submission requests
type Handler struct {
	db   *gorm.DB
	repo *Repository
}

// NewHandler creates a new submissions handler
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

// RequestResponse represents a submission in API responses
type RequestResponse struct {
	ID            uint          `json:"id"`
	Company       string        `json:"company"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Protocol      string        `json:"protocol"`
	Address       string        `json:"address"`
	Ports         models.Ports  `json:"ports"`
	IconURL       string        `json:"icon_url"`
	ReviewStatus  string        `json:"review_status"`
	SubmittedByID uint          `json:"submitted_by_id"`
	ReviewedByID  *uint         `json:"reviewed_by_id"`
	ReviewedAt    *time.Time    `json:"reviewed_at"`
	Tags          []TagResponse `json:"tags"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
}

// ToResponse converts a submission model to its API representation
func ToResponse(req models.EndpointRequest) RequestResponse {
	tags := make([]TagResponse, len(req.Tags))
	for i, t := range req.Tags {
		tags[i] = TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug, Color: t.Color}
	}
	return RequestResponse{
		ID:            req.ID,
		Company:       req.Company,
		Title:         req.Title,
		Description:   req.Description,
		Protocol:      req.Protocol,
		Address:       req.Address,
		Ports:         req.Ports,
		IconURL:       req.IconURL,
		ReviewStatus:  string(req.ReviewStatus),
		SubmittedByID: req.SubmittedByID,
		ReviewedByID:  req.ReviewedByID,
		ReviewedAt:    req.ReviewedAt,
		Tags:          tags,
		CreatedAt:     req.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:     req.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Submit creates a new pending submission
// @Summary Submit an endpoint for review
// @Description Propose a new registry entry; it stays pending until an admin reviews it
// @Tags requests
// @Accept json
// @Produce json
// @Param request body validation.SubmissionInput true "Submission fields"
// @Success 201 {object} RequestResponse
// @Failure 400 {object} apperror.Error "Validation error"
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /requests [post]
func (h *Handler) Submit(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		apperror.Write(c, apperror.Authentication("Authentication required"))
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

	req, err := h.repo.Create(sub, userID)
	if err != nil {
		apperror.Write(c, err)
		return
	}

	c.JSON(http.StatusCreated, ToResponse(*req))
}

// ListMine returns the caller's own submissions, newest first
// @Summary List own submissions
// @Tags requests
// @Produce json
// @Success 200 {array} RequestResponse
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /requests/mine [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		apperror.Write(c, apperror.Authentication("Authentication required"))
		return
	}

	reqs, err := h.repo.ListBySubmitter(userID)
	if err != nil {
		apperror.Write(c, err)
		return
	}

	responses := make([]RequestResponse, len(reqs))
	for i, req := range reqs {
		responses[i] = ToResponse(req)
	}
	c.JSON(http.StatusOK, responses)
}

// Delete removes the caller's own submission while it is still pending.
// Deleting someone else's submission, or one already reviewed, is a silent
// no-op; the "deleted" flag reports what actually happened.
// @Summary Delete own pending submission
// @Tags requests
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} map[string]bool
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /requests/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		apperror.Write(c, apperror.Authentication("Authentication required"))
		return
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	deleted, derr := h.repo.DeleteIfPending(uint(requestID), userID)
	if derr != nil {
		apperror.Write(c, derr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// RegisterRoutes registers submission routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/requests", h.Submit)
	rg.GET("/requests/mine", h.ListMine)
	rg.DELETE("/requests/:id", h.Delete)
}
