package admin

import (
	"net/http"
	"strconv"

	"github.com/apidex/apidex/pkg/apidex/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles admin requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new admin handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// UserResponse represents user data in admin responses
type UserResponse struct {
	ID              uint   `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	CreatedAt       string `json:"created_at"`
	SubmissionCount int64  `json:"submission_count"`
}

// UpdateUserRequest represents the request to update a user
type UpdateUserRequest struct {
	Name *string `json:"name"`
	Role *string `json:"role"`
}

// StatsResponse represents system statistics
type StatsResponse struct {
	PendingRequests int64 `json:"pending_requests"`
	TotalEndpoints  int64 `json:"total_endpoints"`
	ActiveEndpoints int64 `json:"active_endpoints"`
	TotalUsers      int64 `json:"total_users"`
	AdminUsers      int64 `json:"admin_users"`
	TotalTags       int64 `json:"total_tags"`
}

// Stats returns dashboard statistics
// @Summary Registry statistics (admin)
// @Tags admin
// @Produce json
// @Success 200 {object} StatsResponse
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	var stats StatsResponse
	h.db.Model(&models.EndpointRequest{}).Where("review_status = ?", models.ReviewStatusPending).Count(&stats.PendingRequests)
	h.db.Model(&models.Endpoint{}).Count(&stats.TotalEndpoints)
	h.db.Model(&models.Endpoint{}).Where("status = ?", models.EndpointStatusActive).Count(&stats.ActiveEndpoints)
	h.db.Model(&models.User{}).Count(&stats.TotalUsers)
	h.db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&stats.AdminUsers)
	h.db.Model(&models.Tag{}).Count(&stats.TotalTags)

	c.JSON(http.StatusOK, stats)
}

// ListUsers returns all users
// @Summary List users (admin)
// @Tags admin
// @Produce json
// @Param q query string false "Search by email or name"
// @Param role query string false "Filter by role"
// @Success 200 {array} UserResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	var users []models.User

	query := h.db.Order("created_at DESC")

	// Optional search by email or name
	if search := c.Query("q"); search != "" {
		query = query.Where("email LIKE ? OR name LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	// Optional filter by role
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	if err := query.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	responses := make([]UserResponse, len(users))
	for i, user := range users {
		var submissionCount int64
		h.db.Model(&models.EndpointRequest{}).Where("submitted_by_id = ?", user.ID).Count(&submissionCount)

		responses[i] = UserResponse{
			ID:              user.ID,
			Email:           user.Email,
			Name:            user.Name,
			Role:            string(user.Role),
			CreatedAt:       user.CreatedAt.Format("2006-01-02T15:04:05Z"),
			SubmissionCount: submissionCount,
		}
	}

	c.JSON(http.StatusOK, responses)
}

// UpdateUser changes a user's name or role
// @Summary Update a user (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "Fields to update"
// @Success 200 {object} UserResponse
// @Failure 400 {object} map[string]string "Invalid role"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		role := models.UserRole(*req.Role)
		if role != models.UserRoleAdmin && role != models.UserRoleUser {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be 'admin' or 'user'"})
			return
		}
		user.Role = role
	}

	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z"),
	})
}

// RegisterRoutes registers admin routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.Stats)
	rg.GET("/users", h.ListUsers)
	rg.PUT("/users/:id", h.UpdateUser)
}
