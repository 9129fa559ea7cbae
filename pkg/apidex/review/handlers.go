package review

import (
	"net/http"
	"strconv"

	"github.com/apidex/apidex/pkg/apidex/apperror"
	"github.com/apidex/apidex/pkg/apidex/auth"
	"github.com/apidex/apidex/pkg/apidex/endpoints"
	"github.com/apidex/apidex/pkg/apidex/requests"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles the admin review queue
type Handler struct {
	db      *gorm.DB
	service *Service
	reqs    *requests.Repository
}

// NewHandler creates a new review handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db, service: NewService(db), reqs: requests.NewRepository(db)}
}

// DecisionResponse is returned from an approval; rejections carry no endpoint
type DecisionResponse struct {
	Request  requests.RequestResponse    `json:"request"`
	Endpoint *endpoints.EndpointResponse `json:"endpoint,omitempty"`
}

func (h *Handler) caller(c *gin.Context) (uint, bool) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		apperror.Write(c, apperror.Authentication("Authentication required"))
		return 0, false
	}
	return userID, true
}

// ListPending returns the review queue, oldest submission first
// @Summary List pending submissions (admin)
// @Tags review
// @Produce json
// @Success 200 {array} requests.RequestResponse
// @Failure 403 {object} apperror.Error "Admin access required"
// @Security BearerAuth
// @Router /admin/requests [get]
func (h *Handler) ListPending(c *gin.Context) {
	userID, ok := h.caller(c)
	if !ok {
		return
	}
	if auth.ClassifyCaller(h.db, userID) != auth.ClassificationAdmin {
		apperror.Write(c, apperror.Authorization("Admin access required"))
		return
	}

	reqs, err := h.reqs.ListPending()
	if err != nil {
		apperror.Write(c, err)
		return
	}

	responses := make([]requests.RequestResponse, len(reqs))
	for i, req := range reqs {
		responses[i] = requests.ToResponse(req)
	}
	c.JSON(http.StatusOK, responses)
}

// Approve approves a pending submission and publishes the endpoint
// @Summary Approve a submission (admin)
// @Tags review
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} DecisionResponse
// @Failure 403 {object} apperror.Error "Admin access required"
// @Failure 409 {object} apperror.Error "Already reviewed"
// @Security BearerAuth
// @Router /admin/requests/{id}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	userID, ok := h.caller(c)
	if !ok {
		return
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	req, ep, aerr := h.service.Approve(uint(requestID), userID)
	if aerr != nil {
		apperror.Write(c, aerr)
		return
	}

	epResp := endpoints.ToResponse(*ep)
	c.JSON(http.StatusOK, DecisionResponse{
		Request:  requests.ToResponse(*req),
		Endpoint: &epResp,
	})
}

// Reject rejects a pending submission
// @Summary Reject a submission (admin)
// @Tags review
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} DecisionResponse
// @Failure 403 {object} apperror.Error "Admin access required"
// @Failure 409 {object} apperror.Error "Already reviewed"
// @Security BearerAuth
// @Router /admin/requests/{id}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	userID, ok := h.caller(c)
	if !ok {
		return
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	req, rerr := h.service.Reject(uint(requestID), userID)
	if rerr != nil {
		apperror.Write(c, rerr)
		return
	}

	c.JSON(http.StatusOK, DecisionResponse{Request: requests.ToResponse(*req)})
}

// RegisterRoutes registers review routes on the admin group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/requests", h.ListPending)
	rg.POST("/requests/:id/approve", h.Approve)
	rg.POST("/requests/:id/reject", h.Reject)
}
