package icons

import (
	"fmt"
	"net/http"

	"github.com/apidex/apidex/pkg/apidex/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// MaxFileSize is the largest accepted icon upload
	MaxFileSize = 2 * 1024 * 1024 // 2MB
)

// allowedImageTypes maps accepted content types to their file extension
var allowedImageTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/svg+xml": ".svg",
	"image/webp":    ".webp",
}

// Handler handles icon uploads
type Handler struct {
	store Store
}

// NewHandler creates a new icons handler
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// checkUpload validates the upload's size and content type and returns the
// extension to store the object under
func checkUpload(contentType string, size int64) (string, error) {
	if size > MaxFileSize {
		return "", fmt.Errorf("File size must be less than 2MB")
	}
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("File must be PNG, JPG, SVG, or WebP")
	}
	return ext, nil
}

// Upload stores an icon image and returns its public URL
// @Summary Upload an endpoint icon
// @Tags icons
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Icon image (PNG, JPG, SVG or WebP, max 2MB)"
// @Success 201 {object} map[string]string "url"
// @Failure 400 {object} map[string]string "Invalid file"
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /icons [post]
func (h *Handler) Upload(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Icon uploads are not configured"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	ext, cerr := checkUpload(contentType, fileHeader.Size)
	if cerr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": cerr.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	defer file.Close()

	objectName := fmt.Sprintf("%d/%s%s", userID, uuid.NewString(), ext)
	url, err := h.store.Put(c.Request.Context(), objectName, contentType, file, fileHeader.Size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store icon"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// RegisterRoutes registers icon routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/icons", h.Upload)
}
