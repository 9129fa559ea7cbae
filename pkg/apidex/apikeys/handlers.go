// Package apikeys gives programmatic submitters (CI pipelines, scrapers,
// registry sync jobs) long-lived credentials as an alternative to the
// browser JWT flow. Keys are random, shown once, and stored only as a
// SHA-256 hash; the stored prefix exists purely so users can tell their
// keys apart in listings.
package apikeys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apidex/apidex/pkg/apidex/auth"
	"github.com/apidex/apidex/pkg/apidex/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	// KeyLength is the random key size in bytes; the issued key is its
	// hex encoding, twice as long
	KeyLength = 32
	// KeyPrefixLength is how many leading characters are kept in the
	// clear for identification
	KeyPrefixLength = 8
)

// Handler handles API key management for the authenticated account
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new API keys handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// APIKeyResponse represents an API key in listings. The key itself is
// never part of it.
type APIKeyResponse struct {
	ID          uint       `json:"id"`
	KeyPrefix   string     `json:"key_prefix"`
	Description string     `json:"description"`
	LastUsedAt  *time.Time `json:"last_used_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toResponse(key models.APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:          key.ID,
		KeyPrefix:   key.KeyPrefix,
		Description: key.Description,
		LastUsedAt:  key.LastUsedAt,
		CreatedAt:   key.CreatedAt,
	}
}

// CreateAPIKeyRequest carries the optional label for a new key
type CreateAPIKeyRequest struct {
	Description string `json:"description"`
}

// CreateAPIKeyResponse carries the full key. This is the only response
// that ever contains it.
type CreateAPIKeyResponse struct {
	ID          uint      `json:"id"`
	Key         string    `json:"key"`
	KeyPrefix   string    `json:"key_prefix"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func generateAPIKey() (string, error) {
	raw := make([]byte, KeyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func hashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Create issues a new API key for the caller
// @Summary Create an API key
// @Description Issue a key for programmatic submission; the key is returned once and never again
// @Tags api-keys
// @Accept json
// @Produce json
// @Param request body CreateAPIKeyRequest true "Key label"
// @Success 201 {object} CreateAPIKeyResponse
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /api-keys [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An empty body is fine; the label is optional
		req.Description = ""
	}

	key, err := generateAPIKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate API key"})
		return
	}

	record := models.APIKey{
		UserID:      userID,
		KeyHash:     hashAPIKey(key),
		KeyPrefix:   key[:KeyPrefixLength],
		Description: req.Description,
	}
	if err := h.db.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create API key"})
		return
	}

	c.JSON(http.StatusCreated, CreateAPIKeyResponse{
		ID:          record.ID,
		Key:         key,
		KeyPrefix:   record.KeyPrefix,
		Description: record.Description,
		CreatedAt:   record.CreatedAt,
	})
}

// List returns the caller's keys, newest first
// @Summary List own API keys
// @Tags api-keys
// @Produce json
// @Success 200 {array} APIKeyResponse
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /api-keys [get]
func (h *Handler) List(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var keys []models.APIKey
	if err := h.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&keys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch API keys"})
		return
	}

	responses := make([]APIKeyResponse, len(keys))
	for i, key := range keys {
		responses[i] = toResponse(key)
	}
	c.JSON(http.StatusOK, responses)
}

// Delete revokes one of the caller's keys. Keys belonging to other
// accounts are indistinguishable from missing ones.
// @Summary Revoke an API key
// @Tags api-keys
// @Produce json
// @Param id path int true "API key ID"
// @Success 200 {object} map[string]string "API key deleted"
// @Failure 404 {object} map[string]string "API key not found"
// @Security BearerAuth
// @Router /api-keys/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	keyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid API key ID"})
		return
	}

	var key models.APIKey
	if err := h.db.Where("id = ? AND user_id = ?", keyID, userID).First(&key).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}

	if err := h.db.Delete(&key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete API key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "API key deleted"})
}

// ValidateAPIKey resolves a presented key to its record via the stored hash
func ValidateAPIKey(db *gorm.DB, key string) (*models.APIKey, error) {
	var record models.APIKey
	if err := db.Where("key_hash = ?", hashAPIKey(key)).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateLastUsed stamps last_used_at. Best effort; submission handling
// never waits on it.
func UpdateLastUsed(db *gorm.DB, apiKeyID uint) {
	db.Model(&models.APIKey{}).Where("id = ?", apiKeyID).Update("last_used_at", time.Now())
}

// setCaller records the resolved identity for downstream handlers
func setCaller(c *gin.Context, userID uint, email, role string) {
	c.Set(auth.ContextKeyUserID, userID)
	c.Set(auth.ContextKeyEmail, email)
	c.Set(auth.ContextKeyRole, role)
}

// CombinedAuthMiddleware authenticates "Bearer <credential>" where the
// credential is either a JWT or an API key. JWTs contain dots, hex keys
// don't; that distinction picks the verification path.
func CombinedAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}
		credential := parts[1]

		if strings.Contains(credential, ".") {
			claims, err := auth.ValidateToken(credential)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				c.Abort()
				return
			}
			setCaller(c, claims.UserID, claims.Email, claims.Role)
			c.Next()
			return
		}

		key, err := ValidateAPIKey(db, credential)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}
		go UpdateLastUsed(db, key.ID)

		// The key carries no role; resolve the owning account
		var user models.User
		if err := db.First(&user, key.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			c.Abort()
			return
		}
		setCaller(c, key.UserID, user.Email, string(user.Role))

		c.Next()
	}
}

// RegisterRoutes registers API key routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/api-keys", h.Create)
	rg.GET("/api-keys", h.List)
	rg.DELETE("/api-keys/:id", h.Delete)
}
