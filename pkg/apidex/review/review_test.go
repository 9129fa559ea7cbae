package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apidex/apidex/pkg/apidex/apperror"
	"github.com/apidex/apidex/pkg/apidex/auth"
	"github.com/apidex/apidex/pkg/apidex/models"
	"github.com/apidex/apidex/pkg/apidex/requests"
	"github.com/apidex/apidex/pkg/apidex/validation"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) models.User {
	hash, _ := auth.HashPassword("Password1")
	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTestTag(t *testing.T, db *gorm.DB, name, slug string) models.Tag {
	tag := models.Tag{Name: name, Slug: slug, Color: "#336699"}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("Failed to create test tag: %v", err)
	}
	return tag
}

func createPendingRequest(t *testing.T, db *gorm.DB, submitterID uint, tagIDs ...uint) *models.EndpointRequest {
	repo := requests.NewRepository(db)
	sub := validation.Submission{
		Company:     "Acme Corp",
		Title:       "Payments API",
		Description: "Card processing",
		Protocol:    "HTTPS",
		Address:     "https://api.acme.example/v1",
		Ports:       models.Ports{"443", "8443"},
		IconURL:     "https://cdn.example.com/icon.png",
		TagIDs:      tagIDs,
	}
	req, err := repo.Create(&sub, submitterID)
	if err != nil {
		t.Fatalf("Failed to create pending request: %v", err)
	}
	return req
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db)

	admin := r.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	handler.RegisterRoutes(admin)

	return r
}

func getAuthHeader(user models.User) string {
	token, _ := auth.GenerateToken(user.ID, user.Email, string(user.Role))
	return "Bearer " + token
}

func kindOf(t *testing.T, err error) apperror.Kind {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected an apperror, got %T: %v", err, err)
	}
	return appErr.Kind
}

func TestApproveCopiesSubmission(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin@example.com", models.UserRoleAdmin)
	submitter := createTestUser(t, db, "user@example.com", models.UserRoleUser)
	payments := createTestTag(t, db, "Payments", "payments")
	finance := createTestTag(t, db, "Finance", "finance")

	pending := createPendingRequest(t, db, submitter.ID, payments.ID, finance.ID)

	service := NewService(db)
	req, ep, err := service.Approve(pending.ID, admin.ID)
	if err != nil {
		t.Fatalf("Failed to approve: %v", err)
	}

	if req.ReviewStatus != models.ReviewStatusApproved {
		t.Errorf("Expected status approved, got %s", req.ReviewStatus)
	}
	if req.ReviewedByID == nil || *req.ReviewedByID != admin.ID {
		t.Errorf("Expected reviewer %d, got %v", admin.ID, req.ReviewedByID)
	}
	if req.ReviewedAt == nil {
		t.Error("Expected reviewed time to be set")
	}

	// The published endpoint mirrors the submission exactly
	if ep.Company != "Acme Corp" || ep.Title != "Payments API" {
		t.Errorf("Endpoint fields mismatch: %+v", ep)
	}
	if ep.Description != "Card processing" || ep.Protocol != "HTTPS" {
		t.Errorf("Endpoint fields mismatch: %+v", ep)
	}
	if ep.Address != "https://api.acme.example/v1" || ep.IconURL != "https://cdn.example.com/icon.png" {
		t.Errorf("Endpoint fields mismatch: %+v", ep)
	}
	if len(ep.Ports) != 2 || ep.Ports[0] != "443" {
		t.Errorf("Expected ports copied, got %v", ep.Ports)
	}
	if ep.Status != models.EndpointStatusActive {
		t.Errorf("Expected published endpoint active, got %s", ep.Status)
	}
	if len(ep.Tags) != 2 {
		t.Errorf("Expected 2 tags copied, got %d", len(ep.Tags))
	}

	var stored models.Endpoint
	if err := db.Preload("Tags").First(&stored, ep.ID).Error; err != nil {
		t.Fatalf("Expected endpoint persisted: %v", err)
	}
	if len(stored.Tags) != 2 {
		t.Errorf("Expected 2 tags persisted, got %d", len(stored.Tags))
	}
}

func TestApproveTwiceFails(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin@example.com", models.UserRoleAdmin)
	submitter := createTestUser(t, db, "user@example.com", models.UserRoleUser)
	tag := createTestTag(t, db, "Payments", "payments")

	pending := createPendingRequest(t, db, submitter.ID, tag.ID)

	service := NewService(db)
	if _, _, err := service.Approve(pending.ID, admin.ID); err != nil {
		t.Fatalf("First approve failed: %v", err)
	}

	_, _, err := service.Approve(pending.ID, admin.ID)
	if err == nil {
		t.Fatal("Expected second approve to fail")
	}
	if kindOf(t, err) != apperror.KindInvalidState {
		t.Errorf("Expected invalid_state, got %s", kindOf(t, err))
	}

	// Exactly one endpoint, no matter how often approval is retried
	var count int64
	db.Model(&models.Endpoint{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected exactly 1 endpoint, got %d", count)
	}
}

func TestRejectThenApproveFails(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin@example.com", models.UserRoleAdmin)
	submitter := createTestUser(t, db, "user@example.com", models.UserRoleUser)
	tag := createTestTag(t, db, "Payments", "payments")

	pending := createPendingRequest(t, db, submitter.ID, tag.ID)

	service := NewService(db)
	if _, err := service.Reject(pending.ID, admin.ID); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	_, _, err := service.Approve(pending.ID, admin.ID)
	if err == nil {
		t.Fatal("Expected approve after reject to fail")
	}
	if kindOf(t, err) != apperror.KindInvalidState {
		t.Errorf("Expected invalid_state, got %s", kindOf(t, err))
	}
}

func TestRejectCreatesNoEndpoint(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin@example.com", models.UserRoleAdmin)
	submitter := createTestUser(t, db, "user@example.com", models.UserRoleUser)
	tag := createTestTag(t, db, "Payments", "payments")

	pending := createPendingRequest(t, db, submitter.ID, tag.ID)

	service := NewService(db)
	req, err := service.Reject(pending.ID, admin.ID)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	if req.ReviewStatus != models.ReviewStatusRejected {
		t.Errorf("Expected status rejected, got %s", req.ReviewStatus)
	}
	if req.ReviewedByID == nil || *req.ReviewedByID != admin.ID {
		t.Errorf("Expected reviewer %d, got %v", admin.ID, req.ReviewedByID)
	}

	var count int64
	db.Model(&models.Endpoint{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no endpoint after reject, got %d", count)
	}

	// The rejected submission stays visible to its submitter
	var stored models.EndpointRequest
	if err := db.First(&stored, pending.ID).Error; err != nil {
		t.Fatalf("Expected rejected submission to survive: %v", err)
	}
}

func TestNonAdminCannotReview(t *testing.T) {
	db := setupTestDB(t)
	submitter := createTestUser(t, db, "user@example.com", models.UserRoleUser)
	tag := createTestTag(t, db, "Payments", "payments")

	pending := createPendingRequest(t, db, submitter.ID, tag.ID)

	service := NewService(db)
	_, _, err := service.Approve(pending.ID, submitter.ID)
	if err == nil {
		t.Fatal("Expected approve by non-admin to fail")
	}
	if kindOf(t, err) != apperror.KindAuthorization {
		t.Errorf("Expected authorization, got %s", kindOf(t, err))
	}

	// Nothing changed: still pending, no endpoint
	var stored models.EndpointRequest
	db.First(&stored, pending.ID)
	if stored.ReviewStatus != models.ReviewStatusPending {
		t.Errorf("Expected submission still pending, got %s", stored.ReviewStatus)
	}
	var count int64
	db.Model(&models.Endpoint{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no endpoint, got %d", count)
	}
}

func TestForgedAdminClaimIsRechecked(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	submitter := createTestUser(t, db, "user@example.com", models.UserRoleUser)
	tag := createTestTag(t, db, "Payments", "payments")

	pending := createPendingRequest(t, db, submitter.ID, tag.ID)

	// Token claims admin but the role store says user; the store wins
	token, _ := auth.GenerateToken(submitter.ID, submitter.Email, "admin")

	req, _ := http.NewRequest("POST", fmt.Sprintf("/api/admin/requests/%d/approve", pending.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestApproveUnknownRequest(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin@example.com", models.UserRoleAdmin)

	service := NewService(db)
	_, _, err := service.Approve(999, admin.ID)
	if err == nil {
		t.Fatal("Expected approve of unknown request to fail")
	}
	if kindOf(t, err) != apperror.KindInvalidState {
		t.Errorf("Expected invalid_state, got %s", kindOf(t, err))
	}
}

func TestListPendingQueue(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com", models.UserRoleAdmin)
	submitter := createTestUser(t, db, "user@example.com", models.UserRoleUser)
	tag := createTestTag(t, db, "Payments", "payments")

	createPendingRequest(t, db, submitter.ID, tag.ID)
	reviewed := createPendingRequest(t, db, submitter.ID, tag.ID)
	service := NewService(db)
	if _, err := service.Reject(reviewed.ID, admin.ID); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	req, _ := http.NewRequest("GET", "/api/admin/requests", nil)
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var queue []requests.RequestResponse
	json.Unmarshal(resp.Body.Bytes(), &queue)

	if len(queue) != 1 {
		t.Errorf("Expected 1 pending submission in queue, got %d", len(queue))
	}
}

func TestApproveOverHTTP(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com", models.UserRoleAdmin)
	submitter := createTestUser(t, db, "user@example.com", models.UserRoleUser)
	tag := createTestTag(t, db, "Payments", "payments")

	pending := createPendingRequest(t, db, submitter.ID, tag.ID)

	req, _ := http.NewRequest("POST", fmt.Sprintf("/api/admin/requests/%d/approve", pending.ID), nil)
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var decision DecisionResponse
	json.Unmarshal(resp.Body.Bytes(), &decision)

	if decision.Request.ReviewStatus != "approved" {
		t.Errorf("Expected approved, got %s", decision.Request.ReviewStatus)
	}
	if decision.Endpoint == nil {
		t.Fatal("Expected the published endpoint in the response")
	}
	if decision.Endpoint.Title != "Payments API" {
		t.Errorf("Expected 'Payments API', got %s", decision.Endpoint.Title)
	}

	// A second approve over HTTP reports the conflict
	retry := httptest.NewRecorder()
	retryReq, _ := http.NewRequest("POST", fmt.Sprintf("/api/admin/requests/%d/approve", pending.ID), nil)
	retryReq.Header.Set("Authorization", getAuthHeader(admin))
	router.ServeHTTP(retry, retryReq)

	if retry.Code != http.StatusConflict {
		t.Errorf("Expected status 409 on retry, got %d", retry.Code)
	}
}
