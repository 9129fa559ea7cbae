package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apidex/apidex/pkg/apidex/auth"
	"github.com/apidex/apidex/pkg/apidex/models"
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

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db)

	admin := r.Group("/api/admin")
	admin.Use(auth.AuthMiddleware(), auth.RequireAdmin())
	handler.RegisterRoutes(admin)

	return r
}

func getAuthHeader(user models.User) string {
	token, _ := auth.GenerateToken(user.ID, user.Email, string(user.Role))
	return "Bearer " + token
}

func TestStats(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com", models.UserRoleAdmin)
	user := createTestUser(t, db, "user@example.com", models.UserRoleUser)

	db.Create(&models.Tag{Name: "Payments", Slug: "payments", Color: "#FF5733"})

	db.Create(&models.EndpointRequest{
		Company: "Acme", Title: "Pending API",
		Protocol: "HTTP", Address: "http://acme.example",
		ReviewStatus: models.ReviewStatusPending, SubmittedByID: user.ID,
	})

	active := models.Endpoint{
		Company: "Acme", Title: "Active API",
		Protocol: "HTTP", Address: "http://acme.example",
		Status: models.EndpointStatusActive, CreatedByID: admin.ID,
	}
	db.Create(&active)
	deprecated := models.Endpoint{
		Company: "Acme", Title: "Old API",
		Protocol: "HTTP", Address: "http://acme.example",
		Status: models.EndpointStatusDeprecated, CreatedByID: admin.ID,
	}
	db.Create(&deprecated)

	req, _ := http.NewRequest("GET", "/api/admin/stats", nil)
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var stats StatsResponse
	json.Unmarshal(resp.Body.Bytes(), &stats)

	if stats.PendingRequests != 1 {
		t.Errorf("Expected 1 pending request, got %d", stats.PendingRequests)
	}
	if stats.TotalEndpoints != 2 {
		t.Errorf("Expected 2 endpoints, got %d", stats.TotalEndpoints)
	}
	if stats.ActiveEndpoints != 1 {
		t.Errorf("Expected 1 active endpoint, got %d", stats.ActiveEndpoints)
	}
	if stats.TotalUsers != 2 {
		t.Errorf("Expected 2 users, got %d", stats.TotalUsers)
	}
	if stats.AdminUsers != 1 {
		t.Errorf("Expected 1 admin, got %d", stats.AdminUsers)
	}
	if stats.TotalTags != 1 {
		t.Errorf("Expected 1 tag, got %d", stats.TotalTags)
	}
}

func TestStatsForbiddenForUser(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "user@example.com", models.UserRoleUser)

	req, _ := http.NewRequest("GET", "/api/admin/stats", nil)
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", resp.Code)
	}
}

func TestListUsers(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com", models.UserRoleAdmin)
	user := createTestUser(t, db, "alice@example.com", models.UserRoleUser)

	db.Create(&models.EndpointRequest{
		Company: "Acme", Title: "API",
		Protocol: "HTTP", Address: "http://acme.example",
		ReviewStatus: models.ReviewStatusPending, SubmittedByID: user.ID,
	})

	req, _ := http.NewRequest("GET", "/api/admin/users", nil)
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var users []UserResponse
	json.Unmarshal(resp.Body.Bytes(), &users)

	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.Email == "alice@example.com" && u.SubmissionCount != 1 {
			t.Errorf("Expected 1 submission for alice, got %d", u.SubmissionCount)
		}
	}
}

func TestListUsersFiltered(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com", models.UserRoleAdmin)
	createTestUser(t, db, "alice@example.com", models.UserRoleUser)
	createTestUser(t, db, "bob@example.com", models.UserRoleUser)

	req, _ := http.NewRequest("GET", "/api/admin/users?q=alice", nil)
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	var users []UserResponse
	json.Unmarshal(resp.Body.Bytes(), &users)
	if len(users) != 1 || users[0].Email != "alice@example.com" {
		t.Errorf("Expected only alice, got %v", users)
	}

	req, _ = http.NewRequest("GET", "/api/admin/users?role=admin", nil)
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp = httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	json.Unmarshal(resp.Body.Bytes(), &users)
	if len(users) != 1 || users[0].Email != "admin@example.com" {
		t.Errorf("Expected only the admin, got %v", users)
	}
}

func TestPromoteUser(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com", models.UserRoleAdmin)
	user := createTestUser(t, db, "alice@example.com", models.UserRoleUser)

	role := "admin"
	body := UpdateUserRequest{Role: &role}
	jsonBody, _ := json.Marshal(body)

	req, _ := http.NewRequest("PUT", fmt.Sprintf("/api/admin/users/%d", user.ID), bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var updated models.User
	db.First(&updated, user.ID)
	if updated.Role != models.UserRoleAdmin {
		t.Errorf("Expected role admin after promotion, got %s", updated.Role)
	}
}

func TestUpdateUserInvalidRole(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	admin := createTestUser(t, db, "admin@example.com", models.UserRoleAdmin)
	user := createTestUser(t, db, "alice@example.com", models.UserRoleUser)

	role := "superuser"
	body := UpdateUserRequest{Role: &role}
	jsonBody, _ := json.Marshal(body)

	req, _ := http.NewRequest("PUT", fmt.Sprintf("/api/admin/users/%d", user.ID), bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}
