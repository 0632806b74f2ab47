package controllers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/PrayerWall/initializers"
	"github.com/PrayerWall/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

// SetupTestDB creates a mock database and sets it as the global DB for testing
func SetupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}

	originalDB := initializers.DB
	initializers.DB = goqu.New("postgres", db)

	cleanup := func() {
		db.Close()
		initializers.DB = originalDB
	}

	return db, mock, cleanup
}

// SetupTestContext creates a test Gin context with a response recorder
func SetupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

// SetAuthenticatedAdmin sets what the CheckAuth middleware would set
func SetAuthenticatedAdmin(c *gin.Context, admin models.AdminUser) {
	c.Set("currentAdmin", admin)
	c.Set("admin", admin.Role == models.AdminRoleAdmin)
}

// JSONRequest attaches a JSON body to the test context
func JSONRequest(c *gin.Context, method, path string, body interface{}) {
	payload, _ := json.Marshal(body)
	c.Request = httptest.NewRequest(method, path, bytes.NewBuffer(payload))
	c.Request.Header.Set("Content-Type", "application/json")
}

func decodeBody(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return response
}

// UseServices installs s for the handlers and restores the previous set when
// the test ends
func UseServices(t *testing.T, s Services) {
	previous := app
	Use(s)
	t.Cleanup(func() {
		Use(previous)
	})
}
