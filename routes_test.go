package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrayerWall/initializers"
)

func setupTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	originalDB := initializers.DB
	initializers.DB = goqu.New("postgres", db)
	t.Cleanup(func() {
		db.Close()
		initializers.DB = originalDB
	})

	return setupRouter(newApp()), mock
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{name: "metrics are public", method: "GET", path: "/metrics", expectedStatus: http.StatusOK},
		{name: "review queue needs a token", method: "GET", path: "/admin/requests", expectedStatus: http.StatusUnauthorized},
		{name: "approve needs a token", method: "POST", path: "/admin/requests/1/approve", expectedStatus: http.StatusUnauthorized},
		{name: "config needs a token", method: "PUT", path: "/admin/config", body: `{}`, expectedStatus: http.StatusUnauthorized},
		{
			name:           "unknown action type is rejected before any lookup",
			method:         "POST",
			path:           "/requests/prayer_promotion",
			body:           `{"submitterName":"Ruth","submitterEmail":"ruth@example.com","data":{"name":"Ruth"}}`,
			expectedStatus: http.StatusBadRequest,
		},
		{name: "invalid prayer status", method: "GET", path: "/prayers?status=pending", expectedStatus: http.StatusBadRequest},
		{name: "unknown route", method: "GET", path: "/users/me", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mock := setupTestRouter(t)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRoutesReachInstalledServices(t *testing.T) {
	router, mock := setupTestRouter(t)

	mock.ExpectQuery(`SELECT .* FROM "prayer" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"prayer_id"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/prayers/7", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
