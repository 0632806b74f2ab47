package controllers

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/PrayerWall/initializers"
	"github.com/PrayerWall/models"
)

const tokenLifetime = 24 * time.Hour

func AdminLogin(c *gin.Context) {
	var login models.AdminLogin

	if err := c.ShouldBindJSON(&login); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var admin models.AdminUser
	found, err := initializers.DB.From("admin_user").
		Where(goqu.C("username").Eq(strings.ToLower(strings.TrimSpace(login.Username)))).
		ScanStructContext(c.Request.Context(), &admin)
	if err != nil {
		zap.S().Errorw("failed to load administrator", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !found || !admin.Is_Active {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(login.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	generateToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   admin.Admin_User_ID,
		"exp":  time.Now().Add(tokenLifetime).Unix(),
		"role": admin.Role,
	})

	token, err := generateToken.SignedString([]byte(os.Getenv("SECRET")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in successfully.",
		"token":   token,
		"admin":   admin,
	})
}

type TokenRegistrar interface {
	RegisterToken(ctx context.Context, adminUserID int, req models.PushTokenRequest) error
}

// StorePushToken registers the caller's device for new-request alerts.
func StorePushToken(c *gin.Context) {
	var req models.PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := app.PushTokens.RegisterToken(c.Request.Context(), currentAdmin(c).Admin_User_ID, req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Push token stored successfully."})
}
