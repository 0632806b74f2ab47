package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CheckAdmin must run after CheckAuth. Reviewers are turned away.
func CheckAdmin(c *gin.Context) {
	if !c.GetBool("admin") {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Administrator role required"})
		return
	}
	c.Next()
}
