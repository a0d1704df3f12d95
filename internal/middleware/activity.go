package middleware

import (
	"finance-tracker/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ActivityMiddleware records each authenticated request for the activity
// view. Write failures are swallowed; auditing never breaks a request.
func ActivityMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		user, ok := CurrentUser(c)
		if !ok {
			return
		}

		entry := models.ActivityLog{
			UserID:    user.ID,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		_ = db.Create(&entry).Error
	}
}
