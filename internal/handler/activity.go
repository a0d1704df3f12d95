package handler

import (
	"net/http"
	"strconv"

	"finance-tracker/internal/middleware"
	"finance-tracker/internal/models"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListActivity returns the user's own recent API activity, newest first.
func ListActivity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
			return
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page <= 0 {
			page = 1
		}
		size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
		if size <= 0 || size > 100 {
			size = 20
		}

		base := db.Model(&models.ActivityLog{}).Where("user_id = ?", user.ID)

		var total int64
		if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to count activity")
			return
		}

		var entries []models.ActivityLog
		if err := base.Session(&gorm.Session{}).
			Order("created_at DESC, id DESC").
			Limit(size).
			Offset((page - 1) * size).
			Find(&entries).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load activity")
			return
		}

		util.Success(c, util.Response{
			"items": entries,
			"total": total,
			"page":  page,
			"size":  size,
		})
	}
}
