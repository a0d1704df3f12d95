package handler

import (
	"net/http"
	"strings"

	"finance-tracker/internal/middleware"
	"finance-tracker/internal/models"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func profileView(user *models.User, p *models.UserProfile) gin.H {
	return gin.H{
		"id":                  user.ID,
		"email":               user.Email,
		"first_name":          p.FirstName,
		"last_name":           p.LastName,
		"preferred_currency":  p.PreferredCurrency,
		"theme":               p.Theme,
		"language":            p.Language,
		"email_notifications": p.EmailNotifications,
		"push_notifications":  p.PushNotifications,
		"last_login_at":       user.LastLoginAt,
		"created_at":          user.CreatedAt,
	}
}

// GetMe returns the signed-in user with their profile preferences.
func GetMe(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
			return
		}

		var profile models.UserProfile
		if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load profile")
				return
			}
			// account exists without a profile row (partial sign-up);
			// serve defaults so the client can still render
			profile = models.UserProfile{UserID: user.ID, PreferredCurrency: "EUR", Theme: "light", Language: "pt"}
		}

		util.Success(c, util.Response{"user": profileView(user, &profile)})
	}
}

type updateProfileReq struct {
	FirstName          string `json:"first_name" binding:"max=64"`
	LastName           string `json:"last_name" binding:"max=64"`
	PreferredCurrency  string `json:"preferred_currency" binding:"omitempty,len=3"`
	Theme              string `json:"theme" binding:"omitempty,oneof=light dark"`
	Language           string `json:"language" binding:"omitempty,oneof=pt en"`
	EmailNotifications *bool  `json:"email_notifications"`
	PushNotifications  *bool  `json:"push_notifications"`
}

// UpdateProfile updates names and display preferences. A missing profile row
// is created on the way, healing a partial sign-up.
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
			return
		}

		var req updateProfileReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
			return
		}

		var profile models.UserProfile
		err := db.Where("user_id = ?", user.ID).First(&profile).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load profile")
			return
		}
		if err == gorm.ErrRecordNotFound {
			profile = models.UserProfile{
				UserID:             user.ID,
				PreferredCurrency:  "EUR",
				Theme:              "light",
				Language:           "pt",
				EmailNotifications: true,
				PushNotifications:  true,
			}
		}

		if req.FirstName != "" {
			profile.FirstName = strings.TrimSpace(req.FirstName)
		}
		if req.LastName != "" {
			profile.LastName = strings.TrimSpace(req.LastName)
		}
		if req.PreferredCurrency != "" {
			profile.PreferredCurrency = strings.ToUpper(req.PreferredCurrency)
		}
		if req.Theme != "" {
			profile.Theme = req.Theme
		}
		if req.Language != "" {
			profile.Language = req.Language
		}
		if req.EmailNotifications != nil {
			profile.EmailNotifications = *req.EmailNotifications
		}
		if req.PushNotifications != nil {
			profile.PushNotifications = *req.PushNotifications
		}

		if err := db.Save(&profile).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save profile")
			return
		}

		util.Success(c, util.Response{"user": profileView(user, &profile)})
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword verifies the old password before setting the new one.
func ChangePassword(db *gorm.DB, bcryptCost int) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
			return
		}

		var req changePasswordReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "current password is incorrect")
			return
		}

		if err := util.ValidatePassword(req.NewPassword); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to hash password")
			return
		}

		if err := db.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to update password")
			return
		}

		util.Success(c, util.Response{
			"message": "password changed, use the new password on next sign-in",
		})
	}
}
