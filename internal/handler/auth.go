package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"finance-tracker/internal/middleware"
	"finance-tracker/internal/models"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Bounded retry for the login storage round trip: retried only on a
// storage/transport failure, never on credential rejection.
const (
	loginMaxRetries = 3
	loginRetryDelay = time.Second
)

// AuthHandler serves sign-up, sign-in, sign-out and password recovery.
type AuthHandler struct {
	DB         *gorm.DB
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	ResetTTL   time.Duration
}

func NewAuthHandler(db *gorm.DB, jwtSecret string, ttlHours, bcryptCost, resetMinutes int) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = 12
	}
	if resetMinutes <= 0 {
		resetMinutes = 60
	}
	return &AuthHandler{
		DB:         db,
		JWTSecret:  jwtSecret,
		TokenTTL:   time.Duration(ttlHours) * time.Hour,
		BcryptCost: bcryptCost,
		ResetTTL:   time.Duration(resetMinutes) * time.Minute,
	}
}

// ---------- sign up ----------

type registerReq struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required,max=64"`
	LastName        string `json:"last_name" binding:"required,max=64"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := util.ValidateEmail(req.Email); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := util.ValidatePassword(req.Password); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if req.Password != req.ConfirmPassword {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "passwords do not match")
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).
		Where("LOWER(email) = ?", req.Email).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to check account")
		return
	}
	if count > 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "an account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.BcryptCost)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to hash password")
		return
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create account")
		return
	}

	profile := models.UserProfile{
		UserID:             user.ID,
		FirstName:          strings.TrimSpace(req.FirstName),
		LastName:           strings.TrimSpace(req.LastName),
		PreferredCurrency:  "EUR",
		Theme:              "light",
		Language:           "pt",
		EmailNotifications: true,
		PushNotifications:  true,
	}
	if err := h.DB.Create(&profile).Error; err != nil {
		// the account exists but its profile row does not: report the
		// partial condition instead of rolling back
		util.Partial(c, "account created, profile setup failed — please log in", util.Response{
			"user": gin.H{"id": user.ID, "email": user.Email},
		})
		return
	}

	util.Success(c, util.Response{
		"message": "account created",
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": profile.FirstName,
			"last_name":  profile.LastName,
		},
	})
}

// ---------- sign in ----------

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	// explicit attempt loop; only a storage failure is retried
	var user models.User
	var lookupErr error
	for attempt := 1; attempt <= loginMaxRetries; attempt++ {
		lookupErr = h.DB.Where("LOWER(email) = ?", req.Email).First(&user).Error
		if lookupErr == nil || lookupErr == gorm.ErrRecordNotFound {
			break
		}
		if attempt < loginMaxRetries {
			time.Sleep(loginRetryDelay)
		}
	}
	if lookupErr == gorm.ErrRecordNotFound {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid email or password")
		return
	}
	if lookupErr != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load account")
		return
	}

	now := time.Now()

	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "account locked, try again later")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		// wrong password: bump the failure counter, lock after 5
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= 5 {
			lockUntil := now.Add(10 * time.Minute)
			user.LockedUntil = &lockUntil
			user.FailedLoginAttempts = 0
		}
		_ = h.DB.Save(&user).Error
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid email or password")
		return
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginIP = c.ClientIP()
	user.LastLoginAt = &now
	_ = h.DB.Save(&user).Error

	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(h.TokenTTL),
	}
	if err := h.DB.Create(&session).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create session")
		return
	}

	token, err := util.GenerateToken(h.JWTSecret, user.ID, session.ID, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to issue token")
		return
	}

	util.Success(c, util.Response{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// Logout revokes the session behind the presented token.
func (h *AuthHandler) Logout(c *gin.Context) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	if err := h.DB.Model(session).Update("revoked", true).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to sign out")
		return
	}

	util.Success(c, util.Response{"message": "signed out"})
}

// ---------- password recovery ----------

type resetRequestReq struct {
	Email string `json:"email" binding:"required"`
}

// RequestPasswordReset issues a one-shot token. The reply never reveals
// whether the address has an account. There is no mailer; the token is
// logged for the operator to deliver.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req resetRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := h.DB.Where("LOWER(email) = ?", email).First(&user).Error
	if err == nil {
		reset := models.PasswordReset{
			Token:     uuid.NewString(),
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(h.ResetTTL),
		}
		if err := h.DB.Create(&reset).Error; err == nil {
			log.Printf("password reset token for user %d: %s", user.ID, reset.Token)
		}
	}

	util.Success(c, util.Response{
		"message": "if the account exists, reset instructions were sent",
	})
}

type resetConfirmReq struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ResetPassword consumes a reset token and sets the new password. All of the
// user's sessions are revoked.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetConfirmReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	if err := util.ValidatePassword(req.Password); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if req.Password != req.ConfirmPassword {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "passwords do not match")
		return
	}

	var reset models.PasswordReset
	if err := h.DB.First(&reset, "token = ?", req.Token).Error; err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid or expired reset token")
		return
	}
	if reset.UsedAt != nil || reset.ExpiresAt.Before(time.Now()) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid or expired reset token")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.BcryptCost)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to hash password")
		return
	}

	if err := h.DB.Model(&models.User{}).
		Where("id = ?", reset.UserID).
		Update("password_hash", string(hash)).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to update password")
		return
	}

	now := time.Now()
	_ = h.DB.Model(&reset).Update("used_at", &now).Error
	_ = h.DB.Model(&models.Session{}).
		Where("user_id = ?", reset.UserID).
		Update("revoked", true).Error

	util.Success(c, util.Response{
		"message": "password updated, please sign in with the new password",
	})
}
