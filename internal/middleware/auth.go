package middleware

import (
	"net/http"
	"strings"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware validates the JWT, checks the session it is bound to is
// still live, and puts the current user on the gin context.
func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		// 1) Header: Authorization: Bearer xxx
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = parts[1]
			}
		}

		// 2) ?token=xxx for downloads, where custom headers are awkward
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		// 3) Cookie
		if tokenStr == "" {
			if cookie, err := c.Cookie("ft_token"); err == nil {
				tokenStr = cookie
			}
		}

		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please sign in again")
			c.Abort()
			return
		}

		// token must map to a live persisted session (logout revokes it)
		var session models.Session
		if err := db.First(&session, "id = ?", claims.SessionID).Error; err != nil ||
			session.Revoked || session.ExpiresAt.Before(time.Now()) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please sign in again")
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "user not found")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load user")
			}
			c.Abort()
			return
		}

		c.Set("currentUser", &user)
		c.Set("currentSession", &session)
		c.Next()
	}
}

// CurrentUser pulls the authenticated user off the context; handlers behind
// AuthMiddleware can rely on it being present.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get("currentUser")
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// CurrentSession pulls the session the presented token is bound to.
func CurrentSession(c *gin.Context) (*models.Session, bool) {
	v, ok := c.Get("currentSession")
	if !ok {
		return nil, false
	}
	session, ok := v.(*models.Session)
	if !ok || session == nil {
		return nil, false
	}
	return session, true
}
