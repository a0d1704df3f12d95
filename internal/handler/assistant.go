package handler

import (
	"net/http"
	"strings"
	"time"

	"finance-tracker/internal/assistant"
	"finance-tracker/internal/middleware"
	"finance-tracker/internal/models"
	"finance-tracker/internal/stats"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AssistantHandler seeds the hosted model with the user's transactions and
// stats. Assistant failures come back as a fallback payload with HTTP 200 —
// the conversational surface must degrade, never crash.
type AssistantHandler struct {
	DB     *gorm.DB
	Client *assistant.Client
}

func NewAssistantHandler(db *gorm.DB, client *assistant.Client) *AssistantHandler {
	return &AssistantHandler{DB: db, Client: client}
}

// context loads the user's transaction snapshot and derives the stats both
// assistant modes are seeded with.
func (h *AssistantHandler) context(c *gin.Context, userID uint) ([]models.Transaction, stats.DashboardStats, bool) {
	var transactions []models.Transaction
	if err := h.DB.Where("user_id = ?", userID).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return nil, stats.DashboardStats{}, false
	}
	return transactions, stats.Compute(transactions, time.Now()), true
}

// Analyze runs the unsolicited analysis mode.
func (h *AssistantHandler) Analyze(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	transactions, s, ok := h.context(c, user.ID)
	if !ok {
		return
	}

	analysis := h.Client.Analyze(c.Request.Context(), transactions, s)

	util.Success(c, util.Response{
		"insights":        analysis.Insights,
		"recommendations": analysis.Recommendations,
		"alerts":          analysis.Alerts,
	})
}

type chatReq struct {
	Question string `json:"question" binding:"required,max=2000"`
}

// Chat runs the conversational mode.
func (h *AssistantHandler) Chat(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "question is required")
		return
	}

	transactions, s, ok := h.context(c, user.ID)
	if !ok {
		return
	}

	answer := h.Client.Answer(c.Request.Context(), transactions, s, strings.TrimSpace(req.Question))

	util.Success(c, util.Response{"answer": answer})
}
