package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"finance-tracker/internal/middleware"
	"finance-tracker/internal/models"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GoalHandler serves the savings goals.
type GoalHandler struct {
	DB *gorm.DB
}

func NewGoalHandler(db *gorm.DB) *GoalHandler {
	return &GoalHandler{DB: db}
}

type goalReq struct {
	Name          string `json:"name" binding:"required,max=128"`
	TargetAmount  string `json:"target_amount" binding:"required"`
	CurrentAmount string `json:"current_amount"`
	Color         string `json:"color" binding:"max=32"`
}

type goalResp struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	TargetCents   int64     `json:"target_cents"`
	TargetAmount  string    `json:"target_amount"`
	CurrentCents  int64     `json:"current_cents"`
	CurrentAmount string    `json:"current_amount"`
	Color         string    `json:"color"`
	Progress      float64   `json:"progress"` // percent, unclamped
	CreatedAt     time.Time `json:"created_at"`
}

func toGoalResp(g *models.FinancialGoal) goalResp {
	return goalResp{
		ID:            g.ID,
		Name:          g.Name,
		TargetCents:   g.TargetCents,
		TargetAmount:  util.FormatAmount(g.TargetCents),
		CurrentCents:  g.CurrentCents,
		CurrentAmount: util.FormatAmount(g.CurrentCents),
		Color:         g.Color,
		Progress:      g.Progress(),
		CreatedAt:     g.CreatedAt,
	}
}

func (h *GoalHandler) parse(c *gin.Context, req *goalReq) (target, current int64, ok bool) {
	if err := c.ShouldBindJSON(req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return 0, 0, false
	}

	target, err := util.ParseAmount(req.TargetAmount)
	if err != nil || target <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "target amount must be a positive value")
		return 0, 0, false
	}

	if req.CurrentAmount != "" {
		current, err = util.ParseAmount(req.CurrentAmount)
		if err != nil || current < 0 {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "current amount must not be negative")
			return 0, 0, false
		}
	}

	return target, current, true
}

func (h *GoalHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	var req goalReq
	target, current, ok := h.parse(c, &req)
	if !ok {
		return
	}

	color := req.Color
	if color == "" {
		color = "bg-blue-500"
	}

	g := models.FinancialGoal{
		UserID:       user.ID,
		Name:         strings.TrimSpace(req.Name),
		TargetCents:  target,
		CurrentCents: current,
		Color:        color,
	}
	if err := h.DB.Create(&g).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save goal")
		return
	}

	util.Success(c, util.Response{"goal": toGoalResp(&g)})
}

// List returns the user's goals in creation order.
func (h *GoalHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	var goals []models.FinancialGoal
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at ASC, id ASC").
		Find(&goals).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load goals")
		return
	}

	items := make([]goalResp, 0, len(goals))
	for i := range goals {
		items = append(items, toGoalResp(&goals[i]))
	}

	util.Success(c, util.Response{"items": items, "total": len(items)})
}

func (h *GoalHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	var req goalReq
	target, current, ok := h.parse(c, &req)
	if !ok {
		return
	}

	var g models.FinancialGoal
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&g).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "goal not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load goal")
		}
		return
	}

	g.Name = strings.TrimSpace(req.Name)
	g.TargetCents = target
	g.CurrentCents = current
	// an omitted color keeps the stored one
	if req.Color != "" {
		g.Color = req.Color
	}

	if err := h.DB.Save(&g).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save goal")
		return
	}

	util.Success(c, util.Response{"goal": toGoalResp(&g)})
}

func (h *GoalHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.FinancialGoal{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to delete goal")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "goal not found")
		return
	}

	util.Success(c, util.Response{"message": "goal deleted"})
}
