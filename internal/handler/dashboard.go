package handler

import (
	"net/http"
	"time"

	"finance-tracker/internal/middleware"
	"finance-tracker/internal/models"
	"finance-tracker/internal/stats"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DashboardHandler serves the derived aggregate figures.
type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

// Stats computes the balance and monthly comparatives. The total balance is
// a running figure, so the whole history is loaded, not a month window.
func (h *DashboardHandler) Stats(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	var transactions []models.Transaction
	if err := h.DB.Where("user_id = ?", user.ID).Find(&transactions).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return
	}

	s := stats.Compute(transactions, time.Now())

	util.Success(c, util.Response{
		"stats": s,
		"formatted": gin.H{
			"total_balance":           util.FormatAmount(s.TotalBalanceCents),
			"monthly_income":          util.FormatAmount(s.MonthlyIncomeCents),
			"monthly_expenses":        util.FormatAmount(s.MonthlyExpensesCents),
			"previous_month_income":   util.FormatAmount(s.PreviousMonthIncomeCents),
			"previous_month_expenses": util.FormatAmount(s.PreviousMonthExpensesCents),
		},
	})
}

type categoryBreakdownItem struct {
	Category    string  `json:"category"`
	AmountCents int64   `json:"amount_cents"`
	Amount      string  `json:"amount"`
	Percent     float64 `json:"percent_of_expense"`
}

// Categories returns the expense breakdown for charting, optionally limited
// to a ?start=YYYY-MM-DD&end=YYYY-MM-DD range.
func (h *DashboardHandler) Categories(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	base := h.DB.Where("user_id = ?", user.ID)
	if startStr := c.Query("start"); startStr != "" {
		start, err := time.Parse(time.DateOnly, startStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "start date must be YYYY-MM-DD")
			return
		}
		base = base.Where("date >= ?", start)
	}
	if endStr := c.Query("end"); endStr != "" {
		end, err := time.Parse(time.DateOnly, endStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "end date must be YYYY-MM-DD")
			return
		}
		base = base.Where("date < ?", end.AddDate(0, 0, 1))
	}

	var transactions []models.Transaction
	if err := base.Find(&transactions).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return
	}

	totals := stats.ExpensesByCategory(transactions)

	var totalCents int64
	for _, ct := range totals {
		totalCents += ct.AmountCents
	}

	items := make([]categoryBreakdownItem, 0, len(totals))
	for _, ct := range totals {
		percent := 0.0
		if totalCents > 0 {
			percent = float64(ct.AmountCents) / float64(totalCents) * 100
		}
		items = append(items, categoryBreakdownItem{
			Category:    ct.Category,
			AmountCents: ct.AmountCents,
			Amount:      util.FormatAmount(ct.AmountCents),
			Percent:     percent,
		})
	}

	util.Success(c, util.Response{
		"categories":          items,
		"total_expense_cents": totalCents,
	})
}
