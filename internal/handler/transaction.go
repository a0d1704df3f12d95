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

// TransactionHandler serves the income/expense records.
type TransactionHandler struct {
	DB       *gorm.DB
	PageSize int
}

func NewTransactionHandler(db *gorm.DB, pageSize int) *TransactionHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &TransactionHandler{DB: db, PageSize: pageSize}
}

// ---------- request/response shapes ----------

type transactionReq struct {
	Description string `json:"description" binding:"required,max=255"`
	Type        string `json:"type" binding:"required,oneof=income expense"`
	Category    string `json:"category" binding:"required,max=64"`
	Amount      string `json:"amount" binding:"required"`
	Date        string `json:"date" binding:"required"`
}

type transactionResp struct {
	ID          uint      `json:"id"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTransactionResp(t *models.Transaction) transactionResp {
	return transactionResp{
		ID:          t.ID,
		Description: t.Description,
		Type:        t.Type,
		Category:    t.Category,
		AmountCents: t.AmountCents,
		Amount:      util.FormatAmount(t.AmountCents),
		Date:        t.Date.Format(time.DateOnly),
		CreatedAt:   t.CreatedAt,
	}
}

// validate binds and checks a create/update payload, returning the parsed
// amount and date. The type enum is closed here: anything outside
// income/expense never reaches storage.
func (h *TransactionHandler) validate(c *gin.Context, req *transactionReq) (int64, time.Time, bool) {
	if err := c.ShouldBindJSON(req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return 0, time.Time{}, false
	}

	req.Category = strings.TrimSpace(req.Category)
	if err := util.ValidateCategory(req.Category); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return 0, time.Time{}, false
	}

	cents, err := util.ParseAmount(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid amount")
		return 0, time.Time{}, false
	}
	if err := util.ValidateAmountCents(cents); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return 0, time.Time{}, false
	}

	if err := util.ValidateDate(req.Date); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "date must be YYYY-MM-DD")
		return 0, time.Time{}, false
	}
	date, _ := time.Parse(time.DateOnly, req.Date)

	return cents, date, true
}

// ---------- create ----------

func (h *TransactionHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	var req transactionReq
	cents, date, ok := h.validate(c, &req)
	if !ok {
		return
	}

	t := models.Transaction{
		UserID:      user.ID,
		Description: strings.TrimSpace(req.Description),
		Type:        req.Type,
		Category:    req.Category,
		AmountCents: cents,
		Date:        date,
	}
	if err := h.DB.Create(&t).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save transaction")
		return
	}

	util.Success(c, util.Response{"transaction": toTransactionResp(&t)})
}

// ---------- update ----------

func (h *TransactionHandler) Update(c *gin.Context) {
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

	var req transactionReq
	cents, date, ok := h.validate(c, &req)
	if !ok {
		return
	}

	// rows are only reachable by their owner
	var t models.Transaction
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&t).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "transaction not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transaction")
		}
		return
	}

	t.Description = strings.TrimSpace(req.Description)
	t.Type = req.Type
	t.Category = req.Category
	t.AmountCents = cents
	t.Date = date

	if err := h.DB.Save(&t).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save transaction")
		return
	}

	util.Success(c, util.Response{"transaction": toTransactionResp(&t)})
}

// ---------- delete ----------

func (h *TransactionHandler) Delete(c *gin.Context) {
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

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Transaction{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to delete transaction")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "transaction not found")
		return
	}

	util.Success(c, util.Response{"message": "transaction deleted"})
}

// ---------- list ----------

// transactionFilter builds the filtered query shared by List and the exports.
func transactionFilter(c *gin.Context, db *gorm.DB, userID uint) (*gorm.DB, bool) {
	base := db.Model(&models.Transaction{}).Where("user_id = ?", userID)

	if startStr := c.Query("start"); startStr != "" {
		start, err := time.Parse(time.DateOnly, startStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "start date must be YYYY-MM-DD")
			return nil, false
		}
		base = base.Where("date >= ?", start)
	}
	if endStr := c.Query("end"); endStr != "" {
		end, err := time.Parse(time.DateOnly, endStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "end date must be YYYY-MM-DD")
			return nil, false
		}
		// end is inclusive: accept anything before the next day
		base = base.Where("date < ?", end.AddDate(0, 0, 1))
	}

	if txType := c.Query("type"); txType == models.KindIncome || txType == models.KindExpense {
		base = base.Where("type = ?", txType)
	}
	if category := c.Query("category"); category != "" {
		base = base.Where("category = ?", category)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		base = base.Where("LOWER(description) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	return base, true
}

func (h *TransactionHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if size <= 0 || size > 100 {
		size = h.PageSize
	}
	offset := (page - 1) * size

	orderBy := "date DESC, id DESC"
	switch c.DefaultQuery("sort", "date_desc") {
	case "date_asc":
		orderBy = "date ASC, id ASC"
	case "amount_desc":
		orderBy = "amount_cents DESC, id DESC"
	case "amount_asc":
		orderBy = "amount_cents ASC, id ASC"
	}

	base, ok := transactionFilter(c, h.DB, user.ID)
	if !ok {
		return
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to count transactions")
		return
	}

	var transactions []models.Transaction
	if err := base.Session(&gorm.Session{}).
		Order(orderBy).
		Limit(size).
		Offset(offset).
		Find(&transactions).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return
	}

	items := make([]transactionResp, 0, len(transactions))
	for i := range transactions {
		items = append(items, toTransactionResp(&transactions[i]))
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
