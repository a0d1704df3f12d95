package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"finance-tracker/internal/middleware"
	"finance-tracker/internal/models"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler produces CSV/XLSX downloads of the filtered transaction
// list. Labels follow the user's language preference.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

type exportLabels struct {
	header  []string
	income  string
	expense string
}

var exportLabelsByLang = map[string]exportLabels{
	"pt": {
		header:  []string{"Data", "Descrição", "Categoria", "Tipo", "Valor"},
		income:  "Receita",
		expense: "Despesa",
	},
	"en": {
		header:  []string{"Date", "Description", "Category", "Type", "Amount"},
		income:  "Income",
		expense: "Expense",
	},
}

// load fetches the filtered rows plus the labels/currency from the profile.
// An empty result is rejected: no file is produced.
func (h *ExportHandler) load(c *gin.Context) ([]models.Transaction, exportLabels, string, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return nil, exportLabels{}, "", false
	}

	base, ok := transactionFilter(c, h.DB, user.ID)
	if !ok {
		return nil, exportLabels{}, "", false
	}

	var transactions []models.Transaction
	if err := base.Order("date DESC, id DESC").Find(&transactions).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return nil, exportLabels{}, "", false
	}
	if len(transactions) == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "no transactions to export in the selected period")
		return nil, exportLabels{}, "", false
	}

	language, currency := "pt", "EUR"
	var profile models.UserProfile
	if err := h.DB.Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
		if profile.Language != "" {
			language = profile.Language
		}
		if profile.PreferredCurrency != "" {
			currency = profile.PreferredCurrency
		}
	}

	labels, ok := exportLabelsByLang[language]
	if !ok {
		labels = exportLabelsByLang["en"]
	}
	return transactions, labels, currency, true
}

func exportRow(t *models.Transaction, labels exportLabels, currency string) []string {
	typeText := labels.expense
	if t.Type == models.KindIncome {
		typeText = labels.income
	}
	return []string{
		t.Date.Format("02/01/2006"),
		t.Description,
		t.Category,
		typeText,
		util.FormatCurrency(t.AmountCents, currency),
	}
}

// CSV streams the transactions as a CSV download.
func (h *ExportHandler) CSV(c *gin.Context) {
	transactions, labels, currency, ok := h.load(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.csv\"",
		time.Now().Format("2006-01-02")))

	// UTF-8 BOM so Excel decodes accented labels
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	writer.Write(labels.header)
	for i := range transactions {
		writer.Write(exportRow(&transactions[i], labels, currency))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		// headers are already out; a truncated download can only be recorded
		c.Error(err)
	}
}

// XLSX streams the transactions as a spreadsheet.
func (h *ExportHandler) XLSX(c *gin.Context) {
	transactions, labels, currency, ok := h.load(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	sheetName := "Transactions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create sheet")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, label := range labels.header {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, label)
	}

	for idx := range transactions {
		row := idx + 2
		for col, value := range exportRow(&transactions[idx], labels, currency) {
			cell := fmt.Sprintf("%c%d", 'A'+col, row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 30)
	f.SetColWidth(sheetName, "C", "C", 15)
	f.SetColWidth(sheetName, "D", "D", 10)
	f.SetColWidth(sheetName, "E", "E", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"",
		time.Now().Format("2006-01-02")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
