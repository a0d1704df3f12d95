package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/database"
	"finance-tracker/internal/handler"
	"finance-tracker/internal/models"
	"finance-tracker/internal/router"
	"finance-tracker/internal/stats"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// one in-memory database per test
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		JWT:      config.JWTConfig{Secret: "test-secret", ExpireHours: 1},
		Security: config.SecurityConfig{BcryptCost: 4, ResetTokenMinutes: 60},
		App:      config.AppSubConfig{PageSize: 20},
	}
	return router.SetupRouter(cfg, db), db
}

type envelope struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func register(t *testing.T, r *gin.Engine, email string) {
	t.Helper()
	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":            email,
		"password":         "Segura1#",
		"confirm_password": "Segura1#",
		"first_name":       "Ana",
		"last_name":        "Silva",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: status %d, body %s", email, w.Code, w.Body.String())
	}
}

func login(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    email,
		"password": "Segura1#",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", email, w.Code, w.Body.String())
	}
	token, _ := env.Data["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in %s", email, w.Body.String())
	}
	return token
}

func createTransaction(t *testing.T, r *gin.Engine, token, kind, category, amount, date string) {
	t.Helper()
	w, _ := doJSON(t, r, http.MethodPost, "/api/transactions", token, gin.H{
		"description": category + " " + date,
		"type":        kind,
		"category":    category,
		"amount":      amount,
		"date":        date,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create transaction: status %d, body %s", w.Code, w.Body.String())
	}
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	// weak password
	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "a@b.pt", "password": "fraca", "confirm_password": "fraca",
		"first_name": "A", "last_name": "B",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("weak password: status %d, want 400", w.Code)
	}

	// mismatch
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "a@b.pt", "password": "Segura1#", "confirm_password": "Outra1#!",
		"first_name": "A", "last_name": "B",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("password mismatch: status %d, want 400", w.Code)
	}

	// duplicate email, case-insensitive
	register(t, r, "ana@example.pt")
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "ANA@example.pt", "password": "Segura1#", "confirm_password": "Segura1#",
		"first_name": "A", "last_name": "B",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate email: status %d, want 400", w.Code)
	}
}

func TestLoginAndSession(t *testing.T) {
	r, _ := newTestRouter(t)
	register(t, r, "ana@example.pt")

	// wrong password is a credential rejection, not a server error
	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "ana@example.pt", "password": "Errada1#",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status %d, want 401", w.Code)
	}

	token := login(t, r, "ana@example.pt")

	w, env := doJSON(t, r, http.MethodGet, "/api/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("/api/me: status %d", w.Code)
	}
	user, _ := env.Data["user"].(map[string]interface{})
	if user["email"] != "ana@example.pt" {
		t.Errorf("me.email = %v", user["email"])
	}
	if user["preferred_currency"] != "EUR" || user["language"] != "pt" {
		t.Errorf("profile defaults missing: %v", user)
	}

	// logout revokes the session behind the token
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status %d", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodGet, "/api/me", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("me after logout: status %d, want 401", w.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)
	register(t, r, "ana@example.pt")
	token := login(t, r, "ana@example.pt")

	// unknown kind is rejected at write time
	w, _ := doJSON(t, r, http.MethodPost, "/api/transactions", token, gin.H{
		"description": "x", "type": "transfer", "category": "Outros",
		"amount": "10.00", "date": "2025-03-01",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind: status %d, want 400", w.Code)
	}

	createTransaction(t, r, token, "income", "Salário", "1000.00", "2025-03-05")
	createTransaction(t, r, token, "expense", "Habitação", "300.00", "2025-03-10")
	createTransaction(t, r, token, "expense", "Alimentação", "45.50", "2025-03-12")

	// filtered, searched, paginated list with exact total
	w, env := doJSON(t, r, http.MethodGet, "/api/transactions?type=expense&page=1&page_size=1", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	if total, _ := env.Data["total"].(float64); total != 2 {
		t.Errorf("expense total = %v, want 2", env.Data["total"])
	}
	items, _ := env.Data["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("page size 1, got %d items", len(items))
	}

	// case-insensitive substring search on description
	w, env = doJSON(t, r, http.MethodGet, "/api/transactions?search=habita", token, nil)
	if total, _ := env.Data["total"].(float64); total != 1 {
		t.Errorf("search total = %v, want 1", env.Data["total"])
	}

	// update the first item found
	w, env = doJSON(t, r, http.MethodGet, "/api/transactions?category="+url.QueryEscape("Alimentação"), token, nil)
	items, _ = env.Data["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("category filter: %d items", len(items))
	}
	item := items[0].(map[string]interface{})
	id := int(item["id"].(float64))

	w, env = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/transactions/%d", id), token, gin.H{
		"description": "Supermercado", "type": "expense", "category": "Alimentação",
		"amount": "50.00", "date": "2025-03-12",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", w.Code, w.Body.String())
	}
	updated, _ := env.Data["transaction"].(map[string]interface{})
	if updated["amount"] != "50.00" {
		t.Errorf("updated amount = %v", updated["amount"])
	}

	// delete, and again: the second time it is gone
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", id), token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete: status %d", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", id), token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete again: status %d, want 404", w.Code)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	r, _ := newTestRouter(t)
	register(t, r, "ana@example.pt")
	register(t, r, "rui@example.pt")
	tokenA := login(t, r, "ana@example.pt")
	tokenB := login(t, r, "rui@example.pt")

	createTransaction(t, r, tokenA, "expense", "Lazer", "20.00", "2025-03-01")

	// B sees nothing and cannot touch A's row
	_, env := doJSON(t, r, http.MethodGet, "/api/transactions", tokenB, nil)
	if total, _ := env.Data["total"].(float64); total != 0 {
		t.Errorf("user B total = %v, want 0", env.Data["total"])
	}

	_, env = doJSON(t, r, http.MethodGet, "/api/transactions", tokenA, nil)
	items, _ := env.Data["items"].([]interface{})
	id := int(items[0].(map[string]interface{})["id"].(float64))

	w, _ := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", id), tokenB, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-user delete: status %d, want 404", w.Code)
	}
}

func TestDashboardStats(t *testing.T) {
	r, _ := newTestRouter(t)
	register(t, r, "ana@example.pt")
	token := login(t, r, "ana@example.pt")

	// pick dates relative to the wall clock so the windows line up
	firstOfCurrent, _, lastOfPrevious := stats.MonthWindows(time.Now())
	cur := firstOfCurrent.Format(time.DateOnly)
	prev := lastOfPrevious.Format(time.DateOnly)

	createTransaction(t, r, token, "income", "Salário", "1000.00", cur)
	createTransaction(t, r, token, "expense", "Habitação", "300.00", cur)
	createTransaction(t, r, token, "income", "Salário", "900.00", prev)
	createTransaction(t, r, token, "expense", "Habitação", "250.00", prev)

	w, env := doJSON(t, r, http.MethodGet, "/api/dashboard/stats", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status %d", w.Code)
	}
	s, _ := env.Data["stats"].(map[string]interface{})

	checks := map[string]float64{
		"total_balance_cents":           135000,
		"monthly_income_cents":          100000,
		"monthly_expenses_cents":        30000,
		"previous_month_income_cents":   90000,
		"previous_month_expenses_cents": 25000,
	}
	for key, want := range checks {
		if got, _ := s[key].(float64); got != want {
			t.Errorf("stats.%s = %v, want %v", key, s[key], want)
		}
	}

	w, env = doJSON(t, r, http.MethodGet, "/api/dashboard/categories", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("categories: status %d", w.Code)
	}
	categories, _ := env.Data["categories"].([]interface{})
	if len(categories) != 1 {
		t.Fatalf("categories = %v", env.Data["categories"])
	}
	habitacao := categories[0].(map[string]interface{})
	if habitacao["category"] != "Habitação" || habitacao["amount_cents"].(float64) != 55000 {
		t.Errorf("category breakdown = %v", habitacao)
	}
}

func TestGoals(t *testing.T) {
	r, _ := newTestRouter(t)
	register(t, r, "ana@example.pt")
	token := login(t, r, "ana@example.pt")

	w, env := doJSON(t, r, http.MethodPost, "/api/goals", token, gin.H{
		"name": "Férias", "target_amount": "200.00", "current_amount": "50.00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create goal: status %d, body %s", w.Code, w.Body.String())
	}
	goal, _ := env.Data["goal"].(map[string]interface{})
	if progress, _ := goal["progress"].(float64); progress != 25.0 {
		t.Errorf("progress = %v, want 25", goal["progress"])
	}
	id := int(goal["id"].(float64))

	// overshoot stays unclamped
	w, env = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/goals/%d", id), token, gin.H{
		"name": "Férias", "target_amount": "200.00", "current_amount": "250.00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update goal: status %d", w.Code)
	}
	goal, _ = env.Data["goal"].(map[string]interface{})
	if progress, _ := goal["progress"].(float64); progress != 125.0 {
		t.Errorf("progress = %v, want 125", goal["progress"])
	}

	// zero target is rejected at write time
	w, _ = doJSON(t, r, http.MethodPost, "/api/goals", token, gin.H{
		"name": "Inválida", "target_amount": "0.00",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("zero target: status %d, want 400", w.Code)
	}
}

func TestExportCSV(t *testing.T) {
	r, _ := newTestRouter(t)
	register(t, r, "ana@example.pt")
	token := login(t, r, "ana@example.pt")

	// nothing to export: no file, a visible notice instead
	w, _ := doJSON(t, r, http.MethodGet, "/api/export/csv", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty export: status %d, want 400", w.Code)
	}

	createTransaction(t, r, token, "expense", "Transportes", "12.34", "2025-03-02")

	w, _ = doJSON(t, r, http.MethodGet, "/api/export/csv", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: status %d", w.Code)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "\xEF\xBB\xBF") {
		t.Error("export missing UTF-8 BOM")
	}
	if !strings.Contains(body, "Data,Descrição,Categoria,Tipo,Valor") {
		t.Errorf("export header missing: %q", body)
	}
	if !strings.Contains(body, "02/03/2025") || !strings.Contains(body, "Despesa") || !strings.Contains(body, "€12.34") {
		t.Errorf("export row mismatch: %q", body)
	}
}

func TestProfileUpdate(t *testing.T) {
	r, _ := newTestRouter(t)
	register(t, r, "ana@example.pt")
	token := login(t, r, "ana@example.pt")

	w, env := doJSON(t, r, http.MethodPut, "/api/profile", token, gin.H{
		"preferred_currency": "usd",
		"theme":              "dark",
		"language":           "en",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update profile: status %d, body %s", w.Code, w.Body.String())
	}
	user, _ := env.Data["user"].(map[string]interface{})
	if user["preferred_currency"] != "USD" || user["theme"] != "dark" || user["language"] != "en" {
		t.Errorf("profile = %v", user)
	}

	// exports now use English labels and the dollar symbol
	createTransaction(t, r, token, "income", "Salary", "5.00", "2025-01-01")
	w, _ = doJSON(t, r, http.MethodGet, "/api/export/csv", token, nil)
	body := w.Body.String()
	if !strings.Contains(body, "Date,Description,Category,Type,Amount") || !strings.Contains(body, "Income") {
		t.Errorf("localized export mismatch: %q", body)
	}
}

func TestLoginLockout(t *testing.T) {
	r, _ := newTestRouter(t)
	register(t, r, "ana@example.pt")

	for i := 0; i < 5; i++ {
		w, _ := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
			"email": "ana@example.pt", "password": "Errada1#",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("wrong password attempt %d: status %d, want 401", i+1, w.Code)
		}
	}

	// the lock holds even against the correct password
	w, env := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "ana@example.pt", "password": "Segura1#",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("locked account login: status %d, want 401", w.Code)
	}
	if !strings.Contains(env.Message, "locked") {
		t.Errorf("locked account message = %q", env.Message)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	r, db := newTestRouter(t)
	register(t, r, "ana@example.pt")
	oldToken := login(t, r, "ana@example.pt")

	// the reply must not reveal whether the address has an account
	w, env := doJSON(t, r, http.MethodPost, "/api/auth/password-reset", "", gin.H{
		"email": "ghost@example.pt",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("reset request (unknown): status %d", w.Code)
	}
	unknownMsg, _ := env.Data["message"].(string)

	w, env = doJSON(t, r, http.MethodPost, "/api/auth/password-reset", "", gin.H{
		"email": "ana@example.pt",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("reset request (known): status %d", w.Code)
	}
	if msg, _ := env.Data["message"].(string); msg != unknownMsg {
		t.Errorf("reset replies differ by account existence: %q vs %q", msg, unknownMsg)
	}

	// no mailer: pick the issued token up from storage
	var reset models.PasswordReset
	if err := db.First(&reset).Error; err != nil {
		t.Fatalf("load reset token: %v", err)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/password-reset/confirm", "", gin.H{
		"token": reset.Token, "password": "Nova12#!", "confirm_password": "Nova12#!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("reset confirm: status %d, body %s", w.Code, w.Body.String())
	}

	// every pre-reset session is revoked
	w, _ = doJSON(t, r, http.MethodGet, "/api/me", oldToken, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("old session after reset: status %d, want 401", w.Code)
	}

	// the token is one-shot
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/password-reset/confirm", "", gin.H{
		"token": reset.Token, "password": "Outra3#!", "confirm_password": "Outra3#!",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("reused reset token: status %d, want 400", w.Code)
	}

	// old password no longer signs in, the new one does
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "ana@example.pt", "password": "Segura1#",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("old password after reset: status %d, want 401", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "ana@example.pt", "password": "Nova12#!",
	})
	if w.Code != http.StatusOK {
		t.Errorf("new password after reset: status %d, want 200", w.Code)
	}
}

func TestPasswordResetExpiredToken(t *testing.T) {
	r, db := newTestRouter(t)
	register(t, r, "ana@example.pt")

	var user models.User
	if err := db.First(&user, "email = ?", "ana@example.pt").Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	expired := models.PasswordReset{
		Token:     "expired-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("seed expired token: %v", err)
	}

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/password-reset/confirm", "", gin.H{
		"token": expired.Token, "password": "Nova12#!", "confirm_password": "Nova12#!",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expired reset token: status %d, want 400", w.Code)
	}
}

func TestGoalColorPreservedOnUpdate(t *testing.T) {
	r, _ := newTestRouter(t)
	register(t, r, "ana@example.pt")
	token := login(t, r, "ana@example.pt")

	// omitted color falls back to the default
	w, env := doJSON(t, r, http.MethodPost, "/api/goals", token, gin.H{
		"name": "Carro", "target_amount": "100.00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create goal: status %d", w.Code)
	}
	goal, _ := env.Data["goal"].(map[string]interface{})
	if goal["color"] != "bg-blue-500" {
		t.Errorf("default color = %v", goal["color"])
	}

	w, env = doJSON(t, r, http.MethodPost, "/api/goals", token, gin.H{
		"name": "Férias", "target_amount": "200.00", "color": "bg-emerald-500",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create goal: status %d", w.Code)
	}
	goal, _ = env.Data["goal"].(map[string]interface{})
	id := int(goal["id"].(float64))

	// an update without a color keeps the stored one
	w, env = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/goals/%d", id), token, gin.H{
		"name": "Férias", "target_amount": "200.00", "current_amount": "80.00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update goal: status %d", w.Code)
	}
	goal, _ = env.Data["goal"].(map[string]interface{})
	if goal["color"] != "bg-emerald-500" {
		t.Errorf("color after update = %v, want bg-emerald-500", goal["color"])
	}
}

// failingWriter rejects every body write, like a client hanging up mid-download.
type failingWriter struct {
	header http.Header
}

func (w *failingWriter) Header() http.Header       { return w.header }
func (w *failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }
func (w *failingWriter) WriteHeader(int)           {}

func TestExportCSV_WriteFailureRecorded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	user := models.User{Email: "ana@example.pt", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	tx := models.Transaction{
		UserID: user.ID, Description: "Renda", Type: models.KindExpense,
		Category: "Habitação", AmountCents: 30000,
		Date: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&tx).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	c, _ := gin.CreateTestContext(&failingWriter{header: http.Header{}})
	c.Request = httptest.NewRequest(http.MethodGet, "/api/export/csv", nil)
	c.Set("currentUser", &user)

	handler.NewExportHandler(db).CSV(c)

	if len(c.Errors) == 0 {
		t.Error("a failed body write must be recorded on the context")
	}
}
