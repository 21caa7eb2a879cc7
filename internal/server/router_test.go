package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"autonomo/internal/auth"
	"autonomo/internal/fx"
	"autonomo/internal/models"
)

func setupServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Client{}, &models.Invoice{}, &models.InvoiceItem{}, &models.Expense{}, &models.Reminder{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.9}}`))
	}))
	t.Cleanup(upstream.Close)
	fxc := fx.NewClient(fx.WithPrimaryURL(upstream.URL), fx.WithECBURL(upstream.URL))
	return New(db, fxc), db
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := setupServer(t)
	for _, path := range []string{"/health", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, w.Code)
		}
	}
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	h, _ := setupServer(t)

	// browser gets a redirect to /login
	req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login got %s", loc)
	}

	// API consumer gets 401 JSON
	apiReq := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	apiReq.Header.Set("Accept", "application/json")
	apiW := httptest.NewRecorder()
	h.ServeHTTP(apiW, apiReq)
	if apiW.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", apiW.Code)
	}
}

func TestAuthenticatedFlowThroughRouter(t *testing.T) {
	h, db := setupServer(t)
	user := models.User{Email: "router@test", Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	sess := httptest.NewRecorder()
	auth.CreateSession(sess, user.ID)
	cookie := sess.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var list struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 0 {
		t.Fatalf("expected empty client list, got %d", list.Total)
	}

	rateReq := httptest.NewRequest(http.MethodGet, "/exchange-rate", nil)
	rateReq.Header.Set("Accept", "application/json")
	rateReq.AddCookie(cookie)
	rateW := httptest.NewRecorder()
	h.ServeHTTP(rateW, rateReq)
	if rateW.Code != http.StatusOK {
		t.Fatalf("exchange-rate got %d", rateW.Code)
	}
}

func TestStaleSessionIsCleared(t *testing.T) {
	h, _ := setupServer(t)
	sess := httptest.NewRecorder()
	auth.CreateSession(sess, 999) // no such user
	cookie := sess.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stale session got %d", w.Code)
	}
}
