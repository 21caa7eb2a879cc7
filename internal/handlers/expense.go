package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"autonomo/internal/billing"
	"autonomo/internal/httpx"
	"autonomo/internal/models"
	"autonomo/internal/services"
)

type ExpenseHandler struct {
	DB    *gorm.DB
	Rates services.RateSource
}

func NewExpenseHandler(db *gorm.DB, rates services.RateSource) *ExpenseHandler {
	return &ExpenseHandler{DB: db, Rates: rates}
}

func (h *ExpenseHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/expenses", h.collection)
	mux.HandleFunc("/expenses/", h.item)
}

func (h *ExpenseHandler) collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *ExpenseHandler) item(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r.URL.Path, "/expenses/")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var exp models.Expense
	if err := h.DB.Where("id = ? AND user_id = ?", id, uid).First(&exp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_expense", nil)
		return
	}
	switch r.Method {
	case http.MethodGet:
		httpx.JSON(w, http.StatusOK, exp)
	case http.MethodDelete:
		if err := h.DB.Delete(&exp).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_expense", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		w.Header().Set("Allow", "GET,DELETE")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *ExpenseHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	dbq := h.DB.Where("user_id = ?", uid)
	if v := r.URL.Query().Get("year"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
			dbq = dbq.Where("date >= ? AND date < ?", from, from.AddDate(1, 0, 0))
		}
	}
	var expenses []models.Expense
	if err := dbq.Order("date desc, id desc").Find(&expenses).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_expenses", nil)
		return
	}
	// Deductible total in EUR feeds the modelo 130 estimate on the page.
	var deductibleEUR int64
	for _, e := range expenses {
		if e.IsDeductible {
			deductibleEUR += e.AmountEURCents
		}
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"items": expenses, "total": len(expenses), "deductible_eur_cents": deductibleEUR,
		})
		return
	}
	renderTemplate(w, r, "expenses", map[string]any{"Expenses": expenses, "DeductibleEURCents": deductibleEUR})
}

type expenseReq struct {
	Date         string `json:"date"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
	VATRateBps   *int   `json:"vat_rate_bps"`
	IsDeductible *bool  `json:"is_deductible"`
	Notes        string `json:"notes"`
}

func (h *ExpenseHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req expenseReq
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
			return
		}
		req.Date = r.FormValue("date")
		req.Description = strings.TrimSpace(r.FormValue("description"))
		req.Category = strings.TrimSpace(r.FormValue("category"))
		req.AmountCents, _ = strconv.ParseInt(r.FormValue("amount_cents"), 10, 64)
		req.Currency = strings.ToUpper(strings.TrimSpace(r.FormValue("currency")))
		req.Notes = strings.TrimSpace(r.FormValue("notes"))
		if v := r.FormValue("vat_rate_bps"); v != "" {
			if bps, err := strconv.Atoi(v); err == nil {
				req.VATRateBps = &bps
			}
		}
		if v := r.FormValue("is_deductible"); v != "" {
			b := v == "1" || v == "true" || v == "on"
			req.IsDeductible = &b
		}
	}
	if req.Description == "" || req.AmountCents <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"description": "required", "amount_cents": "must be positive"})
		return
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}
	if req.Currency != "EUR" && req.Currency != "USD" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"currency": "must be EUR or USD"})
		return
	}
	date := time.Now().UTC()
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"date": "expected YYYY-MM-DD"})
			return
		}
		date = d
	}

	exp := models.Expense{
		UserID: uid, Date: date, Description: req.Description,
		Category: req.Category, AmountCents: req.AmountCents,
		Currency: req.Currency, Notes: req.Notes, IsDeductible: true,
	}
	if req.IsDeductible != nil {
		exp.IsDeductible = *req.IsDeductible
	}
	if req.VATRateBps != nil {
		if *req.VATRateBps < 0 || *req.VATRateBps > 10000 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"vat_rate_bps": "out of range"})
			return
		}
		amount := billing.ApplyRate(exp.AmountCents, *req.VATRateBps)
		exp.VATRateBps = req.VATRateBps
		exp.VATAmountCents = &amount
	}
	// USD expenses are converted at creation and the rate is frozen, same
	// treatment as USD invoices.
	if exp.Currency == "USD" {
		rate := h.Rates.USDToEUR(r.Context())
		exp.ExchangeRate = &rate.Rate
		exp.AmountEURCents = billing.ConvertToEUR(exp.AmountCents, rate.Rate)
	} else {
		exp.AmountEURCents = exp.AmountCents
	}

	if err := h.DB.Create(&exp).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_expense", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, exp)
		return
	}
	http.Redirect(w, r, "/expenses", statusSeeOther)
}
