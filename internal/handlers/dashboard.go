package handlers

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"autonomo/internal/auth"
	"autonomo/internal/httpx"
	"autonomo/internal/models"
)

type DashboardHandler struct{ DB *gorm.DB }

func NewDashboardHandler(db *gorm.DB) *DashboardHandler { return &DashboardHandler{DB: db} }

func (h *DashboardHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", h.index)
	mux.HandleFunc("/dashboard", h.dashboard)
}

func (h *DashboardHandler) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if _, ok := auth.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "index", nil)
}

// dashboardSummary aggregates the year's position in EUR cents. USD
// invoices and expenses contribute their frozen EUR conversion.
type dashboardSummary struct {
	Year                  int   `json:"year"`
	InvoicedEURCents      int64 `json:"invoiced_eur_cents"`
	PaidEURCents          int64 `json:"paid_eur_cents"`
	PendingEURCents       int64 `json:"pending_eur_cents"`
	PendingCount          int   `json:"pending_count"`
	DeductibleEURCents    int64 `json:"deductible_eur_cents"`
	UpcomingReminderCount int   `json:"upcoming_reminder_count"`
}

func (h *DashboardHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	now := time.Now().UTC()
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)

	var invoices []models.Invoice
	if err := h.DB.Preload("Client").Where("user_id = ? AND date >= ?", uid, yearStart).Find(&invoices).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_dashboard", nil)
		return
	}
	summary := dashboardSummary{Year: now.Year()}
	for _, inv := range invoices {
		eur := inv.TotalCents
		if inv.Currency == "USD" {
			if inv.TotalEURCents == nil {
				continue
			}
			eur = *inv.TotalEURCents
		}
		switch inv.Status {
		case models.InvoiceStatusCancelled:
			continue
		case models.InvoiceStatusPaid:
			summary.PaidEURCents += eur
		case models.InvoiceStatusSent, models.InvoiceStatusOverdue:
			summary.PendingEURCents += eur
			summary.PendingCount++
		}
		if inv.Status != models.InvoiceStatusDraft {
			summary.InvoicedEURCents += eur
		}
	}

	var expenses []models.Expense
	if err := h.DB.Where("user_id = ? AND date >= ? AND is_deductible = ?", uid, yearStart, true).Find(&expenses).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_dashboard", nil)
		return
	}
	for _, e := range expenses {
		summary.DeductibleEURCents += e.AmountEURCents
	}

	var upcoming []models.Reminder
	if err := h.DB.Where("user_id = ? AND date >= ? AND completed = ?", uid, now.Truncate(24*time.Hour), false).
		Order("date asc").Limit(5).Find(&upcoming).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_dashboard", nil)
		return
	}
	var upcomingTotal int64
	h.DB.Model(&models.Reminder{}).Where("user_id = ? AND date >= ? AND completed = ?", uid, now.Truncate(24*time.Hour), false).Count(&upcomingTotal)
	summary.UpcomingReminderCount = int(upcomingTotal)

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"summary": summary, "upcoming": upcoming})
		return
	}
	renderTemplate(w, r, "dashboard", map[string]any{"Summary": summary, "Upcoming": upcoming})
}
