package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"autonomo/internal/httpx"
	"autonomo/internal/models"
	"autonomo/internal/services"
	"autonomo/internal/taxcal"
)

type ReminderHandler struct {
	DB  *gorm.DB
	Svc *services.ReminderService
}

func NewReminderHandler(db *gorm.DB, svc *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{DB: db, Svc: svc}
}

func (h *ReminderHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/reminders", h.collection)
	mux.HandleFunc("/reminders/seed", h.seed)
	mux.HandleFunc("/reminders/", h.item)
	mux.HandleFunc("/calendar", h.calendar)
}

func (h *ReminderHandler) collection(w http.ResponseWriter, r *http.Request) {
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

func (h *ReminderHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	dbq := h.DB.Where("user_id = ?", uid)
	if v := r.URL.Query().Get("upcoming"); v == "1" || v == "true" {
		dbq = dbq.Where("date >= ? AND completed = ?", time.Now().UTC().Truncate(24*time.Hour), false)
	}
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		dbq = dbq.Where("type = ?", strings.ToUpper(v))
	}
	var reminders []models.Reminder
	if err := dbq.Order("date asc, id asc").Find(&reminders).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_reminders", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": reminders, "total": len(reminders)})
		return
	}
	renderTemplate(w, r, "reminders", map[string]any{"Reminders": reminders})
}

type reminderReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Recurring   bool   `json:"recurring"`
	Frequency   string `json:"frequency"`
}

// create stores a hand-made reminder. Generated calendar entries come from
// /reminders/seed and are owned by the seeder, not this endpoint.
func (h *ReminderHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req reminderReq
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
		req.Title = strings.TrimSpace(r.FormValue("title"))
		req.Description = strings.TrimSpace(r.FormValue("description"))
		req.Date = r.FormValue("date")
		req.Category = strings.TrimSpace(r.FormValue("category"))
		req.Priority = strings.TrimSpace(r.FormValue("priority"))
		req.Recurring = r.FormValue("recurring") == "on" || r.FormValue("recurring") == "true"
		req.Frequency = strings.ToUpper(strings.TrimSpace(r.FormValue("frequency")))
	}
	if req.Title == "" || req.Date == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"title": "required", "date": "required"})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"date": "expected YYYY-MM-DD"})
		return
	}
	priority := req.Priority
	switch priority {
	case "":
		priority = string(taxcal.PriorityMedium)
	case string(taxcal.PriorityHigh), string(taxcal.PriorityMedium), string(taxcal.PriorityLow):
	default:
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"priority": "must be high, medium or low"})
		return
	}
	category := req.Category
	if category == "" {
		category = string(taxcal.CategoryGeneral)
	}
	var frequency *string
	if req.Recurring {
		switch req.Frequency {
		case string(taxcal.FrequencyQuarterly), string(taxcal.FrequencyMonthly), string(taxcal.FrequencyYearly):
			f := req.Frequency
			frequency = &f
		default:
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"frequency": "must be QUARTERLY, MONTHLY or YEARLY"})
			return
		}
	}
	rem := models.Reminder{
		UserID: uid, Title: req.Title, Description: req.Description,
		Type: string(taxcal.TypeGeneral), Date: date,
		Category: category, Priority: priority,
		Recurring: req.Recurring, Frequency: frequency,
	}
	if err := h.DB.Create(&rem).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_reminder", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, rem)
		return
	}
	http.Redirect(w, r, "/reminders", statusSeeOther)
}

// seed: POST /reminders/seed?year=2024 – regenerate the statutory and
// invoicing calendars. Defaults to the current and next year.
func (h *ReminderHandler) seed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	years := []int{time.Now().Year(), time.Now().Year() + 1}
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year < 2000 || year > 2100 {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_year", nil)
			return
		}
		years = []int{year}
	}
	n, err := h.Svc.SeedCalendar(uid, years...)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_seed_calendar", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"created": n, "years": years})
		return
	}
	http.Redirect(w, r, "/calendar", statusSeeOther)
}

// item dispatches /reminders/{id} and /reminders/{id}/complete.
func (h *ReminderHandler) item(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r.URL.Path, "/reminders/")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var rem models.Reminder
	if err := h.DB.Where("id = ? AND user_id = ?", id, uid).First(&rem).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_reminder", nil)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/reminders/"+strconv.FormatUint(uint64(id), 10))
	switch {
	case rest == "/complete" && r.Method == http.MethodPost:
		rem.Completed = !rem.Completed
		if err := h.DB.Model(&rem).Update("completed", rem.Completed).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_reminder", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"id": rem.ID, "completed": rem.Completed})
	case (rest == "" || rest == "/") && r.Method == http.MethodGet:
		httpx.JSON(w, http.StatusOK, rem)
	case (rest == "" || rest == "/") && r.Method == http.MethodDelete:
		if err := h.DB.Delete(&rem).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_reminder", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	}
}

// calendar: GET /calendar – stored reminders merged with the payment
// follow-ups derived from open invoices. The payment entries are computed
// on the fly and never persisted.
func (h *ReminderHandler) calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var stored []models.Reminder
	if err := h.DB.Where("user_id = ?", uid).Order("date asc").Find(&stored).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_reminders", nil)
		return
	}
	payments, err := h.Svc.PaymentReminders(uid)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_derive_payment_reminders", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"reminders": stored, "payment_reminders": payments})
		return
	}
	renderTemplate(w, r, "calendar", map[string]any{"Reminders": stored, "PaymentReminders": payments})
}
