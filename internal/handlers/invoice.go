package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"autonomo/internal/billing"
	"autonomo/internal/httpx"
	"autonomo/internal/models"
	"autonomo/internal/pdf"
	"autonomo/internal/services"
)

type InvoiceHandler struct {
	DB  *gorm.DB
	Svc *services.InvoiceService
}

func NewInvoiceHandler(db *gorm.DB, svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Svc: svc}
}

func (h *InvoiceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/invoices", h.collection)
	mux.HandleFunc("/invoices/", h.item)
}

func (h *InvoiceHandler) collection(w http.ResponseWriter, r *http.Request) {
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

// item dispatches /invoices/{id}, /invoices/{id}/status and /invoices/{id}/pdf.
func (h *InvoiceHandler) item(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r.URL.Path, "/invoices/")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/invoices/"+strconv.FormatUint(uint64(id), 10))
	switch {
	case rest == "" || rest == "/":
		h.show(w, r, uid, id)
	case rest == "/status":
		h.updateStatus(w, r, uid, id)
	case rest == "/pdf":
		h.renderPDF(w, r, uid, id)
	default:
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	}
}

// list: GET /invoices – HTML or JSON, optional ?status= filter.
func (h *InvoiceHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	dbq := h.DB.Where("user_id = ?", uid)
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" {
		dbq = dbq.Where("status = ?", status)
	}
	var total int64
	dbq.Model(&models.Invoice{}).Count(&total)
	var invs []models.Invoice
	if err := dbq.Preload("Client").Preload("Items").Order("date desc, id desc").Limit(limit).Offset(offset).Find(&invs).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_invoices", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": invs, "total": total, "limit": limit, "offset": offset})
		return
	}
	renderTemplate(w, r, "invoices", map[string]any{"Invoices": invs, "Total": total, "Status": status})
}

type invoiceReq struct {
	Number      string               `json:"number"`
	Date        string               `json:"date"`
	DueDate     string               `json:"due_date"`
	ClientID    uint                 `json:"client_id"`
	Description string               `json:"description"`
	Notes       string               `json:"notes"`
	Items       []services.ItemInput `json:"items"`
}

// create: POST /invoices – JSON or form. Totals are always computed
// server-side from the client's tax profile.
func (h *InvoiceHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req invoiceReq
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
		req.Number = strings.TrimSpace(r.FormValue("number"))
		req.Date = r.FormValue("date")
		req.DueDate = r.FormValue("due_date")
		req.Description = strings.TrimSpace(r.FormValue("description"))
		req.Notes = strings.TrimSpace(r.FormValue("notes"))
		if v := r.FormValue("client_id"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				req.ClientID = uint(id)
			}
		}
		// form posts carry a single line item
		if desc := r.FormValue("item_description"); desc != "" {
			qty, _ := strconv.ParseFloat(r.FormValue("item_quantity"), 64)
			price, _ := strconv.ParseInt(r.FormValue("item_unit_price_cents"), 10, 64)
			req.Items = []services.ItemInput{{Description: desc, Quantity: qty, UnitPriceCents: price}}
		}
	}
	if req.Number == "" || req.ClientID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"number": "required", "client_id": "required"})
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
	var dueDate *time.Time
	if req.DueDate != "" {
		d, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"due_date": "expected YYYY-MM-DD"})
			return
		}
		dueDate = &d
	}

	inv, err := h.Svc.Create(r.Context(), uid, services.CreateInvoiceInput{
		Number: req.Number, Date: date, DueDate: dueDate, ClientID: req.ClientID,
		Description: req.Description, Notes: req.Notes, Items: req.Items,
	})
	switch {
	case err == nil:
	case errors.Is(err, services.ErrClientNotFound):
		httpx.JSONError(w, http.StatusBadRequest, "client_not_found", nil)
		return
	case errors.Is(err, services.ErrEmptyInvoice):
		httpx.JSONError(w, http.StatusBadRequest, "empty_invoice", nil)
		return
	case errors.Is(err, services.ErrDuplicateNumber):
		httpx.JSONError(w, http.StatusConflict, "duplicate_invoice_number", nil)
		return
	case errors.Is(err, billing.ErrInvalidInput):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"items": err.Error()})
		return
	default:
		log.Error().Err(err).Msg("invoice create failed")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_invoice", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, inv)
		return
	}
	http.Redirect(w, r, "/invoices", statusSeeOther)
}

func (h *InvoiceHandler) show(w http.ResponseWriter, r *http.Request, uid, id uint) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var inv models.Invoice
	if err := h.DB.Preload("Client").Preload("Items").Where("id = ? AND user_id = ?", id, uid).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_invoice", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, inv)
		return
	}
	renderTemplate(w, r, "invoice_show", map[string]any{"Invoice": inv})
}

// updateStatus: POST /invoices/{id}/status with {"status": "..."}.
func (h *InvoiceHandler) updateStatus(w http.ResponseWriter, r *http.Request, uid, id uint) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var status string
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		status = body.Status
	} else {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
			return
		}
		status = r.FormValue("status")
	}
	status = strings.ToUpper(strings.TrimSpace(status))

	inv, err := h.Svc.UpdateStatus(uid, id, status)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	case errors.Is(err, billing.ErrInvalidInput):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_status", nil)
		return
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_status", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": inv.ID, "status": status})
		return
	}
	http.Redirect(w, r, "/invoices/"+strconv.FormatUint(uint64(id), 10), statusSeeOther)
}

// renderPDF: GET /invoices/{id}/pdf – download the invoice as PDF.
func (h *InvoiceHandler) renderPDF(w http.ResponseWriter, r *http.Request, uid, id uint) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var inv models.Invoice
	if err := h.DB.Preload("Client").Preload("Items").Where("id = ? AND user_id = ?", id, uid).First(&inv).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var user models.User
	if err := h.DB.First(&user, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_user", nil)
		return
	}
	doc, err := pdf.RenderInvoice(inv, user)
	if err != nil {
		log.Error().Err(err).Uint("invoice", inv.ID).Msg("pdf generation failed")
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="invoice-`+sanitizeFilename(inv.Number)+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, doc)
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
