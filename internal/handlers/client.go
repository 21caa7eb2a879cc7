package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"autonomo/internal/httpx"
	"autonomo/internal/models"
)

type ClientHandler struct{ DB *gorm.DB }

func NewClientHandler(db *gorm.DB) *ClientHandler { return &ClientHandler{DB: db} }

func (h *ClientHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/clients", h.collection)
	mux.HandleFunc("/clients/", h.item)
}

func (h *ClientHandler) collection(w http.ResponseWriter, r *http.Request) {
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

func (h *ClientHandler) item(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r.URL.Path, "/clients/")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var client models.Client
	if err := h.DB.Where("id = ? AND user_id = ?", id, uid).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_client", nil)
		return
	}
	switch r.Method {
	case http.MethodGet:
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, client)
			return
		}
		renderTemplate(w, r, "client_show", map[string]any{"Client": client})
	case http.MethodPut, http.MethodPatch:
		h.update(w, r, &client)
	case http.MethodDelete:
		h.delete(w, r, &client)
	default:
		w.Header().Set("Allow", "GET,PUT,PATCH,DELETE")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *ClientHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var clients []models.Client
	if err := h.DB.Where("user_id = ?", uid).Order("name asc").Find(&clients).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_clients", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": len(clients)})
		return
	}
	renderTemplate(w, r, "clients", map[string]any{"Clients": clients})
}

type clientReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Country  string `json:"country"`
	TaxID    string `json:"tax_id"`
	Currency string `json:"currency"`
	Domestic *bool  `json:"domestic"`
}

func decodeClientReq(r *http.Request) (clientReq, error) {
	var req clientReq
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Name = strings.TrimSpace(r.FormValue("name"))
	req.Email = strings.TrimSpace(r.FormValue("email"))
	req.Phone = strings.TrimSpace(r.FormValue("phone"))
	req.Address = strings.TrimSpace(r.FormValue("address"))
	req.Country = strings.TrimSpace(r.FormValue("country"))
	req.TaxID = strings.TrimSpace(r.FormValue("tax_id"))
	req.Currency = strings.ToUpper(strings.TrimSpace(r.FormValue("currency")))
	if v := r.FormValue("domestic"); v != "" {
		b := v == "1" || v == "true" || v == "on"
		req.Domestic = &b
	}
	return req, nil
}

func (h *ClientHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	req, err := decodeClientReq(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	if req.Name == "" || req.Country == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"name": "required", "country": "required"})
		return
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}
	if req.Currency != "EUR" && req.Currency != "USD" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"currency": "must be EUR or USD"})
		return
	}
	// Domestic defaults from the billing currency: EUR clients get Spanish
	// VAT and IRPF treatment unless the caller says otherwise.
	domestic := req.Currency == "EUR"
	if req.Domestic != nil {
		domestic = *req.Domestic
	}
	client := models.Client{
		UserID: uid, Name: req.Name, Email: req.Email, Phone: req.Phone,
		Address: req.Address, Country: req.Country, TaxID: req.TaxID,
		Currency: req.Currency, Domestic: domestic,
	}
	if err := h.DB.Create(&client).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_client", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, client)
		return
	}
	http.Redirect(w, r, "/clients", statusSeeOther)
}

func (h *ClientHandler) update(w http.ResponseWriter, r *http.Request, client *models.Client) {
	req, err := decodeClientReq(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	if req.Name != "" {
		client.Name = req.Name
	}
	if req.Country != "" {
		client.Country = req.Country
	}
	if req.Currency != "" {
		if req.Currency != "EUR" && req.Currency != "USD" {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"currency": "must be EUR or USD"})
			return
		}
		client.Currency = req.Currency
	}
	client.Email = req.Email
	client.Phone = req.Phone
	client.Address = req.Address
	client.TaxID = req.TaxID
	if req.Domestic != nil {
		client.Domestic = *req.Domestic
	}
	if err := h.DB.Save(client).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_client", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *ClientHandler) delete(w http.ResponseWriter, r *http.Request, client *models.Client) {
	var count int64
	if err := h.DB.Model(&models.Invoice{}).Where("client_id = ?", client.ID).Count(&count).Error; err == nil && count > 0 {
		httpx.JSONError(w, http.StatusConflict, "client_has_invoices", nil)
		return
	}
	if err := h.DB.Delete(client).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_client", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// pathID extracts the numeric id after the prefix, tolerating a trailing
// action segment ("/invoices/3/status" -> 3).
func pathID(path, prefix string) (uint, error) {
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
