package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"autonomo/internal/httpx"
	"autonomo/internal/models"
)

type ProfileHandler struct{ DB *gorm.DB }

func NewProfileHandler(db *gorm.DB) *ProfileHandler { return &ProfileHandler{DB: db} }

func (h *ProfileHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/profile", h.profile)
	mux.HandleFunc("/profile/password", h.password)
}

func (h *ProfileHandler) profile(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var user models.User
	if err := h.DB.First(&user, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_user", nil)
		return
	}
	switch r.Method {
	case http.MethodGet:
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, user)
			return
		}
		renderTemplate(w, r, "profile", map[string]any{"User": user})
	case http.MethodPost, http.MethodPut:
		h.update(w, r, &user)
	default:
		w.Header().Set("Allow", "GET,POST,PUT")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

type profileReq struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	TaxID      string `json:"tax_id"`
	RETANumber string `json:"reta_number"`
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req profileReq
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
		req.Name = strings.TrimSpace(r.FormValue("name"))
		req.Phone = strings.TrimSpace(r.FormValue("phone"))
		req.Address = strings.TrimSpace(r.FormValue("address"))
		req.TaxID = strings.TrimSpace(r.FormValue("tax_id"))
		req.RETANumber = strings.TrimSpace(r.FormValue("reta_number"))
	}
	user.Name = req.Name
	user.Phone = req.Phone
	user.Address = req.Address
	user.TaxID = req.TaxID
	user.RETANumber = req.RETANumber
	if err := h.DB.Save(user).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_profile", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, user)
		return
	}
	http.Redirect(w, r, "/profile", statusSeeOther)
}

func (h *ProfileHandler) password(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	if len(next) < 8 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"new_password": "must be at least 8 characters"})
		return
	}
	var user models.User
	if err := h.DB.First(&user, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_user", nil)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		httpx.JSONError(w, http.StatusForbidden, "invalid_current_password", nil)
		return
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err := h.DB.Model(&user).Update("password", string(hash)).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_password", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
		return
	}
	http.Redirect(w, r, "/profile", statusSeeOther)
}
