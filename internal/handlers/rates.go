package handlers

import (
	"net/http"

	"autonomo/internal/fx"
	"autonomo/internal/httpx"
)

// RatesHandler exposes the current USD→EUR rate. The fx client already
// degrades through its provider chain, so this endpoint always answers.
type RatesHandler struct{ FX *fx.Client }

func NewRatesHandler(fxc *fx.Client) *RatesHandler { return &RatesHandler{FX: fxc} }

func (h *RatesHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/exchange-rate", h.rate)
}

func (h *RatesHandler) rate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	rate := h.FX.USDToEUR(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]any{
		"rate":      rate.Rate,
		"timestamp": rate.Timestamp,
		"source":    rate.Source,
	})
}
