// Package handlers contains the HTTP surface. Every handler is
// dual-format: browsers get rendered templates, API consumers sending
// Accept: application/json get JSON. All data access is scoped to the
// authenticated user from the request context.
package handlers

import (
	"net/http"

	"autonomo/internal/auth"
	"autonomo/internal/httpx"
	"autonomo/internal/view"
)

// Explicit constant for 303 See Other (Post/Redirect/Get)
const statusSeeOther = 303

// renderTemplate uses the shared view.Render to ensure layout, partials, funcs, and caching.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name+".html", data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte("template error")); werr != nil {
			_ = werr
		}
	}
}

// currentUser extracts the authenticated user id; handlers behind
// RequireAuth can rely on it being present, this guards direct calls.
func currentUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		} else {
			http.Redirect(w, r, "/login", statusSeeOther)
		}
		return 0, false
	}
	return uid, true
}
