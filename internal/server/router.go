// Package server wires the HTTP surface: routes, global middleware and the
// health endpoints.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"autonomo/internal/auth"
	"autonomo/internal/fx"
	"autonomo/internal/handlers"
	"autonomo/internal/httpx"
	"autonomo/internal/middleware"
	"autonomo/internal/models"
	"autonomo/internal/services"
)

// New builds the full application handler. The returned handler carries the
// auth and preference middleware, panic recovery and request logging.
func New(db *gorm.DB, fxc *fx.Client) http.Handler {
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		db.Model(&models.User{}).Where("id = ?", uid).Count(&count)
		return count > 0
	})

	invoiceSvc := services.NewInvoiceService(db, fxc)
	reminderSvc := services.NewReminderService(db)

	mux := http.NewServeMux()
	handlers.NewAuthHandler(db).Register(mux)
	handlers.NewDashboardHandler(db).Register(mux)
	handlers.NewClientHandler(db).Register(mux)
	handlers.NewInvoiceHandler(db, invoiceSvc).Register(mux)
	handlers.NewExpenseHandler(db, fxc).Register(mux)
	handlers.NewReminderHandler(db, reminderSvc).Register(mux)
	handlers.NewProfileHandler(db).Register(mux)
	handlers.NewRatesHandler(fxc).Register(mux)

	mux.HandleFunc("/health", health(db))
	mux.HandleFunc("/healthz", health(db))

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	return withRecover(withLogging(auth.Middleware(middleware.Prefs(requireAuthExcept(mux)))))
}

// publicPaths need no session: the landing page, auth pages, static assets
// and the health probes.
var publicPaths = map[string]bool{
	"/":        true,
	"/login":   true,
	"/signup":  true,
	"/health":  true,
	"/healthz": true,
}

func requireAuthExcept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] || strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}
		auth.RequireAuth(next).ServeHTTP(w, r)
	})
}

func health(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "db_unreachable", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
