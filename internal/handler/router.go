package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/efreitasn/alphaexec/internal/service"
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all routes registered, request logging,
// and Content-Type validation middleware.
func NewRouter(session *service.Session, bars BarStore, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	sessionH := NewSessionHandler(session)
	orderH := NewOrderHandler(session)
	marketH := NewMarketDataHandler(bars)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Session routes.
	r.Post("/days", sessionH.NewDay)
	r.Post("/rebalance", sessionH.Rebalance)
	r.Get("/methods", sessionH.ListMethods)
	r.Put("/methods/active", sessionH.ActivateMethod)
	r.Get("/weights", sessionH.GetWeights)
	r.Get("/portfolio", sessionH.GetPortfolio)
	r.Post("/portfolio/liquidate", sessionH.Liquidate)

	// Order and task routes.
	r.Post("/orders", orderH.Place)
	r.Post("/orders/batch", orderH.PlaceBatch)
	r.Get("/tasks", orderH.ListTasks)
	r.Get("/tasks/{task_id}", orderH.GetTask)
	r.Post("/tasks/{task_id}/cancel", orderH.CancelTask)

	// Market data routes.
	r.Put("/marketdata/{security}/bars", marketH.PutBar)
	r.Put("/marketdata/suspensions", marketH.SetSuspensions)

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT
// and PATCH requests that carry a body. Action endpoints such as
// POST /rebalance take no body and pass through.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasBody := r.ContentLength != 0
		if hasBody && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
