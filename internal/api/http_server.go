package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"nannylink/internal/config"
	"nannylink/internal/database"
	"nannylink/internal/domain"
	"nannylink/internal/ledger"
	"nannylink/internal/metrics"
	"nannylink/internal/service"

	"github.com/rs/zerolog"
)

// StatementWriter renders a user's xlsx statement onto a writer.
type StatementWriter interface {
	WriteStatement(ctx context.Context, userID string, w io.Writer) error
}

// HTTPServer exposes the coordination core over a JSON API.
type HTTPServer struct {
	cfg           config.APIConfig
	relationships *service.RelationshipService
	schedule      *service.ScheduleService
	payments      *service.PaymentService
	users         *service.UserService
	maintenance   *service.MaintenanceService
	summarizer    domain.Summarizer
	store         domain.Store
	watcher       *ledger.Watcher
	exporter      StatementWriter
	server        *http.Server
	auth          *HTTPAuth
	logger        *zerolog.Logger
}

type Deps struct {
	Relationships *service.RelationshipService
	Schedule      *service.ScheduleService
	Payments      *service.PaymentService
	Users         *service.UserService
	Maintenance   *service.MaintenanceService
	Summarizer    domain.Summarizer
	Store         domain.Store
	Watcher       *ledger.Watcher
	Exporter      StatementWriter
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:           cfg,
		relationships: deps.Relationships,
		schedule:      deps.Schedule,
		payments:      deps.Payments,
		users:         deps.Users,
		maintenance:   deps.Maintenance,
		summarizer:    deps.Summarizer,
		store:         deps.Store,
		watcher:       deps.Watcher,
		exporter:      deps.Exporter,
		logger:        logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/users", srv.handleRegister)
	mux.HandleFunc("GET /api/v1/users/{id}", srv.handleGetUser)
	mux.HandleFunc("PUT /api/v1/users/rate", srv.handleUpdateRate)
	mux.HandleFunc("GET /api/v1/notifications", srv.handleNotifications)
	mux.HandleFunc("POST /api/v1/notifications/{id}/read", srv.handleMarkNotificationRead)

	mux.HandleFunc("GET /api/v1/links", srv.handleListLinks)
	mux.HandleFunc("GET /api/v1/links/search", srv.handleSearch)
	mux.HandleFunc("POST /api/v1/links/propose", srv.handlePropose)
	mux.HandleFunc("POST /api/v1/links/accept", srv.handleAccept)
	mux.HandleFunc("POST /api/v1/links/reject", srv.handleRejectLink)
	mux.HandleFunc("POST /api/v1/links/unlink", srv.handleUnlink)
	mux.HandleFunc("POST /api/v1/links/reset", srv.handleResetLinks)

	mux.HandleFunc("GET /api/v1/schedule", srv.handleListSchedule)
	mux.HandleFunc("POST /api/v1/schedule", srv.handleCreateSchedule)
	mux.HandleFunc("POST /api/v1/schedule/{id}/status", srv.handleScheduleStatus)
	mux.HandleFunc("PUT /api/v1/schedule/{id}/times", srv.handleScheduleTimes)
	mux.HandleFunc("DELETE /api/v1/schedule/{id}", srv.handleDeleteSchedule)

	mux.HandleFunc("GET /api/v1/payments", srv.handleListPayments)
	mux.HandleFunc("POST /api/v1/payments", srv.handleRecordPayment)
	mux.HandleFunc("POST /api/v1/payments/{id}/confirm", srv.handleConfirmPayment)
	mux.HandleFunc("POST /api/v1/payments/{id}/reject", srv.handleRejectPayment)
	mux.HandleFunc("DELETE /api/v1/payments/{id}", srv.handleDeletePayment)

	mux.HandleFunc("GET /api/v1/summary", srv.handleSummary)
	mux.HandleFunc("GET /api/v1/summary/replay", srv.handleReplay)
	mux.HandleFunc("GET /api/v1/summary/watch", srv.handleWatch)
	mux.HandleFunc("GET /api/v1/statement", srv.handleStatement)

	mux.HandleFunc("POST /api/v1/maintenance/reset-payments", srv.handleResetPayments)
	mux.HandleFunc("POST /api/v1/maintenance/clear-balances", srv.handleClearBalances)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "record was modified concurrently")
	case errors.Is(err, database.ErrNoPendingRequest),
		errors.Is(err, database.ErrNotLinked),
		errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotAuthorized),
		errors.Is(err, service.ErrMaintenanceDisabled):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrRoleMismatch),
		errors.Is(err, service.ErrNoDates):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
