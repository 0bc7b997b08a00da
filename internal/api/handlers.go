package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nannylink/internal/ledger"
	"nannylink/internal/models"

	"github.com/shopspring/decimal"
)

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Email == "" || body.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "email and display_name are required")
		return
	}

	user, err := s.users.Register(r.Context(), body.Email, body.DisplayName, body.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *HTTPServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleUpdateRate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rate string `json:"rate"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rate, err := decimal.NewFromString(body.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rate")
		return
	}

	if err := s.users.UpdateHourlyRate(r.Context(), UserID(r.Context()), rate); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.users.Notifications(r.Context(), UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (s *HTTPServer) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	err := s.users.MarkNotificationRead(r.Context(), UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleListLinks(w http.ResponseWriter, r *http.Request) {
	rels, err := s.relationships.ListForUser(r.Context(), UserID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"relationships": rels})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	users, err := s.relationships.Search(r.Context(), UserID(r.Context()), term)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *HTTPServer) handlePropose(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NannyID string `json:"nanny_id"`
	}
	if err := decodeBody(r, &body); err != nil || body.NannyID == "" {
		writeError(w, http.StatusBadRequest, "nanny_id is required")
		return
	}

	if err := s.relationships.Propose(r.Context(), UserID(r.Context()), body.NannyID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "proposed"})
}

func (s *HTTPServer) handleAccept(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EmployerID string `json:"employer_id"`
	}
	if err := decodeBody(r, &body); err != nil || body.EmployerID == "" {
		writeError(w, http.StatusBadRequest, "employer_id is required")
		return
	}

	if err := s.relationships.Accept(r.Context(), UserID(r.Context()), body.EmployerID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

func (s *HTTPServer) handleRejectLink(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EmployerID string `json:"employer_id"`
	}
	if err := decodeBody(r, &body); err != nil || body.EmployerID == "" {
		writeError(w, http.StatusBadRequest, "employer_id is required")
		return
	}

	if err := s.relationships.Reject(r.Context(), UserID(r.Context()), body.EmployerID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (s *HTTPServer) handleUnlink(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EmployerID string `json:"employer_id"`
		NannyID    string `json:"nanny_id"`
	}
	if err := decodeBody(r, &body); err != nil || body.EmployerID == "" || body.NannyID == "" {
		writeError(w, http.StatusBadRequest, "employer_id and nanny_id are required")
		return
	}

	if err := s.relationships.Unlink(r.Context(), UserID(r.Context()), body.EmployerID, body.NannyID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unlinked"})
}

func (s *HTTPServer) handleResetLinks(w http.ResponseWriter, r *http.Request) {
	removed, err := s.relationships.ResetAll(r.Context(), UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (s *HTTPServer) handleListSchedule(w http.ResponseWriter, r *http.Request) {
	requests, err := s.schedule.ListForUser(r.Context(), UserID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (s *HTTPServer) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NannyID   string   `json:"nanny_id"`
		Dates     []string `json:"dates"`
		StartTime string   `json:"start_time"`
		EndTime   string   `json:"end_time"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.NannyID == "" {
		writeError(w, http.StatusBadRequest, "nanny_id is required")
		return
	}

	dates := make([]time.Time, 0, len(body.Dates))
	for _, raw := range body.Dates {
		date, err := time.Parse(models.DateLayout, strings.TrimSpace(raw))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date format: %s", raw))
			return
		}
		dates = append(dates, date)
	}

	result, err := s.schedule.Create(r.Context(), UserID(r.Context()), body.NannyID, dates, body.StartTime, body.EndTime)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	failed := make(map[string]string, len(result.Failed))
	for date, ferr := range result.Failed {
		failed[date] = ferr.Error()
	}
	statusCode := http.StatusCreated
	if len(failed) > 0 {
		statusCode = http.StatusMultiStatus
	}
	writeJSON(w, statusCode, map[string]any{"created": result.Created, "failed": failed})
}

func (s *HTTPServer) handleScheduleStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status  string `json:"status"`
		Version int64  `json:"version"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := s.schedule.SetStatus(r.Context(), r.PathValue("id"), UserID(r.Context()), body.Status, body.Version)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": body.Status})
}

func (s *HTTPServer) handleScheduleTimes(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Version   int64  `json:"version"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := s.schedule.EditTimes(r.Context(), r.PathValue("id"), UserID(r.Context()), body.StartTime, body.EndTime, body.Version)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *HTTPServer) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.schedule.Delete(r.Context(), r.PathValue("id"), UserID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *HTTPServer) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.payments.ListForUser(r.Context(), UserID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (s *HTTPServer) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NannyID string `json:"nanny_id"`
		Amount  string `json:"amount"`
		Date    string `json:"date"`
		Method  string `json:"method"`
		Note    string `json:"note"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.NannyID == "" {
		writeError(w, http.StatusBadRequest, "nanny_id is required")
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	date, err := time.Parse(models.DateLayout, body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	payment, err := s.payments.Record(r.Context(), UserID(r.Context()), body.NannyID, amount, date, body.Method, body.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (s *HTTPServer) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	s.handlePaymentTransition(w, r, true)
}

func (s *HTTPServer) handleRejectPayment(w http.ResponseWriter, r *http.Request) {
	s.handlePaymentTransition(w, r, false)
}

func (s *HTTPServer) handlePaymentTransition(w http.ResponseWriter, r *http.Request, confirm bool) {
	var body struct {
		Version int64 `json:"version"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var err error
	if confirm {
		err = s.payments.Confirm(r.Context(), r.PathValue("id"), UserID(r.Context()), body.Version)
	} else {
		err = s.payments.Reject(r.Context(), r.PathValue("id"), UserID(r.Context()), body.Version)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := s.payments.Delete(r.Context(), r.PathValue("id"), UserID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *HTTPServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.summarizer.Summarize(r.Context(), UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *HTTPServer) handleReplay(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	records, err := s.store.GetChangesForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	summary, err := ledger.Replay(userID, records)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleWatch streams summary snapshots as server-sent events until the
// client disconnects.
func (s *HTTPServer) handleWatch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch, err := s.watcher.Watch(r.Context(), UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for summary := range ch {
		raw, err := json.Marshal(summary)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", raw)
		flusher.Flush()
	}
}

func (s *HTTPServer) handleStatement(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	// Build the workbook first; once attachment headers go out a failure
	// can no longer surface as a status code.
	var buf bytes.Buffer
	if err := s.exporter.WriteStatement(r.Context(), userID, &buf); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("statement export error")
		writeError(w, http.StatusInternalServerError, "statement export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=statement_%s.xlsx", time.Now().Format(models.DateLayout)))
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("statement write error")
	}
}

func (s *HTTPServer) handleResetPayments(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.maintenance.ResetPayments(r.Context(), UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (s *HTTPServer) handleClearBalances(w http.ResponseWriter, r *http.Request) {
	reverted, deleted, err := s.maintenance.ClearBalances(r.Context(), UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reverted": reverted, "deleted": deleted})
}
