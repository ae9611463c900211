package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"trimline/internal/availability"
	"trimline/internal/model"
	"trimline/internal/storage"
)

// AdminHandler serves the barber dashboard. Every route behind it is wrapped
// with RequireAuth and RequireRole("barber") at mux construction.
type AdminHandler struct {
	repo     *storage.Repository
	logger   *slog.Logger
	barberID string
	loc      *time.Location
	now      func() time.Time
}

func NewAdminHandler(repo *storage.Repository, logger *slog.Logger, barberID string, loc *time.Location) *AdminHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminHandler{
		repo:     repo,
		logger:   logger,
		barberID: barberID,
		loc:      loc,
		now:      time.Now,
	}
}

type appointmentItem struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	GuestName     string `json:"guest_name"`
	GuestEmail    string `json:"guest_email"`
	GuestPhone    string `json:"guest_phone"`
	Notes         string `json:"notes,omitempty"`
	Status        string `json:"status"`
	Finished      bool   `json:"finished"`
	CreatedAt     string `json:"created_at"`
}

type appointmentActionRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type availabilityRuleItem struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ListDay handles GET /api/v1/admin/appointments?date=YYYY-MM-DD.
func (h *AdminHandler) ListDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	appts, err := h.repo.ListAppointmentsByDate(r.Context(), h.barberID, date)
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	now := h.now().In(h.loc)
	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, appointmentItem{
			AppointmentID: a.ID,
			Date:          a.Date,
			Time:          a.Time,
			GuestName:     a.GuestName,
			GuestEmail:    a.GuestEmail,
			GuestPhone:    a.GuestPhone,
			Notes:         a.Notes,
			Status:        a.Status,
			Finished:      h.isFinished(a, now),
			CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":         date,
		"appointments": items,
	})
}

// isFinished reports whether an approved appointment's slot has fully
// elapsed. Pending appointments never finish; they are approved or cancelled.
func (h *AdminHandler) isFinished(a model.Appointment, now time.Time) bool {
	if a.Status != model.StatusApproved {
		return false
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.Time, h.loc)
	if err != nil {
		return false
	}
	return now.After(start.Add(availability.StepMinutes * time.Minute))
}

// Approve handles POST /api/v1/admin/appointments/approve.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.actionID(w, r)
	if !ok {
		return
	}

	if err := h.repo.ApproveAppointment(r.Context(), h.barberID, id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found or not pending", http.StatusNotFound)
			return
		}
		h.logger.Error("approve failed", "err", err, "appointment_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("appointment approved", "appointment_id", id)
	writeJSON(w, http.StatusOK, map[string]string{
		"appointment_id": id,
		"status":         model.StatusApproved,
	})
}

// Cancel handles POST /api/v1/admin/appointments/cancel. The row is deleted,
// which frees the slot for rebooking immediately.
func (h *AdminHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.actionID(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteAppointment(r.Context(), h.barberID, id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("cancel failed", "err", err, "appointment_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("appointment cancelled", "appointment_id", id)
	writeJSON(w, http.StatusOK, map[string]string{
		"appointment_id": id,
		"status":         "cancelled",
	})
}

func (h *AdminHandler) actionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}
	var req appointmentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return "", false
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "missing appointment_id", http.StatusBadRequest)
		return "", false
	}
	return req.AppointmentID, true
}

// Availability handles GET and PUT on /api/v1/admin/availability. PUT
// replaces the whole weekly schedule; a weekday absent from the payload is
// closed.
func (h *AdminHandler) Availability(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getAvailability(w, r)
	case http.MethodPut:
		h.putAvailability(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) getAvailability(w http.ResponseWriter, r *http.Request) {
	rules, err := h.repo.ListAvailabilityRules(r.Context(), h.barberID)
	if err != nil {
		h.logger.Error("list availability failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	items := make([]availabilityRuleItem, 0, len(rules))
	for _, rule := range rules {
		items = append(items, availabilityRuleItem{
			DayOfWeek: rule.DayOfWeek,
			StartTime: rule.StartTime,
			EndTime:   rule.EndTime,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": items})
}

func (h *AdminHandler) putAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rules []availabilityRuleItem `json:"rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	seen := make(map[int]bool)
	rules := make([]model.AvailabilityRule, 0, len(req.Rules))
	for _, item := range req.Rules {
		if item.DayOfWeek < 0 || item.DayOfWeek > 6 {
			http.Error(w, "day_of_week must be 0 through 6", http.StatusBadRequest)
			return
		}
		if seen[item.DayOfWeek] {
			http.Error(w, "duplicate day_of_week", http.StatusBadRequest)
			return
		}
		seen[item.DayOfWeek] = true

		start, err := time.Parse("15:04", item.StartTime)
		if err != nil {
			http.Error(w, "invalid start_time", http.StatusBadRequest)
			return
		}
		end, err := time.Parse("15:04", item.EndTime)
		if err != nil {
			http.Error(w, "invalid end_time", http.StatusBadRequest)
			return
		}
		if !end.After(start) {
			http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
			return
		}

		rules = append(rules, model.AvailabilityRule{
			BarberID:  h.barberID,
			DayOfWeek: item.DayOfWeek,
			StartTime: item.StartTime,
			EndTime:   item.EndTime,
		})
	}

	if err := h.repo.ReplaceAvailability(r.Context(), h.barberID, rules); err != nil {
		h.logger.Error("replace availability failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("availability replaced", "rules", len(rules))
	writeJSON(w, http.StatusOK, map[string]any{"rules": req.Rules})
}
