package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"trimline/internal/availability"
	"trimline/internal/booking"
)

// PublicHandler serves the guest-facing booking endpoints. No auth; the
// barber is fixed by deployment config, never taken from the request.
type PublicHandler struct {
	svc    *booking.Service
	logger *slog.Logger
}

func NewPublicHandler(svc *booking.Service, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{svc: svc, logger: logger}
}

type bookedSlotItem struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type bookResponse struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
}

// Slots handles GET /api/v1/public/slots?date=YYYY-MM-DD.
func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "missing date", http.StatusBadRequest)
		return
	}

	slots, err := h.svc.DaySlots(r.Context(), date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	// A closed day serializes as [] rather than null, same as Booked.
	if slots == nil {
		slots = []availability.Slot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date,
		"slots": slots,
	})
}

// Booked handles GET /api/v1/public/booked?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Clients replace their cached projection with the response wholesale.
func (h *PublicHandler) Booked(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		http.Error(w, "missing from or to", http.StatusBadRequest)
		return
	}

	booked, err := h.svc.BookedRange(r.Context(), from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]bookedSlotItem, 0, len(booked))
	for _, b := range booked {
		items = append(items, bookedSlotItem{Date: b.Date, Time: b.Time})
	}
	writeJSON(w, http.StatusOK, map[string]any{"booked": items})
}

// Book handles POST /api/v1/public/book. A slot conflict returns 409 with a
// message the client shows verbatim before refreshing its booked slots.
func (h *PublicHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req booking.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Book(r.Context(), req)
	if err != nil {
		if errors.Is(err, booking.ErrSlotTaken) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": booking.ErrSlotTaken.Error()})
			return
		}
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, bookResponse{
		AppointmentID: appt.ID,
		Date:          appt.Date,
		Time:          appt.Time,
		Status:        appt.Status,
	})
}

func (h *PublicHandler) writeServiceError(w http.ResponseWriter, err error) {
	var vErr *booking.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": vErr.Msg,
			"field": vErr.Field,
		})
		return
	}
	if errors.Is(err, booking.ErrNotConfigured) {
		h.logger.Error("booking service not configured")
		http.Error(w, "service unavailable", http.StatusInternalServerError)
		return
	}
	h.logger.Error("public request failed", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
