package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trimline/internal/model"
)

func newTestAdminHandler() *AdminHandler {
	return NewAdminHandler(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), "barber-1", time.UTC)
}

func TestIsFinished(t *testing.T) {
	h := newTestAdminHandler()
	appt := model.Appointment{
		Date:   "2026-02-04",
		Time:   "10:00",
		Status: model.StatusApproved,
	}
	slotEnd := time.Date(2026, 2, 4, 10, 30, 0, 0, time.UTC)

	if h.isFinished(appt, slotEnd.Add(-time.Minute)) {
		t.Fatal("approved appointment still in its slot must not be finished")
	}
	// Exactly at slot end is not yet finished; the comparison is strict.
	if h.isFinished(appt, slotEnd) {
		t.Fatal("appointment at exactly slot end must not be finished")
	}
	if !h.isFinished(appt, slotEnd.Add(time.Second)) {
		t.Fatal("approved appointment past its slot must be finished")
	}

	pending := appt
	pending.Status = model.StatusPending
	if h.isFinished(pending, slotEnd.Add(time.Hour)) {
		t.Fatal("pending appointment must never be finished")
	}
}

func TestPutAvailability_RejectsBadRules(t *testing.T) {
	h := newTestAdminHandler()

	cases := []struct {
		name string
		body string
	}{
		{"start equals end", `{"rules":[{"day_of_week":1,"start_time":"10:00","end_time":"10:00"}]}`},
		{"start after end", `{"rules":[{"day_of_week":1,"start_time":"17:00","end_time":"09:00"}]}`},
		{"day out of range", `{"rules":[{"day_of_week":7,"start_time":"09:00","end_time":"17:00"}]}`},
		{"negative day", `{"rules":[{"day_of_week":-1,"start_time":"09:00","end_time":"17:00"}]}`},
		{"duplicate day", `{"rules":[{"day_of_week":2,"start_time":"09:00","end_time":"12:00"},{"day_of_week":2,"start_time":"13:00","end_time":"17:00"}]}`},
		{"unparsable time", `{"rules":[{"day_of_week":1,"start_time":"bogus","end_time":"17:00"}]}`},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/availability", strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		h.Availability(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestAvailability_MethodNotAllowed(t *testing.T) {
	h := newTestAdminHandler()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/availability", nil)
	rec := httptest.NewRecorder()
	h.Availability(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
