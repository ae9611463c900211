package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trimline/libs/auth"
)

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireRole(next, "barber")

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Role", "barber")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for barber role, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req2.Header.Set("X-Role", "guest")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for guest role, got %d", rec2.Code)
	}
}

func TestRequireAuthHS256(t *testing.T) {
	secret := "test-secret"
	var gotUserID, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = r.Header.Get("X-User-Id")
		gotRole = r.Header.Get("X-Role")
		w.WriteHeader(http.StatusOK)
	})
	h := RequireAuth(next, secret)

	token, err := auth.SignHS256(auth.Claims{
		Sub:  "user-1",
		Role: "barber",
		Iat:  time.Now().Unix(),
		Exp:  time.Now().Add(time.Hour).Unix(),
	}, secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	// A client-supplied role header must not survive verification.
	req.Header.Set("X-Role", "spoofed")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid token, got %d", rec.Code)
	}
	if gotUserID != "user-1" || gotRole != "barber" {
		t.Fatalf("expected stamped identity user-1/barber, got %s/%s", gotUserID, gotRole)
	}

	reqBad := httptest.NewRequest(http.MethodGet, "/admin", nil)
	reqBad.Header.Set("Authorization", "Bearer badtoken")
	recBad := httptest.NewRecorder()
	h.ServeHTTP(recBad, reqBad)
	if recBad.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", recBad.Code)
	}

	reqNone := httptest.NewRequest(http.MethodGet, "/admin", nil)
	recNone := httptest.NewRecorder()
	h.ServeHTTP(recNone, reqNone)
	if recNone.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing header, got %d", recNone.Code)
	}
}
