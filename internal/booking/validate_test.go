package booking

import "testing"

func validRequest() Request {
	return Request{
		Name:  "Dana Levi",
		Email: "Dana.Levi@Example.com",
		Phone: "0501234567",
		Notes: "  fade please  ",
		Date:  "2026-02-04",
		Time:  "10:30",
	}
}

func TestValidate_NormalizesFields(t *testing.T) {
	req := validRequest()
	if err := validate(&req); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if req.Email != "dana.levi@example.com" {
		t.Fatalf("email not lowercased: %s", req.Email)
	}
	if req.Notes != "fade please" {
		t.Fatalf("notes not trimmed: %q", req.Notes)
	}
}

func TestValidate_PhoneDigitsExtracted(t *testing.T) {
	req := validRequest()
	req.Phone = "050-123 4567"
	if err := validate(&req); err != nil {
		t.Fatalf("formatted phone should normalize and pass, got %v", err)
	}
	if req.Phone != "0501234567" {
		t.Fatalf("phone not normalized: %s", req.Phone)
	}
}

func TestValidate_RejectsWrongLeadingDigits(t *testing.T) {
	req := validRequest()
	req.Phone = "1234567890" // ten digits, wrong prefix
	err := validate(&req)
	if err == nil {
		t.Fatal("expected phone validation error")
	}
	ve, ok := err.(*ValidationError)
	if !ok || ve.Field != "phone" {
		t.Fatalf("expected phone ValidationError, got %v", err)
	}
}

func TestValidate_RejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"blank name", func(r *Request) { r.Name = "   " }, "name"},
		{"email missing at", func(r *Request) { r.Email = "dana.example.com" }, "email"},
		{"email missing tld", func(r *Request) { r.Email = "dana@example" }, "email"},
		{"email with space", func(r *Request) { r.Email = "da na@example.com" }, "email"},
		{"short phone", func(r *Request) { r.Phone = "05012345" }, "phone"},
		{"long phone", func(r *Request) { r.Phone = "05012345678" }, "phone"},
		{"no date", func(r *Request) { r.Date = "" }, "slot"},
		{"no time", func(r *Request) { r.Time = "" }, "slot"},
		{"garbage date", func(r *Request) { r.Date = "tomorrow" }, "date"},
		{"garbage time", func(r *Request) { r.Time = "25:99" }, "time"},
	}
	for _, tc := range cases {
		req := validRequest()
		tc.mutate(&req)
		err := validate(&req)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		ve, ok := err.(*ValidationError)
		if !ok {
			t.Fatalf("%s: expected ValidationError, got %T", tc.name, err)
		}
		if ve.Field != tc.field {
			t.Fatalf("%s: expected field %q, got %q", tc.name, tc.field, ve.Field)
		}
	}
}

func TestValidate_OptionalNotes(t *testing.T) {
	req := validRequest()
	req.Notes = "   "
	if err := validate(&req); err != nil {
		t.Fatalf("blank notes should be allowed, got %v", err)
	}
	if req.Notes != "" {
		t.Fatalf("blank notes should trim to empty, got %q", req.Notes)
	}
}
