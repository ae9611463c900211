package booking

import (
	"regexp"
	"strings"
	"time"
)

// Request is a guest submission. Date and Time come from a prior selection
// step and both must be set.
type Request struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
	Date  string `json:"date"` // "2006-01-02"
	Time  string `json:"time"` // "HH:MM"
}

// The shop takes local mobile numbers only: exactly ten digits starting 05.
var phonePattern = regexp.MustCompile(`^05\d{8}$`)

// Shape check only; no quoted-string or consecutive-dot pedantry.
var emailPattern = regexp.MustCompile(`^[^\s"@]+@[^\s"@]+\.[^\s"@]+$`)

// validate normalizes the request in place and reports the first invalid
// field. Phone is reduced to digits before checking so "050-123 4567" is
// accepted as 0501234567.
func validate(req *Request) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return &ValidationError{Field: "name", Msg: "name is required"}
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(req.Email) {
		return &ValidationError{Field: "email", Msg: "enter a valid email address"}
	}

	req.Phone = digitsOnly(req.Phone)
	if !phonePattern.MatchString(req.Phone) {
		return &ValidationError{Field: "phone", Msg: "phone must be 10 digits starting with 05"}
	}

	req.Notes = strings.TrimSpace(req.Notes)

	if req.Date == "" || req.Time == "" {
		return &ValidationError{Field: "slot", Msg: "pick a day and time first"}
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return &ValidationError{Field: "date", Msg: "invalid date"}
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		return &ValidationError{Field: "time", Msg: "invalid time"}
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
