package model

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// Appointment is a guest booking for one slot. Date and Time are shop-local
// wall-clock values ("2006-01-02" and "HH:MM"); the database enforces that
// (barber_id, date, time) is unique.
type Appointment struct {
	ID         string
	BarberID   string
	Date       string
	Time       string
	GuestName  string
	GuestEmail string
	GuestPhone string
	Notes      string // empty means none; stored as NULL
	Status     string
	CreatedAt  time.Time
}

// AvailabilityRule is one weekly recurring working-hours row. At most one rule
// exists per (barber, weekday); a missing weekday means the shop is closed.
type AvailabilityRule struct {
	BarberID  string
	DayOfWeek int    // 0=Sunday .. 6=Saturday
	StartTime string // "HH:MM", 24h
	EndTime   string // "HH:MM", exclusive
}

// BookedSlot is the read-only projection of existing appointments used by the
// availability resolver.
type BookedSlot struct {
	Date string
	Time string
}

// User is a dashboard account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
}
