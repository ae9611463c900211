package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"trimline/internal/booking"
	"trimline/internal/model"
	"trimline/internal/outbox"
	"trimline/libs/db"
)

// Repository is the pgx-backed store for appointments, weekly availability
// rules, and dashboard users. Appointment writes and their outbox events
// commit in one transaction.
type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo}
}

func (r *Repository) ListAvailabilityRules(ctx context.Context, barberID string) ([]model.AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT barber_id::text, day_of_week, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI')
		FROM availability_rules
		WHERE barber_id = $1
		ORDER BY day_of_week ASC
	`, barberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AvailabilityRule
	for rows.Next() {
		var rule model.AvailabilityRule
		if err := rows.Scan(&rule.BarberID, &rule.DayOfWeek, &rule.StartTime, &rule.EndTime); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ReplaceAvailability swaps the barber's whole weekly schedule in one
// transaction: every weekday row is cleared, then the provided rules are
// inserted. Rules with start >= end never reach the table.
func (r *Repository) ReplaceAvailability(ctx context.Context, barberID string, rules []model.AvailabilityRule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM availability_rules WHERE barber_id = $1
	`, barberID); err != nil {
		return err
	}

	for _, rule := range rules {
		if _, err := tx.Exec(ctx, `
			INSERT INTO availability_rules (barber_id, day_of_week, start_time, end_time)
			VALUES ($1, $2, $3, $4)
		`, barberID, rule.DayOfWeek, rule.StartTime, rule.EndTime); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) ListBookedSlots(ctx context.Context, barberID, fromDate, toDate string) ([]model.BookedSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(appointment_date, 'YYYY-MM-DD'), to_char(appointment_time, 'HH24:MI')
		FROM appointments
		WHERE barber_id = $1
			AND appointment_date >= $2
			AND appointment_date <= $3
		ORDER BY appointment_date ASC, appointment_time ASC
	`, barberID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BookedSlot
	for rows.Next() {
		var slot model.BookedSlot
		if err := rows.Scan(&slot.Date, &slot.Time); err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// CreateAppointment inserts the appointment and its booked event atomically.
// No row is read back; anonymous submitters only hold INSERT rights. A unique
// violation on (barber_id, appointment_date, appointment_time) maps to
// booking.ErrSlotTaken.
func (r *Repository) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO appointments
			(id, barber_id, appointment_date, appointment_time, guest_name, guest_email, guest_phone, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
	`, appt.ID, appt.BarberID, appt.Date, appt.Time, appt.GuestName, appt.GuestEmail, appt.GuestPhone,
		appt.Notes, appt.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return booking.ErrSlotTaken
		}
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"barber_id":      appt.BarberID,
		"date":           appt.Date,
		"time":           appt.Time,
		"guest_name":     appt.GuestName,
		"guest_email":    appt.GuestEmail,
		"guest_phone":    appt.GuestPhone,
	})
	if err != nil {
		return err
	}
	if err := r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     outbox.EventAppointmentBooked,
		Payload:       payload,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) ListAppointmentsByDate(ctx context.Context, barberID, date string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, barber_id::text,
			to_char(appointment_date, 'YYYY-MM-DD'), to_char(appointment_time, 'HH24:MI'),
			guest_name, guest_email, guest_phone, COALESCE(notes, ''), status, created_at
		FROM appointments
		WHERE barber_id = $1 AND appointment_date = $2
		ORDER BY appointment_time ASC
	`, barberID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.BarberID,
			&appt.Date,
			&appt.Time,
			&appt.GuestName,
			&appt.GuestEmail,
			&appt.GuestPhone,
			&appt.Notes,
			&appt.Status,
			&appt.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) ApproveAppointment(ctx context.Context, barberID, appointmentID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'approved'
		WHERE id = $1 AND barber_id = $2 AND status = 'pending'
	`, appointmentID, barberID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteAppointment removes the row (cancellation deletes, it does not keep a
// tombstone) and records the cancelled event in the same transaction.
func (r *Repository) DeleteAppointment(ctx context.Context, barberID, appointmentID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var appt model.Appointment
	err = tx.QueryRow(ctx, `
		SELECT id::text, to_char(appointment_date, 'YYYY-MM-DD'), to_char(appointment_time, 'HH24:MI'),
			guest_name, guest_email, guest_phone
		FROM appointments
		WHERE id = $1 AND barber_id = $2
		FOR UPDATE
	`, appointmentID, barberID).Scan(
		&appt.ID, &appt.Date, &appt.Time, &appt.GuestName, &appt.GuestEmail, &appt.GuestPhone,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM appointments WHERE id = $1 AND barber_id = $2
	`, appointmentID, barberID); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"barber_id":      barberID,
		"date":           appt.Date,
		"time":           appt.Time,
		"guest_email":    appt.GuestEmail,
		"guest_phone":    appt.GuestPhone,
		"cancelled_at":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     outbox.EventAppointmentCancelled,
		Payload:       payload,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, email, password_hash, role
		FROM users
		WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
