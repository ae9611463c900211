package booking

import "errors"

// ErrSlotTaken is returned when the backing store rejects an insert because
// the (barber, date, time) tuple already exists. The unique constraint is the
// only conflict-detection mechanism; nothing reserves a slot ahead of the
// write.
var ErrSlotTaken = errors.New("sorry, that slot was just taken, pick another time")

// ErrNotConfigured means the barber owning the booking flow is unset. No
// valid request can be formed, so it fails before any store call.
var ErrNotConfigured = errors.New("barber is not configured")

// ValidationError reports a locally rejected field. It never reaches the
// store.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
