package availability

import (
	"fmt"
	"time"

	"trimline/internal/model"
)

// StepMinutes is the slot grid the shop books on.
const StepMinutes = 30

// Slot is a derived value, recomputed on every date or booked-data change.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Slots derives the ordered slot list for one day from the weekly rules and
// the booked projection. A slot is unavailable when it is already booked for
// that exact (date, time), or when date is today and the slot is not strictly
// after now. Future dates are never filtered by clock time.
//
// Pure function of its inputs: no side effects, identical output for
// identical inputs and the same now.
func Slots(date time.Time, rules []model.AvailabilityRule, booked []model.BookedSlot, now time.Time) []Slot {
	rule, ok := ruleFor(rules, int(date.Weekday()))
	if !ok {
		return nil
	}

	start, err := parseHHMM(rule.StartTime)
	if err != nil {
		return nil
	}
	end, err := parseHHMM(rule.EndTime)
	if err != nil {
		return nil
	}
	// A rule with start >= end is invalid; treat it as closed rather than
	// generating a negative or unbounded range.
	if start >= end {
		return nil
	}

	dateStr := date.Format("2006-01-02")
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		if b.Date == dateStr {
			taken[b.Time] = struct{}{}
		}
	}

	isToday := dateStr == now.Format("2006-01-02")
	nowMinute := now.Hour()*60 + now.Minute()

	var slots []Slot
	for m := start; m < end; m += StepMinutes {
		t := formatHHMM(m)
		available := true
		if _, ok := taken[t]; ok {
			available = false
		}
		if isToday && m <= nowMinute {
			available = false
		}
		slots = append(slots, Slot{Time: t, Available: available})
	}
	return slots
}

// OpenTimes filters a slot list down to the bookable times, in order.
func OpenTimes(slots []Slot) []string {
	var out []string
	for _, s := range slots {
		if s.Available {
			out = append(out, s.Time)
		}
	}
	return out
}

func ruleFor(rules []model.AvailabilityRule, weekday int) (model.AvailabilityRule, bool) {
	for _, r := range rules {
		if r.DayOfWeek == weekday {
			return r, true
		}
	}
	return model.AvailabilityRule{}, false
}

func parseHHMM(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day out of range: %q", s)
	}
	return h*60 + m, nil
}

func formatHHMM(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
