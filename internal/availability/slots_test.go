package availability

import (
	"reflect"
	"testing"
	"time"

	"trimline/internal/model"
)

func fullDayRule(weekday int) model.AvailabilityRule {
	return model.AvailabilityRule{BarberID: "b1", DayOfWeek: weekday, StartTime: "09:00", EndTime: "17:00"}
}

func TestSlots_FullDayNoBookings(t *testing.T) {
	// A Wednesday; "now" is the day before, so no clock filtering applies.
	date := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)

	slots := Slots(date, []model.AvailabilityRule{fullDayRule(3)}, nil, now)
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots for 09:00-17:00 at 30m, got %d", len(slots))
	}
	if slots[0].Time != "09:00" {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].Time)
	}
	if slots[len(slots)-1].Time != "16:30" {
		t.Fatalf("expected last slot 16:30, got %s", slots[len(slots)-1].Time)
	}
	for i, s := range slots {
		if !s.Available {
			t.Fatalf("slot %s should be available", s.Time)
		}
		if i > 0 {
			if minutesBetween(slots[i-1].Time, s.Time) != 30 {
				t.Fatalf("slots %s and %s are not 30 minutes apart", slots[i-1].Time, s.Time)
			}
		}
	}
}

func TestSlots_MinuteOverflowWraps(t *testing.T) {
	date := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	rule := model.AvailabilityRule{BarberID: "b1", DayOfWeek: 3, StartTime: "09:45", EndTime: "11:20"}

	slots := Slots(date, []model.AvailabilityRule{rule}, nil, now)
	want := []string{"09:45", "10:15", "10:45", "11:15"}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for i, s := range slots {
		if s.Time != want[i] {
			t.Fatalf("slot %d: expected %s, got %s", i, want[i], s.Time)
		}
	}
}

func TestSlots_NoRuleMeansClosed(t *testing.T) {
	date := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC) // Wednesday
	now := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)

	// Only a Monday rule exists.
	slots := Slots(date, []model.AvailabilityRule{fullDayRule(1)}, nil, now)
	if len(slots) != 0 {
		t.Fatalf("expected no slots on a closed day, got %d", len(slots))
	}
}

func TestSlots_InvalidRuleYieldsNoSlots(t *testing.T) {
	date := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)

	cases := []model.AvailabilityRule{
		{BarberID: "b1", DayOfWeek: 3, StartTime: "17:00", EndTime: "09:00"},
		{BarberID: "b1", DayOfWeek: 3, StartTime: "10:00", EndTime: "10:00"},
		{BarberID: "b1", DayOfWeek: 3, StartTime: "bogus", EndTime: "17:00"},
	}
	for _, rule := range cases {
		if slots := Slots(date, []model.AvailabilityRule{rule}, nil, now); len(slots) != 0 {
			t.Fatalf("rule %q-%q: expected no slots, got %d", rule.StartTime, rule.EndTime, len(slots))
		}
	}
}

func TestSlots_EndOnStepBoundaryExcluded(t *testing.T) {
	date := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	rule := model.AvailabilityRule{BarberID: "b1", DayOfWeek: 3, StartTime: "09:00", EndTime: "10:00"}

	slots := Slots(date, []model.AvailabilityRule{rule}, nil, now)
	if len(slots) != 2 || slots[0].Time != "09:00" || slots[1].Time != "09:30" {
		t.Fatalf("expected [09:00 09:30], got %+v", slots)
	}
}

func TestSlots_BookedSlotUnavailable(t *testing.T) {
	date := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	booked := []model.BookedSlot{
		{Date: "2026-02-04", Time: "10:00"},
		{Date: "2026-02-05", Time: "11:00"}, // different day, must not leak
	}

	slots := Slots(date, []model.AvailabilityRule{fullDayRule(3)}, booked, now)
	for _, s := range slots {
		switch s.Time {
		case "10:00":
			if s.Available {
				t.Fatal("10:00 is booked and should be unavailable")
			}
		default:
			if !s.Available {
				t.Fatalf("slot %s should be available", s.Time)
			}
		}
	}
}

func TestSlots_TodayFiltersPastTimes(t *testing.T) {
	date := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 4, 14, 5, 0, 0, time.UTC)

	slots := Slots(date, []model.AvailabilityRule{fullDayRule(3)}, nil, now)
	for _, s := range slots {
		past := s.Time <= "14:00"
		if past && s.Available {
			t.Fatalf("slot %s is in the past and should be unavailable", s.Time)
		}
		if !past && !s.Available {
			t.Fatalf("slot %s is in the future and should be available", s.Time)
		}
	}
}

func TestSlots_FutureDateNeverTimeFiltered(t *testing.T) {
	date := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC) // Thursday, tomorrow
	now := time.Date(2026, 2, 4, 23, 55, 0, 0, time.UTC)

	slots := Slots(date, []model.AvailabilityRule{fullDayRule(4)}, nil, now)
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("slot %s on a future date should be available", s.Time)
		}
	}
}

func TestSlots_Idempotent(t *testing.T) {
	date := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 4, 11, 40, 0, 0, time.UTC)
	rules := []model.AvailabilityRule{fullDayRule(3)}
	booked := []model.BookedSlot{{Date: "2026-02-04", Time: "13:30"}}

	first := Slots(date, rules, booked, now)
	second := Slots(date, rules, booked, now)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different output:\n%+v\n%+v", first, second)
	}
}

func TestOpenTimes(t *testing.T) {
	slots := []Slot{
		{Time: "09:00", Available: false},
		{Time: "09:30", Available: true},
		{Time: "10:00", Available: true},
	}
	open := OpenTimes(slots)
	if !reflect.DeepEqual(open, []string{"09:30", "10:00"}) {
		t.Fatalf("unexpected open times: %v", open)
	}
}

func minutesBetween(a, b string) int {
	pa, _ := parseHHMM(a)
	pb, _ := parseHHMM(b)
	return pb - pa
}
