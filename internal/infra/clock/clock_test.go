package clock

import (
	"testing"
	"time"
)

func TestDayKey(t *testing.T) {
	day := time.Date(2025, 7, 1, 23, 59, 0, 0, time.UTC)
	if got := DayKey(day); got != "20250701" {
		t.Errorf("DayKey = %q, want 20250701", got)
	}
}

func TestPreviousDay(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"20250701", "20250630"},
		{"20250101", "20241231"},
		{"20240301", "20240229"},
		{"garbage", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := PreviousDay(tt.in); got != tt.want {
				t.Errorf("PreviousDay(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFixed_Advance(t *testing.T) {
	c := NewFixed(time.Date(2025, 7, 1, 23, 0, 0, 0, time.UTC))
	if c.Today() != "20250701" {
		t.Fatalf("Today = %s", c.Today())
	}
	c.Advance(2 * time.Hour)
	if c.Today() != "20250702" {
		t.Errorf("after rollover Today = %s, want 20250702", c.Today())
	}
}

func TestSystem_Location(t *testing.T) {
	c := NewSystem(time.UTC)
	if c.Now().Location() != time.UTC {
		t.Error("system clock should report in its location")
	}
	if len(c.Today()) != 8 {
		t.Errorf("Today = %q, want 8 chars", c.Today())
	}
}
