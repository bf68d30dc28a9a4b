package core

import (
	"testing"
	"time"
)

func TestMonthRefPrevious(t *testing.T) {
	cases := []struct {
		in, want MonthRef
	}{
		{MonthRef{Year: 2024, Month: time.January}, MonthRef{Year: 2023, Month: time.December}},
		{MonthRef{Year: 2024, Month: time.March}, MonthRef{Year: 2024, Month: time.February}},
		{MonthRef{Year: 2024, Month: time.December}, MonthRef{Year: 2024, Month: time.November}},
	}
	for _, tc := range cases {
		if got := tc.in.Previous(); got != tc.want {
			t.Errorf("%s.Previous() = %s, want %s", tc.in, got, tc.want)
		}
	}
	if got := (MonthRef{Year: 2023, Month: time.December}).Next(); got != (MonthRef{Year: 2024, Month: time.January}) {
		t.Errorf("Next wrap = %s", got)
	}
}

func TestMonthRefContains(t *testing.T) {
	dec := MonthRef{Year: 2023, Month: time.December}
	if !dec.Contains(NewDate(2023, time.December, 15)) {
		t.Fatal("expected 2023-12-15 inside December 2023")
	}
	if dec.Contains(NewDate(2024, time.January, 1)) {
		t.Fatal("2024-01-01 is not in December 2023")
	}
	if dec.Contains(NewDate(2022, time.December, 31)) {
		t.Fatal("2022-12-31 is not in December 2023")
	}
}

func TestMonthRefValidate(t *testing.T) {
	if err := (MonthRef{Year: 2024, Month: 13}).Validate(); err == nil {
		t.Fatal("expected error for month 13")
	}
	if err := (MonthRef{Year: 2024, Month: 0}).Validate(); err == nil {
		t.Fatal("expected error for month 0")
	}
	if err := (MonthRef{Year: 2024, Month: time.May}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"same day", NewDate(2024, time.January, 10), 1, NewDate(2024, time.February, 10)},
		{"31st into leap February", NewDate(2024, time.January, 31), 1, NewDate(2024, time.February, 29)},
		{"31st into April", NewDate(2024, time.March, 31), 1, NewDate(2024, time.April, 30)},
		{"across year", NewDate(2024, time.November, 30), 3, NewDate(2025, time.February, 28)},
		{"zero", NewDate(2024, time.May, 5), 0, NewDate(2024, time.May, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddMonthsClamped(tt.start, tt.n); !got.Equal(tt.want) {
				t.Errorf("AddMonthsClamped() = %v, want %v", got, tt.want)
			}
		})
	}
}
