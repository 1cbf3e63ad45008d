package core

import (
	"encoding/json"
	"testing"
)

func TestParseDay(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2017-09-01", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"01/09/2017", false},
		{"2017-9-1", false},
		{"", false},
	}
	for _, tc := range cases {
		got, err := ParseDay(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q expected ok, got %v", tc.in, err)
			}
			if got.String() != tc.in {
				t.Fatalf("%q round-tripped to %q", tc.in, got.String())
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestDayJSON(t *testing.T) {
	d := NewDay(2023, 4, 1)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2023-04-01"` {
		t.Fatalf("expected quoted date, got %s", b)
	}
	var back Day
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d) {
		t.Fatalf("expected %s, got %s", d, back)
	}
}

func TestYearWindows(t *testing.T) {
	start := NewDay(2017, 9, 1)
	today := NewDay(2020, 3, 15)
	windows, err := YearWindows(start, today)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	want := []Window{
		{From: NewDay(2017, 9, 1), To: NewDay(2017, 12, 31)},
		{From: NewDay(2018, 1, 1), To: NewDay(2018, 12, 31)},
		{From: NewDay(2019, 1, 1), To: NewDay(2019, 12, 31)},
		{From: NewDay(2020, 1, 1), To: NewDay(2020, 3, 16)},
	}
	if len(windows) != len(want) {
		t.Fatalf("expected %d windows, got %d: %v", len(want), len(windows), windows)
	}
	for i, w := range want {
		if !windows[i].From.Equal(w.From) || !windows[i].To.Equal(w.To) {
			t.Fatalf("window %d expected %s..%s, got %s..%s",
				i, w.From, w.To, windows[i].From, windows[i].To)
		}
	}
}

func TestYearWindowsSameYear(t *testing.T) {
	windows, err := YearWindows(NewDay(2024, 3, 1), NewDay(2024, 6, 10))
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// The start-year window runs to Dec 31 and the current-year window
	// restarts at Jan 1; the overlap is harmless because ingestion upserts.
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d: %v", len(windows), windows)
	}
	if !windows[0].To.Equal(NewDay(2024, 12, 31)) {
		t.Fatalf("first window should reach year end, got %s", windows[0].To)
	}
	if !windows[1].To.Equal(NewDay(2024, 6, 11)) {
		t.Fatalf("second window should reach tomorrow, got %s", windows[1].To)
	}
}

func TestYearWindowsFutureStart(t *testing.T) {
	if _, err := YearWindows(NewDay(2030, 1, 1), NewDay(2024, 1, 1)); err == nil {
		t.Fatalf("expected error for future start")
	}
}
