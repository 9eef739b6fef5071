package recurrence

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2024-03-10", want: Date{Year: 2024, Month: time.March, Day: 10}},
		{in: " 2024-02-29 ", want: Date{Year: 2024, Month: time.February, Day: 29}},
		{in: "2023-02-29", wantErr: true},
		{in: "2024-13-01", wantErr: true},
		{in: "2024-3-10", wantErr: true},
		{in: "2024-03-10T00:00:00Z", wantErr: true},
		{in: "", wantErr: true},
		{in: "abcd-ef-gh", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("ParseDate(%q): expected ErrInvalidDate, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFromTimeKeepsWallDate(t *testing.T) {
	// Late evening in São Paulo is already the next day in UTC.
	loc := time.FixedZone("BRT", -3*60*60)
	ts := time.Date(2024, time.March, 10, 23, 30, 0, 0, loc)

	if got := FromTime(ts); got.String() != "2024-03-10" {
		t.Fatalf("expected 2024-03-10, got %s", got)
	}
	if got := FromTime(ts.UTC()); got.String() != "2024-03-11" {
		t.Fatalf("expected 2024-03-11 in UTC, got %s", got)
	}
}

func TestDayArithmeticMatchesTimePackage(t *testing.T) {
	base := time.Date(1899, time.December, 25, 0, 0, 0, 0, time.UTC)
	origin := FromTime(base)

	for i := 0; i < 200*366; i += 7 {
		want := base.AddDate(0, 0, i)
		got := origin.AddDays(i)
		if got != FromTime(want) {
			t.Fatalf("AddDays(%d) = %s, want %s", i, got, want.Format("2006-01-02"))
		}
		if got.Weekday() != want.Weekday() {
			t.Fatalf("weekday of %s = %s, want %s", got, got.Weekday(), want.Weekday())
		}
		if origin.DaysUntil(got) != i {
			t.Fatalf("DaysUntil(%s) = %d, want %d", got, origin.DaysUntil(got), i)
		}
	}
}

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		start  string
		months int
		want   string
	}{
		{start: "2024-01-31", months: 1, want: "2024-02-29"},
		{start: "2023-01-31", months: 1, want: "2023-02-28"},
		{start: "2024-01-31", months: 3, want: "2024-04-30"},
		{start: "2024-11-30", months: 3, want: "2025-02-28"},
		{start: "2024-03-15", months: -3, want: "2023-12-15"},
		{start: "2024-05-31", months: 0, want: "2024-05-31"},
	}

	for _, tc := range cases {
		start, err := ParseDate(tc.start)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if got := start.AddMonthsClamped(tc.months).String(); got != tc.want {
			t.Fatalf("%s + %d months = %s, want %s", tc.start, tc.months, got, tc.want)
		}
	}
}

func TestDateTextRoundTrip(t *testing.T) {
	var d Date
	if err := d.UnmarshalText([]byte("2024-07-04")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	text, err := d.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(text) != "2024-07-04" {
		t.Fatalf("expected 2024-07-04, got %s", text)
	}
	if !d.Time(nil).Equal(time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected boundary time %v", d.Time(nil))
	}
}
