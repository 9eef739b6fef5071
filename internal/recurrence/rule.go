package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidRule   = errors.New("invalid recurrence rule")
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidLimit  = errors.New("invalid occurrence limit")
)

// ValidationError names the rule field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid recurrence rule: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRule
}

type Frequency string

const (
	Daily    Frequency = "DAILY"
	Weekly   Frequency = "WEEKLY"
	Biweekly Frequency = "BIWEEKLY"
	Monthly  Frequency = "MONTHLY"
)

func ParseFrequency(value string) (Frequency, error) {
	switch f := Frequency(strings.ToUpper(strings.TrimSpace(value))); f {
	case Daily, Weekly, Biweekly, Monthly:
		return f, nil
	default:
		return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("%q is not one of DAILY, WEEKLY, BIWEEKLY, MONTHLY", value)}
	}
}

// Rule describes when a recurring agenda item happens.
//
// WeekDays only applies to WEEKLY and BIWEEKLY rules. With WeekDays set the
// rule is active during 7-day blocks that start at Start and repeat every
// 7*interval days (14*interval for BIWEEKLY); inside an active block every
// listed weekday occurs.
type Rule struct {
	Type       Frequency
	Interval   int
	Start      Date
	End        *Date
	WeekDays   []time.Weekday
	Exclusions []Date
}

func (r Rule) Validate() error {
	switch r.Type {
	case Daily, Weekly, Biweekly, Monthly:
	default:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("%q is not supported", r.Type)}
	}
	if r.Interval < 1 {
		return &ValidationError{Field: "interval", Reason: fmt.Sprintf("must be at least 1, got %d", r.Interval)}
	}
	if _, err := NewDate(r.Start.Year, r.Start.Month, r.Start.Day); err != nil {
		return &ValidationError{Field: "start_date", Reason: "is not a valid calendar date"}
	}
	if r.End != nil {
		if _, err := NewDate(r.End.Year, r.End.Month, r.End.Day); err != nil {
			return &ValidationError{Field: "end_date", Reason: "is not a valid calendar date"}
		}
		if r.End.Before(r.Start) {
			return &ValidationError{Field: "end_date", Reason: fmt.Sprintf("%s is before start_date %s", r.End, r.Start)}
		}
	}
	if len(r.WeekDays) > 0 {
		if r.Type != Weekly && r.Type != Biweekly {
			return &ValidationError{Field: "week_days", Reason: "only apply to WEEKLY and BIWEEKLY rules"}
		}
		seen := make(map[time.Weekday]struct{}, len(r.WeekDays))
		for _, wd := range r.WeekDays {
			if wd < time.Sunday || wd > time.Saturday {
				return &ValidationError{Field: "week_days", Reason: fmt.Sprintf("%d is not a weekday", wd)}
			}
			if _, dup := seen[wd]; dup {
				return &ValidationError{Field: "week_days", Reason: fmt.Sprintf("%s listed twice", wd)}
			}
			seen[wd] = struct{}{}
		}
	}
	return nil
}

// stepDays is the distance between anchors for day-based frequencies.
func (r Rule) stepDays() int {
	switch r.Type {
	case Daily:
		return r.Interval
	case Weekly:
		return 7 * r.Interval
	case Biweekly:
		return 14 * r.Interval
	default:
		return 0
	}
}

func (r Rule) isExcluded(d Date) bool {
	for _, ex := range r.Exclusions {
		if ex == d {
			return true
		}
	}
	return false
}

func (r Rule) hasWeekDay(wd time.Weekday) bool {
	for _, day := range r.WeekDays {
		if day == wd {
			return true
		}
	}
	return false
}

func (r Rule) inBounds(d Date) bool {
	if d.Before(r.Start) {
		return false
	}
	return r.End == nil || !d.After(*r.End)
}
