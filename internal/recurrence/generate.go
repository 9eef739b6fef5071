package recurrence

import "fmt"

// Occurrence is one concrete date of a recurring item. BaseID points back to
// the item the rule belongs to; callers materialize instances from it.
type Occurrence struct {
	Date   Date   `json:"date"`
	BaseID string `json:"base_id"`
}

type options struct {
	countExcluded bool
}

type Option func(*options)

// CountExcluded controls whether an excluded date consumes one slot of the
// GenerateBounded budget. The default is false: the caller gets up to limit
// real occurrences.
func CountExcluded(count bool) Option {
	return func(o *options) {
		o.countExcluded = count
	}
}

// GenerateBounded walks the rule forward from Start and returns at most limit
// occurrences, stopping early at End.
func GenerateBounded(baseID string, rule Rule, limit int, opts ...Option) ([]Occurrence, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: max occurrences must be at least 1, got %d", ErrInvalidLimit, limit)
	}

	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	next := candidates(rule)
	result := make([]Occurrence, 0, min(limit, 64))
	used := 0
	for used < limit {
		date := next()
		if rule.End != nil && date.After(*rule.End) {
			break
		}
		if rule.isExcluded(date) {
			if cfg.countExcluded {
				used++
			}
			continue
		}
		result = append(result, Occurrence{Date: date, BaseID: baseID})
		used++
	}

	return result, nil
}

// IsOccurrence reports whether date is produced by rule. It works from the
// distance to Start instead of walking the sequence. An invalid rule has no
// occurrences.
func IsOccurrence(date Date, rule Rule) bool {
	if rule.Validate() != nil {
		return false
	}
	if !rule.inBounds(date) || rule.isExcluded(date) {
		return false
	}

	switch rule.Type {
	case Daily:
		return rule.Start.DaysUntil(date)%rule.Interval == 0
	case Weekly, Biweekly:
		diff := rule.Start.DaysUntil(date)
		period := rule.stepDays()
		if len(rule.WeekDays) == 0 {
			return diff%period == 0
		}
		return diff%period < 7 && rule.hasWeekDay(date.Weekday())
	case Monthly:
		months := monthsBetween(rule.Start, date)
		if months%rule.Interval != 0 {
			return false
		}
		return date.Day == clampDay(rule.Start.Day, date.Year, date.Month)
	default:
		return false
	}
}

// GenerateForPeriod checks every day of [from, to] that also lies inside the
// rule's own bounds and keeps the ones IsOccurrence accepts.
func GenerateForPeriod(baseID string, rule Rule, from, to Date) ([]Occurrence, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: from %s is after to %s", ErrInvalidPeriod, from, to)
	}

	lo := from
	if lo.Before(rule.Start) {
		lo = rule.Start
	}
	hi := to
	if rule.End != nil && rule.End.Before(hi) {
		hi = *rule.End
	}

	result := []Occurrence{}
	for day := lo; !day.After(hi); day = day.AddDays(1) {
		if IsOccurrence(day, rule) {
			result = append(result, Occurrence{Date: day, BaseID: baseID})
		}
	}
	return result, nil
}

// candidates returns an unbounded generator of pattern dates in ascending
// order, ignoring End and exclusions.
func candidates(rule Rule) func() Date {
	n := 0
	switch {
	case rule.Type == Monthly:
		return func() Date {
			d := rule.Start.AddMonthsClamped(n * rule.Interval)
			n++
			return d
		}
	case len(rule.WeekDays) > 0:
		period := rule.stepDays()
		return func() Date {
			for {
				block, offset := n/7, n%7
				n++
				d := rule.Start.AddDays(block*period + offset)
				if rule.hasWeekDay(d.Weekday()) {
					return d
				}
			}
		}
	default:
		step := rule.stepDays()
		return func() Date {
			d := rule.Start.AddDays(n * step)
			n++
			return d
		}
	}
}
