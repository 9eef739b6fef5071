package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ronda-app-go/internal/recurrence"
)

type occurrencesFlags struct {
	frequency     string
	interval      int
	start         string
	end           string
	weekDays      []string
	exclude       []string
	from          string
	to            string
	max           int
	countExcluded bool
	baseID        string
}

func newOccurrencesCmd() *cobra.Command {
	var f occurrencesFlags

	cmd := &cobra.Command{
		Use:   "occurrences",
		Short: "Expand a recurrence rule locally",
		Long: `Expand a recurrence rule without contacting the server. Either --from and
--to select a date window, or --max bounds the number of generated dates.`,
		Example: `  ronda-agent occurrences --type WEEKLY --start 2024-03-04 --weekdays 1,3 --from 2024-03-01 --to 2024-03-31
  ronda-agent occurrences --type MONTHLY --start 2024-01-31 --max 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := f.rule()
			if err != nil {
				return err
			}

			var occurrences []recurrence.Occurrence
			switch {
			case f.from != "" || f.to != "":
				from, to, err := f.window()
				if err != nil {
					return err
				}
				occurrences, err = recurrence.GenerateForPeriod(f.baseID, rule, from, to)
				if err != nil {
					return err
				}
			case f.max > 0:
				occurrences, err = recurrence.GenerateBounded(f.baseID, rule, f.max, recurrence.CountExcluded(f.countExcluded))
				if err != nil {
					return err
				}
			default:
				return errors.New("either --from/--to or --max is required")
			}

			out := cmd.OutOrStdout()
			for _, occ := range occurrences {
				fmt.Fprintf(out, "%s %s\n", occ.Date, occ.Date.Weekday())
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.frequency, "type", "", "DAILY, WEEKLY, BIWEEKLY or MONTHLY")
	flags.IntVar(&f.interval, "interval", 1, "repeat every n periods")
	flags.StringVar(&f.start, "start", "", "first date of the rule (YYYY-MM-DD)")
	flags.StringVar(&f.end, "end", "", "last date of the rule (YYYY-MM-DD)")
	flags.StringSliceVar(&f.weekDays, "weekdays", nil, "weekdays for WEEKLY and BIWEEKLY rules, 0 is Sunday")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "dates to skip (YYYY-MM-DD)")
	flags.StringVar(&f.from, "from", "", "window start (YYYY-MM-DD)")
	flags.StringVar(&f.to, "to", "", "window end (YYYY-MM-DD)")
	flags.IntVar(&f.max, "max", 0, "number of dates to generate")
	flags.BoolVar(&f.countExcluded, "count-excluded", false, "excluded dates count towards --max")
	flags.StringVar(&f.baseID, "base-id", "local", "id copied into every occurrence")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func (f occurrencesFlags) rule() (recurrence.Rule, error) {
	frequency, err := recurrence.ParseFrequency(f.frequency)
	if err != nil {
		return recurrence.Rule{}, err
	}
	start, err := recurrence.ParseDate(f.start)
	if err != nil {
		return recurrence.Rule{}, fmt.Errorf("--start: %w", err)
	}

	rule := recurrence.Rule{Type: frequency, Interval: f.interval, Start: start}
	if f.end != "" {
		end, err := recurrence.ParseDate(f.end)
		if err != nil {
			return recurrence.Rule{}, fmt.Errorf("--end: %w", err)
		}
		rule.End = &end
	}
	for _, value := range f.weekDays {
		day, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || day < 0 || day > 6 {
			return recurrence.Rule{}, fmt.Errorf("--weekdays: %q is not a weekday between 0 and 6", value)
		}
		rule.WeekDays = append(rule.WeekDays, time.Weekday(day))
	}
	for _, value := range f.exclude {
		date, err := recurrence.ParseDate(strings.TrimSpace(value))
		if err != nil {
			return recurrence.Rule{}, fmt.Errorf("--exclude: %w", err)
		}
		rule.Exclusions = append(rule.Exclusions, date)
	}
	return rule, rule.Validate()
}

func (f occurrencesFlags) window() (recurrence.Date, recurrence.Date, error) {
	if f.from == "" || f.to == "" {
		return recurrence.Date{}, recurrence.Date{}, errors.New("--from and --to go together")
	}
	from, err := recurrence.ParseDate(f.from)
	if err != nil {
		return recurrence.Date{}, recurrence.Date{}, fmt.Errorf("--from: %w", err)
	}
	to, err := recurrence.ParseDate(f.to)
	if err != nil {
		return recurrence.Date{}, recurrence.Date{}, fmt.Errorf("--to: %w", err)
	}
	return from, to, nil
}
