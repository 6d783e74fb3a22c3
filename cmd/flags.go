package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Leganyst/clinic-booking/internal/calendar"
)

func uuidFlag(cmd *cobra.Command, name string) (uuid.UUID, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("--%s: %w", name, err)
	}
	return id, nil
}

// parseDate принимает YYYY-MM-DD или RFC3339; дата трактуется в зоне расписания.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: expected YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

func dateFlag(cmd *cobra.Command, name string, loc *time.Location) (time.Time, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := parseDate(raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

func clockFlag(cmd *cobra.Command, name string) (time.Duration, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return 0, err
	}
	d, err := calendar.ParseClock(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

// rangeFlags читает --from/--to. Дата без времени в --to включает весь день.
func rangeFlags(cmd *cobra.Command, loc *time.Location) (calendar.TimeRange, error) {
	from, err := dateFlag(cmd, "from", loc)
	if err != nil {
		return calendar.TimeRange{}, err
	}
	rawTo, _ := cmd.Flags().GetString("to")
	to, err := dateFlag(cmd, "to", loc)
	if err != nil {
		return calendar.TimeRange{}, err
	}
	if _, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(rawTo), loc); err == nil {
		to = to.AddDate(0, 0, 1)
	}
	return calendar.TimeRange{Start: from, End: to}, nil
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "range start, YYYY-MM-DD or RFC3339")
	cmd.Flags().String("to", "", "range end, YYYY-MM-DD (inclusive day) or RFC3339 (exclusive)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 1, "page number, starting at 1")
	cmd.Flags().Int("size", calendar.DefaultPageSize, "page size")
}
