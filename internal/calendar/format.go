package calendar

import (
	"fmt"
	"time"
)

const (
	userDateLayout  = "02.01.2006"
	userClockLayout = "15:04"
)

// FormatSlotForUser печатает слот как "Monday, 10.03.2025, 08:00–08:30"
// в зоне loc (nil — зона самих времён). С includeID в конце дописывается
// "(ID: ...)", если id не пустой.
func FormatSlotForUser(tr TimeRange, loc *time.Location, includeID bool, id string) string {
	start, end := tr.Start, tr.End
	if loc != nil {
		start, end = start.In(loc), end.In(loc)
	}

	s := start.Weekday().String() + ", " + start.Format(userDateLayout) + ", " +
		start.Format(userClockLayout) + "–" + end.Format(userClockLayout)
	if !includeID || id == "" {
		return s
	}
	return fmt.Sprintf("%s (ID: %s)", s, id)
}
