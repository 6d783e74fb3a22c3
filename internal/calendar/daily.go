package calendar

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// ClockRange — дневной интервал [Start, End), заданный смещением от полуночи.
// Интервалы через полночь не поддерживаются.
type ClockRange struct {
	Start time.Duration
	End   time.Duration
}

func NewClockRange(start, end time.Duration) (ClockRange, error) {
	cr := ClockRange{Start: start, End: end}
	if err := cr.Validate(); err != nil {
		return ClockRange{}, err
	}
	return cr, nil
}

func (cr ClockRange) Validate() error {
	if cr.Start < 0 || cr.Start >= day || cr.End <= 0 || cr.End > day {
		return ErrInvalidClock
	}
	if cr.End <= cr.Start {
		return ErrOvernightWindow
	}
	return nil
}

func (cr ClockRange) Duration() time.Duration {
	return cr.End - cr.Start
}

// onDate проецирует дневной интервал на фиксированную дату, чтобы
// сравнивать окна между собой.
func (cr ClockRange) onDate(date time.Time) TimeRange {
	base := CivilDate(date)
	return TimeRange{Start: base.Add(cr.Start), End: base.Add(cr.End)}
}

// ClockRangesOverlap сообщает, пересекается ли cr хотя бы с одним из existing.
func ClockRangesOverlap(cr ClockRange, existing []ClockRange) bool {
	ref := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	others := make([]TimeRange, 0, len(existing))
	for _, e := range existing {
		others = append(others, e.onDate(ref))
	}
	return len(cr.onDate(ref).OverlapsAny(others, false)) > 0
}

// ParseClock разбирает "HH:MM" или "HH:MM:SS".
func ParseClock(s string) (time.Duration, error) {
	if s == "24:00" || s == "24:00:00" {
		return day, nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("parse time of day %q: expected HH:MM", s)
}

// FormatClock печатает смещение от полуночи как "HH:MM".
func FormatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

// CivilDate отбрасывает время и зону, оставляя календарную дату в UTC.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WallClock переводит дату и время суток в абсолютный момент в зоне loc.
//
// Неоднозначное время (перевод часов назад) даёт более ранний момент.
// Несуществующее время (перевод вперёд) считается по смещению, действовавшему
// до перехода, то есть сдвигается вперёд на длину разрыва.
func WallClock(date time.Time, clock time.Duration, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	naive := CivilDate(date).Add(clock)

	_, offBefore := naive.Add(-day).In(loc).Zone()
	_, offAfter := naive.Add(day).In(loc).Zone()

	early := naive.Add(-time.Duration(offBefore) * time.Second).In(loc)
	late := naive.Add(-time.Duration(offAfter) * time.Second).In(loc)
	if late.Before(early) {
		early, late = late, early
	}

	switch {
	case sameWall(early, naive):
		return early
	case sameWall(late, naive):
		return late
	default:
		// Разрыв: offBefore даёт момент сразу после перехода.
		return naive.Add(-time.Duration(offBefore) * time.Second).In(loc)
	}
}

func sameWall(t, naive time.Time) bool {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC).Equal(naive)
}

// ExpandDaily разворачивает дневное окно на каждую дату из [from, to]
// (обе включительно) и режет каждый день на слоты длительности d.
// Шаг идёт в абсолютном времени, поэтому каждый слот ровно d.
func ExpandDaily(
	from, to time.Time,
	clock ClockRange,
	d time.Duration,
	loc *time.Location,
) ([]TimeRange, error) {
	if d <= 0 {
		return nil, ErrSlotDuration
	}
	if err := clock.Validate(); err != nil {
		return nil, err
	}
	first, last := CivilDate(from), CivilDate(to)
	if first.After(last) {
		return nil, ErrInvalidDateRange
	}

	var result []TimeRange
	for date := first; !date.After(last); date = date.AddDate(0, 0, 1) {
		tr := TimeRange{
			Start: WallClock(date, clock.Start, loc),
			End:   WallClock(date, clock.End, loc),
		}
		slots, err := tr.Split(d)
		if err != nil {
			return nil, err
		}
		result = append(result, slots...)
	}
	return result, nil
}
