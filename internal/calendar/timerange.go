package calendar

import (
	"errors"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrInvalidDateRange = errors.New("date range start is after its end")
	ErrSlotDuration     = errors.New("slot duration must be positive")
	ErrOvernightWindow  = errors.New("window end must be after window start on the same day")
	ErrInvalidClock     = errors.New("time of day must be within [00:00, 24:00)")
)

// TimeRange — полуоткрытый интервал [Start, End) в абсолютном времени.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange проверяет, что обе границы заданы и интервал не пустой.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

func (tr TimeRange) Empty() bool {
	return !tr.End.After(tr.Start)
}

// Split режет интервал на подряд идущие куски длины d, начиная со Start;
// остаток короче d отбрасывается.
func (tr TimeRange) Split(d time.Duration) ([]TimeRange, error) {
	if d <= 0 {
		return nil, ErrSlotDuration
	}
	if tr.Empty() {
		return []TimeRange{}, nil
	}

	n := int(tr.Duration() / d)
	cur := tr.Start
	out := make([]TimeRange, 0, n)
	for i := 0; i < n; i++ {
		next := cur.Add(d)
		out = append(out, TimeRange{Start: cur, End: next})
		cur = next
	}
	return out, nil
}

// Overlaps: при touching = true общая граница тоже считается пересечением.
func (tr TimeRange) Overlaps(other TimeRange, touching bool) bool {
	if touching {
		return !tr.Start.After(other.End) && !other.Start.After(tr.End)
	}
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// OverlapsAny возвращает интервалы из existing, пересекающиеся с tr.
func (tr TimeRange) OverlapsAny(existing []TimeRange, touching bool) []TimeRange {
	var hits []TimeRange
	for _, e := range existing {
		if tr.Overlaps(e, touching) {
			hits = append(hits, e)
		}
	}
	return hits
}
