package availability

import (
	"context"
	"time"

	"meetbot/models"
)

const dateLayout = "2006-01-02"

// DateRange lists every calendar day from start to end, both inclusive.
// End before start is rejected rather than swapped.
func DateRange(start, end string) ([]string, error) {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, &RangeError{Start: start, End: end, Message: "start date is not YYYY-MM-DD"}
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, &RangeError{Start: start, End: end, Message: "end date is not YYYY-MM-DD"}
	}
	if to.Before(from) {
		return nil, &RangeError{Start: start, End: end, Message: "end date precedes start date"}
	}

	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
	}
	return dates, nil
}

// FindSlots parses timeRange once and returns, in the order of dates, every date on
// which all participants are free for that window.
func (c *Checker) FindSlots(ctx context.Context, dates []string, timeRange string, participants []string) ([]models.FeasibleSlot, error) {
	start, end, err := ParseTimeRange(timeRange)
	if err != nil {
		return nil, err
	}

	var slots []models.FeasibleSlot
	for _, date := range dates {
		ok, err := c.IsAvailable(ctx, date, start, end, participants)
		if err != nil {
			return nil, err
		}
		if ok {
			slots = append(slots, models.FeasibleSlot{Date: date, Start: start, End: end})
		}
	}
	return slots, nil
}
