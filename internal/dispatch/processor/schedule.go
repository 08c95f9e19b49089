package processor

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is the sending window a campaign must respect
type Schedule struct {
	// StartTime and EndTime are HH:MM, inclusive bounds
	StartTime string
	EndTime   string
	// BusinessDaysOnly rejects Saturdays and Sundays
	BusinessDaysOnly bool
	// IntervalSeconds is the pause between consecutive sends
	IntervalSeconds int
}

// DefaultSchedule sends on business days between 09:00 and 18:00 with
// 30 seconds between messages.
func DefaultSchedule() Schedule {
	return Schedule{
		StartTime:        "09:00",
		EndTime:          "18:00",
		BusinessDaysOnly: true,
		IntervalSeconds:  30,
	}
}

// Allows reports whether the schedule permits sending at the given
// moment. Both window bounds are inclusive.
func (s Schedule) Allows(now time.Time) bool {
	if s.BusinessDaysOnly {
		switch now.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}

	start, err := minuteOfDay(s.StartTime)
	if err != nil {
		return false
	}
	end, err := minuteOfDay(s.EndTime)
	if err != nil {
		return false
	}

	minute := now.Hour()*60 + now.Minute()
	return minute >= start && minute <= end
}

// Validate rejects malformed window bounds and negative intervals
func (s Schedule) Validate() error {
	start, err := minuteOfDay(s.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start time: %w", err)
	}
	end, err := minuteOfDay(s.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end time: %w", err)
	}
	if start > end {
		return fmt.Errorf("start time %s is after end time %s", s.StartTime, s.EndTime)
	}
	if s.IntervalSeconds < 0 {
		return fmt.Errorf("interval must not be negative")
	}
	return nil
}

func minuteOfDay(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("time %q is not in HH:MM format", hhmm)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("time %q has an invalid hour", hhmm)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q has an invalid minute", hhmm)
	}
	return hour*60 + minute, nil
}
