// Package calendar derives per-day workload views from a task
// snapshot. Bucketing is a pure computation; navigation state (which
// month is displayed) belongs to the caller.
package calendar

import (
	"fmt"
	"time"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/entities"
)

const (
	// DayLimitMinutes is the workload above which a day is flagged
	// as overloaded (5 hours). Fixed constant, not configurable.
	DayLimitMinutes = 300

	// MarkerCap bounds how many per-task markers a day shows. Display
	// cap only; totals always reflect every qualifying task.
	MarkerCap = 3
)

// Bucket aggregates the qualifying tasks of one calendar day.
type Bucket struct {
	Tasks        []*entities.Task `json:"tasks"`
	TotalMinutes int              `json:"totalMinutes"`
	OverLimit    bool             `json:"overLimit"`
}

// Markers returns the priorities of the first qualifying tasks, capped
// at MarkerCap entries.
func (b Bucket) Markers() []entities.Priority {
	n := len(b.Tasks)
	if n > MarkerCap {
		n = MarkerCap
	}
	markers := make([]entities.Priority, 0, n)
	for _, t := range b.Tasks[:n] {
		if t.Priority != nil {
			markers = append(markers, *t.Priority)
		} else {
			markers = append(markers, "")
		}
	}
	return markers
}

// BucketByDate groups tasks by due date. Completed tasks and tasks
// without a due date never count toward a day's workload. Days with no
// qualifying tasks are absent from the map.
func BucketByDate(tasks []*entities.Task) map[string]Bucket {
	buckets := make(map[string]Bucket)
	for _, t := range tasks {
		if t.Completed || t.DueDate == nil {
			continue
		}
		b := buckets[*t.DueDate]
		b.Tasks = append(b.Tasks, t)
		b.TotalMinutes += t.EffectiveTimeCost()
		b.OverLimit = b.TotalMinutes > DayLimitMinutes
		buckets[*t.DueDate] = b
	}
	return buckets
}

// Month returns the day buckets falling within the given month.
func Month(tasks []*entities.Task, year int, month time.Month) map[string]Bucket {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	buckets := make(map[string]Bucket)
	for date, b := range BucketByDate(tasks) {
		if len(date) >= len(prefix) && date[:len(prefix)] == prefix {
			buckets[date] = b
		}
	}
	return buckets
}

// DateKey formats a year, month and day as the YYYY-MM-DD key used
// throughout the calendar view.
func DateKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
