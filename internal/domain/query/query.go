// Package query implements the task list selection pipeline: filters
// are ANDed, then a single stable sort orders the survivors. Select is
// a pure function of its inputs and never fails for well-formed input.
package query

import (
	"sort"
	"strings"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/entities"
)

// SortField selects the sort key for a task list.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByPriority  SortField = "priority"
	SortByDuration  SortField = "duration"
)

func (f SortField) IsValid() bool {
	switch f {
	case SortByCreatedAt, SortByPriority, SortByDuration:
		return true
	default:
		return false
	}
}

// Order is the sort direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

func (o Order) IsValid() bool {
	return o == OrderAsc || o == OrderDesc
}

// Params holds the recognized filter and sort options. Nil filters
// impose no constraint. An empty SortBy falls back to createdAt and an
// empty SortOrder falls back to desc.
type Params struct {
	Date      *string
	Search    *string
	Completed *bool
	SortBy    SortField
	SortOrder Order

	// DurationTiebreak breaks equal-priority ties by effective
	// duration, shortest first. Used by the day list surface; not
	// exposed as a query parameter.
	DurationTiebreak bool
}

func (p Params) sortField() SortField {
	if p.SortBy.IsValid() {
		return p.SortBy
	}
	return SortByCreatedAt
}

func (p Params) descending() bool {
	return p.SortOrder != OrderAsc
}

func (p Params) matches(t *entities.Task) bool {
	if p.Date != nil && !t.DueOn(*p.Date) {
		return false
	}
	if p.Completed != nil && t.Completed != *p.Completed {
		return false
	}
	if p.Search != nil {
		if !strings.Contains(strings.ToLower(t.Title), strings.ToLower(*p.Search)) {
			return false
		}
	}
	return true
}

// Select returns the ordered subset of tasks matching every present
// filter. The input slice is never mutated; ties keep input order.
func Select(tasks []*entities.Task, p Params) []*entities.Task {
	out := make([]*entities.Task, 0, len(tasks))
	for _, t := range tasks {
		if p.matches(t) {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return p.less(out[i], out[j])
	})

	return out
}

func (p Params) less(a, b *entities.Task) bool {
	switch p.sortField() {
	case SortByPriority:
		ar, br := a.PriorityRank(), b.PriorityRank()
		if ar != br {
			if p.descending() {
				return ar > br
			}
			return ar < br
		}
		if p.DurationTiebreak {
			return a.EffectiveTimeCost() < b.EffectiveTimeCost()
		}
		return false
	case SortByDuration:
		ac, bc := a.EffectiveTimeCost(), b.EffectiveTimeCost()
		if ac == bc {
			return false
		}
		if p.descending() {
			return ac > bc
		}
		return ac < bc
	default:
		if a.CreatedAt.Equal(b.CreatedAt) {
			return false
		}
		if p.descending() {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
}
