package entities

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUserNotFound = errors.New("user not found")
	ErrForbidden    = errors.New("task belongs to another user")
	ErrEmailTaken   = errors.New("email already registered")
)

// Task field limits. DefaultTimeCost is a display and aggregation
// convention only; an absent time cost is never persisted as 30.
const (
	MaxTitleLength  = 500
	MaxTimeCost     = 1440
	DefaultTimeCost = 30
)

var dueDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Priority is the optional task priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank maps a priority to its comparable numeric value. An unset or
// unknown priority ranks below all three levels.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Task represents a single task owned by one user. DueDate holds a
// calendar date in YYYY-MM-DD form with no time component; nil means
// the task is undated.
type Task struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Completed bool      `json:"completed" db:"completed"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	DueDate   *string   `json:"dueDate,omitempty" db:"due_date"`
	Priority  *Priority `json:"priority,omitempty" db:"priority"`
	TimeCost  *int      `json:"timeCost,omitempty" db:"time_cost"`
}

// EffectiveTimeCost returns the task's estimated duration in minutes,
// substituting DefaultTimeCost when none is set.
func (t *Task) EffectiveTimeCost() int {
	if t.TimeCost == nil {
		return DefaultTimeCost
	}
	return *t.TimeCost
}

// PriorityRank returns the numeric rank of the task's priority,
// treating an unset priority as rank 0.
func (t *Task) PriorityRank() int {
	if t.Priority == nil {
		return 0
	}
	return t.Priority.Rank()
}

// DueOn reports whether the task is due on the given YYYY-MM-DD date.
func (t *Task) DueOn(date string) bool {
	return t.DueDate != nil && *t.DueDate == date
}

// User represents an account that owns tasks.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// ValidDueDate reports whether s matches the strict YYYY-MM-DD form.
func ValidDueDate(s string) bool {
	return dueDatePattern.MatchString(s)
}

// ValidTitle reports whether the trimmed title is non-empty and within
// the length limit. The limit counts characters, not bytes.
func ValidTitle(s string) bool {
	trimmed := strings.TrimSpace(s)
	return trimmed != "" && utf8.RuneCountInString(trimmed) <= MaxTitleLength
}

// ValidTimeCost reports whether minutes is a positive value not
// exceeding 24 hours.
func ValidTimeCost(minutes int) bool {
	return minutes > 0 && minutes <= MaxTimeCost
}

// FieldError describes a single field-level validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned by the mutation API when input fails the
// task field constraints. Validation always runs before any
// persistence call, so a ValidationError never leaves partial state.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any violation was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// StorageError wraps a persistence collaborator failure. The mutation
// API never retries; callers see a generic failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
