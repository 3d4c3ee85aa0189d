package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/calendar"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/entities"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/query"
)

// TaskService is the mutation API plus the derived-view reads. Every
// operation is scoped to the acting user; reaching another user's task
// yields entities.ErrForbidden.
type TaskService interface {
	CreateTask(ctx context.Context, userID uuid.UUID, req CreateTaskRequest) (*entities.Task, error)
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*entities.Task, error)
	UpdateTask(ctx context.Context, userID, taskID uuid.UUID, req UpdateTaskRequest) (*entities.Task, error)
	ToggleComplete(ctx context.Context, userID, taskID uuid.UUID) (*entities.Task, error)
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
	ListTasks(ctx context.Context, userID uuid.UUID, params query.Params) ([]*entities.Task, error)
	Calendar(ctx context.Context, userID uuid.UUID, year int, month time.Month) (map[string]calendar.Bucket, error)
}

// AuthService handles account registration and token issuing.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Optional distinguishes an absent JSON field from an explicit null.
// Set is true when the field appeared in the body at all; Valid is
// true when it carried a non-null value. PATCH semantics: absent
// leaves the field untouched, null clears it.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// CreateTaskRequest carries the client-entered fields for a new task.
// Field constraints are enforced by the task service, which accumulates
// every violation into one ValidationError.
type CreateTaskRequest struct {
	Title    string             `json:"title"`
	Priority *entities.Priority `json:"priority"`
	DueDate  *string            `json:"dueDate"`
	TimeCost *int               `json:"timeCost"`
}

// UpdateTaskRequest carries a partial task update. Omitted fields stay
// untouched; explicit null clears the optional ones.
type UpdateTaskRequest struct {
	Title     Optional[string]            `json:"title"`
	Completed Optional[bool]              `json:"completed"`
	Priority  Optional[entities.Priority] `json:"priority"`
	DueDate   Optional[string]            `json:"dueDate"`
	TimeCost  Optional[int]               `json:"timeCost"`
}

// Auth related types
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string         `json:"accessToken"`
	TokenType   string         `json:"tokenType"`
	ExpiresIn   int64          `json:"expiresIn"`
	User        *entities.User `json:"user"`
}

// Claims is the validated identity extracted from an access token.
type Claims struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

// MessageResponse is the generic success envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the generic error envelope. Details carries
// field-level validation messages when present.
type ErrorResponse struct {
	Error   string                `json:"error"`
	Details []entities.FieldError `json:"details,omitempty"`
}
