package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/entities"
)

// TaskRepository defines the persistence contract for tasks. Two
// adapters implement it: the sqlx/Postgres repository and the embedded
// gorm/SQLite store; the driver is selected at startup.
type TaskRepository interface {
	// ListByUser returns every task owned by the user. Ordering is an
	// optimization hint only; the query engine re-sorts in memory.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error)
	// GetByID returns entities.ErrTaskNotFound when no task exists,
	// regardless of owner. Ownership is checked by the service layer.
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	Create(ctx context.Context, task *entities.Task) error
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines the persistence contract for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	// GetByEmail returns entities.ErrUserNotFound when the email is
	// unknown.
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}

// CacheRepository caches derived query results. Every successful
// mutation invalidates the owning user's entries; a nil cache is a
// valid configuration and disables caching entirely.
type CacheRepository interface {
	// Get unmarshals the cached value into dest and reports whether
	// the key was present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}
