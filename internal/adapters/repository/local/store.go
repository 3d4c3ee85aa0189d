// Package local is the embedded persistence variant: a single SQLite
// file managed through GORM. It is interchangeable with the Postgres
// repositories behind the same ports.
package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/entities"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/ports"
)

// Store owns the SQLite handle and hands out repository views.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite file and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	if err := db.AutoMigrate(&userModel{}, &taskModel{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}

	return &Store{db: db}, nil
}

// Tasks returns the task repository view.
func (s *Store) Tasks() ports.TaskRepository {
	return &taskRepository{db: s.db}
}

// Users returns the user repository view.
func (s *Store) Users() ports.UserRepository {
	return &userRepository{db: s.db}
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck pings the underlying database.
func (s *Store) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// taskModel is the GORM row shape for tasks.
type taskModel struct {
	ID        string    `gorm:"primarykey;size:36"`
	UserID    string    `gorm:"size:36;index;not null"`
	Title     string    `gorm:"size:500;not null"`
	Completed bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	DueDate   *string   `gorm:"size:10"`
	Priority  *string   `gorm:"size:10"`
	TimeCost  *int
}

func (taskModel) TableName() string {
	return "tasks"
}

// userModel is the GORM row shape for users.
type userModel struct {
	ID           string    `gorm:"primarykey;size:36"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (userModel) TableName() string {
	return "users"
}

func toTaskModel(t *entities.Task) *taskModel {
	m := &taskModel{
		ID:        t.ID.String(),
		UserID:    t.UserID.String(),
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
		DueDate:   t.DueDate,
		TimeCost:  t.TimeCost,
	}
	if t.Priority != nil {
		p := string(*t.Priority)
		m.Priority = &p
	}
	return m
}

func toTaskEntity(m *taskModel) (*entities.Task, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse task id: %w", err)
	}
	userID, err := uuid.Parse(m.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse task user id: %w", err)
	}

	t := &entities.Task{
		ID:        id,
		UserID:    userID,
		Title:     m.Title,
		Completed: m.Completed,
		CreatedAt: m.CreatedAt,
		DueDate:   m.DueDate,
		TimeCost:  m.TimeCost,
	}
	if m.Priority != nil {
		p := entities.Priority(*m.Priority)
		t.Priority = &p
	}
	return t, nil
}

// taskRepository implements ports.TaskRepository on SQLite.
type taskRepository struct {
	db *gorm.DB
}

func (r *taskRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	var rows []taskModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]*entities.Task, 0, len(rows))
	for i := range rows {
		task, err := toTaskEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	var row taskModel
	err := r.db.WithContext(ctx).First(&row, "id = ?", id.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return toTaskEntity(&row)
}

func (r *taskRepository) Create(ctx context.Context, task *entities.Task) error {
	if err := r.db.WithContext(ctx).Create(toTaskModel(task)).Error; err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *taskRepository) Update(ctx context.Context, task *entities.Task) error {
	result := r.db.WithContext(ctx).
		Model(&taskModel{}).
		Where("id = ?", task.ID.String()).
		Select("Title", "Completed", "DueDate", "Priority", "TimeCost").
		Updates(toTaskModel(task))
	if result.Error != nil {
		return fmt.Errorf("update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&taskModel{}, "id = ?", id.String())
	if result.Error != nil {
		return fmt.Errorf("delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrTaskNotFound
	}
	return nil
}

// userRepository implements ports.UserRepository on SQLite.
type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *entities.User) error {
	row := &userModel{
		ID:           user.ID.String(),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).First(&row, "id = ?", id.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return toUserEntity(&row)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).First(&row, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return toUserEntity(&row)
}

func toUserEntity(m *userModel) (*entities.User, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	return &entities.User{
		ID:           id,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}
