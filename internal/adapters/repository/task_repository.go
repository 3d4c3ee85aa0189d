package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/entities"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/ports"
)

// TaskRepositoryImpl implements ports.TaskRepository on Postgres.
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	// The ordering here is a hint only; the query engine re-sorts in
	// memory.
	query := `
		SELECT id, user_id, title, completed, created_at, due_date, priority, time_cost
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC`

	tasks := []*entities.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	query := `
		SELECT id, user_id, title, completed, created_at, due_date, priority, time_cost
		FROM tasks
		WHERE id = $1`

	var task entities.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, completed, created_at, due_date, priority, time_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Completed,
		task.CreatedAt, task.DueDate, task.Priority, task.TimeCost,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, completed = $3, due_date = $4, priority = $5, time_cost = $6
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Completed, task.DueDate, task.Priority, task.TimeCost,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if rows == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if rows == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}
