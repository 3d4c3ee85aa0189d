package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/calendar"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/entities"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/query"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/infrastructure/logger"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/ports"
)

const taskCacheTTL = 5 * time.Minute

// TaskService implements the task mutation API and the derived views.
// The repository owns the canonical collection; list and calendar
// reads work on snapshots and the in-memory pipeline is authoritative
// for ordering.
type TaskService struct {
	taskRepo ports.TaskRepository
	cache    ports.CacheRepository
	logger   *logger.Logger
}

// NewTaskService creates a new task service. cache may be nil, which
// disables snapshot caching.
func NewTaskService(taskRepo ports.TaskRepository, cache ports.CacheRepository, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		cache:    cache,
		logger:   logger,
	}
}

// CreateTask validates the request, assigns identity and creation
// time, and persists the task. Nothing is persisted when validation
// fails.
func (s *TaskService) CreateTask(ctx context.Context, userID uuid.UUID, req ports.CreateTaskRequest) (*entities.Task, error) {
	verr := &entities.ValidationError{}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		verr.Add("title", "title is required")
	} else if utf8.RuneCountInString(title) > entities.MaxTitleLength {
		verr.Add("title", "title too long")
	}
	if req.Priority != nil && !req.Priority.IsValid() {
		verr.Add("priority", "must be one of low, medium, high")
	}
	if req.DueDate != nil && !entities.ValidDueDate(*req.DueDate) {
		verr.Add("dueDate", "invalid date format (YYYY-MM-DD)")
	}
	if req.TimeCost != nil && !entities.ValidTimeCost(*req.TimeCost) {
		verr.Add("timeCost", "must be between 1 and 1440 minutes")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	task := &entities.Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Completed: false,
		CreatedAt: time.Now().UTC(),
		DueDate:   req.DueDate,
		Priority:  req.Priority,
		TimeCost:  req.TimeCost,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, &entities.StorageError{Op: "create task", Err: err}
	}

	s.invalidate(ctx, userID)
	s.logger.Info("Task created", "task_id", task.ID, "user_id", userID)

	return task, nil
}

// GetTask returns the task when it exists and belongs to the acting
// user.
func (s *TaskService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*entities.Task, error) {
	return s.getOwned(ctx, userID, taskID)
}

// UpdateTask applies a partial update. Omitted fields are untouched;
// explicit null clears dueDate, priority and timeCost. Title and
// completed cannot be cleared.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	verr := &entities.ValidationError{}

	title := task.Title
	if req.Title.Set {
		if !req.Title.Valid {
			verr.Add("title", "title is required")
		} else {
			title = strings.TrimSpace(req.Title.Value)
			if title == "" {
				verr.Add("title", "title is required")
			} else if utf8.RuneCountInString(title) > entities.MaxTitleLength {
				verr.Add("title", "title too long")
			}
		}
	}
	if req.Priority.Set && req.Priority.Valid && !req.Priority.Value.IsValid() {
		verr.Add("priority", "must be one of low, medium, high")
	}
	if req.DueDate.Set && req.DueDate.Valid && !entities.ValidDueDate(req.DueDate.Value) {
		verr.Add("dueDate", "invalid date format (YYYY-MM-DD)")
	}
	if req.TimeCost.Set && req.TimeCost.Valid && !entities.ValidTimeCost(req.TimeCost.Value) {
		verr.Add("timeCost", "must be between 1 and 1440 minutes")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	task.Title = title
	if req.Completed.Set && req.Completed.Valid {
		task.Completed = req.Completed.Value
	}
	if req.Priority.Set {
		if req.Priority.Valid {
			p := req.Priority.Value
			task.Priority = &p
		} else {
			task.Priority = nil
		}
	}
	if req.DueDate.Set {
		if req.DueDate.Valid {
			d := req.DueDate.Value
			task.DueDate = &d
		} else {
			task.DueDate = nil
		}
	}
	if req.TimeCost.Set {
		if req.TimeCost.Valid {
			c := req.TimeCost.Value
			task.TimeCost = &c
		} else {
			task.TimeCost = nil
		}
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, &entities.StorageError{Op: "update task", Err: err}
	}

	s.invalidate(ctx, userID)
	s.logger.Info("Task updated", "task_id", task.ID, "user_id", userID)

	return task, nil
}

// ToggleComplete flips the task's completed flag.
func (s *TaskService) ToggleComplete(ctx context.Context, userID, taskID uuid.UUID) (*entities.Task, error) {
	task, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	task.Completed = !task.Completed

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, &entities.StorageError{Op: "toggle task", Err: err}
	}

	s.invalidate(ctx, userID)
	s.logger.Info("Task toggled", "task_id", task.ID, "completed", task.Completed)

	return task, nil
}

// DeleteTask removes the task permanently.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		return &entities.StorageError{Op: "delete task", Err: err}
	}

	s.invalidate(ctx, userID)
	s.logger.Info("Task deleted", "task_id", task.ID, "user_id", userID)

	return nil
}

// ListTasks returns the user's tasks after applying the filter and
// sort pipeline in memory.
func (s *TaskService) ListTasks(ctx context.Context, userID uuid.UUID, params query.Params) ([]*entities.Task, error) {
	tasks, err := s.loadTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return query.Select(tasks, params), nil
}

// Calendar returns the day buckets of the given month for the user's
// open dated tasks.
func (s *TaskService) Calendar(ctx context.Context, userID uuid.UUID, year int, month time.Month) (map[string]calendar.Bucket, error) {
	tasks, err := s.loadTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return calendar.Month(tasks, year, month), nil
}

// getOwned fetches the task and enforces ownership. The order matters:
// an absent task reports not-found, an existing task owned by someone
// else reports forbidden without leaking further detail.
func (s *TaskService) getOwned(ctx context.Context, userID, taskID uuid.UUID) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, &entities.StorageError{Op: "get task", Err: err}
	}
	if task.UserID != userID {
		return nil, entities.ErrForbidden
	}
	return task, nil
}

// loadTasks reads the user's task snapshot, via the cache when one is
// configured. Cache failures degrade to a repository read.
func (s *TaskService) loadTasks(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	key := taskCacheKey(userID)

	if s.cache != nil {
		var cached []*entities.Task
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Task cache read failed", "error", err, "user_id", userID)
		} else if hit {
			return cached, nil
		}
	}

	tasks, err := s.taskRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, &entities.StorageError{Op: "list tasks", Err: err}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, tasks, taskCacheTTL); err != nil {
			s.logger.Warn("Task cache write failed", "error", err, "user_id", userID)
		}
	}

	return tasks, nil
}

// invalidate drops cached snapshots after a successful mutation so the
// next read re-derives every view.
func (s *TaskService) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, taskCacheKey(userID)); err != nil {
		s.logger.Warn("Task cache invalidation failed", "error", err, "user_id", userID)
	}
}

func taskCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("tasks:%s", userID)
}
