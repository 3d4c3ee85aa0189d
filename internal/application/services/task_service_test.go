package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/entities"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/query"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/infrastructure/logger"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/ports"
)

// fakeTaskRepo is an in-memory TaskRepository for service tests.
type fakeTaskRepo struct {
	tasks   map[uuid.UUID]*entities.Task
	failAll bool
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*entities.Task)}
}

var errRepoDown = errors.New("repository unavailable")

func (r *fakeTaskRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	if r.failAll {
		return nil, errRepoDown
	}
	out := make([]*entities.Task, 0)
	for _, t := range r.tasks {
		if t.UserID == userID {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	if r.failAll {
		return nil, errRepoDown
	}
	t, ok := r.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *entities.Task) error {
	if r.failAll {
		return errRepoDown
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *entities.Task) error {
	if r.failAll {
		return errRepoDown
	}
	if _, ok := r.tasks[task.ID]; !ok {
		return entities.ErrTaskNotFound
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if r.failAll {
		return errRepoDown
	}
	if _, ok := r.tasks[id]; !ok {
		return entities.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

// fakeCache records invalidations so tests can assert the mutation
// contract.
type fakeCache struct {
	store         map[string][]byte
	invalidations []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	_, ok := c.store[key]
	return ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.store[key] = []byte("set")
	return nil
}

func (c *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	c.invalidations = append(c.invalidations, pattern)
	for key := range c.store {
		delete(c.store, key)
	}
	return nil
}

func newTestService(repo ports.TaskRepository, cache ports.CacheRepository) *TaskService {
	return NewTaskService(repo, cache, logger.NewNop())
}

func optSet[T any](v T) ports.Optional[T] {
	return ports.Optional[T]{Set: true, Valid: true, Value: v}
}

func optNull[T any]() ports.Optional[T] {
	return ports.Optional[T]{Set: true}
}

func seedTask(repo *fakeTaskRepo, userID uuid.UUID) *entities.Task {
	task := &entities.Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "seeded",
		CreatedAt: time.Now().UTC(),
	}
	repo.tasks[task.ID] = task
	return task
}

func TestCreateTaskRoundTrip(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, nil)
	userID := uuid.New()

	due := "2025-06-10"
	cost := 45
	prio := entities.PriorityHigh
	created, err := svc.CreateTask(context.Background(), userID, ports.CreateTaskRequest{
		Title:    "  write report  ",
		DueDate:  &due,
		TimeCost: &cost,
		Priority: &prio,
	})
	require.NoError(t, err)

	assert.Equal(t, "write report", created.Title)
	assert.Equal(t, userID, created.UserID)
	assert.False(t, created.Completed)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := svc.GetTask(context.Background(), userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, fetched.Title)
	require.NotNil(t, fetched.TimeCost)
	assert.Equal(t, 45, *fetched.TimeCost)
}

func TestCreateTaskCollectsAllFieldErrors(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, nil)

	badDate := "June 10th"
	badCost := 0
	badPrio := entities.Priority("urgent")
	_, err := svc.CreateTask(context.Background(), uuid.New(), ports.CreateTaskRequest{
		Title:    "   ",
		DueDate:  &badDate,
		TimeCost: &badCost,
		Priority: &badPrio,
	})

	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 4)
	assert.Empty(t, repo.tasks, "nothing persists on validation failure")
}

func TestCreateTaskRejectsOverlongTitle(t *testing.T) {
	svc := newTestService(newFakeTaskRepo(), nil)

	long := make([]byte, entities.MaxTitleLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.CreateTask(context.Background(), uuid.New(), ports.CreateTaskRequest{
		Title: string(long),
	})

	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestTitleLengthCountsCharactersNotBytes(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, nil)
	userID := uuid.New()

	// 300 Cyrillic characters encode to 600 bytes; still a valid title.
	created, err := svc.CreateTask(context.Background(), userID, ports.CreateTaskRequest{
		Title: strings.Repeat("ё", 300),
	})
	require.NoError(t, err)

	_, err = svc.UpdateTask(context.Background(), userID, created.ID, ports.UpdateTaskRequest{
		Title: optSet(strings.Repeat("ё", entities.MaxTitleLength)),
	})
	require.NoError(t, err)

	_, err = svc.UpdateTask(context.Background(), userID, created.ID, ports.UpdateTaskRequest{
		Title: optSet(strings.Repeat("ё", entities.MaxTitleLength+1)),
	})
	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateTaskNullClearsOptionalFields(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, nil)
	userID := uuid.New()

	task := seedTask(repo, userID)
	due := "2025-06-10"
	cost := 60
	prio := entities.PriorityLow
	task.DueDate = &due
	task.TimeCost = &cost
	task.Priority = &prio

	updated, err := svc.UpdateTask(context.Background(), userID, task.ID, ports.UpdateTaskRequest{
		DueDate:  optNull[string](),
		TimeCost: optNull[int](),
		Priority: optNull[entities.Priority](),
	})
	require.NoError(t, err)

	assert.Nil(t, updated.DueDate)
	assert.Nil(t, updated.TimeCost)
	assert.Nil(t, updated.Priority)
	assert.Equal(t, "seeded", updated.Title, "omitted title untouched")
}

func TestUpdateTaskOmittedFieldsUntouched(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, nil)
	userID := uuid.New()

	task := seedTask(repo, userID)
	cost := 90
	task.TimeCost = &cost

	updated, err := svc.UpdateTask(context.Background(), userID, task.ID, ports.UpdateTaskRequest{
		Title: optSet("renamed"),
	})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Title)
	require.NotNil(t, updated.TimeCost)
	assert.Equal(t, 90, *updated.TimeCost)
}

func TestUpdateTaskNullTitleIsValidationError(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, nil)
	userID := uuid.New()
	task := seedTask(repo, userID)

	_, err := svc.UpdateTask(context.Background(), userID, task.ID, ports.UpdateTaskRequest{
		Title: optNull[string](),
	})

	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "seeded", repo.tasks[task.ID].Title, "failed update leaves task untouched")
}

func TestOwnershipNotFoundBeforeForbidden(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, nil)
	owner := uuid.New()
	intruder := uuid.New()
	task := seedTask(repo, owner)

	_, err := svc.GetTask(context.Background(), intruder, uuid.New())
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)

	_, err = svc.GetTask(context.Background(), intruder, task.ID)
	assert.ErrorIs(t, err, entities.ErrForbidden)
}

func TestMutationsEnforceOwnership(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, nil)
	owner := uuid.New()
	intruder := uuid.New()
	task := seedTask(repo, owner)

	_, err := svc.UpdateTask(context.Background(), intruder, task.ID, ports.UpdateTaskRequest{
		Title: optSet("stolen"),
	})
	assert.ErrorIs(t, err, entities.ErrForbidden)

	_, err = svc.ToggleComplete(context.Background(), intruder, task.ID)
	assert.ErrorIs(t, err, entities.ErrForbidden)

	err = svc.DeleteTask(context.Background(), intruder, task.ID)
	assert.ErrorIs(t, err, entities.ErrForbidden)

	assert.Contains(t, repo.tasks, task.ID)
	assert.Equal(t, "seeded", repo.tasks[task.ID].Title)
}

func TestToggleCompleteFlipsBothWays(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, nil)
	userID := uuid.New()
	task := seedTask(repo, userID)

	toggled, err := svc.ToggleComplete(context.Background(), userID, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = svc.ToggleComplete(context.Background(), userID, task.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
}

func TestDeleteTaskRemovesIt(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, nil)
	userID := uuid.New()
	task := seedTask(repo, userID)

	require.NoError(t, svc.DeleteTask(context.Background(), userID, task.ID))

	_, err := svc.GetTask(context.Background(), userID, task.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestListTasksAppliesPipeline(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, nil)
	userID := uuid.New()

	first := seedTask(repo, userID)
	first.Title = "buy milk"
	second := seedTask(repo, userID)
	second.Title = "ship package"
	seedTask(repo, uuid.New())

	search := "milk"
	got, err := svc.ListTasks(context.Background(), userID, query.Params{Search: &search})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "buy milk", got[0].Title)
}

func TestCalendarBucketsOpenDatedTasks(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, nil)
	userID := uuid.New()

	task := seedTask(repo, userID)
	due := "2025-06-10"
	task.DueDate = &due

	done := seedTask(repo, userID)
	done.DueDate = &due
	done.Completed = true

	buckets, err := svc.Calendar(context.Background(), userID, 2025, time.June)
	require.NoError(t, err)

	require.Contains(t, buckets, due)
	assert.Equal(t, entities.DefaultTimeCost, buckets[due].TotalMinutes)
}

func TestMutationsInvalidateCache(t *testing.T) {
	repo := newFakeTaskRepo()
	cache := newFakeCache()
	svc := newTestService(repo, cache)
	userID := uuid.New()

	created, err := svc.CreateTask(context.Background(), userID, ports.CreateTaskRequest{Title: "cached"})
	require.NoError(t, err)

	_, err = svc.UpdateTask(context.Background(), userID, created.ID, ports.UpdateTaskRequest{
		Title: optSet("renamed"),
	})
	require.NoError(t, err)

	_, err = svc.ToggleComplete(context.Background(), userID, created.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(context.Background(), userID, created.ID))

	assert.Len(t, cache.invalidations, 4)
}

func TestValidationFailureDoesNotInvalidateCache(t *testing.T) {
	repo := newFakeTaskRepo()
	cache := newFakeCache()
	svc := newTestService(repo, cache)

	_, err := svc.CreateTask(context.Background(), uuid.New(), ports.CreateTaskRequest{Title: ""})
	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)

	assert.Empty(t, cache.invalidations)
}

func TestStorageFailureWrapsAsStorageError(t *testing.T) {
	repo := newFakeTaskRepo()
	repo.failAll = true
	svc := newTestService(repo, nil)

	_, err := svc.ListTasks(context.Background(), uuid.New(), query.Params{})

	var serr *entities.StorageError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, errRepoDown)
}
