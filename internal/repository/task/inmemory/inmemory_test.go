package inmemory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"taskAssistant/internal/models/task"
	"taskAssistant/internal/repository"
	"taskAssistant/internal/repository/task/inmemory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(owner uuid.UUID, title string) *task.Task {
	return &task.Task{
		UUID:     uuid.New(),
		OwnerID:  owner,
		Title:    title,
		Status:   task.StatusTodo,
		Priority: task.PriorityMedium,
	}
}

// TestTaskStorage_New тестирует создание хранилища
func TestTaskStorage_New(t *testing.T) {
	storage := inmemory.NewTaskStorage()
	assert.NotNil(t, storage)
}

// TestTaskStorage_HealthCheck тестирует проверку здоровья
func TestTaskStorage_HealthCheck(t *testing.T) {
	storage := inmemory.NewTaskStorage()
	assert.NoError(t, storage.HealthCheck(context.Background()))
}

// TestTaskStorage_Create тестирует создание и чтение задачи
func TestTaskStorage_Create(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	taskToCreate := newTask(owner, "Test Task")
	err := storage.Create(ctx, taskToCreate)
	require.NoError(t, err)

	assert.False(t, taskToCreate.CreatedAt.IsZero())
	assert.Equal(t, 1, taskToCreate.Version)

	retrieved, err := storage.GetByID(ctx, owner, taskToCreate.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Test Task", retrieved.Title)
}

// TestTaskStorage_OwnerIsolation тестирует, что чужая задача неотличима от несуществующей
func TestTaskStorage_OwnerIsolation(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()
	stranger := uuid.New()

	taskToCreate := newTask(owner, "Private Task")
	require.NoError(t, storage.Create(ctx, taskToCreate))

	_, err := storage.GetByID(ctx, stranger, taskToCreate.UUID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = storage.Delete(ctx, stranger, taskToCreate.UUID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// задача на месте
	_, err = storage.GetByID(ctx, owner, taskToCreate.UUID)
	assert.NoError(t, err)
}

// TestTaskStorage_CreateBatch тестирует общую метку времени на батч
func TestTaskStorage_CreateBatch(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	tasks := []*task.Task{
		newTask(owner, "First"),
		newTask(owner, "Second"),
		newTask(owner, "Third"),
	}
	require.NoError(t, storage.CreateBatch(ctx, tasks))

	assert.Equal(t, tasks[0].CreatedAt, tasks[1].CreatedAt)
	assert.Equal(t, tasks[1].CreatedAt, tasks[2].CreatedAt)

	all, err := storage.GetByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// TestTaskStorage_Update тестирует инкремент версии и метку обновления
func TestTaskStorage_Update(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	taskToCreate := newTask(owner, "Task")
	require.NoError(t, storage.Create(ctx, taskToCreate))

	taskToCreate.Title = "Updated"
	require.NoError(t, storage.Update(ctx, taskToCreate))

	assert.Equal(t, 2, taskToCreate.Version)
	require.NotNil(t, taskToCreate.UpdatedAt)

	retrieved, err := storage.GetByID(ctx, owner, taskToCreate.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Updated", retrieved.Title)
}

// TestTaskStorage_Dependencies тестирует симметрию зависимостей
func TestTaskStorage_Dependencies(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	a := newTask(owner, "A")
	b := newTask(owner, "B")
	require.NoError(t, storage.Create(ctx, a))
	require.NoError(t, storage.Create(ctx, b))

	require.NoError(t, storage.AddDependency(ctx, owner, a.UUID, b.UUID))

	deps, err := storage.Dependencies(ctx, owner, a.UUID)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, b.UUID, deps[0].UUID)

	dependents, err := storage.Dependents(ctx, owner, b.UUID)
	require.NoError(t, err)
	require.Len(t, dependents, 1)
	assert.Equal(t, a.UUID, dependents[0].UUID)

	// повторная вставка того же ребра ничего не дублирует
	require.NoError(t, storage.AddDependency(ctx, owner, a.UUID, b.UUID))
	deps, err = storage.Dependencies(ctx, owner, a.UUID)
	require.NoError(t, err)
	assert.Len(t, deps, 1)
}

// TestTaskStorage_CyclicDependency тестирует отказ от цикла с неизменным графом
func TestTaskStorage_CyclicDependency(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	a := newTask(owner, "A")
	b := newTask(owner, "B")
	c := newTask(owner, "C")
	for _, tt := range []*task.Task{a, b, c} {
		require.NoError(t, storage.Create(ctx, tt))
	}

	// a -> b -> c
	require.NoError(t, storage.AddDependency(ctx, owner, a.UUID, b.UUID))
	require.NoError(t, storage.AddDependency(ctx, owner, b.UUID, c.UUID))

	// c -> a замкнул бы цикл
	err := storage.AddDependency(ctx, owner, c.UUID, a.UUID)
	assert.ErrorIs(t, err, repository.ErrCyclicDependency)

	// самозависимость тоже цикл
	err = storage.AddDependency(ctx, owner, a.UUID, a.UUID)
	assert.ErrorIs(t, err, repository.ErrCyclicDependency)

	// граф не изменился
	deps, err := storage.Dependencies(ctx, owner, c.UUID)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

// TestTaskStorage_ConcurrentCycleAttempts тестирует, что из пары встречных
// рёбер выживает ровно одно
func TestTaskStorage_ConcurrentCycleAttempts(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	a := newTask(owner, "A")
	b := newTask(owner, "B")
	require.NoError(t, storage.Create(ctx, a))
	require.NoError(t, storage.Create(ctx, b))

	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = storage.AddDependency(ctx, owner, a.UUID, b.UUID)
	}()
	go func() {
		defer wg.Done()
		errs[1] = storage.AddDependency(ctx, owner, b.UUID, a.UUID)
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, repository.ErrCyclicDependency)
		}
	}
	assert.Equal(t, 1, succeeded)
}

// TestTaskStorage_DeleteCascade тестирует каскадное удаление потомков
// и вычищение зависимостей
func TestTaskStorage_DeleteCascade(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	parent := newTask(owner, "Parent")
	require.NoError(t, storage.Create(ctx, parent))

	child := newTask(owner, "Child")
	child.ParentID = &parent.UUID
	require.NoError(t, storage.Create(ctx, child))

	grandchild := newTask(owner, "Grandchild")
	grandchild.ParentID = &child.UUID
	require.NoError(t, storage.Create(ctx, grandchild))

	other := newTask(owner, "Other")
	require.NoError(t, storage.Create(ctx, other))
	require.NoError(t, storage.AddDependency(ctx, owner, other.UUID, child.UUID))

	require.NoError(t, storage.Delete(ctx, owner, parent.UUID))

	for _, id := range []uuid.UUID{parent.UUID, child.UUID, grandchild.UUID} {
		_, err := storage.GetByID(ctx, owner, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	}

	// зависимость на удалённую задачу вычищена
	deps, err := storage.Dependencies(ctx, owner, other.UUID)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

// TestTaskStorage_CreateWithUnknownParent тестирует отказ от подзадачи без родителя
func TestTaskStorage_CreateWithUnknownParent(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	orphanParent := uuid.New()
	child := newTask(owner, "Child")
	child.ParentID = &orphanParent

	err := storage.Create(ctx, child)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTaskStorage_Queries тестирует выборки по статусу, приоритету и дедлайнам
func TestTaskStorage_Queries(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	past := time.Now().Add(-time.Hour)
	soon := time.Now().Add(2 * time.Hour)
	far := time.Now().Add(72 * time.Hour)

	overdueTask := newTask(owner, "Overdue report")
	overdueTask.DueDate = &past

	urgentTask := newTask(owner, "Urgent call")
	urgentTask.Priority = task.PriorityUrgent
	urgentTask.DueDate = &soon

	doneTask := newTask(owner, "Done homework")
	doneTask.Status = task.StatusCompleted
	doneTask.DueDate = &past

	farTask := newTask(owner, "Far away")
	farTask.DueDate = &far

	for _, tt := range []*task.Task{overdueTask, urgentTask, doneTask, farTask} {
		require.NoError(t, storage.Create(ctx, tt))
	}

	overdue, err := storage.GetOverdue(ctx, owner, time.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1) // completed не просрочена
	assert.Equal(t, overdueTask.UUID, overdue[0].UUID)

	byPriority, err := storage.GetByOwnerAndPriority(ctx, owner, task.PriorityUrgent)
	require.NoError(t, err)
	require.Len(t, byPriority, 1)
	assert.Equal(t, urgentTask.UUID, byPriority[0].UUID)

	byStatus, err := storage.GetByOwnerAndStatus(ctx, owner, task.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, byStatus, 1)

	dueSoon, err := storage.GetDueBetween(ctx, owner, time.Now(), time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, dueSoon, 1)
	assert.Equal(t, urgentTask.UUID, dueSoon[0].UUID)
}

// TestTaskStorage_Search тестирует регистронезависимый поиск
func TestTaskStorage_Search(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	first := newTask(owner, "Buy groceries")
	second := newTask(owner, "Call mom")
	second.Description = "also buy flowers"
	require.NoError(t, storage.Create(ctx, first))
	require.NoError(t, storage.Create(ctx, second))

	byTitle, err := storage.SearchTitle(ctx, owner, "BUY")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, first.UUID, byTitle[0].UUID)

	byDescription, err := storage.SearchDescription(ctx, owner, "Buy")
	require.NoError(t, err)
	require.Len(t, byDescription, 1)
	assert.Equal(t, second.UUID, byDescription[0].UUID)
}

// TestTaskStorage_Hierarchy тестирует выборки по иерархии
func TestTaskStorage_Hierarchy(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	parent := newTask(owner, "Parent")
	require.NoError(t, storage.Create(ctx, parent))

	child := newTask(owner, "Child")
	child.ParentID = &parent.UUID
	require.NoError(t, storage.Create(ctx, child))

	topLevel, err := storage.GetTopLevel(ctx, owner)
	require.NoError(t, err)
	require.Len(t, topLevel, 1)
	assert.Equal(t, parent.UUID, topLevel[0].UUID)

	children, err := storage.GetChildren(ctx, owner, parent.UUID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.UUID, children[0].UUID)
}

// TestTaskStorage_GetDueBefore тестирует выборку для воркера с лимитом
func TestTaskStorage_GetDueBefore(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	soon := time.Now().Add(time.Minute)
	for i := 0; i < 5; i++ {
		// задачи разных владельцев, воркер видит всех
		tt := newTask(uuid.New(), "Due soon")
		tt.DueDate = &soon
		require.NoError(t, storage.Create(ctx, tt))
	}

	tasks, err := storage.GetDueBefore(ctx, time.Now().Add(time.Hour), 3)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}
