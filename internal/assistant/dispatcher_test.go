package assistant_test

import (
	"context"
	"testing"
	"time"

	"taskAssistant/internal/assistant"
	"taskAssistant/internal/models/task"
	"taskAssistant/internal/repository/task/inmemory"
	"taskAssistant/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher() (*assistant.Dispatcher, *service.TaskService) {
	svc := service.NewTaskService(inmemory.NewTaskStorage())
	return assistant.NewDispatcher(svc), svc
}

// TestDispatcher_CreateTask тестирует создание задачи из аргументов модели
func TestDispatcher_CreateTask(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	dispatcher, svc := newDispatcher()

	args := `{"title":"Finish report","description":"quarterly numbers","priority":"HIGH","dueDate":"2026-09-01"}`
	result := dispatcher.Dispatch(ctx, owner, "create_task", args)

	assert.Contains(t, result, "✅")
	assert.Contains(t, result, "Finish report")
	assert.Contains(t, result, "HIGH")

	tasks, err := svc.GetTasksByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.PriorityHigh, tasks[0].Priority)
	require.NotNil(t, tasks[0].DueDate)
}

// TestDispatcher_CreateTask_BadDueDate тестирует игнорирование нечитаемой даты
func TestDispatcher_CreateTask_BadDueDate(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	dispatcher, svc := newDispatcher()

	result := dispatcher.Dispatch(ctx, owner, "create_task", `{"title":"Call mom","dueDate":"tomorrow-ish"}`)
	assert.Contains(t, result, "✅")

	tasks, err := svc.GetTasksByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Nil(t, tasks[0].DueDate)
}

// TestDispatcher_CreateTask_BadJSON тестирует нечитаемые аргументы
func TestDispatcher_CreateTask_BadJSON(t *testing.T) {
	ctx := context.Background()
	dispatcher, _ := newDispatcher()

	result := dispatcher.Dispatch(ctx, uuid.New(), "create_task", `{not json`)
	assert.Equal(t, "❌ Could not execute function: create_task", result)
}

// TestDispatcher_UnknownFunction тестирует неизвестное имя функции
func TestDispatcher_UnknownFunction(t *testing.T) {
	ctx := context.Background()
	dispatcher, _ := newDispatcher()

	result := dispatcher.Dispatch(ctx, uuid.New(), "delete_everything", `{}`)
	assert.Equal(t, "❌ Unknown function: delete_everything", result)
}

// TestDispatcher_CreateMultipleTasks тестирует батч с пропуском пустых
func TestDispatcher_CreateMultipleTasks(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	dispatcher, svc := newDispatcher()

	args := `{"tasks":[{"title":"First"},{"title":""},{"title":"Second","priority":"URGENT"}]}`
	result := dispatcher.Dispatch(ctx, owner, "create_multiple_tasks", args)

	assert.Contains(t, result, "✅")
	assert.Contains(t, result, "2 tasks")

	tasks, err := svc.GetTasksByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

// TestDispatcher_CreateMultipleTasks_AllEmpty тестирует батч без валидных задач
func TestDispatcher_CreateMultipleTasks_AllEmpty(t *testing.T) {
	ctx := context.Background()
	dispatcher, _ := newDispatcher()

	result := dispatcher.Dispatch(ctx, uuid.New(), "create_multiple_tasks", `{"tasks":[{"title":""}]}`)
	assert.Equal(t, "❌ No valid tasks to create", result)
}

// TestDispatcher_GetAllTasks тестирует листинг задач
func TestDispatcher_GetAllTasks(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	dispatcher, svc := newDispatcher()

	result := dispatcher.Dispatch(ctx, owner, "get_all_tasks", `{}`)
	assert.Equal(t, "📋 You have no tasks yet.", result)

	_, err := svc.CreateTask(ctx, owner, task.Draft{Title: "Buy milk"})
	require.NoError(t, err)

	result = dispatcher.Dispatch(ctx, owner, "get_all_tasks", `{}`)
	assert.Contains(t, result, "📋 You have 1 tasks:")
	assert.Contains(t, result, "📝 Buy milk")
	assert.Contains(t, result, "TODO")
}

// TestDispatcher_FilterTasks тестирует порядок применения критериев
func TestDispatcher_FilterTasks(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	dispatcher, svc := newDispatcher()

	past := time.Now().Add(-time.Hour)

	_, err := svc.CreateTask(ctx, owner, task.Draft{Title: "Urgent thing", Priority: task.PriorityUrgent})
	require.NoError(t, err)
	overdue, err := svc.CreateTask(ctx, owner, task.Draft{Title: "Late thing", DueDate: &past})
	require.NoError(t, err)
	_, err = svc.UpdateTaskByID(ctx, owner, overdue.UUID, task.WithStatus(task.StatusInProgress))
	require.NoError(t, err)

	// status важнее searchTerm
	result := dispatcher.Dispatch(ctx, owner, "filter_tasks", `{"status":"IN_PROGRESS","searchTerm":"Urgent"}`)
	assert.Contains(t, result, "Late thing")
	assert.NotContains(t, result, "Urgent thing")

	// priority
	result = dispatcher.Dispatch(ctx, owner, "filter_tasks", `{"priority":"URGENT"}`)
	assert.Contains(t, result, "Urgent thing")

	// overdue
	result = dispatcher.Dispatch(ctx, owner, "filter_tasks", `{"overdue":true}`)
	assert.Contains(t, result, "Late thing")
	assert.NotContains(t, result, "Urgent thing")

	// searchTerm
	result = dispatcher.Dispatch(ctx, owner, "filter_tasks", `{"searchTerm":"urgent"}`)
	assert.Contains(t, result, "Urgent thing")

	// без критериев - все
	result = dispatcher.Dispatch(ctx, owner, "filter_tasks", `{}`)
	assert.Contains(t, result, "📋 Found 2 tasks:")
}

// TestDispatcher_FilterTasks_NoMatches тестирует пустой результат фильтра
func TestDispatcher_FilterTasks_NoMatches(t *testing.T) {
	ctx := context.Background()
	dispatcher, _ := newDispatcher()

	result := dispatcher.Dispatch(ctx, uuid.New(), "filter_tasks", `{"status":"COMPLETED"}`)
	assert.Equal(t, "📋 No tasks found matching your criteria.", result)
}

// TestDispatcher_FilterTasks_DueSoonHours тестирует окно dueSoon в часах
func TestDispatcher_FilterTasks_DueSoonHours(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	dispatcher, svc := newDispatcher()

	in40h := time.Now().Add(40 * time.Hour)
	_, err := svc.CreateTask(ctx, owner, task.Draft{Title: "Conference talk", DueDate: &in40h})
	require.NoError(t, err)

	// модель передаёт число часов, как и объявлено в каталоге
	result := dispatcher.Dispatch(ctx, owner, "filter_tasks", `{"dueSoon":48}`)
	assert.Contains(t, result, "Conference talk")

	// в более узкое окно задача не попадает
	result = dispatcher.Dispatch(ctx, owner, "filter_tasks", `{"dueSoon":24}`)
	assert.Equal(t, "📋 No tasks found matching your criteria.", result)
}

// TestDispatcher_FilterTasks_UnknownValues тестирует подсказку допустимых значений
func TestDispatcher_FilterTasks_UnknownValues(t *testing.T) {
	ctx := context.Background()
	dispatcher, _ := newDispatcher()

	result := dispatcher.Dispatch(ctx, uuid.New(), "filter_tasks", `{"status":"SOMEDAY"}`)
	assert.Equal(t, "❌ Unknown status: SOMEDAY. Valid statuses are: TODO, IN_PROGRESS, COMPLETED, CANCELLED, ON_HOLD", result)

	result = dispatcher.Dispatch(ctx, uuid.New(), "filter_tasks", `{"priority":"EXTREME"}`)
	assert.Equal(t, "❌ Unknown priority: EXTREME. Valid priorities are: LOW, MEDIUM, HIGH, URGENT", result)
}
