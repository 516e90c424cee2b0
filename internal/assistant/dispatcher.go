package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"taskAssistant/internal/logger"
	"taskAssistant/internal/models/task"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskOperations - доменные операции, доступные модели через вызов функций
type TaskOperations interface {
	CreateTask(ctx context.Context, owner uuid.UUID, draft task.Draft) (*task.Task, error)
	CreateTasksBatch(ctx context.Context, owner uuid.UUID, drafts []task.Draft) ([]*task.Task, error)
	GetTasksByOwner(ctx context.Context, owner uuid.UUID) ([]*task.Task, error)
	GetTasksByStatus(ctx context.Context, owner uuid.UUID, status task.Status) ([]*task.Task, error)
	GetTasksByPriority(ctx context.Context, owner uuid.UUID, priority task.Priority) ([]*task.Task, error)
	GetOverdueTasks(ctx context.Context, owner uuid.UUID) ([]*task.Task, error)
	GetTasksDueSoon(ctx context.Context, owner uuid.UUID, hours int) ([]*task.Task, error)
	SearchTasks(ctx context.Context, owner uuid.UUID, term string) ([]*task.Task, error)
}

// Dispatcher выполняет вызов функции от модели и превращает результат в
// человекочитаемую строку. Ошибки не всплывают наружу: любая проблема
// становится строкой с ❌, которую модель и пользователь видят как ответ
type Dispatcher struct {
	tasks TaskOperations
}

func NewDispatcher(tasks TaskOperations) *Dispatcher {
	return &Dispatcher{tasks: tasks}
}

type taskArgs struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
}

type multipleTasksArgs struct {
	Tasks []taskArgs `json:"tasks"`
}

type filterArgs struct {
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	Overdue    bool   `json:"overdue"`
	DueSoon    *int   `json:"dueSoon"`
	SearchTerm string `json:"searchTerm"`
}

func (d *Dispatcher) Dispatch(ctx context.Context, owner uuid.UUID, name, argsJSON string) string {
	logger.Info("Assistant: Вызов функции",
		zap.String("function", name),
		zap.String("owner_id", owner.String()))

	var result string
	var err error

	switch name {
	case fnCreateTask:
		result, err = d.createTask(ctx, owner, argsJSON)
	case fnCreateMultiple:
		result, err = d.createMultipleTasks(ctx, owner, argsJSON)
	case fnGetAllTasks:
		result, err = d.getAllTasks(ctx, owner)
	case fnFilterTasks:
		result, err = d.filterTasks(ctx, owner, argsJSON)
	default:
		logger.Warn("Assistant: Неизвестная функция", zap.String("function", name))
		return fmt.Sprintf("❌ Unknown function: %s", name)
	}

	if err != nil {
		logger.Error("Assistant: Ошибка выполнения функции", err, zap.String("function", name))
		return fmt.Sprintf("❌ Could not execute function: %s", name)
	}
	return result
}

func (d *Dispatcher) createTask(ctx context.Context, owner uuid.UUID, argsJSON string) (string, error) {
	var args taskArgs
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("разбор аргументов: %w", err)
	}

	t, err := d.tasks.CreateTask(ctx, owner, draftFromArgs(args))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Task created successfully: \"%s\" with priority %s", t.Title, t.Priority.Display()), nil
}

func (d *Dispatcher) createMultipleTasks(ctx context.Context, owner uuid.UUID, argsJSON string) (string, error) {
	var args multipleTasksArgs
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("разбор аргументов: %w", err)
	}

	drafts := make([]task.Draft, 0, len(args.Tasks))
	for _, a := range args.Tasks {
		drafts = append(drafts, draftFromArgs(a))
	}

	created, err := d.tasks.CreateTasksBatch(ctx, owner, drafts)
	if err != nil {
		return "", err
	}
	if len(created) == 0 {
		return "❌ No valid tasks to create", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Successfully created %d tasks:\n", len(created))
	for _, t := range created {
		b.WriteString(formatTask(t))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (d *Dispatcher) getAllTasks(ctx context.Context, owner uuid.UUID) (string, error) {
	tasks, err := d.tasks.GetTasksByOwner(ctx, owner)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "📋 You have no tasks yet.", nil
	}
	return formatTaskList(fmt.Sprintf("📋 You have %d tasks:", len(tasks)), tasks), nil
}

// filterTasks применяет ровно один критерий в фиксированном порядке:
// status, затем priority, overdue, dueSoon, searchTerm; без критериев - все задачи
func (d *Dispatcher) filterTasks(ctx context.Context, owner uuid.UUID, argsJSON string) (string, error) {
	var args filterArgs
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("разбор аргументов: %w", err)
	}

	var tasks []*task.Task
	var err error

	switch {
	case args.Status != "":
		status, ok := task.ParseStatus(args.Status)
		if !ok {
			return fmt.Sprintf("❌ Unknown status: %s. Valid statuses are: %s",
				args.Status, strings.Join(statusEnum, ", ")), nil
		}
		tasks, err = d.tasks.GetTasksByStatus(ctx, owner, status)
	case args.Priority != "":
		priority, ok := task.ParsePriority(args.Priority)
		if !ok {
			return fmt.Sprintf("❌ Unknown priority: %s. Valid priorities are: %s",
				args.Priority, strings.Join(priorityEnum, ", ")), nil
		}
		tasks, err = d.tasks.GetTasksByPriority(ctx, owner, priority)
	case args.Overdue:
		tasks, err = d.tasks.GetOverdueTasks(ctx, owner)
	case args.DueSoon != nil:
		tasks, err = d.tasks.GetTasksDueSoon(ctx, owner, *args.DueSoon)
	case strings.TrimSpace(args.SearchTerm) != "":
		tasks, err = d.tasks.SearchTasks(ctx, owner, args.SearchTerm)
	default:
		tasks, err = d.tasks.GetTasksByOwner(ctx, owner)
	}
	if err != nil {
		return "", err
	}

	if len(tasks) == 0 {
		return "📋 No tasks found matching your criteria.", nil
	}
	return formatTaskList(fmt.Sprintf("📋 Found %d tasks:", len(tasks)), tasks), nil
}

func draftFromArgs(args taskArgs) task.Draft {
	priority, _ := task.ParsePriority(args.Priority)

	return task.Draft{
		Title:       args.Title,
		Description: args.Description,
		Priority:    priority,
		DueDate:     parseDueDate(args.DueDate),
	}
}

// parseDueDate пробует распространённые форматы; нечитаемая дата
// просто игнорируется, задача создаётся без дедлайна
func parseDueDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}

	logger.Warn("Assistant: Нечитаемая дата дедлайна", zap.String("due_date", raw))
	return nil
}

func formatTask(t *task.Task) string {
	line := fmt.Sprintf("📝 %s [%s, %s]", t.Title, t.Status.Display(), t.Priority.Display())
	if t.DueDate != nil {
		line += fmt.Sprintf(" (due: %s)", t.DueDate.Format("2006-01-02"))
	}
	return line
}

func formatTaskList(header string, tasks []*task.Task) string {
	var b strings.Builder
	b.WriteString(header)
	for _, t := range tasks {
		b.WriteString("\n")
		b.WriteString(formatTask(t))
	}
	return b.String()
}
