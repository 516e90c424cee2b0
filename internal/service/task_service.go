package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskAssistant/internal/logger"
	"taskAssistant/internal/models/task"
	rep "taskAssistant/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

func (s *TaskService) CreateTask(ctx context.Context, owner uuid.UUID, draft task.Draft) (*task.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, NewValidationError("title", "название не может быть пустым")
	}

	t := draftToTask(owner, draft)

	if t.ParentID != nil {
		if _, err := s.GetTaskByID(ctx, owner, *t.ParentID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", t.UUID.String()),
		zap.String("owner_id", owner.String()))
	return t, nil
}

// CreateTasksBatch создаёт все валидные заготовки одним батчем; записи без
// названия пропускаются, а не валят весь вызов
func (s *TaskService) CreateTasksBatch(ctx context.Context, owner uuid.UUID, drafts []task.Draft) ([]*task.Task, error) {
	tasks := make([]*task.Task, 0, len(drafts))
	for _, draft := range drafts {
		if strings.TrimSpace(draft.Title) == "" {
			logger.Warn("Service: Пропущена задача без названия в батче")
			continue
		}
		tasks = append(tasks, draftToTask(owner, draft))
	}

	if len(tasks) == 0 {
		return []*task.Task{}, nil
	}

	if err := s.repo.CreateBatch(ctx, tasks); err != nil {
		return nil, fmt.Errorf("батч-создание задач: %w", err)
	}

	logger.Info("Service: Батч задач создан",
		zap.Int("created", len(tasks)),
		zap.String("owner_id", owner.String()))
	return tasks, nil
}

func (s *TaskService) CreateSubTask(ctx context.Context, owner, parentID uuid.UUID, draft task.Draft) (*task.Task, error) {
	draft.ParentID = &parentID
	return s.CreateTask(ctx, owner, draft)
}

func (s *TaskService) GetTaskByID(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

// UpdateTaskByID применяет опции и единожды проставляет CompletedAt при
// первом переходе в completed; последующие правки его не трогают
func (s *TaskService) UpdateTaskByID(ctx context.Context, owner, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	t, err := s.GetTaskByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}

	if t.Status == task.StatusCompleted && t.CompletedAt == nil {
		now := time.Now()
		t.CompletedAt = &now
	}

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, rep.ErrVersionConflict) {
			return nil, NewBusinessError(CodeVersionConflict, "задача была изменена параллельно, повторите запрос",
				ToDetail("id", id.String()))
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) DeleteTaskByID(ctx context.Context, owner, id uuid.UUID) error {
	err := s.repo.Delete(ctx, owner, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound("задача", id.String())
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	return nil
}

func (s *TaskService) AddDependency(ctx context.Context, owner, taskID, dependsOnID uuid.UUID) error {
	if taskID == dependsOnID {
		return NewBusinessError(CodeSelfDependency, "задача не может зависеть от самой себя",
			ToDetail("id", taskID.String()))
	}

	// обе задачи должны существовать и принадлежать вызывающему;
	// чужая задача неотличима от несуществующей
	if _, err := s.GetTaskByID(ctx, owner, taskID); err != nil {
		return err
	}
	if _, err := s.GetTaskByID(ctx, owner, dependsOnID); err != nil {
		return err
	}

	err := s.repo.AddDependency(ctx, owner, taskID, dependsOnID)
	if err != nil {
		if errors.Is(err, rep.ErrCyclicDependency) {
			return NewBusinessError(CodeCyclicDependency, "такая зависимость образует цикл",
				ToDetail("task_id", taskID.String()),
				ToDetail("depends_on_id", dependsOnID.String()))
		}
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound("задача", dependsOnID.String())
		}
		return fmt.Errorf("добавление зависимости: %w", err)
	}
	return nil
}

func (s *TaskService) RemoveDependency(ctx context.Context, owner, taskID, dependsOnID uuid.UUID) error {
	if _, err := s.GetTaskByID(ctx, owner, taskID); err != nil {
		return err
	}

	if err := s.repo.RemoveDependency(ctx, owner, taskID, dependsOnID); err != nil {
		return fmt.Errorf("удаление зависимости: %w", err)
	}
	return nil
}

func (s *TaskService) GetDependencies(ctx context.Context, owner, id uuid.UUID) ([]*task.Task, error) {
	tasks, err := s.repo.Dependencies(ctx, owner, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("получение зависимостей: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetDependents(ctx context.Context, owner, id uuid.UUID) ([]*task.Task, error) {
	tasks, err := s.repo.Dependents(ctx, owner, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("получение зависимых задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTasksByOwner(ctx context.Context, owner uuid.UUID) ([]*task.Task, error) {
	tasks, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTasksByStatus(ctx context.Context, owner uuid.UUID, status task.Status) ([]*task.Task, error) {
	if !status.Valid() {
		return nil, NewValidationError("status", "неизвестный статус "+string(status))
	}

	tasks, err := s.repo.GetByOwnerAndStatus(ctx, owner, status)
	if err != nil {
		return nil, fmt.Errorf("получение задач по статусу: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTasksByPriority(ctx context.Context, owner uuid.UUID, priority task.Priority) ([]*task.Task, error) {
	if !priority.Valid() {
		return nil, NewValidationError("priority", "неизвестный приоритет "+string(priority))
	}

	tasks, err := s.repo.GetByOwnerAndPriority(ctx, owner, priority)
	if err != nil {
		return nil, fmt.Errorf("получение задач по приоритету: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetOverdueTasks(ctx context.Context, owner uuid.UUID) ([]*task.Task, error) {
	tasks, err := s.repo.GetOverdue(ctx, owner, time.Now())
	if err != nil {
		return nil, fmt.Errorf("получение просроченных задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTasksDueSoon(ctx context.Context, owner uuid.UUID, hours int) ([]*task.Task, error) {
	if hours <= 0 {
		hours = 24
	}

	now := time.Now()
	tasks, err := s.repo.GetDueBetween(ctx, owner, now, now.Add(time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("получение задач с близким дедлайном: %w", err)
	}
	return tasks, nil
}

// SearchTasks ищет по названию и описанию, объединяя результаты без дублей
func (s *TaskService) SearchTasks(ctx context.Context, owner uuid.UUID, term string) ([]*task.Task, error) {
	byTitle, err := s.repo.SearchTitle(ctx, owner, term)
	if err != nil {
		return nil, fmt.Errorf("поиск по названию: %w", err)
	}
	byDescription, err := s.repo.SearchDescription(ctx, owner, term)
	if err != nil {
		return nil, fmt.Errorf("поиск по описанию: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(byTitle))
	result := make([]*task.Task, 0, len(byTitle)+len(byDescription))
	for _, t := range byTitle {
		seen[t.UUID] = true
		result = append(result, t)
	}
	for _, t := range byDescription {
		if !seen[t.UUID] {
			result = append(result, t)
		}
	}
	return result, nil
}

func (s *TaskService) GetTopLevelTasks(ctx context.Context, owner uuid.UUID) ([]*task.Task, error) {
	tasks, err := s.repo.GetTopLevel(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("получение задач верхнего уровня: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetSubTasks(ctx context.Context, owner, parentID uuid.UUID) ([]*task.Task, error) {
	tasks, err := s.repo.GetChildren(ctx, owner, parentID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("задача", parentID.String())
		}
		return nil, fmt.Errorf("получение подзадач: %w", err)
	}
	return tasks, nil
}

type Statistics struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
	OnHold     int `json:"on_hold"`
	High       int `json:"high_priority"`
	Urgent     int `json:"urgent"`
	Overdue    int `json:"overdue"`
}

// GetStatistics считается одним проходом по задачам владельца,
// наборы задач на пользователя небольшие
func (s *TaskService) GetStatistics(ctx context.Context, owner uuid.UUID) (*Statistics, error) {
	tasks, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	now := time.Now()
	stats := &Statistics{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case task.StatusTodo:
			stats.Todo++
		case task.StatusInProgress:
			stats.InProgress++
		case task.StatusCompleted:
			stats.Completed++
		case task.StatusCancelled:
			stats.Cancelled++
		case task.StatusOnHold:
			stats.OnHold++
		}
		switch t.Priority {
		case task.PriorityHigh:
			stats.High++
		case task.PriorityUrgent:
			stats.Urgent++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats, nil
}

func draftToTask(owner uuid.UUID, draft task.Draft) *task.Task {
	priority := draft.Priority
	if !priority.Valid() {
		priority = task.PriorityMedium
	}

	return &task.Task{
		UUID:        uuid.New(),
		OwnerID:     owner,
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		Status:      task.StatusTodo,
		Priority:    priority,
		DueDate:     draft.DueDate,
		ParentID:    draft.ParentID,
	}
}
