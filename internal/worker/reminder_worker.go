package worker

import (
	"context"
	"fmt"
	"time"

	"taskAssistant/internal/logger"
	"taskAssistant/internal/models/task"
	"taskAssistant/internal/service"

	"go.uber.org/zap"
)

// ReminderWorker периодически сканирует задачи с подступающим дедлайном
// и пишет напоминания в лог. Статус задач воркер не трогает:
// просроченность считается на чтении
type ReminderWorker struct {
	repo      service.TaskRepository
	interval  time.Duration
	batchSize int
}

func NewReminderWorker(repo service.TaskRepository, interval time.Duration, batchSize int) *ReminderWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	return &ReminderWorker{
		repo:      repo,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновая проверка дедлайнов", zap.Time("started_at", time.Now()))
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return
		}
	}
}

func (w *ReminderWorker) Check(ctx context.Context) {
	start := time.Now()

	tasks, err := w.getUpcomingTasks(ctx)
	if err != nil {
		logger.Warn("Worker: Ошибка получения задач", zap.Error(err))
		return
	}

	now := time.Now()
	overdueCount := 0
	upcomingCount := 0

	for _, t := range tasks {
		if t.IsCompleted() || t.Status == task.StatusCancelled {
			continue
		}

		if t.IsOverdue(now) {
			overdueCount++
			logger.Warn("Worker: Задача просрочена",
				zap.String("task_id", t.UUID.String()),
				zap.String("owner_id", t.OwnerID.String()),
				zap.Time("due_date", *t.DueDate))
			continue
		}

		upcomingCount++
		logger.Info("Worker: Дедлайн приближается",
			zap.String("task_id", t.UUID.String()),
			zap.String("owner_id", t.OwnerID.String()),
			zap.Time("due_date", *t.DueDate))
	}

	logger.Info(
		"Worker: Завершение проверки дедлайнов",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(tasks)),
		zap.Int("overdue", overdueCount),
		zap.Int("upcoming", upcomingCount),
	)
}

// getUpcomingTasks берёт задачи с дедлайном до конца следующего окна проверки,
// просроченные попадают сюда же
func (w *ReminderWorker) getUpcomingTasks(ctx context.Context) ([]*task.Task, error) {
	deadline := time.Now().Add(w.interval)

	tasks, err := w.repo.GetDueBefore(ctx, deadline, w.batchSize)
	if err != nil {
		return nil, fmt.Errorf("получение задач с дедлайном: %w", err)
	}
	return tasks, nil
}
