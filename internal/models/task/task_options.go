package task

import (
	"time"

	"github.com/google/uuid"
)

// TaskOption - функция частичного обновления задачи.
// Пустое значение даёт nil, такие опции сервис пропускает.
type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	if title == "" {
		return nil
	}
	return func(t *Task) {
		t.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(t *Task) {
		t.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	if !status.Valid() {
		return nil
	}
	return func(t *Task) {
		t.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	if !priority.Valid() {
		return nil
	}
	return func(t *Task) {
		t.Priority = priority
	}
}

func WithDueDate(dueDate *time.Time) TaskOption {
	return func(t *Task) {
		t.DueDate = dueDate
	}
}

func WithParent(parentID *uuid.UUID) TaskOption {
	return func(t *Task) {
		t.ParentID = parentID
	}
}
