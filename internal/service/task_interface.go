package service

import (
	"context"
	"time"

	"taskAssistant/internal/models/task"

	"github.com/google/uuid"
)

type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, t *task.Task) error
	CreateBatch(ctx context.Context, tasks []*task.Task) error
	GetByID(ctx context.Context, owner, id uuid.UUID) (*task.Task, error)
	Update(ctx context.Context, t *task.Task) error
	Delete(ctx context.Context, owner, id uuid.UUID) error
	AddDependency(ctx context.Context, owner, taskID, dependsOnID uuid.UUID) error
	RemoveDependency(ctx context.Context, owner, taskID, dependsOnID uuid.UUID) error
	Dependencies(ctx context.Context, owner, id uuid.UUID) ([]*task.Task, error)
	Dependents(ctx context.Context, owner, id uuid.UUID) ([]*task.Task, error)
	GetByOwner(ctx context.Context, owner uuid.UUID) ([]*task.Task, error)
	GetByOwnerAndStatus(ctx context.Context, owner uuid.UUID, status task.Status) ([]*task.Task, error)
	GetByOwnerAndPriority(ctx context.Context, owner uuid.UUID, priority task.Priority) ([]*task.Task, error)
	GetOverdue(ctx context.Context, owner uuid.UUID, now time.Time) ([]*task.Task, error)
	GetDueBetween(ctx context.Context, owner uuid.UUID, from, to time.Time) ([]*task.Task, error)
	SearchTitle(ctx context.Context, owner uuid.UUID, term string) ([]*task.Task, error)
	SearchDescription(ctx context.Context, owner uuid.UUID, term string) ([]*task.Task, error)
	GetTopLevel(ctx context.Context, owner uuid.UUID) ([]*task.Task, error)
	GetChildren(ctx context.Context, owner, parentID uuid.UUID) ([]*task.Task, error)
	GetDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error)
}
