package handlers

import (
	"context"

	"taskAssistant/internal/assistant"
	"taskAssistant/internal/models/chat"
	"taskAssistant/internal/models/task"
	"taskAssistant/internal/service"

	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, owner uuid.UUID, draft task.Draft) (*task.Task, error)
	CreateTasksBatch(ctx context.Context, owner uuid.UUID, drafts []task.Draft) ([]*task.Task, error)
	CreateSubTask(ctx context.Context, owner, parentID uuid.UUID, draft task.Draft) (*task.Task, error)
	GetTaskByID(ctx context.Context, owner, id uuid.UUID) (*task.Task, error)
	UpdateTaskByID(ctx context.Context, owner, id uuid.UUID, options ...task.TaskOption) (*task.Task, error)
	DeleteTaskByID(ctx context.Context, owner, id uuid.UUID) error
	AddDependency(ctx context.Context, owner, taskID, dependsOnID uuid.UUID) error
	RemoveDependency(ctx context.Context, owner, taskID, dependsOnID uuid.UUID) error
	GetDependencies(ctx context.Context, owner, id uuid.UUID) ([]*task.Task, error)
	GetDependents(ctx context.Context, owner, id uuid.UUID) ([]*task.Task, error)
	GetTasksByOwner(ctx context.Context, owner uuid.UUID) ([]*task.Task, error)
	GetTasksByStatus(ctx context.Context, owner uuid.UUID, status task.Status) ([]*task.Task, error)
	GetTasksByPriority(ctx context.Context, owner uuid.UUID, priority task.Priority) ([]*task.Task, error)
	GetOverdueTasks(ctx context.Context, owner uuid.UUID) ([]*task.Task, error)
	GetTasksDueSoon(ctx context.Context, owner uuid.UUID, hours int) ([]*task.Task, error)
	SearchTasks(ctx context.Context, owner uuid.UUID, term string) ([]*task.Task, error)
	GetTopLevelTasks(ctx context.Context, owner uuid.UUID) ([]*task.Task, error)
	GetSubTasks(ctx context.Context, owner, parentID uuid.UUID) ([]*task.Task, error)
	GetStatistics(ctx context.Context, owner uuid.UUID) (*service.Statistics, error)
}

type ChatService interface {
	CreateChat(ctx context.Context, owner uuid.UUID, title string) (*chat.Chat, error)
	GetChat(ctx context.Context, owner, id uuid.UUID) (*chat.Chat, error)
	ListChats(ctx context.Context, owner uuid.UUID) ([]*chat.Chat, error)
	SearchChats(ctx context.Context, owner uuid.UUID, term string) ([]*chat.Chat, error)
	RenameChat(ctx context.Context, owner, id uuid.UUID, newTitle string) (*chat.Chat, error)
	ArchiveChat(ctx context.Context, owner, id uuid.UUID) error
	DeleteChat(ctx context.Context, owner, id uuid.UUID) error
	History(ctx context.Context, c *chat.Chat, maxMessages int) ([]*chat.Message, error)
}

type Assistant interface {
	SendMessage(ctx context.Context, owner uuid.UUID, chatID *uuid.UUID, message, model string) (*assistant.TurnResult, error)
	Models() []string
}
