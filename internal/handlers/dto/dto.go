package dto

import (
	"time"

	"taskAssistant/internal/models/chat"
	"taskAssistant/internal/models/task"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
}

func (r CreateTaskRequest) ToDraft() task.Draft {
	priority, _ := task.ParsePriority(r.Priority)
	return task.Draft{
		Title:       r.Title,
		Description: r.Description,
		Priority:    priority,
		DueDate:     r.DueDate,
		ParentID:    r.ParentID,
	}
}

type CreateTasksBatchRequest struct {
	Tasks []CreateTaskRequest `json:"tasks"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type DependencyRequest struct {
	DependsOnID uuid.UUID `json:"depends_on_id"`
}

type TaskResponse struct {
	UUID        uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Version     int        `json:"version"`
	IsOverdue   bool       `json:"is_overdue"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		UUID:        t.UUID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
		ParentID:    t.ParentID,
		Version:     t.Version,
		IsOverdue:   t.IsOverdue(time.Now()),
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type SendMessageRequest struct {
	ChatID    *uuid.UUID `json:"chat_id,omitempty"`
	ChatTitle string     `json:"chat_title,omitempty"`
	Message   string     `json:"message"`
	Model     string     `json:"model,omitempty"`
}

type CreateChatRequest struct {
	Title string `json:"title"`
}

type SendMessageResponse struct {
	Response  string    `json:"response"`
	Model     string    `json:"model"`
	ChatID    uuid.UUID `json:"chat_id"`
	ChatTitle string    `json:"chat_title"`
}

type RenameChatRequest struct {
	Title string `json:"title"`
}

type ChatResponse struct {
	UUID      uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromChat(c *chat.Chat) ChatResponse {
	return ChatResponse{
		UUID:      c.UUID,
		Title:     c.Title,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func FromChatList(chats []*chat.Chat) []ChatResponse {
	result := make([]ChatResponse, len(chats))
	for i, c := range chats {
		result[i] = FromChat(c)
	}
	return result
}

type MessageResponse struct {
	UUID         uuid.UUID `json:"id"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	Model        string    `json:"model,omitempty"`
	FunctionName string    `json:"function_name,omitempty"`
	FunctionArgs string    `json:"function_args,omitempty"`
	Seq          int64     `json:"seq"`
	CreatedAt    time.Time `json:"created_at"`
}

func FromMessage(m *chat.Message) MessageResponse {
	return MessageResponse{
		UUID:         m.UUID,
		Role:         string(m.Role),
		Content:      m.Content,
		Model:        m.Model,
		FunctionName: m.FunctionName,
		FunctionArgs: m.FunctionArgs,
		Seq:          m.Seq,
		CreatedAt:    m.CreatedAt,
	}
}

func FromMessageList(messages []*chat.Message) []MessageResponse {
	result := make([]MessageResponse, len(messages))
	for i, m := range messages {
		result[i] = FromMessage(m)
	}
	return result
}
