package chat

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	UUID      uuid.UUID `json:"uuid" db:"uuid"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	Title     string    `json:"title" db:"title"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleFunction  Role = "function"
)

// Message - одна запись истории чата. Seq растёт строго монотонно внутри чата,
// порядок воспроизведения провайдеру равен порядку добавления.
type Message struct {
	UUID         uuid.UUID `json:"uuid" db:"uuid"`
	ChatID       uuid.UUID `json:"chat_id" db:"chat_id"`
	Role         Role      `json:"role" db:"role"`
	Content      string    `json:"content" db:"content"`
	Model        string    `json:"model,omitempty" db:"model"`
	FunctionName string    `json:"function_name,omitempty" db:"function_name"`
	FunctionArgs string    `json:"function_args,omitempty" db:"function_args"`
	Seq          int64     `json:"seq" db:"seq"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

const DefaultTitle = "New Chat"
