package service

import (
	"context"

	"taskAssistant/internal/models/chat"

	"github.com/google/uuid"
)

type ChatRepository interface {
	CreateChat(ctx context.Context, c *chat.Chat) error
	GetChat(ctx context.Context, owner, id uuid.UUID) (*chat.Chat, error)
	UpdateChat(ctx context.Context, c *chat.Chat) error
	DeleteChat(ctx context.Context, owner, id uuid.UUID) error
	ListChats(ctx context.Context, owner uuid.UUID) ([]*chat.Chat, error)
	SearchChats(ctx context.Context, owner uuid.UUID, term string) ([]*chat.Chat, error)
	AppendMessage(ctx context.Context, m *chat.Message) error
	Messages(ctx context.Context, chatID uuid.UUID, lastN int) ([]*chat.Message, error)
}
