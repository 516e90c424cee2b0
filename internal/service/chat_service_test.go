package service_test

import (
	"context"
	"testing"

	"taskAssistant/internal/models/chat"
	"taskAssistant/internal/repository"
	"taskAssistant/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChatRepository - мок репозитория чатов
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) CreateChat(ctx context.Context, c *chat.Chat) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockChatRepository) GetChat(ctx context.Context, owner, id uuid.UUID) (*chat.Chat, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Chat), args.Error(1)
}

func (m *MockChatRepository) UpdateChat(ctx context.Context, c *chat.Chat) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockChatRepository) DeleteChat(ctx context.Context, owner, id uuid.UUID) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

func (m *MockChatRepository) ListChats(ctx context.Context, owner uuid.UUID) ([]*chat.Chat, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*chat.Chat), args.Error(1)
}

func (m *MockChatRepository) SearchChats(ctx context.Context, owner uuid.UUID, term string) ([]*chat.Chat, error) {
	args := m.Called(ctx, owner, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*chat.Chat), args.Error(1)
}

func (m *MockChatRepository) AppendMessage(ctx context.Context, msg *chat.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockChatRepository) Messages(ctx context.Context, chatID uuid.UUID, lastN int) ([]*chat.Message, error) {
	args := m.Called(ctx, chatID, lastN)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*chat.Message), args.Error(1)
}

var _ service.ChatRepository = (*MockChatRepository)(nil)

// TestChatService_CreateChat тестирует дефолтное название
func TestChatService_CreateChat(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	mockRepo := new(MockChatRepository)
	mockRepo.On("CreateChat", mock.Anything, mock.MatchedBy(func(c *chat.Chat) bool {
		return c.Title == chat.DefaultTitle && c.OwnerID == owner
	})).Return(nil)

	svc := service.NewChatSessionService(mockRepo)
	c, err := svc.CreateChat(ctx, owner, "   ")
	require.NoError(t, err)
	assert.Equal(t, chat.DefaultTitle, c.Title)
	mockRepo.AssertExpectations(t)
}

// TestChatService_GetOrCreateChat тестирует выбор между существующим и новым чатом
func TestChatService_GetOrCreateChat(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("existing active chat", func(t *testing.T) {
		existing := &chat.Chat{UUID: uuid.New(), OwnerID: owner, Title: "Old", IsActive: true}

		mockRepo := new(MockChatRepository)
		mockRepo.On("GetChat", mock.Anything, owner, existing.UUID).Return(existing, nil)

		svc := service.NewChatSessionService(mockRepo)
		c, err := svc.GetOrCreateChat(ctx, owner, &existing.UUID, "ignored")
		require.NoError(t, err)
		assert.Equal(t, existing.UUID, c.UUID)
		mockRepo.AssertNotCalled(t, "CreateChat")
	})

	t.Run("foreign chat id gives new chat", func(t *testing.T) {
		foreignID := uuid.New()

		mockRepo := new(MockChatRepository)
		mockRepo.On("GetChat", mock.Anything, owner, foreignID).Return(nil, repository.ErrNotFound)
		mockRepo.On("CreateChat", mock.Anything, mock.Anything).Return(nil)

		svc := service.NewChatSessionService(mockRepo)
		c, err := svc.GetOrCreateChat(ctx, owner, &foreignID, "Fresh")
		require.NoError(t, err)
		assert.NotEqual(t, foreignID, c.UUID)
		assert.Equal(t, "Fresh", c.Title)
		mockRepo.AssertExpectations(t)
	})

	t.Run("archived chat gives new chat", func(t *testing.T) {
		archived := &chat.Chat{UUID: uuid.New(), OwnerID: owner, Title: "Archived", IsActive: false}

		mockRepo := new(MockChatRepository)
		mockRepo.On("GetChat", mock.Anything, owner, archived.UUID).Return(archived, nil)
		mockRepo.On("CreateChat", mock.Anything, mock.Anything).Return(nil)

		svc := service.NewChatSessionService(mockRepo)
		c, err := svc.GetOrCreateChat(ctx, owner, &archived.UUID, "Fresh")
		require.NoError(t, err)
		assert.NotEqual(t, archived.UUID, c.UUID)
	})

	t.Run("nil chat id gives new chat", func(t *testing.T) {
		mockRepo := new(MockChatRepository)
		mockRepo.On("CreateChat", mock.Anything, mock.Anything).Return(nil)

		svc := service.NewChatSessionService(mockRepo)
		c, err := svc.GetOrCreateChat(ctx, owner, nil, "Fresh")
		require.NoError(t, err)
		assert.Equal(t, "Fresh", c.Title)
		mockRepo.AssertNotCalled(t, "GetChat")
	})
}

// TestChatService_RenameChat тестирует валидацию названия
func TestChatService_RenameChat(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	id := uuid.New()

	mockRepo := new(MockChatRepository)
	svc := service.NewChatSessionService(mockRepo)

	_, err := svc.RenameChat(ctx, owner, id, "  ")
	require.Error(t, err)

	var businessErr *service.BusinessError
	require.ErrorAs(t, err, &businessErr)
	assert.Equal(t, service.CodeValidation, businessErr.Code)
	mockRepo.AssertNotCalled(t, "UpdateChat")
}

// TestChatService_ArchiveChat тестирует перевод чата в неактивные
func TestChatService_ArchiveChat(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	c := &chat.Chat{UUID: uuid.New(), OwnerID: owner, Title: "Chat", IsActive: true}

	mockRepo := new(MockChatRepository)
	mockRepo.On("GetChat", mock.Anything, owner, c.UUID).Return(c, nil)
	mockRepo.On("UpdateChat", mock.Anything, mock.MatchedBy(func(updated *chat.Chat) bool {
		return !updated.IsActive
	})).Return(nil)

	svc := service.NewChatSessionService(mockRepo)
	require.NoError(t, svc.ArchiveChat(ctx, owner, c.UUID))
	mockRepo.AssertExpectations(t)
}

// TestChatService_DeleteChat тестирует маппинг отсутствующего чата
func TestChatService_DeleteChat(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	id := uuid.New()

	mockRepo := new(MockChatRepository)
	mockRepo.On("DeleteChat", mock.Anything, owner, id).Return(repository.ErrNotFound)

	svc := service.NewChatSessionService(mockRepo)
	err := svc.DeleteChat(ctx, owner, id)
	require.Error(t, err)

	var businessErr *service.BusinessError
	require.ErrorAs(t, err, &businessErr)
	assert.Equal(t, service.CodeNotFound, businessErr.Code)
}
