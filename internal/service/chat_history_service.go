package service

import (
	"context"
	"encoding/json"

	"ai-chat-router-be/pkg/ai/generation"
	"ai-chat-router-be/pkg/chatapi"
)

// IChatHistoryService exposes the upstream chat history to the widget
type IChatHistoryService interface {
	GetConversations(ctx context.Context, userId string, auth generation.AuthKey) ([]json.RawMessage, error)
	GetMessages(ctx context.Context, userId string, chatId string, auth generation.AuthKey) ([]json.RawMessage, error)
	DeleteConversation(ctx context.Context, userId string, chatId string, auth generation.AuthKey) (json.RawMessage, error)
}

type chatHistoryService struct {
	client *chatapi.Client
}

func NewChatHistoryService(client *chatapi.Client) IChatHistoryService {
	return &chatHistoryService{client: client}
}

func (s *chatHistoryService) GetConversations(ctx context.Context, userId string, auth generation.AuthKey) ([]json.RawMessage, error) {
	if auth.IsZero() {
		return nil, ErrMissingCredential
	}
	return s.client.Conversations(ctx, userId, auth.Header())
}

func (s *chatHistoryService) GetMessages(ctx context.Context, userId string, chatId string, auth generation.AuthKey) ([]json.RawMessage, error) {
	if auth.IsZero() {
		return nil, ErrMissingCredential
	}
	return s.client.Messages(ctx, userId, chatId, auth.Header())
}

func (s *chatHistoryService) DeleteConversation(ctx context.Context, userId string, chatId string, auth generation.AuthKey) (json.RawMessage, error) {
	if auth.IsZero() {
		return nil, ErrMissingCredential
	}
	return s.client.Delete(ctx, userId, chatId, auth.Header())
}
