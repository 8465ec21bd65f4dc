package dto

import (
	"encoding/json"

	"ai-chat-router-be/pkg/ai/continuation"
	"ai-chat-router-be/pkg/ai/generation"
	"ai-chat-router-be/pkg/ai/router"
)

type SendChatRequest struct {
	RequestId         string `json:"request_id" validate:"omitempty,max=64"` // Lets the caller cancel while in flight
	SessionId         string `json:"session_id" validate:"max=128"`          // Empty means stateless
	Message           string `json:"message" validate:"required,max=16000"`
	Mode              string `json:"mode" validate:"omitempty,oneof=chat debate project"`
	UseHistory        *bool  `json:"use_history,omitempty"`
	GradeLevel        string `json:"grade_level" validate:"max=32"`
	ForceEndpoint     string `json:"force_endpoint" validate:"omitempty,oneof=general healthcare education"`
	DisableAutoDetect bool   `json:"disable_auto_detect"`
}

type SendChatResponse struct {
	RequestId         string              `json:"request_id"`
	SessionId         string              `json:"session_id,omitempty"`
	Result            *generation.Result  `json:"result"`
	Route             router.Decision     `json:"route"`
	Continuation      continuation.Signal `json:"continuation"`
	ReferencesContext bool                `json:"references_context"`
	UpstreamChatId    string              `json:"upstream_chat_id,omitempty"`
	ReusedUpstream    bool                `json:"reused_upstream_chat"`
}

type ClassifyRequest struct {
	Message        string `json:"message" validate:"required,max=16000"`
	SessionId      string `json:"session_id" validate:"max=128"`
	PreviousAnswer string `json:"previous_answer"`
}

type ClassifyResponse struct {
	Category          string              `json:"category"`
	Directive         string              `json:"directive,omitempty"`
	LockedCategory    string              `json:"locked_category,omitempty"`
	Continuation      continuation.Signal `json:"continuation"`
	ReferencesContext bool                `json:"references_context"`
}

type SessionEndpointResponse struct {
	SessionId string `json:"session_id"`
	Category  string `json:"category,omitempty"`
	Locked    bool   `json:"locked"`
}

type ForceEndpointRequest struct {
	Category string `json:"category" validate:"required,oneof=general healthcare education"`
}

type ConversationTreeResponse struct {
	SessionId      string          `json:"session_id"`
	UpstreamChatId string          `json:"upstream_chat_id"`
	Tree           json.RawMessage `json:"tree"`
}
