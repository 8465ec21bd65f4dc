package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"ai-chat-router-be/internal/dto"
	"ai-chat-router-be/internal/pkg/logger"
	"ai-chat-router-be/internal/repository/memory"
	"ai-chat-router-be/pkg/ai/classifier"
	"ai-chat-router-be/pkg/ai/continuation"
	"ai-chat-router-be/pkg/ai/generation"
	"ai-chat-router-be/pkg/ai/router"
	"ai-chat-router-be/pkg/chatevents"
	"ai-chat-router-be/pkg/store"

	"github.com/google/uuid"
)

const chatModule = "CHAT"

var (
	ErrEmptyMessage      = errors.New("message is empty")
	ErrInvalidMode       = errors.New("invalid mode")
	ErrInvalidCategory   = errors.New("invalid endpoint category")
	ErrMissingSession    = errors.New("session id is required")
	ErrRequestNotFound   = errors.New("no generation in flight for this request id")
	ErrDuplicateRequest  = errors.New("a generation with this request id is already in flight")
	ErrMissingCredential = errors.New("missing credential")
)

// IChatService defines the chat gateway
type IChatService interface {
	Send(ctx context.Context, userId string, auth generation.AuthKey, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	Cancel(ctx context.Context, userId string, requestId string) error
	Classify(ctx context.Context, userId string, request *dto.ClassifyRequest) (*dto.ClassifyResponse, error)
	GetEndpoint(ctx context.Context, sessionId string) (*dto.SessionEndpointResponse, error)
	ForceEndpoint(ctx context.Context, userId string, sessionId string, request *dto.ForceEndpointRequest) (*dto.SessionEndpointResponse, error)
	ResetSession(ctx context.Context, userId string, sessionId string) error
	ConversationTree(ctx context.Context, userId string, sessionId string, auth generation.AuthKey) (*dto.ConversationTreeResponse, error)
}

type inflightCall struct {
	call   *generation.Call
	userId string
}

type chatService struct {
	dispatcher  *generation.Dispatcher
	router      *router.Router
	sessionRepo *memory.SessionRepository
	publisher   IPublisherService
	events      chatevents.Publisher
	logger      logger.ILogger
	gradeLevel  string

	mu       sync.Mutex
	inflight map[string]inflightCall
}

func NewChatService(
	dispatcher *generation.Dispatcher,
	router *router.Router,
	sessionRepo *memory.SessionRepository,
	publisher IPublisherService,
	events chatevents.Publisher,
	logger logger.ILogger,
	gradeLevel string,
) IChatService {
	return &chatService{
		dispatcher:  dispatcher,
		router:      router,
		sessionRepo: sessionRepo,
		publisher:   publisher,
		events:      events,
		logger:      logger,
		gradeLevel:  gradeLevel,
		inflight:    make(map[string]inflightCall),
	}
}

// loadState returns a copy of the caller's conversation state, or a fresh one.
// State is stored per user, so another user's session id never reads or overwrites it.
func (s *chatService) loadState(sessionId, userId string) *store.Session {
	if sessionId != "" {
		if state, ok := s.sessionRepo.Get(userId, sessionId); ok {
			cp := *state
			return &cp
		}
	}
	return &store.Session{ID: sessionId, UserID: userId}
}

func (s *chatService) Send(ctx context.Context, userId string, auth generation.AuthKey, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	if auth.IsZero() {
		return nil, ErrMissingCredential
	}

	parsed := router.Parse(request.Message)
	if parsed.IsEmpty() {
		return nil, ErrEmptyMessage
	}

	mode, ok := generation.ParseMode(request.Mode)
	if !ok {
		return nil, ErrInvalidMode
	}

	forced := parsed.Forced
	if request.ForceEndpoint != "" {
		category, ok := classifier.ParseCategory(request.ForceEndpoint)
		if !ok {
			return nil, ErrInvalidCategory
		}
		forced = category
	}

	// 1. Continuation against the previous answer decides upstream chat reuse
	state := s.loadState(request.SessionId, userId)
	signal := continuation.Detect(parsed.CleanPrompt, state.LastAnswer)
	referencesContext := continuation.ReferencesContext(parsed.CleanPrompt, state.LastAnswer)

	upstreamChatId := ""
	reuse := state.UpstreamChatID != "" && (signal.IsContinuation || referencesContext)
	if reuse {
		upstreamChatId = state.UpstreamChatID
	}

	s.logger.Info(chatModule, "Continuation check", map[string]interface{}{
		"session_id":         request.SessionId,
		"is_continuation":    signal.IsContinuation,
		"confidence":         signal.Confidence,
		"reason":             signal.Reason(),
		"references_context": referencesContext,
		"reuse_upstream":     reuse,
	})

	gradeLevel := request.GradeLevel
	if gradeLevel == "" {
		gradeLevel = s.gradeLevel
	}

	// 2. Dispatch as a cancellable call
	requestId := request.RequestId
	if requestId == "" {
		requestId = uuid.NewString()
	}

	opts := generation.Options{
		Mode:              mode,
		UseHistory:        request.UseHistory,
		UpstreamSessionID: upstreamChatId,
		GradeLevel:        gradeLevel,
		ForceEndpoint:     forced,
		DisableAutoDetect: request.DisableAutoDetect,
		Header:            auth.Header(),
	}

	started := time.Now()
	call, err := s.register(requestId, userId, func() *generation.Call {
		return s.dispatcher.Start(context.WithoutCancel(ctx), parsed.CleanPrompt, request.SessionId, opts, generation.Callbacks{})
	})
	if err != nil {
		return nil, err
	}
	defer s.unregister(requestId)

	result, err := call.Wait(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		// Request context ended (server shutdown, deadline); whatever settles first is final
		call.Cancel()
		result, err = call.Wait(context.Background())
	}

	s.recordApiCall(ctx, userId, request.SessionId, mode, parsed.CleanPrompt, started, result, err)

	if err != nil {
		s.logger.Warn(chatModule, "Generation failed", map[string]interface{}{
			"session_id": request.SessionId,
			"request_id": requestId,
			"error":      err.Error(),
		})
		return nil, err
	}

	// 3. Remember where this conversation lives upstream
	route := *result.Route
	if request.SessionId != "" {
		if route.Source == router.SourceClassified {
			s.events.PublishEndpointLocked(ctx, request.SessionId, userId, route.Category)
		}

		state.Category = route.Category
		if result.ChatID != "" {
			state.UpstreamChatID = result.ChatID
		} else if !reuse {
			state.UpstreamChatID = ""
		}
		state.LastQuery = parsed.CleanPrompt
		state.LastAnswer = result.Text()
		state.Turns++
		state.UpdatedAt = time.Now()
		s.sessionRepo.Save(state)
	}

	return &dto.SendChatResponse{
		RequestId:         requestId,
		SessionId:         request.SessionId,
		Result:            result,
		Route:             route,
		Continuation:      signal,
		ReferencesContext: referencesContext,
		UpstreamChatId:    result.ChatID,
		ReusedUpstream:    reuse,
	}, nil
}

// register starts the call and records it in one critical section, so Cancel
// never sees a request id without its call
func (s *chatService) register(requestId, userId string, start func() *generation.Call) (*generation.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.inflight[requestId]; exists {
		return nil, ErrDuplicateRequest
	}
	call := start()
	s.inflight[requestId] = inflightCall{call: call, userId: userId}
	return call, nil
}

func (s *chatService) unregister(requestId string) {
	s.mu.Lock()
	delete(s.inflight, requestId)
	s.mu.Unlock()
}

func (s *chatService) Cancel(ctx context.Context, userId string, requestId string) error {
	s.mu.Lock()
	entry, ok := s.inflight[requestId]
	s.mu.Unlock()

	if !ok || entry.userId != userId {
		return ErrRequestNotFound
	}

	if entry.call.Cancel() {
		s.logger.Info(chatModule, "Generation cancelled", map[string]interface{}{
			"request_id": requestId,
		})
	}
	return nil
}

// recordApiCall hands the call record to the in-process bus; it never fails the request
func (s *chatService) recordApiCall(ctx context.Context, userId, sessionId string, mode generation.Mode, message string, started time.Time, result *generation.Result, err error) {
	record := chatevents.ApiCallRecord{
		ID:           uuid.NewString(),
		UserID:       userId,
		SessionID:    sessionId,
		Mode:         string(mode),
		LatencyMs:    time.Since(started).Milliseconds(),
		RequestBytes: len(message),
		CreatedAt:    time.Now(),
	}

	switch {
	case err == nil:
		answer := result.Text()
		record.Category = result.Category.String()
		record.Endpoint = generation.PathFor(result.Category)
		record.StatusCode = 200
		record.Success = true
		record.ResponseBytes = len(answer)
		record.TokensEstimated = chatevents.EstimateTokens(message) + chatevents.EstimateTokens(answer)
	default:
		record.ErrorType = "cancelled"
		if genErr, ok := generation.AsError(err); ok {
			record.Category = genErr.Category.String()
			record.Endpoint = generation.PathFor(genErr.Category)
			record.StatusCode = genErr.StatusCode
			record.ErrorType = genErr.Type()
		}
		record.TokensEstimated = chatevents.EstimateTokens(message)
	}

	payload, mErr := record.Marshal()
	if mErr != nil {
		return
	}
	if pErr := s.publisher.Publish(context.WithoutCancel(ctx), payload); pErr != nil {
		s.logger.Warn(chatModule, "Failed to queue API call record", map[string]interface{}{"error": pErr.Error()})
	}
}

func (s *chatService) Classify(ctx context.Context, userId string, request *dto.ClassifyRequest) (*dto.ClassifyResponse, error) {
	parsed := router.Parse(request.Message)
	if parsed.IsEmpty() {
		return nil, ErrEmptyMessage
	}

	category := parsed.Forced
	if !parsed.HasDirective() {
		category = classifier.Classify(parsed.CleanPrompt)
	}

	previousAnswer := request.PreviousAnswer
	if previousAnswer == "" && request.SessionId != "" {
		previousAnswer = s.loadState(request.SessionId, userId).LastAnswer
	}

	res := &dto.ClassifyResponse{
		Category:          category.String(),
		Continuation:      continuation.Detect(parsed.CleanPrompt, previousAnswer),
		ReferencesContext: continuation.ReferencesContext(parsed.CleanPrompt, previousAnswer),
	}
	if parsed.HasDirective() {
		res.Directive = parsed.Forced.String()
	}
	if locked, ok := s.router.Lookup(ctx, request.SessionId); ok {
		res.LockedCategory = locked.String()
	}
	return res, nil
}

func (s *chatService) GetEndpoint(ctx context.Context, sessionId string) (*dto.SessionEndpointResponse, error) {
	if sessionId == "" {
		return nil, ErrMissingSession
	}
	res := &dto.SessionEndpointResponse{SessionId: sessionId}
	if locked, ok := s.router.Lookup(ctx, sessionId); ok {
		res.Category = locked.String()
		res.Locked = true
	}
	return res, nil
}

func (s *chatService) ForceEndpoint(ctx context.Context, userId string, sessionId string, request *dto.ForceEndpointRequest) (*dto.SessionEndpointResponse, error) {
	if sessionId == "" {
		return nil, ErrMissingSession
	}
	category, ok := classifier.ParseCategory(request.Category)
	if !ok {
		return nil, ErrInvalidCategory
	}

	s.router.Force(ctx, sessionId, category)
	if state, ok := s.sessionRepo.Get(userId, sessionId); ok {
		updated := *state
		updated.Category = category
		updated.UpdatedAt = time.Now()
		s.sessionRepo.Save(&updated)
	}
	s.events.PublishEndpointForced(ctx, sessionId, userId, category)

	return &dto.SessionEndpointResponse{
		SessionId: sessionId,
		Category:  category.String(),
		Locked:    true,
	}, nil
}

// ResetSession starts a new conversation: the next message is classified again
func (s *chatService) ResetSession(ctx context.Context, userId string, sessionId string) error {
	if sessionId == "" {
		return ErrMissingSession
	}
	if err := s.router.Release(ctx, sessionId); err != nil {
		s.logger.Warn(chatModule, "Failed to release endpoint lock", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
	s.sessionRepo.Delete(userId, sessionId)
	s.events.PublishSessionReset(ctx, sessionId, userId)
	return nil
}

func (s *chatService) ConversationTree(ctx context.Context, userId string, sessionId string, auth generation.AuthKey) (*dto.ConversationTreeResponse, error) {
	if sessionId == "" {
		return nil, ErrMissingSession
	}
	if auth.IsZero() {
		return nil, ErrMissingCredential
	}

	upstreamChatId := s.loadState(sessionId, userId).UpstreamChatID
	if upstreamChatId == "" {
		upstreamChatId = sessionId
	}

	tree, err := s.dispatcher.ConversationTree(ctx, upstreamChatId, auth.Header())
	if err != nil {
		return nil, err
	}
	return &dto.ConversationTreeResponse{
		SessionId:      sessionId,
		UpstreamChatId: upstreamChatId,
		Tree:           tree,
	}, nil
}
