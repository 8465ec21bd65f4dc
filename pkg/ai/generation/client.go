package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ai-chat-router-be/internal/pkg/logger"
	"ai-chat-router-be/pkg/ai/classifier"
)

const (
	logModule = "GENERATION"

	PathGeneral          = "/generate"
	PathHealthcare       = "/healthcare/generate"
	PathEducation        = "/edu/generate"
	PathConversationTree = "/api/conversation/tree"

	DefaultGradeLevel = "general"

	maxBodyBytes = 10 * 1024 * 1024
)

// Request is one generation call. GradeLevel is only sent to the education endpoint.
type Request struct {
	Message    string
	Mode       Mode
	UseHistory bool
	SessionID  string // Upstream chat id; empty starts a new upstream thread
	GradeLevel string
}

type generateBody struct {
	Message    string `json:"message"`
	Mode       Mode   `json:"mode"`
	UseHistory bool   `json:"use_history"`
	GradeLevel string `json:"grade_level,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

// Client talks to the external generation API. It never retries.
type Client struct {
	BaseURL string
	Client  *http.Client
	logger  logger.ILogger
}

func NewClient(baseURL string, timeout time.Duration, logger logger.ILogger) *Client {
	return &Client{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// PathFor returns the generate entry point serving category
func PathFor(category classifier.Category) string {
	switch category {
	case classifier.Healthcare:
		return PathHealthcare
	case classifier.Education:
		return PathEducation
	default:
		return PathGeneral
	}
}

// Generate calls the entry point for category
func (c *Client) Generate(ctx context.Context, category classifier.Category, req Request, header http.Header) (*Result, error) {
	switch category {
	case classifier.Healthcare:
		return c.GenerateHealthcare(ctx, req, header)
	case classifier.Education:
		return c.GenerateEducation(ctx, req, header)
	default:
		return c.GenerateGeneral(ctx, req, header)
	}
}

func (c *Client) GenerateGeneral(ctx context.Context, req Request, header http.Header) (*Result, error) {
	return c.generate(ctx, classifier.General, PathGeneral, req, header)
}

func (c *Client) GenerateHealthcare(ctx context.Context, req Request, header http.Header) (*Result, error) {
	return c.generate(ctx, classifier.Healthcare, PathHealthcare, req, header)
}

func (c *Client) GenerateEducation(ctx context.Context, req Request, header http.Header) (*Result, error) {
	if req.GradeLevel == "" {
		req.GradeLevel = DefaultGradeLevel
	}
	return c.generate(ctx, classifier.Education, PathEducation, req, header)
}

func (c *Client) generate(ctx context.Context, category classifier.Category, path string, req Request, header http.Header) (*Result, error) {
	mode := req.Mode
	if mode == "" {
		mode = ModeChat
	}

	body := generateBody{
		Message:    req.Message,
		Mode:       mode,
		UseHistory: req.UseHistory,
		SessionID:  req.SessionID,
	}
	if category == classifier.Education {
		body.GradeLevel = req.GradeLevel
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Info(logModule, "Generating response", map[string]interface{}{
		"category":       category,
		"mode":           mode,
		"message_length": len(req.Message),
		"has_session":    req.SessionID != "",
	})

	status, respBody, err := c.do(ctx, category, http.MethodPost, path, bytes.NewReader(payload), header)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		genErr := NewStatusError(category, status, respBody, fallbackMessage(category, status))
		c.logger.Error(logModule, "Generation endpoint returned an error", map[string]interface{}{
			"category": category,
			"status":   status,
			"error":    genErr.Message,
		})
		return nil, genErr
	}

	env, err := decodeEnvelope(respBody)
	if err != nil {
		return nil, newMalformedError(category, status, err)
	}

	result := normalize(env, category)
	c.logger.Info(logModule, "Response generated", map[string]interface{}{
		"category": category,
		"mode":     result.Mode,
	})
	return result, nil
}

// ConversationTree fetches the upstream tree used for non-linear navigation
func (c *Client) ConversationTree(ctx context.Context, sessionID string, header http.Header) (json.RawMessage, error) {
	path := PathConversationTree + "?session_id=" + url.QueryEscape(sessionID)

	status, respBody, err := c.do(ctx, classifier.General, http.MethodGet, path, nil, header)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, NewStatusError(classifier.General, status, respBody,
			fmt.Sprintf("Failed to fetch conversation tree: %d", status))
	}
	if !json.Valid(respBody) {
		return nil, newMalformedError(classifier.General, status, fmt.Errorf("invalid JSON"))
	}
	return json.RawMessage(respBody), nil
}

func (c *Client) do(ctx context.Context, category classifier.Category, method, path string, body io.Reader, header http.Header) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, nil, NewNetworkError(category, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, NewNetworkError(category, fmt.Errorf("read response: %w", err))
	}
	return resp.StatusCode, respBody, nil
}
