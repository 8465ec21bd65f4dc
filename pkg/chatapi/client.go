package chatapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ai-chat-router-be/internal/pkg/logger"
	"ai-chat-router-be/pkg/ai/classifier"
	"ai-chat-router-be/pkg/ai/generation"

	"github.com/patrickmn/go-cache"
)

const (
	logModule = "CHAT_API"

	pathChats = "/api/chats"

	maxBodyBytes = 5 * 1024 * 1024
)

// Client is a caching pass-through to the upstream chat history API.
// Items are kept as raw JSON; their shape belongs to the upstream.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache.Cache
	logger  logger.ILogger
}

func NewClient(baseURL string, timeout, ttl time.Duration, logger logger.ILogger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   cache.New(ttl, 2*ttl),
		logger:  logger,
	}
}

func conversationsKey(userID string) string {
	return "conversations:" + userID
}

func messagesKey(userID, chatID string) string {
	return "messages:" + userID + ":" + chatID
}

// cachedList remembers which credential fetched the items. A hit is only served
// to that same credential.
type cachedList struct {
	items      []json.RawMessage
	credential string
}

// credentialOf fingerprints the auth headers so raw tokens are never kept
func credentialOf(header http.Header) string {
	sum := sha256.Sum256([]byte(header.Get("Authorization") + "\n" + header.Get(generation.HeaderAPIKey)))
	return hex.EncodeToString(sum[:])
}

func (c *Client) lookup(key, credential string) ([]json.RawMessage, bool) {
	v, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	entry := v.(cachedList)
	if entry.credential != credential {
		return nil, false
	}
	return entry.items, true
}

func (c *Client) store(key, credential string, items []json.RawMessage) {
	c.cache.SetDefault(key, cachedList{items: items, credential: credential})
}

// staleAllowed reports whether err is an outage rather than a refusal.
// Auth and client errors never fall back to the cache.
func staleAllowed(err error) bool {
	if errors.Is(err, generation.ErrNetwork) {
		return true
	}
	genErr, ok := generation.AsError(err)
	return ok && genErr.StatusCode >= 500
}

// Conversations lists the user's chats. When the upstream is down the last list
// fetched with the same credential is served instead.
func (c *Client) Conversations(ctx context.Context, userID string, header http.Header) ([]json.RawMessage, error) {
	key := conversationsKey(userID)
	credential := credentialOf(header)

	items, err := c.fetchList(ctx, pathChats, header, "Failed to fetch conversations: %d")
	if err != nil {
		if !staleAllowed(err) {
			return nil, err
		}
		if cached, found := c.lookup(key, credential); found {
			c.logger.Warn(logModule, "Serving cached conversations", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
			return cached, nil
		}
		return nil, err
	}

	c.store(key, credential, items)
	return items, nil
}

// Messages returns one chat's messages, from cache when the same credential fetched them
func (c *Client) Messages(ctx context.Context, userID, chatID string, header http.Header) ([]json.RawMessage, error) {
	key := messagesKey(userID, chatID)
	credential := credentialOf(header)
	if cached, found := c.lookup(key, credential); found {
		c.logger.Debug(logModule, "Messages retrieved from cache", map[string]interface{}{"chat_id": chatID})
		return cached, nil
	}

	path := fmt.Sprintf("%s/%s/messages", pathChats, url.PathEscape(chatID))
	items, err := c.fetchList(ctx, path, header, "Failed to fetch messages: %d")
	if err != nil {
		return nil, err
	}

	c.store(key, credential, items)
	return items, nil
}

// Delete removes a chat upstream and drops it from the cache
func (c *Client) Delete(ctx context.Context, userID, chatID string, header http.Header) (json.RawMessage, error) {
	path := fmt.Sprintf("%s/%s", pathChats, url.PathEscape(chatID))
	status, body, err := c.do(ctx, http.MethodDelete, path, header)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, generation.NewStatusError(classifier.General, status, body,
			fmt.Sprintf("Failed to delete conversation: %d", status))
	}

	c.Invalidate(userID, chatID)
	c.logger.Info(logModule, "Conversation deleted", map[string]interface{}{"chat_id": chatID})

	if len(body) == 0 || !json.Valid(body) {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(body), nil
}

// Invalidate drops the user's conversation list and, when chatID is set, its messages
func (c *Client) Invalidate(userID, chatID string) {
	c.cache.Delete(conversationsKey(userID))
	if chatID != "" {
		c.cache.Delete(messagesKey(userID, chatID))
	}
}

func (c *Client) fetchList(ctx context.Context, path string, header http.Header, fallback string) ([]json.RawMessage, error) {
	status, body, err := c.do(ctx, http.MethodGet, path, header)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, generation.NewStatusError(classifier.General, status, body, fmt.Sprintf(fallback, status))
	}
	return decodeList(body)
}

// decodeList accepts {"success":true,"data":[...]} or a bare array
func decodeList(body []byte) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err == nil {
		if list == nil {
			list = []json.RawMessage{}
		}
		return list, nil
	}

	var wrapped struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode chat list: %w", err)
	}
	if wrapped.Data == nil {
		return []json.RawMessage{}, nil
	}
	return wrapped.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, generation.NewNetworkError(classifier.General, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, generation.NewNetworkError(classifier.General, fmt.Errorf("read response: %w", err))
	}
	return resp.StatusCode, body, nil
}
