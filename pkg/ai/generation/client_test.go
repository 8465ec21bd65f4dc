package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-chat-router-be/internal/pkg/logger"
	"ai-chat-router-be/pkg/ai/classifier"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, logger.NewNopLogger())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestClient_EndpointPaths(t *testing.T) {
	tests := []struct {
		category classifier.Category
		path     string
	}{
		{classifier.General, PathGeneral},
		{classifier.Healthcare, PathHealthcare},
		{classifier.Education, PathEducation},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			var gotPath string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				writeJSON(w, http.StatusOK, `{"response":"ok"}`)
			})

			result, err := c.Generate(context.Background(), tt.category, Request{Message: "hi"}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.path, gotPath)
			assert.Equal(t, tt.category, result.Category)
		})
	}
}

func TestClient_RequestBody(t *testing.T) {
	var got map[string]interface{}
	var gotHeader http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, `{"response":"ok"}`)
	})

	header := AuthKey{Type: AuthBearer, Value: "tok"}.Header()
	_, err := c.GenerateEducation(context.Background(), Request{
		Message:    "explain photosynthesis",
		UseHistory: true,
		SessionID:  "chat-9",
	}, header)
	require.NoError(t, err)

	assert.Equal(t, "explain photosynthesis", got["message"])
	assert.Equal(t, "chat", got["mode"])
	assert.Equal(t, true, got["use_history"])
	assert.Equal(t, "chat-9", got["session_id"])
	assert.Equal(t, DefaultGradeLevel, got["grade_level"])
	assert.Equal(t, "Bearer tok", gotHeader.Get("Authorization"))
}

func TestClient_GradeLevelOnlyForEducation(t *testing.T) {
	var got map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, `{"response":"ok"}`)
	})

	_, err := c.GenerateGeneral(context.Background(), Request{Message: "hi", GradeLevel: "grade-5"}, nil)
	require.NoError(t, err)

	_, hasGrade := got["grade_level"]
	_, hasSession := got["session_id"]
	assert.False(t, hasGrade)
	assert.False(t, hasSession)
}

func TestClient_NormalizesShapes(t *testing.T) {
	t.Run("chat", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"response":"hello","sources":["https://a.example"],"follow_up_questions":["next?"],"session_id":"s-1"}`)
		})

		result, err := c.GenerateGeneral(context.Background(), Request{Message: "hi"}, nil)
		require.NoError(t, err)

		text, ok := result.Chat()
		require.True(t, ok)
		assert.Equal(t, ModeChat, result.Mode)
		assert.Equal(t, "hello", text)
		assert.Equal(t, []Reference{{Title: "https://a.example", URL: "https://a.example"}}, result.References)
		assert.Equal(t, []string{"next?"}, result.Followups)
		assert.Equal(t, "s-1", result.ChatID)
	})

	t.Run("debate wins over everything", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{
				"response":"ignored",
				"debate":{"question":"Is rent better?","debate_responses":[{"persona":"saver","response":"buy"}]},
				"structured_data":{"phases":[]}
			}`)
		})

		result, err := c.GenerateGeneral(context.Background(), Request{Message: "debate", Mode: ModeDebate}, nil)
		require.NoError(t, err)

		debate, ok := result.Debate()
		require.True(t, ok)
		assert.Equal(t, ModeDebate, result.Mode)
		assert.Equal(t, "Is rent better?", debate.Question)
		require.Len(t, debate.Responses, 1)
		assert.Equal(t, "buy", debate.Responses[0].Response)
	})

	t.Run("project keeps phases", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{
				"goal":"Launch",
				"structured_data":{"phases":[{"phase_name":"Plan","duration":"2w","tasks":[{"task_name":"Scope","owner":"me"}]}]},
				"formatted_output":"# Launch",
				"links":[{"title":"Guide","url":"https://g.example"}],
				"followups":["Budget?"]
			}`)
		})

		result, err := c.GenerateGeneral(context.Background(), Request{Message: "plan", Mode: ModeProject}, nil)
		require.NoError(t, err)

		project, ok := result.Project()
		require.True(t, ok)
		assert.Equal(t, "Launch", project.Goal)
		assert.Equal(t, "# Launch", project.FormattedOutput)
		require.Len(t, project.StructuredData.Phases, 1)

		phase := project.StructuredData.Phases[0]
		assert.Equal(t, "Plan", phase.PhaseName)
		assert.JSONEq(t, `"2w"`, string(phase.Extra["duration"]))
		require.Len(t, phase.Tasks, 1)
		assert.JSONEq(t, `"me"`, string(phase.Tasks[0].Extra["owner"]))

		assert.Equal(t, []Reference{{Title: "Guide", URL: "https://g.example"}}, result.References)
		assert.Equal(t, []string{"Budget?"}, result.Followups)
	})

	t.Run("structured data without phases is chat", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"response":"plain","structured_data":{}}`)
		})

		result, err := c.GenerateGeneral(context.Background(), Request{Message: "x"}, nil)
		require.NoError(t, err)
		assert.Equal(t, ModeChat, result.Mode)
		assert.Equal(t, "plain", result.Text())
		assert.NotNil(t, result.References)
		assert.NotNil(t, result.Followups)
	})
}

func TestNormalize_ProjectSharesStructuredData(t *testing.T) {
	env := &envelope{StructuredData: &StructuredData{Phases: []Phase{{PhaseName: "One"}}}}

	result := normalize(env, classifier.General)

	project, ok := result.Project()
	require.True(t, ok)
	assert.Same(t, env.StructuredData, project.StructuredData)
}

func TestNormalize_FirstNonEmptyAlias(t *testing.T) {
	env := &envelope{
		References:        []Reference{},
		Sources:           []Reference{{URL: "s"}},
		Links:             []Reference{{URL: "l"}},
		FollowupQuestions: nil,
		FollowUpQuestions: []string{"b"},
		Followups:         []string{"c"},
	}

	result := normalize(env, classifier.General)

	assert.Equal(t, []Reference{{URL: "s"}}, result.References)
	assert.Equal(t, []string{"b"}, result.Followups)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		category classifier.Category
		status   int
		body     string
		kind     error
		message  string
		errType  string
	}{
		{"rate limit with server message", classifier.General, http.StatusTooManyRequests, `{"error":"slow down"}`, ErrRateLimited, "slow down", "rate_limit"},
		{"rate limit fallback", classifier.General, http.StatusTooManyRequests, ``, ErrRateLimited, msgRateLimited, "rate_limit"},
		{"auth fallback", classifier.Healthcare, http.StatusUnauthorized, `not json`, ErrAuthentication, msgAuthentication, "auth"},
		{"generic general", classifier.General, http.StatusInternalServerError, `{}`, ErrGeneration, "API error: 500", "generation"},
		{"generic healthcare", classifier.Healthcare, http.StatusBadGateway, `{}`, ErrGeneration, "Healthcare API error: 502", "generation"},
		{"generic education", classifier.Education, http.StatusBadRequest, `{"error":"bad grade"}`, ErrGeneration, "bad grade", "generation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			result, err := c.Generate(context.Background(), tt.category, Request{Message: "hi"}, nil)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, tt.kind))
			assert.Equal(t, tt.message, err.Error())

			genErr, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, genErr.StatusCode)
			assert.Equal(t, tt.category, genErr.Category)
			assert.Equal(t, tt.errType, genErr.Type())
		})
	}
}

func TestClient_MalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `<html>`)
	})

	_, err := c.GenerateGeneral(context.Background(), Request{Message: "hi"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeneration))
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, logger.NewNopLogger())
	_, err := c.GenerateHealthcare(context.Background(), Request{Message: "hi"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))

	genErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, 0, genErr.StatusCode)
	assert.Equal(t, "network", genErr.Type())
}

func TestClient_ConversationTree(t *testing.T) {
	t.Run("passes body through", func(t *testing.T) {
		var gotQuery string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("session_id")
			assert.Equal(t, PathConversationTree, r.URL.Path)
			writeJSON(w, http.StatusOK, `{"nodes":[{"id":"n1"}]}`)
		})

		tree, err := c.ConversationTree(context.Background(), "chat 1", nil)
		require.NoError(t, err)
		assert.Equal(t, "chat 1", gotQuery)
		assert.JSONEq(t, `{"nodes":[{"id":"n1"}]}`, string(tree))
	})

	t.Run("error fallback", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, ``)
		})

		_, err := c.ConversationTree(context.Background(), "chat-1", nil)
		require.Error(t, err)
		assert.Equal(t, "Failed to fetch conversation tree: 404", err.Error())
	})
}

func TestAuthKey_Header(t *testing.T) {
	bearer := AuthKey{Type: AuthBearer, Value: "jwt"}.Header()
	assert.Equal(t, "Bearer jwt", bearer.Get("Authorization"))
	assert.Empty(t, bearer.Get(HeaderAPIKey))

	guest := AuthKey{Type: AuthAPIKey, Value: "guest-key"}.Header()
	assert.Equal(t, "guest-key", guest.Get(HeaderAPIKey))
	assert.Empty(t, guest.Get("Authorization"))
	assert.Equal(t, "application/json", guest.Get("Content-Type"))
}
