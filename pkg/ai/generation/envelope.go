package generation

import (
	"encoding/json"

	"ai-chat-router-be/pkg/ai/classifier"
)

// envelope is the loosely specified success body of the generate endpoints.
// Several fields have historical aliases; the first non-empty one wins.
type envelope struct {
	Response        json.RawMessage `json:"response"`
	Debate          *DebatePayload  `json:"debate"`
	Goal            string          `json:"goal"`
	StructuredData  *StructuredData `json:"structured_data"`
	FormattedOutput string          `json:"formatted_output"`

	References []Reference `json:"references"`
	Sources    []Reference `json:"sources"`
	Links      []Reference `json:"links"`

	FollowupQuestions []string `json:"followup_questions"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	Followups         []string `json:"followups"`

	SessionID string `json:"session_id"`
	ChatID    string `json:"chat_id"`
}

func decodeEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// normalize picks the result shape once: debate, then project, then chat
func normalize(env *envelope, category classifier.Category) *Result {
	result := &Result{
		Category:   category,
		References: firstNonEmpty(env.References, env.Sources, env.Links),
		Followups:  firstNonEmpty(env.FollowupQuestions, env.FollowUpQuestions, env.Followups),
		ChatID:     env.ChatID,
	}
	if result.ChatID == "" {
		result.ChatID = env.SessionID
	}

	switch {
	case env.Debate != nil:
		result.Mode = ModeDebate
		result.Content = env.Debate
	case env.StructuredData != nil && env.StructuredData.Phases != nil:
		result.Mode = ModeProject
		result.Content = &ProjectPayload{
			Goal:            env.Goal,
			StructuredData:  env.StructuredData,
			FormattedOutput: env.FormattedOutput,
		}
	default:
		result.Mode = ModeChat
		result.Content = ChatPayload(responseText(env.Response))
	}

	return result
}

// responseText accepts a JSON string or, failing that, the raw JSON value
func responseText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func firstNonEmpty[T any](lists ...[]T) []T {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return []T{}
}
