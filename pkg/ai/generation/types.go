package generation

import (
	"encoding/json"

	"ai-chat-router-be/pkg/ai/classifier"
	"ai-chat-router-be/pkg/ai/router"
)

// Mode is both the requested generation mode and the shape of the normalized result
type Mode string

const (
	ModeChat    Mode = "chat"
	ModeDebate  Mode = "debate"
	ModeProject Mode = "project"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeChat, ModeDebate, ModeProject:
		return Mode(s), true
	case "":
		return ModeChat, true
	default:
		return "", false
	}
}

// Content is one of ChatPayload, *DebatePayload or *ProjectPayload
type Content interface {
	mode() Mode
}

// ChatPayload is the plain response text
type ChatPayload string

func (ChatPayload) mode() Mode { return ModeChat }

type DebateResponse struct {
	Persona  string `json:"persona"`
	Response string `json:"response"`
}

type DebatePayload struct {
	Question  string           `json:"question"`
	Responses []DebateResponse `json:"debate_responses"`
}

func (*DebatePayload) mode() Mode { return ModeDebate }

type ProjectPayload struct {
	Goal            string          `json:"goal"`
	StructuredData  *StructuredData `json:"structured_data"`
	FormattedOutput string          `json:"formatted_output"`
}

func (*ProjectPayload) mode() Mode { return ModeProject }

type StructuredData struct {
	Phases []Phase `json:"phases"`
}

// Phase keeps fields it does not model in Extra so nothing is lost on the way through
type Phase struct {
	PhaseName string                     `json:"phase_name"`
	Tasks     []Task                     `json:"tasks"`
	Extra     map[string]json.RawMessage `json:"-"`
}

type Task struct {
	TaskName string                     `json:"task_name"`
	Extra    map[string]json.RawMessage `json:"-"`
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	type plain Phase
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	extra, err := extraFields(data, "phase_name", "tasks")
	if err != nil {
		return err
	}
	p.Extra = extra
	return nil
}

func (p Phase) MarshalJSON() ([]byte, error) {
	type plain Phase
	return mergeExtra((plain)(p), p.Extra)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	if err := json.Unmarshal(data, (*plain)(t)); err != nil {
		return err
	}
	extra, err := extraFields(data, "task_name")
	if err != nil {
		return err
	}
	t.Extra = extra
	return nil
}

func (t Task) MarshalJSON() ([]byte, error) {
	type plain Task
	return mergeExtra((plain)(t), t.Extra)
}

func extraFields(data []byte, known ...string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func mergeExtra(v interface{}, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, exists := all[k]; !exists {
			all[k] = raw
		}
	}
	return json.Marshal(all)
}

// Reference accepts either a {title, url} object or a bare URL string
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (r *Reference) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Title = s
		r.URL = s
		return nil
	}
	type plain Reference
	return json.Unmarshal(data, (*plain)(r))
}

// Result is the normalized output of one generation call. The shape is decided
// once, during normalization; callers switch on Mode or on the Content type.
type Result struct {
	Mode       Mode                `json:"mode"`
	Content    Content             `json:"content"`
	References []Reference         `json:"references"`
	Followups  []string            `json:"followups"`
	Category   classifier.Category `json:"category"`
	ChatID     string              `json:"chat_id,omitempty"` // Upstream chat id, when returned
	Route      *router.Decision    `json:"route,omitempty"`
}

// Chat returns the text for chat results
func (r *Result) Chat() (string, bool) {
	c, ok := r.Content.(ChatPayload)
	return string(c), ok
}

func (r *Result) Debate() (*DebatePayload, bool) {
	d, ok := r.Content.(*DebatePayload)
	return d, ok
}

func (r *Result) Project() (*ProjectPayload, bool) {
	p, ok := r.Content.(*ProjectPayload)
	return p, ok
}

// Text flattens the result into the answer text used for continuation checks
func (r *Result) Text() string {
	switch c := r.Content.(type) {
	case ChatPayload:
		return string(c)
	case *ProjectPayload:
		if c.FormattedOutput != "" {
			return c.FormattedOutput
		}
		return c.Goal
	case *DebatePayload:
		text := c.Question
		for _, resp := range c.Responses {
			text += "\n" + resp.Response
		}
		return text
	default:
		return ""
	}
}
