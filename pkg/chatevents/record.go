package chatevents

import (
	"encoding/json"
	"time"
)

// ApiCallRecord describes one upstream generation call
type ApiCallRecord struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	SessionID       string    `json:"session_id"`
	Endpoint        string    `json:"endpoint"`
	Category        string    `json:"category"`
	Mode            string    `json:"mode"`
	StatusCode      int       `json:"status_code"`
	Success         bool      `json:"success"`
	ErrorType       string    `json:"error_type,omitempty"`
	LatencyMs       int64     `json:"latency_ms"`
	RequestBytes    int       `json:"request_bytes"`
	ResponseBytes   int       `json:"response_bytes"`
	TokensEstimated int       `json:"tokens_estimated"`
	CreatedAt       time.Time `json:"created_at"`
}

// EstimateTokens is a rough count: four characters per token
func EstimateTokens(text string) int {
	return len(text) / 4
}

// Map flattens the record for the event payload
func (r ApiCallRecord) Map() map[string]interface{} {
	return map[string]interface{}{
		"id":               r.ID,
		"user_id":          r.UserID,
		"session_id":       r.SessionID,
		"endpoint":         r.Endpoint,
		"category":         r.Category,
		"mode":             r.Mode,
		"status_code":      r.StatusCode,
		"success":          r.Success,
		"error_type":       r.ErrorType,
		"latency_ms":       r.LatencyMs,
		"request_bytes":    r.RequestBytes,
		"response_bytes":   r.ResponseBytes,
		"tokens_estimated": r.TokensEstimated,
		"entity_type":      "chat_api_call",
		"entity_id":        r.ID,
	}
}

func (r ApiCallRecord) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func UnmarshalRecord(data []byte) (ApiCallRecord, error) {
	var r ApiCallRecord
	err := json.Unmarshal(data, &r)
	return r, err
}
