package continuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name           string
		message        string
		wantContinue   bool
		wantScore      int
		wantConfidence int
	}{
		{
			name:           "direct keyword overrides threshold",
			message:        "continue please",
			wantContinue:   true,
			wantScore:      1,
			wantConfidence: 17,
		},
		{
			name:           "two non-direct groups",
			message:        "is that cheaper compared to rent",
			wantContinue:   true,
			wantScore:      2,
			wantConfidence: 33,
		},
		{
			name:           "single group is not enough",
			message:        "is that cheap",
			wantContinue:   false,
			wantScore:      1,
			wantConfidence: 17,
		},
		{
			name:           "no patterns",
			message:        "weather in paris",
			wantContinue:   false,
			wantScore:      0,
			wantConfidence: 0,
		},
		{
			name:           "empty message",
			message:        "",
			wantContinue:   false,
			wantScore:      0,
			wantConfidence: 0,
		},
		{
			name:           "case and whitespace are ignored",
			message:        "   KEEP GOING   ",
			wantContinue:   true,
			wantScore:      1,
			wantConfidence: 17,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.message, "")

			assert.Equal(t, tt.wantContinue, got.IsContinuation)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
			assert.Equal(t, 6, got.MaxScore)
			assert.Len(t, got.MatchedPatternGroups, tt.wantScore)
		})
	}
}

func TestDetectOnePointPerGroup(t *testing.T) {
	// "tell me more", "elaborate" and "clarify" are all elaboration patterns
	got := Detect("tell me more, elaborate and clarify", "")

	elaboration := 0
	for _, m := range got.MatchedPatternGroups {
		if len(m) >= len(GroupElaboration) && m[:len(GroupElaboration)] == GroupElaboration {
			elaboration++
		}
	}
	assert.Equal(t, 1, elaboration)
	assert.Contains(t, got.MatchedPatternGroups, `elaboration: "tell me more"`)
	assert.True(t, got.IsContinuation)
}

func TestDetectTraceOrder(t *testing.T) {
	got := Detect("what comes next after that", "")

	require.NotEmpty(t, got.MatchedPatternGroups)
	assert.Equal(t, `direct: "next"`, got.MatchedPatternGroups[0])
	assert.Contains(t, got.MatchedPatternGroups, `nextSteps: "what comes next"`)
}

func TestSignalReason(t *testing.T) {
	assert.Equal(t, "No continuation patterns detected", Signal{}.Reason())

	s := Detect("is that cheaper compared to rent", "")
	assert.Equal(t, `reference: "that", relationship: "compared to"`, s.Reason())
}

func TestReferencesContext(t *testing.T) {
	answer := "Photosynthesis converts sunlight into chemical energy stored in glucose molecules"

	tests := []struct {
		name     string
		message  string
		previous string
		want     bool
	}{
		{"empty previous answer", "anything about glucose", "", false},
		{"shares significant word", "where is the glucose stored?", answer, true},
		{"case insensitive", "GLUCOSE?", answer, true},
		{"short words ignored", "into it", answer, false},
		{"unrelated", "what is the capital of peru", answer, false},
		{
			name:     "only first ten significant words count",
			message:  "tell me about eleventh",
			previous: "alpha1 bravo2 charlie3 delta4 echo55 foxtrot6 golf77 hotel8 india9 juliet10 eleventh",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReferencesContext(tt.message, tt.previous))
		})
	}
}
