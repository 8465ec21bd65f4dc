package router

import (
	"testing"

	"ai-chat-router-be/pkg/ai/classifier"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name            string
		prompt          string
		wantForced      classifier.Category
		wantCleanPrompt string
		wantEmpty       bool
	}{
		{
			name:            "no directive",
			prompt:          "What is machine learning?",
			wantForced:      "",
			wantCleanPrompt: "What is machine learning?",
		},
		{
			name:            "healthcare directive",
			prompt:          "/healthcare is this rash serious",
			wantForced:      classifier.Healthcare,
			wantCleanPrompt: "is this rash serious",
		},
		{
			name:            "education long form",
			prompt:          "/Education photosynthesis basics",
			wantForced:      classifier.Education,
			wantCleanPrompt: "photosynthesis basics",
		},
		{
			name:            "education short form",
			prompt:          "  /edu fractions  ",
			wantForced:      classifier.Education,
			wantCleanPrompt: "fractions",
		},
		{
			name:            "general directive only",
			prompt:          "/general",
			wantForced:      classifier.General,
			wantCleanPrompt: "",
			wantEmpty:       true,
		},
		{
			name:            "prefix glued to a word is not a directive",
			prompt:          "/educational games",
			wantForced:      "",
			wantCleanPrompt: "/educational games",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.prompt)

			if result.Forced != tt.wantForced {
				t.Errorf("Forced = %q, want %q", result.Forced, tt.wantForced)
			}

			if result.CleanPrompt != tt.wantCleanPrompt {
				t.Errorf("CleanPrompt = %q, want %q", result.CleanPrompt, tt.wantCleanPrompt)
			}

			if result.IsEmpty() != tt.wantEmpty {
				t.Errorf("IsEmpty = %v, want %v", result.IsEmpty(), tt.wantEmpty)
			}

			if result.HasDirective() != (tt.wantForced != "") {
				t.Errorf("HasDirective = %v, want %v", result.HasDirective(), tt.wantForced != "")
			}
		})
	}
}
