// FILE: pkg/ai/continuation/detector.go
// PURPOSE: Decide whether a follow-up message continues the previous answer

package continuation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Group names
const (
	GroupDirect       = "direct"
	GroupReference    = "reference"
	GroupElaboration  = "elaboration"
	GroupNextSteps    = "nextSteps"
	GroupSpecific     = "specific"
	GroupRelationship = "relationship"
)

type patternGroup struct {
	name     string
	patterns []string
}

// Order is significant: it defines the order of MatchedPatternGroups.
var patternGroups = []patternGroup{
	{GroupDirect, []string{"continue", "next", "more", "go on", "keep going", "proceed", "further", "then what", "what comes next"}},
	{GroupReference, []string{"that", "this", "it", "the above", "the previous", "what you said", "your answer", "you mentioned", "as you said"}},
	{GroupElaboration, []string{"tell me more", "elaborate", "expand on", "explain more", "more details", "more information", "clarify", "further explain", "go deeper"}},
	{GroupNextSteps, []string{"what comes next", "then what", "after that", "following that", "subsequently", "next step", "then", "next phase"}},
	{GroupSpecific, []string{"first", "second", "third", "part of", "regarding", "about the", "the first", "the second", "in that", "in this"}},
	{GroupRelationship, []string{"how does", "how is", "why is", "what is the", "what about", "how about", "compared to", "versus", "difference between"}},
}

const (
	// A direct keyword alone is enough; otherwise this many groups must match.
	groupThreshold = 2

	contextWordCount  = 10
	contextWordMinLen = 5
)

// Signal is computed fresh for every message and never stored
type Signal struct {
	IsContinuation       bool     `json:"is_continuation"`
	Confidence           int      `json:"confidence"` // 0..100
	Score                int      `json:"score"`
	MaxScore             int      `json:"max_score"`
	MatchedPatternGroups []string `json:"matched_pattern_groups"`
}

// Reason renders the match trace the way it is logged
func (s Signal) Reason() string {
	if len(s.MatchedPatternGroups) == 0 {
		return "No continuation patterns detected"
	}
	return strings.Join(s.MatchedPatternGroups, ", ")
}

// Detect scores message against the continuation pattern groups.
// previousAnswer is accepted for symmetry with ReferencesContext and does not affect the score.
func Detect(message, previousAnswer string) Signal {
	lower := strings.ToLower(strings.TrimSpace(message))

	score := 0
	matched := make([]string, 0, len(patternGroups))
	for _, g := range patternGroups {
		if p, ok := firstMatch(lower, g.patterns); ok {
			score++
			matched = append(matched, fmt.Sprintf("%s: %q", g.name, p))
		}
	}

	maxScore := len(patternGroups)
	confidence := int(math.Round(float64(score) / float64(maxScore) * 100))

	_, hasDirect := firstMatch(lower, patternGroups[0].patterns)

	return Signal{
		IsContinuation:       hasDirect || score >= groupThreshold,
		Confidence:           confidence,
		Score:                score,
		MaxScore:             maxScore,
		MatchedPatternGroups: matched,
	}
}

// ReferencesContext reports whether message reuses one of the first significant
// words (longer than four characters) of previousAnswer.
func ReferencesContext(message, previousAnswer string) bool {
	if previousAnswer == "" {
		return false
	}

	lowerMessage := strings.ToLower(message)

	seen := 0
	for _, word := range strings.Fields(strings.ToLower(previousAnswer)) {
		if utf8.RuneCountInString(word) < contextWordMinLen {
			continue
		}
		if strings.Contains(lowerMessage, word) {
			return true
		}
		seen++
		if seen == contextWordCount {
			break
		}
	}
	return false
}

func firstMatch(s string, patterns []string) (string, bool) {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return p, true
		}
	}
	return "", false
}
