// FILE: pkg/ai/classifier/classifier.go
// PURPOSE: Keyword-based topic classification used to pick the generation endpoint

package classifier

import (
	"strings"
)

// Category identifies which specialised generation backend serves a conversation
type Category string

const (
	General    Category = "general"
	Healthcare Category = "healthcare"
	Education  Category = "education"
)

// HealthcareKeywords are matched as substrings, not words.
// Healthcare wins over education when both lists match.
var HealthcareKeywords = []string{
	"health", "medical", "doctor", "disease", "symptom", "treatment",
	"medicine", "hospital", "patient", "diagnosis", "therapy", "nurse",
	"surgery", "pain", "illness", "vaccine", "covid", "covid-19",
}

var EducationKeywords = []string{
	"learn", "study", "teach", "school", "university", "college",
	"student", "homework", "assignment", "exam", "test", "grade",
	"course", "subject", "lesson", "tutorial", "explain", "how to learn",
}

// Classify maps free text to a category. Total and pure: empty input is General.
func Classify(message string) Category {
	lower := strings.ToLower(message)

	if containsAny(lower, HealthcareKeywords) {
		return Healthcare
	}
	if containsAny(lower, EducationKeywords) {
		return Education
	}
	return General
}

// ParseCategory validates a category coming from outside (request bodies, stores)
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case General:
		return General, true
	case Healthcare:
		return Healthcare, true
	case Education:
		return Education, true
	default:
		return "", false
	}
}

func (c Category) String() string {
	return string(c)
}

func (c Category) Valid() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
