// Package risk scores student messages for distress signals so the companion
// can escalate toward human help when needed.
package risk

import "strings"

// Level classifies the urgency of a message.
type Level string

const (
	None     Level = "none"
	Elevated Level = "elevated"
	Crisis   Level = "crisis"
)

// Assessment is the scoring result for one utterance.
type Assessment struct {
	Level Level
	Score int
}

// crisisPhrases trigger escalation on any single hit.
var crisisPhrases = []string{
	"kill myself", "suicide", "suicidal", "self-harm", "self harm", "hurt myself",
	"end my life", "end it all", "want to die", "no reason to live", "better off dead",
	"cutting myself",
}

var elevatedKeywords = []string{
	"hopeless", "worthless", "can't cope", "cant cope", "panic attack", "panicking",
	"overwhelmed", "burned out", "burnt out", "exhausted", "can't sleep", "cant sleep",
	"anxious", "anxiety", "depressed", "depression", "alone", "lonely", "failing",
	"give up", "breaking down", "falling apart", "scared", "crying", "stressed",
}

// Analyze scores a single student utterance. Any crisis phrase escalates
// immediately; elevated keywords accumulate and cross a threshold.
func Analyze(text string) Assessment {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Assessment{Level: None}
	}

	for _, phrase := range crisisPhrases {
		if strings.Contains(normalized, phrase) {
			return Assessment{Level: Crisis, Score: 10}
		}
	}

	score := 0
	for _, word := range elevatedKeywords {
		if strings.Contains(normalized, word) {
			score += 3
		}
	}

	if score >= 3 {
		return Assessment{Level: Elevated, Score: score}
	}
	return Assessment{Level: None, Score: score}
}
