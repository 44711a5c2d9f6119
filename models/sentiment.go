package models

import "strings"

// Keyword sets are checked independently; negative takes priority when both match.
var negativeKeywords = []string{"fail", "bad", "unstable", "delay", "poor", "leak", "problem", "confusing", "slow"}
var positiveKeywords = []string{"good", "great", "resolved", "helpful", "excellent", "support"}

// GetSentiment classifies free text by deterministic keyword match.
func GetSentiment(text string) Sentiment {
	lowered := strings.ToLower(text)
	for _, keyword := range negativeKeywords {
		if strings.Contains(lowered, keyword) {
			return SentimentNegative
		}
	}
	for _, keyword := range positiveKeywords {
		if strings.Contains(lowered, keyword) {
			return SentimentPositive
		}
	}
	return SentimentNeutral
}
