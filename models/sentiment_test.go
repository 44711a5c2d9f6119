package models

import "testing"

func TestGetSentiment(t *testing.T) {
	cases := []struct {
		text string
		want Sentiment
	}{
		{"Hostel water leak problem", SentimentNegative},
		{"Great support from faculty", SentimentPositive},
		{"Timetable clash", SentimentNeutral},
		{"Wifi is unstable and slow", SentimentNegative},
		{"Issue resolved, excellent handling", SentimentPositive},
		{"", SentimentNeutral},
	}
	for _, c := range cases {
		if got := GetSentiment(c.text); got != c.want {
			t.Errorf("GetSentiment(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestGetSentimentNegativeWinsOverPositive(t *testing.T) {
	// Both keyword sets match; negative takes priority.
	if got := GetSentiment("Support was good but the delay was bad"); got != SentimentNegative {
		t.Fatalf("mixed text = %s, want %s", got, SentimentNegative)
	}
}

func TestGetSentimentCaseInsensitive(t *testing.T) {
	if got := GetSentiment("EXCELLENT cafeteria"); got != SentimentPositive {
		t.Fatalf("uppercase text = %s, want %s", got, SentimentPositive)
	}
	if got := GetSentiment("POOR lighting"); got != SentimentNegative {
		t.Fatalf("uppercase text = %s, want %s", got, SentimentNegative)
	}
}
