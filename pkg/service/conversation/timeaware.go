package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
)

// DescribeGap buckets the elapsed time since the persona last spoke with
// the user into a human phrase. Deterministic and pure.
func DescribeGap(gap time.Duration) string {
	switch {
	case gap < time.Minute:
		return "moments ago"
	case gap < time.Hour:
		return plural(int(gap.Minutes()), "minute")
	case gap < 24*time.Hour:
		return plural(int(gap.Hours()), "hour")
	case gap < 7*24*time.Hour:
		return plural(int(gap.Hours()/24), "day")
	case gap < 30*24*time.Hour:
		return plural(int(gap.Hours()/(24*7)), "week")
	case gap < 365*24*time.Hour:
		return plural(int(gap.Hours()/(24*30)), "month")
	default:
		return plural(int(gap.Hours()/(24*365)), "year")
	}
}

func plural(n int, unit string) string {
	if n <= 1 {
		article := "a"
		if unit == "hour" {
			article = "an"
		}
		return fmt.Sprintf("%s %s ago", article, unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// Keyword sets driving the gap-acknowledgment decision. Closeness and
// warmth push toward a proactive remark about the time gap; formal or
// reserved styles suppress casual time remarks.
var (
	closenessKeywords = []string{
		"best friend", "close", "partner", "wife", "husband", "girlfriend",
		"boyfriend", "family", "mother", "father", "sister", "brother",
		"soulmate", "companion",
	}
	warmTraitKeywords = []string{
		"caring", "warm", "affectionate", "friendly", "casual", "playful",
		"cheerful", "loving", "bubbly",
	}
	formalStyleKeywords = []string{
		"formal", "professional", "reserved", "distant", "businesslike",
		"stoic", "terse",
	}
)

// ShouldAcknowledgeGap decides whether the persona proactively comments on
// the time since the last conversation. Long gaps (a week or more) always
// warrant acknowledgment; short gaps never do. In between, closeness and
// warm traits vote for a remark while formal styles vote against.
// Deterministic so it is independently testable.
func ShouldAcknowledgeGap(p *model.Persona, gap time.Duration) bool {
	if gap >= 7*24*time.Hour {
		return true
	}
	if gap < time.Hour {
		return false
	}

	score := 0
	score += countKeywords(p.Relation, closenessKeywords)
	score += countKeywords(p.Traits, warmTraitKeywords)
	score -= countKeywords(p.ResponseStyle, formalStyleKeywords)
	score -= countKeywords(p.Traits, formalStyleKeywords)

	return score >= 1
}

func countKeywords(text string, keywords []string) int {
	text = strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

// timeHint renders the time-awareness instruction injected into the chat
// prompt. Empty when the persona has never spoken with the user.
func timeHint(p *model.Persona, now time.Time) string {
	if p.LastChatTime.IsZero() {
		return ""
	}

	gap := now.Sub(p.LastChatTime)
	if gap < 0 {
		gap = 0
	}

	desc := DescribeGap(gap)
	if ShouldAcknowledgeGap(p, gap) {
		return fmt.Sprintf("Your last conversation with the user was %s. Naturally acknowledge the time that has passed, in your own voice.", desc)
	}
	return fmt.Sprintf("Your last conversation with the user was %s. Do not remark on the time gap unless the user brings it up.", desc)
}
