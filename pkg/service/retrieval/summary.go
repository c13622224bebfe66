package retrieval

import (
	"strings"
	"unicode/utf8"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
)

const (
	// maxTopicLen bounds each topic snippet taken from a user message
	maxTopicLen = 100

	// quickSummaryMessages is how many user messages feed a synthesized summary
	quickSummaryMessages = 5

	// newMessageThreshold is how many messages must accumulate past the
	// summarized baseline before the stored summary is considered stale
	newMessageThreshold = 5

	// defaultSummaryBaseline is assumed when a session carries a stored
	// summary but no record of how large it was at summarization time
	defaultSummaryBaseline = 10

	noTopicsFallback = "General conversation"
)

func truncateTopic(s string) string {
	if utf8.RuneCountInString(s) <= maxTopicLen {
		return s
	}
	return string([]rune(s)[:maxTopicLen])
}

// QuickSummary synthesizes a summary from the first few user messages of a
// session that has never been summarized. Cheap and purely local.
func QuickSummary(messages []model.ChatMessage) string {
	var topics []string
	for _, m := range messages {
		if m.Role != types.RoleUser {
			continue
		}
		topics = append(topics, truncateTopic(m.Content))
		if len(topics) == quickSummaryMessages {
			break
		}
	}
	if len(topics) == 0 {
		return noTopicsFallback
	}
	return "Topics discussed: " + strings.Join(topics, "; ")
}

// RecentSupplement produces a "Recent topics" patch covering messages past
// the summarized baseline. Returns empty until at least
// newMessageThreshold messages have accumulated past baselineCount.
func RecentSupplement(messages []model.ChatMessage, baselineCount int) string {
	if len(messages)-baselineCount < newMessageThreshold {
		return ""
	}

	var topics []string
	for _, m := range messages[baselineCount:] {
		if m.Role != types.RoleUser {
			continue
		}
		topics = append(topics, truncateTopic(m.Content))
	}
	if len(topics) > quickSummaryMessages {
		topics = topics[len(topics)-quickSummaryMessages:]
	}
	if len(topics) == 0 {
		return ""
	}
	return "Recent topics: " + strings.Join(topics, "; ")
}

// EnhancedSummary returns the best available summary for a session.
// Summaries are generated once while conversations keep growing, so a
// stored summary that has fallen behind gets the recent-topics supplement
// appended instead of a full re-summarization.
func EnhancedSummary(session *model.ChatSession) string {
	if session.Summary == "" {
		return QuickSummary(session.Messages)
	}

	baseline := session.SummarizedAt
	if baseline <= 0 {
		baseline = defaultSummaryBaseline
	}

	if len(session.Messages) > baseline+newMessageThreshold {
		if supplement := RecentSupplement(session.Messages, baseline); supplement != "" {
			return session.Summary + ". " + supplement
		}
	}

	return session.Summary
}
