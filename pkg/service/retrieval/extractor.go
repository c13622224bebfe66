package retrieval

import (
	"sort"
	"strings"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
)

// DefaultMaxExcerptMessages bounds the excerpt taken from one session
const DefaultMaxExcerptMessages = 8

const (
	termHitScore    = 2.0
	userRoleBonus   = 0.5
	maxRecencyBonus = 1.0
)

// ExtractRelevantMessages selects up to maxMessages messages from a session
// most relevant to the search queries, preserving chronological order.
// Sessions at or under the cap are returned unchanged without scoring.
// Scoring is deterministic; ties keep original order.
func ExtractRelevantMessages(messages []model.ChatMessage, queries []string, maxMessages int) []model.ChatMessage {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxExcerptMessages
	}
	if len(messages) <= maxMessages {
		return messages
	}

	type scored struct {
		index int
		score float64
	}

	ranked := make([]scored, len(messages))
	for i, m := range messages {
		ranked[i] = scored{
			index: i,
			score: scoreMessage(m, queries, i, len(messages)),
		}
	}

	// Stable sort keeps earlier messages ahead on equal scores
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	selected := ranked[:maxMessages]
	sort.Slice(selected, func(a, b int) bool {
		return selected[a].index < selected[b].index
	})

	out := make([]model.ChatMessage, maxMessages)
	for i, s := range selected {
		out[i] = messages[s.index]
	}
	return out
}

// scoreMessage rates one message against the search queries: +2 per query
// term found as a case-insensitive substring, a small bonus for later
// messages, and a flat bonus for user messages (which more often state
// facts worth retrieving).
func scoreMessage(msg model.ChatMessage, queries []string, index, total int) float64 {
	content := strings.ToLower(msg.Content)

	var score float64
	for _, q := range queries {
		for _, term := range strings.Fields(strings.ToLower(q)) {
			if strings.Contains(content, term) {
				score += termHitScore
			}
		}
	}

	if total > 0 {
		score += maxRecencyBonus * float64(index) / float64(total)
	}
	if msg.Role == types.RoleUser {
		score += userRoleBonus
	}

	return score
}
