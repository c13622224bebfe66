package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/gollem"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/service/gateway"
	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

// maxSearchQueries caps the semantic queries produced by the decision step
const maxSearchQueries = 3

// decisionResponse is the structured output of the decision call
type decisionResponse struct {
	NeedsRetrieval bool     `json:"needs_retrieval"`
	SearchQueries  []string `json:"search_queries"`
	TimeFrame      string   `json:"time_frame,omitempty"`
}

// Decide determines whether the latest user messages warrant searching past
// conversations, and if so produces up to 3 semantically expanded search
// queries. Retrieval is a best-effort enhancement: on any failure the
// method returns the "no retrieval" decision instead of an error.
func (s *Service) Decide(ctx context.Context, userMessages []model.ChatMessage, memories []string, recentSummaries []model.ChatMetadata) model.RetrievalDecision {
	if len(userMessages) == 0 {
		return model.RetrievalDecision{}
	}

	in := gateway.Input{
		SystemPrompt: decisionSystemPrompt,
		Prompt:       buildDecisionPrompt(userMessages, memories, recentSummaries),
		Schema:       decisionSchema(),
	}

	var resp decisionResponse
	if err := s.gw.GenerateJSON(ctx, in, &resp); err != nil {
		logging.From(ctx).Debug("retrieval decision failed, skipping retrieval", "error", err.Error())
		return model.RetrievalDecision{}
	}

	queries := make([]string, 0, maxSearchQueries)
	for _, q := range resp.SearchQueries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		queries = append(queries, q)
		if len(queries) == maxSearchQueries {
			break
		}
	}

	if !resp.NeedsRetrieval || len(queries) == 0 {
		return model.RetrievalDecision{}
	}

	return model.RetrievalDecision{
		NeedsRetrieval: true,
		SearchQueries:  queries,
		TimeFrameHint:  strings.TrimSpace(resp.TimeFrame),
	}
}

const decisionSystemPrompt = `You decide whether a user's message in an ongoing chat refers back to a PAST conversation that should be looked up.

Retrieval IS needed when the message:
- directly references earlier talk ("last time", "remember when", "as I told you", "that thing we discussed")
- asks what was said or decided in a past discussion
- follows up on a topic that is clearly not part of the current conversation

Retrieval is NOT needed for:
- greetings and small talk
- brand-new information the user is sharing for the first time
- general questions answerable without history
- anything already covered by the current conversation or the known facts listed below

When retrieval is needed, produce up to 3 search queries. Expand them semantically (synonyms, related concepts), do not just copy substrings of the message. If the user hints at a time frame ("last week", "a few months ago"), report it.`

func buildDecisionPrompt(userMessages []model.ChatMessage, memories []string, recentSummaries []model.ChatMetadata) string {
	var sb strings.Builder

	sb.WriteString("## Latest user messages\n\n")
	for _, m := range userMessages {
		fmt.Fprintf(&sb, "- %s\n", m.Content)
	}

	if len(memories) > 0 {
		sb.WriteString("\n## Facts already known about the user\n\n")
		for _, m := range memories {
			fmt.Fprintf(&sb, "- %s\n", m)
		}
	}

	if len(recentSummaries) > 0 {
		sb.WriteString("\n## Most recent conversations (for context, already fresh)\n\n")
		for _, s := range recentSummaries {
			fmt.Fprintf(&sb, "- [%s] %s: %s\n", s.Date, s.Title, s.Summary)
		}
	}

	return sb.String()
}

func decisionSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "MemoryRetrievalDecision",
		Description: "Whether past-conversation lookup is warranted for the latest user message",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"needs_retrieval": {
				Type:        gollem.TypeBoolean,
				Description: "True only when the message references or asks about a past conversation",
				Required:    true,
			},
			"search_queries": {
				Type:        gollem.TypeArray,
				Description: "Up to 3 semantically expanded search queries; empty when needs_retrieval is false",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
			},
			"time_frame": {
				Type:        gollem.TypeString,
				Description: "Optional time frame hinted by the user, e.g. 'last week'",
			},
		},
	}
}
