package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/gollem"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
	"github.com/companion-lab/mnemosyne/pkg/service/gateway"
	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

// maxRelevantChats caps how many past sessions one retrieval surfaces
const maxRelevantChats = 3

type rankerResponse struct {
	ChatIDs []string `json:"chat_ids"`
}

// FindRelevantChats selects up to 3 candidate sessions most relevant to the
// search queries, ordered by relevance. An empty candidate or query list
// short-circuits without a network call. Failures are swallowed: no
// relevant chats is always a valid answer.
func (s *Service) FindRelevantChats(ctx context.Context, queries []string, candidates []model.ChatMetadata, timeFrameHint string) []types.SessionID {
	if len(queries) == 0 || len(candidates) == 0 {
		return nil
	}

	in := gateway.Input{
		SystemPrompt: rankerSystemPrompt,
		Prompt:       buildRankerPrompt(queries, candidates, timeFrameHint),
		Schema:       rankerSchema(),
	}

	var resp rankerResponse
	if err := s.gw.GenerateJSON(ctx, in, &resp); err != nil {
		logging.From(ctx).Debug("chat relevance ranking failed, treating as no relevant chats", "error", err.Error())
		return nil
	}

	known := make(map[types.SessionID]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}

	out := make([]types.SessionID, 0, maxRelevantChats)
	for _, raw := range resp.ChatIDs {
		id := types.SessionID(strings.TrimSpace(raw))
		if !known[id] {
			continue
		}
		out = append(out, id)
		if len(out) == maxRelevantChats {
			break
		}
	}

	return out
}

const rankerSystemPrompt = `You rank past chat sessions by how relevant they are to a set of search queries.

Rules:
- Weigh semantic relevance of each session's summary against the queries.
- Prefer more recent sessions when relevance is comparable.
- When a time frame hint is given, prioritize sessions matching it.
- Return at most 3 chat IDs, most relevant first.
- Return an empty list when nothing is genuinely relevant. Do not pad.`

func buildRankerPrompt(queries []string, candidates []model.ChatMetadata, timeFrameHint string) string {
	var sb strings.Builder

	sb.WriteString("## Search queries\n\n")
	for _, q := range queries {
		fmt.Fprintf(&sb, "- %s\n", q)
	}

	if timeFrameHint != "" {
		fmt.Fprintf(&sb, "\n## Time frame hint\n\n%s\n", timeFrameHint)
	}

	sb.WriteString("\n## Candidate sessions\n\n")
	for _, c := range candidates {
		fmt.Fprintf(&sb, "### Chat ID: %s\n", c.ID)
		fmt.Fprintf(&sb, "**Title:** %s\n", c.Title)
		fmt.Fprintf(&sb, "**Date:** %s\n", c.Date)
		fmt.Fprintf(&sb, "**Messages:** %d\n", c.MessageCount)
		fmt.Fprintf(&sb, "**Summary:** %s\n\n", c.Summary)
	}

	return sb.String()
}

func rankerSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "ChatRelevanceRanking",
		Description: "Chat IDs of the sessions relevant to the search queries",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"chat_ids": {
				Type:        gollem.TypeArray,
				Description: "Up to 3 chat IDs from the candidate list, most relevant first; empty when none apply",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
			},
		},
	}
}
