package retrieval

import (
	"context"
	"sort"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

const (
	// candidateLimit caps how many recent sessions are considered for
	// ranking, bounding prompt size and latency regardless of history size
	candidateLimit = 50

	// recentSummaryContext is how many of the newest candidates are shown
	// to the decision step as already-fresh context
	recentSummaryContext = 5

	metadataDateFormat = "Jan 2, 2006"
)

// Retrieve runs the full pipeline: candidate selection, retrieval decision,
// relevance ranking, and excerpt extraction. It never fails: every
// downstream problem degrades to fewer (or zero) retrieved memories. The
// common case — no retrieval needed — costs a single decision call.
//
// Output order follows the ranker's relevance order, not recency. Sessions
// and personas are never mutated here.
func (s *Service) Retrieve(ctx context.Context, userMessages []model.ChatMessage, memories []string, sessions []*model.ChatSession, currentID types.SessionID) []model.RetrievedMemory {
	candidates, byID := buildCandidates(sessions, currentID)
	if len(candidates) == 0 {
		return nil
	}

	recent := candidates
	if len(recent) > recentSummaryContext {
		recent = recent[:recentSummaryContext]
	}

	decision := s.Decide(ctx, userMessages, memories, recent)
	if !decision.NeedsRetrieval || len(decision.SearchQueries) == 0 {
		return nil
	}

	logging.From(ctx).Info("searching past conversations",
		"queries", decision.SearchQueries,
		"time_frame", decision.TimeFrameHint,
		"candidates", len(candidates),
	)

	ids := s.FindRelevantChats(ctx, decision.SearchQueries, candidates, decision.TimeFrameHint)
	if len(ids) == 0 {
		return nil
	}

	metaByID := make(map[types.SessionID]model.ChatMetadata, len(candidates))
	for _, c := range candidates {
		metaByID[c.ID] = c
	}

	out := make([]model.RetrievedMemory, 0, len(ids))
	for _, id := range ids {
		session, ok := byID[id]
		if !ok {
			// Ranker IDs are validated against candidates, so a miss here
			// means the session disappeared mid-flight. Skip.
			continue
		}
		meta := metaByID[id]

		out = append(out, model.RetrievedMemory{
			ChatID:           id,
			Title:            session.Title,
			Date:             meta.Date,
			Summary:          session.Summary,
			RelevantMessages: ExtractRelevantMessages(session.Messages, decision.SearchQueries, DefaultMaxExcerptMessages),
		})
	}

	return out
}

// buildCandidates filters out the current and empty sessions, sorts the
// rest by last activity descending, caps to candidateLimit, and derives
// ChatMetadata (with staleness-patched summaries) for each.
func buildCandidates(sessions []*model.ChatSession, currentID types.SessionID) ([]model.ChatMetadata, map[types.SessionID]*model.ChatSession) {
	eligible := make([]*model.ChatSession, 0, len(sessions))
	for _, s := range sessions {
		if s.ID == currentID || len(s.Messages) == 0 {
			continue
		}
		eligible = append(eligible, s)
	}

	sort.SliceStable(eligible, func(a, b int) bool {
		return eligible[a].LastActivity().After(eligible[b].LastActivity())
	})
	if len(eligible) > candidateLimit {
		eligible = eligible[:candidateLimit]
	}

	candidates := make([]model.ChatMetadata, 0, len(eligible))
	byID := make(map[types.SessionID]*model.ChatSession, len(eligible))
	for _, s := range eligible {
		byID[s.ID] = s
		candidates = append(candidates, model.ChatMetadata{
			ID:           s.ID,
			Title:        s.Title,
			Summary:      EnhancedSummary(s),
			Date:         s.LastActivity().Format(metadataDateFormat),
			MessageCount: len(s.Messages),
		})
	}

	return candidates, byID
}
