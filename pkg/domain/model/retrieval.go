package model

import "github.com/companion-lab/mnemosyne/pkg/domain/types"

// ChatMetadata is the per-session digest handed to the retrieval pipeline.
// It is derived from a ChatSession on every retrieval call and never
// persisted.
type ChatMetadata struct {
	ID           types.SessionID
	Title        string
	Summary      string
	Date         string // human-readable last-activity date
	MessageCount int
}

// RetrievalDecision is the outcome of the memory retrieval decision step.
// The zero value ("no retrieval needed") is the fail-soft default.
type RetrievalDecision struct {
	NeedsRetrieval bool
	SearchQueries  []string // at most 3 semantically expanded queries
	TimeFrameHint  string   // optional, e.g. "last week"
}

// RetrievedMemory is the output unit of the retrieval pipeline: one past
// session with the excerpt most relevant to the current message. Consumed
// once per generation request and discarded.
type RetrievedMemory struct {
	ChatID           types.SessionID
	Title            string
	Date             string
	Summary          string
	RelevantMessages []ChatMessage
}
