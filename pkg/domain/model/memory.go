package model

import "time"

// MemoryDeltas is the memory change set emitted by the conversational
// engine alongside a reply. Updates to an existing fact are expressed as
// the extended fact in NewMemories plus the verbatim old fact in
// RemovedMemories; memory is a flat set, not a keyed store.
type MemoryDeltas struct {
	NewMemories     []string
	RemovedMemories []string
}

// Empty reports whether the deltas change nothing
func (d MemoryDeltas) Empty() bool {
	return len(d.NewMemories) == 0 && len(d.RemovedMemories) == 0
}

// ApplyMemoryDeltas reconciles deltas against a stored memory set: every
// entry of removed is dropped by exact string match, then every entry of
// added is unioned in, deduplicating exactly. Surviving entries keep their
// stored order; additions follow in emission order.
func ApplyMemoryDeltas(memories []string, deltas MemoryDeltas) []string {
	removed := make(map[string]bool, len(deltas.RemovedMemories))
	for _, m := range deltas.RemovedMemories {
		removed[m] = true
	}

	result := make([]string, 0, len(memories)+len(deltas.NewMemories))
	seen := make(map[string]bool, len(memories)+len(deltas.NewMemories))
	for _, m := range memories {
		if removed[m] || seen[m] {
			continue
		}
		seen[m] = true
		result = append(result, m)
	}
	for _, m := range deltas.NewMemories {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		result = append(result, m)
	}

	return result
}

// DateTag formats the date-tag prefix used for new memory facts, e.g.
// "2024-07-03". The tag is an informal creation marker, not validated on
// the way back in.
func DateTag(t time.Time) string {
	return t.Format("2006-01-02")
}
