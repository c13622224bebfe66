package retrieval

// Exported for testing
var BuildCandidates = buildCandidates

const CandidateLimit = candidateLimit
