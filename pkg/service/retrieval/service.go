package retrieval

import (
	"context"

	"github.com/companion-lab/mnemosyne/pkg/service/gateway"
)

// Service runs the agentic memory retrieval pipeline: deciding whether a
// user message references past conversation, ranking candidate sessions by
// relevance, and extracting bounded excerpts from the winners.
//
// The decision and ranking stages are a soft-failure domain: any network,
// parse, or schema failure collapses to "retrieve nothing" so the pipeline
// never blocks a chat turn.
type Service struct {
	gw ModelGateway
}

// ModelGateway is the slice of the gateway the retrieval pipeline needs
type ModelGateway interface {
	GenerateJSON(ctx context.Context, in gateway.Input, out any) error
}

// New creates a retrieval Service
func New(gw ModelGateway) *Service {
	return &Service{gw: gw}
}
