package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/service/gateway"
)

const summarizerSystemPrompt = `You summarize a chat between a user and a fictional companion into a compact synopsis.

Write 3 to 6 short bullet points covering the topics discussed, facts the user shared, and anything agreed or planned. Plain text bullets with "- " prefixes, no markdown headers, no commentary. Keep the whole synopsis under 120 words.`

// Summarize reduces a message list to a bounded bullet-point synopsis.
// Unlike the retrieval stages this is a hard-failure operation: the caller
// decides what a failed summary means for the turn.
func (s *Service) Summarize(ctx context.Context, messages []model.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", goerr.New("nothing to summarize")
	}

	var sb strings.Builder
	sb.WriteString("## Conversation\n\n")
	for _, m := range messages {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}

	text, err := s.gw.GenerateText(ctx, gateway.Input{
		SystemPrompt: summarizerSystemPrompt,
		Prompt:       sb.String(),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to summarize chat")
	}

	return strings.TrimSpace(text), nil
}
