package retrieval_test

import (
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/service/retrieval"
)

func TestExtractRelevantMessages(t *testing.T) {
	t.Run("short sessions are returned unchanged", func(t *testing.T) {
		messages := []model.ChatMessage{
			model.UserMessage("hi"),
			model.AssistantMessage("hello"),
			model.UserMessage("how are you"),
		}

		got := retrieval.ExtractRelevantMessages(messages, []string{"job"}, 8)
		gt.Array(t, got).Equal(messages)
	})

	t.Run("session exactly at the cap is returned unchanged", func(t *testing.T) {
		var messages []model.ChatMessage
		for i := 0; i < 8; i++ {
			messages = append(messages, model.UserMessage(fmt.Sprintf("message %d", i)))
		}

		got := retrieval.ExtractRelevantMessages(messages, nil, 8)
		gt.Array(t, got).Equal(messages)
	})

	t.Run("long sessions keep query hits in chronological order", func(t *testing.T) {
		var messages []model.ChatMessage
		for i := 0; i < 60; i++ {
			if i%10 == 3 {
				messages = append(messages, model.UserMessage(fmt.Sprintf("update %d about my job interview", i)))
			} else {
				messages = append(messages, model.AssistantMessage(fmt.Sprintf("small talk %d", i)))
			}
		}

		got := retrieval.ExtractRelevantMessages(messages, []string{"job interview", "career"}, 8)
		gt.Array(t, got).Length(8)

		// all six job-related messages survive the cut
		hits := 0
		for _, m := range got {
			if m.Role == "user" {
				hits++
			}
		}
		gt.Number(t, hits).Equal(6)

		// chronological order is preserved
		for i := 1; i < len(got); i++ {
			gt.Bool(t, indexOf(t, messages, got[i-1]) < indexOf(t, messages, got[i])).True()
		}
	})

	t.Run("non-positive cap falls back to the default", func(t *testing.T) {
		var messages []model.ChatMessage
		for i := 0; i < 20; i++ {
			messages = append(messages, model.UserMessage(fmt.Sprintf("m%d", i)))
		}

		got := retrieval.ExtractRelevantMessages(messages, nil, 0)
		gt.Array(t, got).Length(retrieval.DefaultMaxExcerptMessages)
	})

	t.Run("no query terms degrades to the most recent messages", func(t *testing.T) {
		var messages []model.ChatMessage
		for i := 0; i < 12; i++ {
			messages = append(messages, model.AssistantMessage(fmt.Sprintf("turn %d", i)))
		}

		got := retrieval.ExtractRelevantMessages(messages, nil, 4)
		gt.Array(t, got).Length(4)
		gt.Value(t, got[0].Content).Equal("turn 8")
		gt.Value(t, got[3].Content).Equal("turn 11")
	})
}

func indexOf(t *testing.T, messages []model.ChatMessage, target model.ChatMessage) int {
	t.Helper()
	for i, m := range messages {
		if m == target {
			return i
		}
	}
	t.Fatalf("message %q not found in source", target.Content)
	return -1
}
