package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
)

func TestChatSession(t *testing.T) {
	t.Run("LastActivity falls back to CreatedAt", func(t *testing.T) {
		session := model.NewChatSession("hello")
		gt.Bool(t, session.LastActivity().Equal(session.CreatedAt)).True()

		session.Append(model.UserMessage("hi"))
		gt.Bool(t, session.LastActivity().Equal(session.UpdatedAt)).True()
		gt.Bool(t, session.UpdatedAt.IsZero()).False()
	})

	t.Run("UserMessages filters assistant turns", func(t *testing.T) {
		session := model.NewChatSession("")
		session.Append(
			model.UserMessage("first"),
			model.AssistantMessage("reply"),
			model.UserMessage("second"),
		)

		msgs := session.UserMessages()
		gt.Array(t, msgs).Length(2)
		gt.Value(t, msgs[0].Content).Equal("first")
		gt.Value(t, msgs[1].Content).Equal("second")
	})

	t.Run("Clone is independent of the original", func(t *testing.T) {
		session := model.NewChatSession("t")
		session.Append(model.UserMessage("a"))

		clone := session.Clone()
		clone.Messages[0].Content = "mutated"
		clone.Append(model.UserMessage("extra"))

		gt.Value(t, session.Messages[0].Content).Equal("a")
		gt.Array(t, session.Messages).Length(1)
	})
}

func TestPersona(t *testing.T) {
	t.Run("Validate requires ID and name", func(t *testing.T) {
		p := model.NewPersona("Aria")
		gt.NoError(t, p.Validate())

		p.Name = "  "
		gt.Error(t, p.Validate())

		p = &model.Persona{Name: "Aria"}
		gt.Error(t, p.Validate())
	})

	t.Run("SortedMemories leaves stored order untouched", func(t *testing.T) {
		p := model.NewPersona("Aria")
		p.Memories = []string{"b", "a", "c"}

		gt.Array(t, p.SortedMemories()).Equal([]string{"a", "b", "c"})
		gt.Array(t, p.Memories).Equal([]string{"b", "a", "c"})
	})

	t.Run("Clone is independent of the original", func(t *testing.T) {
		p := model.NewPersona("Aria")
		p.Memories = []string{"fact"}
		p.LastChatTime = time.Now()

		clone := p.Clone()
		clone.Memories[0] = "mutated"

		gt.Value(t, p.Memories[0]).Equal("fact")
	})
}
