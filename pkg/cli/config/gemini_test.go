package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/companion-lab/mnemosyne/pkg/cli/config"
)

func TestGemini_ThinkingBudget(t *testing.T) {
	t.Run("configured budget is exposed to the gateway", func(t *testing.T) {
		cfg := config.NewGeminiForTest("proj", "us-central1", "gemini-2.0-flash", 1024)
		gt.Value(t, cfg.ThinkingBudget()).Equal(int32(1024))
	})

	t.Run("zero means provider default", func(t *testing.T) {
		cfg := config.NewGeminiForTest("proj", "us-central1", "gemini-2.0-flash", 0)
		gt.Value(t, cfg.ThinkingBudget()).Equal(int32(0))
	})
}
