package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSystemPrompt_InjectsTaskContext(t *testing.T) {
	out, err := GenerateSystemPrompt(SystemPromptData{
		Goal:     "enable dark mode",
		AppName:  "Linear",
		StartURL: "https://linear.app/settings",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Original request: enable dark mode")
	assert.Contains(t, out, "Application: Linear")
	assert.Contains(t, out, "Starting URL: https://linear.app/settings")
}

func TestGenerateSystemPrompt_OmitsEmptyStartURL(t *testing.T) {
	out, err := GenerateSystemPrompt(SystemPromptData{Goal: "g", AppName: "Web Application"})
	require.NoError(t, err)

	assert.NotContains(t, out, "Starting URL:")
}

func TestGenerateSystemPrompt_DocumentsTheVocabulary(t *testing.T) {
	out, err := GenerateSystemPrompt(SystemPromptData{Goal: "g", AppName: "a"})
	require.NoError(t, err)

	for _, kind := range []string{"click", "type", "press_key", "scroll", "navigate", "wait", "done"} {
		assert.Contains(t, out, kind)
	}
	assert.Contains(t, out, "NEVER repeat the same action more than twice")
}
