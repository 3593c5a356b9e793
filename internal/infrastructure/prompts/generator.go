// Package prompts renders the oracle system prompt from an embedded
// template plus per-run task context.
package prompts

import (
	"bytes"
	"text/template"
)

type SystemPromptData struct {
	Goal     string
	AppName  string
	StartURL string
}

func GenerateSystemPrompt(data SystemPromptData) (string, error) {
	tmpl, err := template.New("system").Parse(systemTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
