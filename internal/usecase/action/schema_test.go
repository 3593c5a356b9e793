package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

func TestParseProposal_PlainJSON(t *testing.T) {
	p, err := ParseProposal(`{"kind": "click", "target": 5, "rationale": "open the menu"}`)
	require.NoError(t, err)

	assert.Equal(t, entity.ActionClick, p.Kind)
	assert.Equal(t, 5, p.TargetID())
	assert.Equal(t, "open the menu", p.Rationale)
}

func TestParseProposal_JSONWrappedInProse(t *testing.T) {
	raw := "Sure! Here is the next action:\n```json\n" +
		`{"kind": "type", "target": 3, "value": "roadmap review"}` +
		"\n```\nLet me know how it goes."

	p, err := ParseProposal(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionType, p.Kind)
	assert.Equal(t, 3, p.TargetID())
	assert.Equal(t, "roadmap review", p.Value)
}

func TestParseProposal_KindCaseInsensitive(t *testing.T) {
	p, err := ParseProposal(`{"kind": " Done ", "value": "finished"}`)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionDone, p.Kind)
}

func TestParseProposal_Failures(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no JSON at all", "I think we should click the button"},
		{"unknown kind", `{"kind": "teleport", "target": 1}`},
		{"malformed JSON", `{"kind": "click", "target": }`},
		{"empty string", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseProposal(tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestParseProposal_MissingTargetIsNil(t *testing.T) {
	p, err := ParseProposal(`{"kind": "scroll", "value": "down", "amount": 2}`)
	require.NoError(t, err)
	assert.Nil(t, p.Target)
	assert.Equal(t, -1, p.TargetID())
	assert.Equal(t, 2, p.Amount)
}
