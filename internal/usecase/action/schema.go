// Package action defines the closed action vocabulary, parses oracle
// output into proposals, and gates them against the current snapshot.
package action

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

// Kinds is the closed vocabulary. Anything else is a parse failure.
var Kinds = map[entity.ActionKind]bool{
	entity.ActionClick:    true,
	entity.ActionType:     true,
	entity.ActionPressKey: true,
	entity.ActionScroll:   true,
	entity.ActionNavigate: true,
	entity.ActionWait:     true,
	entity.ActionDone:     true,
}

type wireProposal struct {
	Kind      string `json:"kind"`
	Target    *int   `json:"target"`
	Value     string `json:"value"`
	Amount    int    `json:"amount"`
	Rationale string `json:"rationale"`
}

// ParseProposal extracts the first JSON object from a raw oracle
// response and maps it onto the closed vocabulary. Models often wrap
// JSON in prose or fences, so the object is located positionally.
func ParseProposal(raw string) (*entity.ActionProposal, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var w wireProposal
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return nil, fmt.Errorf("malformed action JSON: %w", err)
	}

	kind := entity.ActionKind(strings.ToLower(strings.TrimSpace(w.Kind)))
	if !Kinds[kind] {
		return nil, fmt.Errorf("unknown action kind %q", w.Kind)
	}

	return &entity.ActionProposal{
		Kind:      kind,
		Target:    w.Target,
		Value:     w.Value,
		Amount:    w.Amount,
		Rationale: strings.TrimSpace(w.Rationale),
	}, nil
}

func extractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in oracle response")
	}
	return raw[start : end+1], nil
}
