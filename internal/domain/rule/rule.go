package rule

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/Knetic/govaluate"
)

// Rule is a prescreen gate evaluated against submission metadata before
// the review suspension begins. The expression must evaluate to a
// boolean; true means the submission passes the gate.
type Rule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

// Evaluate runs the rule expression against a JSON metadata document.
// An empty expression passes. Supports "true"/"false" literals.
func (r Rule) Evaluate(metadata json.RawMessage) (bool, error) {
	cond := strings.TrimSpace(r.Expression)
	if cond == "" {
		return true, nil
	}
	switch strings.ToLower(cond) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	params := buildParams(metadata)
	expr, err := govaluate.NewEvaluableExpression(cond)
	if err != nil {
		return false, err
	}
	result, err := expr.Evaluate(params)
	if err != nil {
		return false, err
	}
	switch v := result.(type) {
	case bool:
		return v, nil
	default:
		return false, errors.New("rule did not evaluate to boolean")
	}
}

func buildParams(metadata json.RawMessage) map[string]interface{} {
	params := map[string]interface{}{}
	if len(metadata) == 0 {
		return params
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(metadata, &raw); err != nil {
		return params
	}
	for k, v := range raw {
		params[k] = v
	}
	return params
}
