package rule

import (
	"encoding/json"
	"testing"
)

func TestEvaluateEmptyExpressionPasses(t *testing.T) {
	ok, err := Rule{Name: "noop"}.Evaluate(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected pass")
	}
}

func TestEvaluateAgainstMetadata(t *testing.T) {
	meta, _ := json.Marshal(map[string]interface{}{
		"audience": "PUBLIC",
		"sizeKB":   420,
	})
	ok, err := Rule{Name: "size", Expression: "sizeKB < 1024"}.Evaluate(meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected pass")
	}

	ok, err = Rule{Name: "audience", Expression: "audience == 'PRIVATE'"}.Evaluate(meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected fail")
	}
}

func TestEvaluateNonBoolean(t *testing.T) {
	if _, err := (Rule{Expression: "1 + 1"}).Evaluate(nil); err == nil {
		t.Fatal("expected error for non-boolean result")
	}
}
