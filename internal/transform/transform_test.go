package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func strp(s string) *string { return &s }

func TestApplyFilterAndReplace(t *testing.T) {
	doc := &Document{
		Filter: &FilterNode{
			Property: "department",
			String:   &StringMatch{StartsWith: strp("Eng")},
		},
		Transform: []Rule{
			{Property: "job_title", Action: ActionReplaceAll, Value: "Engineer"},
		},
	}

	objs := []map[string]any{
		{"department": "Engineering", "job_title": "SWE"},
		{"department": "Sales", "job_title": "Rep"},
	}

	got := Apply(doc, objs, nil)

	want := []map[string]any{
		{"department": "Engineering", "job_title": "Engineer"},
		{"department": "Sales", "job_title": "Rep"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyUnknownActionWarns(t *testing.T) {
	doc := &Document{
		Transform: []Rule{{Property: "x", Action: "delete", Value: nil}},
	}
	var warned string
	got := Apply(doc, []map[string]any{{"x": 1}}, func(msg string) { warned = msg })
	if warned == "" {
		t.Error("expected a warning for unknown action")
	}
	if diff := cmp.Diff(map[string]any{"x": 1}, got[0]); diff != "" {
		t.Errorf("object should be unchanged: %s", diff)
	}
}

func TestApplyNestedPath(t *testing.T) {
	doc := &Document{
		Transform: []Rule{{Property: "contact.emails.0", Action: ActionReplaceAll, Value: "new@x.com"}},
	}
	objs := []map[string]any{
		{"contact": map[string]any{"emails": []any{"old@x.com"}}},
	}
	got := Apply(doc, objs, nil)
	emails := got[0]["contact"].(map[string]any)["emails"].([]any)
	if emails[0] != "new@x.com" {
		t.Errorf("nested replace failed: got %v", emails[0])
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	doc := &Document{
		Transform: []Rule{{Property: "x", Action: ActionReplaceAll, Value: "changed"}},
	}
	original := map[string]any{"x": "original"}
	Apply(doc, []map[string]any{original}, nil)
	if original["x"] != "original" {
		t.Errorf("input was mutated in place: %v", original)
	}
}
