package merge

import (
	"encoding/json"
	"reflect"
	"testing"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("bad fixture %q: %v", raw, err)
	}
	return doc
}

func TestMapsScalarFirstWriterWins(t *testing.T) {
	target := decode(t, `{"age": 23}`)
	incoming := decode(t, `{"age": 24}`)

	var conflicts []Conflict
	Maps(target, incoming, &conflicts, []string{"structured_data"}, "b.json")

	if got := target["age"].(float64); got != 23 {
		t.Errorf("age = %v, want 23", got)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	c := conflicts[0]
	if c.Field != "structured_data.age" {
		t.Errorf("conflict field = %q, want structured_data.age", c.Field)
	}
	if c.Existing.(float64) != 23 || c.Candidate.(float64) != 24 {
		t.Errorf("conflict values = (%v, %v), want (23, 24)", c.Existing, c.Candidate)
	}
	if c.Source != "b.json" {
		t.Errorf("conflict source = %q, want b.json", c.Source)
	}
}

func TestMapsEqualScalarNoConflict(t *testing.T) {
	target := decode(t, `{"name": "Ana"}`)
	incoming := decode(t, `{"name": "Ana"}`)

	var conflicts []Conflict
	Maps(target, incoming, &conflicts, nil, "x.json")

	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %v", conflicts)
	}
}

func TestMapsBlankValuesSkipped(t *testing.T) {
	target := decode(t, `{"name": "Ana"}`)
	incoming := decode(t, `{"name": "", "age": null, "services": [], "contact": {}, "notes": "   ", "tags": [null, ""]}`)

	var conflicts []Conflict
	Maps(target, incoming, &conflicts, nil, "x.json")

	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %v", conflicts)
	}
	if len(target) != 1 {
		t.Errorf("blank values should not be adopted, target = %v", target)
	}
}

func TestMapsBlankTargetAdoptsIncoming(t *testing.T) {
	target := decode(t, `{"location": ""}`)
	incoming := decode(t, `{"location": "San José"}`)

	var conflicts []Conflict
	Maps(target, incoming, &conflicts, nil, "x.json")

	if target["location"] != "San José" {
		t.Errorf("location = %v, want San José", target["location"])
	}
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %v", conflicts)
	}
}

func TestMapsNestedRecursion(t *testing.T) {
	target := decode(t, `{"contact": {"whatsapp": "8888"}}`)
	incoming := decode(t, `{"contact": {"whatsapp": "9999", "email": "a@b.cr"}}`)

	var conflicts []Conflict
	Maps(target, incoming, &conflicts, nil, "y.json")

	contact := target["contact"].(map[string]any)
	if contact["whatsapp"] != "8888" {
		t.Errorf("whatsapp = %v, want 8888 (first writer)", contact["whatsapp"])
	}
	if contact["email"] != "a@b.cr" {
		t.Errorf("email = %v, want adopted", contact["email"])
	}
	if len(conflicts) != 1 || conflicts[0].Field != "contact.whatsapp" {
		t.Fatalf("conflicts = %v, want one at contact.whatsapp", conflicts)
	}
}

func TestMapsTypeMismatchRecordsConflict(t *testing.T) {
	target := decode(t, `{"contact": "call me"}`)
	incoming := decode(t, `{"contact": {"whatsapp": "8888"}}`)

	var conflicts []Conflict
	Maps(target, incoming, &conflicts, nil, "z.json")

	if target["contact"] != "call me" {
		t.Errorf("target mutated on type mismatch: %v", target["contact"])
	}
	if len(conflicts) != 1 || conflicts[0].Field != "contact" {
		t.Fatalf("conflicts = %v, want one at contact", conflicts)
	}
}

func TestMapsMappingAdoptedIntoMissingSlot(t *testing.T) {
	target := decode(t, `{}`)
	incoming := decode(t, `{"attributes": {"height": "1.60"}}`)

	var conflicts []Conflict
	Maps(target, incoming, &conflicts, nil, "z.json")

	attrs, ok := target["attributes"].(map[string]any)
	if !ok || attrs["height"] != "1.60" {
		t.Errorf("attributes = %v, want adopted mapping", target["attributes"])
	}
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %v", conflicts)
	}
}

func TestMapsListDedupBySerialization(t *testing.T) {
	target := decode(t, `{"prices": [{"duration": "1h", "amount": 100}]}`)
	incoming := decode(t, `{"prices": [{"amount": 100, "duration": "1h"}, {"duration": "2h", "amount": 180}]}`)

	var conflicts []Conflict
	Maps(target, incoming, &conflicts, nil, "p.json")

	prices := target["prices"].([]any)
	if len(prices) != 2 {
		t.Fatalf("prices = %v, want 2 entries (structural dup removed)", prices)
	}
	first := prices[0].(map[string]any)
	if first["duration"] != "1h" {
		t.Errorf("first-seen order lost: %v", prices)
	}
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %v", conflicts)
	}
}

func TestMapsListAgainstScalarConflicts(t *testing.T) {
	target := decode(t, `{"services": "masajes"}`)
	incoming := decode(t, `{"services": ["masajes"]}`)

	var conflicts []Conflict
	Maps(target, incoming, &conflicts, nil, "s.json")

	if target["services"] != "masajes" {
		t.Errorf("target mutated: %v", target["services"])
	}
	if len(conflicts) != 1 || conflicts[0].Field != "services" {
		t.Fatalf("conflicts = %v, want one at services", conflicts)
	}
}

func TestMapsRepeatedMergeIdempotentLists(t *testing.T) {
	target := decode(t, `{}`)
	incoming := decode(t, `{"services": ["a", "b"]}`)

	var conflicts []Conflict
	Maps(target, incoming, &conflicts, nil, "one.json")
	Maps(target, incoming, &conflicts, nil, "two.json")

	want := []any{"a", "b"}
	if !reflect.DeepEqual(target["services"], want) {
		t.Errorf("services = %v, want %v", target["services"], want)
	}
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %v", conflicts)
	}
}

func TestIsBlank(t *testing.T) {
	tests := []struct {
		name  string
		value any
		blank bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"whitespace string", "  \t", true},
		{"text", "x", false},
		{"zero number", float64(0), false},
		{"false", false, false},
		{"empty list", []any{}, true},
		{"list of blanks", []any{nil, ""}, true},
		{"list with value", []any{nil, "x"}, false},
		{"empty map", map[string]any{}, true},
		{"map of blanks", map[string]any{"a": nil, "b": []any{}}, true},
		{"map with value", map[string]any{"a": float64(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBlank(tt.value); got != tt.blank {
				t.Errorf("IsBlank(%v) = %v, want %v", tt.value, got, tt.blank)
			}
		})
	}
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	a := map[string]any{"b": float64(1), "a": float64(2)}
	b := map[string]any{"a": float64(2), "b": float64(1)}
	if CanonicalJSON(a) != CanonicalJSON(b) {
		t.Errorf("canonical forms differ: %s vs %s", CanonicalJSON(a), CanonicalJSON(b))
	}
}
