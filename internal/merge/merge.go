// Package merge implements deep merging of schema-less JSON documents with
// conflict tracking. Values are the generic trees produced by encoding/json
// (map[string]any, []any, string, float64, bool, nil). The merge never
// overwrites an established value: the first writer wins and every later
// disagreement is recorded as a Conflict for downstream review.
package merge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Conflict records a disagreement between the value already merged into a
// profile and a value proposed by a later source record. Conflicts are only
// appended, never resolved automatically.
type Conflict struct {
	Field     string `json:"field"`
	Existing  any    `json:"existing"`
	Candidate any    `json:"candidate"`
	Source    string `json:"source"`
}

// Maps merges incoming into target in place, extending conflicts with every
// disagreement found. path carries the dot-joined field prefix and source
// identifies the record proposing the incoming values.
//
// Per key: blank incoming values are skipped; nested mappings recurse (or are
// adopted when the target slot is blank, or conflict when it holds an
// incompatible non-blank value); sequences append items not already present by
// canonical serialization; scalars adopt into blank slots and conflict
// against differing non-blank ones.
func Maps(target, incoming map[string]any, conflicts *[]Conflict, path []string, source string) {
	for key, value := range incoming {
		if IsBlank(value) {
			continue
		}
		fieldPath := append(append([]string{}, path...), key)

		switch v := value.(type) {
		case map[string]any:
			current, exists := target[key]
			currentMap, isMap := current.(map[string]any)
			if !isMap {
				if exists && !IsBlank(current) {
					*conflicts = append(*conflicts, Conflict{
						Field:     strings.Join(fieldPath, "."),
						Existing:  current,
						Candidate: v,
						Source:    source,
					})
					continue
				}
				currentMap = make(map[string]any)
				target[key] = currentMap
			}
			Maps(currentMap, v, conflicts, fieldPath, source)

		case []any:
			current, exists := target[key]
			if !exists {
				current = []any{}
			}
			currentList, isList := current.([]any)
			if !isList {
				*conflicts = append(*conflicts, Conflict{
					Field:     strings.Join(fieldPath, "."),
					Existing:  current,
					Candidate: v,
					Source:    source,
				})
				continue
			}
			seen := make(map[string]struct{}, len(currentList))
			for _, item := range currentList {
				seen[CanonicalJSON(item)] = struct{}{}
			}
			for _, item := range v {
				marker := CanonicalJSON(item)
				if _, ok := seen[marker]; ok {
					continue
				}
				currentList = append(currentList, item)
				seen[marker] = struct{}{}
			}
			target[key] = currentList

		default:
			current, exists := target[key]
			if !exists || IsBlank(current) {
				target[key] = value
				continue
			}
			if CanonicalJSON(current) != CanonicalJSON(value) {
				*conflicts = append(*conflicts, Conflict{
					Field:     strings.Join(fieldPath, "."),
					Existing:  current,
					Candidate: value,
					Source:    source,
				})
			}
		}
	}
}

// IsBlank reports whether a value carries no information: nil, a
// whitespace-only string, or a container that is empty or holds only blank
// values. Numbers and booleans are never blank, zero included.
func IsBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		for _, item := range v {
			if !IsBlank(item) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, item := range v {
			if !IsBlank(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// CanonicalJSON serializes a value deterministically (encoding/json emits map
// keys in sorted order), so structurally equal values share one
// representation. Used for list dedup and scalar equality.
func CanonicalJSON(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}
