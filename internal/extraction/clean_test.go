package extraction

import "testing"

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "json fence",
			input: "```json\n{\"name\": \"Ana\"}\n```",
			want:  `{"name": "Ana"}`,
		},
		{
			name:  "bare fence",
			input: "```\n{\"name\": \"Ana\"}\n```",
			want:  `{"name": "Ana"}`,
		},
		{
			name:  "fence with preamble",
			input: "Sure, here is the JSON:\n```json\n{\"a\": 1}\n```\nLet me know if you need more.",
			want:  `{"a": 1}`,
		},
		{
			name:  "no fence",
			input: "  {\"a\": 1}  ",
			want:  `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanResponse(tt.input); got != tt.want {
				t.Errorf("CleanResponse = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeFirstObject(t *testing.T) {
	text := `Thinking... the profile seems to be {incomplete. Final answer:
{"name": "Ana", "age": 23} and that is all.`

	obj, ok := DecodeFirstObject(text)
	if !ok {
		t.Fatal("expected an object")
	}
	if obj["name"] != "Ana" || obj["age"].(float64) != 23 {
		t.Errorf("obj = %v", obj)
	}
}

func TestDecodeFirstObjectNone(t *testing.T) {
	if _, ok := DecodeFirstObject("no json here { broken"); ok {
		t.Error("expected no object")
	}
}

func TestParseStructured(t *testing.T) {
	response := "```json\n{\"name\": \"Ana\"}\n```"
	obj, ok := ParseStructured(response)
	if !ok || obj["name"] != "Ana" {
		t.Errorf("ParseStructured = %v, %v", obj, ok)
	}
}
