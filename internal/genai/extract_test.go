package genai

import "testing"

func TestExtractPayload(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  hello  ", "hello"},
		{"fence with tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence no tag", "```\n[1,2]\n```", "[1,2]"},
		{"prose around fence", "Sure:\n```json\n{}\n```\nDone.", "{}"},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
		{"inline fence", "```{\"a\":1}```", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractPayload(tc.in); got != tc.want {
				t.Errorf("extractPayload(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
