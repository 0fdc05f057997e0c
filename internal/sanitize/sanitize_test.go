package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain code untouched",
			raw:  "result = sum(metrics.col(\"x\"))",
			want: "result = sum(metrics.col(\"x\"))",
		},
		{
			name: "starlark fence",
			raw:  "```starlark\nresult = 1 + 1\n```",
			want: "result = 1 + 1",
		},
		{
			name: "python fence",
			raw:  "```python\nresult = 2\n```",
			want: "result = 2",
		},
		{
			name: "bare fence",
			raw:  "```\nresult = 3\n```",
			want: "result = 3",
		},
		{
			name: "fence with surrounding prose",
			raw:  "Here's the code you asked for:\n```starlark\nresult = 4\n```\nLet me know if you need anything else.",
			want: "result = 4",
		},
		{
			name: "preamble without fences",
			raw:  "Here is my approach to the problem.\nThis sums the column.\nresult = sum(metrics.col(\"x\"))",
			want: "result = sum(metrics.col(\"x\"))",
		},
		{
			name: "preamble before comment",
			raw:  "Let me explain.\n# sum the values\nresult = 5",
			want: "# sum the values\nresult = 5",
		},
		{
			name: "unbalanced fence markers",
			raw:  "```starlark\nresult = 6",
			want: "result = 6",
		},
		{
			name: "unrecognizable input returned trimmed",
			raw:  "  I could not produce any code for this question.  ",
			want: "I could not produce any code for this question.",
		},
		{
			name: "empty",
			raw:  "   ",
			want: "",
		},
		{
			name: "multiline body preserved",
			raw:  "```starlark\ntotal = 0\nfor r in metrics:\n    total += r[\"x\"]\nresult = total\n```",
			want: "total = 0\nfor r in metrics:\n    total += r[\"x\"]\nresult = total",
		},
		{
			name: "comparison in prose is not code",
			raw:  "The answer == hard to say.\nresult = 7",
			want: "result = 7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.raw))
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"```starlark\nresult = 1\n```",
		"Here you go:\nresult = sum(metrics.col(\"x\"))",
		"plain text with no code at all",
		"",
		"```\n```starlark\nresult = 2\n```\n```",
		"for i in range(3):\n    print(i)",
	}

	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input: %q", in)
	}
}

func TestCleanNestedFenceKeepsInnermost(t *testing.T) {
	raw := "```\n```starlark\nresult = 8\n```\n```"
	assert.Equal(t, "result = 8", Clean(raw))
}
