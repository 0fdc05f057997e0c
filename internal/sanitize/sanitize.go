// Package sanitize strips formatting artifacts from model-generated code:
// markdown fences and conversational preamble. It never fails; input it
// cannot recognize is returned trimmed and failure detection is left to the
// sandbox.
package sanitize

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:starlark|python|py)?[ \t]*\n(.*?)```")

// codePrefixes are line starts that mark the beginning of actual code.
var codePrefixes = []string{
	"def ", "for ", "if ", "load(", "print(", "return ", "#", "result",
}

// Clean extracts a single executable unit from raw model output.
//
// Fenced blocks win: the content of the innermost fence is used. Without
// fences, leading lines that read like natural-language preamble ("Here's
// the code...") are dropped up to the first line that looks like code.
// Clean is idempotent.
func Clean(raw string) string {
	code := strings.TrimSpace(raw)
	if code == "" {
		return ""
	}

	if strings.Contains(code, "```") {
		code = unfence(code)
	}

	return dropPreamble(code)
}

// unfence peels fenced blocks, keeping the innermost non-empty content.
// Markers that survive (unbalanced or immediately nested fences) are
// stripped outright so only code remains.
func unfence(code string) string {
	for {
		m := fenceRe.FindStringSubmatch(code)
		if m == nil || strings.TrimSpace(m[1]) == "" {
			break
		}
		code = strings.TrimSpace(m[1])
	}
	if strings.Contains(code, "```") {
		code = strings.ReplaceAll(code, "```starlark", "")
		code = strings.ReplaceAll(code, "```python", "")
		code = strings.ReplaceAll(code, "```py", "")
		code = strings.ReplaceAll(code, "```", "")
		code = strings.TrimSpace(code)
	}
	return code
}

// dropPreamble removes leading lines that do not look like code. The scan
// stops at the first code-looking line; everything from there on is kept.
func dropPreamble(code string) string {
	lines := strings.Split(code, "\n")
	start := 0
	found := false
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if looksLikeCode(stripped) {
			start = i
			found = true
			break
		}
	}
	if !found {
		// Fully unrecognizable input: hand it to the sandbox as-is.
		return strings.TrimSpace(code)
	}
	return strings.TrimSpace(strings.Join(lines[start:], "\n"))
}

func looksLikeCode(line string) bool {
	for _, p := range codePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	// An assignment is code; "==" inside prose is not what we look for,
	// but a lone "=" almost always is.
	if idx := strings.Index(line, "="); idx > 0 {
		if !strings.HasPrefix(line[idx:], "==") {
			return true
		}
	}
	return false
}
