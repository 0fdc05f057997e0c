// Package prompt builds the instruction payloads sent to the
// code-generation service. Composition is a pure transformation: the same
// request always yields the same payload.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tabq-labs/tabq/internal/table"
)

// Generation temperatures. Retries run colder than first attempts.
const (
	firstAttemptTemperature = 0.2
	retryTemperature        = 0.1
)

// DefaultMaxTokens bounds the generated code length.
const DefaultMaxTokens = 2000

// Failure carries the previous attempt's code and exact error into the
// next prompt.
type Failure struct {
	Code  string
	Error string
}

// Request is everything the composer needs for one attempt.
type Request struct {
	Query       string
	Summaries   []table.Summary
	Context     map[string]string
	Attempt     int
	MaxAttempts int
	// MaxTokens overrides DefaultMaxTokens when positive.
	MaxTokens int
	// Prior is non-nil from the second attempt on.
	Prior *Failure
}

// Payload is the composed instruction set for the code-generation service.
type Payload struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

const systemPrompt = `You are a Starlark code generator for tabular data analysis. You MUST return ONLY valid, executable Starlark code.

STRICT RULES:
1. NO explanations, NO markdown, NO text before or after the code
2. Starlark is a Python dialect: no imports, no while loops, no classes
3. If you need to explain, use # comments inside the code
4. Return code that can be executed directly`

// Compose builds the payload for one generation attempt. From attempt 2 on
// the previous failing code and its exact error are embedded and the
// temperature drops.
func Compose(req Request) Payload {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate Starlark code to answer this question about tabular financial data.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", req.Query)
	fmt.Fprintf(&b, "ATTEMPT: %d/%d\n", req.Attempt, req.MaxAttempts)

	if req.Prior != nil {
		fmt.Fprintf(&b, `
PREVIOUS ATTEMPT FAILED:
Error: %s
Failed code:
%s

Fix the error and try a different approach. Common issues:
- Wrong column or table names (use the exact names below)
- Row index out of range (check row_count)
- Type errors (text cells cannot be summed)
`, req.Prior.Error, req.Prior.Code)
	}

	fmt.Fprintf(&b, "\nAvailable tables with detailed structure:\n%s\n", summariesJSON(req.Summaries))

	if len(req.Context) > 0 {
		b.WriteString("\nContext:\n")
		for _, k := range sortedKeys(req.Context) {
			fmt.Fprintf(&b, "%s: %s\n", k, req.Context[k])
		}
	}

	b.WriteString(`
HOW THE TABLES WORK:
- Line items are ROWS, not columns. The FIRST column of each table holds
  labels like "Revenue" or "Gross Profit"; the other columns hold numbers.
- To locate data, search labels in the first column, then read values from
  the other columns. Use t.find("revenue") to get matching rows, then
  .cell(0, "column_name") to read a value.
- Table API: t.columns, t.shape, t.col(name), t.find(text), t.cell(row, col),
  t.row(i), t.head(n). Iterating a table yields one dict per row.
- Helpers: sum(values), mean(values), round(x, ndigits), percent_change(new, old).

OUTPUT CONTRACT:
- Assign the raw computed value to a variable named result. This is required.
- Do NOT print(result) directly; print() is for formatted, human-readable
  output (headings, percentages with %, currency symbols).

EXAMPLE:
    rows = income_statement.find("revenue")
    current = rows.cell(0, "fy2024")
    previous = rows.cell(0, "fy2023")
    result = percent_change(current, previous)
    print("Revenue growth: %.1f%%" % result)

Generate ONLY executable Starlark code. No markdown, no prose.`)

	temperature := firstAttemptTemperature
	if req.Attempt > 1 {
		temperature = retryTemperature
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return Payload{
		System:      systemPrompt,
		User:        b.String(),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

// summariesJSON renders the structural summaries as indented JSON keyed by
// table name, so generated code can only reference what exists.
func summariesJSON(summaries []table.Summary) string {
	byName := make(map[string]table.Summary, len(summaries))
	for _, s := range summaries {
		byName[s.Table] = s
	}
	out, err := json.MarshalIndent(byName, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
