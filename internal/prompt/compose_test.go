package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabq-labs/tabq/internal/table"
)

func testSummaries() []table.Summary {
	return []table.Summary{
		{
			Table:          "income_statement",
			Columns:        []string{"line_item", "fy2024"},
			RowCount:       3,
			ColumnCount:    2,
			MetricColumn:   "line_item",
			NumericColumns: []string{"fy2024"},
			SampleLabels:   []string{"Revenue", "Gross Profit"},
			Kinds:          map[string]string{"line_item": "text", "fy2024": "real"},
		},
	}
}

func TestComposeFirstAttempt(t *testing.T) {
	p := Compose(Request{
		Query:       "calculate total revenue",
		Summaries:   testSummaries(),
		Context:     map[string]string{"company": "Acme Corp", "fiscal_year": "2024"},
		Attempt:     1,
		MaxAttempts: 3,
	})

	assert.Contains(t, p.User, "calculate total revenue")
	assert.Contains(t, p.User, "ATTEMPT: 1/3")
	assert.Contains(t, p.User, `"income_statement"`)
	assert.Contains(t, p.User, `"Revenue"`)
	assert.Contains(t, p.User, "company: Acme Corp")
	assert.Contains(t, p.User, "FIRST column")
	assert.Contains(t, p.User, "variable named result")
	assert.NotContains(t, p.User, "PREVIOUS ATTEMPT FAILED")
	assert.Equal(t, 0.2, p.Temperature)
	assert.Contains(t, p.System, "ONLY valid, executable Starlark")
}

func TestComposeRetryIncludesPriorFailure(t *testing.T) {
	p := Compose(Request{
		Query:       "calculate total revenue",
		Summaries:   testSummaries(),
		Attempt:     2,
		MaxAttempts: 3,
		Prior: &Failure{
			Code:  `result = sum(cash_flow.col("x"))`,
			Error: "analysis.star:1:14: undefined: cash_flow",
		},
	})

	assert.Contains(t, p.User, "PREVIOUS ATTEMPT FAILED")
	assert.Contains(t, p.User, "undefined: cash_flow")
	assert.Contains(t, p.User, `result = sum(cash_flow.col("x"))`)
	assert.Equal(t, 0.1, p.Temperature, "retries run colder")
}

func TestComposeIsPure(t *testing.T) {
	req := Request{
		Query:       "q",
		Summaries:   testSummaries(),
		Context:     map[string]string{"b": "2", "a": "1", "c": "3"},
		Attempt:     1,
		MaxAttempts: 3,
	}

	first := Compose(req)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Compose(req))
	}
}

func TestComposeEmptyContextOmitted(t *testing.T) {
	p := Compose(Request{Query: "q", Attempt: 1, MaxAttempts: 3})
	assert.NotContains(t, p.User, "\nContext:\n")
}
