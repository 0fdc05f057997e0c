package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func fixtureDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE metrics (label TEXT, x INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO metrics VALUES ('a', 10), ('b', 15)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	return path
}

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := runCommand(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tabq v")
}

func TestInspectCommand(t *testing.T) {
	db := fixtureDB(t)
	t.Chdir(t.TempDir())

	out, err := runCommand(t, "", "inspect", db, "-o", "json")
	require.NoError(t, err)

	var summaries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "metrics", summaries[0]["table"])
	assert.Equal(t, float64(2), summaries[0]["row_count"])
	assert.Equal(t, "label", summaries[0]["metric_column"])
}

func TestInspectMissingSource(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := runCommand(t, "", "inspect", "no-such-source")
	assert.Error(t, err)
}

func TestExecCommandFromStdin(t *testing.T) {
	db := fixtureDB(t)
	t.Chdir(t.TempDir())

	out, err := runCommand(t, `result = sum(metrics.col("x"))`, "exec", "-s", db, "-o", "json")
	require.NoError(t, err)

	var res struct {
		Success bool `json:"success"`
		Result  struct {
			Value any `json:"value"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, float64(25), res.Result.Value)
}

func TestExecCommandFault(t *testing.T) {
	db := fixtureDB(t)
	t.Chdir(t.TempDir())

	out, err := runCommand(t, `result = nope.col("x")`, "exec", "-s", db, "-o", "json")
	require.NoError(t, err, "script faults are reported in the result, not as command errors")

	var res struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "nope")
}

func TestAskCommandRequiresSource(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := runCommand(t, "", "ask", "what is the total?")
	assert.Error(t, err)
}

func TestAskCommandRequiresAPIKey(t *testing.T) {
	db := fixtureDB(t)
	t.Chdir(t.TempDir())
	_, err := runCommand(t, "", "ask", "-s", db, "what is the total?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestAskCommandEndToEnd(t *testing.T) {
	db := fixtureDB(t)
	t.Chdir(t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		content := "The values of x total 25."
		if strings.Contains(req.Model, "coder") {
			content = "```starlark\nresult = sum(metrics.col(\"x\"))\n```"
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	out, err := runCommand(t, "",
		"ask", "-s", db, "-o", "json",
		"--base-url", srv.URL, "--api-key", "test-key",
		"what is the total of x?")
	require.NoError(t, err)

	var res struct {
		Success     bool   `json:"success"`
		Attempts    int    `json:"attempts"`
		Explanation string `json:"explanation"`
		Result      struct {
			Value any `json:"value"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, float64(25), res.Result.Value)
	assert.Equal(t, "The values of x total 25.", res.Explanation)
}
