package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the CLI with args and returns stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompileCommand_Text(t *testing.T) {
	out, err := runCommand(t,
		"compile",
		"--schema", "testdata/schema",
		"--root", "rocket",
		"filter[name]=Apollo", "sort=-age", "include=space_center",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "SELECT ")
	assert.Contains(t, out, "INNER JOIN space_centers space_center")
	assert.Contains(t, out, "WHERE rocket.name = ?")
	assert.Contains(t, out, "ORDER BY rocket.age DESC, rocket.id ASC")
	assert.Contains(t, out, "-- args: [Apollo]")
}

func TestCompileCommand_JSON(t *testing.T) {
	out, err := runCommand(t,
		"compile",
		"--format", "json",
		"--schema", "testdata/schema",
		"--root", "rocket",
		"filter[space_center.country.name][lk]=UK",
	)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Root string   `json:"root"`
			SQL  string   `json:"sql"`
			Args []any    `json:"args"`
			Join []string `json:"joined_paths"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "rocket", resp.Data.Root)
	assert.Contains(t, resp.Data.SQL, "INNER JOIN countries space_center_country")
	assert.Equal(t, []any{"%uk%"}, resp.Data.Args)
	assert.Equal(t, []string{"space_center", "space_center.country"}, resp.Data.Join)
}

func TestCompileCommand_RequestFile(t *testing.T) {
	out, err := runCommand(t,
		"compile",
		"--schema", "testdata/schema",
		"--request", "testdata/request.yaml",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "WHERE rocket.name = ?")
	assert.Contains(t, out, "space_center.name AS space_center_name")
}

func TestCompileCommand_ParseErrorExitCode(t *testing.T) {
	_, err := runCommand(t,
		"compile",
		"--schema", "testdata/schema",
		"--root", "rocket",
		"filter[age][zz]=5",
	)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCompileCommand_UnknownRoot(t *testing.T) {
	_, err := runCommand(t,
		"compile",
		"--schema", "testdata/schema",
		"--root", "asteroid",
	)

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompileCommand_MissingSchema(t *testing.T) {
	_, err := runCommand(t,
		"compile",
		"--schema", "testdata/no-such-dir",
		"--root", "rocket",
	)

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompileCommand_InvalidFormat(t *testing.T) {
	_, err := runCommand(t,
		"compile",
		"--format", "xml",
		"--schema", "testdata/schema",
		"--root", "rocket",
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
