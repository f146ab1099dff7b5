package cli

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDatabase creates a SQLite file with the rocket fixtures and returns
// its path.
func testDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rockets.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	ddl := []string{
		`CREATE TABLE countries (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE space_centers (id INTEGER PRIMARY KEY, name TEXT, country_id INTEGER)`,
		`CREATE TABLE rockets (id INTEGER PRIMARY KEY, name TEXT, age INTEGER, space_center_id INTEGER)`,
		`INSERT INTO countries VALUES (1, 'United Kingdom'), (2, 'United States')`,
		`INSERT INTO space_centers VALUES (1, 'Houston', 2), (2, 'Spaceport Cornwall', 1)`,
		`INSERT INTO rockets VALUES (1, 'Apollo', 52, 1), (2, 'Skylark', 65, 2)`,
	}
	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func TestRunCommand_Text(t *testing.T) {
	dbPath := testDatabase(t)

	out, err := runCommand(t,
		"run",
		"--schema", "testdata/schema",
		"--db", dbPath,
		"--root", "rocket",
		"filter[name]=Apollo", "include=space_center",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "1 row(s)")
	assert.Contains(t, out, "rocket_name=Apollo")
	assert.Contains(t, out, "space_center_name=Houston")
}

func TestRunCommand_JSON(t *testing.T) {
	dbPath := testDatabase(t)

	out, err := runCommand(t,
		"run",
		"--format", "json",
		"--schema", "testdata/schema",
		"--db", dbPath,
		"--root", "rocket",
		"filter[space_center.country.name][lk]=kingdom",
	)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Skylark", resp.Data[0]["rocket_name"])
}

func TestRunCommand_EmptyResult(t *testing.T) {
	dbPath := testDatabase(t)

	out, err := runCommand(t,
		"run",
		"--schema", "testdata/schema",
		"--db", dbPath,
		"--root", "rocket",
		"filter[name]=Voyager",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "0 row(s)")
}
