package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relquery/params"
)

func TestLoadRequestFile(t *testing.T) {
	req, err := LoadRequestFile("testdata/request.yaml")
	require.NoError(t, err)

	assert.Equal(t, "rocket", req.Root)
	assert.Equal(t, []string{
		"filter[name]=Apollo",
		"sort=-age",
		"include=space_center",
	}, req.Params)
}

func TestLoadRequestFile_MissingRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte("params:\n  - sort=-age\n"), 0o644))

	_, err := LoadRequestFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root is required")
}

func TestLoadRequestFile_NotFound(t *testing.T) {
	_, err := LoadRequestFile("testdata/no-such-file.yaml")
	require.Error(t, err)
}

func TestParamPairs(t *testing.T) {
	pairs, err := paramPairs([]string{"filter[name]=Apollo", "sort=-age", "include="})
	require.NoError(t, err)

	assert.Equal(t, []params.Param{
		{Key: "filter[name]", Value: "Apollo"},
		{Key: "sort", Value: "-age"},
		{Key: "include", Value: ""},
	}, pairs)
}

func TestParamPairs_Invalid(t *testing.T) {
	_, err := paramPairs([]string{"filter[name]"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not key=value")

	_, err = paramPairs([]string{"=value"})
	require.Error(t, err)
}
