package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relquery/params"
)

// RequestFile is a YAML request document: the root entity plus raw
// parameters in the same key=value form the command line takes.
//
//	root: rocket
//	params:
//	  - filter[name]=Apollo
//	  - sort=-age
//	  - include=space_center
type RequestFile struct {
	Root   string   `yaml:"root"`
	Params []string `yaml:"params"`
}

// LoadRequestFile reads and validates a YAML request file.
func LoadRequestFile(path string) (*RequestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}

	var req RequestFile
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request file: %w", err)
	}
	if req.Root == "" {
		return nil, fmt.Errorf("request file %s: root is required", path)
	}
	return &req, nil
}

// paramPairs splits raw key=value arguments into ordered parser input.
// Order is preserved: it is the parse order contract.
func paramPairs(args []string) ([]params.Param, error) {
	pairs := make([]params.Param, 0, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("parameter %q is not key=value", arg)
		}
		pairs = append(pairs, params.Param{Key: key, Value: value})
	}
	return pairs, nil
}
