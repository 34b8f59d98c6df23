package fixture

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed plans/*.yaml
var builtinPlans embed.FS

// BuiltinPlans returns the names of the plans shipped with the harness.
func BuiltinPlans() []string {
	entries, err := fs.ReadDir(builtinPlans, "plans")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// LoadBuiltinPlan loads a plan shipped with the harness, by name.
func LoadBuiltinPlan(name string) (*Plan, error) {
	f, err := builtinPlans.Open(path.Join("plans", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("no builtin plan %q", name)
	}
	defer f.Close()
	return LoadPlan(f)
}

// OpenPlan loads the plan from a file, or else the builtin plan with this
// name.
func OpenPlan(nameOrFile string) (*Plan, error) {
	if _, err := os.Stat(nameOrFile); err == nil {
		return LoadPlanFile(nameOrFile)
	}
	return LoadBuiltinPlan(nameOrFile)
}
