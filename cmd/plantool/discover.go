package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

var planExts = []string{".yaml", ".yml"}

// planFile is a YAML plan found on the module path.
type planFile struct {
	Name string // qualified plan name, e.g. "mymod::deploy"
	Path string
}

// discoverPlans walks <dir>/<module>/plans/ for every module path directory
// and returns the YAML plans found, sorted by name. When several
// directories provide the same plan name the first one wins.
func discoverPlans(modulePath []string) ([]planFile, error) {
	seen := make(map[string]bool)
	var plans []planFile

	for _, dir := range modulePath {
		modules, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading module directory %s: %w", dir, err)
		}
		for _, m := range modules {
			if !m.IsDir() {
				continue
			}
			plansDir := filepath.Join(dir, m.Name(), "plans")
			err := filepath.WalkDir(plansDir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					if os.IsNotExist(err) {
						return fs.SkipDir
					}
					return err
				}
				if d.IsDir() || !isPlanFile(path) {
					return nil
				}
				name, err := planNameFromPath(path)
				if err != nil || seen[name] {
					return nil
				}
				seen[name] = true
				plans = append(plans, planFile{Name: name, Path: path})
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("scanning %s: %w", plansDir, err)
			}
		}
	}

	sort.Slice(plans, func(i, j int) bool { return plans[i].Name < plans[j].Name })
	return plans, nil
}

// findPlan returns the file for the qualified plan name. Names map to
// files as follows:
//
//	mod         → <dir>/mod/plans/init.yaml
//	mod::a::b   → <dir>/mod/plans/a/b.yaml
func findPlan(modulePath []string, name string) (string, error) {
	segs := strings.Split(name, "::")
	rel := append([]string{segs[0], "plans"}, segs[1:]...)
	if len(segs) == 1 {
		rel = append(rel, "init")
	}

	for _, dir := range modulePath {
		base := filepath.Join(append([]string{dir}, rel...)...)
		for _, ext := range planExts {
			if _, err := os.Stat(base + ext); err == nil {
				return base + ext, nil
			}
		}
	}
	return "", notFoundError(modulePath, name)
}

// notFoundError reports a missing plan and suggests the closest known name.
func notFoundError(modulePath []string, name string) error {
	msg := fmt.Sprintf("plan %q not found on module path %s", name, strings.Join(modulePath, ":"))
	plans, err := discoverPlans(modulePath)
	if err != nil || len(plans) == 0 {
		return fmt.Errorf("%s", msg)
	}
	names := make([]string, len(plans))
	for i, p := range plans {
		names[i] = p.Name
	}
	if hint := closestName(name, names); hint != "" {
		return fmt.Errorf("%s (did you mean %q?)", msg, hint)
	}
	return fmt.Errorf("%s\navailable: %s", msg, strings.Join(names, ", "))
}

// closestName returns the best fuzzy match for name, falling back to the
// nearest name within two edits.
func closestName(name string, names []string) string {
	if ranks := fuzzy.RankFindFold(name, names); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	best, bestDist := "", 3
	for _, n := range names {
		if d := fuzzy.LevenshteinDistance(name, n); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// planNameFromPath derives the qualified name of a plan file from the
// <module>/plans/<rel> layout, using the last "plans" path component.
func planNameFromPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	parts := strings.Split(filepath.ToSlash(abs), "/")
	idx := -1
	for i := len(parts) - 2; i > 0; i-- {
		if parts[i] == "plans" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("%s is not inside a <module>/plans directory; use --name", path)
	}

	segs := append([]string{parts[idx-1]}, parts[idx+1:]...)
	last := len(segs) - 1
	segs[last] = strings.TrimSuffix(segs[last], filepath.Ext(segs[last]))
	if last == 1 && segs[last] == "init" {
		segs = segs[:1]
	}
	return strings.Join(segs, "::"), nil
}

// resolvePlanArg accepts a plan name or a path to a YAML file and returns
// the plan name and file. nameOverride, when set, replaces the derived name.
func resolvePlanArg(arg string, modulePath []string, nameOverride string) (planFile, error) {
	if isPlanFile(arg) {
		if _, err := os.Stat(arg); err == nil {
			name := nameOverride
			if name == "" {
				if name, err = planNameFromPath(arg); err != nil {
					return planFile{}, err
				}
			}
			return planFile{Name: name, Path: arg}, nil
		}
	}

	path, err := findPlan(modulePath, arg)
	if err != nil {
		return planFile{}, err
	}
	name := arg
	if nameOverride != "" {
		name = nameOverride
	}
	return planFile{Name: name, Path: path}, nil
}

func isPlanFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range planExts {
		if ext == e {
			return true
		}
	}
	return false
}

// outputPath returns the sibling .pp path for a YAML plan file.
func outputPath(yamlPath string) string {
	return strings.TrimSuffix(yamlPath, filepath.Ext(yamlPath)) + ".pp"
}
