package redflag

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// DefaultRulePackGlob matches YAML rule packs anywhere under the rules dir.
const DefaultRulePackGlob = "**/*.{yaml,yml}"

// rulePackFile is the on-disk shape of a rule pack.
type rulePackFile struct {
	Categories []struct {
		Label    string   `yaml:"label"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"categories"`
}

// LoadRulePacks appends extra categories from YAML files under dir matching
// the glob patterns. Packs extend the built-in table; they cannot remove or
// reorder it. Files load in sorted path order so results are deterministic.
func (g *Gate) LoadRulePacks(dir string, globs ...string) error {
	if len(globs) == 0 {
		globs = []string{DefaultRulePackGlob}
	}

	var paths []string
	for _, pattern := range globs {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("rule pack glob %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read rule pack %s: %w", path, err)
		}
		var pack rulePackFile
		if err := yaml.Unmarshal(raw, &pack); err != nil {
			return fmt.Errorf("parse rule pack %s: %w", path, err)
		}
		for _, c := range pack.Categories {
			if c.Label == "" {
				return fmt.Errorf("rule pack %s: category with empty label", path)
			}
			cat := Category{Label: c.Label}
			for _, expr := range c.Patterns {
				p, err := regexp.Compile(expr)
				if err != nil {
					return fmt.Errorf("rule pack %s: category %q: invalid pattern %q: %w", path, c.Label, expr, err)
				}
				cat.Patterns = append(cat.Patterns, p)
			}
			if len(cat.Patterns) == 0 {
				return fmt.Errorf("rule pack %s: category %q has no patterns", path, c.Label)
			}
			g.categories = append(g.categories, cat)
		}
	}
	return nil
}
