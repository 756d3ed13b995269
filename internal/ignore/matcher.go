package ignore

import (
	"strings"

	"github.com/temirov/ingest/internal/utils"
)

// Decision is the outcome of evaluating a path against every applicable rule.
type Decision int

const (
	// DecisionNone means no rule matched the path.
	DecisionNone Decision = iota
	// DecisionExclude means the last matching rule excludes the path.
	DecisionExclude
	// DecisionInclude means the last matching rule is a negation.
	DecisionInclude
)

var defaultPatterns = []string{
	".hg/",
	".svn/",
	".bzr/",
	"node_modules/",
	"bower_components/",
	"vendor/bundle/",
	"build/",
	"dist/",
	"target/",
	"out/",
	".gradle/",
	"__pycache__/",
	".venv/",
	"venv/",
	".tox/",
	".mypy_cache/",
	".pytest_cache/",
	"*.egg-info/",
	".next/",
	".nuxt/",
	".cache/",
	".idea/",
	".vscode/",
	".DS_Store",
	"Thumbs.db",
	"*.pyc",
	"*.pyo",
	"*.class",
	"*.o",
	"*.obj",
	"*.so",
	"*.dll",
	"*.dylib",
	"*.exe",
}

// DefaultPatterns returns the built-in exclusions. The Git directory is excluded unless includeGit is set.
func DefaultPatterns(includeGit bool) []string {
	patterns := make([]string, 0, len(defaultPatterns)+1)
	if !includeGit {
		patterns = append(patterns, utils.GitDirectoryName+pathSeparator)
	}
	return append(patterns, defaultPatterns...)
}

type layer struct {
	// base is the slash-separated directory the rules are scoped to; empty for the root.
	base  string
	rules []Rule
}

func (scope layer) localPath(relativePath string) (string, bool) {
	if scope.base == "" {
		return relativePath, true
	}
	prefix := scope.base + pathSeparator
	if !strings.HasPrefix(relativePath, prefix) {
		return "", false
	}
	return relativePath[len(prefix):], true
}

// Matcher is an immutable layered rule set evaluated last-match-wins.
// Layers are consulted in the order they were added; overrides are consulted after every layer.
type Matcher struct {
	layers    []layer
	overrides []Rule
}

// New compiles defaults into the first layer of a matcher rooted at the traversal root.
func New(defaults []string) (*Matcher, error) {
	rules, parseError := ParseLines(defaults)
	if parseError != nil {
		return nil, parseError
	}
	return (&Matcher{}).WithLayer("", rules), nil
}

// WithLayer returns a matcher extended by rules scoped to base, a root-relative directory.
// The receiver is left unchanged.
func (matcher *Matcher) WithLayer(base string, rules []Rule) *Matcher {
	if matcher == nil {
		matcher = &Matcher{}
	}
	if len(rules) == 0 {
		return matcher
	}
	if base == "." {
		base = ""
	}
	layers := make([]layer, len(matcher.layers), len(matcher.layers)+1)
	copy(layers, matcher.layers)
	layers = append(layers, layer{base: base, rules: append([]Rule(nil), rules...)})
	return &Matcher{layers: layers, overrides: matcher.overrides}
}

// WithOverrides returns a matcher whose root-scoped override patterns are evaluated after every layer,
// including layers added later.
func (matcher *Matcher) WithOverrides(patterns []string) (*Matcher, error) {
	if matcher == nil {
		matcher = &Matcher{}
	}
	rules, parseError := ParseLines(patterns)
	if parseError != nil {
		return nil, parseError
	}
	if len(rules) == 0 {
		return matcher, nil
	}
	overrides := make([]Rule, 0, len(matcher.overrides)+len(rules))
	overrides = append(overrides, matcher.overrides...)
	overrides = append(overrides, rules...)
	return &Matcher{layers: matcher.layers, overrides: overrides}, nil
}

// Match returns the polarity of the final rule matching relativePath. Ancestors are not consulted.
func (matcher *Matcher) Match(relativePath string, isDirectory bool) Decision {
	if matcher == nil {
		return DecisionNone
	}
	decision := DecisionNone
	for _, scope := range matcher.layers {
		localPath, applies := scope.localPath(relativePath)
		if !applies {
			continue
		}
		decision = evaluate(scope.rules, localPath, isDirectory, decision)
	}
	return evaluate(matcher.overrides, relativePath, isDirectory, decision)
}

// Excluded reports whether relativePath itself is excluded.
func (matcher *Matcher) Excluded(relativePath string, isDirectory bool) bool {
	return matcher.Match(relativePath, isDirectory) == DecisionExclude
}

// Included reports whether relativePath survives filtering. An excluded ancestor directory
// excludes every descendant regardless of later negations.
//
// walker.Walk reaches the same answer without calling Included: it never reads an excluded
// directory, so it only has to ask Excluded about each entry it lists. Included answers the
// question for a single path outside of a walk.
func (matcher *Matcher) Included(relativePath string, isDirectory bool) bool {
	for index := 0; index < len(relativePath); index++ {
		if relativePath[index] != '/' {
			continue
		}
		if matcher.Excluded(relativePath[:index], true) {
			return false
		}
	}
	return !matcher.Excluded(relativePath, isDirectory)
}

func evaluate(rules []Rule, localPath string, isDirectory bool, decision Decision) Decision {
	for _, rule := range rules {
		if !rule.Matches(localPath, isDirectory) {
			continue
		}
		if rule.Negated {
			decision = DecisionInclude
		} else {
			decision = DecisionExclude
		}
	}
	return decision
}
