// Package ignore evaluates gitignore-style patterns against root-relative paths.
package ignore

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	commentPrefix     = "#"
	negationPrefix    = "!"
	escapeCharacter   = `\`
	pathSeparator     = "/"
	anyDepthPrefix    = "**/"
	contentsSuffix    = "/**"
	invalidPatternFmt = "invalid ignore pattern %q"
)

// Rule is one compiled ignore pattern.
type Rule struct {
	// Pattern is the source line the rule was compiled from.
	Pattern string
	// Negated rules re-include paths excluded by earlier rules.
	Negated bool
	// Anchored rules match relative to their layer base only.
	Anchored bool
	// DirectoryOnly rules match directories and never files.
	DirectoryOnly bool

	glob          string
	containerGlob string
}

// ParsePattern compiles a single ignore-file line. The boolean is false for blank lines and comments.
func ParsePattern(line string) (Rule, bool, error) {
	source := strings.TrimSuffix(line, "\r")
	text := trimTrailingSpaces(source)
	if text == "" || strings.HasPrefix(text, commentPrefix) {
		return Rule{}, false, nil
	}

	rule := Rule{Pattern: source}
	if strings.HasPrefix(text, negationPrefix) {
		rule.Negated = true
		text = text[len(negationPrefix):]
	} else if strings.HasPrefix(text, escapeCharacter+negationPrefix) || strings.HasPrefix(text, escapeCharacter+commentPrefix) {
		text = text[len(escapeCharacter):]
	}

	if strings.HasSuffix(text, pathSeparator) {
		rule.DirectoryOnly = true
		text = strings.TrimRight(text, pathSeparator)
	}
	if strings.HasPrefix(text, pathSeparator) {
		rule.Anchored = true
		text = strings.TrimLeft(text, pathSeparator)
	}
	if text == "" {
		return Rule{}, false, nil
	}
	if strings.Contains(text, pathSeparator) {
		rule.Anchored = true
	}

	rule.glob = escapeBraces(text)
	if !rule.Anchored {
		rule.glob = anyDepthPrefix + text
	}
	if strings.HasSuffix(rule.glob, contentsSuffix) {
		rule.containerGlob = strings.TrimSuffix(rule.glob, contentsSuffix)
	}
	if !doublestar.ValidatePattern(rule.glob) {
		return Rule{}, false, fmt.Errorf(invalidPatternFmt, source)
	}
	return rule, true, nil
}

// ParseLines compiles every meaningful line, preserving order.
func ParseLines(lines []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(lines))
	for _, line := range lines {
		rule, ok, parseError := ParsePattern(line)
		if parseError != nil {
			return nil, parseError
		}
		if ok {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

// Matches reports whether the rule applies to a path relative to its layer base.
func (rule Rule) Matches(localPath string, isDirectory bool) bool {
	if rule.DirectoryOnly && !isDirectory {
		return false
	}
	matched, _ := doublestar.Match(rule.glob, localPath)
	if !matched {
		return false
	}
	// "dir/**" covers the contents of dir, not dir itself.
	if rule.containerGlob != "" {
		if matchesContainer, _ := doublestar.Match(rule.containerGlob, localPath); matchesContainer {
			return false
		}
	}
	return true
}

// escapeBraces makes "{" and "}" literal. Ignore files have no alternation syntax, while the
// glob engine would otherwise expand "{a,b}".
func escapeBraces(text string) string {
	if !strings.ContainsAny(text, "{}") {
		return text
	}
	var escaped strings.Builder
	escaped.Grow(len(text) + 2)
	for index := 0; index < len(text); index++ {
		character := text[index]
		switch {
		case character == escapeCharacter[0] && index+1 < len(text):
			escaped.WriteByte(character)
			index++
			escaped.WriteByte(text[index])
		case character == '{' || character == '}':
			escaped.WriteString(escapeCharacter)
			escaped.WriteByte(character)
		default:
			escaped.WriteByte(character)
		}
	}
	return escaped.String()
}

func trimTrailingSpaces(text string) string {
	for strings.HasSuffix(text, " ") {
		trimmed := strings.TrimSuffix(text, " ")
		if strings.HasSuffix(trimmed, escapeCharacter) {
			return text
		}
		text = trimmed
	}
	return text
}
