// Package config loads ignore files and application configuration.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/ingest/internal/ignore"
	"github.com/temirov/ingest/internal/utils"
)

const (
	commentPrefix  = "#"
	byteOrderMark  = "\uFEFF"
	loadIgnoreFmt  = "loading %s from %s: %w"
	parseIgnoreFmt = "parsing %s: %w"
)

// IgnoreFileNames returns the ignore-file names consulted in each directory, in layering order.
func IgnoreFileNames(useGitignore bool, useIgnoreFile bool) []string {
	var fileNames []string
	if useGitignore {
		fileNames = append(fileNames, utils.GitIgnoreFileName)
	}
	if useIgnoreFile {
		fileNames = append(fileNames, utils.IgnoreFileName)
	}
	return fileNames
}

// LoadIgnoreFilePatterns reads a specified ignore file and returns its patterns in file order.
// Blank lines and comments are dropped. A missing file yields no patterns and no error.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer fileHandle.Close()

	var ignorePatterns []string
	scanner := bufio.NewScanner(fileHandle)
	firstLine := true
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if firstLine {
			line = strings.TrimPrefix(line, byteOrderMark)
			firstLine = false
		}
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		ignorePatterns = append(ignorePatterns, line)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return ignorePatterns, nil
}

// LoadIgnoreFileRules compiles one ignore file into rules in line order.
// A missing file yields no rules and no error.
func LoadIgnoreFileRules(ignoreFilePath string) ([]ignore.Rule, error) {
	patterns, loadError := LoadIgnoreFilePatterns(ignoreFilePath)
	if loadError != nil {
		return nil, fmt.Errorf(loadIgnoreFmt, filepath.Base(ignoreFilePath), filepath.Dir(ignoreFilePath), loadError)
	}
	rules, parseError := ignore.ParseLines(patterns)
	if parseError != nil {
		return nil, fmt.Errorf(parseIgnoreFmt, ignoreFilePath, parseError)
	}
	return rules, nil
}
