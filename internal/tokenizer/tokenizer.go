// Package tokenizer estimates how many language-model tokens a text occupies.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters provided by the CLI.
type Config struct {
	// Model selects an exact BPE tokenizer. Empty selects the heuristic estimate.
	Model string
	// DataDirectory holds *.tiktoken rank files for exact counting.
	DataDirectory string
}

const defaultEncodingName = "cl100k_base"

// NewCounter returns a Counter implementation for the requested model and the name it reports.
// Exact counters read their rank files from cfg.DataDirectory and never download them.
func NewCounter(cfg Config) (Counter, string, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return HeuristicCounter{}, HeuristicCounterName, nil
	}
	tiktoken.SetBpeLoader(NewOfflineLoader(cfg.DataDirectory))

	lowerModel := strings.ToLower(model)
	if isOpenAIModel(lowerModel) {
		encoding, err := tiktoken.EncodingForModel(lowerModel)
		if err == nil && encoding != nil {
			return bpeCounter{encoding: encoding, name: lowerModel}, model, nil
		}
	}
	encoding, err := tiktoken.GetEncoding(defaultEncodingName)
	if err != nil {
		return nil, "", fmt.Errorf("initialize tokenizer for %s: %w", model, err)
	}
	return bpeCounter{encoding: encoding, name: defaultEncodingName}, defaultEncodingName, nil
}

func isOpenAIModel(model string) bool {
	prefixes := []string{
		"gpt-",
		"o1",
		"o3",
		"text-embedding",
		"davinci",
		"curie",
		"babbage",
		"ada",
		"code-",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
