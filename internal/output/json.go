package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	// FormatText selects the delimited plain-text digest.
	FormatText = "text"
	// FormatJSON selects a single JSON document carrying the same information.
	FormatJSON = "json"

	indentPrefix = ""
	indentSpacer = "  "

	unsupportedFormatMessage = "unsupported format %q (use text or json)"
)

type jsonDigest struct {
	Root    string      `json:"root"`
	Tree    string      `json:"tree"`
	Files   []jsonFile  `json:"files"`
	Summary jsonSummary `json:"summary"`
	Partial bool        `json:"partial,omitempty"`
}

type jsonFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"sizeBytes"`
	Tokens    int    `json:"tokens"`
	Content   string `json:"content"`
}

type jsonSummary struct {
	Files          int           `json:"files"`
	Directories    int           `json:"directories"`
	Symlinks       int           `json:"symlinks"`
	BinaryFiles    int           `json:"binaryFiles"`
	TotalBytes     int64         `json:"totalBytes"`
	TotalSize      string        `json:"totalSize"`
	TotalTokens    int           `json:"totalTokens"`
	TokenModel     string        `json:"tokenModel"`
	EstimatedFiles int           `json:"estimatedFiles,omitempty"`
	Skipped        []jsonSkipped `json:"skipped"`
}

type jsonSkipped struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"sizeBytes"`
	Reason    string `json:"reason"`
	Detail    string `json:"detail,omitempty"`
}

// IsSupportedFormat reports whether format names a known digest rendering. Empty means text.
func IsSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText, FormatJSON:
		return true
	default:
		return false
	}
}

// Write renders result in the requested format. An empty format means text.
func Write(writer io.Writer, format string, result *types.DigestResult) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return WriteDigest(writer, result)
	case FormatJSON:
		return WriteDigestJSON(writer, result)
	default:
		return fmt.Errorf(unsupportedFormatMessage, format)
	}
}

// WriteDigestJSON writes the digest as one indented JSON object. Only text files carry content.
func WriteDigestJSON(writer io.Writer, result *types.DigestResult) error {
	summary := result.Summary
	payload := jsonDigest{
		Root:  result.RootName,
		Tree:  result.Tree,
		Files: make([]jsonFile, 0, summary.Files),
		Summary: jsonSummary{
			Files:          summary.Files,
			Directories:    summary.Directories,
			Symlinks:       summary.Symlinks,
			BinaryFiles:    summary.BinaryFiles,
			TotalBytes:     summary.TotalBytes,
			TotalSize:      utils.FormatFileSize(summary.TotalBytes),
			TotalTokens:    summary.TotalTokens,
			TokenModel:     summary.TokenModel,
			EstimatedFiles: summary.EstimatedFiles,
			Skipped:        make([]jsonSkipped, 0, len(summary.Skipped)),
		},
		Partial: result.Partial,
	}
	for _, record := range result.Records {
		if !record.Included() {
			continue
		}
		payload.Files = append(payload.Files, jsonFile{
			Path:      record.Entry.RelativePath,
			SizeBytes: record.Entry.SizeBytes,
			Tokens:    record.Tokens,
			Content:   record.Content,
		})
	}
	for _, skipped := range summary.Skipped {
		payload.Summary.Skipped = append(payload.Summary.Skipped, jsonSkipped{
			Path:      skipped.RelativePath,
			SizeBytes: skipped.SizeBytes,
			Reason:    string(skipped.Reason),
			Detail:    skipped.Detail,
		})
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent(indentPrefix, indentSpacer)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(payload)
}
