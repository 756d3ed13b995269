package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	// FileDelimiter frames the header of every file section. It is a fixed part of the format.
	FileDelimiter = "================================================"
	// FileHeaderPrefix precedes the root-relative path inside a file header.
	FileHeaderPrefix = "FILE: "
	// fileHeaderFormat carries the exact content length, so a reader consumes the section by
	// size and never scans the content for the next delimiter.
	fileHeaderFormat = FileHeaderPrefix + "%s (%d bytes)\n"

	treeSectionHeader    = "==== DIRECTORY TREE ===="
	filesSectionHeader   = "==== FILES ===="
	summarySectionHeader = "==== SUMMARY ===="

	partialStatusLine = "Status: partial (cancelled before the walk finished)"
	skipLineFormat    = "- %s (%s): %s"
)

// WriteDigest writes the complete digest: tree section, file sections, and summary footer.
func WriteDigest(writer io.Writer, result *types.DigestResult) error {
	buffered := bufio.NewWriter(writer)

	buffered.WriteString(treeSectionHeader + "\n")
	buffered.WriteString(result.Tree)
	buffered.WriteString("\n" + filesSectionHeader + "\n")
	for _, record := range result.Records {
		if !record.Included() {
			continue
		}
		writeFileSection(buffered, record)
	}
	buffered.WriteString(summarySectionHeader + "\n")
	buffered.WriteString(FormatSummary(result))

	return buffered.Flush()
}

func writeFileSection(writer *bufio.Writer, record types.FileRecord) {
	writer.WriteString(FileDelimiter + "\n")
	fmt.Fprintf(writer, fileHeaderFormat, record.Entry.RelativePath, len(record.Content))
	writer.WriteString(FileDelimiter + "\n")
	writer.WriteString(record.Content)
	if !strings.HasSuffix(record.Content, "\n") {
		writer.WriteString("\n")
	}
	writer.WriteString("\n")
}

// FormatSummary renders the footer statistics and skip list.
func FormatSummary(result *types.DigestResult) string {
	summary := result.Summary
	var builder strings.Builder
	fmt.Fprintf(&builder, "Directory: %s\n", result.RootName)
	fmt.Fprintf(&builder, "Files: %d\n", summary.Files)
	fmt.Fprintf(&builder, "Directories: %d\n", summary.Directories)
	fmt.Fprintf(&builder, "Symlinks: %d\n", summary.Symlinks)
	fmt.Fprintf(&builder, "Binary files: %d\n", summary.BinaryFiles)
	fmt.Fprintf(&builder, "Total size: %s (%d bytes)\n", utils.FormatFileSize(summary.TotalBytes), summary.TotalBytes)
	if summary.EstimatedFiles > 0 {
		fmt.Fprintf(&builder, "Estimated tokens: %d (%s; %d estimated by heuristic)\n", summary.TotalTokens, summary.TokenModel, summary.EstimatedFiles)
	} else {
		fmt.Fprintf(&builder, "Estimated tokens: %d (%s)\n", summary.TotalTokens, summary.TokenModel)
	}
	if result.Partial {
		builder.WriteString(partialStatusLine + "\n")
	}
	fmt.Fprintf(&builder, "Skipped: %d\n", len(summary.Skipped))
	for _, skipped := range summary.Skipped {
		fmt.Fprintf(&builder, skipLineFormat, skipped.RelativePath, utils.FormatFileSize(skipped.SizeBytes), skipped.Reason)
		if skipped.Detail != "" {
			builder.WriteString(": " + skipped.Detail)
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// FormatSummaryLine condenses a summary into one line for status messages.
func FormatSummaryLine(summary types.Summary) string {
	label := "files"
	if summary.Files == 1 {
		label = "file"
	}
	extra := ""
	if summary.TotalTokens > 0 {
		extra = fmt.Sprintf(", %d tokens", summary.TotalTokens)
	}
	modelSuffix := ""
	if summary.TokenModel != "" {
		modelSuffix = fmt.Sprintf(" (model: %s)", summary.TokenModel)
	}
	skippedSuffix := ""
	if len(summary.Skipped) > 0 {
		skippedSuffix = fmt.Sprintf(", %d skipped", len(summary.Skipped))
	}
	return fmt.Sprintf("Summary: %d %s, %s%s%s%s", summary.Files, label, utils.FormatFileSize(summary.TotalBytes), extra, modelSuffix, skippedSuffix)
}
