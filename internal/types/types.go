// Package types defines every cross‑package data structure used by the ingest engine.
package types

// EntryKind identifies what a walked filesystem entry is.
type EntryKind string

const (
	EntryKindFile      EntryKind = "file"
	EntryKindDirectory EntryKind = "directory"
	EntryKindSymlink   EntryKind = "symlink"
)

// Classification is the outcome of inspecting one file.
type Classification string

const (
	ClassificationText              Classification = "text"
	ClassificationBinary            Classification = "binary"
	ClassificationSkippedTooLarge   Classification = "skipped-too-large"
	ClassificationSkippedTotalLimit Classification = "skipped-total-limit"
	ClassificationSkippedUnreadable Classification = "skipped-unreadable"
	ClassificationSymlink           Classification = "symlink"
	ClassificationDirectory         Classification = "directory"
)

// SkipReason explains why an entry is listed in the summary skip list.
type SkipReason string

const (
	SkipReasonBinary        SkipReason = "binary"
	SkipReasonDecodeError   SkipReason = "decode-error"
	SkipReasonReadError     SkipReason = "read-error"
	SkipReasonBrokenSymlink SkipReason = "broken-symlink"
	SkipReasonTooLarge      SkipReason = "skipped-too-large"
	SkipReasonTotalLimit    SkipReason = "skipped-total-limit"
)

// PathEntry is one filesystem entry produced by the walker.
type PathEntry struct {
	AbsolutePath string
	// RelativePath is slash-separated and relative to the traversal root.
	RelativePath string
	Name         string
	Kind         EntryKind
	SizeBytes    int64
	// Depth is 1 for direct children of the root.
	Depth      int
	LinkTarget string
}

// FileRecord is a classified file.
type FileRecord struct {
	Entry          PathEntry
	Classification Classification
	Content        string
	Tokens         int
	SkipReason     SkipReason
	Detail         string
}

// Included reports whether the record contributes content to the digest body.
func (record FileRecord) Included() bool {
	return record.Classification == ClassificationText
}

// SkippedEntry is a non-fatal omission surfaced in the summary.
type SkippedEntry struct {
	RelativePath string
	SizeBytes    int64
	Reason       SkipReason
	Detail       string
}

// ListingEntry is one line of the tree diagram.
type ListingEntry struct {
	Entry          PathEntry
	Classification Classification
}

// Summary aggregates statistics over one digest.
type Summary struct {
	Files       int
	Directories int
	Symlinks    int
	BinaryFiles int
	TotalBytes  int64
	TotalTokens int
	TokenModel  string
	Skipped     []SkippedEntry
	// EstimatedFiles counts files whose tokens came from the heuristic because the configured
	// exact counter failed on them.
	EstimatedFiles int
}

// DigestResult is the immutable outcome of one digest run.
type DigestResult struct {
	Root     string
	RootName string
	Entries  []ListingEntry
	Records  []FileRecord
	Tree     string
	Summary  Summary
	// Partial is set when the run was cancelled before the walk finished.
	Partial bool
}
