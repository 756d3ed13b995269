package digest

import (
	"go.uber.org/zap"

	"github.com/temirov/ingest/internal/tokenizer"
)

const (
	// DefaultMaxFileSizeBytes is the default per-file ceiling.
	DefaultMaxFileSizeBytes int64 = 10 * 1024 * 1024
	// DefaultMaxTotalSizeBytes is the default cumulative ceiling.
	DefaultMaxTotalSizeBytes int64 = 100 * 1024 * 1024
)

// Options configures one digest. Size limits of zero or less are unlimited.
type Options struct {
	MaxFileSizeBytes    int64
	MaxTotalSizeBytes   int64
	ExtraIgnorePatterns []string
	FollowSymlinks      bool
	// UseGitignore layers .gitignore files found during the walk.
	UseGitignore bool
	// UseIgnoreFile layers .ignore files found during the walk.
	UseIgnoreFile bool
	// IncludeGit keeps the .git directory.
	IncludeGit bool
	// TokenCounter defaults to the heuristic estimate.
	TokenCounter tokenizer.Counter
	Logger       *zap.Logger
}

// DefaultOptions returns 10 MiB per file, 100 MiB in total, and both ignore-file kinds enabled.
func DefaultOptions() Options {
	return Options{
		MaxFileSizeBytes:  DefaultMaxFileSizeBytes,
		MaxTotalSizeBytes: DefaultMaxTotalSizeBytes,
		UseGitignore:      true,
		UseIgnoreFile:     true,
	}
}
