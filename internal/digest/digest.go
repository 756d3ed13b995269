// Package digest turns a directory into a single text digest in one pass.
package digest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/ingest/internal/classifier"
	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/ignore"
	"github.com/temirov/ingest/internal/output"
	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/walker"
)

const (
	notDirectoryMessage    = "not a directory"
	logMessageTokenFailure = "token counter failed; using estimate"
	logMessageSkipped      = "entry skipped"
	logMessageCompleted    = "digest completed"
)

// Digest walks root, classifies and counts every surviving file, and renders the tree.
// Only root-level problems are fatal. When ctx is cancelled the partial result gathered so
// far is returned together with an error matching ErrCancelled.
func Digest(ctx context.Context, root string, options Options, progress ProgressFunc) (*types.DigestResult, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	absoluteRoot, rootError := checkRoot(root)
	if rootError != nil {
		return nil, rootError
	}

	matcher, matcherError := ignore.New(ignore.DefaultPatterns(options.IncludeGit))
	if matcherError == nil {
		matcher, matcherError = matcher.WithOverrides(options.ExtraIgnorePatterns)
	}
	if matcherError != nil {
		return nil, newError(ErrInvalidOptions, absoluteRoot, matcherError)
	}

	counter := options.TokenCounter
	if counter == nil {
		counter = tokenizer.HeuristicCounter{}
	}

	builder := &resultBuilder{
		result: &types.DigestResult{
			Root:     absoluteRoot,
			RootName: filepath.Base(absoluteRoot),
			Summary:  types.Summary{TokenModel: counter.Name()},
		},
		classifier: classifier.New(classifier.Limits{
			MaxFileSizeBytes:  options.MaxFileSizeBytes,
			MaxTotalSizeBytes: options.MaxTotalSizeBytes,
		}),
		counter:  counter,
		logger:   logger,
		progress: progress,
	}

	walkOptions := walker.Options{
		Root:            absoluteRoot,
		Matcher:         matcher,
		IgnoreFileNames: config.IgnoreFileNames(options.UseGitignore, options.UseIgnoreFile),
		LoadIgnoreFile:  config.LoadIgnoreFileRules,
		FollowSymlinks:  options.FollowSymlinks,
		Logger:          logger,
	}
	walkError := walker.Walk(ctx, walkOptions, builder.handle)
	result := builder.finish()

	switch {
	case walkError == nil:
		logger.Debug(logMessageCompleted,
			zap.String("root", absoluteRoot),
			zap.Int("files", result.Summary.Files),
			zap.Int("skipped", len(result.Summary.Skipped)),
		)
		return result, nil
	case errors.Is(walkError, context.Canceled) || errors.Is(walkError, context.DeadlineExceeded):
		result.Partial = true
		return result, newError(ErrCancelled, absoluteRoot, walkError)
	case errors.Is(walkError, fs.ErrPermission):
		return nil, newError(ErrPermissionDenied, absoluteRoot, walkError)
	case errors.Is(walkError, fs.ErrNotExist):
		return nil, newError(ErrNotFound, absoluteRoot, walkError)
	default:
		return nil, walkError
	}
}

// checkRoot resolves root to an absolute directory path that can be listed.
func checkRoot(root string) (string, error) {
	absoluteRoot, absError := filepath.Abs(root)
	if absError != nil {
		return "", newError(ErrNotFound, root, absError)
	}
	info, statError := os.Stat(absoluteRoot)
	switch {
	case errors.Is(statError, fs.ErrNotExist):
		return "", newError(ErrNotFound, absoluteRoot, statError)
	case errors.Is(statError, fs.ErrPermission):
		return "", newError(ErrPermissionDenied, absoluteRoot, statError)
	case statError != nil:
		return "", newError(ErrNotFound, absoluteRoot, statError)
	case !info.IsDir():
		return "", newError(ErrNotFound, absoluteRoot, errors.New(notDirectoryMessage))
	}
	directoryHandle, openError := os.Open(absoluteRoot)
	if openError != nil {
		return "", newError(ErrPermissionDenied, absoluteRoot, openError)
	}
	_, listError := directoryHandle.ReadDir(1)
	directoryHandle.Close()
	if listError != nil && errors.Is(listError, fs.ErrPermission) {
		return "", newError(ErrPermissionDenied, absoluteRoot, listError)
	}
	return absoluteRoot, nil
}

type resultBuilder struct {
	result     *types.DigestResult
	classifier *classifier.Classifier
	counter    tokenizer.Counter
	logger     *zap.Logger
	progress   ProgressFunc
	processed  int
}

func (builder *resultBuilder) handle(event walker.Event) error {
	summary := &builder.result.Summary
	switch event.Kind {
	case walker.EventDirectory:
		summary.Directories++
		builder.list(event.Entry, types.ClassificationDirectory)
	case walker.EventSymlink:
		summary.Symlinks++
		builder.list(event.Entry, types.ClassificationSymlink)
	case walker.EventFile:
		builder.handleFile(event.Entry)
	case walker.EventSkipped:
		detail := ""
		if event.Err != nil {
			detail = event.Err.Error()
		}
		builder.skip(event.Entry, event.Reason, detail)
	}

	builder.processed++
	if builder.progress != nil {
		builder.progress(Progress{Processed: builder.processed, Path: event.Entry.RelativePath})
	}
	return nil
}

func (builder *resultBuilder) handleFile(entry types.PathEntry) {
	record := builder.classifier.Classify(entry)
	builder.list(entry, record.Classification)
	if !record.Included() {
		if record.Classification == types.ClassificationBinary {
			builder.result.Summary.BinaryFiles++
		}
		builder.skip(entry, record.SkipReason, record.Detail)
		return
	}

	count, countError := tokenizer.CountText(builder.counter, record.Content)
	if countError != nil {
		builder.logger.Warn(logMessageTokenFailure, zap.String("path", entry.RelativePath), zap.Error(countError))
	}
	if count.Estimated && builder.counter.Name() != tokenizer.HeuristicCounterName {
		builder.result.Summary.EstimatedFiles++
	}
	record.Tokens = count.Tokens
	builder.result.Summary.Files++
	builder.result.Summary.TotalTokens += record.Tokens
	builder.result.Records = append(builder.result.Records, record)
}

func (builder *resultBuilder) list(entry types.PathEntry, classification types.Classification) {
	builder.result.Entries = append(builder.result.Entries, types.ListingEntry{Entry: entry, Classification: classification})
}

func (builder *resultBuilder) skip(entry types.PathEntry, reason types.SkipReason, detail string) {
	builder.logger.Debug(logMessageSkipped,
		zap.String("path", entry.RelativePath),
		zap.String("reason", string(reason)),
		zap.String("detail", detail),
	)
	builder.result.Summary.Skipped = append(builder.result.Summary.Skipped, types.SkippedEntry{
		RelativePath: entry.RelativePath,
		SizeBytes:    entry.SizeBytes,
		Reason:       reason,
		Detail:       detail,
	})
}

func (builder *resultBuilder) finish() *types.DigestResult {
	builder.result.Summary.TotalBytes = builder.classifier.IncludedBytes()
	builder.result.Tree = output.RenderTree(builder.result.RootName, builder.result.Entries)
	return builder.result
}
