// Package walker performs the depth-first, name-sorted traversal that feeds a digest.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/ingest/internal/ignore"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

// EventKind identifies the kind of a traversal event.
type EventKind int

const (
	// EventDirectory is emitted for a directory before any of its children.
	EventDirectory EventKind = iota
	// EventFile is emitted for a regular file.
	EventFile
	// EventSymlink is emitted for a symbolic link reported as a leaf.
	EventSymlink
	// EventSkipped is emitted for an entry that could not be inspected.
	EventSkipped
)

const (
	nilHandlerMessage      = "walker handler is nil"
	readRootFormat         = "reading root directory %s: %w"
	notRegularFileDetail   = "not a regular file"
	logMessageSkippedEntry = "skipping entry"
)

// Event is one step of a traversal.
type Event struct {
	Kind  EventKind
	Entry types.PathEntry
	// Reason and Err are set for EventSkipped.
	Reason types.SkipReason
	Err    error
}

// Options configures a traversal.
type Options struct {
	// Root is the directory to traverse. It is not emitted itself.
	Root string
	// Matcher holds the rules in force at the root. Nil includes everything.
	Matcher *ignore.Matcher
	// IgnoreFileNames lists ignore files consulted in every directory, in layering order.
	IgnoreFileNames []string
	// LoadIgnoreFile compiles one ignore file. Nil disables nested ignore files.
	LoadIgnoreFile func(absolutePath string) ([]ignore.Rule, error)
	FollowSymlinks bool
	Logger         *zap.Logger
}

type walkContext struct {
	options  Options
	handler  func(Event) error
	logger   *zap.Logger
	realRoot string
	// active holds the resolved paths of directories currently being descended.
	active map[string]struct{}
}

// Walk traverses options.Root depth-first, visiting siblings in name order and emitting
// directories before their children. Excluded directories are never read. The context is
// checked before every entry; a cancelled walk returns the context error.
func Walk(ctx context.Context, options Options, handler func(Event) error) error {
	if handler == nil {
		return errors.New(nilHandlerMessage)
	}
	absoluteRoot, absError := filepath.Abs(options.Root)
	if absError != nil {
		return absError
	}
	realRoot, resolveError := filepath.EvalSymlinks(absoluteRoot)
	if resolveError != nil {
		return resolveError
	}
	options.Root = absoluteRoot

	walk := &walkContext{
		options:  options,
		handler:  handler,
		logger:   options.Logger,
		realRoot: realRoot,
		active:   map[string]struct{}{realRoot: {}},
	}
	if walk.logger == nil {
		walk.logger = zap.NewNop()
	}

	entries, readError := os.ReadDir(absoluteRoot)
	if readError != nil {
		return fmt.Errorf(readRootFormat, absoluteRoot, readError)
	}
	return walk.walkEntries(ctx, absoluteRoot, "", 0, options.Matcher, entries)
}

func (walk *walkContext) walkDirectory(ctx context.Context, directory types.PathEntry, matcher *ignore.Matcher) error {
	entries, readError := os.ReadDir(directory.AbsolutePath)
	if readError != nil {
		return walk.skip(directory, types.SkipReasonReadError, readError)
	}
	return walk.walkEntries(ctx, directory.AbsolutePath, directory.RelativePath, directory.Depth, matcher, entries)
}

func (walk *walkContext) walkEntries(ctx context.Context, absoluteDirectory string, relativeDirectory string, depth int, matcher *ignore.Matcher, entries []fs.DirEntry) error {
	matcher, loadError := walk.extendMatcher(absoluteDirectory, relativeDirectory, depth, matcher, entries)
	if loadError != nil {
		return loadError
	}

	for _, entry := range entries {
		if ctxError := ctx.Err(); ctxError != nil {
			return ctxError
		}
		name := entry.Name()
		if !entry.IsDir() && utils.IsServiceFile(name) {
			continue
		}
		child := types.PathEntry{
			AbsolutePath: filepath.Join(absoluteDirectory, name),
			RelativePath: joinRelative(relativeDirectory, name),
			Name:         name,
			Depth:        depth + 1,
		}

		var visitError error
		switch {
		case entry.Type()&fs.ModeSymlink != 0:
			visitError = walk.visitSymlink(ctx, child, matcher)
		case entry.IsDir():
			if matcher.Excluded(child.RelativePath, true) {
				continue
			}
			child.Kind = types.EntryKindDirectory
			visitError = walk.visitDirectory(ctx, child, matcher, child.AbsolutePath)
		default:
			if matcher.Excluded(child.RelativePath, false) {
				continue
			}
			child.Kind = types.EntryKindFile
			visitError = walk.visitFile(child, entry)
		}
		if visitError != nil {
			return visitError
		}
	}
	return nil
}

// extendMatcher layers the ignore files present in a directory onto matcher, scoped to that directory.
func (walk *walkContext) extendMatcher(absoluteDirectory string, relativeDirectory string, depth int, matcher *ignore.Matcher, entries []fs.DirEntry) (*ignore.Matcher, error) {
	if walk.options.LoadIgnoreFile == nil || len(walk.options.IgnoreFileNames) == 0 {
		return matcher, nil
	}
	present := make(map[string]struct{}, len(walk.options.IgnoreFileNames))
	for _, entry := range entries {
		if !entry.IsDir() && utils.IsServiceFile(entry.Name()) {
			present[entry.Name()] = struct{}{}
		}
	}
	for _, fileName := range walk.options.IgnoreFileNames {
		if _, found := present[fileName]; !found {
			continue
		}
		ignoreFile := types.PathEntry{
			AbsolutePath: filepath.Join(absoluteDirectory, fileName),
			RelativePath: joinRelative(relativeDirectory, fileName),
			Name:         fileName,
			Kind:         types.EntryKindFile,
			Depth:        depth + 1,
		}
		rules, loadError := walk.options.LoadIgnoreFile(ignoreFile.AbsolutePath)
		if loadError != nil {
			if skipError := walk.skip(ignoreFile, types.SkipReasonReadError, loadError); skipError != nil {
				return nil, skipError
			}
			continue
		}
		matcher = matcher.WithLayer(relativeDirectory, rules)
	}
	return matcher, nil
}

func (walk *walkContext) visitDirectory(ctx context.Context, directory types.PathEntry, matcher *ignore.Matcher, realPath string) error {
	if walk.options.FollowSymlinks {
		if resolved, resolveError := filepath.EvalSymlinks(realPath); resolveError == nil {
			realPath = resolved
		}
		walk.active[realPath] = struct{}{}
		defer delete(walk.active, realPath)
	}
	if handlerError := walk.handler(Event{Kind: EventDirectory, Entry: directory}); handlerError != nil {
		return handlerError
	}
	return walk.walkDirectory(ctx, directory, matcher)
}

func (walk *walkContext) visitFile(file types.PathEntry, entry fs.DirEntry) error {
	info, infoError := entry.Info()
	if infoError != nil {
		return walk.skip(file, types.SkipReasonReadError, infoError)
	}
	if !info.Mode().IsRegular() {
		return walk.skip(file, types.SkipReasonReadError, errors.New(notRegularFileDetail))
	}
	file.SizeBytes = info.Size()
	return walk.handler(Event{Kind: EventFile, Entry: file})
}

// visitSymlink reports a link as a leaf unless following is enabled and the target is an
// in-root file or a directory not already being descended.
func (walk *walkContext) visitSymlink(ctx context.Context, link types.PathEntry, matcher *ignore.Matcher) error {
	link.Kind = types.EntryKindSymlink
	link.LinkTarget, _ = os.Readlink(link.AbsolutePath)

	resolved, resolveError := filepath.EvalSymlinks(link.AbsolutePath)
	if resolveError != nil {
		if matcher.Excluded(link.RelativePath, false) {
			return nil
		}
		return walk.skip(link, types.SkipReasonBrokenSymlink, resolveError)
	}
	targetInfo, statError := os.Stat(resolved)
	if statError != nil {
		if matcher.Excluded(link.RelativePath, false) {
			return nil
		}
		return walk.skip(link, types.SkipReasonBrokenSymlink, statError)
	}

	followable := walk.options.FollowSymlinks && utils.IsWithinRoot(resolved, walk.realRoot)
	if followable && targetInfo.IsDir() {
		if _, cycle := walk.active[resolved]; !cycle {
			if matcher.Excluded(link.RelativePath, true) {
				return nil
			}
			link.Kind = types.EntryKindDirectory
			return walk.visitDirectory(ctx, link, matcher, resolved)
		}
	}
	if matcher.Excluded(link.RelativePath, false) {
		return nil
	}
	if followable && targetInfo.Mode().IsRegular() {
		link.Kind = types.EntryKindFile
		link.SizeBytes = targetInfo.Size()
		return walk.handler(Event{Kind: EventFile, Entry: link})
	}
	return walk.handler(Event{Kind: EventSymlink, Entry: link})
}

func (walk *walkContext) skip(entry types.PathEntry, reason types.SkipReason, cause error) error {
	walk.logger.Debug(logMessageSkippedEntry,
		zap.String("path", entry.RelativePath),
		zap.String("reason", string(reason)),
		zap.Error(cause),
	)
	return walk.handler(Event{Kind: EventSkipped, Entry: entry, Reason: reason, Err: cause})
}

func joinRelative(relativeDirectory string, name string) string {
	if relativeDirectory == "" {
		return name
	}
	return path.Join(relativeDirectory, name)
}
