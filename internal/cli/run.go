package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/digest"
	"github.com/temirov/ingest/internal/output"
	"github.com/temirov/ingest/internal/services/clipboard"
	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	progressLineFormat       = "\r\x1b[2KScanned %d entries  %s"
	progressClearLine        = "\r\x1b[2K"
	writtenToFileFormat      = "Digest written to %s"
	copiedToClipboardMessage = "Digest copied to clipboard"
	partialDigestWarning     = "Digest is partial: the walk was cancelled before it finished"
	clipboardFallbackWarning = "Clipboard unavailable; writing the digest to stdout instead"
	absolutePathErrorFormat  = "resolve absolute path for %s: %w"
	createOutputErrorFormat  = "create output file %s: %w"
	writeOutputErrorFormat   = "write digest to %s: %w"
	logMessageCounter        = "token counter selected"
	logMessageOutputExcluded = "output file lies inside the root; excluding it"
	globMetaCharacters       = `*?[]{}\`
)

// runDigest loads configuration, produces the digest and delivers it to every destination.
func runDigest(command *cobra.Command, env environment, rootPath string, flags digestFlags) error {
	workingDirectory, err := os.Getwd()
	if err != nil {
		return fmt.Errorf(workingDirectoryErrorFormat, err)
	}
	loaded, err := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: flags.configPath,
		HomeDirectory:    env.homeDirectory,
	})
	if err != nil {
		return err
	}
	settings := flags.overlay(loaded.Digest)
	if !output.IsSupportedFormat(settings.Format) {
		return fmt.Errorf(invalidFormatMessage, settings.Format)
	}

	logger, err := env.newLogger(flags.verbose)
	if err != nil {
		return fmt.Errorf(loggerInitializationErrFormat, err)
	}
	defer func() { _ = logger.Sync() }()

	counter, counterName, err := tokenizer.NewCounter(tokenizer.Config{
		Model:         settings.Tokens.Model,
		DataDirectory: flags.tokenizerData,
	})
	if err != nil {
		return err
	}
	logger.Debug(logMessageCounter, zap.String("counter", counterName))

	absoluteRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return fmt.Errorf(absolutePathErrorFormat, rootPath, err)
	}
	destination, err := resolveDestination(settings.Output, workingDirectory)
	if err != nil {
		return err
	}

	options := buildOptions(settings, counter, logger)
	if pattern, inside := outputExclusionPattern(destination, absoluteRoot); inside {
		logger.Debug(logMessageOutputExcluded, zap.String("path", destination))
		options.ExtraIgnorePatterns = append(options.ExtraIgnorePatterns, pattern)
	}

	stderr := command.ErrOrStderr()
	interactive := !flags.quiet && env.interactive(stderr)
	result, digestErr := produceDigest(command.Context(), absoluteRoot, options, stderr, interactive)
	if result == nil {
		return digestErr
	}

	copyToClipboard := settings.Clipboard != nil && *settings.Clipboard
	deliveredTo, err := deliver(command.OutOrStdout(), stderr, env.copier, destination, settings.Format, copyToClipboard, result)
	if err != nil {
		return err
	}

	if !flags.quiet {
		reportCompletion(stderr, result, deliveredTo)
	}
	return digestErr
}

// buildOptions applies configured values over digest.DefaultOptions.
func buildOptions(settings config.DigestConfiguration, counter tokenizer.Counter, logger *zap.Logger) digest.Options {
	options := digest.DefaultOptions()
	if settings.MaxFileSize != nil {
		options.MaxFileSizeBytes = *settings.MaxFileSize
	}
	if settings.MaxTotalSize != nil {
		options.MaxTotalSizeBytes = *settings.MaxTotalSize
	}
	options.ExtraIgnorePatterns = append([]string{}, settings.Exclude...)
	options.FollowSymlinks = boolOrDefault(settings.FollowSymlinks, options.FollowSymlinks)
	options.UseGitignore = boolOrDefault(settings.UseGitignore, options.UseGitignore)
	options.UseIgnoreFile = boolOrDefault(settings.UseIgnoreFile, options.UseIgnoreFile)
	options.IncludeGit = boolOrDefault(settings.IncludeGit, options.IncludeGit)
	options.TokenCounter = counter
	options.Logger = logger
	return options
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

// resolveDestination returns the absolute output file path, or "" for stdout.
func resolveDestination(configured, workingDirectory string) (string, error) {
	trimmed := strings.TrimSpace(configured)
	if trimmed == "" || trimmed == stdoutOutput {
		return "", nil
	}
	if strings.HasPrefix(trimmed, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			trimmed = filepath.Join(home, trimmed[2:])
		}
	}
	if !filepath.IsAbs(trimmed) {
		trimmed = filepath.Join(workingDirectory, trimmed)
	}
	return filepath.Clean(trimmed), nil
}

// outputExclusionPattern returns an anchored pattern hiding destination when it lies inside
// root, so a repeated run never digests its own previous output.
func outputExclusionPattern(destination, root string) (string, bool) {
	if destination == "" || destination == root || !utils.IsWithinRoot(destination, root) {
		return "", false
	}
	relativePath := utils.RelativePathOrSelf(destination, root)
	var escaped strings.Builder
	escaped.WriteByte('/')
	for _, character := range relativePath {
		if strings.ContainsRune(globMetaCharacters, character) {
			escaped.WriteByte('\\')
		}
		escaped.WriteRune(character)
	}
	return escaped.String(), true
}

// produceDigest runs the digest and, when interactive, renders a live progress line from a
// second goroutine fed through a channel.
func produceDigest(ctx context.Context, root string, options digest.Options, stderr io.Writer, interactive bool) (*types.DigestResult, error) {
	if !interactive {
		return digest.Digest(ctx, root, options, nil)
	}
	var result *types.DigestResult
	dispatchErr := dispatchProgress(ctx,
		func(produceCtx context.Context, updates chan<- digest.Progress) error {
			var digestErr error
			result, digestErr = digest.Digest(produceCtx, root, options, digest.ChannelProgress(updates))
			return digestErr
		},
		func(update digest.Progress) {
			fmt.Fprintf(stderr, progressLineFormat, update.Processed, update.Path)
		},
	)
	fmt.Fprint(stderr, progressClearLine)
	return result, dispatchErr
}

// dispatchProgress runs produce and consume concurrently. The producer owns the channel and
// closes it when done; the consumer drains it until then.
func dispatchProgress(
	ctx context.Context,
	produce func(context.Context, chan<- digest.Progress) error,
	consume func(digest.Progress),
) error {
	group, groupCtx := errgroup.WithContext(ctx)
	updates := make(chan digest.Progress)

	group.Go(func() error {
		defer close(updates)
		return produce(groupCtx, updates)
	})

	group.Go(func() error {
		for update := range updates {
			consume(update)
		}
		return nil
	})

	return group.Wait()
}

// deliver writes the rendered digest to the file or stdout and optionally to the clipboard.
// It returns a description of where the digest went.
func deliver(stdout, stderr io.Writer, copier clipboard.Copier, destination, format string, copyToClipboard bool, result *types.DigestResult) ([]string, error) {
	if !copyToClipboard {
		if err := writeDestination(stdout, destination, func(writer io.Writer) error {
			return output.Write(writer, format, result)
		}); err != nil {
			return nil, err
		}
		return describeFile(destination), nil
	}

	var rendered bytes.Buffer
	if err := output.Write(&rendered, format, result); err != nil {
		return nil, err
	}
	var delivered []string
	copyErr := copier.Copy(rendered.String())
	switch {
	case copyErr == nil:
		delivered = append(delivered, copiedToClipboardMessage)
	case errors.Is(copyErr, clipboard.ErrUnavailable) && destination == "":
		color.New(color.FgYellow).Fprintln(stderr, clipboardFallbackWarning)
		_, err := stdout.Write(rendered.Bytes())
		return nil, err
	default:
		return nil, copyErr
	}
	if destination != "" {
		if err := writeDestination(stdout, destination, func(writer io.Writer) error {
			_, err := writer.Write(rendered.Bytes())
			return err
		}); err != nil {
			return nil, err
		}
		delivered = append(delivered, describeFile(destination)...)
	}
	return delivered, nil
}

func writeDestination(stdout io.Writer, destination string, write func(io.Writer) error) error {
	if destination == "" {
		return write(stdout)
	}
	file, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf(createOutputErrorFormat, destination, err)
	}
	writeErr := write(file)
	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf(writeOutputErrorFormat, destination, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf(writeOutputErrorFormat, destination, closeErr)
	}
	return nil
}

func describeFile(destination string) []string {
	if destination == "" {
		return nil
	}
	return []string{fmt.Sprintf(writtenToFileFormat, destination)}
}

func reportCompletion(stderr io.Writer, result *types.DigestResult, deliveredTo []string) {
	if result.Partial {
		color.New(color.FgYellow).Fprintln(stderr, partialDigestWarning)
	}
	for _, line := range deliveredTo {
		fmt.Fprintln(stderr, line)
	}
	color.New(color.FgGreen, color.Bold).Fprintln(stderr, output.FormatSummaryLine(result.Summary))
}
