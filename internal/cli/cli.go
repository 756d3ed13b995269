// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/services/clipboard"
	"github.com/temirov/ingest/internal/utils"
)

const (
	outputFlagName         = "output"
	outputFlagShorthand    = "o"
	formatFlagName         = "format"
	exclusionFlagName      = "exclude"
	exclusionFlagShorthand = "e"
	maxFileSizeFlagName    = "max-file-size"
	maxTotalSizeFlagName   = "max-total-size"
	followSymlinksFlagName = "follow-symlinks"
	noGitignoreFlagName    = "no-gitignore"
	noIgnoreFlagName       = "no-ignore"
	includeGitFlagName     = "git"
	modelFlagName          = "model"
	tokenizerDataFlagName  = "tokenizer-data"
	clipboardFlagName      = "clipboard"
	configFlagName         = "config"
	quietFlagName          = "quiet"
	quietFlagShorthand     = "q"
	verboseFlagName        = "verbose"
	versionFlagName        = "version"
	globalFlagName         = "global"
	forceFlagName          = "force"

	versionTemplate = "ingest version: %s\n"
	defaultPath     = "."
	stdoutOutput    = "-"

	rootUse              = "ingest [path]"
	rootShortDescription = "digest a directory into one LLM-friendly text file"
	rootLongDescription  = `ingest walks a directory, honours .gitignore and .ignore files, and writes a single
text digest: a directory tree, the contents of every text file, and a summary with the
total size and an estimated token count.

Binary files and files above the size limits are listed in the tree and the summary but
their contents are left out. Settings are read from ~/.ingest/config.yaml and ./.ingest.yaml;
flags override both.`
	rootUsageExample = `  # Digest the current directory to stdout
  ingest

  # Write a digest of ./service to a file, skipping fixtures
  ingest ./service -o service.txt -e 'testdata/**'

  # Copy the digest to the clipboard and count tokens exactly
  ingest --clipboard --model gpt-4o --tokenizer-data ~/.cache/tiktoken`

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write a commented default configuration to ./.ingest.yaml, or to
~/.ingest/config.yaml with --global. Existing files are kept unless --force is given.`

	outputFlagDescription         = "write the digest to this file (- or empty for stdout)"
	formatFlagDescription         = "digest format: text or json"
	exclusionFlagDescription      = "exclude paths matching this gitignore-style pattern (repeatable)"
	maxFileSizeFlagDescription    = "skip files larger than this size, e.g. 512K or 10MiB (0 disables)"
	maxTotalSizeFlagDescription   = "stop including content after this cumulative size (0 disables)"
	followSymlinksFlagDescription = "follow symbolic links that stay inside the root"
	noGitignoreFlagDescription    = "do not use .gitignore files"
	noIgnoreFlagDescription       = "do not use .ignore files"
	includeGitFlagDescription     = "include the .git directory"
	modelFlagDescription          = "count tokens exactly with this model's tokenizer instead of estimating"
	tokenizerDataFlagDescription  = "directory with *.tiktoken rank files for --model"
	clipboardFlagDescription      = "copy the digest to the system clipboard"
	configFlagDescription         = "path to a configuration file used instead of ./.ingest.yaml"
	quietFlagDescription          = "suppress progress and the completion message"
	verboseFlagDescription        = "log every skipped entry"
	versionFlagDescription        = "display application version"
	globalFlagDescription         = "write the global configuration instead of the local one"
	forceFlagDescription          = "overwrite an existing configuration file"

	initCompletedFormat           = "Configuration written to %s\n"
	workingDirectoryErrorFormat   = "unable to determine working directory: %w"
	loggerInitializationErrFormat = "initialize logger: %w"
	invalidFormatMessage          = "invalid format value '%s'"
)

// environment holds the process-level collaborators a command needs.
type environment struct {
	copier        clipboard.Copier
	homeDirectory string
	newLogger     func(verbose bool) (*zap.Logger, error)
	interactive   func(io.Writer) bool
}

func defaultEnvironment() environment {
	return environment{
		copier:    clipboard.NewService(),
		newLogger: utils.NewApplicationLogger,
		interactive: func(writer io.Writer) bool {
			file, ok := writer.(*os.File)
			if !ok {
				return false
			}
			return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
		},
	}
}

// Execute runs the ingest application. An interrupt cancels the digest in progress.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCommand := createRootCommand(defaultEnvironment())
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// digestFlags mirrors the configuration file; nil pointers and empty strings mean the flag
// was not given.
type digestFlags struct {
	output            string
	outputSet         bool
	format            string
	exclusionPatterns []string
	maxFileSize       *int64
	maxTotalSize      *int64
	followSymlinks    *bool
	useGitignore      *bool
	useIgnoreFile     *bool
	includeGit        *bool
	model             string
	tokenizerData     string
	clipboard         *bool
	configPath        string
	quiet             bool
	verbose           bool
}

// overlay converts the flags into a configuration layer placed above the loaded files.
func (flags digestFlags) overlay(loaded config.DigestConfiguration) config.DigestConfiguration {
	layer := config.DigestConfiguration{
		MaxFileSize:    flags.maxFileSize,
		MaxTotalSize:   flags.maxTotalSize,
		FollowSymlinks: flags.followSymlinks,
		UseGitignore:   flags.useGitignore,
		UseIgnoreFile:  flags.useIgnoreFile,
		IncludeGit:     flags.includeGit,
		Tokens:         config.TokenConfiguration{Model: flags.model},
		Format:         flags.format,
		Clipboard:      flags.clipboard,
	}
	if len(flags.exclusionPatterns) > 0 {
		layer.Exclude = append(append([]string{}, loaded.Exclude...), flags.exclusionPatterns...)
	}
	merged := config.ApplicationConfiguration{Digest: loaded}.Merge(config.ApplicationConfiguration{Digest: layer})
	if flags.outputSet {
		merged.Digest.Output = flags.output
	}
	return merged.Digest
}

// createRootCommand builds the root Cobra command.
func createRootCommand(env environment) *cobra.Command {
	var flags digestFlags
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				_, err := fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return err
			}
			rootPath := defaultPath
			if len(arguments) > 0 {
				rootPath = arguments[0]
			}
			flags.outputSet = command.Flags().Changed(outputFlagName)
			return runDigest(command, env, rootPath, flags)
		},
	}

	flagSet := rootCommand.Flags()
	flagSet.StringVarP(&flags.output, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	flagSet.StringVar(&flags.format, formatFlagName, "", formatFlagDescription)
	flagSet.StringArrayVarP(&flags.exclusionPatterns, exclusionFlagName, exclusionFlagShorthand, nil, exclusionFlagDescription)
	registerSizeFlag(flagSet, &flags.maxFileSize, maxFileSizeFlagName, maxFileSizeFlagDescription)
	registerSizeFlag(flagSet, &flags.maxTotalSize, maxTotalSizeFlagName, maxTotalSizeFlagDescription)
	registerBooleanFlag(flagSet, &flags.followSymlinks, followSymlinksFlagName, false, followSymlinksFlagDescription)
	registerBooleanFlag(flagSet, &flags.useGitignore, noGitignoreFlagName, true, noGitignoreFlagDescription)
	registerBooleanFlag(flagSet, &flags.useIgnoreFile, noIgnoreFlagName, true, noIgnoreFlagDescription)
	registerBooleanFlag(flagSet, &flags.includeGit, includeGitFlagName, false, includeGitFlagDescription)
	registerBooleanFlag(flagSet, &flags.clipboard, clipboardFlagName, false, clipboardFlagDescription)
	flagSet.StringVar(&flags.model, modelFlagName, "", modelFlagDescription)
	flagSet.StringVar(&flags.tokenizerData, tokenizerDataFlagName, "", tokenizerDataFlagDescription)
	flagSet.StringVar(&flags.configPath, configFlagName, "", configFlagDescription)
	flagSet.BoolVarP(&flags.quiet, quietFlagName, quietFlagShorthand, false, quietFlagDescription)
	flagSet.BoolVar(&flags.verbose, verboseFlagName, false, verboseFlagDescription)
	flagSet.BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)

	rootCommand.AddCommand(createInitCommand(env))
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand(env environment) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:          initUse,
		Short:        initShortDescription,
		Long:         initLongDescription,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			workingDirectory, err := os.Getwd()
			if err != nil {
				return fmt.Errorf(workingDirectoryErrorFormat, err)
			}
			destination, err := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: workingDirectory,
				HomeDirectory:    env.homeDirectory,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(command.OutOrStdout(), initCompletedFormat, destination)
			return err
		},
	}
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
