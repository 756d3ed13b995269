package digest_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/ingest/internal/digest"
	"github.com/temirov/ingest/internal/output"
	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/types"
)

func writeFile(t *testing.T, root string, relativePath string, content []byte) {
	t.Helper()
	fullPath := filepath.Join(root, filepath.FromSlash(relativePath))
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, content, 0o644))
}

func render(t *testing.T, result *types.DigestResult) string {
	t.Helper()
	var buffer bytes.Buffer
	require.NoError(t, output.WriteDigest(&buffer, result))
	return buffer.String()
}

func recordPaths(result *types.DigestResult) []string {
	paths := make([]string, 0, len(result.Records))
	for _, record := range result.Records {
		paths = append(paths, record.Entry.RelativePath)
	}
	return paths
}

func skippedPaths(result *types.DigestResult) []string {
	paths := make([]string, 0, len(result.Summary.Skipped))
	for _, skipped := range result.Summary.Skipped {
		paths = append(paths, skipped.RelativePath)
	}
	return paths
}

func TestDigestExcludedFilesAreInvisible(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", []byte("hello"))
	writeFile(t, root, "b.bin", []byte{'x', 0x00, 'y'})
	writeFile(t, root, ".gitignore", []byte("*.bin\n"))

	result, err := digest.Digest(context.Background(), root, digest.DefaultOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(root)+"/\n└── a.txt\n", result.Tree)
	assert.Equal(t, []string{"a.txt"}, recordPaths(result))
	assert.Empty(t, result.Summary.Skipped)
	assert.Equal(t, 1, result.Summary.Files)
	assert.Equal(t, int64(5), result.Summary.TotalBytes)

	rendered := render(t, result)
	assert.NotContains(t, rendered, "b.bin")
	assert.NotContains(t, rendered, ".gitignore")
	assert.Contains(t, rendered, output.FileHeaderPrefix+"a.txt (5 bytes)\n"+output.FileDelimiter+"\nhello\n")
}

func TestDigestNeverDescendsIntoDefaultExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", []byte("package main\n"))
	buildDirectory := filepath.Join(root, "build")
	require.NoError(t, os.MkdirAll(buildDirectory, 0o755))
	for index := 0; index < 10000; index++ {
		require.NoError(t, os.WriteFile(filepath.Join(buildDirectory, fmt.Sprintf("artifact-%05d.o", index)), []byte("x"), 0o644))
	}

	var updates []digest.Progress
	result, err := digest.Digest(context.Background(), root, digest.DefaultOptions(), func(update digest.Progress) {
		updates = append(updates, update)
	})
	require.NoError(t, err)

	assert.Len(t, updates, 1, "only main.go should be processed")
	assert.Equal(t, []string{"main.go"}, recordPaths(result))
	for _, listing := range result.Entries {
		assert.False(t, strings.HasPrefix(listing.Entry.RelativePath, "build"), "unexpected entry %s", listing.Entry.RelativePath)
	}
}

func TestDigestTotalLimitSkipsEverythingAfterTheFirstOverflow(t *testing.T) {
	root := t.TempDir()
	sixtyBytes := bytes.Repeat([]byte{'x'}, 60)
	writeFile(t, root, "1.txt", sixtyBytes)
	writeFile(t, root, "2.txt", sixtyBytes)
	writeFile(t, root, "3.txt", sixtyBytes)

	options := digest.DefaultOptions()
	options.MaxTotalSizeBytes = 100
	result, err := digest.Digest(context.Background(), root, options, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"1.txt"}, recordPaths(result))
	require.Len(t, result.Summary.Skipped, 2)
	for index, skipped := range result.Summary.Skipped {
		assert.Equal(t, fmt.Sprintf("%d.txt", index+2), skipped.RelativePath)
		assert.Equal(t, types.SkipReasonTotalLimit, skipped.Reason)
	}
	assert.LessOrEqual(t, result.Summary.TotalBytes, options.MaxTotalSizeBytes)
	assert.Contains(t, result.Tree, "2.txt [skipped: total limit]")
}

func TestDigestPerFileLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.txt", bytes.Repeat([]byte{'b'}, 64))
	writeFile(t, root, "small.txt", []byte("ok"))

	options := digest.DefaultOptions()
	options.MaxFileSizeBytes = 32
	result, err := digest.Digest(context.Background(), root, options, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"small.txt"}, recordPaths(result))
	assert.Equal(t, []string{"big.txt"}, skippedPaths(result))
	assert.Equal(t, types.SkipReasonTooLarge, result.Summary.Skipped[0].Reason)
	assert.NotContains(t, render(t, result), output.FileHeaderPrefix+"big.txt")
}

func TestDigestNullByteMeansBinaryRegardlessOfExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", []byte("text\x00more"))

	result, err := digest.Digest(context.Background(), root, digest.DefaultOptions(), nil)
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.Equal(t, 1, result.Summary.BinaryFiles)
	require.Len(t, result.Summary.Skipped, 1)
	assert.Equal(t, types.SkipReasonBinary, result.Summary.Skipped[0].Reason)
	assert.Equal(t, int64(9), result.Summary.Skipped[0].SizeBytes)
	assert.Zero(t, result.Summary.TotalTokens)
	assert.Contains(t, result.Tree, "notes.txt [binary]")
}

func TestDigestPruningBeatsNestedNegation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", []byte("cache/\n"))
	writeFile(t, root, "cache/.gitignore", []byte("!*\n"))
	writeFile(t, root, "cache/kept.txt", []byte("should not appear"))
	writeFile(t, root, "src/app.go", []byte("package app\n"))

	result, err := digest.Digest(context.Background(), root, digest.DefaultOptions(), nil)
	require.NoError(t, err)

	for _, listing := range result.Entries {
		assert.NotContains(t, listing.Entry.RelativePath, "cache")
	}
	assert.Equal(t, []string{"src/app.go"}, recordPaths(result))
}

func TestDigestPathsAreUniqueDescendants(t *testing.T) {
	root := t.TempDir()
	for _, relativePath := range []string{"a.txt", "b/c.txt", "b/d/e.txt", "b/d/f.md", "g/h/i/j.txt", "k.go"} {
		writeFile(t, root, relativePath, []byte(relativePath))
	}
	if err := os.Symlink(filepath.Join(root, "b"), filepath.Join(root, "link-to-b")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	options := digest.DefaultOptions()
	options.FollowSymlinks = true
	result, err := digest.Digest(context.Background(), root, options, nil)
	require.NoError(t, err)

	seen := map[string]struct{}{}
	for _, record := range result.Records {
		relativePath := record.Entry.RelativePath
		_, duplicate := seen[relativePath]
		assert.False(t, duplicate, "duplicate path %s", relativePath)
		seen[relativePath] = struct{}{}
		assert.False(t, filepath.IsAbs(relativePath))
		assert.False(t, strings.HasPrefix(relativePath, ".."), "escaping path %s", relativePath)
		assert.True(t, strings.HasPrefix(record.Entry.AbsolutePath, result.Root), "record %s outside root", record.Entry.AbsolutePath)
	}
	assert.Contains(t, seen, "link-to-b/d/e.txt")
}

func TestDigestIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", []byte("# title\n"))
	writeFile(t, root, "src/main.go", []byte("package main\n\nfunc main() {}\n"))
	writeFile(t, root, "assets/logo.png", []byte{0x89, 'P', 'N', 'G', 0x00})

	first, err := digest.Digest(context.Background(), root, digest.DefaultOptions(), nil)
	require.NoError(t, err)
	second, err := digest.Digest(context.Background(), root, digest.DefaultOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, render(t, first), render(t, second))
}

func TestDigestExtraPatternsOverrideIgnoreFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", []byte("!*.md\n"))
	writeFile(t, root, "docs/guide.md", []byte("guide"))
	writeFile(t, root, "main.go", []byte("package main"))

	options := digest.DefaultOptions()
	options.ExtraIgnorePatterns = []string{"*.md"}
	result, err := digest.Digest(context.Background(), root, options, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, recordPaths(result))
}

func TestDigestRejectsInvalidExtraPattern(t *testing.T) {
	options := digest.DefaultOptions()
	options.ExtraIgnorePatterns = []string{"[broken"}
	_, err := digest.Digest(context.Background(), t.TempDir(), options, nil)
	assert.ErrorIs(t, err, digest.ErrInvalidOptions)
}

func TestDigestIgnoreFilesCanBeDisabled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", []byte("*.log\n"))
	writeFile(t, root, "app.log", []byte("log line"))

	options := digest.DefaultOptions()
	options.UseGitignore = false
	result, err := digest.Digest(context.Background(), root, options, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.log"}, recordPaths(result))
}

func TestDigestSymlinksAreLeavesByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "target.txt", []byte("t"))
	if err := os.Symlink("target.txt", filepath.Join(root, "alias.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	result, err := digest.Digest(context.Background(), root, digest.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Symlinks)
	assert.Equal(t, []string{"target.txt"}, recordPaths(result))
	assert.Contains(t, result.Tree, "alias.txt -> target.txt")
}

func TestDigestRootErrors(t *testing.T) {
	directory := t.TempDir()
	missing := filepath.Join(directory, "missing")
	_, err := digest.Digest(context.Background(), missing, digest.DefaultOptions(), nil)
	assert.ErrorIs(t, err, digest.ErrNotFound)

	filePath := filepath.Join(directory, "file.txt")
	writeFile(t, directory, "file.txt", []byte("x"))
	_, err = digest.Digest(context.Background(), filePath, digest.DefaultOptions(), nil)
	assert.ErrorIs(t, err, digest.ErrNotFound)

	var digestError *digest.Error
	require.True(t, errors.As(err, &digestError))
	assert.Equal(t, filePath, digestError.Path)
}

func TestDigestUnreadableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.Mkdir(root, 0o000))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	_, err := digest.Digest(context.Background(), root, digest.DefaultOptions(), nil)
	assert.ErrorIs(t, err, digest.ErrPermissionDenied)
}

func TestDigestUnreadableEntriesAreRecorded(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	writeFile(t, root, "secret.txt", []byte("s"))
	writeFile(t, root, "open.txt", []byte("o"))
	secretPath := filepath.Join(root, "secret.txt")
	require.NoError(t, os.Chmod(secretPath, 0o000))
	t.Cleanup(func() { _ = os.Chmod(secretPath, 0o644) })

	result, err := digest.Digest(context.Background(), root, digest.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"open.txt"}, recordPaths(result))
	require.Len(t, result.Summary.Skipped, 1)
	assert.Equal(t, types.SkipReasonReadError, result.Summary.Skipped[0].Reason)
}

func TestDigestCancellationReturnsPartialResult(t *testing.T) {
	root := t.TempDir()
	for index := 0; index < 5; index++ {
		writeFile(t, root, fmt.Sprintf("file-%d.txt", index), []byte("x"))
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := digest.Digest(ctx, root, digest.DefaultOptions(), func(update digest.Progress) {
		if update.Processed == 2 {
			cancel()
		}
	})
	require.ErrorIs(t, err, digest.ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.True(t, result.Partial)
	assert.Len(t, result.Records, 2)
	assert.Contains(t, render(t, result), "Status: partial")
}

func TestDigestProgressIsMonotonic(t *testing.T) {
	root := t.TempDir()
	for _, relativePath := range []string{"a.txt", "b/c.txt", "b/d.txt", "e.txt"} {
		writeFile(t, root, relativePath, []byte("x"))
	}
	var updates []digest.Progress
	_, err := digest.Digest(context.Background(), root, digest.DefaultOptions(), func(update digest.Progress) {
		updates = append(updates, update)
	})
	require.NoError(t, err)
	require.Len(t, updates, 5)
	for index, update := range updates {
		assert.Equal(t, index+1, update.Processed)
	}
	assert.Equal(t, "b", updates[1].Path)
}

func TestChannelProgressNeverBlocks(t *testing.T) {
	root := t.TempDir()
	for index := 0; index < 20; index++ {
		writeFile(t, root, fmt.Sprintf("f%02d.txt", index), []byte("x"))
	}
	unread := make(chan digest.Progress)
	result, err := digest.Digest(context.Background(), root, digest.DefaultOptions(), digest.ChannelProgress(unread))
	require.NoError(t, err)
	assert.Equal(t, 20, result.Summary.Files)
}

func TestConcurrentDigestsDoNotInterfere(t *testing.T) {
	roots := []string{t.TempDir(), t.TempDir()}
	writeFile(t, roots[0], "one.txt", bytes.Repeat([]byte{'1'}, 80))
	writeFile(t, roots[1], "two.txt", bytes.Repeat([]byte{'2'}, 80))

	options := digest.DefaultOptions()
	options.MaxTotalSizeBytes = 100
	results := make([]*types.DigestResult, len(roots))
	errs := make([]error, len(roots))
	var waitGroup sync.WaitGroup
	for index := range roots {
		waitGroup.Add(1)
		go func(index int) {
			defer waitGroup.Done()
			results[index], errs[index] = digest.Digest(context.Background(), roots[index], options, nil)
		}(index)
	}
	waitGroup.Wait()

	for index := range roots {
		require.NoError(t, errs[index])
		assert.Equal(t, 1, results[index].Summary.Files)
		assert.Empty(t, results[index].Summary.Skipped)
	}
}

type flakyCounter struct {
	failOn string
}

func (flakyCounter) Name() string { return "exact" }

func (counter flakyCounter) CountString(input string) (int, error) {
	if input == counter.failOn {
		return 0, errors.New("tokenizer failure")
	}
	return 100, nil
}

func TestDigestCountsEstimatedFallbacks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", []byte("abcdefgh"))
	writeFile(t, root, "b.txt", []byte("exact text"))

	options := digest.DefaultOptions()
	options.TokenCounter = flakyCounter{failOn: "abcdefgh"}
	result, err := digest.Digest(context.Background(), root, options, nil)
	require.NoError(t, err)

	assert.Equal(t, "exact", result.Summary.TokenModel)
	assert.Equal(t, 1, result.Summary.EstimatedFiles)
	assert.Equal(t, tokenizer.Estimate("abcdefgh")+100, result.Summary.TotalTokens)
	assert.Contains(t, render(t, result), fmt.Sprintf("Estimated tokens: %d (exact; 1 estimated by heuristic)\n", result.Summary.TotalTokens))
}

func TestDigestHeuristicCountsAreNotFallbacks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", []byte("abcdefgh"))

	result, err := digest.Digest(context.Background(), root, digest.DefaultOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, tokenizer.HeuristicCounterName, result.Summary.TokenModel)
	assert.Zero(t, result.Summary.EstimatedFiles)
	assert.Contains(t, render(t, result), "Estimated tokens: 2 (estimate)\n")
}
