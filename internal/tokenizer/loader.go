package tokenizer

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	dataDirectoryEnvironmentVariable = "TIKTOKEN_CACHE_DIR"
	missingRanksFormat               = "tokenizer data %s not found in %s"
	malformedRanksFormat             = "malformed rank line %d in %s"
)

// OfflineLoader reads BPE rank files from a local directory instead of downloading them.
// A file is found under its published base name (cl100k_base.tiktoken) or under the SHA-1
// of its URL, which is how tiktoken caches store it.
type OfflineLoader struct {
	directory string
}

// NewOfflineLoader returns a loader for directory. An empty directory falls back to TIKTOKEN_CACHE_DIR.
func NewOfflineLoader(directory string) *OfflineLoader {
	if strings.TrimSpace(directory) == "" {
		directory = os.Getenv(dataDirectoryEnvironmentVariable)
	}
	return &OfflineLoader{directory: directory}
}

// LoadTiktokenBpe implements the tiktoken-go BpeLoader interface.
func (loader *OfflineLoader) LoadTiktokenBpe(tiktokenBpeFile string) (map[string]int, error) {
	if loader.directory == "" {
		return nil, fmt.Errorf(missingRanksFormat, path.Base(tiktokenBpeFile), "an unset data directory")
	}
	urlDigest := sha1.Sum([]byte(tiktokenBpeFile))
	candidates := []string{
		filepath.Join(loader.directory, path.Base(tiktokenBpeFile)),
		filepath.Join(loader.directory, hex.EncodeToString(urlDigest[:])),
	}
	for _, candidate := range candidates {
		ranks, loadError := readRanks(candidate)
		if errors.Is(loadError, os.ErrNotExist) {
			continue
		}
		return ranks, loadError
	}
	return nil, fmt.Errorf(missingRanksFormat, path.Base(tiktokenBpeFile), loader.directory)
}

// #nosec G304
func readRanks(rankFilePath string) (map[string]int, error) {
	fileHandle, openError := os.Open(rankFilePath)
	if openError != nil {
		return nil, openError
	}
	defer fileHandle.Close()

	ranks := make(map[string]int)
	scanner := bufio.NewScanner(fileHandle)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf(malformedRanksFormat, lineNumber, rankFilePath)
		}
		token, decodeError := base64.StdEncoding.DecodeString(fields[0])
		if decodeError != nil {
			return nil, fmt.Errorf(malformedRanksFormat+": %w", lineNumber, rankFilePath, decodeError)
		}
		rank, parseError := strconv.Atoi(fields[1])
		if parseError != nil {
			return nil, fmt.Errorf(malformedRanksFormat+": %w", lineNumber, rankFilePath, parseError)
		}
		ranks[string(token)] = rank
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return ranks, nil
}
