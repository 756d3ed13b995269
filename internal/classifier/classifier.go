// Package classifier decides whether a walked file contributes text to a digest.
package classifier

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	tooLargeDetailFormat = "exceeds %s limit"
	invalidUTF8Detail    = "invalid UTF-8"
)

// Limits holds the per-file and cumulative byte ceilings. Values of zero or less are unlimited.
type Limits struct {
	MaxFileSizeBytes  int64
	MaxTotalSizeBytes int64
}

// Classifier inspects files in walk order against one shared budget.
type Classifier struct {
	limits Limits
	budget *Budget
}

// New returns a classifier with a fresh cumulative budget.
func New(limits Limits) *Classifier {
	return &Classifier{limits: limits, budget: NewBudget(limits.MaxTotalSizeBytes)}
}

// IncludedBytes returns the bytes of text content accepted so far.
func (classifier *Classifier) IncludedBytes() int64 {
	return classifier.budget.Used()
}

// Classify inspects one file entry. Failures are reported in the record, never returned.
func (classifier *Classifier) Classify(entry types.PathEntry) types.FileRecord {
	record := types.FileRecord{Entry: entry}
	if classifier.budget.Exhausted() {
		return totalLimitRecord(record)
	}
	if classifier.exceedsFileLimit(entry.SizeBytes) {
		return classifier.tooLargeRecord(record)
	}

	data, binary, readError := classifier.read(entry.AbsolutePath)
	switch {
	case readError != nil:
		record.Classification = types.ClassificationSkippedUnreadable
		record.SkipReason = types.SkipReasonReadError
		record.Detail = readError.Error()
		return record
	case binary:
		record.Classification = types.ClassificationBinary
		record.SkipReason = types.SkipReasonBinary
		record.Detail = utils.DetectMimeType(data)
		return record
	case classifier.exceedsFileLimit(int64(len(data))):
		return classifier.tooLargeRecord(record)
	}

	content, decodeError := decodeText(data)
	if decodeError != nil {
		record.Classification = types.ClassificationBinary
		record.SkipReason = types.SkipReasonDecodeError
		record.Detail = decodeError.Error()
		return record
	}
	if !classifier.budget.Reserve(int64(len(data))) {
		return totalLimitRecord(record)
	}
	record.Classification = types.ClassificationText
	record.Content = content
	return record
}

func (classifier *Classifier) exceedsFileLimit(size int64) bool {
	return classifier.limits.MaxFileSizeBytes > 0 && size > classifier.limits.MaxFileSizeBytes
}

func (classifier *Classifier) tooLargeRecord(record types.FileRecord) types.FileRecord {
	record.Classification = types.ClassificationSkippedTooLarge
	record.SkipReason = types.SkipReasonTooLarge
	record.Detail = fmt.Sprintf(tooLargeDetailFormat, utils.FormatFileSize(classifier.limits.MaxFileSizeBytes))
	return record
}

func totalLimitRecord(record types.FileRecord) types.FileRecord {
	record.Classification = types.ClassificationSkippedTotalLimit
	record.SkipReason = types.SkipReasonTotalLimit
	return record
}

// read sniffs the first utils.SniffLength bytes and stops there for binary files. Text files
// are read to at most one byte past the per-file limit so growth after the walk is detected.
// For binary files the returned slice is the sniffed prefix.
//
// #nosec G304
func (classifier *Classifier) read(path string) ([]byte, bool, error) {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return nil, false, openError
	}
	defer fileHandle.Close()

	head := make([]byte, utils.SniffLength+1)
	headLength, headError := io.ReadFull(fileHandle, head)
	if headError != nil && !errors.Is(headError, io.EOF) && !errors.Is(headError, io.ErrUnexpectedEOF) {
		return nil, false, headError
	}
	head = head[:headLength]
	truncated := headLength > utils.SniffLength
	prefix := head
	if truncated {
		prefix = head[:utils.SniffLength]
	}
	if utils.IsBinary(prefix, truncated) {
		return prefix, true, nil
	}
	if !truncated {
		return head, false, nil
	}

	var remainder io.Reader = fileHandle
	if classifier.limits.MaxFileSizeBytes > 0 {
		remaining := classifier.limits.MaxFileSizeBytes + 1 - int64(headLength)
		if remaining <= 0 {
			return head, false, nil
		}
		remainder = io.LimitReader(fileHandle, remaining)
	}
	rest, restError := io.ReadAll(remainder)
	if restError != nil {
		return nil, false, restError
	}
	return append(head, rest...), false, nil
}

// decodeText validates UTF-8 and strips a leading byte order mark.
func decodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New(invalidUTF8Detail)
	}
	decoded, decodeError := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if decodeError != nil {
		return "", decodeError
	}
	return string(decoded), nil
}
