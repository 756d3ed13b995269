package utils_test

import (
	"testing"

	"github.com/temirov/ingest/internal/utils"
)

func TestFormatFileSize(t *testing.T) {
	testCases := []struct {
		name     string
		bytes    int64
		expected string
	}{
		{name: "negative", bytes: -1, expected: "0 B"},
		{name: "zero", bytes: 0, expected: "0 B"},
		{name: "bytes", bytes: 512, expected: "512 B"},
		{name: "one kibibyte", bytes: 1024, expected: "1 KiB"},
		{name: "fractional kibibyte", bytes: 1536, expected: "1.5 KiB"},
		{name: "ten mebibytes", bytes: 10 * 1024 * 1024, expected: "10 MiB"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result := utils.FormatFileSize(testCase.bytes)
			if result != testCase.expected {
				t.Fatalf("expected %s, got %s", testCase.expected, result)
			}
		})
	}
}

func TestGetApplicationVersionPrefersLinkerValue(t *testing.T) {
	original := utils.Version
	t.Cleanup(func() { utils.Version = original })

	utils.Version = "v1.2.3"
	if version := utils.GetApplicationVersion(); version != "v1.2.3" {
		t.Fatalf("expected linker version, got %s", version)
	}
}

func TestParseFileSize(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    int64
		expectError bool
	}{
		{name: "plain bytes", input: "1048576", expected: 1048576},
		{name: "short unit", input: "512K", expected: 512 * 1024},
		{name: "binary unit", input: "10MiB", expected: 10 * 1024 * 1024},
		{name: "spaced decimal unit", input: "1.5 GB", expected: 3 * 512 * 1024 * 1024},
		{name: "zero", input: "0", expected: 0},
		{name: "unknown unit", input: "10 parsecs", expectError: true},
		{name: "negative", input: "-5", expectError: true},
		{name: "empty", input: " ", expectError: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result, err := utils.ParseFileSize(testCase.input)
			if testCase.expectError {
				if err == nil {
					t.Fatalf("expected error for %q, got %d", testCase.input, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", testCase.input, err)
			}
			if result != testCase.expected {
				t.Fatalf("expected %d, got %d", testCase.expected, result)
			}
		})
	}
}
