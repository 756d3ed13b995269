package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestRegisterBooleanFlagParsesValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		inverted    bool
		arguments   []string
		expectSet   bool
		expected    bool
		expectError bool
	}{
		{
			name:      "unset_without_flag",
			arguments: []string{},
			expectSet: false,
		},
		{
			name:      "sets_true_without_value",
			arguments: []string{"--feature"},
			expectSet: true,
			expected:  true,
		},
		{
			name:      "sets_false_with_equals",
			arguments: []string{"--feature=false"},
			expectSet: true,
			expected:  false,
		},
		{
			name:      "sets_false_with_no_literal",
			arguments: []string{"--feature", "no"},
			expectSet: true,
			expected:  false,
		},
		{
			name:      "sets_true_with_on_literal",
			arguments: []string{"--feature", "on"},
			expectSet: true,
			expected:  true,
		},
		{
			name:      "ignores_non_boolean_trailing_value",
			arguments: []string{"--feature", "./project"},
			expectSet: true,
			expected:  true,
		},
		{
			name:      "inverted_flag_stores_negation",
			inverted:  true,
			arguments: []string{"--feature"},
			expectSet: true,
			expected:  false,
		},
		{
			name:      "inverted_flag_with_false_literal",
			inverted:  true,
			arguments: []string{"--feature", "off"},
			expectSet: true,
			expected:  true,
		},
		{
			name:        "rejects_unknown_literal",
			arguments:   []string{"--feature=maybe"},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			command := &cobra.Command{Use: "boolean-test"}
			var flagValue *bool
			registerBooleanFlag(command.Flags(), &flagValue, "feature", testCase.inverted, "toggle feature behaviour")
			normalizedArguments := normalizeBooleanFlagArguments(command, testCase.arguments)
			parseErr := command.ParseFlags(normalizedArguments)
			if testCase.expectError {
				if parseErr == nil {
					t.Fatalf("expected parse error for arguments %v", testCase.arguments)
				}
				return
			}
			if parseErr != nil {
				t.Fatalf("unexpected parse error: %v", parseErr)
			}
			if !testCase.expectSet {
				if flagValue != nil {
					t.Fatalf("expected flag to stay unset, got %t", *flagValue)
				}
				return
			}
			if flagValue == nil {
				t.Fatalf("expected flag to be set for arguments %v", testCase.arguments)
			}
			if *flagValue != testCase.expected {
				t.Fatalf("expected %t, got %t", testCase.expected, *flagValue)
			}
		})
	}
}

func TestNormalizeBooleanFlagArgumentsKeepsPositionalsAfterTerminator(t *testing.T) {
	t.Parallel()
	command := &cobra.Command{Use: "boolean-test"}
	var flagValue *bool
	registerBooleanFlag(command.Flags(), &flagValue, "feature", false, "toggle")

	normalized := normalizeBooleanFlagArguments(command, []string{"--feature", "yes", "--", "--feature", "no"})
	expected := []string{"--feature=yes", "--", "--feature", "no"}
	if len(normalized) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, normalized)
	}
	for index := range expected {
		if normalized[index] != expected[index] {
			t.Fatalf("expected %v, got %v", expected, normalized)
		}
	}
}

func TestRegisterSizeFlag(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name        string
		arguments   []string
		expected    *int64
		expectError bool
	}{
		{name: "unset", arguments: []string{}},
		{name: "plain_bytes", arguments: []string{"--limit", "2048"}, expected: int64Pointer(2048)},
		{name: "with_unit", arguments: []string{"--limit=2MiB"}, expected: int64Pointer(2 * 1024 * 1024)},
		{name: "invalid", arguments: []string{"--limit", "lots"}, expectError: true},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			command := &cobra.Command{Use: "size-test"}
			var flagValue *int64
			registerSizeFlag(command.Flags(), &flagValue, "limit", "limit in bytes")
			parseErr := command.ParseFlags(testCase.arguments)
			if testCase.expectError {
				if parseErr == nil {
					t.Fatalf("expected parse error for %v", testCase.arguments)
				}
				return
			}
			if parseErr != nil {
				t.Fatalf("unexpected parse error: %v", parseErr)
			}
			if testCase.expected == nil {
				if flagValue != nil {
					t.Fatalf("expected unset, got %d", *flagValue)
				}
				return
			}
			if flagValue == nil || *flagValue != *testCase.expected {
				t.Fatalf("expected %d, got %v", *testCase.expected, flagValue)
			}
		})
	}
}

func int64Pointer(value int64) *int64 {
	return &value
}
