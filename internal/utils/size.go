package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var fileSizeUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

var fileSizeMultipliers = map[string]int64{
	"":    1,
	"b":   1,
	"k":   1 << 10,
	"kb":  1 << 10,
	"kib": 1 << 10,
	"m":   1 << 20,
	"mb":  1 << 20,
	"mib": 1 << 20,
	"g":   1 << 30,
	"gb":  1 << 30,
	"gib": 1 << 30,
	"t":   1 << 40,
	"tb":  1 << 40,
	"tib": 1 << 40,
}

// FormatFileSize converts a byte length into a human-readable string using binary units.
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}
	value := float64(bytes)
	unitIndex := 0
	for value >= 1024 && unitIndex < len(fileSizeUnits)-1 {
		value /= 1024
		unitIndex++
	}
	if unitIndex == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	if value < 10 {
		formatted := fmt.Sprintf("%.1f", value)
		formatted = strings.TrimSuffix(formatted, ".0")
		return formatted + " " + fileSizeUnits[unitIndex]
	}
	return fmt.Sprintf("%.0f %s", value, fileSizeUnits[unitIndex])
}

// ParseFileSize reads a byte count such as "1048576", "512K", "10MiB" or "1.5 GB".
// Units are binary regardless of spelling. Zero means unlimited to callers.
func ParseFileSize(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, fmt.Errorf("empty size")
	}
	split := strings.IndexFunc(trimmed, func(character rune) bool {
		return !unicode.IsDigit(character) && character != '.'
	})
	numberText, unitText := trimmed, ""
	if split >= 0 {
		numberText, unitText = trimmed[:split], strings.TrimSpace(trimmed[split:])
	}
	multiplier, knownUnit := fileSizeMultipliers[strings.ToLower(unitText)]
	if !knownUnit {
		return 0, fmt.Errorf("unknown size unit %q in %q", unitText, input)
	}
	number, parseErr := strconv.ParseFloat(numberText, 64)
	if parseErr != nil {
		return 0, fmt.Errorf("invalid size %q: %w", input, parseErr)
	}
	bytes := number * float64(multiplier)
	if bytes > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", input)
	}
	return int64(math.Ceil(bytes)), nil
}
