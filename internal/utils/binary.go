package utils

import (
	"unicode/utf8"
)

// SniffLength defines the maximum number of bytes read when detecting binary content.
const SniffLength = 8192

// IsBinary reports whether the provided byte slice appears to contain binary data.
// A null byte anywhere in data is decisive. When truncated is true the slice is a
// prefix of a longer file, so an incomplete UTF-8 sequence at its very end is tolerated.
func IsBinary(data []byte, truncated bool) bool {
	if len(data) == 0 {
		return false
	}
	for _, byteValue := range data {
		if byteValue == 0 {
			return true
		}
	}
	if truncated {
		data = trimIncompleteRune(data)
	}
	return !utf8.Valid(data)
}

// trimIncompleteRune drops a trailing partial UTF-8 sequence cut off by a prefix read.
func trimIncompleteRune(data []byte) []byte {
	for index := len(data) - 1; index >= 0 && index >= len(data)-utf8.UTFMax; index-- {
		if !utf8.RuneStart(data[index]) {
			continue
		}
		if !utf8.FullRune(data[index:]) {
			return data[:index]
		}
		break
	}
	return data
}
