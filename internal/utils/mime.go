package utils

import (
	"net/http"
)

// DetectMimeType returns the MIME type for a sniffed content prefix.
// It uses http.DetectContentType, which never inspects more than 512 bytes.
func DetectMimeType(prefix []byte) string {
	if len(prefix) == 0 {
		return EmptyString
	}
	return http.DetectContentType(prefix)
}
