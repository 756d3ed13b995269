package utils_test

import (
	"testing"

	"github.com/temirov/ingest/internal/utils"
)

func TestDetectMimeType(t *testing.T) {
	if mimeType := utils.DetectMimeType([]byte("plain text")); mimeType != "text/plain; charset=utf-8" {
		t.Fatalf("expected text/plain mime type, got %q", mimeType)
	}
	if mimeType := utils.DetectMimeType([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}); mimeType != "image/png" {
		t.Fatalf("expected image/png mime type, got %q", mimeType)
	}
	if mimeType := utils.DetectMimeType(nil); mimeType != "" {
		t.Fatalf("expected empty mime type for empty prefix, got %q", mimeType)
	}
}
