package utils

import (
	"testing"
	"time"
)

func TestArtifactFilename(t *testing.T) {
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	got := ArtifactFilename("circle-crop", "png", at)
	want := "circle-crop-20260314-150926.png"
	if got != want {
		t.Errorf("ArtifactFilename = %q, want %q", got, want)
	}
}

func TestGetFileExtension(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"photo.JPG", "jpg"},
		{"clip.webm", "webm"},
		{"noext", ""},
		{"archive.tar.gz", "gz"},
	}

	for _, test := range tests {
		if got := GetFileExtension(test.input); got != test.expected {
			t.Errorf("GetFileExtension(%q) = %q, want %q", test.input, got, test.expected)
		}
	}
}

func TestIsImageFile(t *testing.T) {
	if !IsImageFile("a.png") || !IsImageFile("b.WEBP") {
		t.Error("expected still-image extensions to match")
	}
	if IsImageFile("c.mp4") || IsImageFile("d.gif") {
		t.Error("video/animated extensions should not match IsImageFile")
	}
}

func TestIsVideoFile(t *testing.T) {
	for _, name := range []string{"a.mp4", "b.webm", "c.mov", "d.gif"} {
		if !IsVideoFile(name) {
			t.Errorf("IsVideoFile(%q) = false, want true", name)
		}
	}
	if IsVideoFile("still.png") {
		t.Error("IsVideoFile matched a still image")
	}
}

func TestSanitizeFilename(t *testing.T) {
	got := SanitizeFilename(` crop:result?.png `)
	want := "crop_result_.png"
	if got != want {
		t.Errorf("SanitizeFilename = %q, want %q", got, want)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size     int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}

	for _, test := range tests {
		if got := FormatFileSize(test.size); got != test.expected {
			t.Errorf("FormatFileSize(%d) = %q, want %q", test.size, got, test.expected)
		}
	}
}
