package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cropfolder/internal/config"
	"cropfolder/internal/testutil"
)

func writeBatch(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "batch.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write batch: %v", err)
	}
	return path
}

func TestRun(t *testing.T) {
	folder := t.TempDir()
	testutil.WritePNG(t, folder, "a.png", 100, 50)
	batchPath := writeBatch(t, t.TempDir(),
		`{"filename":"a.png","angle":0,"globalName":"g","crops":[{"x":10,"y":10,"width":20,"height":20}]}`)

	var stdout, stderr bytes.Buffer
	if err := run(config.Default(), folder, batchPath, &stdout, &stderr); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	expected := filepath.Join(folder, "cropped", "g_1.png")
	if got := strings.TrimSpace(stdout.String()); got != expected {
		t.Errorf("Expected stdout %q, got %q", expected, got)
	}
	if _, err := os.Stat(expected); err != nil {
		t.Errorf("Expected %s to exist: %v", expected, err)
	}
	if !strings.Contains(stderr.String(), "1 of 1 crops saved to cropped/ folder") {
		t.Errorf("Expected summary on stderr, got %q", stderr.String())
	}
}

func TestRun_SkippedCropIsReported(t *testing.T) {
	folder := t.TempDir()
	testutil.WritePNG(t, folder, "a.png", 100, 50)
	batchPath := writeBatch(t, t.TempDir(),
		`{"filename":"a.png","globalName":"g","crops":[{"x":0,"y":0,"width":20,"height":20},{"x":150,"y":0,"width":20,"height":20}]}`)

	var stdout, stderr bytes.Buffer
	if err := run(config.Default(), folder, batchPath, &stdout, &stderr); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !strings.Contains(stderr.String(), "skipped crop 2") {
		t.Errorf("Expected skipped crop 2 on stderr, got %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "1 of 2 crops saved to cropped/ folder") {
		t.Errorf("Expected partial summary on stderr, got %q", stderr.String())
	}
}

func TestRun_Errors(t *testing.T) {
	folder := t.TempDir()
	testutil.WritePNG(t, folder, "a.png", 100, 50)
	batchDir := t.TempDir()

	tests := []struct {
		name      string
		folder    string
		batchPath string
	}{
		{"missing batch file", folder, filepath.Join(batchDir, "missing.json")},
		{"malformed batch", folder, writeBatch(t, batchDir, `{"filename":`)},
		{"missing folder", filepath.Join(folder, "nope"), filepath.Join(batchDir, "batch.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if err := run(config.Default(), tt.folder, tt.batchPath, &stdout, &stderr); err == nil {
				t.Error("Expected error, got nil")
			}
			if stdout.Len() != 0 {
				t.Errorf("Expected no output paths, got %q", stdout.String())
			}
		})
	}
}

func TestRun_NonImageFile(t *testing.T) {
	folder := t.TempDir()
	if err := os.WriteFile(filepath.Join(folder, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	batchPath := writeBatch(t, t.TempDir(),
		`{"filename":"notes.txt","crops":[{"x":0,"y":0,"width":1,"height":1}]}`)

	var stdout, stderr bytes.Buffer
	err := run(config.Default(), folder, batchPath, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "not an image file") {
		t.Errorf("Expected not an image file error, got %v", err)
	}
}
