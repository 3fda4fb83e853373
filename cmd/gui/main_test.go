package main

import (
	"strings"
	"testing"
	"time"

	"github.com/kacebover/iconkit/archive"
	"github.com/kacebover/iconkit/gui/controller"
)

// TestPassesFromChoice tests the passes selector mapping
func TestPassesFromChoice(t *testing.T) {
	tests := []struct {
		choice string
		want   int
	}{
		{passesFromConfig, -1},
		{"", -1},
		{"0", 0},
		{"2", 2},
		{"-3", -1},
	}
	for _, tt := range tests {
		if got := passesFromChoice(tt.choice); got != tt.want {
			t.Errorf("passesFromChoice(%q) = %d, want %d", tt.choice, got, tt.want)
		}
	}
}

// TestPreviewSide tests integer zoom of icon previews
func TestPreviewSide(t *testing.T) {
	tests := map[int]int{
		16:  128,
		48:  96,
		100: 100,
		128: 128,
		256: 256,
		0:   0,
	}
	for size, want := range tests {
		if got := previewSide(size); got != want {
			t.Errorf("previewSide(%d) = %d, want %d", size, got, want)
		}
	}
}

func TestAppendLogLine(t *testing.T) {
	var lines []string
	for i := 0; i < 5; i++ {
		lines = appendLogLine(lines, string(rune('a'+i)), 3)
	}
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	if strings.Join(lines, "") != "cde" {
		t.Errorf("Expected the newest lines, got %v", lines)
	}
}

func TestFormatLogLine(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)
	got := formatLogLine(at, controller.LogWarning, "Not found: icon16.png")
	if got != "09:05:07 [WARN] Not found: icon16.png" {
		t.Errorf("Unexpected log line %q", got)
	}
}

func TestReportText(t *testing.T) {
	report := &archive.Report{
		ArchivePath:   "ext.zip",
		ManifestEntry: "manifest.json",
		ScriptEntry:   "main.js",
		ManifestFound: true,
		Version:       "1.0.0",
		Name:          "Demo",
	}
	text := reportText(report)
	if !strings.HasPrefix(text, "🔍 Verifying: ext.zip") {
		t.Errorf("Unexpected report text:\n%s", text)
	}
	if strings.HasSuffix(text, "\n") {
		t.Error("Report text should be trimmed")
	}
}

func TestStateTextAndSizes(t *testing.T) {
	if stateText(controller.StateFailed) == stateText(controller.StateCompleted) {
		t.Error("Failed and completed states should read differently")
	}
	if got := sizesLabel([]int{16, 48, 128}); got != "16, 48, 128" {
		t.Errorf("sizesLabel = %q", got)
	}
}
