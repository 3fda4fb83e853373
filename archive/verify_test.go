package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/alexmullins/zip"
)

// Helper function to create a zip with the given entries
func createTestZip(t *testing.T, dir, name string, entries map[string]string, password string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for entry, content := range entries {
		var w io.Writer
		if password != "" {
			w, err = zw.Encrypt(entry, password)
		} else {
			w, err = zw.Create(entry)
		}
		if err != nil {
			t.Fatalf("Failed to create entry %s: %v", entry, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write entry %s: %v", entry, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return path
}

// TestVerify_ManifestFields tests that version and name are reported
func TestVerify_ManifestFields(t *testing.T) {
	path := createTestZip(t, t.TempDir(), "ext.zip", map[string]string{
		"manifest.json": `{"version":"9.9.9","name":"X"}`,
	}, "")

	report, err := Verify(path, DefaultVerifyOptions())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !report.ManifestFound || report.Version != "9.9.9" || report.Name != "X" {
		t.Errorf("Unexpected manifest report: %+v", report)
	}
	if report.ScriptFound {
		t.Error("main.js should be reported as missing")
	}
}

// TestVerify_ManifestMissingFields tests the Unknown fallback
func TestVerify_ManifestMissingFields(t *testing.T) {
	path := createTestZip(t, t.TempDir(), "ext.zip", map[string]string{
		"manifest.json": `{"manifest_version":3,"version":2}`,
	}, "")

	report, err := Verify(path, DefaultVerifyOptions())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if report.Name != Unknown {
		t.Errorf("Missing name should be %q, got %q", Unknown, report.Name)
	}
	if report.Version != "2" {
		t.Errorf("Numeric version should be printed as text, got %q", report.Version)
	}
}

// TestVerify_ManifestWithBOM tests manifests saved with a UTF-8 byte order mark
func TestVerify_ManifestWithBOM(t *testing.T) {
	path := createTestZip(t, t.TempDir(), "ext.zip", map[string]string{
		"manifest.json": "\xef\xbb\xbf" + `{"version":"9.9.9","name":"X"}`,
	}, "")

	report, err := Verify(path, DefaultVerifyOptions())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if report.Version != "9.9.9" || report.Name != "X" {
		t.Errorf("Unexpected manifest report: %+v", report)
	}
}

// TestVerify_ManifestNullFields tests that null fields read as Unknown
func TestVerify_ManifestNullFields(t *testing.T) {
	path := createTestZip(t, t.TempDir(), "ext.zip", map[string]string{
		"manifest.json": `{"version":null,"name":null}`,
	}, "")

	report, err := Verify(path, DefaultVerifyOptions())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if report.Version != Unknown || report.Name != Unknown {
		t.Errorf("Null fields should be %q, got version %q name %q", Unknown, report.Version, report.Name)
	}
}

// TestVerify_ScriptVersionsUnique tests the unique sorted version scan
func TestVerify_ScriptVersionsUnique(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "repeated version",
			content: `const a = "v1.2.3"; // v1.2.3` + "\nconsole.log('v1.2.3')",
			want:    []string{"v1.2.3"},
		},
		{
			name:    "several versions sorted",
			content: "v2.0.2 build, fallback v10.0.0, legacy v2.0.1",
			want:    []string{"v10.0.0", "v2.0.1", "v2.0.2"},
		},
		{
			name:    "no versions",
			content: "version 1.2.3 without prefix",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createTestZip(t, t.TempDir(), "ext.zip", map[string]string{"main.js": tt.content}, "")
			report, err := Verify(path, DefaultVerifyOptions())
			if err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
			if !report.ScriptFound {
				t.Fatal("main.js should be found")
			}
			if !reflect.DeepEqual(report.ScriptVersions, tt.want) {
				t.Errorf("ScriptVersions = %q, want %q", report.ScriptVersions, tt.want)
			}
		})
	}
}

// TestVerify_BothMissing tests the report when neither entry exists
func TestVerify_BothMissing(t *testing.T) {
	path := createTestZip(t, t.TempDir(), "ext.zip", map[string]string{"readme.txt": "hello"}, "")

	report, err := Verify(path, DefaultVerifyOptions())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	var buf bytes.Buffer
	report.WriteText(&buf)
	out := buf.String()
	if !strings.Contains(out, "manifest.json not found") {
		t.Errorf("Missing manifest line in output:\n%s", out)
	}
	if !strings.Contains(out, "main.js not found") {
		t.Errorf("Missing script line in output:\n%s", out)
	}
}

// TestVerify_InvalidArchive tests that a non-zip file is reported, not raised
func TestVerify_InvalidArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-zip.zip")
	if err := os.WriteFile(path, []byte("this is plain text, not an archive"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := Verify(path, DefaultVerifyOptions())
	if !errors.Is(err, ErrInvalidArchive) {
		t.Errorf("Expected ErrInvalidArchive, got %v", err)
	}
}

// TestVerify_FileNotFound tests the missing path error
func TestVerify_FileNotFound(t *testing.T) {
	_, err := Verify(filepath.Join(t.TempDir(), "missing.zip"), DefaultVerifyOptions())
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got %v", err)
	}
}

// TestVerify_MalformedManifest tests JSON errors
func TestVerify_MalformedManifest(t *testing.T) {
	path := createTestZip(t, t.TempDir(), "ext.zip", map[string]string{"manifest.json": "{not json"}, "")
	if _, err := Verify(path, DefaultVerifyOptions()); !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("Expected ErrInvalidManifest, got %v", err)
	}
}

// TestVerify_EncryptedEntries tests password handling
func TestVerify_EncryptedEntries(t *testing.T) {
	path := createTestZip(t, t.TempDir(), "ext.zip", map[string]string{
		"manifest.json": `{"version":"1.0.0","name":"Locked"}`,
	}, "s3cret")

	if _, err := Verify(path, DefaultVerifyOptions()); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("Expected ErrPasswordRequired, got %v", err)
	}

	opts := DefaultVerifyOptions()
	opts.Password = "s3cret"
	report, err := Verify(path, opts)
	if err != nil {
		t.Fatalf("Verify with password failed: %v", err)
	}
	if report.Name != "Locked" {
		t.Errorf("Expected name Locked, got %q", report.Name)
	}
}

// TestVerify_InvalidPattern tests pattern validation
func TestVerify_InvalidPattern(t *testing.T) {
	path := createTestZip(t, t.TempDir(), "ext.zip", map[string]string{"main.js": ""}, "")
	opts := DefaultVerifyOptions()
	opts.VersionPattern = "v(\\d+"
	if _, err := Verify(path, opts); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("Expected ErrInvalidPattern, got %v", err)
	}
}

// TestReport_Output tests the text and JSON renderings
func TestReport_Output(t *testing.T) {
	report := &Report{
		ArchivePath:    "ext.zip",
		ManifestEntry:  "manifest.json",
		ScriptEntry:    "main.js",
		ManifestFound:  true,
		Version:        "9.9.9",
		Name:           "X",
		ScriptFound:    true,
		ScriptVersions: []string{"v1.2.3"},
	}

	var text bytes.Buffer
	report.WriteText(&text)
	for _, want := range []string{"version: 9.9.9", "name:    X", `["v1.2.3"]`} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("Text output missing %q:\n%s", want, text.String())
		}
	}

	var js bytes.Buffer
	if err := report.WriteJSON(&js); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output is invalid: %v", err)
	}
	if decoded["version"] != "9.9.9" {
		t.Errorf("JSON version = %v", decoded["version"])
	}

	report.ScriptVersions = nil
	text.Reset()
	report.WriteText(&text)
	if !strings.Contains(text.String(), "No 'vX.X.X' version string found in main.js") {
		t.Errorf("Expected no-version warning:\n%s", text.String())
	}
}
