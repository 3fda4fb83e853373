// Package archive inspects and builds extension zip archives: the verifier
// reports the manifest fields and the version strings bundled in the main
// script, the packer produces the archive (optionally AES-256 encrypted).
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/alexmullins/zip"
	"github.com/rs/zerolog/log"
)

// Common errors
var (
	ErrFileNotFound     = errors.New("file not found")
	ErrInvalidArchive   = errors.New("invalid zip file")
	ErrInvalidManifest  = errors.New("invalid manifest")
	ErrPasswordRequired = errors.New("archive entry is encrypted and no password was given")
	ErrInvalidPattern   = errors.New("invalid version pattern")
)

// Unknown is reported for manifest fields that are absent or null.
const Unknown = "Unknown"

// utf8BOM is written at the start of JSON files by some Windows editors.
var utf8BOM = []byte("\xef\xbb\xbf")

// VerifyOptions names the entries to inspect and the version pattern.
type VerifyOptions struct {
	ManifestEntry  string `json:"manifest_entry"`
	ScriptEntry    string `json:"script_entry"`
	VersionPattern string `json:"version_pattern"`

	// Password decrypts AES entries; ignored for plain entries.
	Password string `json:"-"`
}

// DefaultVerifyOptions returns the options for a browser-extension archive.
func DefaultVerifyOptions() VerifyOptions {
	return VerifyOptions{
		ManifestEntry:  "manifest.json",
		ScriptEntry:    "main.js",
		VersionPattern: `v\d+\.\d+\.\d+`,
	}
}

// Verify opens the archive at path and reports the manifest fields and the
// unique version strings found in the script entry.
func Verify(path string, opts VerifyOptions) (*Report, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	pattern, err := regexp.Compile(opts.VersionPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, path, err)
	}
	defer r.Close()

	report := &Report{
		ArchivePath:   path,
		ManifestEntry: opts.ManifestEntry,
		ScriptEntry:   opts.ScriptEntry,
		Version:       Unknown,
		Name:          Unknown,
	}

	if f := findEntry(r.File, opts.ManifestEntry); f != nil {
		report.ManifestFound = true
		data, err := readEntry(f, opts.Password)
		if err != nil {
			return nil, err
		}
		var manifest map[string]interface{}
		if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &manifest); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, opts.ManifestEntry, err)
		}
		report.Version = field(manifest, "version")
		report.Name = field(manifest, "name")
	}

	if f := findEntry(r.File, opts.ScriptEntry); f != nil {
		report.ScriptFound = true
		data, err := readEntry(f, opts.Password)
		if err != nil {
			return nil, err
		}
		content := strings.ToValidUTF8(string(data), "")
		report.ScriptVersions = uniqueSorted(pattern.FindAllString(content, -1))
	}

	log.Debug().
		Str("archive", path).
		Int("entries", len(r.File)).
		Bool("manifest", report.ManifestFound).
		Bool("script", report.ScriptFound).
		Msg("archive verified")

	return report, nil
}

func findEntry(files []*zip.File, name string) *zip.File {
	for _, f := range files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// readEntry reads a whole entry, decrypting it when needed.
func readEntry(f *zip.File, password string) ([]byte, error) {
	if f.IsEncrypted() {
		if password == "" {
			return nil, fmt.Errorf("%w: %s", ErrPasswordRequired, f.Name)
		}
		f.SetPassword(password)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}

// field returns a manifest value as text, or Unknown when it is absent or null.
func field(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return Unknown
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func uniqueSorted(matches []string) []string {
	seen := make(map[string]bool, len(matches))
	unique := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			unique = append(unique, m)
		}
	}
	sort.Strings(unique)
	return unique
}
