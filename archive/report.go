package archive

import (
	"encoding/json"
	"fmt"
	"io"
)

// Report is the outcome of verifying one archive.
type Report struct {
	ArchivePath   string `json:"archive_path"`
	ManifestEntry string `json:"manifest_entry"`
	ScriptEntry   string `json:"script_entry"`

	ManifestFound bool   `json:"manifest_found"`
	Version       string `json:"version"`
	Name          string `json:"name"`

	ScriptFound    bool     `json:"script_found"`
	ScriptVersions []string `json:"script_versions"`
}

// WriteText prints the human readable report.
func (r *Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "🔍 Verifying: %s\n", r.ArchivePath)

	if r.ManifestFound {
		fmt.Fprintf(w, "📄 %s version: %s\n", r.ManifestEntry, r.Version)
		fmt.Fprintf(w, "🏷️  %s name:    %s\n", r.ManifestEntry, r.Name)
	} else {
		fmt.Fprintf(w, "❌ %s not found in zip!\n", r.ManifestEntry)
	}

	switch {
	case !r.ScriptFound:
		fmt.Fprintf(w, "❌ %s not found in zip!\n", r.ScriptEntry)
	case len(r.ScriptVersions) == 0:
		fmt.Fprintf(w, "⚠️  No 'vX.X.X' version string found in %s\n", r.ScriptEntry)
	default:
		fmt.Fprintf(w, "💻 %s version strings found: %q\n", r.ScriptEntry, r.ScriptVersions)
	}
}

// WriteJSON prints the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
