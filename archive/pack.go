package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alexmullins/zip"
	"github.com/rs/zerolog/log"
)

// Packing errors
var (
	ErrNoFiles       = errors.New("no files to pack")
	ErrInvalidOutput = errors.New("invalid output path")
)

// ProgressCallback reports the entry currently being written.
type ProgressCallback func(current, total int, entry string)

// PackOptions configures Pack.
type PackOptions struct {
	// Password enables AES-256 encryption of every entry when non-empty.
	Password string

	// Exclude lists base names to leave out (e.g. ".DS_Store").
	Exclude []string

	OnProgress ProgressCallback
}

// PackResult summarises a finished archive.
type PackResult struct {
	OutputPath  string
	Entries     []string
	TotalSize   int64
	ArchiveSize int64
	Encrypted   bool
}

// Pack writes every regular file under dir into a zip at output, with entry
// names relative to dir. A partially written archive is removed on failure.
func Pack(dir, output string, opts PackOptions) (*PackResult, error) {
	if output == "" {
		return nil, ErrInvalidOutput
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, dir)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	absOut, err := filepath.Abs(output)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	files, totalSize, err := collectFiles(dir, absOut, opts.Exclude)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := os.Create(output)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	entries, err := writeEntries(out, dir, files, opts)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(output)
		return nil, err
	}

	archiveInfo, err := os.Stat(output)
	if err != nil {
		return nil, fmt.Errorf("failed to stat output archive: %w", err)
	}

	log.Debug().Str("output", output).Int("entries", len(entries)).Bool("encrypted", opts.Password != "").Msg("archive packed")

	return &PackResult{
		OutputPath:  output,
		Entries:     entries,
		TotalSize:   totalSize,
		ArchiveSize: archiveInfo.Size(),
		Encrypted:   opts.Password != "",
	}, nil
}

// collectFiles walks dir in lexical order, skipping excluded names and the
// output archive itself.
func collectFiles(dir, absOut string, exclude []string) ([]string, int64, error) {
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	var files []string
	var totalSize int64
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if skip[info.Name()] {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absOut {
			return nil
		}
		files = append(files, path)
		totalSize += info.Size()
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, totalSize, nil
}

func writeEntries(w io.Writer, dir string, files []string, opts PackOptions) ([]string, error) {
	zw := zip.NewWriter(w)
	entries := make([]string, 0, len(files))

	for i, path := range files {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		name := strings.ReplaceAll(rel, string(os.PathSeparator), "/")

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(files), name)
		}
		if err := addFile(zw, path, name, opts.Password); err != nil {
			zw.Close()
			return nil, err
		}
		entries = append(entries, name)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalise archive: %w", err)
	}
	return entries, nil
}

func addFile(zw *zip.Writer, path, name, password string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer src.Close()

	var dst io.Writer
	if password != "" {
		dst, err = zw.Encrypt(name, password)
	} else {
		dst, err = zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	}
	if err != nil {
		return fmt.Errorf("failed to create archive entry for %s: %w", path, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", path, err)
	}
	return nil
}
