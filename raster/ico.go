package raster

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	ico "github.com/sergeymakinen/go-ico"
)

// maxICOSize is the largest dimension an ICO directory entry can describe.
const maxICOSize = 256

// FaviconName is the file name used for the bundled ICO.
const FaviconName = "favicon.ico"

// WriteICO bundles images into a single ICO file, smallest first.
// Images larger than 256 pixels are skipped.
func WriteICO(path string, images []image.Image) error {
	entries := make([]image.Image, 0, len(images))
	for _, img := range images {
		b := img.Bounds()
		if b.Dx() > maxICOSize || b.Dy() > maxICOSize {
			log.Debug().Int("width", b.Dx()).Int("height", b.Dy()).Msg("skipping oversized ICO entry")
			continue
		}
		entries = append(entries, img)
	}
	if len(entries) == 0 {
		return ErrNoImages
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Bounds().Dx() < entries[j].Bounds().Dx()
	})

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := ico.EncodeAll(f, entries); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// ResultImages returns the rendered images of the successful results.
func ResultImages(results []TargetResult) []image.Image {
	images := make([]image.Image, 0, len(results))
	for _, r := range results {
		if r.Err == nil && r.Image != nil {
			images = append(images, r.Image)
		}
	}
	return images
}
