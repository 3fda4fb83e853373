// Package raster implements the icon passes used by the toolkit: procedural
// generation, resizing, contrast snapping and line thickening. Every pass works
// on non-premultiplied NRGBA buffers and writes PNG files.
package raster

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// Common errors
var (
	ErrSourceNotFound = errors.New("source image not found")
	ErrInvalidSize    = errors.New("icon size must be positive")
	ErrNoImages       = errors.New("no images provided")
)

// Target is one icon file produced or touched by a pass.
type Target struct {
	Size int
	Path string
}

// TargetResult records the outcome of a pass for a single target.
// Err is nil on success; Image is set only by passes that render new images.
type TargetResult struct {
	Target
	Image *image.NRGBA
	Err   error
}

// IconFileName returns the conventional file name for an icon of the given size.
func IconFileName(size int) string {
	return fmt.Sprintf("icon%d.png", size)
}

// IconTargets returns one target per size inside dir.
func IconTargets(dir string, sizes []int) []Target {
	targets := make([]Target, 0, len(sizes))
	for _, size := range sizes {
		targets = append(targets, Target{Size: size, Path: filepath.Join(dir, IconFileName(size))})
	}
	return targets
}

// Load decodes an image file into a mutable NRGBA buffer anchored at (0,0).
func Load(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return ToNRGBA(img), nil
}

// ToNRGBA copies img into a fresh NRGBA buffer whose bounds start at (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Save writes img as PNG, creating the parent directory if needed.
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).Msg("image saved")
	return nil
}

// exists reports whether a target file is present, so batch passes can skip
// missing icons instead of failing the whole run.
func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
