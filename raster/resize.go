package raster

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

// ResizeOptions controls the extra treatment given to small icons.
type ResizeOptions struct {
	// SmallThreshold is the largest size that still counts as small.
	SmallThreshold int `json:"small_threshold"`
	// SmallContrast is the contrast factor applied to small icons.
	SmallContrast float64       `json:"small_contrast"`
	Unsharp       UnsharpParams `json:"unsharp"`
}

// DefaultResizeOptions returns the settings used for 16 and 48 pixel icons.
func DefaultResizeOptions() ResizeOptions {
	return ResizeOptions{
		SmallThreshold: 48,
		SmallContrast:  1.2,
		Unsharp:        UnsharpParams{Radius: 1, Percent: 150, Threshold: 3},
	}
}

// ResizeIcon resamples src to size x size with a Lanczos filter. Small
// outputs additionally get a contrast boost and one unsharp mask pass.
func ResizeIcon(src image.Image, size int, opts ResizeOptions) (*image.NRGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	out := imaging.Resize(src, size, size, imaging.Lanczos)
	if size <= opts.SmallThreshold {
		if opts.SmallContrast > 0 {
			out = Contrast(out, opts.SmallContrast)
		}
		out = UnsharpMask(out, opts.Unsharp)
	}
	return out, nil
}

// ResizeIcons loads srcPath once and writes icon<size>.png into dir for
// every size. Loading the source or creating dir is fatal for the batch;
// per-size failures are recorded in the results.
func ResizeIcons(srcPath, dir string, sizes []int, opts ResizeOptions) ([]TargetResult, error) {
	src, err := Load(srcPath)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("source", srcPath).Int("width", src.Rect.Dx()).Int("height", src.Rect.Dy()).Msg("source loaded")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]TargetResult, 0, len(sizes))
	for _, t := range IconTargets(dir, sizes) {
		res := TargetResult{Target: t}
		img, err := ResizeIcon(src, t.Size, opts)
		if err == nil {
			err = Save(t.Path, img)
		}
		if err != nil {
			res.Err = err
		} else {
			res.Image = img
		}
		results = append(results, res)
	}
	return results, nil
}
