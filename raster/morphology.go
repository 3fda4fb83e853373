package raster

import (
	"fmt"
	"image"

	"github.com/rs/zerolog/log"
)

// kernelSize is the neighbourhood of the rank filters used for thickening.
const kernelSize = 3

// MinFilter replaces every colour channel with the minimum of its size x size
// neighbourhood, growing dark regions. Alpha is left unchanged.
func MinFilter(img image.Image, size int) *image.NRGBA {
	return rankFilter(ToNRGBA(img), size, []int{0, 1, 2}, func(a, b uint8) bool { return a < b })
}

// MaxFilter replaces the alpha channel with the maximum of its size x size
// neighbourhood, growing opaque regions. Colour channels are left unchanged.
func MaxFilter(img image.Image, size int) *image.NRGBA {
	return rankFilter(ToNRGBA(img), size, []int{3}, func(a, b uint8) bool { return a > b })
}

// rankFilter picks, for each listed channel, the neighbour value preferred by
// better. Pixels outside the image are treated as copies of the nearest edge.
func rankFilter(src *image.NRGBA, size int, channels []int, better func(a, b uint8) bool) *image.NRGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	r := size / 2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			di := y*dst.Stride + x*4
			for _, ch := range channels {
				best := src.Pix[di+ch]
				for dy := -r; dy <= r; dy++ {
					sy := clampInt(y+dy, 0, h-1)
					for dx := -r; dx <= r; dx++ {
						sx := clampInt(x+dx, 0, w-1)
						v := src.Pix[sy*src.Stride+sx*4+ch]
						if better(v, best) {
							best = v
						}
					}
				}
				dst.Pix[di+ch] = best
			}
		}
	}
	return dst
}

// Thicken makes line art heavier: each pass erodes the colour channels and
// dilates the alpha channel with a 3x3 neighbourhood.
func Thicken(img image.Image, passes int) *image.NRGBA {
	out := ToNRGBA(img)
	for i := 0; i < passes; i++ {
		out = MinFilter(out, kernelSize)
		out = MaxFilter(out, kernelSize)
	}
	return out
}

// ThickenFile thickens the image at path and overwrites it.
func ThickenFile(path string, passes int) error {
	if passes < 0 {
		return fmt.Errorf("passes must not be negative, got %d", passes)
	}
	img, err := Load(path)
	if err != nil {
		return err
	}
	log.Debug().Str("path", path).Int("passes", passes).Msg("thickening icon")
	return Save(path, Thicken(img, passes))
}

// ThickenTargets thickens every existing target in place, asking passesFor
// how many passes each icon size gets.
func ThickenTargets(targets []Target, passesFor func(size int) int) []TargetResult {
	return eachTarget(targets, func(t Target) error {
		return ThickenFile(t.Path, passesFor(t.Size))
	})
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
