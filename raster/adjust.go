package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// UnsharpParams configures an unsharp mask pass.
// Radius is the Gaussian sigma, Percent the edge gain and Threshold the
// minimum per-channel difference that gets amplified.
type UnsharpParams struct {
	Radius    float64 `json:"radius"`
	Percent   int     `json:"percent"`
	Threshold int     `json:"threshold"`
}

// smoothKernel is the 3x3 smoothing kernel used as the degenerate image for
// sharpness adjustments.
var smoothKernel = [9]float64{
	1, 1, 1,
	1, 5, 1,
	1, 1, 1,
}

// Luminance returns the ITU-R 601-2 luma of an 8-bit colour, rounded to
// the nearest integer.
func Luminance(c color.NRGBA) uint8 {
	return uint8((uint32(c.R)*299 + uint32(c.G)*587 + uint32(c.B)*114 + 500) / 1000)
}

// Contrast scales every RGB channel away from the mean image luminance by
// factor. A factor of 1 leaves the image unchanged; alpha is preserved.
func Contrast(img image.Image, factor float64) *image.NRGBA {
	src := ToNRGBA(img)
	n := len(src.Pix) / 4
	if n == 0 {
		return src
	}
	var sum float64
	for i := 0; i < len(src.Pix); i += 4 {
		sum += float64(Luminance(color.NRGBA{src.Pix[i], src.Pix[i+1], src.Pix[i+2], 255}))
	}
	mean := math.Floor(sum/float64(n) + 0.5)

	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		c.R = blend(mean, float64(c.R), factor)
		c.G = blend(mean, float64(c.G), factor)
		c.B = blend(mean, float64(c.B), factor)
		return c
	})
}

// Sharpness blends the image with a smoothed copy of itself. Factors above 1
// sharpen, factors below 1 blur; alpha is preserved.
func Sharpness(img image.Image, factor float64) *image.NRGBA {
	src := ToNRGBA(img)
	smooth := imaging.Convolve3x3(src, smoothKernel, &imaging.ConvolveOptions{Normalize: true})

	dst := imaging.Clone(src)
	for i := 0; i < len(dst.Pix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			dst.Pix[i+ch] = blend(float64(smooth.Pix[i+ch]), float64(src.Pix[i+ch]), factor)
		}
	}
	return dst
}

// UnsharpMask amplifies the difference between the image and a Gaussian
// blurred copy wherever that difference reaches the threshold.
func UnsharpMask(img image.Image, p UnsharpParams) *image.NRGBA {
	src := ToNRGBA(img)
	blurred := imaging.Blur(src, p.Radius)
	gain := float64(p.Percent) / 100

	dst := imaging.Clone(src)
	for i := 0; i < len(dst.Pix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			orig := int(src.Pix[i+ch])
			diff := orig - int(blurred.Pix[i+ch])
			if abs(diff) < p.Threshold {
				continue
			}
			dst.Pix[i+ch] = clamp8(float64(orig) + float64(diff)*gain)
		}
	}
	return dst
}

// AutoContrast stretches each RGB channel so its histogram spans 0..255
// after discarding cutoff percent of pixels at each end. Alpha is preserved.
func AutoContrast(img image.Image, cutoff float64) *image.NRGBA {
	src := ToNRGBA(img)

	var hist [3][256]int
	for i := 0; i < len(src.Pix); i += 4 {
		hist[0][src.Pix[i]]++
		hist[1][src.Pix[i+1]]++
		hist[2][src.Pix[i+2]]++
	}

	var luts [3][256]uint8
	for ch := range hist {
		luts[ch] = stretchLUT(hist[ch], cutoff)
	}

	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		c.R = luts[0][c.R]
		c.G = luts[1][c.G]
		c.B = luts[2][c.B]
		return c
	})
}

// stretchLUT builds the lookup table for one channel histogram.
func stretchLUT(h [256]int, cutoff float64) [256]uint8 {
	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(i)
	}

	n := 0
	for _, v := range h {
		n += v
	}
	if n == 0 {
		return lut
	}

	cut := int(float64(n) * cutoff / 100)
	remaining := cut
	for lo := 0; lo < 256 && remaining > 0; lo++ {
		if remaining > h[lo] {
			remaining -= h[lo]
			h[lo] = 0
		} else {
			h[lo] -= remaining
			remaining = 0
		}
	}
	remaining = cut
	for hi := 255; hi >= 0 && remaining > 0; hi-- {
		if remaining > h[hi] {
			remaining -= h[hi]
			h[hi] = 0
		} else {
			h[hi] -= remaining
			remaining = 0
		}
	}

	lo, hi := 0, 255
	for lo < 256 && h[lo] == 0 {
		lo++
	}
	for hi >= 0 && h[hi] == 0 {
		hi--
	}
	if hi <= lo {
		return lut
	}

	scale := 255 / float64(hi-lo)
	offset := -float64(lo) * scale
	for i := range lut {
		lut[i] = clamp8(math.Floor(float64(i)*scale + offset))
	}
	return lut
}

// Darken multiplies the RGB channels of every pixel whose channels are all
// below the cutoff by factor.
func Darken(img image.Image, below uint8, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if c.R < below && c.G < below && c.B < below {
			c.R = uint8(float64(c.R) * factor)
			c.G = uint8(float64(c.G) * factor)
			c.B = uint8(float64(c.B) * factor)
		}
		return c
	})
}

// Snap forces visible near-black pixels to opaque black and visible
// near-white pixels to opaque white. Fully transparent pixels and pixels in
// between the two thresholds are left unchanged.
func Snap(img image.Image, blackBelow, whiteAbove uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if c.A == 0 {
			return c
		}
		switch {
		case c.R < blackBelow && c.G < blackBelow && c.B < blackBelow:
			return color.NRGBA{0, 0, 0, 255}
		case c.R > whiteAbove && c.G > whiteAbove && c.B > whiteAbove:
			return color.NRGBA{255, 255, 255, 255}
		}
		return c
	})
}

func blend(base, value, factor float64) uint8 {
	return clamp8(base + (value-base)*factor)
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
