package raster

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrUnknownProfile is returned when an enhance profile name is not recognised.
var ErrUnknownProfile = errors.New("unknown enhance profile")

// EnhanceProfile configures the contrast enhancement routine. Steps run in
// field order; zero values disable a step, except the snap which always runs.
type EnhanceProfile struct {
	Name string `json:"name"`

	// Unsharp runs first when set.
	Unsharp *UnsharpParams `json:"unsharp,omitempty"`

	Contrast  float64 `json:"contrast,omitempty"`
	Sharpness float64 `json:"sharpness,omitempty"`

	// AutoContrast enables the per-channel histogram stretch with
	// AutoContrastCutoff percent discarded at each end.
	AutoContrast       bool    `json:"auto_contrast,omitempty"`
	AutoContrastCutoff float64 `json:"auto_contrast_cutoff,omitempty"`

	// DarkenBelow enables darkening of pixels with all channels below it.
	DarkenBelow  uint8   `json:"darken_below,omitempty"`
	DarkenFactor float64 `json:"darken_factor,omitempty"`

	BlackBelow uint8 `json:"black_below"`
	WhiteAbove uint8 `json:"white_above"`
}

// BasicProfile boosts contrast and sharpness before snapping lines to black.
func BasicProfile() EnhanceProfile {
	return EnhanceProfile{
		Name:       "basic",
		Contrast:   2.0,
		Sharpness:  2.0,
		BlackBelow: 150,
		WhiteAbove: 200,
	}
}

// SuperProfile sharpens with an unsharp mask, stretches each channel and
// darkens dark greys before snapping.
func SuperProfile() EnhanceProfile {
	return EnhanceProfile{
		Name:               "super",
		Unsharp:            &UnsharpParams{Radius: 1.5, Percent: 200, Threshold: 3},
		AutoContrast:       true,
		AutoContrastCutoff: 5,
		DarkenBelow:        180,
		DarkenFactor:       0.6,
		BlackBelow:         150,
		WhiteAbove:         200,
	}
}

// ProfileByName returns one of the built-in profiles.
func ProfileByName(name string) (EnhanceProfile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "basic":
		return BasicProfile(), nil
	case "super":
		return SuperProfile(), nil
	}
	return EnhanceProfile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// Enhance applies the profile to img and returns a new image.
func Enhance(img image.Image, p EnhanceProfile) *image.NRGBA {
	out := ToNRGBA(img)
	if p.Unsharp != nil {
		out = UnsharpMask(out, *p.Unsharp)
	}
	if p.Contrast > 0 {
		out = Contrast(out, p.Contrast)
	}
	if p.Sharpness > 0 {
		out = Sharpness(out, p.Sharpness)
	}
	if p.AutoContrast {
		out = AutoContrast(out, p.AutoContrastCutoff)
	}
	if p.DarkenBelow > 0 && p.DarkenFactor > 0 {
		out = Darken(out, p.DarkenBelow, p.DarkenFactor)
	}
	return Snap(out, p.BlackBelow, p.WhiteAbove)
}

// EnhanceFile enhances the image at path and overwrites it.
func EnhanceFile(path string, p EnhanceProfile) error {
	img, err := Load(path)
	if err != nil {
		return err
	}
	log.Debug().Str("path", path).Str("profile", p.Name).Msg("enhancing icon")
	return Save(path, Enhance(img, p))
}

// EnhanceTargets enhances every existing target in place. Missing targets are
// reported with ErrSourceNotFound and do not stop the batch.
func EnhanceTargets(targets []Target, p EnhanceProfile) []TargetResult {
	return eachTarget(targets, func(t Target) error {
		return EnhanceFile(t.Path, p)
	})
}

func eachTarget(targets []Target, fn func(Target) error) []TargetResult {
	results := make([]TargetResult, 0, len(targets))
	for _, t := range targets {
		res := TargetResult{Target: t}
		if !exists(t.Path) {
			res.Err = fmt.Errorf("%w: %s", ErrSourceNotFound, t.Path)
		} else {
			res.Err = fn(t)
		}
		results = append(results, res)
	}
	return results
}
