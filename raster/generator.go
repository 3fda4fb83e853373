package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/rs/zerolog/log"
)

// Stone is a filled circle placed on a grid intersection.
// Light stones use IconStyle.LightStone, the rest use IconStyle.DarkStone.
type Stone struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Light bool `json:"light,omitempty"`
}

// IconStyle describes the grid-and-stones icon. Ratios are relative to the
// supersampled canvas, except StoneRadiusRatio which is relative to a cell.
type IconStyle struct {
	// Scale is the supersampling factor; the canvas is Scale times the output size.
	Scale     int
	GridCount int

	LineWidthRatio   float64
	OutlineRatio     float64
	StoneRadiusRatio float64

	Background color.Color
	Grid       color.Color
	DarkStone  color.Color
	LightStone color.Color
	Outline    color.Color

	Stones []Stone
}

// DefaultStones is the cross formation centred on the middle intersection.
func DefaultStones() []Stone {
	return []Stone{
		{X: 1, Y: 1},
		{X: 2, Y: 1},
		{X: 1, Y: 2},
		{X: 1, Y: 0, Light: true},
		{X: 0, Y: 1, Light: true},
	}
}

// DefaultIconStyle returns the black-on-white style with a 3x3 grid.
func DefaultIconStyle() IconStyle {
	return IconStyle{
		Scale:            8,
		GridCount:        3,
		LineWidthRatio:   0.035,
		OutlineRatio:     0.015,
		StoneRadiusRatio: 0.49,
		Background:       color.NRGBA{255, 255, 255, 255},
		Grid:             color.NRGBA{0, 0, 0, 255},
		DarkStone:        color.NRGBA{0, 0, 0, 255},
		LightStone:       color.NRGBA{255, 255, 255, 255},
		Outline:          color.NRGBA{0, 0, 0, 255},
		Stones:           DefaultStones(),
	}
}

// Validate checks that the style can be rendered.
func (s IconStyle) Validate() error {
	if s.Scale < 1 {
		return errors.New("scale must be at least 1")
	}
	if s.GridCount < 1 {
		return errors.New("grid count must be at least 1")
	}
	if s.LineWidthRatio < 0 || s.OutlineRatio < 0 || s.StoneRadiusRatio < 0 {
		return errors.New("ratios must not be negative")
	}
	for _, c := range []color.Color{s.Background, s.Grid, s.DarkStone, s.LightStone, s.Outline} {
		if c == nil {
			return errors.New("all style colours must be set")
		}
	}
	for _, st := range s.Stones {
		if st.X < 0 || st.Y < 0 || st.X >= s.GridCount || st.Y >= s.GridCount {
			return fmt.Errorf("stone (%d,%d) is outside the %dx%d grid", st.X, st.Y, s.GridCount, s.GridCount)
		}
	}
	return nil
}

// RenderIcon draws the icon on a supersampled canvas and resamples it down to
// size x size with a Lanczos filter.
func RenderIcon(size int, style IconStyle) (*image.NRGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if err := style.Validate(); err != nil {
		return nil, err
	}

	canvasSize := size * style.Scale
	extent := float64(canvasSize)
	dc := gg.NewContext(canvasSize, canvasSize)

	dc.SetColor(style.Background)
	dc.Clear()

	cell := canvasSize / style.GridCount
	lineWidth := int(extent * style.LineWidthRatio)
	if lineWidth > 0 {
		dc.SetLineCapButt()
		dc.SetLineWidth(float64(lineWidth))
		dc.SetColor(style.Grid)
		for i := 0; i < style.GridCount; i++ {
			p := float64(i*cell + cell/2)
			dc.DrawLine(p, 0, p, extent)
			dc.DrawLine(0, p, extent, p)
		}
		dc.Stroke()
	}

	radius := float64(int(float64(cell) * style.StoneRadiusRatio))
	outlineWidth := max(1, int(extent*style.OutlineRatio))
	for _, st := range style.Stones {
		cx := float64(st.X*cell + cell/2)
		cy := float64(st.Y*cell + cell/2)

		fill := style.DarkStone
		if st.Light {
			fill = style.LightStone
		}
		dc.DrawCircle(cx, cy, radius)
		dc.SetColor(fill)
		dc.Fill()

		// The outline sits inside the stone's bounding circle.
		inset := radius - float64(outlineWidth)/2
		if inset > 0 {
			dc.DrawCircle(cx, cy, inset)
			dc.SetLineWidth(float64(outlineWidth))
			dc.SetColor(style.Outline)
			dc.Stroke()
		}
	}

	log.Debug().
		Int("size", size).
		Int("canvas", canvasSize).
		Int("cell", cell).
		Int("line_width", lineWidth).
		Float64("radius", radius).
		Msg("icon rendered")

	return imaging.Resize(dc.Image(), size, size, imaging.Lanczos), nil
}

// GenerateIcons renders one icon per size into dir as icon<size>.png.
// A failure on one size is recorded in its result and the remaining sizes
// are still produced.
func GenerateIcons(dir string, sizes []int, style IconStyle) ([]TargetResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]TargetResult, 0, len(sizes))
	for _, t := range IconTargets(dir, sizes) {
		res := TargetResult{Target: t}
		img, err := RenderIcon(t.Size, style)
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
