package raster

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

var (
	opaqueBlack = color.NRGBA{0, 0, 0, 255}
	opaqueWhite = color.NRGBA{255, 255, 255, 255}
)

// TestSnap_Thresholds tests the black/white classification of single pixels
func TestSnap_Thresholds(t *testing.T) {
	tests := []struct {
		name string
		in   color.NRGBA
		want color.NRGBA
	}{
		{"dark grey becomes black", color.NRGBA{120, 140, 149, 200}, opaqueBlack},
		{"light grey becomes white", color.NRGBA{201, 230, 255, 90}, opaqueWhite},
		{"mid grey unchanged", color.NRGBA{170, 170, 170, 255}, color.NRGBA{170, 170, 170, 255}},
		{"mixed channels unchanged", color.NRGBA{10, 250, 10, 255}, color.NRGBA{10, 250, 10, 255}},
		{"boundary 150 unchanged", color.NRGBA{150, 150, 150, 255}, color.NRGBA{150, 150, 150, 255}},
		{"boundary 200 unchanged", color.NRGBA{200, 200, 200, 255}, color.NRGBA{200, 200, 200, 255}},
		{"transparent untouched", color.NRGBA{10, 10, 10, 0}, color.NRGBA{10, 10, 10, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Snap(newUniform(2, 2, tt.in), 150, 200)
			if got := out.NRGBAAt(1, 1); got != tt.want {
				t.Errorf("Snap(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestSnap_Idempotent tests that pure black and white survive repeated snapping
func TestSnap_Idempotent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.SetNRGBA(0, 0, opaqueBlack)
	img.SetNRGBA(1, 0, opaqueWhite)
	img.SetNRGBA(2, 0, color.NRGBA{90, 90, 90, 255})
	img.SetNRGBA(3, 0, color.NRGBA{180, 180, 180, 255})

	once := Snap(img, 150, 200)
	twice := Snap(once, 150, 200)
	for x := 0; x < 4; x++ {
		if once.NRGBAAt(x, 0) != twice.NRGBAAt(x, 0) {
			t.Errorf("Pixel %d changed on second pass: %v -> %v", x, once.NRGBAAt(x, 0), twice.NRGBAAt(x, 0))
		}
	}
}

// TestEnhance_Profiles tests that both profiles snap flat dark and light images
func TestEnhance_Profiles(t *testing.T) {
	for _, p := range []EnhanceProfile{BasicProfile(), SuperProfile()} {
		t.Run(p.Name, func(t *testing.T) {
			dark := Enhance(newUniform(8, 8, color.NRGBA{100, 100, 100, 255}), p)
			if got := dark.NRGBAAt(4, 4); got != opaqueBlack {
				t.Errorf("Dark pixel became %v, want black", got)
			}

			light := Enhance(newUniform(8, 8, color.NRGBA{230, 230, 230, 128}), p)
			if got := light.NRGBAAt(4, 4); got != opaqueWhite {
				t.Errorf("Light pixel became %v, want white", got)
			}

			again := Enhance(dark, p)
			if got := again.NRGBAAt(0, 0); got != opaqueBlack {
				t.Errorf("Black pixel not stable under %s: %v", p.Name, got)
			}
		})
	}
}

// TestEnhance_SuperDarkens tests the darkening step of the super profile
func TestEnhance_SuperDarkens(t *testing.T) {
	p := SuperProfile()
	p.BlackBelow = 0
	p.WhiteAbove = 255

	out := Enhance(newUniform(4, 4, color.NRGBA{170, 170, 170, 255}), p)
	if got := out.NRGBAAt(1, 1); got.R != 102 {
		t.Errorf("Expected 170*0.6=102, got %v", got)
	}
}

// TestProfileByName tests profile lookup
func TestProfileByName(t *testing.T) {
	if p, err := ProfileByName("Super"); err != nil || p.Name != "super" {
		t.Errorf("ProfileByName(Super) = %v, %v", p.Name, err)
	}
	if p, err := ProfileByName(""); err != nil || p.Name != "basic" {
		t.Errorf("Empty name should select basic, got %v, %v", p.Name, err)
	}
	if _, err := ProfileByName("extreme"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("Expected ErrUnknownProfile, got %v", err)
	}
}

// TestEnhanceTargets_MissingAndPresent tests the batch behaviour over files
func TestEnhanceTargets_MissingAndPresent(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, IconFileName(16), newUniform(16, 16, color.NRGBA{60, 60, 60, 255}))

	results := EnhanceTargets(IconTargets(dir, []int{16, 48}), BasicProfile())
	if results[0].Err != nil {
		t.Fatalf("Existing icon failed: %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, ErrSourceNotFound) {
		t.Errorf("Missing icon should report ErrSourceNotFound, got %v", results[1].Err)
	}

	img, err := Load(filepath.Join(dir, IconFileName(16)))
	if err != nil {
		t.Fatalf("Failed to reload enhanced icon: %v", err)
	}
	if got := img.NRGBAAt(8, 8); got != opaqueBlack {
		t.Errorf("Enhanced icon pixel = %v, want black", got)
	}
}

// TestContrast_MeanPreserved tests that contrast pivots around the mean luminance
func TestContrast_MeanPreserved(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{80, 80, 80, 255})
	img.SetNRGBA(1, 0, color.NRGBA{120, 120, 120, 255})

	out := Contrast(img, 2)
	if got := out.NRGBAAt(0, 0).R; got != 60 {
		t.Errorf("Expected 100+(80-100)*2=60, got %d", got)
	}
	if got := out.NRGBAAt(1, 0).R; got != 140 {
		t.Errorf("Expected 100+(120-100)*2=140, got %d", got)
	}

	same := Contrast(img, 1)
	if same.NRGBAAt(0, 0) != img.NRGBAAt(0, 0) {
		t.Error("Factor 1 should leave the image unchanged")
	}
}

// TestAutoContrast_Stretch tests histogram stretching without cutoff
func TestAutoContrast_Stretch(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{50, 50, 50, 255})
	img.SetNRGBA(1, 0, color.NRGBA{125, 125, 125, 255})
	img.SetNRGBA(2, 0, color.NRGBA{200, 200, 200, 255})

	out := AutoContrast(img, 0)
	if got := out.NRGBAAt(0, 0).R; got != 0 {
		t.Errorf("Darkest value should map to 0, got %d", got)
	}
	if got := out.NRGBAAt(2, 0).R; got != 255 {
		t.Errorf("Brightest value should map to 255, got %d", got)
	}
	if got := out.NRGBAAt(1, 0).R; got != 127 {
		t.Errorf("Midpoint should map to 127, got %d", got)
	}
}

// TestUnsharpMask_FlatImageUnchanged tests that flat regions are below the threshold
func TestUnsharpMask_FlatImageUnchanged(t *testing.T) {
	in := newUniform(10, 10, color.NRGBA{77, 88, 99, 255})
	out := UnsharpMask(in, UnsharpParams{Radius: 1, Percent: 150, Threshold: 3})
	if out.NRGBAAt(5, 5) != in.NRGBAAt(5, 5) {
		t.Errorf("Flat image changed: %v", out.NRGBAAt(5, 5))
	}
}

// TestUnsharpMask_BoostsEdges tests that an edge gains contrast
func TestUnsharpMask_BoostsEdges(t *testing.T) {
	img := newUniform(10, 10, color.NRGBA{100, 100, 100, 255})
	for y := 0; y < 10; y++ {
		for x := 5; x < 10; x++ {
			img.SetNRGBA(x, y, color.NRGBA{160, 160, 160, 255})
		}
	}

	out := UnsharpMask(img, UnsharpParams{Radius: 1, Percent: 150, Threshold: 3})
	if got := out.NRGBAAt(4, 5).R; got >= 100 {
		t.Errorf("Dark side of the edge should get darker, got %d", got)
	}
	if got := out.NRGBAAt(5, 5).R; got <= 160 {
		t.Errorf("Light side of the edge should get lighter, got %d", got)
	}
}

// TestLuminance_Rounds tests that luma is rounded, not truncated
func TestLuminance_Rounds(t *testing.T) {
	tests := []struct {
		c    color.NRGBA
		want uint8
	}{
		{color.NRGBA{0, 255, 0, 255}, 150},
		{color.NRGBA{255, 0, 0, 255}, 76},
		{color.NRGBA{0, 0, 255, 255}, 29},
		{color.NRGBA{128, 128, 128, 255}, 128},
		{color.NRGBA{255, 255, 255, 255}, 255},
	}
	for _, tt := range tests {
		if got := Luminance(tt.c); got != tt.want {
			t.Errorf("Luminance(%v) = %d, want %d", tt.c, got, tt.want)
		}
	}
}
