//go:build ignore
// +build ignore

// makefixture writes a sample source image and a sample extension archive
// for trying out the iconkit commands by hand:
//
//	go run scripts/makefixture.go [dir]
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/kacebover/iconkit/archive"
	"github.com/kacebover/iconkit/raster"
)

const sourceSize = 512

func main() {
	baseDir := "fixtures"
	if len(os.Args) > 1 {
		baseDir = os.Args[1]
	}

	fmt.Println("📁 Creating fixtures in", baseDir)

	source := filepath.Join(baseDir, "icon_source.png")
	if err := writeSource(source); err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ Source image:", source)

	extDir := filepath.Join(baseDir, "extension")
	if err := writeExtension(extDir); err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}

	zipPath := filepath.Join(baseDir, "extension.zip")
	result, err := archive.Pack(extDir, zipPath, archive.PackOptions{})
	if err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Extension archive: %s (%d files)\n", result.OutputPath, len(result.Entries))
}

// writeSource draws a soft grey board with anti-aliased stones, the kind of
// blurry artwork the enhance and thicken passes are meant to clean up.
func writeSource(path string) error {
	dc := gg.NewContext(sourceSize, sourceSize)
	dc.SetRGB255(236, 236, 236)
	dc.Clear()

	step := float64(sourceSize) / 3
	dc.SetRGB255(60, 60, 60)
	dc.SetLineWidth(14)
	for i := 0; i < 3; i++ {
		p := step*float64(i) + step/2
		dc.DrawLine(p, 0, p, sourceSize)
		dc.DrawLine(0, p, sourceSize, p)
	}
	dc.Stroke()

	for _, s := range raster.DefaultStones() {
		cx := step*float64(s.X) + step/2
		cy := step*float64(s.Y) + step/2
		dc.DrawCircle(cx, cy, step*0.45)
		if s.Light {
			dc.SetRGB255(245, 245, 245)
		} else {
			dc.SetRGB255(40, 40, 40)
		}
		dc.FillPreserve()
		dc.SetRGB255(70, 70, 70)
		dc.SetLineWidth(6)
		dc.Stroke()
	}

	return raster.Save(path, dc.Image())
}

func writeExtension(dir string) error {
	files := map[string]string{
		"manifest.json": `{"manifest_version": 3, "name": "Fixture Extension", "version": "2.0.2"}`,
		"main.js":       "const VERSION = 'v2.0.2';\nconsole.log(`fixture ${VERSION}`); // built from v2.0.2\n",
	}
	for name, content := range files {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return err
		}
	}

	results, err := raster.GenerateIcons(filepath.Join(dir, "icons"), []int{16, 48, 128}, raster.DefaultIconStyle())
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
