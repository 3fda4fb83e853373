package raster

import "testing"

// BenchmarkRenderIcon128 benchmarks drawing the largest default icon
func BenchmarkRenderIcon128(b *testing.B) {
	style := DefaultIconStyle()
	for i := 0; i < b.N; i++ {
		if _, err := RenderIcon(128, style); err != nil {
			b.Fatalf("RenderIcon failed: %v", err)
		}
	}
}

func benchmarkEnhance(b *testing.B, p EnhanceProfile) {
	img := newChecker(128, 8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Enhance(img, p)
	}
}

// BenchmarkEnhanceBasic benchmarks the basic profile on a 128px icon
func BenchmarkEnhanceBasic(b *testing.B) {
	benchmarkEnhance(b, BasicProfile())
}

// BenchmarkEnhanceSuper benchmarks the super profile on a 128px icon
func BenchmarkEnhanceSuper(b *testing.B) {
	benchmarkEnhance(b, SuperProfile())
}

// BenchmarkThicken benchmarks two thicken passes on a 128px icon
func BenchmarkThicken(b *testing.B) {
	img := newChecker(128, 8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Thicken(img, 2)
	}
}
