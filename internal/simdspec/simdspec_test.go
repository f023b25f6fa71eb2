package simdspec

import "testing"

func TestDeterminePerformanceCoresIntel(t *testing.T) {
	cases := map[string]int{
		"Intel(R) Core(TM) i9-13900K":       8,
		"Intel(R) Core(TM) i5-12600K":       6,
		"Intel(R) Core(TM) Ultra 9 285K":    8,
		"Intel(R) Core(TM) Ultra 5 225":     4,
		"Some Unrelated CPU Brand":          0,
	}
	for brand, want := range cases {
		got := determinePerformanceCores(brand)
		if got != want {
			t.Errorf("determinePerformanceCores(%q) = %d, want %d", brand, got, want)
		}
	}
}

func TestDeterminePerformanceCoresAppleSilicon(t *testing.T) {
	cases := map[string]int{
		"Apple M1":     4,
		"Apple M1 Max": 8,
		"Apple M3 Pro": 8,
		"Apple M4":     6,
	}
	for brand, want := range cases {
		got := determinePerformanceCores(brand)
		if got != want {
			t.Errorf("determinePerformanceCores(%q) = %d, want %d", brand, got, want)
		}
	}
}

func TestOptimalZoneWorkersCapsAtAvailableCPUs(t *testing.T) {
	spec := CPUSpec{BrandName: "test", PerformanceCores: 1 << 20}
	got := spec.OptimalZoneWorkers()
	if got <= 0 {
		t.Fatalf("OptimalZoneWorkers() = %d, want a positive, capped value", got)
	}
}

func TestOptimalZoneWorkersFallsBackWithoutPerformanceCores(t *testing.T) {
	spec := CPUSpec{BrandName: "unknown", PerformanceCores: 0}
	if got := spec.OptimalZoneWorkers(); got <= 0 {
		t.Fatalf("OptimalZoneWorkers() = %d, want a positive fallback", got)
	}
}
