package usage

import "testing"

func TestNextWeightSingleTouch(t *testing.T) {
	if got := NextWeight(0, 0.1); got != 0.1 {
		t.Fatalf("NextWeight(0, 0.1) = %f, want 0.1", got)
	}
}

func TestNextWeightSaturates(t *testing.T) {
	w := 0.0
	prev := w
	for i := 0; i < 1000; i++ {
		w = NextWeight(w, 0.1)
		if w <= prev {
			t.Fatalf("touch %d: weight %f did not strictly increase from %f", i, w, prev)
		}
		if w >= 1.0 {
			t.Fatalf("touch %d: weight %f reached 1.0", i, w)
		}
		prev = w
	}
	if w < 0.99 {
		t.Fatalf("after 1000 touches weight = %f, expected near 1", w)
	}
}

func TestPresetFactors(t *testing.T) {
	cases := []struct {
		preset Preset
		want   float64
	}{
		{PresetLow, 0.01},
		{PresetMedium, 0.03},
		{PresetHigh, 0.1},
	}
	for _, c := range cases {
		if got := c.preset.Factor(); got != c.want {
			t.Fatalf("%s factor = %f, want %f", c.preset, got, c.want)
		}
	}
}

func TestParsePreset(t *testing.T) {
	if _, err := ParsePreset("medium"); err != nil {
		t.Fatalf("valid preset rejected: %v", err)
	}
	if _, err := ParsePreset("turbo"); err == nil {
		t.Fatal("invalid preset accepted")
	}
}

func TestClamp01(t *testing.T) {
	if Clamp01(1.5) != 1.0 {
		t.Fatal("1.5 should clamp to 1")
	}
	if Clamp01(-0.2) != 0.0 {
		t.Fatal("-0.2 should clamp to 0")
	}
	if Clamp01(0.42) != 0.42 {
		t.Fatal("in-range value must pass through")
	}
}
