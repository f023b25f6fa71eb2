package volume

import "math"

// biquad is a transposed Direct Form II peaking-EQ section used for one loudness
// band. Loudness bands are modeled as peaking filters centered at each
// band's configured frequency (spec glossary: "a set of N biquad filter
// bands"); the per-band gain is recomputed from the LoudnessTable once
// per period, not per sample.
type biquad struct {
	b0, b1, b2 float32
	a1, a2     float32
	z1, z2     float32
}

func (b *biquad) process(x float32) float32 {
	y := b.b0*x + b.z1
	b.z1 = b.b1*x - b.a1*y + b.z2
	b.z2 = b.b2*x - b.a2*y
	return y
}

// setPeaking synthesizes RBJ peaking-EQ coefficients for freqHz/qualityQ
// at gainLinear (amplitude ratio), sampleRate in Hz.
func (b *biquad) setPeaking(freqHz, qualityQ, gainLinear, sampleRate float64) {
	w0 := 2 * math.Pi * freqHz / sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * qualityQ)
	A := math.Sqrt(gainLinear)

	b0 := 1 + alpha*A
	b1 := -2 * cosW0
	b2 := 1 - alpha*A
	a0 := 1 + alpha/A
	a1 := -2 * cosW0
	a2 := 1 - alpha/A

	b.b0 = float32(b0 / a0)
	b.b1 = float32(b1 / a0)
	b.b2 = float32(b2 / a0)
	b.a1 = float32(a1 / a0)
	b.a2 = float32(a2 / a0)
}
