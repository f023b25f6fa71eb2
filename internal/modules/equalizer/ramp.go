package equalizer

// gainRamp tracks a peak/shelving filter's gain trajectory. The gain
// advances once per audio frame by multiplying toward target by `factor`
// (spec §4.7: "gradient dB/frame"; original_source's IasEqualizerCore.hpp
// applies its gradient the same way, "for each audio frame").
type gainRamp struct {
	current float64
	target  float64
	factor  float64 // > 1 when rising toward target, < 1 when falling
	active  bool
}

// start begins a ramp from current toward target using the given
// dimensionless per-frame multiplier. The caller may pass the factor
// either way round; start inverts it as needed so it is > 1 when rising
// and < 1 when falling.
func (r *gainRamp) start(target float64, factor float64) {
	r.target = target
	if target >= r.current {
		if factor < 1 {
			factor = 1 / factor
		}
	} else {
		if factor > 1 {
			factor = 1 / factor
		}
	}
	r.factor = factor
	r.active = true
}

// advance steps the ramp by one audio frame, clamping to target on
// overshoot and reporting whether the ramp just completed.
func (r *gainRamp) advance() (finished bool) {
	if !r.active {
		return false
	}
	next := r.current * r.factor
	rising := r.target >= r.current
	if (rising && next >= r.target) || (!rising && next <= r.target) {
		r.current = r.target
		r.active = false
		return true
	}
	r.current = next
	return false
}
