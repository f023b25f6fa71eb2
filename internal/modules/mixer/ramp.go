package mixer

// ramp linearly interpolates a plain scalar (not a dB quantity) from a
// current value to a target over a fixed period count, landing exactly
// on target at the last period. Used for balance, fader, gain-offset,
// and per-input enable factors (spec §4.9: "each scalar change is
// committed through a ramp in the underlying core with the core's ramp
// time").
type ramp struct {
	start, target float64
	totalPeriods  int
	elapsed       int
	current       float64
	active        bool
}

func (r *ramp) set(current, target float64, totalPeriods int) {
	if totalPeriods <= 0 {
		totalPeriods = 1
	}
	r.start = current
	r.target = target
	r.totalPeriods = totalPeriods
	r.elapsed = 0
	r.current = current
	r.active = true
}

func (r *ramp) advance() {
	if !r.active {
		return
	}
	r.elapsed++
	frac := float64(r.elapsed) / float64(r.totalPeriods)
	if frac >= 1 {
		r.current = r.target
		r.active = false
		return
	}
	r.current = r.start + (r.target-r.start)*frac
}
