package volume

// ramp interpolates a gain value (in dB internally, exposed as a linear
// amplitude factor) from a current value to a target over a fixed period
// count, reaching the target exactly on the last period (spec §8: "Ramp
// monotonicity ... endpoint value equals the target exactly at ramp
// end").
type ramp struct {
	shape        RampShape
	startDB      float64
	targetDB     float64
	totalPeriods int
	elapsed      int
	current      float64 // linear amplitude
	active       bool
}

func (r *ramp) start(currentLinear, targetLinear float64, totalPeriods int, shape RampShape) {
	if totalPeriods <= 0 {
		totalPeriods = 1
	}
	r.shape = shape
	r.startDB = linearToDB(currentLinear)
	r.targetDB = linearToDB(targetLinear)
	r.totalPeriods = totalPeriods
	r.elapsed = 0
	r.current = currentLinear
	r.active = true
}

// advance steps the ramp by one period and reports whether it just
// completed.
func (r *ramp) advance() (finished bool) {
	if !r.active {
		return false
	}
	r.elapsed++
	frac := float64(r.elapsed) / float64(r.totalPeriods)
	if frac >= 1 {
		frac = 1
	}

	switch r.shape {
	case Linear:
		startLin := dbToLinear(r.startDB)
		targetLin := dbToLinear(r.targetDB)
		r.current = startLin + (targetLin-startLin)*frac
	case Exponential:
		db := r.startDB + (r.targetDB-r.startDB)*frac
		r.current = dbToLinear(db)
	}

	if frac >= 1 {
		r.current = dbToLinear(r.targetDB)
		r.active = false
		return true
	}
	return false
}
