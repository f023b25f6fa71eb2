package mixer

import "math"

// cCutOff is the balance/fader magnitude (tenths of dB) beyond which the
// attenuated channel is muted exactly, rather than merely very quiet
// (spec §4.9).
const cCutOff = 1440

func dbTenthsToLinear(dbTenths int32) float64 {
	return math.Pow(10, float64(dbTenths)/10/20)
}

// balanceGains computes the (left, right) linear gain pair for a balance
// or fader value expressed in tenths of dB (spec §4.9): negative
// attenuates the second channel of the pair, positive the first;
// |value| ≥ cCutOff mutes the attenuated channel exactly.
func balanceGains(value int32) (first, second float64) {
	if value < 0 {
		first = 1
		if -value >= cCutOff {
			second = 0
		} else {
			second = math.Pow(10, float64(value)/200)
		}
		return first, second
	}
	second = 1
	if value >= cCutOff {
		first = 0
	} else {
		first = math.Pow(10, -float64(value)/200)
	}
	return first, second
}

// StreamMapping records that inputName contributes to outputName (spec
// §4.9: "each output stream is a sum of the input streams mapped to it
// per addStreamMapping").
type StreamMapping struct {
	InputName  string
	OutputName string
}
