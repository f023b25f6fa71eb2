package mixer

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

// TestBalanceGainsAreMirrorSymmetric checks spec §8's "Balance symmetry"
// property directly against the pure gain function: setting a balance of
// x and of -x must produce exactly swapped (left, right) gain pairs for
// every magnitude in range, not just a sampled few.
func TestBalanceGainsAreMirrorSymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.Int32Range(-cCutOff, cCutOff).Draw(t, "value")

		posFirst, posSecond := balanceGains(value)
		negFirst, negSecond := balanceGains(-value)

		if posFirst != negSecond || posSecond != negFirst {
			t.Fatalf("balanceGains(%d) = (%v, %v) is not the mirror of balanceGains(%d) = (%v, %v)",
				value, posFirst, posSecond, -value, negFirst, negSecond)
		}
	})
}

// TestCoreBalanceEndToEndIsMirrorSymmetric drives the full mixer core
// through enough periods to settle a balance ramp, then checks the same
// symmetry holds on actual processed stereo output: a balanced input run
// through SetBalance(x) and, separately, SetBalance(-x) must produce
// left/right channels that are exact swaps of each other (spec §8's
// scenario 5 generalized to arbitrary magnitudes).
func TestCoreBalanceEndToEndIsMirrorSymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.Int32Range(1, cCutOff).Draw(t, "value")

		leftOut, rightOut := processBalancedStereo(t, value)
		leftMirror, rightMirror := processBalancedStereo(t, -value)

		if len(leftOut) != len(rightMirror) || len(rightOut) != len(leftMirror) {
			t.Fatalf("mismatched output lengths")
		}
		for i := range leftOut {
			if leftOut[i] != rightMirror[i] || rightOut[i] != leftMirror[i] {
				t.Fatalf("balance %d output is not the mirror of balance %d at frame %d: (%v,%v) vs (%v,%v)",
					value, -value, i, leftOut[i], rightOut[i], leftMirror[i], rightMirror[i])
			}
		}
	})
}

// processBalancedStereo runs one period of input {1, 2, 3, ...} on both
// channels through a mixer core with rampPeriods=1 (settles in one call
// to ProcessChild) and the given balance, returning the (left, right)
// output buffers.
func processBalancedStereo(t *rapid.T, balance int32) ([]float32, []float32) {
	const periodFrames = 8

	core := NewCore(1)
	core.AddStreamMapping("in", "out")

	seq := pipeline.NewBundleSequencer(4, periodFrames, 4)
	in, err := pipeline.NewTestStream("in", 2, seq, periodFrames)
	if err != nil {
		t.Fatalf("NewTestStream(in): %v", err)
	}
	out, err := pipeline.NewTestStream("out", 2, seq, periodFrames)
	if err != nil {
		t.Fatalf("NewTestStream(out): %v", err)
	}

	left := make([]float32, periodFrames)
	right := make([]float32, periodFrames)
	for i := range left {
		left[i] = float32(i + 1)
		right[i] = float32(i + 1)
	}
	if err := in.WriteFromNonInterleaved([][]float32{left, right}); err != nil {
		t.Fatalf("WriteFromNonInterleaved: %v", err)
	}

	if err := core.BindInputStream("in", in); err != nil {
		t.Fatalf("BindInputStream: %v", err)
	}
	if err := core.BindOutputStream("out", out); err != nil {
		t.Fatalf("BindOutputStream: %v", err)
	}

	if err := core.SetBalance("in", balance); err != nil {
		t.Fatalf("SetBalance(%d): %v", balance, err)
	}
	if err := core.ProcessChild(); err != nil {
		t.Fatalf("ProcessChild: %v", err)
	}

	result := make([][]float32, 2)
	result[0] = make([]float32, periodFrames)
	result[1] = make([]float32, periodFrames)
	if err := out.Read(result); err != nil {
		t.Fatalf("Read: %v", err)
	}
	return result[0], result[1]
}
