package testfw

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/smartxaudio/rtpipeline/internal/logging"
	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

// InputPort and OutputPort alias the pipeline package's port interfaces
// so harness code can name them without importing pipeline directly at
// every call site.
type InputPort = pipeline.InputPort
type OutputPort = pipeline.OutputPort

// RoutingZone drives one pipeline end to end, period by period, pulling
// from an InputPort per pipeline-input pin and pushing to an OutputPort
// per pipeline-output pin (spec §4.2's "routing zone": an independently
// schedulable pipeline instance). It is the offline harness's stand-in
// for the real-time audio daemon's period callback.
type RoutingZone struct {
	id       string
	pipeline *pipeline.Pipeline
	inputs   map[*pipeline.Pin]InputPort
	outputs  map[*pipeline.Pin]OutputPort
	logger   *slog.Logger
}

// NewRoutingZone wires a zone around an already-constructed (but not yet
// necessarily initialized) pipeline.
func NewRoutingZone(id string, p *pipeline.Pipeline) *RoutingZone {
	logger := logging.ForService("testfw.routingzone")
	if logger == nil {
		logger = slog.Default()
	}
	return &RoutingZone{
		id:       id,
		pipeline: p,
		inputs:   make(map[*pipeline.Pin]InputPort),
		outputs:  make(map[*pipeline.Pin]OutputPort),
		logger:   logger.With("zone", id),
	}
}

// BindInput attaches port as the source for a pipeline-input pin.
func (z *RoutingZone) BindInput(pin *pipeline.Pin, port InputPort) {
	z.inputs[pin] = port
}

// BindOutput attaches port as the sink for a pipeline-output pin.
func (z *RoutingZone) BindOutput(pin *pipeline.Pin, port OutputPort) {
	z.outputs[pin] = port
}

// RunPeriods drives count periods: for each, it pulls a full period's
// worth of frames into every bound input pin, calls Process, then pushes
// a full period's worth of frames out of every bound output pin.
func (z *RoutingZone) RunPeriods(ctx context.Context, count int) error {
	periodFrames := z.pipeline.PeriodFrames()
	for n := 0; n < count; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for pin, port := range z.inputs {
			if _, err := z.pipeline.ProvideInputData(pin, port, periodFrames); err != nil {
				return err
			}
		}
		if err := z.pipeline.Process(); err != nil {
			return err
		}
		for pin, port := range z.outputs {
			if err := z.pipeline.RetrieveOutputData(pin, port, periodFrames, 0); err != nil {
				return err
			}
		}
	}
	z.logger.Info("ran periods", "count", count)
	return nil
}

// RunZones drives multiple independent routing zones concurrently for
// count periods each, one goroutine per zone, failing fast on the first
// error (spec §5: "routing zones do not share mutable state across
// threads other than through the scheduler itself").
func RunZones(ctx context.Context, count int, zones ...*RoutingZone) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, z := range zones {
		z := z
		g.Go(func() error {
			return z.RunPeriods(gctx, count)
		})
	}
	return g.Wait()
}
