package pipeline

import "github.com/smartxaudio/rtpipeline/internal/errors"

// ComponentPipeline is the errors-package component name for this package.
const ComponentPipeline = "pipeline"

func init() {
	errors.RegisterComponent("internal/pipeline", ComponentPipeline)
}

// invalidArg builds an InvalidArg error for a rejected construction-phase
// argument: unknown pin, mismatched channel count, out-of-range value.
func invalidArg(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentPipeline).
		Category(errors.CategoryInvalidArg).
		Build()
}

func invalidArgf(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(ComponentPipeline).
		Category(errors.CategoryInvalidArg).
		Build()
}

// alreadyInitialized rejects a mutating call made after initAudioChain.
func alreadyInitialized(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentPipeline).
		Category(errors.CategoryAlreadyInit).
		Build()
}

// notInitialized rejects process()/IO calls made before initAudioChain.
func notInitialized(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentPipeline).
		Category(errors.CategoryNotInitialized).
		Build()
}

// cyclicDependency reports that initAudioChain could not schedule the
// immediate-edge subgraph.
func cyclicDependency(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentPipeline).
		Category(errors.CategoryCyclicDependency).
		Build()
}

// ioFailed wraps a ring-buffer or file access failure at a pipeline boundary.
func ioFailed(op string, err error) error {
	return errors.New(err).
		Component(ComponentPipeline).
		Category(errors.CategoryIoFailed).
		Context("operation", op).
		Build()
}

// wrapProcessing wraps a module's ProcessChild failure with the instance
// name that produced it, so a dropped period can be traced back to its
// source without the caller re-deriving which step failed.
func wrapProcessing(instanceName string, err error) error {
	return errors.New(err).
		Component(ComponentPipeline).
		Category(errors.CategoryProcessing).
		Context("module", instanceName).
		Build()
}

// noCapacity reports that the bundle sequencer was asked to assign more
// channels than it was provisioned for.
func noCapacity(msg string, capacity, used, requested int) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentPipeline).
		Category(errors.CategoryNoCapacity).
		Context("capacity", capacity).
		Context("used", used).
		Context("requested", requested).
		Build()
}
