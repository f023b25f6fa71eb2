package equalizer

import "github.com/smartxaudio/rtpipeline/internal/errors"

// ComponentEqualizer is the errors-package component name for this package.
const ComponentEqualizer = "modules/equalizer"

func init() {
	errors.RegisterComponent("internal/modules/equalizer", ComponentEqualizer)
}

func invalidArg(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentEqualizer).
		Category(errors.CategoryInvalidArg).
		Build()
}

func invalidArgf(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(ComponentEqualizer).
		Category(errors.CategoryInvalidArg).
		Build()
}

func noSpaceLeft(requested, max int) error {
	return errors.Newf("filter count %d exceeds configured maximum %d", requested, max).
		Component(ComponentEqualizer).
		Category(errors.CategoryNoSpaceLeft).
		Context("requested", requested).
		Context("max", max).
		Build()
}

func notInitialized(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentEqualizer).
		Category(errors.CategoryNotInitialized).
		Build()
}
