package mixer

import "github.com/smartxaudio/rtpipeline/internal/errors"

// ComponentMixer is the errors-package component name for this package.
const ComponentMixer = "modules/mixer"

func init() {
	errors.RegisterComponent("internal/modules/mixer", ComponentMixer)
}

func invalidArg(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentMixer).
		Category(errors.CategoryInvalidArg).
		Build()
}

func invalidArgf(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(ComponentMixer).
		Category(errors.CategoryInvalidArg).
		Build()
}

func notInitialized(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentMixer).
		Category(errors.CategoryNotInitialized).
		Build()
}
