package volume

import "github.com/smartxaudio/rtpipeline/internal/errors"

// ComponentVolume is the errors-package component name for this package.
const ComponentVolume = "modules/volume"

func init() {
	errors.RegisterComponent("internal/modules/volume", ComponentVolume)
}

func invalidArg(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentVolume).
		Category(errors.CategoryInvalidArg).
		Build()
}

func invalidArgf(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(ComponentVolume).
		Category(errors.CategoryInvalidArg).
		Build()
}

func notInitialized(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentVolume).
		Category(errors.CategoryNotInitialized).
		Build()
}
