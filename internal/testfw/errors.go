package testfw

import "github.com/smartxaudio/rtpipeline/internal/errors"

// ComponentTestfw is the errors-package component name for this package.
const ComponentTestfw = "testfw"

func init() {
	errors.RegisterComponent("internal/testfw", ComponentTestfw)
}

func invalidArg(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentTestfw).
		Category(errors.CategoryInvalidArg).
		Build()
}

func invalidArgf(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(ComponentTestfw).
		Category(errors.CategoryInvalidArg).
		Build()
}

func ioFailed(op string, err error) error {
	return errors.New(err).
		Component(ComponentTestfw).
		Category(errors.CategoryIoFailed).
		Context("operation", op).
		Build()
}
