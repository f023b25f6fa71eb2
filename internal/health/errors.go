package health

import "github.com/smartxaudio/rtpipeline/internal/errors"

// ComponentHealth is the errors-package component name for this package.
const ComponentHealth = "health"

func init() {
	errors.RegisterComponent("internal/health", ComponentHealth)
}

func invalidArg(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Component(ComponentHealth).
		Category(errors.CategoryInvalidArg).
		Build()
}
