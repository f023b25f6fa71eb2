package plugin

import "github.com/smartxaudio/rtpipeline/internal/errors"

func errConflict(typeName string) error {
	return errors.Newf("module type %q already registered", typeName).
		Component(ComponentPlugin).
		Category(errors.CategoryConflict).
		Build()
}

func errNotFound(typeName string) error {
	return errors.Newf("no factory registered for module type %q", typeName).
		Component(ComponentPlugin).
		Category(errors.CategoryNotFound).
		Build()
}

func errPluginLoadFailed(context string, cause error) error {
	return errors.New(cause).
		Component(ComponentPlugin).
		Category(errors.CategoryPluginLoadFailed).
		Context("context", context).
		Build()
}
