package plugin

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

type categorized interface {
	GetCategory() string
}

func requireCategory(t *testing.T, err error, category string) {
	t.Helper()
	require.Error(t, err)
	c, ok := err.(categorized)
	require.True(t, ok, "error %v does not expose a category", err)
	require.Equal(t, category, c.GetCategory())
}

type noopCmd struct{}

func (noopCmd) ProcessCmd(_, _ *pipeline.Properties) error { return nil }

func stubFactory(instanceName string, config *pipeline.Properties) (*pipeline.ProcessingModule, error) {
	m := pipeline.NewProcessingModule("stub", instanceName, nil, noopCmd{})
	m.Config = config
	return m, nil
}

func TestRegisterStaticRejectsDuplicateTypeName(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.RegisterStatic("stub", stubFactory))
	err := e.RegisterStatic("stub", stubFactory)
	requireCategory(t, err, "conflict")
}

func TestCreateModuleInjectsTypeAndInstanceName(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.RegisterStatic("stub", stubFactory))

	module, err := e.CreateModule("stub", "stub-1", nil)
	require.NoError(t, err)
	typeName, err := pipeline.GetString(module.Config, "typeName")
	require.NoError(t, err)
	require.Equal(t, "stub", typeName)
	instanceName, err := pipeline.GetString(module.Config, "instanceName")
	require.NoError(t, err)
	require.Equal(t, "stub-1", instanceName)
}

func TestCreateModuleUnknownTypeIsNotFound(t *testing.T) {
	e := NewEngine(nil)
	_, err := e.CreateModule("missing", "i1", nil)
	requireCategory(t, err, "not-found")
}

func TestCreateModuleRegistersCmdWhenDispatcherPresent(t *testing.T) {
	dispatcher := pipeline.NewCmdDispatcher()
	e := NewEngine(dispatcher)
	require.NoError(t, e.RegisterStatic("stub", stubFactory))

	_, err := e.CreateModule("stub", "stub-1", nil)
	require.NoError(t, err)

	// A second module reusing the same instance name collides with the
	// dispatcher's registration, proving CreateModule actually registered it.
	_, err = e.CreateModule("stub", "stub-1", nil)
	require.Error(t, err)
}

func TestCreateModuleLeavesDispatcherAloneWhenNil(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.RegisterStatic("stub", stubFactory))

	_, err := e.CreateModule("stub", "stub-1", nil)
	require.NoError(t, err)
	// Creating the same instance name again never collides: no dispatcher
	// means CreateModule never registers a Cmd anywhere.
	_, err = e.CreateModule("stub", "stub-1", nil)
	require.NoError(t, err)
}

func TestRegisteredTypesSorted(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.RegisterStatic("zeta", stubFactory))
	require.NoError(t, e.RegisterStatic("alpha", stubFactory))
	require.Equal(t, []string{"alpha", "zeta"}, e.RegisteredTypes())
}

func TestLoadDirectoryFailsOnMissingDirectory(t *testing.T) {
	e := NewEngine(nil)
	err := e.LoadDirectory("/no/such/plugin/directory")
	requireCategory(t, err, "plugin-load-failed")
}

func TestLoadDirectoryFailsWhenNoLibrariesFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/not-a-plugin.txt", []byte("x"), 0o644))

	e := NewEngine(nil)
	err := e.LoadDirectory(dir)
	requireCategory(t, err, "plugin-load-failed")
}

func TestLoadedLibrariesEmptyByDefault(t *testing.T) {
	e := NewEngine(nil)
	require.Empty(t, e.LoadedLibraries())
}
