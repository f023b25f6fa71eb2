// Package plugin loads processing-module factories, either from an
// in-process static registry (the engine's built-in modules) or from
// shared libraries discovered on disk at startup.
package plugin

import (
	"log/slog"
	"os"
	"path/filepath"
	goplugin "plugin"
	"sort"
	"strings"
	"sync"

	"github.com/smartxaudio/rtpipeline/internal/errors"
	"github.com/smartxaudio/rtpipeline/internal/logging"
	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

// ComponentPlugin is the errors-package component name for this package.
const ComponentPlugin = "plugin"

func init() {
	errors.RegisterComponent("internal/plugin", ComponentPlugin)
}

// expectedDescriptorInfo is the info string a discovered library's
// descriptor must report to be retained (spec §4.6: "smartx-audio-modules").
const expectedDescriptorInfo = "smartx-audio-modules"

// defaultPluginDir is the directory scanned when AUDIO_PLUGIN_DIR is unset.
const defaultPluginDir = "/usr/lib64/smartx-plugin"

// pluginDirEnvVar overrides defaultPluginDir.
const pluginDirEnvVar = "AUDIO_PLUGIN_DIR"

// Factory builds a new ProcessingModule instance bound to config. config
// already carries the engine-injected "typeName"/"instanceName" properties
// by the time Factory is called.
type Factory func(instanceName string, config *pipeline.Properties) (*pipeline.ProcessingModule, error)

// ModuleTypeInfo is one (typeName, factory) pair exported by a library or
// registered statically.
type ModuleTypeInfo struct {
	TypeName string
	Factory  Factory
}

// Descriptor is the Go-native replacement for the C-ABI library descriptor
// spec §4.6 describes (`create()` returning a module name plus a set of
// `(typeName, factory, destroyer)` tuples). A loadable plugin exports a
// package-level variable named "Descriptor" of this type instead of
// C-linkage `create`/`destroy` symbols, since the standard `plugin`
// package resolves exported Go identifiers, not C symbols (open question,
// resolved in DESIGN.md: this repo keeps the factory-by-type-name
// contract and the directory/env-override discovery mechanics, expressed
// through Go's own plugin ABI rather than cgo).
type Descriptor struct {
	Info        string
	LibraryName string
	Types       []ModuleTypeInfo
}

// Engine holds the factory registry (static entries plus anything
// discovered from shared libraries) keyed by module type name.
type Engine struct {
	mu        sync.RWMutex
	factories map[string]Factory
	libraries []string // names of libraries successfully loaded, for diagnostics

	dispatcher *pipeline.CmdDispatcher
	logger     *slog.Logger
}

// NewEngine returns an engine with no registered module types. Built-in
// module types are added explicitly by the host program via
// RegisterStatic.
func NewEngine(dispatcher *pipeline.CmdDispatcher) *Engine {
	logger := logging.ForService("plugin")
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		factories:  make(map[string]Factory),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterStatic adds a compile-time factory for typeName, the "static
// registry at compile time" alternative to directory scanning spec §4.6
// explicitly allows. Fails Conflict if typeName is already registered.
func (e *Engine) RegisterStatic(typeName string, factory Factory) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.factories[typeName]; exists {
		return errConflict(typeName)
	}
	e.factories[typeName] = factory
	return nil
}

// LoadDirectory scans dir (or, if dir is empty, the AUDIO_PLUGIN_DIR
// environment variable, or defaultPluginDir if that too is unset) for
// shared libraries (*.so) exporting a "Descriptor" variable of type
// Descriptor. Libraries whose descriptor's Info field does not match
// expectedDescriptorInfo are ignored with a warning, matching spec §4.6's
// "only libraries whose descriptor reports the engine's expected info
// string are retained; others are ignored with a warning". Returns
// PluginLoadFailed if the directory has no entries or contributes no
// module types at all.
func (e *Engine) LoadDirectory(dir string) error {
	if dir == "" {
		dir = os.Getenv(pluginDirEnvVar)
	}
	if dir == "" {
		dir = defaultPluginDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errPluginLoadFailed("reading plugin directory "+dir, err)
	}

	var soFiles []string
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".so") {
			continue
		}
		soFiles = append(soFiles, ent.Name())
	}
	sort.Strings(soFiles) // deterministic load order across runs

	if len(soFiles) == 0 {
		return errPluginLoadFailed("no plugin libraries found in "+dir, errors.NewStd("empty directory"))
	}

	loadedTypes := 0
	for _, name := range soFiles {
		path := filepath.Join(dir, name)
		n, err := e.loadOne(path)
		if err != nil {
			e.logger.Warn("plugin library rejected", "path", path, "error", err)
			continue
		}
		loadedTypes += n
	}

	if loadedTypes == 0 {
		return errPluginLoadFailed(dir, errors.NewStd("no module types registered by any library"))
	}
	return nil
}

func (e *Engine) loadOne(path string) (int, error) {
	lib, err := goplugin.Open(path)
	if err != nil {
		return 0, err
	}
	sym, err := lib.Lookup("Descriptor")
	if err != nil {
		return 0, err
	}
	desc, ok := sym.(*Descriptor)
	if !ok {
		return 0, errors.New(errors.NewStd("Descriptor symbol has unexpected type")).
			Component(ComponentPlugin).
			Category(errors.CategoryPluginLoadFailed).
			Context("path", path).
			Build()
	}
	if desc.Info != expectedDescriptorInfo {
		e.logger.Warn("plugin library advertises unexpected info string, ignoring",
			"path", path, "info", desc.Info)
		return 0, nil
	}

	registered := 0
	e.mu.Lock()
	for _, t := range desc.Types {
		if _, exists := e.factories[t.TypeName]; exists {
			e.logger.Warn("plugin module type already registered, skipping",
				"type", t.TypeName, "library", desc.LibraryName)
			continue
		}
		e.factories[t.TypeName] = t.Factory
		registered++
	}
	e.mu.Unlock()

	if registered > 0 {
		e.mu.Lock()
		e.libraries = append(e.libraries, desc.LibraryName)
		e.mu.Unlock()
	}
	return registered, nil
}

// CreateModule instantiates typeName as instanceName: injects
// "typeName"/"instanceName" into config, invokes the registered factory,
// and registers the resulting module's command interface with the
// dispatcher (spec §4.6).
func (e *Engine) CreateModule(typeName, instanceName string, config *pipeline.Properties) (*pipeline.ProcessingModule, error) {
	e.mu.RLock()
	factory, ok := e.factories[typeName]
	e.mu.RUnlock()
	if !ok {
		return nil, errNotFound(typeName)
	}

	if config == nil {
		config = pipeline.NewProperties()
	}
	config.SetString("typeName", typeName)
	config.SetString("instanceName", instanceName)

	module, err := factory(instanceName, config)
	if err != nil {
		return nil, err
	}

	if module.Cmd != nil && e.dispatcher != nil {
		if err := e.dispatcher.Register(instanceName, module.Cmd); err != nil {
			return nil, err
		}
	}
	return module, nil
}

// DestroyModule unregisters instanceName from the dispatcher. Destruction
// "routes through the owning library" in spec terms; in this Go
// expression, factories own no per-instance library state beyond what the
// returned *ProcessingModule already holds, so there is nothing further
// to release here beyond the dispatcher entry.
func (e *Engine) DestroyModule(instanceName string) {
	if e.dispatcher != nil {
		e.dispatcher.Unregister(instanceName)
	}
}

// RegisteredTypes returns every module type name currently registered,
// static or loaded, sorted for deterministic diagnostics output.
func (e *Engine) RegisteredTypes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.factories))
	for name := range e.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LoadedLibraries returns the library names that contributed at least one
// module type via LoadDirectory.
func (e *Engine) LoadedLibraries() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.libraries))
	copy(out, e.libraries)
	return out
}
