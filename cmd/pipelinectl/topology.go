package main

import (
	"fmt"
	"strings"

	"github.com/smartxaudio/rtpipeline/internal/errors"
	"github.com/smartxaudio/rtpipeline/internal/modules/equalizer"
	"github.com/smartxaudio/rtpipeline/internal/modules/mixer"
	"github.com/smartxaudio/rtpipeline/internal/modules/volume"
	"github.com/smartxaudio/rtpipeline/internal/pipeline"
	"github.com/smartxaudio/rtpipeline/internal/plugin"
	"github.com/smartxaudio/rtpipeline/internal/testfw"
)

// topology is a fully wired pipeline built from a scenario: the pipeline
// itself, its boundary pins by name, and the zone driving it through the
// offline harness.
type topology struct {
	pipeline *pipeline.Pipeline
	pins     map[string]*pipeline.Pin
	zone     *testfw.RoutingZone
	engine   *plugin.Engine
}

// buildTopology constructs a pipeline.Pipeline from cfg: boundary pins,
// module instances (via pluginDir if non-empty, always via the built-in
// static registry), links, and InitAudioChain, then binds every module's
// resolved streams back into its core. It does not bind WAV ports; the
// caller does that against topology.pins using cfg.Inputs/cfg.Outputs.
func buildTopology(cfg *testfw.ScenarioConfig, pluginDir, zoneID string) (*topology, error) {
	p := pipeline.NewPipeline(cfg.PeriodFrames, cfg.SampleRate)

	pins, err := cfg.BuildBoundaryPins(p)
	if err != nil {
		return nil, fmt.Errorf("build boundary pins: %w", err)
	}

	engine := plugin.NewEngine(nil) // nil dispatcher: AddProcessingModule below registers Cmd with the pipeline's own dispatcher
	if err := registerBuiltinModules(engine); err != nil {
		return nil, err
	}
	if pluginDir != "" {
		if err := engine.LoadDirectory(pluginDir); err != nil {
			return nil, fmt.Errorf("load plugin directory %s: %w", pluginDir, err)
		}
	}

	for _, mc := range cfg.Modules {
		props, err := mc.Properties()
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", mc.InstanceName, err)
		}
		module, err := engine.CreateModule(mc.TypeName, mc.InstanceName, props)
		if err != nil {
			return nil, fmt.Errorf("create module %s (%s): %w", mc.InstanceName, mc.TypeName, err)
		}
		if err := p.AddProcessingModule(module); err != nil {
			return nil, fmt.Errorf("add module %s: %w", mc.InstanceName, err)
		}
	}

	resolve := func(ref string) (*pipeline.Pin, error) {
		if pin, ok := pins[ref]; ok {
			return pin, nil
		}
		instance, pinName, found := strings.Cut(ref, ".")
		if !found {
			return nil, fmt.Errorf("unresolved pin reference %q", ref)
		}
		module, ok := p.Module(instance)
		if !ok {
			return nil, fmt.Errorf("link reference %q: no module instance %q", ref, instance)
		}
		pin, ok := module.Pin(pinName)
		if !ok {
			return nil, fmt.Errorf("link reference %q: module %q has no pin %q", ref, instance, pinName)
		}
		return pin, nil
	}

	for _, lc := range cfg.Links {
		from, err := resolve(lc.From)
		if err != nil {
			return nil, err
		}
		to, err := resolve(lc.To)
		if err != nil {
			return nil, err
		}
		kind, err := lc.LinkKind()
		if err != nil {
			return nil, err
		}
		if _, err := p.Link(from, to, kind); err != nil {
			return nil, fmt.Errorf("link %s->%s: %w", lc.From, lc.To, err)
		}
	}

	if err := p.InitAudioChain(); err != nil {
		return nil, fmt.Errorf("init audio chain: %w", err)
	}

	for _, mc := range cfg.Modules {
		module, _ := p.Module(mc.InstanceName)
		if err := bindModuleStreams(mc.TypeName, module, p); err != nil {
			return nil, fmt.Errorf("bind module %s streams: %w", mc.InstanceName, err)
		}
	}

	zone := testfw.NewRoutingZone(zoneID, p)

	return &topology{pipeline: p, pins: pins, zone: zone, engine: engine}, nil
}

// registerBuiltinModules registers the three module types this repo
// ships in-process (spec §4.6's "static registry at compile time"
// alternative to directory scanning).
func registerBuiltinModules(engine *plugin.Engine) error {
	if err := engine.RegisterStatic(equalizer.TypeName, equalizer.NewModule); err != nil {
		return err
	}
	if err := engine.RegisterStatic(volume.TypeName, volume.NewModule); err != nil {
		return err
	}
	if err := engine.RegisterStatic(mixer.TypeName, mixer.NewModule); err != nil {
		return err
	}
	return nil
}

// bindModuleStreams dispatches to the owning package's BindPipeline,
// since stream resolution is type-specific (each module binds a
// different shape of stream state to its core).
func bindModuleStreams(typeName string, module *pipeline.ProcessingModule, p *pipeline.Pipeline) error {
	switch typeName {
	case equalizer.TypeName:
		return equalizer.BindPipeline(module, p)
	case volume.TypeName:
		return volume.BindPipeline(module, p)
	case mixer.TypeName:
		return mixer.BindPipeline(module, p)
	default:
		return errors.Newf("pipelinectl: no stream-binding logic for module type %q", typeName).Build()
	}
}
