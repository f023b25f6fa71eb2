package equalizer

import "github.com/smartxaudio/rtpipeline/internal/pipeline"

// PinName is the single in-place audio pin every equalizer instance
// exposes (spec §4.7: the cascade runs in place against one stream).
const PinName = "audio"

// TypeName is the module type name registered with a plugin.Engine.
const TypeName = "equalizer"

// NewModule is a plugin.Factory for equalizer instances. config must
// carry "mode" ("car" or "user", default "user"), "channels" (int32),
// "sampleRate" (float32), and optionally "numFilterStagesMax" (int32,
// default 8).
func NewModule(instanceName string, config *pipeline.Properties) (*pipeline.ProcessingModule, error) {
	modeStr, err := pipeline.GetString(config, "mode")
	if err != nil {
		modeStr = "user"
	}
	mode := ModeUser
	if modeStr == "car" {
		mode = ModeCar
	}

	channels, err := pipeline.GetInt32(config, "channels")
	if err != nil {
		return nil, err
	}
	sampleRate, err := pipeline.GetFloat32(config, "sampleRate")
	if err != nil {
		return nil, err
	}
	maxStages, err := pipeline.GetInt32(config, "numFilterStagesMax")
	if err != nil {
		maxStages = 8
	}

	core := NewCore(mode, float64(sampleRate), int(maxStages), nil)
	module := pipeline.NewProcessingModule(TypeName, instanceName, core, nil)
	module.Cmd = NewCmd(core, module)

	if _, err := module.AddPin(PinName, pipeline.ModuleInOut, int(channels)); err != nil {
		return nil, err
	}
	return module, nil
}

// BindPipeline resolves this instance's audio pin against p (only
// possible once InitAudioChain has run) and attaches the stream to its
// core. Engine.CreateModule cannot do this itself: stream resolution
// requires the whole graph to be linked first.
func BindPipeline(module *pipeline.ProcessingModule, p *pipeline.Pipeline) error {
	pin, ok := module.Pin(PinName)
	if !ok {
		return notInitialized("equalizer module exposes no audio pin")
	}
	stream, ok := p.StreamForPin(pin)
	if !ok {
		return notInitialized("equalizer module's audio pin has no resolved stream")
	}
	core, ok := module.Core.(*Core)
	if !ok {
		return notInitialized("equalizer module's Core is not *equalizer.Core")
	}
	core.BindStream(stream)
	return nil
}
