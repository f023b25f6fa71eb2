package volume

import "github.com/smartxaudio/rtpipeline/internal/pipeline"

// PinName is the single in-place audio pin every volume instance exposes.
const PinName = "audio"

// TypeName is the module type name registered with a plugin.Engine.
const TypeName = "volume"

// NewModule is a plugin.Factory for volume instances. config must carry
// "channels" (int32), "sampleRate" (float32), and "periodFrames" (int32);
// "minVolDB"/"maxVolDB" (float32) default to -80/+20. Loudness bands and
// the SDV table are configured afterward through ProcessCmd, not at
// construction, since the spec carries them as runtime-settable state.
func NewModule(instanceName string, config *pipeline.Properties) (*pipeline.ProcessingModule, error) {
	channels, err := pipeline.GetInt32(config, "channels")
	if err != nil {
		return nil, err
	}
	sampleRate, err := pipeline.GetFloat32(config, "sampleRate")
	if err != nil {
		return nil, err
	}
	periodFrames, err := pipeline.GetInt32(config, "periodFrames")
	if err != nil {
		return nil, err
	}
	minVolDB, err := pipeline.GetFloat32(config, "minVolDB")
	if err != nil {
		minVolDB = -80
	}
	maxVolDB, err := pipeline.GetFloat32(config, "maxVolDB")
	if err != nil {
		maxVolDB = 20
	}

	core := NewCore(float64(sampleRate), int(periodFrames), nil, float64(minVolDB), float64(maxVolDB))
	module := pipeline.NewProcessingModule(TypeName, instanceName, core, nil)
	module.Cmd = NewCmd(core, module)

	if _, err := module.AddPin(PinName, pipeline.ModuleInOut, int(channels)); err != nil {
		return nil, err
	}
	return module, nil
}

// BindPipeline resolves this instance's audio pin against p and attaches
// the stream to its core, once InitAudioChain has linked the graph.
func BindPipeline(module *pipeline.ProcessingModule, p *pipeline.Pipeline) error {
	pin, ok := module.Pin(PinName)
	if !ok {
		return notInitialized("volume module exposes no audio pin")
	}
	stream, ok := p.StreamForPin(pin)
	if !ok {
		return notInitialized("volume module's audio pin has no resolved stream")
	}
	core, ok := module.Core.(*Core)
	if !ok {
		return notInitialized("volume module's Core is not *volume.Core")
	}
	core.BindStream(stream)
	return nil
}
