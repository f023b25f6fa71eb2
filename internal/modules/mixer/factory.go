package mixer

import "github.com/smartxaudio/rtpipeline/internal/pipeline"

// TypeName is the module type name registered with a plugin.Engine.
const TypeName = "mixer"

// NewModule is a plugin.Factory for mixer instances. config must carry
// parallel vectors "inputs"/"inputChannels" and "outputs"/"outputChannels"
// naming the module-owned pins to create, plus parallel vectors
// "mappingInputs"/"mappingOutputs" naming which input pin feeds which
// output pin (spec §4.9's addStreamMapping, one call per pair).
// "rampPeriods" (int32) defaults to 1.
func NewModule(instanceName string, config *pipeline.Properties) (*pipeline.ProcessingModule, error) {
	inputs, err := pipeline.GetStringVector(config, "inputs")
	if err != nil {
		return nil, err
	}
	inputChannels, err := pipeline.GetInt32Vector(config, "inputChannels")
	if err != nil {
		return nil, err
	}
	outputs, err := pipeline.GetStringVector(config, "outputs")
	if err != nil {
		return nil, err
	}
	outputChannels, err := pipeline.GetInt32Vector(config, "outputChannels")
	if err != nil {
		return nil, err
	}
	if len(inputs) != len(inputChannels) {
		return nil, invalidArgf("mixer: %d input pin names but %d input channel counts", len(inputs), len(inputChannels))
	}
	if len(outputs) != len(outputChannels) {
		return nil, invalidArgf("mixer: %d output pin names but %d output channel counts", len(outputs), len(outputChannels))
	}

	rampPeriods, err := pipeline.GetInt32(config, "rampPeriods")
	if err != nil {
		rampPeriods = 1
	}

	core := NewCore(int(rampPeriods))
	module := pipeline.NewProcessingModule(TypeName, instanceName, core, nil)
	module.Cmd = NewCmd(core, module)

	for i, name := range inputs {
		if _, err := module.AddPin(name, pipeline.ModuleInput, int(inputChannels[i])); err != nil {
			return nil, err
		}
	}
	for i, name := range outputs {
		if _, err := module.AddPin(name, pipeline.ModuleOutput, int(outputChannels[i])); err != nil {
			return nil, err
		}
	}

	mappingInputs, err := pipeline.GetStringVector(config, "mappingInputs")
	if err == nil {
		mappingOutputs, err := pipeline.GetStringVector(config, "mappingOutputs")
		if err != nil {
			return nil, err
		}
		if len(mappingInputs) != len(mappingOutputs) {
			return nil, invalidArgf("mixer: %d mapping inputs but %d mapping outputs", len(mappingInputs), len(mappingOutputs))
		}
		for i := range mappingInputs {
			core.AddStreamMapping(mappingInputs[i], mappingOutputs[i])
		}
	}

	return module, nil
}

// BindPipeline resolves every pin this mixer instance exposes against p
// and attaches the resulting streams to its core, once InitAudioChain has
// linked the graph.
func BindPipeline(module *pipeline.ProcessingModule, p *pipeline.Pipeline) error {
	core, ok := module.Core.(*Core)
	if !ok {
		return notInitialized("mixer module's Core is not *mixer.Core")
	}
	for _, pin := range module.Pins() {
		stream, ok := p.StreamForPin(pin)
		if !ok {
			return notInitialized("mixer module's pin " + pin.Name + " has no resolved stream")
		}
		var err error
		if pin.Direction == pipeline.ModuleInput {
			err = core.BindInputStream(pin.Name, stream)
		} else {
			err = core.BindOutputStream(pin.Name, stream)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
