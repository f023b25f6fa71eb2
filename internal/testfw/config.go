package testfw

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

// ScenarioConfig describes a pipeline topology and its WAV bindings for
// the offline test harness, declared in YAML (kept entirely inside the
// test harness: the pipeline core never parses configuration itself).
type ScenarioConfig struct {
	PeriodFrames int              `yaml:"periodFrames"`
	SampleRate   int              `yaml:"sampleRate"`
	Pins         []PinConfig      `yaml:"pins"`
	Modules      []ModuleConfig   `yaml:"modules"`
	Links        []LinkConfig     `yaml:"links"`
	Inputs       []WaveFileConfig `yaml:"inputs"`
	Outputs      []WaveFileConfig `yaml:"outputs"`
}

// PinConfig declares one pipeline boundary pin.
type PinConfig struct {
	Name      string `yaml:"name"`
	Direction string `yaml:"direction"` // "input", "output", "inout"
	Channels  int    `yaml:"channels"`
}

// ModuleConfig declares one processing module instance, created through
// the plugin engine's static or loaded factory registry. Config holds
// the factory's construction-time arguments (e.g. "channels",
// "sampleRate", "mode") as plain YAML scalars/sequences, converted to a
// pipeline.Properties by Properties().
type ModuleConfig struct {
	TypeName     string         `yaml:"typeName"`
	InstanceName string         `yaml:"instanceName"`
	Config       map[string]any `yaml:"config"`
}

// Properties converts this instance's YAML-decoded config map into a
// pipeline.Properties suitable for plugin.Engine.CreateModule. Scalars
// map to Int32Value/Float32Value/StringValue; sequences map to the
// matching vector kind, inferred from their first element.
func (c ModuleConfig) Properties() (*pipeline.Properties, error) {
	props := pipeline.NewProperties()
	for key, raw := range c.Config {
		switch v := raw.(type) {
		case int:
			props.SetInt32(key, int32(v))
		case int64:
			props.SetInt32(key, int32(v))
		case float64:
			props.SetFloat32(key, float32(v))
		case string:
			props.SetString(key, v)
		case []any:
			if err := setVectorProperty(props, key, v); err != nil {
				return nil, err
			}
		default:
			return nil, invalidArgf("module %s: config key %q has unsupported type %T", c.InstanceName, key, raw)
		}
	}
	return props, nil
}

func setVectorProperty(props *pipeline.Properties, key string, items []any) error {
	if len(items) == 0 {
		props.Set(key, pipeline.StringVectorValue(nil))
		return nil
	}
	switch items[0].(type) {
	case int, int64:
		vec := make([]int32, len(items))
		for i, it := range items {
			n, ok := it.(int)
			if !ok {
				return invalidArgf("config key %q: mixed-type vector element %d", key, i)
			}
			vec[i] = int32(n)
		}
		props.Set(key, pipeline.Int32VectorValue(vec))
	case float64:
		vec := make([]float32, len(items))
		for i, it := range items {
			f, ok := it.(float64)
			if !ok {
				return invalidArgf("config key %q: mixed-type vector element %d", key, i)
			}
			vec[i] = float32(f)
		}
		props.Set(key, pipeline.Float32VectorValue(vec))
	case string:
		vec := make([]string, len(items))
		for i, it := range items {
			s, ok := it.(string)
			if !ok {
				return invalidArgf("config key %q: mixed-type vector element %d", key, i)
			}
			vec[i] = s
		}
		props.Set(key, pipeline.StringVectorValue(vec))
	default:
		return invalidArgf("config key %q: unsupported vector element type %T", key, items[0])
	}
	return nil
}

// LinkConfig declares one edge between two named pins (either boundary
// pins or "instanceName.pinName" module pins).
type LinkConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Kind string `yaml:"kind"` // "immediate" or "delayed"
}

// WaveFileConfig binds a boundary pin name to a WAV file path for the
// harness to drive or capture.
type WaveFileConfig struct {
	Pin  string `yaml:"pin"`
	Path string `yaml:"path"`
}

// LoadScenario parses a YAML scenario description from path.
func LoadScenario(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioFailed("read scenario file", err)
	}
	var cfg ScenarioConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, invalidArgf("parse scenario %s: %v", path, err)
	}
	if cfg.PeriodFrames <= 0 {
		return nil, invalidArg("scenario: periodFrames must be positive")
	}
	if cfg.SampleRate <= 0 {
		return nil, invalidArg("scenario: sampleRate must be positive")
	}
	return &cfg, nil
}

// addTo adds the pin to p, mapping its string direction to pipeline's
// enum for the boundary-pin cases a scenario is allowed to declare.
func (c PinConfig) addTo(p *pipeline.Pipeline) (*pipeline.Pin, error) {
	switch c.Direction {
	case "input":
		return p.AddAudioInputPin(c.Name, c.Channels)
	case "output":
		return p.AddAudioOutputPin(c.Name, c.Channels)
	case "inout":
		return p.AddAudioInOutPin(c.Name, c.Channels)
	default:
		return nil, invalidArgf("pin %q: unrecognized direction %q", c.Name, c.Direction)
	}
}

// BuildBoundaryPins adds every pin this scenario declares to p, returning
// them indexed by name for subsequent link/port wiring.
func (c *ScenarioConfig) BuildBoundaryPins(p *pipeline.Pipeline) (map[string]*pipeline.Pin, error) {
	pins := make(map[string]*pipeline.Pin, len(c.Pins))
	for _, pc := range c.Pins {
		pin, err := pc.addTo(p)
		if err != nil {
			return nil, err
		}
		pins[pc.Name] = pin
	}
	return pins, nil
}

// LinkKind maps a LinkConfig's string kind to pipeline's enum.
func (c LinkConfig) LinkKind() (pipeline.LinkKind, error) {
	switch c.Kind {
	case "", "immediate":
		return pipeline.Immediate, nil
	case "delayed":
		return pipeline.Delayed, nil
	default:
		return 0, invalidArgf("link %s->%s: unrecognized kind %q", c.From, c.To, c.Kind)
	}
}
