package equalizer

import (
	"github.com/smartxaudio/rtpipeline/internal/pipeline"
)

// Command key values (spec §6, property schemas table).
const (
	CmdCarSetFilter     = "CarSetFilter"
	CmdCarSetNumFilters = "CarSetNumFilters"
	CmdUserSetParams    = "UserSetParams"
	CmdUserSetGain      = "UserSetGain"
	CmdUserSetGradient  = "UserSetGradient"
	CmdSetModuleState   = "SetModuleState"
)

// Cmd implements pipeline.CmdInterface for one equalizer instance. It
// enforces strict mode isolation (spec §9 open question): a car-mode
// instance rejects user-mode command IDs and vice versa.
type Cmd struct {
	core   *Core
	module *pipeline.ProcessingModule

	gradientFactor float64 // set by UserSetGradient, consumed by subsequent UserSetGain
}

// NewCmd binds a command interface to core and the owning module (needed
// for SetModuleState, which every built-in module honors the same way).
// The gradient factor defaults to a gentle per-frame ramp until
// UserSetGradient configures one explicitly.
func NewCmd(core *Core, module *pipeline.ProcessingModule) *Cmd {
	return &Cmd{core: core, module: module, gradientFactor: gradientPropToFactor(50)}
}

func (c *Cmd) ProcessCmd(cmdProps, returnProps *pipeline.Properties) error {
	cmd, err := pipeline.GetString(cmdProps, "cmd")
	if err != nil {
		return err
	}

	if cmd == CmdSetModuleState {
		return c.setModuleState(cmdProps)
	}

	switch c.core.Mode() {
	case ModeCar:
		switch cmd {
		case CmdCarSetFilter:
			return c.carSetFilter(cmdProps)
		case CmdCarSetNumFilters:
			return c.carSetNumFilters(cmdProps)
		default:
			return invalidArgf("equalizer in car mode rejects command %q", cmd)
		}
	case ModeUser:
		switch cmd {
		case CmdUserSetParams:
			return c.userSetParams(cmdProps)
		case CmdUserSetGain:
			return c.userSetGain(cmdProps)
		case CmdUserSetGradient:
			return c.userSetGradient(cmdProps, returnProps)
		default:
			return invalidArgf("equalizer in user mode rejects command %q", cmd)
		}
	}
	return invalidArgf("unrecognized equalizer command %q", cmd)
}

func (c *Cmd) setModuleState(cmdProps *pipeline.Properties) error {
	state, err := pipeline.GetString(cmdProps, "moduleState")
	if err != nil {
		return err
	}
	switch state {
	case "on":
		c.module.SetEnabled(true)
	case "off":
		c.module.SetEnabled(false)
	default:
		return invalidArgf("moduleState must be \"on\" or \"off\", got %q", state)
	}
	return nil
}

func (c *Cmd) carSetFilter(p *pipeline.Properties) error {
	channelIdx, err := pipeline.GetInt32(p, "channelIdx")
	if err != nil {
		return err
	}
	filterID, err := pipeline.GetInt32(p, "filterId")
	if err != nil {
		return err
	}
	freq, err := pipeline.GetInt32(p, "freq")
	if err != nil {
		return err
	}
	gain, err := pipeline.GetInt32(p, "gain")
	if err != nil {
		return err
	}
	quality, err := pipeline.GetInt32(p, "quality")
	if err != nil {
		return err
	}
	typ, err := pipeline.GetInt32(p, "type")
	if err != nil {
		return err
	}
	order, err := pipeline.GetInt32(p, "order")
	if err != nil {
		return err
	}

	params := FilterParams{
		FreqHz:     float64(freq),
		GainLinear: dbTenthsToLinear(gain),
		Quality:    float64(quality) / 10,
		Type:       FilterType(typ),
		Order:      int(order),
	}
	if err := params.validateSection(); err != nil {
		return err
	}
	if err := params.validateBounds(); err != nil {
		return err
	}

	// Grow the cascade to reach filterId if needed; never shrink it.
	have := 0
	c.core.mu.Lock()
	if ch := int(channelIdx); ch >= 0 && ch < len(c.core.channels) {
		have = len(c.core.channels[ch])
	}
	c.core.mu.Unlock()
	if int(filterID) >= have {
		if err := c.core.CarSetNumFilters(int(channelIdx), int(filterID)+1); err != nil {
			return err
		}
	}
	return c.core.SetFilterParams(int(channelIdx), int(filterID), params)
}

func (c *Cmd) carSetNumFilters(p *pipeline.Properties) error {
	channelIdx, err := pipeline.GetInt32(p, "channelIdx")
	if err != nil {
		return err
	}
	numFilters, err := pipeline.GetInt32(p, "numFilters")
	if err != nil {
		return err
	}
	return c.core.CarSetNumFilters(int(channelIdx), int(numFilters))
}

func (c *Cmd) userSetParams(p *pipeline.Properties) error {
	filterID, err := pipeline.GetInt32(p, "filterId")
	if err != nil {
		return err
	}
	freq, err := pipeline.GetInt32(p, "freq")
	if err != nil {
		return err
	}
	quality, err := pipeline.GetInt32(p, "quality")
	if err != nil {
		return err
	}
	typ, err := pipeline.GetInt32(p, "type")
	if err != nil {
		return err
	}
	order, err := pipeline.GetInt32(p, "order")
	if err != nil {
		return err
	}

	params := FilterParams{
		FreqHz:     float64(freq),
		GainLinear: 1.0, // "gain=0 dB initially" per spec §6
		Quality:    float64(quality) / 10,
		Type:       FilterType(typ),
		Order:      int(order),
	}
	if err := params.validateSection(); err != nil {
		return err
	}

	n := c.core.NumChannels()
	cascade := make([]FilterParams, int(filterID)+1)
	for i := range cascade {
		cascade[i] = FilterParams{Type: Flat}
	}
	cascade[filterID] = params

	channelIDs := make([]int, n)
	for i := range channelIDs {
		channelIDs[i] = i
	}
	return c.core.SetFiltersSingleStream(channelIDs, cascade)
}

func (c *Cmd) userSetGain(p *pipeline.Properties) error {
	filterID, err := pipeline.GetInt32(p, "filterId")
	if err != nil {
		return err
	}
	gain, err := pipeline.GetInt32(p, "gain")
	if err != nil {
		return err
	}
	return c.core.RampGainSingleStreamSingleFilter(int(filterID), dbTenthsToLinear(gain), c.gradientFactor)
}

func (c *Cmd) userSetGradient(p, returnProps *pipeline.Properties) error {
	gradient, err := pipeline.GetInt32(p, "gradient")
	if err != nil {
		return err
	}
	c.gradientFactor = gradientPropToFactor(gradient)
	returnProps.SetFloat32("gradientFactor", float32(c.gradientFactor))
	return nil
}
