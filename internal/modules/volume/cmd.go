package volume

import "github.com/smartxaudio/rtpipeline/internal/pipeline"

// Command key values (spec §6, property schemas table).
const (
	CmdSetVolume      = "SetVolume"
	CmdSetMute        = "SetMute"
	CmdSetLoudness    = "SetLoudness"
	CmdSetSpeed       = "SetSpeed"
	CmdSetSdv         = "SetSdv"
	CmdSetSdvTable    = "SetSdvTable"
	CmdSetModuleState = "SetModuleState"
)

// Cmd implements pipeline.CmdInterface for one volume instance.
type Cmd struct {
	core   *Core
	module *pipeline.ProcessingModule
}

// NewCmd binds a command interface to core and the owning module.
func NewCmd(core *Core, module *pipeline.ProcessingModule) *Cmd {
	return &Cmd{core: core, module: module}
}

func (c *Cmd) ProcessCmd(cmdProps, returnProps *pipeline.Properties) error {
	cmd, err := pipeline.GetString(cmdProps, "cmd")
	if err != nil {
		return err
	}

	switch cmd {
	case CmdSetModuleState:
		return c.setModuleState(cmdProps)
	case CmdSetVolume:
		return c.setVolume(cmdProps)
	case CmdSetMute:
		return c.setMute(cmdProps)
	case CmdSetLoudness:
		return c.setLoudness(cmdProps)
	case CmdSetSpeed:
		return c.setSpeed(cmdProps)
	case CmdSetSdv:
		return c.setSdv(cmdProps)
	case CmdSetSdvTable:
		return c.setSdvTable(cmdProps)
	default:
		return invalidArgf("unrecognized volume command %q", cmd)
	}
}

func (c *Cmd) setModuleState(p *pipeline.Properties) error {
	state, err := pipeline.GetString(p, "moduleState")
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

// ramp is carried as a 2-entry int32 vector [timeMs, shape] per spec §6.
func parseRamp(vec []int32) (timeMs int32, shape RampShape, err error) {
	if len(vec) != 2 {
		return 0, Linear, invalidArg("ramp must be [timeMs, shape]")
	}
	timeMs = vec[0]
	if timeMs < cMinRampTimeMs || timeMs > cMaxRampTimeMs {
		return 0, Linear, invalidArgf("ramp time %d ms out of range [%d, %d]", timeMs, cMinRampTimeMs, cMaxRampTimeMs)
	}
	switch vec[1] {
	case 0:
		shape = Linear
	case 1:
		shape = Exponential
	default:
		return 0, Linear, invalidArgf("unknown ramp shape %d", vec[1])
	}
	return timeMs, shape, nil
}

func (c *Cmd) setVolume(p *pipeline.Properties) error {
	volume, err := pipeline.GetInt32(p, "volume")
	if err != nil {
		return err
	}
	ramp, err := pipeline.GetInt32Vector(p, "ramp")
	if err != nil {
		return err
	}
	timeMs, shape, err := parseRamp(ramp)
	if err != nil {
		return err
	}
	return c.core.SetVolume(float64(volume)/10, timeMs, shape)
}

func (c *Cmd) setMute(p *pipeline.Properties) error {
	params, err := pipeline.GetInt32Vector(p, "params")
	if err != nil {
		return err
	}
	if len(params) != 3 {
		return invalidArg("params must be [onBool, timeMs, shape]")
	}
	on := params[0] != 0
	timeMs, shape, err := parseRamp(params[1:3])
	if err != nil {
		return err
	}
	c.core.SetMuteState(on, timeMs, shape)
	return nil
}

func (c *Cmd) setLoudness(p *pipeline.Properties) error {
	loudness, err := pipeline.GetString(p, "loudness")
	if err != nil {
		return err
	}
	switch loudness {
	case "on":
		c.core.SetLoudness(true)
	case "off":
		c.core.SetLoudness(false)
	default:
		return invalidArgf("loudness must be \"on\" or \"off\", got %q", loudness)
	}
	return nil
}

func (c *Cmd) setSpeed(p *pipeline.Properties) error {
	speed, err := pipeline.GetInt32(p, "speed")
	if err != nil {
		return err
	}
	c.core.SetSpeed(speed)
	return nil
}

func (c *Cmd) setSdv(p *pipeline.Properties) error {
	sdv, err := pipeline.GetString(p, "sdv")
	if err != nil {
		return err
	}
	switch sdv {
	case "on":
		c.core.SetSdv(true)
	case "off":
		c.core.SetSdv(false)
	default:
		return invalidArgf("sdv must be \"on\" or \"off\", got %q", sdv)
	}
	return nil
}

func (c *Cmd) setSdvTable(p *pipeline.Properties) error {
	speeds, err := pipeline.GetInt32Vector(p, "sdv.speed")
	if err != nil {
		return err
	}
	gainInc, err := pipeline.GetInt32Vector(p, "sdv.gain_inc")
	if err != nil {
		return err
	}
	gainDec, err := pipeline.GetInt32Vector(p, "sdv.gain_dec")
	if err != nil {
		return err
	}
	return c.core.SetSdvTable(speeds, gainInc, gainDec)
}
