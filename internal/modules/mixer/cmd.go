package mixer

import "github.com/smartxaudio/rtpipeline/internal/pipeline"

// Command key values (spec §6, property schemas table).
const (
	CmdSetBalance     = "SetBalance"
	CmdSetFader       = "SetFader"
	CmdSetGainOffset  = "SetGainOffset"
	CmdSetModuleState = "SetModuleState"
)

// Cmd implements pipeline.CmdInterface for one mixer instance.
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
	case CmdSetBalance:
		return c.setBalance(cmdProps)
	case CmdSetFader:
		return c.setFader(cmdProps)
	case CmdSetGainOffset:
		return c.setGainOffset(cmdProps)
	default:
		return invalidArgf("unrecognized mixer command %q", cmd)
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

func (c *Cmd) setBalance(p *pipeline.Properties) error {
	pin, err := pipeline.GetString(p, "pin")
	if err != nil {
		return err
	}
	balance, err := pipeline.GetInt32(p, "balance")
	if err != nil {
		return err
	}
	return c.core.SetBalance(pin, balance)
}

func (c *Cmd) setFader(p *pipeline.Properties) error {
	pin, err := pipeline.GetString(p, "pin")
	if err != nil {
		return err
	}
	fader, err := pipeline.GetInt32(p, "fader")
	if err != nil {
		return err
	}
	return c.core.SetFader(pin, fader)
}

func (c *Cmd) setGainOffset(p *pipeline.Properties) error {
	pin, err := pipeline.GetString(p, "pin")
	if err != nil {
		return err
	}
	gain, err := pipeline.GetInt32(p, "gain")
	if err != nil {
		return err
	}
	return c.core.SetGainOffset(pin, gain)
}
