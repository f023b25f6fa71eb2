package pipeline

import "sync"

// CmdDispatcher routes property bundles addressed by instance name to the
// owning module's CmdInterface. Mutations (Register/Unregister) occur only
// during setup/teardown; Dispatch may be called from any thread, with
// calls to the same module serialized by the caller (spec §4.4, §5).
type CmdDispatcher struct {
	mu    sync.RWMutex
	byName map[string]CmdInterface
}

// NewCmdDispatcher returns an empty dispatcher.
func NewCmdDispatcher() *CmdDispatcher {
	return &CmdDispatcher{byName: make(map[string]CmdInterface)}
}

// Register binds instance name to iface. Fails InvalidArg if name is
// empty, iface is nil, or name is already bound.
func (d *CmdDispatcher) Register(name string, iface CmdInterface) error {
	if name == "" {
		return invalidArg("cmd dispatcher: instance name must not be empty")
	}
	if iface == nil {
		return invalidArg("cmd dispatcher: command interface must not be nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byName[name]; exists {
		return invalidArgf("cmd dispatcher: instance name %q already registered", name)
	}
	d.byName[name] = iface
	return nil
}

// Unregister removes a previously registered instance name. No error is
// returned if the name was never registered.
func (d *CmdDispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.byName, name)
}

// Dispatch looks up name and delegates to iface.ProcessCmd, clearing
// returnProps first. No ordering guarantees exist across dispatches to
// different modules.
func (d *CmdDispatcher) Dispatch(name string, cmdProps *Properties, returnProps *Properties) error {
	d.mu.RLock()
	iface, ok := d.byName[name]
	d.mu.RUnlock()

	if !ok {
		return invalidArgf("cmd dispatcher: no module registered as %q", name)
	}

	*returnProps = *NewProperties()
	return iface.ProcessCmd(cmdProps, returnProps)
}

// Has reports whether an instance name is currently registered.
func (d *CmdDispatcher) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byName[name]
	return ok
}
