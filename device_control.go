package indicore

import (
	"context"
	"strconv"
)

// DeviceControl is the generic per-device lifecycle surface every INDI
// driver exposes: connect/disconnect, the four CONFIG_PROCESS actions, and
// reconfiguring a device's transport to TCP. Domain-specific wrappers
// (telescope, CCD, ...) embed one of these rather than reimplementing it.
type DeviceControl struct {
	gw         *Gateway
	deviceName string
}

// NewDeviceControl creates a DeviceControl for deviceName against gw.
func NewDeviceControl(gw *Gateway, deviceName string) *DeviceControl {
	return &DeviceControl{gw: gw, deviceName: deviceName}
}

// IsConnected reports whether CONNECTION.CONNECT is On.
func (d *DeviceControl) IsConnected() bool {
	v, err := d.gw.GetVector(d.deviceName, "CONNECTION")
	if err != nil {
		return false
	}
	sv, ok := v.(*SwitchVector)
	if !ok {
		return false
	}
	return sv.On("CONNECT")
}

// Connect sets CONNECTION.CONNECT = On and awaits the device's settled response.
func (d *DeviceControl) Connect() Defer { return d.doConnect(true) }

// Disconnect sets CONNECTION.CONNECT = Off and awaits the device's settled response.
func (d *DeviceControl) Disconnect() Defer { return d.doConnect(false) }

func (d *DeviceControl) doConnect(connect bool) Defer {
	v, err := d.gw.GetVector(d.deviceName, "CONNECTION")
	if err != nil {
		return NewJust(PropertyStateAlert, "cannot find CONNECTION property", nil)
	}
	sv, ok := v.(*SwitchVector)
	if !ok {
		return NewJust(PropertyStateAlert, "CONNECTION is not a switch vector", nil)
	}

	clone := sv.Clone().(*SwitchVector)
	for i, it := range clone.Items {
		switch it.Name {
		case "CONNECT":
			clone.Items[i].Value = boolToSwitch(connect)
		case "DISCONNECT":
			clone.Items[i].Value = boolToSwitch(!connect)
		}
	}

	return d.deferAfterSend(clone, "CONNECTION")
}

// ConfigLoad triggers CONFIG_PROCESS.CONFIG_LOAD.
func (d *DeviceControl) ConfigLoad() Defer { return d.doConfig("CONFIG_LOAD") }

// ConfigSave triggers CONFIG_PROCESS.CONFIG_SAVE.
func (d *DeviceControl) ConfigSave() Defer { return d.doConfig("CONFIG_SAVE") }

// ConfigDefault triggers CONFIG_PROCESS.CONFIG_DEFAULT.
func (d *DeviceControl) ConfigDefault() Defer { return d.doConfig("CONFIG_DEFAULT") }

// ConfigPurge triggers CONFIG_PROCESS.CONFIG_PURGE.
func (d *DeviceControl) ConfigPurge() Defer { return d.doConfig("CONFIG_PURGE") }

func (d *DeviceControl) doConfig(action string) Defer {
	v, err := d.gw.GetVector(d.deviceName, "CONFIG_PROCESS")
	if err != nil {
		return NewJust(PropertyStateAlert, "cannot find CONFIG_PROCESS property", nil)
	}
	sv, ok := v.(*SwitchVector)
	if !ok {
		return NewJust(PropertyStateAlert, "CONFIG_PROCESS is not a switch vector", nil)
	}

	clone := sv.Clone().(*SwitchVector)
	for i := range clone.Items {
		clone.Items[i].Value = SwitchStateOff
	}
	idx := switchItemIndex(clone.Items, action)
	if idx < 0 {
		return NewJust(PropertyStateAlert, "CONFIG_PROCESS has no "+action+" element", nil)
	}
	clone.Items[idx].Value = SwitchStateOn

	return d.deferAfterSend(clone, "CONFIG_PROCESS")
}

// SetTCPConnection switches the device to TCP transport and points it at
// addr:port. It replaces the original's synchronous sleep-then-poll loop
// with a two-link DeferChain: each link sends its vector and awaits the
// device's settled response before the next link runs, the same
// sequential-before guarantee every other chain gets.
func (d *DeviceControl) SetTCPConnection(addr string, port int) Defer {
	chain := NewDeferChain(nil)

	chain.AddIfOk(func(prev DeferResult) DeferResult {
		v, err := d.gw.GetVector(d.deviceName, "CONNECTION_MODE")
		if err != nil {
			return DeferResult{State: PropertyStateAlert, Message: "cannot find CONNECTION_MODE property"}
		}
		sv, ok := v.(*SwitchVector)
		if !ok {
			return DeferResult{State: PropertyStateAlert, Message: "CONNECTION_MODE is not a switch vector"}
		}
		clone := sv.Clone().(*SwitchVector)
		for i, it := range clone.Items {
			switch it.Name {
			case "CONNECTION_SERIAL":
				clone.Items[i].Value = SwitchStateOff
			case "CONNECTION_TCP":
				clone.Items[i].Value = SwitchStateOn
			}
		}
		return d.sendAndAwait(clone, "CONNECTION_MODE")
	})

	chain.AddIfOk(func(prev DeferResult) DeferResult {
		v, err := d.gw.GetVector(d.deviceName, "DEVICE_ADDRESS")
		if err != nil {
			return DeferResult{State: PropertyStateAlert, Message: "cannot find DEVICE_ADDRESS property"}
		}
		tv, ok := v.(*TextVector)
		if !ok {
			return DeferResult{State: PropertyStateAlert, Message: "DEVICE_ADDRESS is not a text vector"}
		}
		clone := tv.Clone().(*TextVector)
		idxAddr := textItemIndex(clone.Items, "ADDRESS")
		idxPort := textItemIndex(clone.Items, "PORT")
		if idxAddr < 0 || idxPort < 0 {
			return DeferResult{State: PropertyStateAlert, Message: "DEVICE_ADDRESS missing ADDRESS/PORT elements"}
		}
		clone.Items[idxAddr].Value = addr
		clone.Items[idxPort].Value = strconv.Itoa(port)
		return d.sendAndAwait(clone, "DEVICE_ADDRESS")
	})

	return chain
}

// deferAfterSend sends v, then returns a Defer awaiting pname's next
// settled update with the send itself as the subscription's trigger — the
// subscription is only taken once the send has completed, matching
// DeferProperty's trigger-then-subscribe ordering.
func (d *DeviceControl) deferAfterSend(v Vector, pname string) Defer {
	trigger := NewDeferAction(NewJust(PropertyStateOk, "seed", nil), func(prev DeferResult) DeferResult {
		res, err := d.gw.SendVector(v)
		if err != nil {
			return DeferResult{State: PropertyStateAlert, Message: err.Error()}
		}
		return res
	})
	return NewDeferProperty(d.gw.tree, d.deviceName, pname, trigger)
}

func (d *DeviceControl) sendAndAwait(v Vector, pname string) DeferResult {
	return d.deferAfterSend(v, pname).Wait(context.Background())
}

func boolToSwitch(on bool) SwitchState {
	if on {
		return SwitchStateOn
	}
	return SwitchStateOff
}
