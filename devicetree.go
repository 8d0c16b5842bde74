package indicore

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rickbassham/logging"
)

const (
	livenessStartupGrace = 10 * time.Second
	livenessCheckPeriod  = 5 * time.Second
)

// Device is a device name's ordered set of properties. Order is preserved
// independently of Go's unordered maps via a parallel name slice, mirroring
// the item-order invariant vector.go already keeps for a single vector's
// elements.
type Device struct {
	Name string

	mu       sync.Mutex
	order    []string
	controls map[string]*PropertyControl
}

func newDevice(name string) *Device {
	return &Device{Name: name, controls: map[string]*PropertyControl{}}
}

func (d *Device) ensure(name string, log logging.Logger) *PropertyControl {
	d.mu.Lock()
	defer d.mu.Unlock()
	pc, ok := d.controls[name]
	if !ok {
		pc = NewPropertyControl(log)
		d.controls[name] = pc
		d.order = append(d.order, name)
	}
	return pc
}

func (d *Device) get(name string) (*PropertyControl, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pc, ok := d.controls[name]
	return pc, ok
}

func (d *Device) remove(name string) (*PropertyControl, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pc, ok := d.controls[name]
	if !ok {
		return nil, false
	}
	delete(d.controls, name)
	for i, n := range d.order {
		if n == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return pc, true
}

func (d *Device) removeAll() []*PropertyControl {
	d.mu.Lock()
	defer d.mu.Unlock()
	all := make([]*PropertyControl, 0, len(d.order))
	for _, n := range d.order {
		all = append(all, d.controls[n])
	}
	d.order = nil
	d.controls = map[string]*PropertyControl{}
	return all
}

// PropertyNames returns the device's property names in definition order.
func (d *Device) PropertyNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.order...)
}

func (d *Device) snapshot() []*PropertyControl {
	d.mu.Lock()
	defer d.mu.Unlock()
	all := make([]*PropertyControl, 0, len(d.order))
	for _, n := range d.order {
		all = append(all, d.controls[n])
	}
	return all
}

// IsConnected reports whether the device owns a CONNECTION switch vector
// with CONNECT == On.
func (d *Device) IsConnected() bool {
	pc, ok := d.get("CONNECTION")
	if !ok {
		return false
	}
	sv, ok := pc.Current().(*SwitchVector)
	if !ok {
		return false
	}
	return sv.On("CONNECT")
}

// driverInterface reads DRIVER_INFO.DRIVER_INTERFACE as a bitmask.
func (d *Device) driverInterface() (Interface, bool) {
	pc, ok := d.get("DRIVER_INFO")
	if !ok {
		return 0, false
	}
	nv, ok := pc.Current().(*NumberVector)
	if !ok {
		return 0, false
	}
	val, found := nv.Value("DRIVER_INTERFACE")
	if !found {
		return 0, false
	}
	return Interface(uint32(val)), true
}

// pollingPeriodMS reads POLLING_PERIOD.PERIOD_MS, the liveness supervisor's
// per-device interval.
func (d *Device) pollingPeriodMS() (float64, bool) {
	pc, ok := d.get("POLLING_PERIOD")
	if !ok {
		return 0, false
	}
	nv, ok := pc.Current().(*NumberVector)
	if !ok {
		return 0, false
	}
	return nv.Value("PERIOD_MS")
}

// lastUpdate is the most recent update time across every property.
func (d *Device) lastUpdate() time.Time {
	var latest time.Time
	for _, pc := range d.snapshot() {
		if lu := pc.LastUpdate(); lu.After(latest) {
			latest = lu
		}
	}
	return latest
}

// mergeStaticFields carries Label/Group and per-kind Perm/Rule forward from
// prev into v when v doesn't set them itself. setXxxVector wire elements
// never carry that metadata (only defXxxVector does), so a "set" update
// would otherwise blank it out on every tick.
func mergeStaticFields(prev, v Vector) Vector {
	if prev == nil {
		return v
	}

	vh := v.Head()
	ph := prev.Head()
	if vh.Label == "" {
		vh.Label = ph.Label
	}
	if vh.Group == "" {
		vh.Group = ph.Group
	}
	v.SetHead(vh)

	switch nv := v.(type) {
	case *NumberVector:
		if pv, ok := prev.(*NumberVector); ok && nv.Perm == "" {
			nv.Perm = pv.Perm
		}
	case *SwitchVector:
		if pv, ok := prev.(*SwitchVector); ok {
			if nv.Perm == "" {
				nv.Perm = pv.Perm
			}
			if nv.Rule == "" {
				nv.Rule = pv.Rule
			}
		}
	case *TextVector:
		if pv, ok := prev.(*TextVector); ok && nv.Perm == "" {
			nv.Perm = pv.Perm
		}
	case *BlobVector:
		if pv, ok := prev.(*BlobVector); ok && nv.Perm == "" {
			nv.Perm = pv.Perm
		}
	}
	return v
}

// GetPropertiesFunc re-requests a device's properties, typically by sending
// <getProperties device="..."/>. The liveness supervisor calls it for a
// stale device; Gateway supplies the implementation that actually writes to
// the wire.
type GetPropertiesFunc func(device string)

// DeviceTree mirrors the server's device/property namespace: every def/set
// routes through Apply, every del through Del, and per-property
// subscriptions are resolved by re-walking the device/name path on each
// call rather than caching a *PropertyControl (see the registration-race
// note in DESIGN.md).
type DeviceTree struct {
	log logging.Logger

	mu      sync.Mutex
	order   []string
	devices map[string]*Device

	startedAt     time.Time
	scheduler     gocron.Scheduler
	getProperties GetPropertiesFunc
}

// NewDeviceTree creates an empty tree.
func NewDeviceTree(log logging.Logger) *DeviceTree {
	return &DeviceTree{
		log:       log,
		devices:   map[string]*Device{},
		startedAt: time.Now(),
	}
}

func (t *DeviceTree) ensureDevice(name string) *Device {
	t.mu.Lock()
	defer t.mu.Unlock()
	dev, ok := t.devices[name]
	if !ok {
		dev = newDevice(name)
		t.devices[name] = dev
		t.order = append(t.order, name)
	}
	return dev
}

func (t *DeviceTree) device(name string) (*Device, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dev, ok := t.devices[name]
	return dev, ok
}

func (t *DeviceTree) deviceSnapshot() []*Device {
	t.mu.Lock()
	defer t.mu.Unlock()
	all := make([]*Device, 0, len(t.order))
	for _, n := range t.order {
		all = append(all, t.devices[n])
	}
	return all
}

// DeviceNames returns every known device name in discovery order.
func (t *DeviceTree) DeviceNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

// Apply handles a def or set element: lookup-or-create the device and
// property, merge forward static metadata a "set" doesn't carry, then
// delegate to PropertyControl.Apply for awaiter/callback resolution.
func (t *DeviceTree) Apply(v Vector) {
	h := v.Head()
	dev := t.ensureDevice(h.Device)
	pc := dev.ensure(h.Name, t.log)

	v = mergeStaticFields(pc.Current(), v)
	pc.Apply(v)
}

// Del handles delProperty. An empty name removes every property under the
// device and drops the device itself; otherwise only that property is
// removed.
func (t *DeviceTree) Del(device, name string) {
	dev, ok := t.device(device)
	if !ok {
		return
	}

	if name == "" {
		for _, pc := range dev.removeAll() {
			pc.Remove()
		}
		t.mu.Lock()
		delete(t.devices, device)
		for i, n := range t.order {
			if n == device {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
		t.mu.Unlock()
		return
	}

	if pc, ok := dev.remove(name); ok {
		pc.Remove()
	}
}

// GetVector returns the current snapshot of device/name. If no def has
// arrived for it yet it returns ErrDeviceNotFound or ErrPropertyNotFound;
// ErrNotConnected is returned for a property entry that holds no vector.
func (t *DeviceTree) GetVector(device, name string) (Vector, error) {
	dev, ok := t.device(device)
	if !ok {
		return nil, ErrDeviceNotFound
	}
	pc, ok := dev.get(name)
	if !ok {
		return nil, ErrPropertyNotFound
	}
	v := pc.Current()
	if v == nil {
		return nil, ErrNotConnected
	}
	return v, nil
}

// Future resolves the device/property path on every call (never caches a
// *PropertyControl) and returns its next-settled-vector channel.
func (t *DeviceTree) Future(device, name string) (<-chan Vector, error) {
	dev, ok := t.device(device)
	if !ok {
		return nil, ErrDeviceNotFound
	}
	pc, ok := dev.get(name)
	if !ok {
		return nil, ErrPropertyNotFound
	}
	return pc.Future(), nil
}

// RegisterCallback resolves the device/property path and registers fn.
func (t *DeviceTree) RegisterCallback(device, name string, fn func(Vector), once bool) (string, error) {
	dev, ok := t.device(device)
	if !ok {
		return "", ErrDeviceNotFound
	}
	pc, ok := dev.get(name)
	if !ok {
		return "", ErrPropertyNotFound
	}
	return pc.RegisterCallback(fn, once), nil
}

// UnregisterCallback resolves the device/property path and removes key.
func (t *DeviceTree) UnregisterCallback(device, name, key string) (bool, error) {
	dev, ok := t.device(device)
	if !ok {
		return false, ErrDeviceNotFound
	}
	pc, ok := dev.get(name)
	if !ok {
		return false, ErrPropertyNotFound
	}
	return pc.UnregisterCallback(key), nil
}

// DeviceByInterface scans devices in discovery order for one whose
// DRIVER_INFO.DRIVER_INTERFACE bitmask includes bit. If name is non-empty,
// only that device is considered.
func (t *DeviceTree) DeviceByInterface(bit Interface, name string) (*Device, error) {
	for _, dev := range t.deviceSnapshot() {
		if name != "" && dev.Name != name {
			continue
		}
		if iface, ok := dev.driverInterface(); ok && iface.Has(bit) {
			return dev, nil
		}
	}
	return nil, ErrInterfaceNotFound
}

// StartLivenessSupervisor launches the periodic staleness check described
// in spec: after a startup grace period, every ~5s it scans connected
// devices publishing POLLING_PERIOD.PERIOD_MS and re-issues getProperties
// for any device untouched for 5x that period. Devices untouched for 10x
// the period are logged as zombies but deliberately not pruned (see
// DESIGN.md). getProps is nil-safe: supervision with no getProperties
// hook simply logs.
func (t *DeviceTree) StartLivenessSupervisor(getProps GetPropertiesFunc) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	t.getProperties = getProps

	if _, err := s.NewJob(
		gocron.DurationJob(livenessCheckPeriod),
		gocron.NewTask(t.checkDevices),
	); err != nil {
		return err
	}

	t.scheduler = s
	s.Start()
	return nil
}

// StopLivenessSupervisor shuts down the scheduler started by
// StartLivenessSupervisor, if any.
func (t *DeviceTree) StopLivenessSupervisor() error {
	if t.scheduler == nil {
		return nil
	}
	return t.scheduler.Shutdown()
}

func (t *DeviceTree) checkDevices() {
	if time.Since(t.startedAt) < livenessStartupGrace {
		return
	}

	now := time.Now()
	for _, dev := range t.deviceSnapshot() {
		if !dev.IsConnected() {
			continue
		}
		periodMS, ok := dev.pollingPeriodMS()
		if !ok || periodMS <= 0 {
			continue
		}
		period := time.Duration(periodMS) * time.Millisecond
		stale := now.Sub(dev.lastUpdate())

		if stale >= 10*period {
			if t.log != nil {
				t.log.WithField("device", dev.Name).WithField("staleFor", stale).Warn("device appears dead, re-polling (not pruned)")
			}
			t.requestGetProperties(dev.Name)
			continue
		}
		if stale >= 5*period {
			if t.log != nil {
				t.log.WithField("device", dev.Name).WithField("staleFor", stale).Debug("device stale, re-polling")
			}
			t.requestGetProperties(dev.Name)
		}
	}
}

func (t *DeviceTree) requestGetProperties(device string) {
	if t.getProperties == nil {
		return
	}
	t.getProperties(device)
}
