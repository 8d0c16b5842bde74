package indicore

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rickbassham/logging"
	"github.com/spf13/afero"
)

// Gateway ties Connection, XMLFramer, DeviceTree, BlobStore, and Metrics
// together behind the public surface a driver author actually uses.
type Gateway struct {
	log     logging.Logger
	conn    *Connection
	tree    *DeviceTree
	blobs   *BlobStore
	metrics *Metrics
}

// NewGateway creates a Gateway. fs backs BLOB spooling; reg may be nil (no
// Prometheus registration, Metrics() still safe to call).
func NewGateway(log logging.Logger, dialer Dialer, fs afero.Fs, reg prometheus.Registerer) *Gateway {
	return &Gateway{
		log:     log,
		conn:    NewConnection(log, dialer),
		tree:    NewDeviceTree(log),
		blobs:   NewBlobStore(fs, log),
		metrics: NewMetrics(reg),
	}
}

// Start configures the endpoint without connecting.
func (g *Gateway) Start(host, port string) {
	g.conn.Start(host, port)
}

// BeginStream launches the connection's reconnect loop, which runs until ctx
// is canceled, and the device tree's liveness supervisor, which runs until
// Shutdown is called.
func (g *Gateway) BeginStream(ctx context.Context) {
	cb := FramerCallbacks{
		OnDef:     g.onDef,
		OnSet:     g.onSet,
		OnDel:     g.onDel,
		OnMessage: g.onMessage,
	}

	go func() {
		if err := g.conn.Connect(ctx, cb); err != nil && g.log != nil {
			g.log.WithError(err).Warn("connection loop stopped")
		}
	}()

	if err := g.tree.StartLivenessSupervisor(func(device string) {
		_ = g.GetProperties(device, "")
	}); err != nil && g.log != nil {
		g.log.WithError(err).Warn("could not start liveness supervisor")
	}
}

// Connection blocks until the first successful connect, until ctx is done,
// or (if timeout > 0) until timeout elapses.
func (g *Gateway) Connection(ctx context.Context, timeout time.Duration) error {
	return g.conn.Connection(ctx, timeout)
}

// Shutdown stops the liveness supervisor. The connection loop stops on its
// own once the ctx passed to BeginStream is canceled.
func (g *Gateway) Shutdown() error {
	return g.tree.StopLivenessSupervisor()
}

func (g *Gateway) onDef(e Element) { g.applyElement(e) }
func (g *Gateway) onSet(e Element) { g.applyElement(e) }

func (g *Gateway) applyElement(e Element) {
	if e.Vector == nil {
		return
	}
	g.metrics.RecordElement(e.Tag)
	g.tree.Apply(e.Vector)
	g.metrics.SetDeviceCount(len(g.tree.DeviceNames()))

	bv, ok := e.Vector.(*BlobVector)
	if !ok {
		return
	}
	for _, item := range bv.Items {
		n, err := g.blobs.Spool(bv.Device, bv.Name, item)
		if err != nil {
			if g.log != nil {
				g.log.WithField("device", bv.Device).WithField("property", bv.Name).WithError(err).Warn("error spooling blob")
			}
			continue
		}
		g.metrics.RecordBlobBytes(bv.Device, n)
	}
}

func (g *Gateway) onDel(e Element) {
	g.metrics.RecordElement(e.Tag)
	g.tree.Del(e.Device, e.Name)
	g.metrics.SetDeviceCount(len(g.tree.DeviceNames()))
}

func (g *Gateway) onMessage(e Element) {
	g.metrics.RecordElement(e.Tag)
	if g.log != nil && e.Msg != nil {
		g.log.WithField("device", e.Msg.Device).Info(e.Msg.Message)
	}
}

// GetProperties issues a discovery request. name without device is invalid.
func (g *Gateway) GetProperties(device, name string) error {
	if name != "" && device == "" {
		return ErrPropertyWithoutDevice
	}
	w := wireGetProperties{Version: indiProtocolVersion, Device: device, Name: name}
	b, err := xml.Marshal(w)
	if err != nil {
		return err
	}
	return g.conn.Send(b)
}

// GetVector returns a synchronous snapshot of device/name.
func (g *Gateway) GetVector(device, name string) (Vector, error) {
	return g.tree.GetVector(device, name)
}

// SendVector serializes v and queues it for the connection's writer,
// optimistically marking the tree's local copy Busy. It returns once the
// bytes are queued; it does not wait for them to be written to the socket.
func (g *Gateway) SendVector(v Vector) (DeferResult, error) {
	encoded, err := v.Encode()
	if err != nil {
		return DeferResult{State: PropertyStateAlert, Message: err.Error()}, err
	}

	if err := g.conn.Send([]byte(encoded)); err != nil {
		return DeferResult{State: PropertyStateAlert, Message: err.Error()}, err
	}

	optimistic := v.Clone()
	h := optimistic.Head()
	h.State = PropertyStateBusy
	optimistic.SetHead(h)
	g.tree.Apply(optimistic)

	return DeferResult{State: PropertyStateOk, Data: v, Message: "sent"}, nil
}

// SetSendVector deep-copies the current vector for device/name, optionally
// resets every item to fill, applies updates (item name -> new value, typed
// per the vector's kind), then sends it.
func (g *Gateway) SetSendVector(device, name string, updates map[string]interface{}, fill interface{}) (DeferResult, error) {
	current, err := g.tree.GetVector(device, name)
	if err != nil {
		return DeferResult{State: PropertyStateAlert, Message: err.Error()}, err
	}

	v := current.Clone()
	if fill != nil {
		fillVectorItems(v, fill)
	}
	if err := applyVectorUpdates(v, updates); err != nil {
		return DeferResult{State: PropertyStateAlert, Message: err.Error()}, err
	}

	return g.SendVector(v)
}

// RegisterCallback delegates to DeviceTree.
func (g *Gateway) RegisterCallback(device, name string, fn func(Vector), once bool) (string, error) {
	return g.tree.RegisterCallback(device, name, fn, once)
}

// UnregisterCallback delegates to DeviceTree.
func (g *Gateway) UnregisterCallback(device, name, key string) (bool, error) {
	return g.tree.UnregisterCallback(device, name, key)
}

// GetDeviceByInterface delegates to DeviceTree.
func (g *Gateway) GetDeviceByInterface(bit Interface, name string) (*Device, error) {
	return g.tree.DeviceByInterface(bit, name)
}

// EnableBlob issues an enableBLOB directive and records it for replay after
// a reconnect.
func (g *Gateway) EnableBlob(device string, val BlobEnable) error {
	if val != BlobEnableAlso && val != BlobEnableNever && val != BlobEnableOnly {
		return ErrInvalidBlobEnable
	}
	w := wireEnableBlob{Device: device, Value: val}
	b, err := xml.Marshal(w)
	if err != nil {
		return err
	}
	g.conn.RecordBlobDirective(string(b))
	return g.conn.Send(b)
}

// GetBlob opens the most recently spooled BLOB file for device/prop/name.
func (g *Gateway) GetBlob(device, prop, name string) (io.ReadCloser, string, int64, error) {
	return g.blobs.Get(device, prop, name)
}

// GetBlobStream opens a live stream of future BLOB frames for device/prop/name.
func (g *Gateway) GetBlobStream(device, prop, name string) (io.ReadCloser, string, error) {
	return g.blobs.OpenStream(device, prop, name)
}

// CloseBlobStream closes a stream opened by GetBlobStream.
func (g *Gateway) CloseBlobStream(device, prop, name, id string) error {
	return g.blobs.CloseStream(device, prop, name, id)
}

// Metrics returns the Gateway's Prometheus instrumentation. Safe to call
// even when NewGateway was given a nil registerer.
func (g *Gateway) Metrics() *Metrics {
	return g.metrics
}

func fillVectorItems(v Vector, fill interface{}) {
	switch vv := v.(type) {
	case *NumberVector:
		if f, ok := fill.(float64); ok {
			for i := range vv.Items {
				vv.Items[i].Value = f
			}
		}
	case *SwitchVector:
		if s, ok := asSwitchState(fill); ok {
			for i := range vv.Items {
				vv.Items[i].Value = s
			}
		}
	case *TextVector:
		if s, ok := fill.(string); ok {
			for i := range vv.Items {
				vv.Items[i].Value = s
			}
		}
	case *BlobVector:
		if b, ok := fill.([]byte); ok {
			for i := range vv.Items {
				vv.Items[i].Value = b
				vv.Items[i].Size = len(b)
			}
		}
	}
}

func applyVectorUpdates(v Vector, updates map[string]interface{}) error {
	switch vv := v.(type) {
	case *NumberVector:
		for name, val := range updates {
			f, ok := val.(float64)
			if !ok {
				return fmt.Errorf("indicore: update for %q is not a float64", name)
			}
			idx := numberItemIndex(vv.Items, name)
			if idx < 0 {
				return ErrItemNotFound
			}
			vv.Items[idx].Value = f
		}
	case *SwitchVector:
		for name, val := range updates {
			s, ok := asSwitchState(val)
			if !ok {
				return fmt.Errorf("indicore: update for %q is not a SwitchState or bool", name)
			}
			idx := switchItemIndex(vv.Items, name)
			if idx < 0 {
				return ErrItemNotFound
			}
			vv.Items[idx].Value = s
		}
	case *TextVector:
		for name, val := range updates {
			s, ok := val.(string)
			if !ok {
				return fmt.Errorf("indicore: update for %q is not a string", name)
			}
			idx := textItemIndex(vv.Items, name)
			if idx < 0 {
				return ErrItemNotFound
			}
			vv.Items[idx].Value = s
		}
	case *BlobVector:
		for name, val := range updates {
			b, ok := val.([]byte)
			if !ok {
				return fmt.Errorf("indicore: update for %q is not a []byte", name)
			}
			idx := blobItemIndex(vv.Items, name)
			if idx < 0 {
				return ErrItemNotFound
			}
			vv.Items[idx].Value = b
			vv.Items[idx].Size = len(b)
		}
	default:
		return ErrWrongKind
	}
	return nil
}

func asSwitchState(val interface{}) (SwitchState, bool) {
	switch s := val.(type) {
	case SwitchState:
		return s, true
	case bool:
		if s {
			return SwitchStateOn, true
		}
		return SwitchStateOff, true
	default:
		return "", false
	}
}

func numberItemIndex(items []NumberItem, name string) int {
	for i, it := range items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

func switchItemIndex(items []SwitchItem, name string) int {
	for i, it := range items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

func textItemIndex(items []TextItem, name string) int {
	for i, it := range items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

func blobItemIndex(items []BlobItem, name string) int {
	for i, it := range items {
		if it.Name == name {
			return i
		}
	}
	return -1
}
