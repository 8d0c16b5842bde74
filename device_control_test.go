package indicore

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceControlIsConnectedReadsConnectSwitch(t *testing.T) {
	g := newTestGateway()
	g.onDef(Element{Device: "Foo", Name: "CONNECTION", Vector: &SwitchVector{
		Header: Header{Device: "Foo", Name: "CONNECTION", State: PropertyStateOk},
		Rule:   SwitchRuleOneOfMany,
		Items: []SwitchItem{
			{Name: "CONNECT", Value: SwitchStateOn},
			{Name: "DISCONNECT", Value: SwitchStateOff},
		},
	}})

	dc := NewDeviceControl(g, "Foo")
	assert.True(t, dc.IsConnected())
}

func TestDeviceControlIsConnectedFalseWhenPropertyMissing(t *testing.T) {
	g := newTestGateway()
	dc := NewDeviceControl(g, "Foo")
	assert.False(t, dc.IsConnected())
}

func TestDeviceControlConnectAlertsWhenPropertyMissing(t *testing.T) {
	g := newTestGateway()
	dc := NewDeviceControl(g, "Foo")

	res := dc.Connect().Wait(context.Background())
	assert.Equal(t, PropertyStateAlert, res.State)
}

func newPipeGateway(t *testing.T) (*Gateway, *io.PipeWriter, *io.PipeReader) {
	t.Helper()
	serverOut, serverOutW := io.Pipe()
	clientOutR, clientOut := io.Pipe()
	conn := &pipeConn{from: serverOut, to: clientOut}

	dialer := &mockDialer{}
	dialer.On("Dial", "tcp", "localhost:7624").Return(conn, nil)

	g := NewGateway(nil, dialer, afero.NewMemMapFs(), nil)
	g.Start("localhost", "")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	g.BeginStream(ctx)
	require.NoError(t, g.Connection(ctx, time.Second))
	t.Cleanup(func() { _ = g.Shutdown() })

	return g, serverOutW, clientOutR
}

func TestDeviceControlConnectSendsAndAwaitsSettledUpdate(t *testing.T) {
	g, _, clientOutR := newPipeGateway(t)

	g.onDef(Element{Device: "Foo", Name: "CONNECTION", Vector: &SwitchVector{
		Header: Header{Device: "Foo", Name: "CONNECTION", State: PropertyStateIdle},
		Rule:   SwitchRuleOneOfMany,
		Items: []SwitchItem{
			{Name: "CONNECT", Value: SwitchStateOff},
			{Name: "DISCONNECT", Value: SwitchStateOn},
		},
	}})

	dc := NewDeviceControl(g, "Foo")
	d := dc.Connect()

	buf := make([]byte, 512)
	n, err := clientOutR.Read(buf)
	require.NoError(t, err)
	sent := string(buf[:n])
	assert.Contains(t, sent, "newSwitchVector")
	assert.Contains(t, sent, `name="CONNECT"`)

	g.onSet(Element{Device: "Foo", Name: "CONNECTION", Vector: &SwitchVector{
		Header: Header{Device: "Foo", Name: "CONNECTION", State: PropertyStateOk},
		Items: []SwitchItem{
			{Name: "CONNECT", Value: SwitchStateOn},
			{Name: "DISCONNECT", Value: SwitchStateOff},
		},
	}})

	res := d.Wait(context.Background())
	assert.Equal(t, PropertyStateOk, res.State)
}

func TestDeviceControlConfigLoadZeroesOtherActionsAndSetsTarget(t *testing.T) {
	g, _, clientOutR := newPipeGateway(t)

	g.onDef(Element{Device: "Foo", Name: "CONFIG_PROCESS", Vector: &SwitchVector{
		Header: Header{Device: "Foo", Name: "CONFIG_PROCESS", State: PropertyStateOk},
		Rule:   SwitchRuleAtMostOne,
		Items: []SwitchItem{
			{Name: "CONFIG_LOAD", Value: SwitchStateOff},
			{Name: "CONFIG_SAVE", Value: SwitchStateOn},
			{Name: "CONFIG_DEFAULT", Value: SwitchStateOff},
			{Name: "CONFIG_PURGE", Value: SwitchStateOff},
		},
	}})

	dc := NewDeviceControl(g, "Foo")
	dc.ConfigLoad()

	buf := make([]byte, 512)
	n, err := clientOutR.Read(buf)
	require.NoError(t, err)
	sent := string(buf[:n])
	assert.Contains(t, sent, `name="CONFIG_LOAD">On<`)
	assert.Contains(t, sent, `name="CONFIG_SAVE">Off<`)
}

func TestDeviceControlConfigLoadAlertsWhenActionMissing(t *testing.T) {
	g := newTestGateway()
	g.onDef(Element{Device: "Foo", Name: "CONFIG_PROCESS", Vector: &SwitchVector{
		Header: Header{Device: "Foo", Name: "CONFIG_PROCESS", State: PropertyStateOk},
		Items:  []SwitchItem{{Name: "CONFIG_SAVE", Value: SwitchStateOff}},
	}})

	dc := NewDeviceControl(g, "Foo")
	res := dc.ConfigLoad().Wait(context.Background())
	assert.Equal(t, PropertyStateAlert, res.State)
}

func TestDeviceControlSetTCPConnectionShortCircuitsOnFirstLinkFailure(t *testing.T) {
	g := newTestGateway()
	dc := NewDeviceControl(g, "Foo")

	res := dc.SetTCPConnection("192.168.1.50", 7624).Wait(context.Background())
	assert.Equal(t, PropertyStateAlert, res.State)
}

func TestDeviceControlSetTCPConnectionRunsBothLinksInOrder(t *testing.T) {
	g, _, clientOutR := newPipeGateway(t)

	g.onDef(Element{Device: "Foo", Name: "CONNECTION_MODE", Vector: &SwitchVector{
		Header: Header{Device: "Foo", Name: "CONNECTION_MODE", State: PropertyStateOk},
		Rule:   SwitchRuleOneOfMany,
		Items: []SwitchItem{
			{Name: "CONNECTION_SERIAL", Value: SwitchStateOn},
			{Name: "CONNECTION_TCP", Value: SwitchStateOff},
		},
	}})
	g.onDef(Element{Device: "Foo", Name: "DEVICE_ADDRESS", Vector: &TextVector{
		Header: Header{Device: "Foo", Name: "DEVICE_ADDRESS", State: PropertyStateOk},
		Items: []TextItem{
			{Name: "ADDRESS", Value: ""},
			{Name: "PORT", Value: ""},
		},
	}})

	dc := NewDeviceControl(g, "Foo")
	d := dc.SetTCPConnection("192.168.1.50", 7624)

	buf := make([]byte, 512)
	n, err := clientOutR.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "CONNECTION_MODE")

	g.onSet(Element{Device: "Foo", Name: "CONNECTION_MODE", Vector: &SwitchVector{
		Header: Header{Device: "Foo", Name: "CONNECTION_MODE", State: PropertyStateOk},
		Items: []SwitchItem{
			{Name: "CONNECTION_SERIAL", Value: SwitchStateOff},
			{Name: "CONNECTION_TCP", Value: SwitchStateOn},
		},
	}})

	n, err = clientOutR.Read(buf)
	require.NoError(t, err)
	sent := string(buf[:n])
	assert.Contains(t, sent, "DEVICE_ADDRESS")
	assert.Contains(t, sent, "192.168.1.50")
	assert.Contains(t, sent, "7624")

	g.onSet(Element{Device: "Foo", Name: "DEVICE_ADDRESS", Vector: &TextVector{
		Header: Header{Device: "Foo", Name: "DEVICE_ADDRESS", State: PropertyStateOk},
		Items: []TextItem{
			{Name: "ADDRESS", Value: "192.168.1.50"},
			{Name: "PORT", Value: "7624"},
		},
	}})

	res := d.Wait(context.Background())
	assert.Equal(t, PropertyStateOk, res.State)
}
