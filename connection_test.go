package indicore

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDialer struct {
	mock.Mock
}

func (m *mockDialer) Dial(network, address string) (io.ReadWriteCloser, error) {
	args := m.Called(network, address)

	c := args.Get(0)
	err := args.Error(1)
	if c == nil {
		return nil, err
	}

	return c.(io.ReadWriteCloser), err
}

// pipeConn is a full-duplex in-memory connection: reads come from `from`
// (the fake server's outbound pipe) and writes go to `to` (the fake server's
// inbound pipe). Both block naturally like a real socket instead of needing
// a sleep-loop hack.
type pipeConn struct {
	from *io.PipeReader
	to   *io.PipeWriter
}

func (p *pipeConn) Read(b []byte) (int, error)  { return p.from.Read(b) }
func (p *pipeConn) Write(b []byte) (int, error) { return p.to.Write(b) }
func (p *pipeConn) Close() error {
	p.from.Close()
	return p.to.Close()
}

func TestConnectionConnectAndSend(t *testing.T) {
	serverOut, serverOutW := io.Pipe()
	clientOutR, clientOut := io.Pipe()

	conn := &pipeConn{from: serverOut, to: clientOut}

	dialer := &mockDialer{}
	dialer.On("Dial", "tcp", "localhost:7624").Return(conn, nil)

	c := NewConnection(nil, dialer)
	c.Start("localhost", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Connect(ctx, FramerCallbacks{})
	}()

	require.NoError(t, c.Connection(ctx, time.Second))

	require.NoError(t, c.Send([]byte("hello")))

	buf := make([]byte, 5)
	_, err := io.ReadFull(clientOutR, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	cancel()
	serverOutW.Close()
	wg.Wait()
}

func TestConnectionReplaysBlobDirectivesAfterReconnect(t *testing.T) {
	firstOut, firstOutW := io.Pipe()
	firstInR, firstIn := io.Pipe()

	secondOut, secondOutW := io.Pipe()
	secondInR, secondIn := io.Pipe()

	firstConn := &pipeConn{from: firstOut, to: firstIn}
	secondConn := &pipeConn{from: secondOut, to: secondIn}

	dialer := &mockDialer{}
	dialer.On("Dial", "tcp", "localhost:7624").Return(firstConn, nil).Once()
	dialer.On("Dial", "tcp", "localhost:7624").Return(secondConn, nil)

	c := NewConnection(nil, dialer)
	c.Start("localhost", "")
	directive := `<enableBLOB device="Cam">Also</enableBLOB>`
	c.RecordBlobDirective(directive)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Connect(ctx, FramerCallbacks{})
	}()

	require.NoError(t, c.Connection(ctx, time.Second))

	// drain the replay from the first connect
	firstReplay := make([]byte, len(directive))
	_, err := io.ReadFull(firstInR, firstReplay)
	require.NoError(t, err)
	assert.Equal(t, directive, string(firstReplay))

	// force a disconnect; the reconnect loop should replay the directive again
	firstOutW.Close()

	secondReplay := make([]byte, len(directive))
	_, err = io.ReadFull(secondInR, secondReplay)
	require.NoError(t, err)
	assert.Equal(t, directive, string(secondReplay))

	cancel()
	secondOutW.Close()
	wg.Wait()
}
