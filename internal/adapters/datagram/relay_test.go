package datagram_test

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ferry/internal/adapters/datagram"
	"go.trai.ch/ferry/internal/adapters/dnscache"
	"go.trai.ch/ferry/internal/adapters/telemetry"
	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/core/ports"
	"go.trai.ch/ferry/internal/core/ports/mocks"
	"go.trai.ch/ferry/internal/engine/reactor"
	"go.uber.org/mock/gomock"
)

// recordingHandle reports the address of every packet socket it opens.
type recordingHandle struct {
	ports.EngineHandle
	addrs chan string
}

func (h *recordingHandle) ListenPacket(ctx context.Context, network, address string) (net.PacketConn, error) {
	pc, err := h.EngineHandle.ListenPacket(ctx, network, address)
	if err == nil {
		h.addrs <- pc.LocalAddr().String()
	}
	return pc, err
}

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	ctrl := gomock.NewController(t)
	l := mocks.NewMockLogger(ctrl)
	l.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	return l
}

// startEcho runs a UDP server that echoes every datagram.
func startEcho(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	go func() {
		buf := make([]byte, 2048)
		for {
			n, addr, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			_, _ = pc.WriteTo(buf[:n], addr)
		}
	}()
	return pc.LocalAddr().String()
}

type runningRelay struct {
	addr   string
	cancel context.CancelFunc
	done   chan error
}

func startRelay(t *testing.T, log ports.Logger, cfg *domain.Config, resolver ports.Resolver) *runningRelay {
	t.Helper()
	e, err := reactor.NewFactory(log).NewEngine(cfg)
	require.NoError(t, err)
	h := &recordingHandle{EngineHandle: e.Handle(), addrs: make(chan string, len(cfg.Servers))}

	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	task := datagram.New(log, telemetry.NewNoOpTracer()).Task(cfg, h, resolver)
	go func() { done <- task(ctx) }()

	select {
	case addr := <-h.addrs:
		return &runningRelay{addr: addr, cancel: cancel, done: done}
	case err := <-done:
		t.Fatalf("relay exited early: %v", err)
		return nil
	}
}

func exchange(t *testing.T, conn net.Conn, msg string) string {
	t.Helper()
	_, err := conn.Write([]byte(msg))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 2048)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestRelay_ForwardsReplies(t *testing.T) {
	echo := startEcho(t)
	cfg := &domain.Config{EnableUDP: true, Servers: []domain.ServerConfig{{Listen: "127.0.0.1:0", Target: echo}}}
	r := startRelay(t, quietLogger(t), cfg, dnscache.New(0, nil))

	first, err := net.Dial("udp", r.addr)
	require.NoError(t, err)
	defer first.Close()
	second, err := net.Dial("udp", r.addr)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, "one", exchange(t, first, "one"))
	assert.Equal(t, "two", exchange(t, second, "two"))
	assert.Equal(t, "three", exchange(t, first, "three"))
}

func TestRelay_ReusesAssociationUntilIdle(t *testing.T) {
	echo := startEcho(t)
	_, port, err := net.SplitHostPort(echo)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockResolver(ctrl)
	resolver.EXPECT().Resolve(gomock.Any(), "echo.test").
		Return([]netip.Addr{netip.MustParseAddr("127.0.0.1")}, nil).
		Times(2)

	cfg := &domain.Config{
		EnableUDP: true,
		Servers:   []domain.ServerConfig{{Listen: "127.0.0.1:0", Target: net.JoinHostPort("echo.test", port)}},
		UDP:       domain.UDPConfig{Timeout: 100 * time.Millisecond},
	}
	r := startRelay(t, quietLogger(t), cfg, resolver)

	conn, err := net.Dial("udp", r.addr)
	require.NoError(t, err)
	defer conn.Close()

	// Both datagrams share one association.
	assert.Equal(t, "a", exchange(t, conn, "a"))
	assert.Equal(t, "b", exchange(t, conn, "b"))

	// After the idle timeout the association is gone and the target is resolved again.
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, "c", exchange(t, conn, "c"))
}

func TestRelay_DropsDatagramWhenTargetUnresolvable(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockResolver(ctrl)
	resolver.EXPECT().Resolve(gomock.Any(), "nowhere.test").
		Return(nil, errors.Join(domain.ErrResolveFailed, errors.New("nxdomain")))

	log := quietLogger(t)
	warned := make(chan struct{})
	log.EXPECT().Warn("dropping datagram", gomock.Any()).Do(func(string, ...any) { close(warned) })

	cfg := &domain.Config{EnableUDP: true, Servers: []domain.ServerConfig{{Listen: "127.0.0.1:0", Target: "nowhere.test:53"}}}
	r := startRelay(t, log, cfg, resolver)

	conn, err := net.Dial("udp", r.addr)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("query"))
	require.NoError(t, err)

	select {
	case <-warned:
	case <-time.After(5 * time.Second):
		t.Fatal("datagram was not dropped")
	}

	r.cancel()
	require.NoError(t, <-r.done, "a dropped datagram is never fatal")
}

func TestRelay_ListenFailure(t *testing.T) {
	busy, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	log := quietLogger(t)
	cfg := &domain.Config{EnableUDP: true, Servers: []domain.ServerConfig{{Listen: busy.LocalAddr().String(), Target: "127.0.0.1:9"}}}
	e, err := reactor.NewFactory(log).NewEngine(cfg)
	require.NoError(t, err)

	err = datagram.New(log, telemetry.NewNoOpTracer()).Task(cfg, e.Handle(), dnscache.New(0, nil))(t.Context())
	require.ErrorIs(t, err, domain.ErrListenFailed)
}

func TestRelay_StopsCleanlyOnCancel(t *testing.T) {
	cfg := &domain.Config{EnableUDP: true, Servers: []domain.ServerConfig{{Listen: "127.0.0.1:0", Target: "127.0.0.1:9"}}}
	r := startRelay(t, quietLogger(t), cfg, dnscache.New(0, nil))

	r.cancel()
	select {
	case err := <-r.done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop")
	}
}

// heldHandle records the reply loops the relay starts instead of running them.
type heldHandle struct {
	ports.EngineHandle
	held []func()
}

func (h *heldHandle) Go(fn func()) {
	h.held = append(h.held, fn)
}

// startSink runs a UDP server that reports every datagram it receives.
func startSink(t *testing.T) (string, <-chan string) {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	got := make(chan string, 8)
	go func() {
		buf := make([]byte, 2048)
		for {
			n, _, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			got <- string(buf[:n])
		}
	}()
	return pc.LocalAddr().String(), got
}

func TestServer_ForwardReplacesClosedAssociation(t *testing.T) {
	sink, received := startSink(t)
	log := quietLogger(t)
	cfg := &domain.Config{EnableUDP: true, Servers: []domain.ServerConfig{{Listen: "127.0.0.1:0", Target: sink}}}

	e, err := reactor.NewFactory(log).NewEngine(cfg)
	require.NoError(t, err)
	h := &heldHandle{EngineHandle: e.Handle()}

	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockResolver(ctrl)
	resolver.EXPECT().Resolve(gomock.Any(), "127.0.0.1").
		Return([]netip.Addr{netip.MustParseAddr("127.0.0.1")}, nil).
		Times(2)

	srv, err := datagram.NewServer(datagram.New(log, telemetry.NewNoOpTracer()), cfg, cfg.Servers[0], h, resolver)
	require.NoError(t, err)
	t.Cleanup(srv.Associations().Purge)

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()
	client := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}

	srv.Forward(t.Context(), pc, client, []byte("one"))
	assert.Equal(t, "one", receive(t, received))

	// The association expires between lookup and send: its socket is closed
	// while the table still holds it.
	first, ok := srv.Associations().Get(client.String())
	require.True(t, ok)
	first.Close()

	srv.Forward(t.Context(), pc, client, []byte("two"))
	assert.Equal(t, "two", receive(t, received), "the datagram reaches the target through a new association")

	second, ok := srv.Associations().Get(client.String())
	require.True(t, ok)
	assert.NotSame(t, first, second)
	assert.Equal(t, 1, srv.Associations().Len())
	assert.Len(t, h.held, 2)
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("nothing received")
		return ""
	}
}
