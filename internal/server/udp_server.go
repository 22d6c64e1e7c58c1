package server

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cvanloo/burrowdns/internal/dnswire"
	"github.com/cvanloo/burrowdns/internal/pool"
)

// Socket buffer sizes for burst handling (4MB each).
const (
	socketRecvBufferSize = 4 * 1024 * 1024
	socketSendBufferSize = 4 * 1024 * 1024
)

// DefaultWorkers is the default number of worker goroutines.
const DefaultWorkers = 64

// bufferPool reduces allocations for incoming UDP packets. Each buffer holds
// one maximum-size plain-UDP DNS message.
var bufferPool = pool.New(func() *[]byte {
	buf := make([]byte, dnswire.PacketSize)
	return &buf
})

// UDPServer handles DNS queries over UDP.
//
// One receiver goroutine reads datagrams from the socket and hands them to a
// fixed pool of workers over a buffered channel. The receive path never
// blocks on worker availability; when every worker is busy and the channel
// (twice the worker count) is full, the datagram is dropped (the client
// retries, an unbounded queue would not help it).
type UDPServer struct {
	Logger  *slog.Logger  // Optional logger
	Handler *QueryHandler // Query processor
	Workers int           // Worker goroutines (default DefaultWorkers)

	conn *net.UDPConn
	wg   sync.WaitGroup
}

// packet represents a received UDP datagram pending processing.
type packet struct {
	bufPtr *[]byte
	n      int
	peer   *net.UDPAddr
}

// Run binds addr and serves until the context is cancelled.
// Returns an error only if socket creation fails.
func (s *UDPServer) Run(ctx context.Context, addr string) error {
	conn, err := listenReusePort(addr)
	if err != nil {
		return err
	}

	_ = conn.SetReadBuffer(socketRecvBufferSize)
	_ = conn.SetWriteBuffer(socketSendBufferSize)

	if s.Logger != nil {
		s.Logger.Info("udp server listening", "addr", conn.LocalAddr().String())
	}

	s.RunOnConn(ctx, conn)
	return s.Stop(5 * time.Second)
}

// RunOnConn serves on an existing UDP connection until the context is
// cancelled. Useful for tests and callers that manage the socket.
func (s *UDPServer) RunOnConn(ctx context.Context, conn *net.UDPConn) {
	if s.Workers <= 0 {
		s.Workers = DefaultWorkers
	}
	s.conn = conn

	packetCh := make(chan packet, s.Workers*2)

	s.wg.Go(func() {
		s.recvLoop(ctx, conn, packetCh)
	})
	for range s.Workers {
		s.wg.Go(func() {
			s.workerLoop(ctx, conn, packetCh)
		})
	}

	<-ctx.Done()
}

// recvLoop reads datagrams from the socket and dispatches them to workers.
// Exits when the socket is closed or the context is cancelled.
func (s *UDPServer) recvLoop(ctx context.Context, conn *net.UDPConn, out chan<- packet) {
	for {
		bufPtr := bufferPool.Get()
		buf := *bufPtr

		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			bufferPool.Put(bufPtr)
			return
		}

		select {
		case out <- packet{bufPtr, n, peer}:
		default:
			// All workers busy; keep the receive path fast.
			bufferPool.Put(bufPtr)
			if s.Logger != nil {
				s.Logger.DebugContext(ctx, "dropping datagram, workers saturated", "peer", peer.String())
			}
		}
	}
}

// workerLoop processes datagrams from the channel until shutdown.
func (s *UDPServer) workerLoop(ctx context.Context, conn *net.UDPConn, in <-chan packet) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-in:
			if !ok {
				return
			}
			s.handlePacket(ctx, conn, pkt)
		}
	}
}

// handlePacket runs one request through the handler and sends the response
// back to its source address. Send failures are logged, never fatal.
func (s *UDPServer) handlePacket(ctx context.Context, conn *net.UDPConn, p packet) {
	defer bufferPool.Put(p.bufPtr)

	if s.Handler == nil {
		return
	}

	payload := (*p.bufPtr)[:p.n]
	resp := s.Handler.Handle(ctx, p.peer.IP.String(), payload)
	if len(resp) == 0 {
		return
	}

	if _, err := conn.WriteToUDP(resp, p.peer); err != nil && s.Logger != nil {
		s.Logger.WarnContext(ctx, "failed to send response", "peer", p.peer.String(), "err", err)
	}
}

// Stop closes the socket and waits up to the timeout for goroutines to exit.
func (s *UDPServer) Stop(timeout time.Duration) error {
	if s.conn != nil {
		_ = s.conn.Close()
	}

	if timeout <= 0 {
		s.wg.Wait()
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
	return nil
}

// listenReusePort binds a UDP socket with SO_REUSEPORT set, so several
// processes (or a future multi-socket setup) can share the port.
func listenReusePort(addr string) (*net.UDPConn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
		},
	}

	pc, err := lc.ListenPacket(context.Background(), "udp", udpAddr.String())
	if err != nil {
		return nil, err
	}

	return pc.(*net.UDPConn), nil
}
