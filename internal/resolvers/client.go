package resolvers

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cvanloo/burrowdns/internal/dnswire"
	"github.com/cvanloo/burrowdns/internal/metrics"
	"github.com/cvanloo/burrowdns/internal/random"
)

// DefaultExchangeTimeout bounds a single upstream query when the caller's
// context carries no earlier deadline.
const DefaultExchangeTimeout = 3 * time.Second

// Client performs single DNS exchanges over IPv4 UDP. Each exchange dials a
// fresh socket bound to an ephemeral local port, so consecutive queries
// never share a source port.
type Client struct {
	Timeout time.Duration // Per-exchange deadline (default 3s)
	Port    int           // Upstream port (default 53)
}

// Exchange sends one query for (qname, qtype) to the given server and
// decodes the single response datagram. Encode, send, receive and decode
// failures all fail the exchange.
func (c *Client) Exchange(ctx context.Context, server net.IP, qname string, qtype dnswire.QueryType) (*dnswire.Packet, error) {
	resp, err := c.exchange(ctx, server, qname, qtype)
	if err != nil {
		metrics.UpstreamExchanges.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.UpstreamExchanges.WithLabelValues("ok").Inc()
	return resp, nil
}

func (c *Client) exchange(ctx context.Context, server net.IP, qname string, qtype dnswire.QueryType) (*dnswire.Packet, error) {
	query := &dnswire.Packet{
		Header: dnswire.Header{
			ID:               random.TransactionID(),
			RecursionDesired: true,
		},
		Questions: []dnswire.Question{{Name: qname, Type: qtype}},
	}

	reqBuf := dnswire.NewPacketBuffer()
	if err := query.Write(reqBuf); err != nil {
		return nil, fmt.Errorf("encode query for %s: %w", qname, err)
	}

	port := c.Port
	if port == 0 {
		port = 53
	}
	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: server, Port: port})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", server, err)
	}
	defer conn.Close()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultExchangeTimeout
	}
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write(reqBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("send query to %s: %w", server, err)
	}

	raw := make([]byte, dnswire.PacketSize)
	n, err := conn.Read(raw)
	if err != nil {
		return nil, fmt.Errorf("receive from %s: %w", server, err)
	}

	respBuf := dnswire.NewPacketBufferFrom(raw[:n])
	resp, err := dnswire.ReadPacket(respBuf)
	if err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", server, err)
	}
	return resp, nil
}
