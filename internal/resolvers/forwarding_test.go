package resolvers

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/cvanloo/burrowdns/internal/dnswire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwarding_RelaysVerbatim(t *testing.T) {
	upstream := net.IPv4(8, 8, 8, 8)
	resp := &dnswire.Packet{
		Header: dnswire.Header{Response: true, Rcode: dnswire.RcodeNoError},
		Answers: []dnswire.Record{
			&dnswire.ARecord{
				RRMeta: dnswire.RRMeta{Domain: "example.com", TTL: 60},
				Addr:   net.IPv4(93, 184, 216, 34),
			},
		},
		Authorities: []dnswire.Record{
			&dnswire.NSRecord{
				RRMeta: dnswire.RRMeta{Domain: "example.com", TTL: 86400},
				Host:   "ns1.example.com",
			},
		},
	}

	client := exchangeFunc(func(_ context.Context, server net.IP, qname string, qtype dnswire.QueryType) (*dnswire.Packet, error) {
		assert.True(t, server.Equal(upstream))
		assert.Equal(t, "example.com", qname)
		assert.Equal(t, dnswire.TypeA, qtype)
		return resp, nil
	})

	f := NewForwardingResolver(upstream, client)
	res, err := f.Resolve(context.Background(), "example.com", dnswire.TypeA)
	require.NoError(t, err)

	// The upstream packet is handed through untouched.
	assert.Same(t, resp, res.Packet)
	assert.Equal(t, "forward", res.Source)
}

func TestForwarding_UpstreamError(t *testing.T) {
	upstreamErr := errors.New("i/o timeout")
	client := exchangeFunc(func(_ context.Context, _ net.IP, _ string, _ dnswire.QueryType) (*dnswire.Packet, error) {
		return nil, upstreamErr
	})

	f := NewForwardingResolver(net.IPv4(8, 8, 8, 8), client)
	_, err := f.Resolve(context.Background(), "example.com", dnswire.TypeA)
	require.ErrorIs(t, err, upstreamErr)
}
