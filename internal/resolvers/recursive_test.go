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

// exchangeFunc adapts a function to the Exchanger interface.
type exchangeFunc func(ctx context.Context, server net.IP, qname string, qtype dnswire.QueryType) (*dnswire.Packet, error)

func (f exchangeFunc) Exchange(ctx context.Context, server net.IP, qname string, qtype dnswire.QueryType) (*dnswire.Packet, error) {
	return f(ctx, server, qname, qtype)
}

var rootAddr = net.IPv4(198, 41, 0, 4)

func googleDelegation() *dnswire.Packet {
	return &dnswire.Packet{
		Header: dnswire.Header{Response: true},
		Authorities: []dnswire.Record{
			&dnswire.NSRecord{
				RRMeta: dnswire.RRMeta{Domain: "google.com", TTL: 172800},
				Host:   "ns1.google.com",
			},
			&dnswire.NSRecord{
				RRMeta: dnswire.RRMeta{Domain: "google.com", TTL: 172800},
				Host:   "ns2.google.com",
			},
		},
		Additionals: []dnswire.Record{
			&dnswire.ARecord{
				RRMeta: dnswire.RRMeta{Domain: "ns1.google.com", TTL: 172800},
				Addr:   net.IPv4(216, 239, 34, 10),
			},
			&dnswire.ARecord{
				RRMeta: dnswire.RRMeta{Domain: "ns2.google.com", TTL: 172800},
				Addr:   net.IPv4(216, 239, 32, 10),
			},
		},
	}
}

func answerFor(qname string, addr net.IP) *dnswire.Packet {
	return &dnswire.Packet{
		Header: dnswire.Header{Response: true},
		Answers: []dnswire.Record{
			&dnswire.ARecord{
				RRMeta: dnswire.RRMeta{Domain: qname, TTL: 300},
				Addr:   addr,
			},
		},
	}
}

func TestRecursive_GlueDelegation(t *testing.T) {
	glueIPs := []net.IP{net.IPv4(216, 239, 34, 10), net.IPv4(216, 239, 32, 10)}
	var servers []net.IP

	client := exchangeFunc(func(_ context.Context, server net.IP, qname string, qtype dnswire.QueryType) (*dnswire.Packet, error) {
		servers = append(servers, server)
		require.Equal(t, "www.google.com", qname)
		require.Equal(t, dnswire.TypeA, qtype)

		if server.Equal(rootAddr) {
			return googleDelegation(), nil
		}
		return answerFor(qname, net.IPv4(142, 250, 74, 36)), nil
	})

	r := NewRecursiveResolver(rootAddr, 0, client)
	res, err := r.Resolve(context.Background(), "www.google.com", dnswire.TypeA)
	require.NoError(t, err)

	require.Len(t, servers, 2)
	assert.True(t, servers[0].Equal(rootAddr))
	// The second query goes to one of the glue addresses.
	assert.True(t, servers[1].Equal(glueIPs[0]) || servers[1].Equal(glueIPs[1]))

	ip, ok := res.Packet.FirstA()
	require.True(t, ok)
	assert.True(t, ip.Equal(net.IPv4(142, 250, 74, 36)))
	assert.Equal(t, "recursive", res.Source)
}

func TestRecursive_GluelessDelegation(t *testing.T) {
	nsAddr := net.IPv4(198, 51, 100, 7)
	var trace []string

	client := exchangeFunc(func(_ context.Context, server net.IP, qname string, qtype dnswire.QueryType) (*dnswire.Packet, error) {
		trace = append(trace, server.String()+"/"+qname)

		switch {
		case server.Equal(rootAddr) && qname == "www.example.com":
			// Referral without glue.
			return &dnswire.Packet{
				Header: dnswire.Header{Response: true},
				Authorities: []dnswire.Record{
					&dnswire.NSRecord{
						RRMeta: dnswire.RRMeta{Domain: "example.com", TTL: 172800},
						Host:   "ns1.example.net",
					},
				},
			}, nil
		case server.Equal(rootAddr) && qname == "ns1.example.net":
			return answerFor(qname, nsAddr), nil
		case server.Equal(nsAddr):
			return answerFor(qname, net.IPv4(203, 0, 113, 80)), nil
		default:
			t.Fatalf("unexpected exchange: %s at %s", qname, server)
			return nil, nil
		}
	})

	r := NewRecursiveResolver(rootAddr, 0, client)
	res, err := r.Resolve(context.Background(), "www.example.com", dnswire.TypeA)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"198.41.0.4/www.example.com",
		"198.41.0.4/ns1.example.net",
		"198.51.100.7/www.example.com",
	}, trace)

	ip, ok := res.Packet.FirstA()
	require.True(t, ok)
	assert.True(t, ip.Equal(net.IPv4(203, 0, 113, 80)))
}

func TestRecursive_NXDomainTerminates(t *testing.T) {
	calls := 0
	client := exchangeFunc(func(_ context.Context, _ net.IP, _ string, _ dnswire.QueryType) (*dnswire.Packet, error) {
		calls++
		return &dnswire.Packet{
			Header: dnswire.Header{Response: true, Rcode: dnswire.RcodeNXDomain},
		}, nil
	})

	r := NewRecursiveResolver(rootAddr, 0, client)
	res, err := r.Resolve(context.Background(), "does-not-exist.example", dnswire.TypeA)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, dnswire.RcodeNXDomain, res.Packet.Header.Rcode)
}

func TestRecursive_DeadEndReturnsLastResponse(t *testing.T) {
	// NOERROR, no answers, no referral: nothing left to chase.
	client := exchangeFunc(func(_ context.Context, _ net.IP, _ string, _ dnswire.QueryType) (*dnswire.Packet, error) {
		return &dnswire.Packet{Header: dnswire.Header{Response: true}}, nil
	})

	r := NewRecursiveResolver(rootAddr, 0, client)
	res, err := r.Resolve(context.Background(), "www.example.com", dnswire.TypeA)
	require.NoError(t, err)
	assert.Empty(t, res.Packet.Answers)
}

func TestRecursive_GluelessDeadEndReturnsReferral(t *testing.T) {
	// The name server's own address cannot be resolved; the referral
	// response is the best available answer.
	client := exchangeFunc(func(_ context.Context, _ net.IP, qname string, _ dnswire.QueryType) (*dnswire.Packet, error) {
		if qname == "www.example.com" {
			return &dnswire.Packet{
				Header: dnswire.Header{Response: true},
				Authorities: []dnswire.Record{
					&dnswire.NSRecord{
						RRMeta: dnswire.RRMeta{Domain: "example.com", TTL: 172800},
						Host:   "ns1.example.net",
					},
				},
			}, nil
		}
		return &dnswire.Packet{Header: dnswire.Header{Response: true}}, nil
	})

	r := NewRecursiveResolver(rootAddr, 0, client)
	res, err := r.Resolve(context.Background(), "www.example.com", dnswire.TypeA)
	require.NoError(t, err)
	require.Len(t, res.Packet.Authorities, 1)
	assert.Empty(t, res.Packet.Answers)
}

func TestRecursive_DelegationLimit(t *testing.T) {
	// Every server refers onward with glue, forever.
	client := exchangeFunc(func(_ context.Context, _ net.IP, _ string, _ dnswire.QueryType) (*dnswire.Packet, error) {
		return googleDelegation(), nil
	})

	r := NewRecursiveResolver(rootAddr, 4, client)
	_, err := r.Resolve(context.Background(), "www.google.com", dnswire.TypeA)
	require.ErrorIs(t, err, ErrDelegationLimit)
}

func TestRecursive_UpstreamErrorFailsResolution(t *testing.T) {
	upstreamErr := errors.New("network unreachable")
	client := exchangeFunc(func(_ context.Context, _ net.IP, _ string, _ dnswire.QueryType) (*dnswire.Packet, error) {
		return nil, upstreamErr
	})

	r := NewRecursiveResolver(rootAddr, 0, client)
	_, err := r.Resolve(context.Background(), "www.google.com", dnswire.TypeA)
	require.ErrorIs(t, err, upstreamErr)
}

func TestRecursive_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := exchangeFunc(func(_ context.Context, _ net.IP, _ string, _ dnswire.QueryType) (*dnswire.Packet, error) {
		t.Fatal("exchange must not run after cancellation")
		return nil, nil
	})

	r := NewRecursiveResolver(rootAddr, 0, client)
	_, err := r.Resolve(ctx, "www.google.com", dnswire.TypeA)
	require.ErrorIs(t, err, context.Canceled)
}
