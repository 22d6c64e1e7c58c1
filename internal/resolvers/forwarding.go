package resolvers

import (
	"context"
	"fmt"
	"net"

	"github.com/cvanloo/burrowdns/internal/dnswire"
)

// ForwardingResolver forwards every question to a single upstream recursive
// resolver and relays the response verbatim, sections and rcode included.
type ForwardingResolver struct {
	upstream net.IP
	client   Exchanger
}

// NewForwardingResolver creates a resolver forwarding to the given upstream.
func NewForwardingResolver(upstream net.IP, client Exchanger) *ForwardingResolver {
	return &ForwardingResolver{upstream: upstream, client: client}
}

// Resolve performs one exchange with the upstream.
func (f *ForwardingResolver) Resolve(ctx context.Context, qname string, qtype dnswire.QueryType) (Result, error) {
	resp, err := f.client.Exchange(ctx, f.upstream, qname, qtype)
	if err != nil {
		return Result{}, fmt.Errorf("forward %s to %s: %w", qname, f.upstream, err)
	}
	return Result{Packet: resp, Source: "forward"}, nil
}

// Close implements Resolver. The forwarding resolver holds no resources.
func (f *ForwardingResolver) Close() error { return nil }
