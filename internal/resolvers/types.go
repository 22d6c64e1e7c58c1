// Package resolvers provides the DNS resolution strategies behind burrowdns.
//
// Architecture:
//
// Two strategies answer client questions:
//
//  1. ForwardingResolver - hands the question to a single public recursive
//     resolver and relays whatever comes back.
//  2. RecursiveResolver - walks the DNS hierarchy itself, from a root server
//     down to the authoritative server, following NS referrals and glue.
//
// Both are built on the same Exchanger primitive: one query packet sent over
// a fresh ephemeral UDP socket, one response datagram decoded. Transaction
// IDs are randomized per exchange.
//
// Error Handling:
//
// Errors are wrapped with context using fmt.Errorf("...: %w", err). A failed
// upstream exchange fails the whole resolution; the server loop maps that to
// SERVFAIL.
package resolvers

import (
	"context"
	"net"

	"github.com/cvanloo/burrowdns/internal/dnswire"
)

// Result holds the outcome of a DNS resolution.
type Result struct {
	Packet *dnswire.Packet // Decoded upstream response
	Source string          // Strategy that produced it ("forward", "recursive")
}

// Resolver is the interface for DNS resolution strategies.
type Resolver interface {
	// Resolve answers a single question. The context bounds the whole
	// resolution including every upstream exchange.
	Resolve(ctx context.Context, qname string, qtype dnswire.QueryType) (Result, error)

	// Close releases any resources held by the resolver.
	Close() error
}

// Exchanger performs one DNS exchange with a specific server. It exists as
// an interface so the recursive descent can be driven by a scripted
// implementation in tests.
type Exchanger interface {
	Exchange(ctx context.Context, server net.IP, qname string, qtype dnswire.QueryType) (*dnswire.Packet, error)
}
