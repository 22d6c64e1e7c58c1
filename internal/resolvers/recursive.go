package resolvers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/cvanloo/burrowdns/internal/dnswire"
)

// DefaultMaxDelegations bounds how many upstream exchanges a single client
// question may cost, counting glueless name-server resolutions against the
// same budget. Real delegation chains are a handful of steps; the bound only
// exists to stop referral loops.
const DefaultMaxDelegations = 16

// ErrDelegationLimit is returned when a resolution exhausts its delegation
// budget without reaching an authoritative answer.
var ErrDelegationLimit = errors.New("delegation limit reached")

// RecursiveResolver resolves questions by iterative descent: it queries a
// root server and follows NS referrals downward until a server answers
// authoritatively or reports NXDOMAIN.
//
// Referral handling:
//
// When a response carries NS records for an ancestor zone of the query name,
// the descent continues at one of those servers. A glue A record in the
// additional section supplies the address directly; without glue, the name
// server's own address is resolved first (a fresh descent from the root,
// charged to the same budget) and the original descent resumes there. A
// response with neither answers nor usable referrals ends the descent and is
// returned as-is.
type RecursiveResolver struct {
	Logger *slog.Logger // Optional logger for per-delegation debug output

	root           net.IP
	maxDelegations int
	client         Exchanger
}

// NewRecursiveResolver creates a resolver descending from the given root
// server. maxDelegations <= 0 selects DefaultMaxDelegations.
func NewRecursiveResolver(root net.IP, maxDelegations int, client Exchanger) *RecursiveResolver {
	if maxDelegations <= 0 {
		maxDelegations = DefaultMaxDelegations
	}
	return &RecursiveResolver{root: root, maxDelegations: maxDelegations, client: client}
}

// Resolve performs a full iterative descent for one question.
func (r *RecursiveResolver) Resolve(ctx context.Context, qname string, qtype dnswire.QueryType) (Result, error) {
	budget := r.maxDelegations
	resp, err := r.descend(ctx, qname, qtype, &budget)
	if err != nil {
		return Result{}, err
	}
	return Result{Packet: resp, Source: "recursive"}, nil
}

// descend runs the referral loop for one name, starting at the root. The
// budget is shared across nested descents for glueless name servers.
func (r *RecursiveResolver) descend(ctx context.Context, qname string, qtype dnswire.QueryType, budget *int) (*dnswire.Packet, error) {
	ns := r.root

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if *budget <= 0 {
			return nil, fmt.Errorf("%w: resolving %s", ErrDelegationLimit, qname)
		}
		*budget--

		if r.Logger != nil {
			r.Logger.DebugContext(ctx, "delegation step",
				"qname", qname,
				"qtype", qtype.String(),
				"server", ns.String(),
			)
		}

		resp, err := r.client.Exchange(ctx, ns, qname, qtype)
		if err != nil {
			return nil, fmt.Errorf("query %s at %s: %w", qname, ns, err)
		}

		// Authoritative answer or a definitive "does not exist" both
		// terminate the descent.
		if len(resp.Answers) > 0 && resp.Header.Rcode == dnswire.RcodeNoError {
			return resp, nil
		}
		if resp.Header.Rcode == dnswire.RcodeNXDomain {
			return resp, nil
		}

		// Referral with glue: continue at the delegated server.
		if ip, ok := resp.ResolvedNS(qname); ok {
			ns = ip
			continue
		}

		// Referral without glue: resolve the name server's address
		// first, then continue there. A sub-resolution that yields no
		// address is a dead end and the referral response is the best
		// answer available; a failed one fails the whole resolution.
		host, ok := resp.UnresolvedNS(qname)
		if !ok {
			return resp, nil
		}
		nsResp, err := r.descend(ctx, host, dnswire.TypeA, budget)
		if err != nil {
			return nil, err
		}
		ip, ok := nsResp.FirstA()
		if !ok {
			return resp, nil
		}
		ns = ip
	}
}

// Close implements Resolver. The recursive resolver holds no resources.
func (r *RecursiveResolver) Close() error { return nil }
