// Command dnsquery sends a single DNS question to a server and prints the
// decoded response. Handy for poking at a running burrowdns instance:
//
//	dnsquery -server 127.0.0.1 -port 2054 -name www.google.com
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/cvanloo/burrowdns/internal/dnswire"
	"github.com/cvanloo/burrowdns/internal/resolvers"
)

func main() {
	var (
		server  = flag.String("server", "8.8.8.8", "DNS server IPv4 address")
		port    = flag.Int("port", 53, "DNS server port")
		name    = flag.String("name", "example.com", "Query name")
		qtype   = flag.Int("qtype", int(dnswire.TypeA), "Query type (numeric, A=1)")
		timeout = flag.Duration("timeout", 2*time.Second, "Exchange timeout")
		quiet   = flag.Bool("quiet", false, "Suppress output (exit status indicates success)")
	)
	flag.Parse()

	ip := net.ParseIP(*server)
	if ip == nil || ip.To4() == nil {
		fmt.Fprintf(os.Stderr, "dnsquery error: %q is not an IPv4 address\n", *server)
		os.Exit(2)
	}

	c := &resolvers.Client{Timeout: *timeout, Port: *port}
	resp, err := c.Exchange(context.Background(), ip, *name, dnswire.QueryType(*qtype))
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "dnsquery error: %v\n", err)
		}
		os.Exit(1)
	}
	if *quiet {
		return
	}

	fmt.Printf("id=%d rcode=%s answers=%d authorities=%d additionals=%d\n",
		resp.Header.ID,
		resp.Header.Rcode,
		len(resp.Answers),
		len(resp.Authorities),
		len(resp.Additionals),
	)
	for _, rr := range resp.Answers {
		fmt.Println(formatRR(rr))
	}
}

func formatRR(rr dnswire.Record) string {
	meta := rr.Meta()
	switch r := rr.(type) {
	case *dnswire.ARecord:
		return fmt.Sprintf("%s\t%d\tA\t%s", meta.Domain, meta.TTL, r.Addr)
	case *dnswire.AAAARecord:
		return fmt.Sprintf("%s\t%d\tAAAA\t%s", meta.Domain, meta.TTL, r.Addr)
	case *dnswire.NSRecord:
		return fmt.Sprintf("%s\t%d\tNS\t%s", meta.Domain, meta.TTL, r.Host)
	case *dnswire.CNAMERecord:
		return fmt.Sprintf("%s\t%d\tCNAME\t%s", meta.Domain, meta.TTL, r.Host)
	case *dnswire.MXRecord:
		return fmt.Sprintf("%s\t%d\tMX\t%d %s", meta.Domain, meta.TTL, r.Priority, r.Host)
	default:
		return fmt.Sprintf("%s\t%d\t%s", meta.Domain, meta.TTL, rr.Type())
	}
}
