// Command dnsdump decodes a captured DNS message from a file and prints it.
// Only the first 512 bytes are considered, matching the plain-UDP limit.
//
// Usage:
//
//	dnsdump response_packet.bin
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cvanloo/burrowdns/internal/dnswire"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <packet-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := dump(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "dnsdump error: %v\n", err)
		os.Exit(1)
	}
}

func dump(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(raw) > dnswire.PacketSize {
		raw = raw[:dnswire.PacketSize]
	}

	p, err := dnswire.ReadPacket(dnswire.NewPacketBufferFrom(raw))
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	printHeader(p.Header)
	for _, q := range p.Questions {
		fmt.Printf("question    %s %s\n", q.Name, q.Type)
	}
	printSection("answer", p.Answers)
	printSection("authority", p.Authorities)
	printSection("additional", p.Additionals)
	return nil
}

func printHeader(h dnswire.Header) {
	fmt.Printf("id=%d qr=%t opcode=%d aa=%t tc=%t rd=%t ra=%t rcode=%s\n",
		h.ID, h.Response, h.Opcode, h.AuthoritativeAns, h.Truncated,
		h.RecursionDesired, h.RecursionAvailable, h.Rcode)
	fmt.Printf("counts: qd=%d an=%d ns=%d ar=%d\n",
		h.QDCount, h.ANCount, h.NSCount, h.ARCount)
}

func printSection(name string, records []dnswire.Record) {
	for _, rr := range records {
		fmt.Printf("%-11s %s\n", name, formatRecord(rr))
	}
}

func formatRecord(rr dnswire.Record) string {
	meta := rr.Meta()
	switch r := rr.(type) {
	case *dnswire.ARecord:
		return fmt.Sprintf("%s %d A %s", meta.Domain, meta.TTL, r.Addr)
	case *dnswire.AAAARecord:
		return fmt.Sprintf("%s %d AAAA %s", meta.Domain, meta.TTL, r.Addr)
	case *dnswire.NSRecord:
		return fmt.Sprintf("%s %d NS %s", meta.Domain, meta.TTL, r.Host)
	case *dnswire.CNAMERecord:
		return fmt.Sprintf("%s %d CNAME %s", meta.Domain, meta.TTL, r.Host)
	case *dnswire.MXRecord:
		return fmt.Sprintf("%s %d MX %d %s", meta.Domain, meta.TTL, r.Priority, r.Host)
	case *dnswire.UnknownRecord:
		return fmt.Sprintf("%s %d %s (%d bytes skipped)", meta.Domain, meta.TTL, r.QType, r.DataLen)
	default:
		return fmt.Sprintf("%s %d %s", meta.Domain, meta.TTL, rr.Type())
	}
}
