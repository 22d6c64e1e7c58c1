package dnswire

import (
	"net"
	"strings"

	"github.com/cvanloo/burrowdns/internal/helpers"
)

// Packet represents a complete DNS message (RFC 1035 Section 4).
//
// A packet consists of a header and four ordered sections:
//   - Questions: what the client is asking
//   - Answers: resource records answering the question
//   - Authorities: nameserver records pointing at the zone's authorities
//   - Additionals: extra records, notably glue addresses for the authorities
type Packet struct {
	Header      Header
	Questions   []Question
	Answers     []Record
	Authorities []Record
	Additionals []Record
}

// ReadPacket decodes a full message from the buffer, reading exactly as many
// section entries as the header counts announce.
func ReadPacket(b *PacketBuffer) (*Packet, error) {
	h, err := ReadHeader(b)
	if err != nil {
		return nil, err
	}

	p := &Packet{Header: h}
	for range h.QDCount {
		q, err := ReadQuestion(b)
		if err != nil {
			return nil, err
		}
		p.Questions = append(p.Questions, q)
	}
	for range h.ANCount {
		rr, err := ReadRecord(b)
		if err != nil {
			return nil, err
		}
		p.Answers = append(p.Answers, rr)
	}
	for range h.NSCount {
		rr, err := ReadRecord(b)
		if err != nil {
			return nil, err
		}
		p.Authorities = append(p.Authorities, rr)
	}
	for range h.ARCount {
		rr, err := ReadRecord(b)
		if err != nil {
			return nil, err
		}
		p.Additionals = append(p.Additionals, rr)
	}
	return p, nil
}

// Write encodes the packet at the buffer's cursor. The header counts are
// forced to the actual section lengths before encoding so a serialized
// packet is always internally consistent.
func (p *Packet) Write(b *PacketBuffer) error {
	p.Header.QDCount = helpers.ClampIntToUint16(len(p.Questions))
	p.Header.ANCount = helpers.ClampIntToUint16(len(p.Answers))
	p.Header.NSCount = helpers.ClampIntToUint16(len(p.Authorities))
	p.Header.ARCount = helpers.ClampIntToUint16(len(p.Additionals))

	if err := p.Header.Write(b); err != nil {
		return err
	}
	for _, q := range p.Questions {
		if err := q.Write(b); err != nil {
			return err
		}
	}
	for _, section := range [...][]Record{p.Answers, p.Authorities, p.Additionals} {
		for _, rr := range section {
			if err := WriteRecord(b, rr); err != nil {
				return err
			}
		}
	}
	return nil
}

// FirstA returns the first IPv4 address in the answer section, if any.
func (p *Packet) FirstA() (net.IP, bool) {
	for _, rr := range p.Answers {
		if a, ok := rr.(*ARecord); ok {
			return a.Addr, true
		}
	}
	return nil, false
}

// NSEntry is one in-bailiwick delegation from the authority section.
type NSEntry struct {
	Zone string // Owner of the NS record
	Host string // Name server host
}

// NSEntries returns the (zone, host) pairs from NS records in the authority
// section whose zone is an ancestor of qname.
func (p *Packet) NSEntries(qname string) []NSEntry {
	var entries []NSEntry
	for _, rr := range p.Authorities {
		ns, ok := rr.(*NSRecord)
		if !ok {
			continue
		}
		zone := ns.Meta().Domain
		if !inZone(qname, zone) {
			continue
		}
		entries = append(entries, NSEntry{Zone: zone, Host: ns.Host})
	}
	return entries
}

// ResolvedNS picks a name server for qname that comes with a glue address:
// the first in-bailiwick NS host that has a matching A record in the
// additional section.
func (p *Packet) ResolvedNS(qname string) (net.IP, bool) {
	for _, entry := range p.NSEntries(qname) {
		for _, rr := range p.Additionals {
			a, ok := rr.(*ARecord)
			if !ok {
				continue
			}
			if a.Meta().Domain == entry.Host {
				return a.Addr, true
			}
		}
	}
	return nil, false
}

// UnresolvedNS returns the first in-bailiwick name server host for qname
// regardless of glue. The caller has to resolve the host itself.
func (p *Packet) UnresolvedNS(qname string) (string, bool) {
	entries := p.NSEntries(qname)
	if len(entries) == 0 {
		return "", false
	}
	return entries[0].Host, true
}

// inZone reports whether zone is qname itself or an ancestor of it. The
// match is on label boundaries: "host.example.com" is in "example.com",
// "evilexample.com" is not. The empty zone is the root and contains
// everything.
func inZone(qname, zone string) bool {
	if zone == "" || qname == zone {
		return true
	}
	return strings.HasSuffix(qname, "."+zone)
}
