package dnswire

import "strconv"

// QueryType identifies a DNS record type (RFC 1035, RFC 3596).
type QueryType uint16

const (
	TypeA     QueryType = 1  // IPv4 address
	TypeNS    QueryType = 2  // Authoritative name server
	TypeCNAME QueryType = 5  // Canonical name (alias)
	TypeMX    QueryType = 15 // Mail exchange
	TypeAAAA  QueryType = 28 // IPv6 address (RFC 3596)
)

// String returns the mnemonic for known types and TYPEn for the rest,
// following the RFC 3597 convention for unknown types.
func (t QueryType) String() string {
	switch t {
	case TypeA:
		return "A"
	case TypeNS:
		return "NS"
	case TypeCNAME:
		return "CNAME"
	case TypeMX:
		return "MX"
	case TypeAAAA:
		return "AAAA"
	default:
		return "TYPE" + strconv.Itoa(int(t))
	}
}

// Rcode represents a DNS response code (RFC 1035 Section 4.1.1).
// Values outside the named range are carried through numerically rather
// than collapsed to RcodeNoError.
type Rcode uint8

const (
	RcodeNoError  Rcode = 0 // No error
	RcodeFormErr  Rcode = 1 // Format error: query malformed
	RcodeServFail Rcode = 2 // Server failure: internal error
	RcodeNXDomain Rcode = 3 // Non-existent domain
	RcodeNotImp   Rcode = 4 // Not implemented: unsupported query type
	RcodeRefused  Rcode = 5 // Query refused by policy
)

func (r Rcode) String() string {
	switch r {
	case RcodeNoError:
		return "NOERROR"
	case RcodeFormErr:
		return "FORMERR"
	case RcodeServFail:
		return "SERVFAIL"
	case RcodeNXDomain:
		return "NXDOMAIN"
	case RcodeNotImp:
		return "NOTIMP"
	case RcodeRefused:
		return "REFUSED"
	default:
		return "RCODE" + strconv.Itoa(int(r))
	}
}

// ClassIN is the Internet class (RFC 1035). It is the only class written;
// the class field is ignored on read.
const ClassIN uint16 = 1
