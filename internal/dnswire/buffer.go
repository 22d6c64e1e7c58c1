package dnswire

import (
	"fmt"
	"strings"
)

// PacketSize is the maximum size of a DNS message over plain UDP (RFC 1035
// Section 2.3.4). Every PacketBuffer holds exactly this many bytes.
const PacketSize = 512

// maxJumps bounds the number of compression pointers followed while decoding
// a single name. A conforming message needs at most a handful; crafted
// pointer loops are cut off here.
const maxJumps = 5

// PacketBuffer is a fixed 512-byte DNS message buffer with a read/write
// cursor. A buffer is created fresh per datagram and owned by a single
// request for its whole lifetime; it is not safe for concurrent use.
type PacketBuffer struct {
	buf [PacketSize]byte
	pos int
}

// NewPacketBuffer returns an empty buffer with the cursor at 0.
func NewPacketBuffer() *PacketBuffer {
	return &PacketBuffer{}
}

// NewPacketBufferFrom returns a buffer pre-loaded with the given wire bytes
// and the cursor at 0. Input longer than PacketSize is truncated.
func NewPacketBufferFrom(data []byte) *PacketBuffer {
	b := &PacketBuffer{}
	copy(b.buf[:], data)
	return b
}

// Pos returns the current cursor position.
func (b *PacketBuffer) Pos() int { return b.pos }

// Step advances the cursor by n bytes.
func (b *PacketBuffer) Step(n int) { b.pos += n }

// Seek moves the cursor to an absolute position.
func (b *PacketBuffer) Seek(pos int) { b.pos = pos }

// Bytes returns the written prefix of the buffer, from the start up to the
// cursor. This is the slice handed to the transport after encoding.
func (b *PacketBuffer) Bytes() []byte { return b.buf[:b.pos] }

// ReadUint8 returns the byte at the cursor and advances it by one.
func (b *PacketBuffer) ReadUint8() (uint8, error) {
	if b.pos >= PacketSize {
		return 0, fmt.Errorf("%w: end of buffer", ErrWire)
	}
	v := b.buf[b.pos]
	b.pos++
	return v, nil
}

// ReadUint16 reads a big-endian 16-bit value, advancing the cursor by two.
func (b *PacketBuffer) ReadUint16() (uint16, error) {
	hi, err := b.ReadUint8()
	if err != nil {
		return 0, err
	}
	lo, err := b.ReadUint8()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// ReadUint32 reads a big-endian 32-bit value, advancing the cursor by four.
func (b *PacketBuffer) ReadUint32() (uint32, error) {
	var v uint32
	for range 4 {
		o, err := b.ReadUint8()
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(o)
	}
	return v, nil
}

// Get returns the byte at an absolute position without moving the cursor.
func (b *PacketBuffer) Get(pos int) (uint8, error) {
	if pos < 0 || pos >= PacketSize {
		return 0, fmt.Errorf("%w: end of buffer", ErrWire)
	}
	return b.buf[pos], nil
}

// GetRange returns a view of n bytes starting at an absolute position.
func (b *PacketBuffer) GetRange(start, n int) ([]byte, error) {
	if start < 0 || n < 0 || start+n > PacketSize {
		return nil, fmt.Errorf("%w: end of buffer", ErrWire)
	}
	return b.buf[start : start+n], nil
}

// WriteUint8 writes one byte at the cursor and advances it.
func (b *PacketBuffer) WriteUint8(v uint8) error {
	if b.pos >= PacketSize {
		return fmt.Errorf("%w: end of buffer", ErrWire)
	}
	b.buf[b.pos] = v
	b.pos++
	return nil
}

// WriteUint16 writes a big-endian 16-bit value at the cursor.
func (b *PacketBuffer) WriteUint16(v uint16) error {
	if err := b.WriteUint8(uint8(v >> 8)); err != nil {
		return err
	}
	return b.WriteUint8(uint8(v))
}

// WriteUint32 writes a big-endian 32-bit value at the cursor.
func (b *PacketBuffer) WriteUint32(v uint32) error {
	for shift := 24; shift >= 0; shift -= 8 {
		if err := b.WriteUint8(uint8(v >> shift)); err != nil {
			return err
		}
	}
	return nil
}

// Set overwrites the byte at an absolute position. The cursor is unchanged.
func (b *PacketBuffer) Set(pos int, v uint8) error {
	if pos < 0 || pos >= PacketSize {
		return fmt.Errorf("%w: end of buffer", ErrWire)
	}
	b.buf[pos] = v
	return nil
}

// SetUint16 overwrites a big-endian 16-bit value at an absolute position.
// The cursor is unchanged. This is how record encoders back-patch the
// rdlength field after emitting variable-length RDATA.
func (b *PacketBuffer) SetUint16(pos int, v uint16) error {
	if err := b.Set(pos, uint8(v>>8)); err != nil {
		return err
	}
	return b.Set(pos+1, uint8(v))
}

// ReadName decodes a possibly-compressed domain name at the cursor
// (RFC 1035 Section 4.1.4).
//
// A compression pointer is a length byte with the two high bits set; its low
// six bits and the following byte form a 14-bit absolute offset into the
// message. Decoding walks the label sequence with a shadow position so that
// the cursor always ends up just past the name as it appears in the current
// record: two bytes after the first pointer, or one byte after the
// terminating zero label when no pointer occurs. At most maxJumps pointers
// are followed per name.
//
// Labels are lowercased per RFC 4343; byte sequences that are not valid
// UTF-8 are replaced lossily. The returned name is dot-separated with no
// trailing dot.
func (b *PacketBuffer) ReadName() (string, error) {
	pos := b.pos
	jumped := false
	jumps := 0

	var out strings.Builder
	delim := ""
	for {
		if jumps > maxJumps {
			return "", fmt.Errorf("%w: limit of %d jumps exceeded", ErrWire, maxJumps)
		}

		length, err := b.Get(pos)
		if err != nil {
			return "", err
		}

		if length&0xC0 == 0xC0 {
			// Compression pointer. The primary cursor skips only the
			// pointer's two bytes, regardless of where the chase goes.
			if !jumped {
				b.Seek(pos + 2)
			}
			lo, err := b.Get(pos + 1)
			if err != nil {
				return "", err
			}
			pos = int(uint16(length&0x3F)<<8 | uint16(lo))
			jumped = true
			jumps++
			continue
		}

		pos++
		if length == 0 {
			break
		}

		label, err := b.GetRange(pos, int(length))
		if err != nil {
			return "", err
		}
		out.WriteString(delim)
		out.WriteString(strings.ToLower(strings.ToValidUTF8(string(label), "�")))
		delim = "."
		pos += int(length)
	}

	if !jumped {
		b.Seek(pos)
	}
	return out.String(), nil
}

// WriteName encodes a domain name at the cursor as a sequence of
// length-prefixed labels ending in a zero byte. Compression pointers are
// never written. A label longer than 63 bytes is rejected.
func (b *PacketBuffer) WriteName(name string) error {
	for label := range strings.SplitSeq(name, ".") {
		if len(label) > 0x3F {
			return fmt.Errorf("%w: single label exceeds 63 characters of length", ErrWire)
		}
		if err := b.WriteUint8(uint8(len(label))); err != nil {
			return err
		}
		for i := range len(label) {
			if err := b.WriteUint8(label[i]); err != nil {
				return err
			}
		}
	}
	return b.WriteUint8(0)
}
