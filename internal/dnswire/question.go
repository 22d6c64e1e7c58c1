package dnswire

// Question represents a DNS question section entry (RFC 1035 Section 4.1.2).
type Question struct {
	Name string    // Lowercase domain name (e.g. "example.com")
	Type QueryType // Record type requested
}

// ReadQuestion decodes a question at the buffer's cursor. The class field is
// read and discarded; names arrive lowercased from ReadName.
func ReadQuestion(b *PacketBuffer) (Question, error) {
	name, err := b.ReadName()
	if err != nil {
		return Question{}, err
	}
	qtype, err := b.ReadUint16()
	if err != nil {
		return Question{}, err
	}
	if _, err := b.ReadUint16(); err != nil { // class, ignored
		return Question{}, err
	}
	return Question{Name: name, Type: QueryType(qtype)}, nil
}

// Write encodes the question at the buffer's cursor with class IN.
func (q Question) Write(b *PacketBuffer) error {
	if err := b.WriteName(q.Name); err != nil {
		return err
	}
	if err := b.WriteUint16(uint16(q.Type)); err != nil {
		return err
	}
	return b.WriteUint16(ClassIN)
}
